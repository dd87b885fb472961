// Package normal evaluates the standard normal distribution in 64.64 fixed
// point. Results depend only on integer arithmetic, so they are identical on
// every platform.
package normal

import (
	"math/big"

	"frizo/amm_risk_engine/internal/fixed"
)

const (
	seriesMaxTerms = 400
	cfTerms        = 60
	quantileSteps  = 128
)

var (
	// 1/sqrt(2π)
	invSqrt2Pi, _ = fixed.FromRaw(new(big.Int).SetUint64(0x662114cf50d94234))

	seriesLimit = fixed.FromInt(3)
	tailCut     = fixed.FromInt(10)
	quantileLo  = fixed.FromInt(-10)
	quantileHi  = fixed.FromInt(10)
)

// PDF returns the standard normal density φ(z).
func PDF(z fixed.Fixed) (fixed.Fixed, error) {
	var c fixed.Calc
	e := c.Exp(c.Mul(c.Mul(z, z), fixed.Half).Neg())
	p := c.Mul(invSqrt2Pi, e)
	return p, c.Err()
}

// CDF returns Φ(z). The lower half is computed as the upper tail of |z|, so
// CDF(z) + CDF(-z) is exactly one.
func CDF(z fixed.Fixed) (fixed.Fixed, error) {
	if z.IsNeg() {
		return upperTail(z.Neg())
	}
	t, err := upperTail(z)
	if err != nil {
		return fixed.Zero, err
	}
	return fixed.One.Sub(t)
}

// upperTail returns 1 - Φ(z) for z >= 0.
func upperTail(z fixed.Fixed) (fixed.Fixed, error) {
	if z.Ge(tailCut) {
		return fixed.Zero, nil
	}
	p, err := PDF(z)
	if err != nil {
		return fixed.Zero, err
	}
	var c fixed.Calc
	if z.Lt(seriesLimit) {
		// Φ(z) = 1/2 + φ(z)·(z + z³/3 + z⁵/15 + ...)
		z2 := c.Mul(z, z)
		term, sum := z, z
		for n := int64(1); n <= seriesMaxTerms; n++ {
			term = c.DivInt(c.Mul(term, z2), 2*n+1)
			if term.IsZero() {
				break
			}
			sum = c.Add(sum, term)
		}
		return c.Sub(fixed.Half, c.Mul(p, sum)), c.Err()
	}
	// Laplace continued fraction z + 1/(z + 2/(z + 3/(z + ...))), evaluated
	// from the innermost term.
	t := z
	for n := int64(cfTerms); n >= 1; n-- {
		t = c.Add(z, c.Div(fixed.FromInt(n), t))
	}
	return c.Div(p, t), c.Err()
}

// Quantile returns z with Φ(z) = p by bisection on [-10, 10]. p must lie in
// the open interval (0, 1).
func Quantile(p fixed.Fixed) (fixed.Fixed, error) {
	if !p.IsPos() || p.Ge(fixed.One) {
		return fixed.Zero, fixed.ErrDomain
	}
	lo, hi := quantileLo, quantileHi
	for i := 0; i < quantileSteps; i++ {
		gap, _ := hi.Sub(lo)
		if gap.Le(fixed.Ulp) {
			break
		}
		mid := fixed.Avg(lo, hi)
		c, err := CDF(mid)
		if err != nil {
			return fixed.Zero, err
		}
		if c.Lt(p) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi, nil
}
