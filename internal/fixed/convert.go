package fixed

import (
	"fmt"
	"math"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	maxBig    = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minBig    = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	oneBig    = new(big.Int).Lsh(big.NewInt(1), 64)
	fiveTo64  = new(big.Int).Exp(big.NewInt(5), big.NewInt(64), nil)
	powersTen [78]*big.Int
)

func init() {
	p := big.NewInt(1)
	for i := range powersTen {
		powersTen[i] = new(big.Int).Set(p)
		p.Mul(p, big.NewInt(10))
	}
}

// FromRaw wraps a raw scaled integer (value·2^64).
func FromRaw(raw *big.Int) (Fixed, error) {
	if raw.Cmp(minBig) < 0 || raw.Cmp(maxBig) > 0 {
		return Zero, ErrOutOfRange
	}
	abs, _ := uint256.FromBig(new(big.Int).Abs(raw))
	if raw.Sign() < 0 {
		abs.Neg(abs)
	}
	return Fixed{v: *abs}, nil
}

// Raw returns value·2^64 as a signed integer.
func (f Fixed) Raw() *big.Int {
	if f.IsNeg() {
		var a uint256.Int
		a.Neg(&f.v)
		b := a.ToBig()
		return b.Neg(b)
	}
	return f.v.ToBig()
}

// FromDecN converts an integer carrying the given number of decimals,
// truncating toward zero. Inputs whose 64.64 image would not fit return
// ErrOutOfRange.
func FromDecN(x *big.Int, decimals uint8) (Fixed, error) {
	if int(decimals) >= len(powersTen) {
		return Zero, fmt.Errorf("%w: %d decimals", ErrOutOfRange, decimals)
	}
	scale := powersTen[decimals]
	lo := new(big.Int).Quo(new(big.Int).Mul(minBig, scale), oneBig)
	hi := new(big.Int).Quo(new(big.Int).Mul(maxBig, scale), oneBig)
	if x.Cmp(lo) < 0 || x.Cmp(hi) > 0 {
		return Zero, ErrOutOfRange
	}
	r := new(big.Int).Lsh(x, 64)
	r.Quo(r, scale)
	return FromRaw(r)
}

// DecN converts to an integer with the given number of decimals, truncating
// toward zero.
func (f Fixed) DecN(decimals uint8) (*big.Int, error) {
	if int(decimals) >= len(powersTen) {
		return nil, fmt.Errorf("%w: %d decimals", ErrOutOfRange, decimals)
	}
	r := f.Raw()
	r.Mul(r, powersTen[decimals])
	return r.Quo(r, oneBig), nil
}

// FromDec18 converts an 18-decimal integer.
func FromDec18(x *big.Int) (Fixed, error) {
	return FromDecN(x, 18)
}

// Dec18 converts to an 18-decimal integer. Every Fixed is representable.
func (f Fixed) Dec18() *big.Int {
	r, _ := f.DecN(18)
	return r
}

// FromDecimal converts a decimal, truncating toward zero below 2^-64.
func FromDecimal(d decimal.Decimal) (Fixed, error) {
	coef := d.Coefficient()
	exp := d.Exponent()
	r := new(big.Int).Lsh(coef, 64)
	switch {
	case exp > 0:
		if int(exp) >= len(powersTen) {
			return Zero, ErrOutOfRange
		}
		r.Mul(r, powersTen[exp])
	case exp < 0:
		if int(-exp) >= len(powersTen) {
			r.Quo(r, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-exp)), nil))
		} else {
			r.Quo(r, powersTen[-exp])
		}
	}
	return FromRaw(r)
}

// Decimal returns the exact decimal expansion (at most 64 fractional digits).
func (f Fixed) Decimal() decimal.Decimal {
	r := f.Raw()
	r.Mul(r, fiveTo64)
	return decimal.NewFromBigInt(r, -64)
}

// Parse reads a decimal string such as "-12.5".
func Parse(s string) (Fixed, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("fixed: parse %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests; it panics on bad input.
func MustParse(s string) Fixed {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

// FromFloat converts a float64 exactly, truncating bits below 2^-64.
func FromFloat(x float64) (Fixed, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Zero, ErrOutOfRange
	}
	bf := new(big.Float).SetFloat64(x)
	bf.SetMantExp(bf, 64)
	r, _ := bf.Int(nil)
	return FromRaw(r)
}

// Float64 returns the nearest float64.
func (f Fixed) Float64() float64 {
	bf := new(big.Float).SetInt(f.Raw())
	bf.SetMantExp(bf, -64)
	x, _ := bf.Float64()
	return x
}

// String prints the value with up to 18 decimals.
func (f Fixed) String() string {
	return decimal.NewFromBigInt(f.Dec18(), -18).String()
}
