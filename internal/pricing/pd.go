// Package pricing quotes trades against the AMM. The AMM is modelled as a
// portfolio of cash L1 + M1, M2 units of the base asset, M3 units of the
// quanto asset and a short K2 position; it defaults when that portfolio is
// worth less than zero at the horizon. The risk-neutral probability of
// default becomes the price premium.
package pricing

import (
	"errors"

	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/normal"
)

var ErrDegenerateState = errors.New("pricing: degenerate AMM state")

// AMMVariables inventory and buffers of the AMM.
type AMMVariables struct {
	K2 fixed.Fixed
	L1 fixed.Fixed
	M1 fixed.Fixed // quote-currency buffer
	M2 fixed.Fixed // base-currency buffer
	M3 fixed.Fixed // quanto-currency buffer
}

// MarketVariables prices and volatilities the AMM is exposed to.
type MarketVariables struct {
	S2     fixed.Fixed
	S3     fixed.Fixed
	Sigma2 fixed.Fixed
	Sigma3 fixed.Fixed
	Rho23  fixed.Fixed
}

// RiskNeutralPD returns the default probability and distance to default of
// the AMM after it takes the other side of a trade of signed size k. A
// non-zero M3 selects the quanto formula.
func RiskNeutralPD(amm AMMVariables, mkt MarketVariables, k fixed.Fixed) (pd, dd fixed.Fixed, err error) {
	if !mkt.S2.IsPos() {
		return fixed.Zero, fixed.Zero, ErrDegenerateState
	}
	if amm.M1.IsZero() && amm.M2.IsZero() && amm.M3.IsZero() {
		return fixed.Zero, fixed.Zero, ErrDegenerateState
	}

	var c fixed.Calc
	k2 := c.Add(amm.K2, k)
	l1 := c.Add(amm.L1, c.Mul(k, mkt.S2))
	num := c.Sub(l1.Neg(), amm.M1)
	if err := c.Err(); err != nil {
		return fixed.Zero, fixed.Zero, err
	}

	if !amm.M3.IsZero() {
		return quantoPD(amm, mkt, k2, num)
	}

	den, err := amm.M2.Sub(k2)
	if err == nil {
		den, err = den.Mul(mkt.S2)
	}
	if err != nil {
		return fixed.Zero, fixed.Zero, err
	}
	// With no base exposure left the outcome is already decided.
	if den.IsZero() {
		return certain(num.IsPos())
	}

	lambda, err := num.Div(den)
	if errors.Is(err, fixed.ErrOverflow) {
		lambda = fixed.Max.WithSign(fixed.FromInt(int64(num.Sign() * den.Sign())))
	} else if err != nil {
		return fixed.Zero, fixed.Zero, err
	}
	// Default needs the price ratio below a non-positive bound (impossible)
	// or above it (certain).
	if !lambda.IsPos() {
		return certain(den.IsNeg())
	}

	// dd = (ln λ - μ) / σ with μ = -σ²/2
	mean := c.Mul(c.Mul(mkt.Sigma2, mkt.Sigma2), fixed.Half).Neg()
	dd = c.Div(c.Sub(c.Ln(lambda), mean), mkt.Sigma2)
	if err := c.Err(); err != nil {
		return fixed.Zero, fixed.Zero, err
	}
	if den.IsNeg() {
		dd = dd.Neg()
	}
	pd, err = normal.CDF(dd)
	return pd, dd, err
}

// quantoPD approximates S3(T)/S3 + C3·S2(T)/S2 by a normal variable with the
// exact mean and variance of the two correlated lognormal returns.
func quantoPD(amm AMMVariables, mkt MarketVariables, k2, num fixed.Fixed) (fixed.Fixed, fixed.Fixed, error) {
	var c fixed.Calc
	m3s3 := c.Mul(amm.M3, mkt.S3)
	if err := c.Err(); err != nil {
		return fixed.Zero, fixed.Zero, err
	}
	if !m3s3.IsPos() {
		return fixed.Zero, fixed.Zero, ErrDegenerateState
	}

	c3 := c.Div(c.Mul(mkt.S2, c.Sub(amm.M2, k2)), m3s3)
	lambda := c.Div(num, m3s3)
	sigmaZ := quantoSigma(&c, mkt, c3)
	if err := c.Err(); err != nil {
		return fixed.Zero, fixed.Zero, err
	}
	if !sigmaZ.IsPos() {
		return fixed.Zero, fixed.Zero, ErrDegenerateState
	}

	dd := c.Div(c.Sub(c.Sub(lambda, fixed.One), c3), sigmaZ)
	if err := c.Err(); err != nil {
		return fixed.Zero, fixed.Zero, err
	}
	pd, err := normal.CDF(dd)
	return pd, dd, err
}

// quantoSigma is the standard deviation of S3(T)/S3 + c3·S2(T)/S2:
// sqrt((e^{σ2²}-1)·c3² + 2(e^{ρσ2σ3}-1)·c3 + (e^{σ3²}-1)).
func quantoSigma(c *fixed.Calc, mkt MarketVariables, c3 fixed.Fixed) fixed.Fixed {
	varA, varB, varC := QuantoVarianceTerms(c, mkt)
	v := c.Sum(c.Mul(varA, c.Mul(c3, c3)), c.Mul(varB, c3), varC)
	if c.Err() != nil || !v.IsPos() {
		return fixed.Zero
	}
	return c.Sqrt(v)
}

// QuantoVarianceTerms returns e^{σ2²}-1, 2(e^{ρσ2σ3}-1) and e^{σ3²}-1.
func QuantoVarianceTerms(c *fixed.Calc, mkt MarketVariables) (a, b, v3 fixed.Fixed) {
	a = c.Sub(c.Exp(c.Mul(mkt.Sigma2, mkt.Sigma2)), fixed.One)
	b = c.MulInt(c.Sub(c.Exp(c.Prod(mkt.Rho23, mkt.Sigma2, mkt.Sigma3)), fixed.One), 2)
	v3 = c.Sub(c.Exp(c.Mul(mkt.Sigma3, mkt.Sigma3)), fixed.One)
	return a, b, v3
}

// OptimalTradeSize is the trade k* that leaves the AMM with the least risk:
// no base exposure, plus the variance-minimising hedge against S3 when the
// buffer is held in the quanto currency.
func OptimalTradeSize(amm AMMVariables, mkt MarketVariables) (fixed.Fixed, error) {
	var c fixed.Calc
	k := c.Sub(amm.M2, amm.K2)
	if !amm.M3.IsZero() {
		// ρσ3/σ2 · M3·S3/S2
		hedge := c.Div(c.Prod(mkt.Rho23, mkt.Sigma3, amm.M3, mkt.S3), c.Mul(mkt.Sigma2, mkt.S2))
		k = c.Add(k, hedge)
	}
	return k, c.Err()
}

func certain(defaults bool) (fixed.Fixed, fixed.Fixed, error) {
	if defaults {
		return fixed.One, fixed.Max, nil
	}
	return fixed.Zero, fixed.Min, nil
}
