// Package riskfund sizes the AMM fund and the default fund.
//
// The AMM fund target is the buffer M that puts the AMM's default
// probability at a chosen distance to default. The default fund target is
// the loss of the AMM's widened exposure under the stress returns.
package riskfund

import (
	"errors"

	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/normal"
	"frizo/amm_risk_engine/internal/perp"
	"frizo/amm_risk_engine/internal/pricing"
)

var (
	ErrInvalidPrice       = errors.New("riskfund: prices must be positive")
	ErrInvalidTargetDD    = errors.New("riskfund: target distance to default must be negative")
	ErrUnreachableTarget  = errors.New("riskfund: target distance to default cannot be reached")
	ErrNoQuantoCollateral = errors.New("riskfund: regime has no quanto collateral")
)

// FundTargets AMM 基金目標 (collateral currency)
type FundTargets struct {
	Baseline fixed.Fixed // at AMMTargetDD[0]
	Stress   fixed.Fixed // at AMMTargetDD[1]
}

// TargetDD converts a default probability into the distance to default
// used as an AMM fund target.
func TargetDD(pd fixed.Fixed) (fixed.Fixed, error) {
	return normal.Quantile(pd)
}

// AMMTarget returns the buffer, in the collateral currency of the regime,
// at which an AMM holding (k2, l1) has distance to default targetDD. With
// μ = -σ²/2:
//
//	quote : M1 = K2·S2·e^{μ ∓ σ·dd} - L1      (- for K2 > 0)
//	base  : M2 = K2 - L1 / (S2·e^{μ ∓ σ·dd})  (- for L1 > 0)
//	quanto: M3 from the normal approximation, then one Cornish-Fisher step
//
// The result is floored at AMMMinSizeCC.
func AMMTarget(p perp.PerpParameters, k2, l1 fixed.Fixed, prices perp.Prices, targetDD fixed.Fixed) (fixed.Fixed, error) {
	if !prices.S2.IsPos() {
		return fixed.Zero, ErrInvalidPrice
	}
	if !targetDD.IsNeg() {
		return fixed.Zero, ErrInvalidTargetDD
	}

	var m fixed.Fixed
	var err error
	switch r := p.Regime.(type) {
	case perp.QuoteCollateral:
		m, err = quoteTarget(p.Sigma2, k2, l1, prices.S2, targetDD)
	case perp.BaseCollateral:
		m, err = baseTarget(p.Sigma2, k2, l1, prices.S2, targetDD)
	case perp.QuantoCollateral:
		if !prices.S3.IsPos() {
			return fixed.Zero, ErrInvalidPrice
		}
		mkt := pricing.MarketVariables{S2: prices.S2, S3: prices.S3, Sigma2: p.Sigma2, Sigma3: r.Sigma3, Rho23: r.Rho23}
		m, err = quantoTarget(mkt, k2, l1, targetDD)
	default:
		return fixed.Zero, ErrUnreachableTarget
	}
	if err != nil {
		return fixed.Zero, err
	}
	return fixed.MaxOf(m, p.AMMMinSizeCC), nil
}

// AMMFundTargets sizes the AMM fund for an AMM that took the long or the
// short side of its exposure EMA at the oracle price, keeping the larger.
func AMMFundTargets(p perp.PerpParameters, amm perp.AMMState) (FundTargets, error) {
	prices := amm.Prices(perp.OraclePrice)
	var c fixed.Calc

	// AMM long K (K2 = -K) and AMM short K (K2 = +K), both entered at S2
	long := fixed.MaxOf(amm.AMMExposureEMA[0], p.MinimalAMMExposureEMA).Neg()
	short := fixed.MaxOf(amm.AMMExposureEMA[1], p.MinimalAMMExposureEMA)
	sides := [2][2]fixed.Fixed{
		{long, c.Mul(long, prices.S2)},
		{short, c.Mul(short, prices.S2)},
	}
	if err := c.Err(); err != nil {
		return FundTargets{}, err
	}

	var out [2]fixed.Fixed
	for i, dd := range p.AMMTargetDD {
		for _, s := range sides {
			m, err := AMMTarget(p, s[0], s[1], prices, dd)
			if err != nil {
				return FundTargets{}, err
			}
			out[i] = fixed.MaxOf(out[i], m)
		}
	}
	return FundTargets{Baseline: out[0], Stress: out[1]}, nil
}

// --------------------------------------------------------------------------------------------
// private func
// --------------------------------------------------------------------------------------------

// priceFactor is e^{μ + σ·dd} for the adverse tail: shifted up when the
// AMM loses on a rise (up == true), down otherwise.
func priceFactor(sigma, dd fixed.Fixed, up bool) (fixed.Fixed, error) {
	var c fixed.Calc
	mean := c.Mul(c.Mul(sigma, sigma), fixed.Half).Neg()
	shift := c.Mul(sigma, dd)
	if up {
		shift = shift.Neg()
	}
	return c.Exp(c.Add(mean, shift)), c.Err()
}

func quoteTarget(sigma, k2, l1, s2, dd fixed.Fixed) (fixed.Fixed, error) {
	f, err := priceFactor(sigma, dd, k2.IsPos())
	if err != nil {
		return fixed.Zero, err
	}
	var c fixed.Calc
	m := c.Sub(c.Prod(k2, s2, f), l1)
	return m, c.Err()
}

func baseTarget(sigma, k2, l1, s2, dd fixed.Fixed) (fixed.Fixed, error) {
	// L1 > 0 means the AMM holds less base than it owes and loses on a rise.
	f, err := priceFactor(sigma, dd, l1.IsPos())
	if err != nil {
		return fixed.Zero, err
	}
	var c fixed.Calc
	m := c.Sub(k2, c.Div(l1, c.Mul(s2, f)))
	return m, c.Err()
}

// quantoTarget solves for M3 with the normal approximation, measures the
// skew of S3(T)/S3 + C3·S2(T)/S2 at that M3 and solves again at the
// Cornish-Fisher adjusted quantile dd + (dd² - 1)·γ/6.
func quantoTarget(mkt pricing.MarketVariables, k2, l1, dd fixed.Fixed) (fixed.Fixed, error) {
	x0, err := solveM3(mkt, k2, l1, dd)
	if err != nil || !x0.IsPos() {
		return x0, err
	}

	var c fixed.Calc
	c3 := c.Div(c.Div(c.Mul(k2, mkt.S2), mkt.S3), x0).Neg()
	gamma, ok := quantoSkew(mkt, c3)
	if !ok {
		return x0, nil
	}
	adj := c.Add(dd, c.DivInt(c.Mul(c.Sub(c.Mul(dd, dd), fixed.One), gamma), 6))
	if err := c.Err(); err != nil {
		return fixed.Zero, err
	}
	if !adj.IsNeg() {
		return x0, nil
	}
	return solveM3(mkt, k2, l1, adj)
}

// solveM3 finds x = M3 with (λ - 1 - C3)/σZ = dd, which squares to
//
//	A·x² + B·x + C = 0
//	A = 1 - dd²·v3
//	B = 2·(X + Y·dd²·(e^{ρσ2σ3} - 1))
//	C = X² - Y²·dd²·(e^{σ2²} - 1)
//
// with Y = K2·S2/S3 and X = L1/S3 - Y. The larger root is the one with
// λ - 1 - C3 on the side of dd.
func solveM3(mkt pricing.MarketVariables, k2, l1, dd fixed.Fixed) (fixed.Fixed, error) {
	var c fixed.Calc
	va, vb, v3 := pricing.QuantoVarianceTerms(&c, mkt)
	d2 := c.Mul(dd, dd)
	y := c.Div(c.Mul(k2, mkt.S2), mkt.S3)
	x := c.Sub(c.Div(l1, mkt.S3), y)

	a := c.Sub(fixed.One, c.Mul(d2, v3))
	b := c.Add(c.MulInt(x, 2), c.Prod(y, d2, vb))
	cc := c.Sub(c.Mul(x, x), c.Prod(y, y, d2, va))
	if err := c.Err(); err != nil {
		return fixed.Zero, err
	}
	if !a.IsPos() {
		return fixed.Zero, ErrUnreachableTarget
	}

	disc := c.Sub(c.Mul(b, b), c.MulInt(c.Mul(a, cc), 4))
	disc = fixed.MaxOf(disc, fixed.Zero)
	root := c.Div(c.Sub(c.Sqrt(disc), b), c.MulInt(a, 2))
	return root, c.Err()
}

// quantoSkew is the skewness of W = R3 + c3·R2 for lognormal returns R2, R3
// with unit mean, using E[R2^p·R3^q] = exp(σ2²·p(p-1)/2 + σ3²·q(q-1)/2 + pq·ρσ2σ3).
func quantoSkew(mkt pricing.MarketVariables, c3 fixed.Fixed) (fixed.Fixed, bool) {
	var c fixed.Calc
	s22 := c.Mul(mkt.Sigma2, mkt.Sigma2)
	s33 := c.Mul(mkt.Sigma3, mkt.Sigma3)
	rs := c.Prod(mkt.Rho23, mkt.Sigma2, mkt.Sigma3)
	moment := func(p, q int64) fixed.Fixed {
		return c.Exp(c.Sum(c.MulInt(s22, p*(p-1)/2), c.MulInt(s33, q*(q-1)/2), c.MulInt(rs, p*q)))
	}

	c3sq := c.Mul(c3, c3)
	mean := c.Add(fixed.One, c3)
	w2 := c.Sum(moment(0, 2), c.MulInt(c.Mul(c3, moment(1, 1)), 2), c.Mul(c3sq, moment(2, 0)))
	w3 := c.Sum(
		moment(0, 3),
		c.MulInt(c.Mul(c3, moment(1, 2)), 3),
		c.MulInt(c.Mul(c3sq, moment(2, 1)), 3),
		c.Prod(c3sq, c3, moment(3, 0)),
	)

	variance := c.Sub(w2, c.Mul(mean, mean))
	// μ3 = E[W³] - 3·E[W]·E[W²] + 2·E[W]³
	mu3 := c.Sum(w3, c.MulInt(c.Mul(mean, w2), -3), c.MulInt(c.Prod(mean, mean, mean), 2))
	if c.Err() != nil || !variance.IsPos() {
		return fixed.Zero, false
	}
	gamma := c.Div(mu3, c.Mul(variance, c.Sqrt(variance)))
	return gamma, c.Err() == nil
}
