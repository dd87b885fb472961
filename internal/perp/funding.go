package perp

import "frizo/amm_risk_engine/internal/fixed"

// FundingRate applies the dead zone around zero:
// max(premium, c) + min(premium, -c). Premiums inside [-c, c] pay nothing.
func FundingRate(premium, clamp fixed.Fixed) (fixed.Fixed, error) {
	c := clamp.Abs()
	return fixed.MaxOf(premium, c).Add(fixed.MinOf(premium, c.Neg()))
}

// UpdatePremiumEMA returns λ·prev + (1-λ)·obs.
func UpdatePremiumEMA(prev, obs, lambda fixed.Fixed) (fixed.Fixed, error) {
	var c fixed.Calc
	v := c.Add(c.Mul(lambda, prev), c.Mul(c.Sub(fixed.One, lambda), obs))
	return v, c.Err()
}
