package margin

import "frizo/amm_risk_engine/internal/fixed"

// leverageBuffer keeps MaxInitialLeverage strictly inside the initial
// margin boundary.
var leverageBuffer = fixed.MustParse("0.001")

// InitialMarginRate (初始保證金率) = min(α_i + β·|pos|, cap)
func (e *Engine) InitialMarginRate(pos fixed.Fixed) fixed.Fixed {
	p := e.params
	return rate(p.InitialMarginRateAlpha, p.MarginRateBeta, pos, p.InitialMarginRateCap)
}

// MaintenanceMarginRate (維持保證金率) = min(α_m + β·|pos|, cap - (α_i - α_m))
//
// The cap keeps the gap between initial and maintenance rates constant.
func (e *Engine) MaintenanceMarginRate(pos fixed.Fixed) fixed.Fixed {
	p := e.params
	var c fixed.Calc
	limit := c.Sub(p.InitialMarginRateCap, c.Sub(p.InitialMarginRateAlpha, p.MaintenanceMarginRateAlpha))
	if c.Err() != nil {
		return p.InitialMarginRateCap
	}
	return rate(p.MaintenanceMarginRateAlpha, p.MarginRateBeta, pos, limit)
}

// MaxInitialLeverage (最大槓桿) = 1 / InitialMarginRate(pos) - 0.001
func (e *Engine) MaxInitialLeverage(pos fixed.Fixed) (fixed.Fixed, error) {
	var c fixed.Calc
	lev := c.Sub(c.Inv(e.InitialMarginRate(pos)), leverageBuffer)
	return lev, c.Err()
}

func rate(alpha, beta, pos, limit fixed.Fixed) fixed.Fixed {
	r, err := beta.Mul(pos.Abs())
	if err == nil {
		r, err = alpha.Add(r)
	}
	if err != nil {
		return limit
	}
	return fixed.MinOf(r, limit)
}
