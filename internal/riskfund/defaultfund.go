package riskfund

import (
	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/perp"
)

// DFInput inputs of the default fund target.
type DFInput struct {
	NumActiveAccounts int64 // 活躍交易帳戶數
	TraderExposureEMA fixed.Fixed
	AMMExposureEMA    [2]fixed.Fixed // (long, short)
	Prices            perp.Prices
}

// DFInputFrom reads the exposure EMAs and oracle prices of the AMM.
func DFInputFrom(amm perp.AMMState, numActive int64) DFInput {
	return DFInput{
		NumActiveAccounts: numActive,
		TraderExposureEMA: amm.TraderExposureEMA,
		AMMExposureEMA:    amm.AMMExposureEMA,
		Prices:            amm.Prices(perp.OraclePrice),
	}
}

// DefaultFundTarget (違約基金目標) in the collateral currency of the regime.
func DefaultFundTarget(p perp.PerpParameters, in DFInput) (fixed.Fixed, error) {
	switch p.Regime.(type) {
	case perp.BaseCollateral:
		return DefaultFundTargetCC2(p, in)
	case perp.QuantoCollateral:
		return DefaultFundTargetCC3(p, in)
	default:
		return DefaultFundTargetCC1(p, in)
	}
}

// DefaultFundTargetCC1 is the default fund target in quote currency:
//
//	coverN = max(1, numActive · DFCoverNRate)
//	K_j    = max(ammEMA_j, minAMM) + coverN · max(traderEMA, minTrader)
//	target = max_j K_j · S2 · |e^{r_j} - 1|
//
// Scenario 0 is the down move against the long exposure, scenario 1 the up
// move against the short exposure.
func DefaultFundTargetCC1(p perp.PerpParameters, in DFInput) (fixed.Fixed, error) {
	return dfTarget(p, in, func(_ int, loss fixed.Fixed) (fixed.Fixed, error) {
		return loss, nil
	})
}

// DefaultFundTargetCC2 is the target in base currency, each scenario's loss
// converted at the stressed price S2·e^{r_j}.
func DefaultFundTargetCC2(p perp.PerpParameters, in DFInput) (fixed.Fixed, error) {
	return dfTarget(p, in, func(j int, loss fixed.Fixed) (fixed.Fixed, error) {
		return stressedConversion(loss, in.Prices.S2, p.StressReturnS2[j])
	})
}

// DefaultFundTargetCC3 is the target in quanto currency, converted at
// S3·e^{r3_j}. The regime must be quanto.
func DefaultFundTargetCC3(p perp.PerpParameters, in DFInput) (fixed.Fixed, error) {
	q, ok := p.Regime.(perp.QuantoCollateral)
	if !ok {
		return fixed.Zero, ErrNoQuantoCollateral
	}
	return dfTarget(p, in, func(j int, loss fixed.Fixed) (fixed.Fixed, error) {
		return stressedConversion(loss, in.Prices.S3, q.StressReturnS3[j])
	})
}

// UpdateExposureEMA folds obs into the exposure EMA. The slow weight
// lambda[0] applies while exposure shrinks, the fast lambda[1] when it
// grows. The magnitude is floored at floor.
func UpdateExposureEMA(prev, obs fixed.Fixed, lambda [2]fixed.Fixed, floor fixed.Fixed) (fixed.Fixed, error) {
	l := lambda[0]
	if obs.Abs().Gt(prev.Abs()) {
		l = lambda[1]
	}
	var c fixed.Calc
	ema := c.Add(c.Mul(l, prev), c.Mul(c.Sub(fixed.One, l), obs))
	if err := c.Err(); err != nil {
		return fixed.Zero, err
	}
	if ema.Abs().Lt(floor) {
		return floor.WithSign(ema), nil
	}
	return ema, nil
}

// --------------------------------------------------------------------------------------------
// private func
// --------------------------------------------------------------------------------------------

func dfTarget(p perp.PerpParameters, in DFInput, project func(j int, loss fixed.Fixed) (fixed.Fixed, error)) (fixed.Fixed, error) {
	if !in.Prices.S2.IsPos() {
		return fixed.Zero, ErrInvalidPrice
	}

	var c fixed.Calc
	coverN := fixed.MaxOf(c.MulInt(p.DFCoverNRate, in.NumActiveAccounts), fixed.One)
	widen := c.Mul(coverN, fixed.MaxOf(in.TraderExposureEMA, p.MinimalTraderExposureEMA))
	if err := c.Err(); err != nil {
		return fixed.Zero, err
	}

	target := fixed.Zero
	for j, r := range p.StressReturnS2 {
		k := c.Add(fixed.MaxOf(in.AMMExposureEMA[j], p.MinimalAMMExposureEMA), widen)
		move := c.Sub(c.Exp(r), fixed.One).Abs()
		loss := c.Prod(k, in.Prices.S2, move)
		if err := c.Err(); err != nil {
			return fixed.Zero, err
		}
		v, err := project(j, loss)
		if err != nil {
			return fixed.Zero, err
		}
		target = fixed.MaxOf(target, v)
	}
	return target, nil
}

// stressedConversion is loss / (price · e^r).
func stressedConversion(loss, price, r fixed.Fixed) (fixed.Fixed, error) {
	if !price.IsPos() {
		return fixed.Zero, ErrInvalidPrice
	}
	var c fixed.Calc
	v := c.Div(loss, c.Mul(price, c.Exp(r)))
	return v, c.Err()
}
