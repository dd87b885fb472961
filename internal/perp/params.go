package perp

import (
	"errors"
	"fmt"

	"frizo/amm_risk_engine/internal/fixed"
)

var ErrInvalidParameter = errors.New("perp: invalid parameter")

// ParamError reports the field that failed validation.
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("perp: invalid parameter %s: %s", e.Field, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

// PerpParameters 永續合約參數
type PerpParameters struct {
	// margin curve
	InitialMarginRateAlpha     fixed.Fixed // 初始保證金率 α
	MarginRateBeta             fixed.Fixed // 保證金率斜率 β (per unit of |position|)
	InitialMarginRateCap       fixed.Fixed // 初始保證金率上限
	MaintenanceMarginRateAlpha fixed.Fixed // 維持保證金率 α

	// fees
	TreasuryFeeRate        fixed.Fixed
	PnLPartRate            fixed.Fixed
	ReferralRebateCC       fixed.Fixed // flat rebate in collateral currency
	LiquidationPenaltyRate fixed.Fixed // 強平罰金率

	// spreads
	MinimalSpread         fixed.Fixed
	MinimalSpreadInStress fixed.Fixed

	LotSizeBC fixed.Fixed // 最小下單單位 (base currency)

	// underlying risk
	FundingRateClamp   fixed.Fixed
	MarkPriceEMALambda fixed.Fixed
	Sigma2             fixed.Fixed

	// default fund and AMM fund sizing
	StressReturnS2           [2]fixed.Fixed // (down, up) log returns
	DFCoverNRate             fixed.Fixed
	DFLambda                 [2]fixed.Fixed // (slow, fast) EMA weights
	AMMTargetDD              [2]fixed.Fixed // (baseline, stress), negative
	AMMMinSizeCC             fixed.Fixed
	MinimalTraderExposureEMA fixed.Fixed
	MinimalAMMExposureEMA    fixed.Fixed
	MaximalTradeSizeBumpUp   fixed.Fixed

	// funding state
	CurrentFundingRate     fixed.Fixed
	UnitAccumulatedFunding fixed.Fixed
	OpenInterest           fixed.Fixed

	Regime CollateralRegime
}

// NewPerpParameters validates p and returns it.
func NewPerpParameters(p PerpParameters) (PerpParameters, error) {
	if err := p.Validate(); err != nil {
		return PerpParameters{}, err
	}
	return p, nil
}

// Validate checks the configuration invariants. It reports the first
// violation as a *ParamError.
func (p PerpParameters) Validate() error {
	checks := []struct {
		field string
		ok    bool
		why   string
	}{
		{"InitialMarginRateAlpha", inOpenUnit(p.InitialMarginRateAlpha), "must be in (0,1)"},
		{"MaintenanceMarginRateAlpha", inOpenUnit(p.MaintenanceMarginRateAlpha), "must be in (0,1)"},
		{"MaintenanceMarginRateAlpha", p.MaintenanceMarginRateAlpha.Lt(p.InitialMarginRateAlpha), "must be below InitialMarginRateAlpha"},
		{"InitialMarginRateCap", inOpenUnit(p.InitialMarginRateCap), "must be in (0,1)"},
		{"InitialMarginRateCap", p.InitialMarginRateCap.Ge(p.InitialMarginRateAlpha), "must not be below InitialMarginRateAlpha"},
		{"MarginRateBeta", !p.MarginRateBeta.IsNeg(), "must not be negative"},
		{"TreasuryFeeRate", inUnit(p.TreasuryFeeRate), "must be in [0,1)"},
		{"PnLPartRate", inUnit(p.PnLPartRate), "must be in [0,1)"},
		{"ReferralRebateCC", !p.ReferralRebateCC.IsNeg(), "must not be negative"},
		{"LiquidationPenaltyRate", inUnit(p.LiquidationPenaltyRate), "must be in [0,1)"},
		{"MinimalSpread", inUnit(p.MinimalSpread), "must be in [0,1)"},
		{"MinimalSpreadInStress", inUnit(p.MinimalSpreadInStress), "must be in [0,1)"},
		{"MinimalSpreadInStress", p.MinimalSpreadInStress.Ge(p.MinimalSpread), "must not be below MinimalSpread"},
		{"LotSizeBC", p.LotSizeBC.IsPos(), "must be positive"},
		{"FundingRateClamp", !p.FundingRateClamp.IsNeg(), "must not be negative"},
		{"MarkPriceEMALambda", inUnit(p.MarkPriceEMALambda), "must be in [0,1)"},
		{"Sigma2", p.Sigma2.IsPos(), "must be positive"},
		{"StressReturnS2", straddlesZero(p.StressReturnS2), "must be ordered (down < 0 < up)"},
		{"DFCoverNRate", p.DFCoverNRate.IsPos() && p.DFCoverNRate.Le(fixed.One), "must be in (0,1]"},
		{"DFLambda", inUnit(p.DFLambda[0]) && inUnit(p.DFLambda[1]), "must be in [0,1)"},
		{"AMMTargetDD", p.AMMTargetDD[0].IsNeg() && p.AMMTargetDD[1].Le(p.AMMTargetDD[0]), "must be negative with stress <= baseline"},
		{"AMMMinSizeCC", !p.AMMMinSizeCC.IsNeg(), "must not be negative"},
		{"MinimalTraderExposureEMA", !p.MinimalTraderExposureEMA.IsNeg(), "must not be negative"},
		{"MinimalAMMExposureEMA", !p.MinimalAMMExposureEMA.IsNeg(), "must not be negative"},
		{"MaximalTradeSizeBumpUp", !p.MaximalTradeSizeBumpUp.IsNeg(), "must not be negative"},
		{"Regime", p.Regime != nil, "must be set"},
	}
	for _, c := range checks {
		if !c.ok {
			return &ParamError{Field: c.field, Reason: c.why}
		}
	}

	switch p.Regime.(type) {
	case *QuoteCollateral, *BaseCollateral, *QuantoCollateral:
		// regimes are matched by value everywhere else
		return &ParamError{Field: "Regime", Reason: "must be a value, not a pointer"}
	}
	if q, ok := p.Regime.(QuantoCollateral); ok {
		switch {
		case !q.Sigma3.IsPos():
			return &ParamError{Field: "Sigma3", Reason: "must be positive"}
		case q.Rho23.Abs().Gt(fixed.One):
			return &ParamError{Field: "Rho23", Reason: "must be in [-1,1]"}
		case !straddlesZero(q.StressReturnS3):
			return &ParamError{Field: "StressReturnS3", Reason: "must be ordered (down < 0 < up)"}
		}
	}
	return nil
}

// IsQuanto reports whether collateral is a third currency.
func (p PerpParameters) IsQuanto() bool {
	_, ok := p.Regime.(QuantoCollateral)
	return ok
}

// Quanto returns the quanto fields, zero for the other regimes.
func (p PerpParameters) Quanto() QuantoCollateral {
	q, _ := p.Regime.(QuantoCollateral)
	return q
}

// TotalFeeRate is the fee rate charged on traded notional.
func (p PerpParameters) TotalFeeRate() fixed.Fixed {
	f, err := p.TreasuryFeeRate.Add(p.PnLPartRate)
	if err != nil {
		return fixed.Max
	}
	return f
}

// RoundToLot rounds x toward zero to a multiple of LotSizeBC.
func (p PerpParameters) RoundToLot(x fixed.Fixed) fixed.Fixed {
	if !p.LotSizeBC.IsPos() {
		return x
	}
	n, err := x.Abs().Div(p.LotSizeBC)
	if err != nil {
		return x
	}
	r, err := n.Floor().Mul(p.LotSizeBC)
	if err != nil {
		return x
	}
	return r.WithSign(x)
}

// --------------------------------------------------------------------------------------------
// private func
// --------------------------------------------------------------------------------------------

func inOpenUnit(x fixed.Fixed) bool { return x.IsPos() && x.Lt(fixed.One) }

func inUnit(x fixed.Fixed) bool { return !x.IsNeg() && x.Lt(fixed.One) }

func straddlesZero(r [2]fixed.Fixed) bool { return r[0].IsNeg() && r[1].IsPos() }
