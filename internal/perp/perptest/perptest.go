// Package perptest provides realistic market snapshots for tests.
package perptest

import (
	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/perp"
)

func d(s string) fixed.Fixed { return fixed.MustParse(s) }

// Quanto is an ETHUSD-like quanto parameter set (S3 = BTC).
var Quanto = perp.QuantoCollateral{
	Sigma3:         d("0.06"),
	Rho23:          d("0.5"),
	StressReturnS3: [2]fixed.Fixed{d("-0.3"), d("0.2")},
}

// Params returns a BTCUSD parameter set for the given regime.
func Params(regime perp.CollateralRegime) perp.PerpParameters {
	return perp.PerpParameters{
		InitialMarginRateAlpha:     d("0.04"),
		MarginRateBeta:             d("0.0025"),
		InitialMarginRateCap:       d("0.1"),
		MaintenanceMarginRateAlpha: d("0.03"),

		TreasuryFeeRate:        d("0.0004"),
		PnLPartRate:            d("0.0002"),
		ReferralRebateCC:       d("0.5"),
		LiquidationPenaltyRate: d("0.05"),

		MinimalSpread:         d("0.0005"),
		MinimalSpreadInStress: d("0.001"),
		LotSizeBC:             d("0.0001"),

		FundingRateClamp:   d("0.0005"),
		MarkPriceEMALambda: d("0.7"),
		Sigma2:             d("0.05"),

		StressReturnS2:           [2]fixed.Fixed{d("-0.3"), d("0.2")},
		DFCoverNRate:             d("0.05"),
		DFLambda:                 [2]fixed.Fixed{d("0.999"), d("0.25")},
		AMMTargetDD:              [2]fixed.Fixed{d("-2.326347874040841"), d("-3.090232306167814")},
		AMMMinSizeCC:             d("0.1"),
		MinimalTraderExposureEMA: d("0.5"),
		MinimalAMMExposureEMA:    d("1"),
		MaximalTradeSizeBumpUp:   d("0.5"),

		UnitAccumulatedFunding: d("12.5"),
		OpenInterest:           d("25"),

		Regime: regime,
	}
}

// AMM returns an AMM that is short 0.4 BTC against a 38000 index with a
// 3000 USD buffer. Stored and oracle prices differ slightly.
func AMM() perp.AMMState {
	return perp.AMMState{
		K2:                      d("0.4"),
		L1:                      d("14400"),
		M:                       d("3000"),
		TraderExposureEMA:       d("1.5"),
		AMMExposureEMA:          [2]fixed.Fixed{d("2"), d("1.5")},
		IndexS2:                 d("37950"),
		OracleS2:                d("38000"),
		IndexS3:                 d("1"),
		OracleS3:                d("1"),
		DefaultFundFundingRatio: fixed.One,
	}
}

// BaseAMM returns the AMM() inventory with a 0.08 BTC buffer.
func BaseAMM() perp.AMMState {
	a := AMM()
	a.M = d("0.08")
	return a
}

// QuantoAMM returns an ETHUSD AMM margined in BTC.
func QuantoAMM() perp.AMMState {
	a := AMM()
	a.K2 = d("4")
	a.L1 = d("8000")
	a.M = d("0.03")
	a.IndexS2, a.OracleS2 = d("1995"), d("2000")
	a.IndexS3, a.OracleS3 = d("37950"), d("38000")
	return a
}

// Trader returns a flat trader holding cash.
func Trader(cash string) perp.TraderState {
	return perp.TraderState{
		Cash:              d(cash),
		FundingIndexStart: d("12.5"),
	}
}

// Pool returns a running, fully funded pool.
func Pool() perp.LiqPoolState {
	return perp.LiqPoolState{
		ParticipantCash:   d("20000"),
		AMMFundCash:       d("10000"),
		DefaultFundCash:   d("5000"),
		TargetAMMFundSize: d("10000"),
		TargetDFSize:      d("5000"),
		Running:           true,
	}
}
