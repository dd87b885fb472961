package perp

import "frizo/amm_risk_engine/internal/fixed"

// CollateralRegime is the currency margin is posted in. It is one of
// QuoteCollateral, BaseCollateral or QuantoCollateral, held by value.
type CollateralRegime interface {
	// Name is "quote", "base" or "quanto".
	Name() string
	// CollateralPrice is the quote-currency price of one unit of collateral.
	CollateralPrice(p Prices) fixed.Fixed
	// Buffers places the single AMM buffer into the (M1, M2, M3) slot used
	// by the pricing formulas.
	Buffers(m fixed.Fixed) (m1, m2, m3 fixed.Fixed)
	regime()
}

// QuoteCollateral margin in the quote currency (e.g. BTCUSD margined in USD).
type QuoteCollateral struct{}

// BaseCollateral margin in the base currency (e.g. BTCUSD margined in BTC).
type BaseCollateral struct{}

// QuantoCollateral margin in a third currency (e.g. ETHUSD margined in BTC).
type QuantoCollateral struct {
	Sigma3 fixed.Fixed // 第三幣波動率
	Rho23  fixed.Fixed // correlation between S2 and S3 returns
	// StressReturnS3 is the (down, up) stress log-return pair of S3.
	StressReturnS3 [2]fixed.Fixed
}

func (QuoteCollateral) Name() string                       { return "quote" }
func (QuoteCollateral) CollateralPrice(Prices) fixed.Fixed { return fixed.One }
func (QuoteCollateral) Buffers(m fixed.Fixed) (fixed.Fixed, fixed.Fixed, fixed.Fixed) {
	return m, fixed.Zero, fixed.Zero
}
func (QuoteCollateral) regime() {}

func (BaseCollateral) Name() string                         { return "base" }
func (BaseCollateral) CollateralPrice(p Prices) fixed.Fixed { return p.S2 }
func (BaseCollateral) Buffers(m fixed.Fixed) (fixed.Fixed, fixed.Fixed, fixed.Fixed) {
	return fixed.Zero, m, fixed.Zero
}
func (BaseCollateral) regime() {}

func (QuantoCollateral) Name() string                         { return "quanto" }
func (QuantoCollateral) CollateralPrice(p Prices) fixed.Fixed { return p.S3 }
func (QuantoCollateral) Buffers(m fixed.Fixed) (fixed.Fixed, fixed.Fixed, fixed.Fixed) {
	return fixed.Zero, fixed.Zero, m
}
func (QuantoCollateral) regime() {}

// RegimeByName maps "quote" and "base" to their regimes. Quanto carries
// parameters and is built directly.
func RegimeByName(name string) (CollateralRegime, bool) {
	switch name {
	case "quote":
		return QuoteCollateral{}, true
	case "base":
		return BaseCollateral{}, true
	default:
		return nil, false
	}
}
