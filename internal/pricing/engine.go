package pricing

import (
	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/perp"
)

const defaultDepthLots = 1_000_000

// Engine quotes one perpetual. It holds no state beyond its parameters and
// is safe for concurrent use.
type Engine struct {
	params     perp.PerpParameters
	source     perp.PriceSource
	depthLimit fixed.Fixed
}

type Option func(*Engine)

// WithPriceSource selects the index snapshot quotes are computed from.
// The default is the oracle price.
func WithPriceSource(src perp.PriceSource) Option {
	return func(e *Engine) { e.source = src }
}

// WithDepthLimit bounds the trade size searched by DepthMatrix.
func WithDepthLimit(size fixed.Fixed) Option {
	return func(e *Engine) { e.depthLimit = size.Abs() }
}

// New creates a pricing engine for validated parameters.
func New(params perp.PerpParameters, opts ...Option) *Engine {
	e := &Engine{params: params, source: perp.OraclePrice}
	e.depthLimit, _ = params.LotSizeBC.MulInt(defaultDepthLots)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Params() perp.PerpParameters { return e.params }

func (e *Engine) Source() perp.PriceSource { return e.source }

// Quote 報價
type Quote struct {
	Size    fixed.Fixed
	Price   fixed.Fixed
	PD      fixed.Fixed // AMM default probability after the trade
	DD      fixed.Fixed
	Premium fixed.Fixed // signed, relative to S2
	Spread  fixed.Fixed // signed, relative to S2
}

// Variables maps the AMM snapshot onto the pricing formula inputs using the
// selected prices.
func (e *Engine) Variables(amm perp.AMMState, src perp.PriceSource) (AMMVariables, MarketVariables) {
	prices := amm.Prices(src)
	m1, m2, m3 := e.params.Regime.Buffers(amm.M)
	q := e.params.Quanto()
	return AMMVariables{K2: amm.K2, L1: amm.L1, M1: m1, M2: m2, M3: m3},
		MarketVariables{S2: prices.S2, S3: prices.S3, Sigma2: e.params.Sigma2, Sigma3: q.Sigma3, Rho23: q.Rho23}
}

// OptimalTradeSize returns k* for the engine's price source.
func (e *Engine) OptimalTradeSize(amm perp.AMMState) (fixed.Fixed, error) {
	av, mv := e.Variables(amm, e.source)
	return OptimalTradeSize(av, mv)
}

// Quote prices a trade of signed size k:
//
//	price = S2 · (1 + premium + spread)
//
// premium is +PD for trades above k* and -PD below it. The spread carries
// the sign of k and is zero for k = 0.
func (e *Engine) Quote(amm perp.AMMState, k fixed.Fixed) (Quote, error) {
	return e.QuoteAt(amm, k, e.source)
}

// QuoteAt is Quote for an explicit price snapshot.
func (e *Engine) QuoteAt(amm perp.AMMState, k fixed.Fixed, src perp.PriceSource) (Quote, error) {
	av, mv := e.Variables(amm, src)
	pd, dd, err := RiskNeutralPD(av, mv, k)
	if err != nil {
		return Quote{}, err
	}
	kStar, err := OptimalTradeSize(av, mv)
	if err != nil {
		return Quote{}, err
	}

	premium := pd
	if !k.Gt(kStar) {
		premium = pd.Neg()
	}

	spread := e.spread(amm)
	switch {
	case k.IsZero():
		spread = fixed.Zero
	case k.IsNeg():
		spread = spread.Neg()
	}

	var c fixed.Calc
	price := c.Mul(mv.S2, c.Sum(fixed.One, premium, spread))
	if err := c.Err(); err != nil {
		return Quote{}, err
	}
	return Quote{Size: k, Price: price, PD: pd, DD: dd, Premium: premium, Spread: spread}, nil
}

// Price is Quote(amm, k).Price.
func (e *Engine) Price(amm perp.AMMState, k fixed.Fixed) (fixed.Fixed, error) {
	q, err := e.Quote(amm, k)
	return q.Price, err
}

// MidPrice averages the buy and sell quotes for one lot.
func (e *Engine) MidPrice(amm perp.AMMState) (fixed.Fixed, error) {
	lot := e.params.LotSizeBC
	ask, err := e.Price(amm, lot)
	if err != nil {
		return fixed.Zero, err
	}
	bid, err := e.Price(amm, lot.Neg())
	if err != nil {
		return fixed.Zero, err
	}
	return fixed.Avg(ask, bid), nil
}

// spread picks the stress spread while the default fund is underfunded.
func (e *Engine) spread(amm perp.AMMState) fixed.Fixed {
	if amm.DefaultFundFundingRatio.Lt(fixed.One) {
		return e.params.MinimalSpreadInStress
	}
	return e.params.MinimalSpread
}
