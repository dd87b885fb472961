// Package tradesize bounds trade sizes by the AMM's capacity and by the
// trader's collateral.
package tradesize

import (
	"errors"
	"fmt"

	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/margin"
	"frizo/amm_risk_engine/internal/perp"
	"frizo/amm_risk_engine/internal/pricing"
)

// MaxIterations hard cap of the position solver.
const MaxIterations = 20

var (
	ErrPoolNotRunning = errors.New("tradesize: liquidity pool is not running")
	ErrNotConverged   = errors.New("tradesize: position solver did not converge")
)

// ConvergenceError carries the fallback returned when the position solver
// stops at its iteration cap.
type ConvergenceError struct {
	Iterations int
	Last       fixed.Fixed // feasible end of the bracket, before rounding
	Fallback   fixed.Fixed // returned position
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%v after %d iterations (last %s, using %s)", ErrNotConverged, e.Iterations, e.Last, e.Fallback)
}

func (e *ConvergenceError) Unwrap() error { return ErrNotConverged }

// Engine trade size calculator for one perpetual.
type Engine struct {
	params  perp.PerpParameters
	pricer  *pricing.Engine
	margin  *margin.Engine
	maxIter int
}

type Option func(*Engine)

// WithMaxIterations lowers the solver cap. Values are clamped to
// [1, MaxIterations].
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		e.maxIter = min(max(n, 1), MaxIterations)
	}
}

func New(params perp.PerpParameters, pricer *pricing.Engine, opts ...Option) *Engine {
	e := &Engine{
		params:  params,
		pricer:  pricer,
		margin:  margin.New(params, pricer),
		maxIter: MaxIterations,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) MaxIter() int { return e.maxIter }

// =====================================================
// AMM capacity
// =====================================================

// MaximalTradeSize is the largest signed trade on side the AMM accepts from
// a trader holding currentPos. It is evaluated on the stored and the oracle
// prices and the smaller magnitude wins; the result is lot-rounded toward
// zero. A trade that closes the current position is always allowed.
func (e *Engine) MaximalTradeSize(amm perp.AMMState, pool perp.LiqPoolState, currentPos fixed.Fixed, side perp.Side) (fixed.Fixed, error) {
	if !pool.Running {
		return fixed.Zero, ErrPoolNotRunning
	}
	stored, err := e.maxTradeAt(amm, pool, currentPos, side, perp.StoredPrice)
	if err != nil {
		return fixed.Zero, err
	}
	oracle, err := e.maxTradeAt(amm, pool, currentPos, side, perp.OraclePrice)
	if err != nil {
		return fixed.Zero, err
	}
	k := stored
	if oracle.Abs().Lt(stored.Abs()) {
		k = oracle
	}
	return e.params.RoundToLot(k), nil
}

// maxTradeAt for one price snapshot:
//
//	maxPos   = max(traderEMA, floor) · (1 + bump)
//	capacity = capital / (S2 · |e^r - 1| / S3)
//	buy      : k = min(maxPos - P, capacity - K2)
//	sell     : k = max(-maxPos - P, -capacity - K2)
//
// The bump is scaled by the default fund ratio when the fund is short and
// the trade adds to the AMM's risk (its side differs from k*). The ratio is
// the AMM's DefaultFundFundingRatio, the same one that switches the pricing
// spread to its stress value.
func (e *Engine) maxTradeAt(amm perp.AMMState, pool perp.LiqPoolState, pos fixed.Fixed, side perp.Side, src perp.PriceSource) (fixed.Fixed, error) {
	p := e.params
	prices := amm.Prices(src)
	s3 := p.Regime.CollateralPrice(prices)
	if !prices.S2.IsPos() || !s3.IsPos() {
		return fixed.Zero, margin.ErrNoCollateralPrice
	}

	kStar, err := pricing.OptimalTradeSize(e.pricer.Variables(amm, src))
	if err != nil {
		return fixed.Zero, err
	}

	var c fixed.Calc
	bump := p.MaximalTradeSizeBumpUp
	ratio := amm.DefaultFundFundingRatio
	if ratio.Lt(fixed.One) && kStar.Sign() != int(side) {
		bump = c.Mul(bump, ratio)
	}
	maxPos := c.Mul(fixed.MaxOf(amm.TraderExposureEMA, p.MinimalTraderExposureEMA), c.Add(fixed.One, bump))

	r := p.StressReturnS2[1]
	if side == perp.Sell {
		r = p.StressReturnS2[0]
	}
	capital, err := pool.Capital()
	if err != nil {
		return fixed.Zero, err
	}
	lossPerUnit := c.Div(c.Mul(prices.S2, c.Sub(c.Exp(r), fixed.One).Abs()), s3)
	capacity := c.Div(capital, lossPerUnit)
	if err := c.Err(); err != nil {
		return fixed.Zero, err
	}

	if side == perp.Sell {
		k := fixed.MaxOf(c.Sub(maxPos.Neg(), pos), c.Sub(capacity.Neg(), amm.K2))
		k = fixed.MinOf(k, fixed.Zero)
		if pos.IsPos() {
			k = fixed.MinOf(k, pos.Neg())
		}
		return k, c.Err()
	}
	k := fixed.MinOf(c.Sub(maxPos, pos), c.Sub(capacity, amm.K2))
	k = fixed.MaxOf(k, fixed.Zero)
	if pos.IsNeg() {
		k = fixed.MaxOf(k, pos.Neg())
	}
	return k, c.Err()
}
