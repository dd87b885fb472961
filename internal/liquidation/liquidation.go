// Package liquidation finds the index price at which a trader's margin
// balance falls to the maintenance requirement.
package liquidation

import (
	"errors"

	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/margin"
	"frizo/amm_risk_engine/internal/perp"
)

var (
	ErrNoPosition      = errors.New("liquidation: no open position")
	ErrNotLiquidatable = errors.New("liquidation: position cannot be liquidated by price")
)

// LiquidationPrice (強平價格) solves
//
//	cash·S3 + pos·S - L = |pos|·S·τ
//
// for the index price S, with the collateral price S3 taken per regime:
//
//	quote  : S = (L - cash) / (pos - |pos|·τ)
//	base   : S = L / (pos + cash - |pos|·τ)          (S3 = S)
//	quanto : S = (L - cash·s3) / (pos - |pos|·τ)     (S3 held at s3)
//
// L is the locked-in value in quote currency, cash is in collateral
// currency and τ is the maintenance margin rate. The position is valued at
// S itself, i.e. with no mark premium. The quanto price treats S3 as fixed
// and is an approximation.
func LiquidationPrice(regime perp.CollateralRegime, lockedIn, pos, cash, tau, s3 fixed.Fixed) (fixed.Fixed, error) {
	return solve(regime, lockedIn, pos, cash, tau, s3, fixed.One)
}

// solve is LiquidationPrice with the position valued at the mark price
// S·m, m = 1 + mark premium rate. The result is still the index price.
func solve(regime perp.CollateralRegime, lockedIn, pos, cash, tau, s3, m fixed.Fixed) (fixed.Fixed, error) {
	if pos.IsZero() {
		return fixed.Zero, ErrNoPosition
	}

	var c fixed.Calc
	den := c.Mul(c.Sub(pos, c.Mul(pos.Abs(), tau)), m)
	var num fixed.Fixed
	switch regime.(type) {
	case perp.QuoteCollateral:
		num = c.Sub(lockedIn, cash)
	case perp.BaseCollateral:
		num = lockedIn
		den = c.Add(den, cash)
	case perp.QuantoCollateral:
		num = c.Sub(lockedIn, c.Mul(cash, s3))
	default:
		return fixed.Zero, ErrNotLiquidatable
	}
	if err := c.Err(); err != nil {
		return fixed.Zero, err
	}
	if den.IsZero() {
		return fixed.Zero, ErrNotLiquidatable
	}

	s, err := num.Div(den)
	if err != nil {
		return fixed.Zero, err
	}
	if !s.IsPos() {
		return fixed.Zero, ErrNotLiquidatable
	}
	return s, nil
}

// =====================================================
// Engine
// =====================================================

// Engine estimates liquidation prices after a prospective trade.
type Engine struct {
	params perp.PerpParameters
	pricer margin.Pricer
	rates  *margin.Engine
}

func New(params perp.PerpParameters, pricer margin.Pricer) *Engine {
	return &Engine{params: params, pricer: pricer, rates: margin.New(params, pricer)}
}

// Result 強平估算
type Result struct {
	Price    fixed.Fixed // index price S2 at liquidation
	Mark     fixed.Fixed // mark price at liquidation, Price·(1 + mark premium)
	Position fixed.Fixed // position after the trade
	// Exact is false when the price holds the quanto collateral price fixed.
	Exact bool
	// Penalty is the liquidation penalty at Mark, collateral currency.
	Penalty fixed.Fixed
}

// ApproximateLiquidationPrice applies tradeSize at the AMM price, charges
// the trading fee, credits cashAdded (collateral currency) and solves for
// the liquidation price at the maintenance rate of the new position.
//
// The position is valued at mark, and the current mark premium is assumed
// to persist, so Price is the index level whose mark breaches maintenance.
// Under quanto collateral S3 has no premium of its own and is held at its
// current oracle value along the path, which makes the result approximate.
func (e *Engine) ApproximateLiquidationPrice(amm perp.AMMState, trader perp.TraderState, tradeSize, cashAdded fixed.Fixed) (Result, error) {
	p := e.params
	prices := amm.Prices(perp.OraclePrice)
	s3 := p.Regime.CollateralPrice(prices)
	if !s3.IsPos() {
		return Result{}, margin.ErrNoCollateralPrice
	}

	cash, err := trader.CashAfterFunding(p)
	if err != nil {
		return Result{}, err
	}

	var c fixed.Calc
	pos, locked := trader.Position, trader.LockedInValue
	cash = c.Add(cash, cashAdded)
	if !tradeSize.IsZero() {
		pe, err := e.pricer.Price(amm, tradeSize)
		if err != nil {
			return Result{}, err
		}
		// 手續費 (collateral currency) = fee·|k|·S2 / S3
		fees := c.Div(c.Mul(c.Mul(p.TotalFeeRate(), tradeSize.Abs()), prices.S2), s3)
		cash = c.Sub(cash, fees)
		locked = c.Add(locked, c.Mul(tradeSize, pe))
		pos = c.Add(pos, tradeSize)
	}
	if err := c.Err(); err != nil {
		return Result{}, err
	}

	m := c.Add(fixed.One, amm.MarkPremiumRate)
	if err := c.Err(); err != nil {
		return Result{}, err
	}
	res := Result{Position: pos, Exact: !p.IsQuanto()}
	tau := e.rates.MaintenanceMarginRate(pos)
	res.Price, err = solve(p.Regime, locked, pos, cash, tau, prices.S3, m)
	if err != nil {
		return res, err
	}
	res.Mark = c.Mul(res.Price, m)

	// 強平罰金 = penalty·|pos|·Sm / S3(S)
	at := p.Regime.CollateralPrice(perp.Prices{S2: res.Price, S3: prices.S3})
	res.Penalty = c.Div(c.Mul(c.Mul(p.LiquidationPenaltyRate, pos.Abs()), res.Mark), at)
	return res, c.Err()
}
