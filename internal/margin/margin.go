// Package margin computes margin rates, the collateral needed for a target
// leverage and the leverage a given collateral produces.
//
// Both directions solve the same balance identity, in quote currency:
//
//	|P'|·Sm/lev + fee·|k|·S2 = M·S3 + P·Sm - L + k·(Sm - pe)
//
// with P the current and P' the target position, k = P' - P, Sm the mark
// price, S3 the collateral price and pe the entry price of the trade.
package margin

import (
	"errors"

	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/perp"
)

var (
	ErrInvalidLeverage   = errors.New("margin: leverage must be positive")
	ErrNoCollateralPrice = errors.New("margin: collateral price is not positive")
	ErrNegativeBalance   = errors.New("margin: margin balance after trade is not positive")
)

// Pricer is the part of the pricing engine margin computations need.
type Pricer interface {
	Price(amm perp.AMMState, k fixed.Fixed) (fixed.Fixed, error)
	MidPrice(amm perp.AMMState) (fixed.Fixed, error)
}

// Engine margin calculator for one perpetual.
type Engine struct {
	params perp.PerpParameters
	pricer Pricer
}

func New(params perp.PerpParameters, pricer Pricer) *Engine {
	return &Engine{params: params, pricer: pricer}
}

func (e *Engine) Params() perp.PerpParameters { return e.params }

// Request describes a prospective trade.
type Request struct {
	Leverage       fixed.Fixed // target leverage, ignored by CalculateLeverage
	TargetPosition fixed.Fixed // 目標倉位 P'
	// Slippage bounds the entry price to mid·(1 ± Slippage). Zero leaves
	// the entry price unbounded.
	Slippage fixed.Fixed
	// AccountForMargin nets the trader's cash against the requirement.
	AccountForMargin bool
	// AccountForPosition includes the trader's open position; when false
	// the trader is treated as flat.
	AccountForPosition bool
	WithReferrer       bool
}

// =====================================================
// Required Collateral
// =====================================================

// RequiredCollateral returns the collateral (collateral currency) that
// leaves the trader at req.Leverage after the trade. A trade that only
// reduces the position has no leverage floor: the collateral just keeps
// the balance non-negative once fees are paid. With AccountForMargin the
// existing cash is netted and the result floored at zero.
func (e *Engine) RequiredCollateral(amm perp.AMMState, trader perp.TraderState, req Request) (fixed.Fixed, error) {
	if !req.Leverage.IsPos() {
		return fixed.Zero, ErrInvalidLeverage
	}
	t, err := e.terms(amm, trader, req)
	if err != nil {
		return fixed.Zero, err
	}

	var c fixed.Calc
	need := t.fee
	if !t.closing {
		need = c.Add(need, c.Div(c.Mul(req.TargetPosition.Abs(), t.mark), req.Leverage))
	}
	need = c.Sub(need, t.equity)
	m := c.Div(need, t.s3)
	if err := c.Err(); err != nil {
		return fixed.Zero, err
	}

	if req.AccountForMargin {
		m, err = m.Sub(t.cash)
		if err != nil {
			return fixed.Zero, err
		}
		m = fixed.MaxOf(m, fixed.Zero)
	}
	return m, nil
}

// CalculateLeverage is the forward direction: the leverage reached after
// the trade when collateral (collateral currency) is posted. With
// AccountForMargin the trader's cash is added to collateral.
func (e *Engine) CalculateLeverage(amm perp.AMMState, trader perp.TraderState, req Request, collateral fixed.Fixed) (fixed.Fixed, error) {
	if req.TargetPosition.IsZero() {
		return fixed.Zero, nil
	}
	t, err := e.terms(amm, trader, req)
	if err != nil {
		return fixed.Zero, err
	}

	var c fixed.Calc
	if req.AccountForMargin {
		collateral = c.Add(collateral, t.cash)
	}
	balance := c.Sub(c.Add(c.Mul(collateral, t.s3), t.equity), t.fee)
	if err := c.Err(); err != nil {
		return fixed.Zero, err
	}
	if !balance.IsPos() {
		return fixed.Zero, ErrNegativeBalance
	}
	lev := c.Div(c.Mul(req.TargetPosition.Abs(), t.mark), balance)
	return lev, c.Err()
}

// EntryPrice is the execution price of trade k, bounded by the slippage
// tolerance around mid.
func (e *Engine) EntryPrice(amm perp.AMMState, k, slippage fixed.Fixed) (fixed.Fixed, error) {
	price, err := e.pricer.Price(amm, k)
	if err != nil || !slippage.IsPos() {
		return price, err
	}
	mid, err := e.pricer.MidPrice(amm)
	if err != nil {
		return fixed.Zero, err
	}
	var c fixed.Calc
	if k.IsPos() {
		bound := c.Mul(mid, c.Add(fixed.One, slippage))
		return fixed.MinOf(price, bound), c.Err()
	}
	bound := c.Mul(mid, c.Sub(fixed.One, slippage))
	return fixed.MaxOf(price, bound), c.Err()
}

// =====================================================
// tool methods
// =====================================================

// tradeTerms are the quote-currency pieces of the balance identity.
type tradeTerms struct {
	mark    fixed.Fixed
	s3      fixed.Fixed
	cash    fixed.Fixed // trader cash after funding, collateral currency
	fee     fixed.Fixed // fees and rebate, quote currency
	equity  fixed.Fixed // P·Sm - L + k·(Sm - pe)
	closing bool
}

func (e *Engine) terms(amm perp.AMMState, trader perp.TraderState, req Request) (tradeTerms, error) {
	var t tradeTerms
	var err error

	prices := amm.Prices(perp.OraclePrice)
	t.s3 = e.params.Regime.CollateralPrice(prices)
	if !t.s3.IsPos() {
		return t, ErrNoCollateralPrice
	}
	if t.mark, err = amm.MarkPrice(); err != nil {
		return t, err
	}
	if t.cash, err = trader.CashAfterFunding(e.params); err != nil {
		return t, err
	}

	pos, locked := trader.Position, trader.LockedInValue
	if !req.AccountForPosition {
		pos, locked = fixed.Zero, fixed.Zero
	}

	var c fixed.Calc
	k := c.Sub(req.TargetPosition, pos)
	t.equity = c.Sub(c.Mul(pos, t.mark), locked)
	if err := c.Err(); err != nil {
		return t, err
	}
	t.closing = isClosing(pos, k, req.TargetPosition)

	t.fee = fixed.Zero
	if !k.IsZero() {
		pe, err := e.EntryPrice(amm, k, req.Slippage)
		if err != nil {
			return t, err
		}
		t.equity = c.Add(t.equity, c.Mul(k, c.Sub(t.mark, pe)))
		t.fee = c.Mul(c.Mul(e.params.TotalFeeRate(), k.Abs()), prices.S2)
		if req.WithReferrer {
			t.fee = c.Add(t.fee, c.Mul(e.params.ReferralRebateCC, t.s3))
		}
	}
	return t, c.Err()
}

// isClosing reports a trade against the open position that reduces it
// without flipping its side.
func isClosing(pos, k, target fixed.Fixed) bool {
	if pos.IsZero() || k.IsZero() || k.Sign() == pos.Sign() {
		return false
	}
	return target.Sign() != -pos.Sign()
}
