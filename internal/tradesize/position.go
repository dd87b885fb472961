package tradesize

import (
	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/margin"
	"frizo/amm_risk_engine/internal/perp"
)

// SignedMaxAbsPosition is the largest position on side the trader's
// collateral supports at maximal initial leverage, capped by the AMM's
// MaximalTradeSize. P is feasible when
//
//	E + k·(Sm - pe) - fee·|k|·S2 >= |P|·Sm / MaxInitialLeverage(P),  k = P - P0,  E = cash·S3 + P0·Sm - L0
//
// with pe the AMM price of k. Feasibility only shrinks as P moves away
// from the anchor (P0, or zero when the trade first closes the position),
// so the boundary is bracketed between the anchor and the AMM limit and
// bisected until the bracket is narrower than one lot. The result is the
// farthest feasible lot multiple. When the iteration cap is hit the
// feasible end of the bracket is returned, lot-rounded toward zero,
// together with a *ConvergenceError.
func (e *Engine) SignedMaxAbsPosition(amm perp.AMMState, pool perp.LiqPoolState, trader perp.TraderState, side perp.Side) (fixed.Fixed, error) {
	p := e.params
	prices := amm.Prices(perp.OraclePrice)
	s3 := p.Regime.CollateralPrice(prices)
	if !s3.IsPos() {
		return fixed.Zero, margin.ErrNoCollateralPrice
	}
	mark, err := amm.MarkPrice()
	if err != nil {
		return fixed.Zero, err
	}
	cash, err := trader.CashAfterFunding(p)
	if err != nil {
		return fixed.Zero, err
	}

	p0 := trader.Position
	trade, err := e.MaximalTradeSize(amm, pool, p0, side)
	if err != nil {
		return fixed.Zero, err
	}

	var c fixed.Calc
	s := solver{
		e:      e,
		amm:    amm,
		p0:     p0,
		mark:   mark,
		s2:     prices.S2,
		equity: c.Sub(c.Add(c.Mul(cash, s3), c.Mul(p0, mark)), trader.LockedInValue),
	}
	limit := c.Add(p0, trade)
	if err := c.Err(); err != nil {
		return fixed.Zero, err
	}

	anchor := p0
	if p0.Sign() == -int(side) {
		// positions up to zero only close, and closing is always allowed
		anchor = fixed.Zero
		if limit.Sign() == -int(side) {
			anchor = limit
		}
	}
	if anchor.Eq(limit) {
		return p.RoundToLot(limit), nil
	}
	ok, err := s.feasible(limit)
	if err != nil {
		return fixed.Zero, err
	}
	if ok {
		return p.RoundToLot(limit), nil
	}

	lo, hi := anchor, limit
	for i := 0; ; i++ {
		gap, err := hi.Sub(lo)
		if err != nil {
			return fixed.Zero, err
		}
		if gap.Abs().Lt(p.LotSizeBC) {
			break
		}
		if i == e.maxIter {
			fallback := p.RoundToLot(lo)
			return fallback, &ConvergenceError{Iterations: e.maxIter, Last: lo, Fallback: fallback}
		}
		mid := fixed.Avg(lo, hi)
		ok, err := s.feasible(mid)
		if err != nil {
			return fixed.Zero, err
		}
		if ok {
			lo = mid
		} else {
			hi = mid
		}
	}

	// the bracket holds at most one lot multiple past the rounded end
	best := p.RoundToLot(lo)
	step := p.LotSizeBC
	if side == perp.Sell {
		step = step.Neg()
	}
	next, err := best.Add(step)
	if err != nil || !capAt(next, limit, side).Eq(next) {
		return best, nil
	}
	ok, err = s.feasible(next)
	if err != nil {
		return fixed.Zero, err
	}
	if ok {
		return next, nil
	}
	return best, nil
}

// solver evaluates one trader's margin balance at candidate positions.
type solver struct {
	e      *Engine
	amm    perp.AMMState
	p0     fixed.Fixed
	mark   fixed.Fixed
	s2     fixed.Fixed
	equity fixed.Fixed // E, quote currency
}

// feasible reports whether the balance after moving to pos covers the
// initial margin at maximal leverage.
func (s *solver) feasible(pos fixed.Fixed) (bool, error) {
	lev, err := s.e.margin.MaxInitialLeverage(pos)
	if err != nil {
		return false, err
	}

	var c fixed.Calc
	k := c.Sub(pos, s.p0)
	balance := s.equity
	if !k.IsZero() {
		pe, err := s.e.pricer.Price(s.amm, k)
		if err != nil {
			return false, err
		}
		fee := c.Prod(s.e.params.TotalFeeRate(), k.Abs(), s.s2)
		balance = c.Sub(c.Add(balance, c.Mul(k, c.Sub(s.mark, pe))), fee)
	}
	need := c.Div(c.Mul(pos.Abs(), s.mark), lev)
	if err := c.Err(); err != nil {
		return false, err
	}
	return balance.Ge(need), nil
}

// capAt keeps P on the near side of the AMM limit.
func capAt(pos, limit fixed.Fixed, side perp.Side) fixed.Fixed {
	if side == perp.Sell {
		return fixed.MaxOf(pos, limit)
	}
	return fixed.MinOf(pos, limit)
}

// =====================================================
// Deposits
// =====================================================

// DepositForLeveragedPosition (開倉所需保證金) is the collateral opening pos
// from flat at price with leverage lev:
//
//	(|pos|·mark/lev + fee·|pos|·mark - pos·(mark - price)) / s3
func DepositForLeveragedPosition(pos, lev, price, s3, mark, feeRate fixed.Fixed) (fixed.Fixed, error) {
	if !lev.IsPos() {
		return fixed.Zero, margin.ErrInvalidLeverage
	}
	if !s3.IsPos() {
		return fixed.Zero, margin.ErrNoCollateralPrice
	}
	var c fixed.Calc
	notional := c.Mul(pos.Abs(), mark)
	v := c.Sum(c.Div(notional, lev), c.Mul(feeRate, notional), c.Mul(pos, c.Sub(mark, price)).Neg())
	v = c.Div(v, s3)
	return v, c.Err()
}

// DepositForLeveragedTrade is the collateral to add to a margin balance b0
// (collateral currency) so that trading trade from pos0 at price lands at
// leverage lev:
//
//	|pos0 + trade|·mark/(lev·s3) - b0 - trade·(mark - price)/s3
//
// It is negative when the account already holds more than needed.
func DepositForLeveragedTrade(pos0, b0, trade, lev, price, s3, mark fixed.Fixed) (fixed.Fixed, error) {
	if !lev.IsPos() {
		return fixed.Zero, margin.ErrInvalidLeverage
	}
	if !s3.IsPos() {
		return fixed.Zero, margin.ErrNoCollateralPrice
	}
	var c fixed.Calc
	target := c.Add(pos0, trade).Abs()
	need := c.Div(c.Mul(target, mark), c.Mul(lev, s3))
	pnl := c.Div(c.Mul(trade, c.Sub(mark, price)), s3)
	v := c.Sub(c.Sub(need, b0), pnl)
	return v, c.Err()
}
