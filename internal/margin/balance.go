package margin

import (
	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/perp"
)

// Balance 保證金帳戶快照, collateral currency unless noted.
type Balance struct {
	Cash              fixed.Fixed // cash after funding
	UnrealizedPnL     fixed.Fixed // 未實現盈虧 (P·Sm - L)/S3
	MarginBalance     fixed.Fixed // 保證金餘額 = Cash + UnrealizedPnL
	InitialMargin     fixed.Fixed // 初始保證金 |P|·Sm·IMR/S3
	MaintenanceMargin fixed.Fixed // 維持保證金 |P|·Sm·MMR/S3
	AvailableMargin   fixed.Fixed // MarginBalance - InitialMargin

	MarkPrice             fixed.Fixed // quote currency
	CollateralPrice       fixed.Fixed
	InitialMarginRate     fixed.Fixed
	MaintenanceMarginRate fixed.Fixed
}

// Balance marks the trader's position at the AMM mark price.
func (e *Engine) Balance(amm perp.AMMState, trader perp.TraderState) (Balance, error) {
	var b Balance
	var err error

	b.CollateralPrice = e.params.Regime.CollateralPrice(amm.Prices(perp.OraclePrice))
	if !b.CollateralPrice.IsPos() {
		return b, ErrNoCollateralPrice
	}
	if b.MarkPrice, err = amm.MarkPrice(); err != nil {
		return b, err
	}
	if b.Cash, err = trader.CashAfterFunding(e.params); err != nil {
		return b, err
	}
	b.InitialMarginRate = e.InitialMarginRate(trader.Position)
	b.MaintenanceMarginRate = e.MaintenanceMarginRate(trader.Position)

	var c fixed.Calc
	s3 := b.CollateralPrice
	notional := c.Div(c.Mul(trader.Position.Abs(), b.MarkPrice), s3)
	b.UnrealizedPnL = c.Div(c.Sub(c.Mul(trader.Position, b.MarkPrice), trader.LockedInValue), s3)
	b.MarginBalance = c.Add(b.Cash, b.UnrealizedPnL)
	b.InitialMargin = c.Mul(notional, b.InitialMarginRate)
	b.MaintenanceMargin = c.Mul(notional, b.MaintenanceMarginRate)
	b.AvailableMargin = c.Sub(b.MarginBalance, b.InitialMargin)
	return b, c.Err()
}

// IsInitialMarginSafe reports MarginBalance >= InitialMargin.
func (e *Engine) IsInitialMarginSafe(amm perp.AMMState, trader perp.TraderState) (bool, error) {
	b, err := e.Balance(amm, trader)
	if err != nil {
		return false, err
	}
	return b.MarginBalance.Ge(b.InitialMargin), nil
}

// IsMaintenanceMarginSafe reports MarginBalance >= MaintenanceMargin. A
// trader failing it can be liquidated.
func (e *Engine) IsMaintenanceMarginSafe(amm perp.AMMState, trader perp.TraderState) (bool, error) {
	b, err := e.Balance(amm, trader)
	if err != nil {
		return false, err
	}
	return b.MarginBalance.Ge(b.MaintenanceMargin), nil
}

// Summary flattens the balance for display.
func (b Balance) Summary() map[string]interface{} {
	return map[string]interface{}{
		"cash":                    b.Cash.String(),
		"unrealized_pnl":          b.UnrealizedPnL.String(),
		"margin_balance":          b.MarginBalance.String(),
		"initial_margin":          b.InitialMargin.String(),
		"maintenance_margin":      b.MaintenanceMargin.String(),
		"available_margin":        b.AvailableMargin.String(),
		"mark_price":              b.MarkPrice.String(),
		"collateral_price":        b.CollateralPrice.String(),
		"initial_margin_rate":     b.InitialMarginRate.String(),
		"maintenance_margin_rate": b.MaintenanceMarginRate.String(),
	}
}
