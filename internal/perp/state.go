package perp

import "frizo/amm_risk_engine/internal/fixed"

// Prices index prices of the traded asset (S2) and the quanto asset (S3).
type Prices struct {
	S2 fixed.Fixed
	S3 fixed.Fixed
}

// AMMState AMM 狀態快照
type AMMState struct {
	K2 fixed.Fixed // 持倉 (base currency), signed
	L1 fixed.Fixed // locked-in value (quote currency), signed
	M  fixed.Fixed // AMM buffer in collateral currency

	TraderExposureEMA fixed.Fixed
	// AMMExposureEMA is the (long, short) exposure pair, both as magnitudes.
	AMMExposureEMA [2]fixed.Fixed

	IndexS2  fixed.Fixed // contract-stored S2
	OracleS2 fixed.Fixed // latest oracle S2
	IndexS3  fixed.Fixed
	OracleS3 fixed.Fixed

	MarkPremiumRate fixed.Fixed
	PremiumRate     fixed.Fixed

	DefaultFundFundingRatio fixed.Fixed // 違約基金充足率
}

// Prices returns the selected price snapshot.
func (a AMMState) Prices(src PriceSource) Prices {
	if src == StoredPrice {
		return Prices{S2: a.IndexS2, S3: a.IndexS3}
	}
	return Prices{S2: a.OracleS2, S3: a.OracleS3}
}

// MarkPrice (標記價格) = OracleS2 · (1 + MarkPremiumRate)
func (a AMMState) MarkPrice() (fixed.Fixed, error) {
	var c fixed.Calc
	m := c.Mul(a.OracleS2, c.Add(fixed.One, a.MarkPremiumRate))
	return m, c.Err()
}

// TraderState one trader's margin account view.
type TraderState struct {
	MarginBalance   fixed.Fixed // 保證金餘額 (collateral currency)
	AvailableMargin fixed.Fixed
	AvailableCash   fixed.Fixed

	Cash              fixed.Fixed // 帳戶現金 (collateral currency)
	Position          fixed.Fixed // 倉位 (base currency), signed
	LockedInValue     fixed.Fixed // 開倉價值 (quote currency), signed
	FundingIndexStart fixed.Fixed
}

// CashAfterFunding settles funding accrued since the last update:
// Cash - Position · (UnitAccumulatedFunding - FundingIndexStart).
func (t TraderState) CashAfterFunding(p PerpParameters) (fixed.Fixed, error) {
	var c fixed.Calc
	owed := c.Mul(t.Position, c.Sub(p.UnitAccumulatedFunding, t.FundingIndexStart))
	cash := c.Sub(t.Cash, owed)
	return cash, c.Err()
}

// EntryPrice is |LockedInValue / Position|, zero when flat.
func (t TraderState) EntryPrice() (fixed.Fixed, error) {
	if t.Position.IsZero() {
		return fixed.Zero, nil
	}
	e, err := t.LockedInValue.Div(t.Position)
	return e.Abs(), err
}

// LiqPoolState liquidity pool buffers.
type LiqPoolState struct {
	ParticipantCash   fixed.Fixed // LP 資金
	AMMFundCash       fixed.Fixed
	DefaultFundCash   fixed.Fixed // 違約基金
	TargetAMMFundSize fixed.Fixed
	TargetDFSize      fixed.Fixed
	Running           bool
}

// FundingRatio is DefaultFundCash / TargetDFSize, one when no target is set.
func (l LiqPoolState) FundingRatio() fixed.Fixed {
	if !l.TargetDFSize.IsPos() {
		return fixed.One
	}
	r, err := l.DefaultFundCash.Div(l.TargetDFSize)
	if err != nil {
		return fixed.Max
	}
	return r
}

// Capital is all cash backing the AMM.
func (l LiqPoolState) Capital() (fixed.Fixed, error) {
	var c fixed.Calc
	s := c.Sum(l.ParticipantCash, l.AMMFundCash, l.DefaultFundCash)
	return s, c.Err()
}
