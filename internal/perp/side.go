package perp

import "frizo/amm_risk_engine/internal/fixed"

// Side trade direction (買賣方向)
type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "unknown"
	}
}

// Sign returns +1 for Buy and -1 for Sell.
func (s Side) Sign() fixed.Fixed {
	if s == Sell {
		return fixed.One.Neg()
	}
	return fixed.One
}

// SideOf returns the direction of a signed trade size. Zero counts as Buy.
func SideOf(k fixed.Fixed) Side {
	if k.IsNeg() {
		return Sell
	}
	return Buy
}

// PriceSource selects which index snapshot a computation reads.
type PriceSource int

const (
	// OraclePrice is the most recent oracle observation.
	OraclePrice PriceSource = iota
	// StoredPrice is the price last written into the contract state.
	StoredPrice
)

func (src PriceSource) String() string {
	switch src {
	case OraclePrice:
		return "oracle"
	case StoredPrice:
		return "stored"
	default:
		return "unknown"
	}
}
