package liquidation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/margin"
	"frizo/amm_risk_engine/internal/perp"
	"frizo/amm_risk_engine/internal/perp/perptest"
	"frizo/amm_risk_engine/internal/pricing"
)

func d(s string) fixed.Fixed { return fixed.MustParse(s) }

func TestLiquidationPriceSide(t *testing.T) {
	entry := d("48888.59")
	params := perptest.Params(perp.BaseCollateral{})
	rates := margin.New(params, pricing.New(params))

	tests := []struct {
		name   string
		regime perp.CollateralRegime
		cash   string
		s3     string
	}{
		{"Base", perp.BaseCollateral{}, "0.001", "0"},
		{"Quote", perp.QuoteCollateral{}, "100", "1"},
		{"Quanto", perptest.Quanto, "0.001", "38000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, size := range []string{"0.016", "-0.016"} {
				pos := d(size)
				locked, _ := entry.Mul(pos)
				tau := rates.MaintenanceMarginRate(pos)

				s, err := LiquidationPrice(tt.regime, locked, pos, d(tt.cash), tau, d(tt.s3))
				require.NoError(t, err)
				require.True(t, s.IsPos())
				if pos.IsPos() {
					assert.True(t, s.Lt(entry), "long %s liquidates below entry, got %s", tt.name, s)
				} else {
					assert.True(t, s.Gt(entry), "short %s liquidates above entry, got %s", tt.name, s)
				}
			}
		})
	}
}

func TestLiquidationPriceBalance(t *testing.T) {
	// at S the margin balance equals the maintenance requirement
	tau := d("0.03")
	pos, locked := d("2"), d("76000")

	t.Run("Quote", func(t *testing.T) {
		cash := 5000.0
		s, err := LiquidationPrice(perp.QuoteCollateral{}, locked, pos, d("5000"), tau, fixed.One)
		require.NoError(t, err)
		sf := s.Float64()
		assert.InDelta(t, 2*sf*0.03, cash+2*sf-76000, 1e-9)
	})

	t.Run("Base", func(t *testing.T) {
		cash := 0.1
		s, err := LiquidationPrice(perp.BaseCollateral{}, locked, pos, d("0.1"), tau, fixed.Zero)
		require.NoError(t, err)
		sf := s.Float64()
		assert.InDelta(t, 2*sf*0.03, cash*sf+2*sf-76000, 1e-8)
	})

	t.Run("Quanto", func(t *testing.T) {
		cash, s3 := 0.1, 38000.0
		s, err := LiquidationPrice(perptest.Quanto, locked, pos, d("0.1"), tau, d("38000"))
		require.NoError(t, err)
		sf := s.Float64()
		assert.InDelta(t, 2*sf*0.03, cash*s3+2*sf-76000, 1e-8)
	})
}

func TestLiquidationPriceErrors(t *testing.T) {
	tau := d("0.03")

	_, err := LiquidationPrice(perp.QuoteCollateral{}, d("100"), fixed.Zero, d("10"), tau, fixed.One)
	assert.ErrorIs(t, err, ErrNoPosition)

	// cash covers the whole locked-in value of a long
	_, err = LiquidationPrice(perp.QuoteCollateral{}, d("38000"), d("1"), d("40000"), tau, fixed.One)
	assert.ErrorIs(t, err, ErrNotLiquidatable)

	// a short fully hedged by base collateral
	_, err = LiquidationPrice(perp.BaseCollateral{}, d("-38000"), d("-1"), d("2"), tau, fixed.Zero)
	assert.ErrorIs(t, err, ErrNotLiquidatable)

	// τ = 1: any long liquidates at every price
	_, err = LiquidationPrice(perp.QuoteCollateral{}, d("38000"), d("1"), d("10"), fixed.One, fixed.One)
	assert.ErrorIs(t, err, ErrNotLiquidatable)
}

func TestApproximateLiquidationPrice(t *testing.T) {
	params := perptest.Params(perp.QuoteCollateral{})
	pricer := pricing.New(params)
	e := New(params, pricer)
	amm := perptest.AMM()

	t.Run("NoPosition", func(t *testing.T) {
		_, err := e.ApproximateLiquidationPrice(amm, perptest.Trader("2000"), fixed.Zero, fixed.Zero)
		assert.ErrorIs(t, err, ErrNoPosition)
	})

	t.Run("AfterTrade", func(t *testing.T) {
		k := d("0.1")
		res, err := e.ApproximateLiquidationPrice(amm, perptest.Trader("2000"), k, fixed.Zero)
		require.NoError(t, err)
		assert.True(t, res.Exact)
		assert.True(t, res.Position.Eq(k))

		pe, err := pricer.Price(amm, k)
		require.NoError(t, err)
		fees := 0.0006 * 0.1 * 38000
		cash := 2000 - fees
		locked := 0.1 * pe.Float64()
		tau := 0.03 + 0.0025*0.1

		s := res.Price.Float64()
		assert.InDelta(t, 0.1*s*tau, cash+0.1*s-locked, 1e-8)
		assert.InDelta(t, 0.05*0.1*s, res.Penalty.Float64(), 1e-9)
		assert.Less(t, s, pe.Float64())
	})

	t.Run("MarkPremium", func(t *testing.T) {
		// balance is taken at mark, the reported price is the index level
		premium := amm
		premium.MarkPremiumRate = d("0.001")
		k := d("0.1")
		res, err := e.ApproximateLiquidationPrice(premium, perptest.Trader("2000"), k, fixed.Zero)
		require.NoError(t, err)

		pe, err := pricer.Price(premium, k)
		require.NoError(t, err)
		cash := 2000 - 0.0006*0.1*38000
		locked := 0.1 * pe.Float64()
		tau := 0.03 + 0.0025*0.1

		sm := res.Mark.Float64()
		assert.InDelta(t, res.Price.Float64()*1.001, sm, 1e-8)
		assert.InDelta(t, 0.1*sm*tau, cash+0.1*sm-locked, 1e-8)
		assert.InDelta(t, 0.05*0.1*sm, res.Penalty.Float64(), 1e-9)

		flat, err := e.ApproximateLiquidationPrice(amm, perptest.Trader("2000"), k, fixed.Zero)
		require.NoError(t, err)
		assert.True(t, flat.Mark.Eq(flat.Price))
	})

	t.Run("CashAddedLowersLongPrice", func(t *testing.T) {
		trader := perptest.Trader("500")
		trader.Position = d("0.1")
		trader.LockedInValue = d("3800")

		a, err := e.ApproximateLiquidationPrice(amm, trader, fixed.Zero, fixed.Zero)
		require.NoError(t, err)
		b, err := e.ApproximateLiquidationPrice(amm, trader, fixed.Zero, d("500"))
		require.NoError(t, err)
		assert.True(t, b.Price.Lt(a.Price))
		assert.True(t, b.Penalty.Lt(a.Penalty))
	})

	t.Run("Quanto", func(t *testing.T) {
		qp := perptest.Params(perptest.Quanto)
		q := New(qp, pricing.New(qp))
		res, err := q.ApproximateLiquidationPrice(perptest.QuantoAMM(), perptest.Trader("0.01"), d("1"), fixed.Zero)
		require.NoError(t, err)
		assert.False(t, res.Exact)
		assert.True(t, res.Price.IsPos())
		// penalty converted to BTC at the held S3
		assert.InDelta(t, 0.05*res.Price.Float64()/38000, res.Penalty.Float64(), 1e-12)
	})

	t.Run("NoCollateralPrice", func(t *testing.T) {
		qp := perptest.Params(perptest.Quanto)
		q := New(qp, pricing.New(qp))
		state := perptest.QuantoAMM()
		state.OracleS3 = fixed.Zero
		_, err := q.ApproximateLiquidationPrice(state, perptest.Trader("0.01"), d("1"), fixed.Zero)
		assert.ErrorIs(t, err, margin.ErrNoCollateralPrice)
	})
}
