package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/perp"
	"frizo/amm_risk_engine/internal/perp/perptest"
)

func d(s string) fixed.Fixed { return fixed.MustParse(s) }

func TestRiskNeutralPD(t *testing.T) {
	t.Run("Golden", func(t *testing.T) {
		amm := AMMVariables{K2: d("0.4"), L1: d("14400"), M1: d("10"), M2: d("0.06")}
		mkt := MarketVariables{S2: d("38000"), Sigma2: d("0.05")}

		pd, dd, err := RiskNeutralPD(amm, mkt, fixed.Zero)
		require.NoError(t, err)
		assert.InEpsilon(t, 0.013624986789704379, pd.Float64(), 1e-13)
		assert.InDelta(t, -2.207918233139494, dd.Float64(), 1e-12)
	})

	tests := []struct {
		name string
		amm  AMMVariables
		mkt  MarketVariables
		pd   float64
	}{
		{
			name: "QuoteBuffer",
			amm:  AMMVariables{K2: d("0.4"), L1: d("14400"), M1: d("3000")},
			mkt:  MarketVariables{S2: d("38000"), S3: fixed.One, Sigma2: d("0.05")},
			pd:   0.003181197263117108,
		},
		{
			name: "BaseBuffer",
			amm:  AMMVariables{K2: d("0.4"), L1: d("14400"), M2: d("0.08")},
			mkt:  MarketVariables{S2: d("38000"), S3: d("38000"), Sigma2: d("0.05")},
			pd:   0.0003289756927697559,
		},
		{
			name: "Quanto",
			amm:  AMMVariables{K2: d("4"), L1: d("8000"), M3: d("0.03")},
			mkt:  MarketVariables{S2: d("2000"), S3: d("38000"), Sigma2: d("0.05"), Sigma3: d("0.06"), Rho23: d("0.5")},
			pd:   0.0010550660649488997,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pd, _, err := RiskNeutralPD(tt.amm, tt.mkt, fixed.Zero)
			require.NoError(t, err)
			assert.InDelta(t, tt.pd, pd.Float64(), 1e-12)
		})
	}

	t.Run("Degenerate", func(t *testing.T) {
		mkt := MarketVariables{S2: d("38000"), Sigma2: d("0.05")}
		_, _, err := RiskNeutralPD(AMMVariables{K2: d("0.4"), L1: d("14400")}, mkt, fixed.Zero)
		assert.ErrorIs(t, err, ErrDegenerateState)

		_, _, err = RiskNeutralPD(AMMVariables{K2: d("0.4"), M1: d("10")}, MarketVariables{Sigma2: d("0.05")}, fixed.Zero)
		assert.ErrorIs(t, err, ErrDegenerateState)

		_, _, err = RiskNeutralPD(AMMVariables{K2: d("0.4"), M3: d("-1")}, MarketVariables{S2: d("2000"), S3: d("38000"), Sigma2: d("0.05")}, fixed.Zero)
		assert.ErrorIs(t, err, ErrDegenerateState)
	})

	t.Run("NoBaseExposure", func(t *testing.T) {
		mkt := MarketVariables{S2: d("38000"), Sigma2: d("0.05")}

		pd, _, err := RiskNeutralPD(AMMVariables{K2: d("0.06"), L1: d("14400"), M1: d("10"), M2: d("0.06")}, mkt, fixed.Zero)
		require.NoError(t, err)
		assert.True(t, pd.IsZero())

		pd, _, err = RiskNeutralPD(AMMVariables{K2: d("0.06"), L1: d("-20000"), M1: d("10"), M2: d("0.06")}, mkt, fixed.Zero)
		require.NoError(t, err)
		assert.True(t, pd.Eq(fixed.One))
	})

	t.Run("NonPositiveLambda", func(t *testing.T) {
		mkt := MarketVariables{S2: d("38000"), Sigma2: d("0.05")}

		pd, _, err := RiskNeutralPD(AMMVariables{L1: d("14400"), M1: d("10"), M2: d("0.5")}, mkt, fixed.Zero)
		require.NoError(t, err)
		assert.True(t, pd.IsZero())

		pd, _, err = RiskNeutralPD(AMMVariables{K2: fixed.One, L1: d("-100"), M1: d("10")}, mkt, fixed.Zero)
		require.NoError(t, err)
		assert.True(t, pd.Eq(fixed.One))
	})
}

func TestOptimalTradeSize(t *testing.T) {
	k, err := OptimalTradeSize(AMMVariables{K2: d("0.4"), M2: d("0.06")}, MarketVariables{S2: d("38000")})
	require.NoError(t, err)
	assert.InDelta(t, -0.34, k.Float64(), 1e-15)

	k, err = OptimalTradeSize(
		AMMVariables{K2: d("4"), M3: d("0.03")},
		MarketVariables{S2: d("2000"), S3: d("38000"), Sigma2: d("0.05"), Sigma3: d("0.06"), Rho23: d("0.5")},
	)
	require.NoError(t, err)
	assert.InDelta(t, -3.658, k.Float64(), 1e-12)
}

func TestPrice(t *testing.T) {
	params := perptest.Params(perp.QuoteCollateral{})
	engine := New(params)
	amm := perptest.AMM()

	t.Run("Monotone", func(t *testing.T) {
		for _, e := range []*Engine{engine, New(perptest.Params(perptest.Quanto))} {
			state := amm
			if e.Params().IsQuanto() {
				state = perptest.QuantoAMM()
			}
			prev := fixed.Zero
			for i := int64(-200); i <= 200; i++ {
				k, _ := fixed.FromFraction(i, 20)
				p, err := e.Price(state, k)
				require.NoError(t, err)
				assert.True(t, p.Ge(prev), "%s: price fell at k=%s", e.Params().Regime.Name(), k)
				prev = p
			}
		}
	})

	t.Run("ZeroSizeHasNoSpread", func(t *testing.T) {
		q, err := engine.Quote(amm, fixed.Zero)
		require.NoError(t, err)
		assert.True(t, q.Spread.IsZero())
		assert.True(t, q.Premium.Eq(q.PD))
		assert.InDelta(t, 38000*(1+0.003181197263117108), q.Price.Float64(), 1e-7)
	})

	t.Run("PremiumSign", func(t *testing.T) {
		// k* = -0.4 for this inventory
		q, err := engine.Quote(amm, d("-1"))
		require.NoError(t, err)
		assert.True(t, q.Premium.IsNeg())
		assert.True(t, q.Spread.IsNeg())

		q, err = engine.Quote(amm, d("-0.1"))
		require.NoError(t, err)
		assert.False(t, q.Premium.IsNeg())
		assert.True(t, q.Spread.IsNeg())
		assert.InDelta(t, 37988.20543678334, q.Price.Float64(), 1e-6)
	})

	t.Run("StressSpread", func(t *testing.T) {
		lot := params.LotSizeBC
		normal, err := engine.Price(amm, lot)
		require.NoError(t, err)

		stressed := amm
		stressed.DefaultFundFundingRatio = d("0.5")
		wide, err := engine.Price(stressed, lot)
		require.NoError(t, err)

		diff, _ := wide.Sub(normal)
		assert.InDelta(t, 38000*0.0005, diff.Float64(), 1e-9)
	})

	t.Run("MidPrice", func(t *testing.T) {
		lot := params.LotSizeBC
		mid, err := engine.MidPrice(amm)
		require.NoError(t, err)

		ask, err := engine.Price(amm, lot)
		require.NoError(t, err)
		bid, err := engine.Price(amm, lot.Neg())
		require.NoError(t, err)

		assert.True(t, mid.Eq(fixed.Avg(ask, bid)))
		assert.True(t, bid.Lt(mid))
		assert.True(t, mid.Lt(ask))
	})

	t.Run("PriceSource", func(t *testing.T) {
		stored := New(params, WithPriceSource(perp.StoredPrice))
		assert.Equal(t, perp.StoredPrice, stored.Source())

		a, err := engine.Price(amm, fixed.Zero)
		require.NoError(t, err)
		b, err := stored.Price(amm, fixed.Zero)
		require.NoError(t, err)
		assert.True(t, b.Lt(a))

		q, err := engine.QuoteAt(amm, fixed.Zero, perp.StoredPrice)
		require.NoError(t, err)
		assert.True(t, q.Price.Eq(b))
	})

	t.Run("Degenerate", func(t *testing.T) {
		empty := amm
		empty.M = fixed.Zero
		_, err := engine.Price(empty, fixed.One)
		assert.ErrorIs(t, err, ErrDegenerateState)
		_, err = engine.MidPrice(empty)
		assert.ErrorIs(t, err, ErrDegenerateState)
	})
}

func TestDepthMatrix(t *testing.T) {
	engine := New(perptest.Params(perp.QuoteCollateral{}))
	amm := perptest.AMM()

	collect := func() []DepthPoint {
		var pts []DepthPoint
		for pt, err := range engine.DepthMatrix(amm) {
			require.NoError(t, err)
			pts = append(pts, pt)
		}
		return pts
	}

	pts := collect()
	require.Len(t, pts, len(DepthGrid))

	mid, err := engine.MidPrice(amm)
	require.NoError(t, err)

	for i, pt := range pts {
		assert.True(t, pt.Percent.Eq(DepthGrid[i]))
		if i > 0 {
			assert.True(t, pt.Size.Ge(pts[i-1].Size), "sizes must grow with the grid")
		}
		switch pt.Percent.Sign() {
		case 0:
			assert.True(t, pt.Size.IsZero())
			assert.True(t, pt.Price.Eq(mid))
		case 1:
			assert.True(t, pt.Size.IsPos())
			bound := mid.Float64() * (1 + pt.Percent.Float64()/100)
			assert.LessOrEqual(t, pt.Price.Float64(), bound)
		case -1:
			assert.True(t, pt.Size.IsNeg())
			bound := mid.Float64() * (1 + pt.Percent.Float64()/100)
			assert.GreaterOrEqual(t, pt.Price.Float64(), bound)
		}
	}

	t.Run("Restartable", func(t *testing.T) {
		again := collect()
		require.Len(t, again, len(pts))
		for i := range pts {
			assert.True(t, again[i].Size.Eq(pts[i].Size))
		}
	})

	t.Run("EarlyStop", func(t *testing.T) {
		n := 0
		for range engine.DepthMatrix(amm) {
			n++
			if n == 3 {
				break
			}
		}
		assert.Equal(t, 3, n)
	})

	t.Run("Limit", func(t *testing.T) {
		small := New(perptest.Params(perp.QuoteCollateral{}), WithDepthLimit(d("0.01")))
		for pt, err := range small.DepthMatrix(amm) {
			require.NoError(t, err)
			assert.True(t, pt.Size.Abs().Le(d("0.01")))
		}
	})

	t.Run("Error", func(t *testing.T) {
		empty := amm
		empty.M = fixed.Zero
		n := 0
		for _, err := range engine.DepthMatrix(empty) {
			assert.ErrorIs(t, err, ErrDegenerateState)
			n++
		}
		assert.Equal(t, 1, n)
	})
}
