package tradesize

import (
	"testing"

	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/perp"
	"frizo/amm_risk_engine/internal/perp/perptest"
)

// Sizing Benchmarks
func BenchmarkMaximalTradeSize(b *testing.B) {
	e := newEngine()
	amm, pool := perptest.AMM(), perptest.Pool()

	b.Run("Flat", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			e.MaximalTradeSize(amm, pool, fixed.Zero, perp.Buy)
		}
	})

	b.Run("Long", func(b *testing.B) {
		pos := d("2")
		for i := 0; i < b.N; i++ {
			e.MaximalTradeSize(amm, pool, pos, perp.Sell)
		}
	})
}

func BenchmarkSignedMaxAbsPosition(b *testing.B) {
	amm, pool := perptest.AMM(), perptest.Pool()

	b.Run("Converging", func(b *testing.B) {
		e := newEngine()
		trader := perptest.Trader("100")
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			e.SignedMaxAbsPosition(amm, pool, trader, perp.Buy)
		}
	})

	// runs into the iteration cap every time
	b.Run("Cap", func(b *testing.B) {
		e := newEngine(WithMaxIterations(8))
		trader := perptest.Trader("1000")
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			e.SignedMaxAbsPosition(amm, pool, trader, perp.Buy)
		}
	})

	// the boundary lies past the k* price jump
	b.Run("PastOptimal", func(b *testing.B) {
		e := newEngine()
		trader := perptest.Trader("5000")
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			e.SignedMaxAbsPosition(amm, pool, trader, perp.Sell)
		}
	})
}

// Concurrent Access Benchmarks
func BenchmarkConcurrentAccess(b *testing.B) {
	e := newEngine()
	amm, pool := perptest.AMM(), perptest.Pool()
	trader := perptest.Trader("100")

	b.RunParallel(func(pb *testing.PB) {
		sides := []perp.Side{perp.Buy, perp.Sell}
		i := 0
		for pb.Next() {
			e.SignedMaxAbsPosition(amm, pool, trader, sides[i%len(sides)])
			i++
		}
	})
}

func BenchmarkDeposits(b *testing.B) {
	fee, mark := d("0.0006"), d("38000")
	pos, lev, price := d("1"), d("10"), d("38100")
	for i := 0; i < b.N; i++ {
		DepositForLeveragedPosition(pos, lev, price, fixed.One, mark, fee)
	}
}
