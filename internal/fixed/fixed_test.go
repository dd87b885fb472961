package fixed

import (
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFloat(t *testing.T, x float64) Fixed {
	t.Helper()
	f, err := FromFloat(x)
	require.NoError(t, err)
	return f
}

func TestIntegerConversion(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		for _, i := range []int64{0, 1, -1, 42, -42, math.MaxInt64, math.MinInt64} {
			assert.Equal(t, i, FromInt(i).ToInt())
		}
	})

	t.Run("FloorTowardNegativeInfinity", func(t *testing.T) {
		assert.Equal(t, int64(1), mustFloat(t, 1.5).ToInt())
		assert.Equal(t, int64(-2), mustFloat(t, -1.5).ToInt())
		assert.True(t, mustFloat(t, -0.25).Floor().Eq(FromInt(-1)))
	})

	t.Run("Bounds", func(t *testing.T) {
		assert.True(t, FromInt(math.MinInt64).Eq(Min))
		assert.True(t, Min.Lt(Zero))
		assert.True(t, Max.Gt(FromInt(math.MaxInt64)))
	})
}

func TestArithmetic(t *testing.T) {
	t.Run("Exact", func(t *testing.T) {
		a := MustParse("1.5")
		b := FromInt(2)

		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, "3.5", sum.String())

		diff, err := a.Sub(b)
		require.NoError(t, err)
		assert.Equal(t, "-0.5", diff.String())

		prod, err := a.Mul(b)
		require.NoError(t, err)
		assert.True(t, prod.Eq(FromInt(3)))

		q, err := FromInt(-7).Div(b)
		require.NoError(t, err)
		assert.Equal(t, "-3.5", q.String())
	})

	t.Run("DivTruncatesTowardZero", func(t *testing.T) {
		third, err := FromInt(1).DivInt(3)
		require.NoError(t, err)
		negThird, err := FromInt(-1).DivInt(3)
		require.NoError(t, err)
		assert.True(t, negThird.Eq(third.Neg()))

		back, err := third.MulInt(3)
		require.NoError(t, err)
		gap, _ := One.Sub(back)
		assert.True(t, gap.Eq(Ulp))
	})

	t.Run("Overflow", func(t *testing.T) {
		_, err := Max.Add(Ulp)
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = Min.Sub(Ulp)
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = Max.Mul(Two)
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = Max.Div(Half)
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("DivisionByZero", func(t *testing.T) {
		_, err := One.Div(Zero)
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})

	t.Run("NegSaturates", func(t *testing.T) {
		assert.True(t, Min.Neg().Eq(Max))
		assert.True(t, Min.Abs().Eq(Max))
		assert.True(t, FromInt(-5).Abs().Eq(FromInt(5)))
	})

	t.Run("Avg", func(t *testing.T) {
		assert.True(t, Avg(FromInt(3), FromInt(5)).Eq(FromInt(4)))
		assert.True(t, Avg(Max, Max).Eq(Max))
		assert.True(t, Avg(Min, Max).Lt(Zero))
	})

	t.Run("Compare", func(t *testing.T) {
		a, b := FromInt(-1), FromInt(2)
		assert.Equal(t, -1, a.Cmp(b))
		assert.Equal(t, 1, b.Cmp(a))
		assert.Equal(t, 0, a.Cmp(FromInt(-1)))
		assert.True(t, MinOf(a, b).Eq(a))
		assert.True(t, MaxOf(a, b).Eq(b))
		assert.True(t, FromInt(9).Clamp(a, b).Eq(b))
		assert.True(t, FromInt(3).WithSign(a).Eq(FromInt(-3)))
	})
}

func TestSqrt(t *testing.T) {
	r, err := FromInt(4).Sqrt()
	require.NoError(t, err)
	assert.True(t, r.Eq(Two))

	r, err = Two.Sqrt()
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, r.Float64(), 1e-15)

	r, err = Zero.Sqrt()
	require.NoError(t, err)
	assert.True(t, r.IsZero())

	r, err = MustParse("0.0001").Sqrt()
	require.NoError(t, err)
	assert.InDelta(t, 0.01, r.Float64(), 1e-15)

	_, err = FromInt(-1).Sqrt()
	assert.ErrorIs(t, err, ErrDomain)
}

func TestExpLn(t *testing.T) {
	t.Run("ExactPoints", func(t *testing.T) {
		e, err := Zero.Exp()
		require.NoError(t, err)
		assert.True(t, e.Eq(One))

		l, err := One.Ln()
		require.NoError(t, err)
		assert.True(t, l.IsZero())

		l2, err := FromInt(8).Log2()
		require.NoError(t, err)
		assert.True(t, l2.Eq(FromInt(3)))

		p, err := FromInt(-3).Exp2()
		require.NoError(t, err)
		assert.True(t, p.Eq(MustParse("0.125")))
	})

	t.Run("Accuracy", func(t *testing.T) {
		for _, x := range []float64{-20, -1, -0.5, 0.5, 1, 3.3, 10} {
			e, err := mustFloat(t, x).Exp()
			require.NoError(t, err)
			assert.InEpsilon(t, math.Exp(x), e.Float64(), 1e-10, "exp(%v)", x)
		}
		for _, x := range []float64{0.001, 0.5, 2, 1000, 38000} {
			l, err := mustFloat(t, x).Ln()
			require.NoError(t, err)
			assert.InDelta(t, math.Log(x), l.Float64(), 1e-14, "ln(%v)", x)
		}
	})

	t.Run("Limits", func(t *testing.T) {
		_, err := FromInt(64).Exp()
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = FromInt(63).Exp2()
		assert.ErrorIs(t, err, ErrOverflow)

		z, err := FromInt(-65).Exp()
		require.NoError(t, err)
		assert.True(t, z.IsZero())

		_, err = Zero.Ln()
		assert.ErrorIs(t, err, ErrDomain)

		_, err = FromInt(-2).Log2()
		assert.ErrorIs(t, err, ErrDomain)
	})

	t.Run("Inverse", func(t *testing.T) {
		x := MustParse("1.115325077399380804")
		l, err := x.Ln()
		require.NoError(t, err)
		back, err := l.Exp()
		require.NoError(t, err)
		assert.InDelta(t, x.Float64(), back.Float64(), 1e-15)
	})
}

func TestPow(t *testing.T) {
	p, err := MustParse("1.5").Pow(3)
	require.NoError(t, err)
	assert.Equal(t, "3.375", p.String())

	p, err = FromInt(7).Pow(0)
	require.NoError(t, err)
	assert.True(t, p.Eq(One))

	_, err = FromInt(1 << 32).Pow(2)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestDec18(t *testing.T) {
	e18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	t.Run("One", func(t *testing.T) {
		f, err := FromDec18(e18)
		require.NoError(t, err)
		assert.True(t, f.Eq(One))
		assert.Equal(t, 0, One.Dec18().Cmp(e18))
	})

	t.Run("RoundTripWithinOneUnit", func(t *testing.T) {
		for _, s := range []string{
			"1", "-1", "123456789", "14400000000000000000000", "-38000000000000000000000",
			"50000000000000000", "999999999999999999", "-5", "1844674407370955161",
		} {
			v, ok := new(big.Int).SetString(s, 10)
			require.True(t, ok)

			f, err := FromDec18(v)
			require.NoError(t, err)
			back := f.Dec18()
			gap := new(big.Int).Sub(v, back)
			assert.LessOrEqual(t, gap.CmpAbs(big.NewInt(1)), 0, "dec18 %s came back as %s", s, back)

			again, err := FromDec18(back)
			require.NoError(t, err)
			d, _ := f.Sub(again)
			assert.True(t, d.Abs().Le(MustParse("0.000000000000000002")), "fixed drift for %s", s)
		}
	})

	t.Run("TruncatesTowardZero", func(t *testing.T) {
		third, _ := FromInt(1).DivInt(3)
		assert.Equal(t, "333333333333333333", third.Dec18().String())
		assert.Equal(t, "-333333333333333333", third.Neg().Dec18().String())
	})

	t.Run("OutOfRange", func(t *testing.T) {
		huge := new(big.Int).Exp(big.NewInt(10), big.NewInt(38), nil)
		_, err := FromDec18(huge)
		assert.ErrorIs(t, err, ErrOutOfRange)
		_, err = FromDec18(huge.Neg(huge))
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("TokenDecimals", func(t *testing.T) {
		f, err := FromDecN(big.NewInt(2_500_000), 6)
		require.NoError(t, err)
		assert.Equal(t, "2.5", f.String())
		d, err := f.DecN(6)
		require.NoError(t, err)
		assert.Equal(t, "2500000", d.String())
	})
}

func TestDecimalAndFloat(t *testing.T) {
	t.Run("DecimalIsExact", func(t *testing.T) {
		for _, s := range []string{"0.1", "-38000.25", "0.013624986789704379", "1e-19"} {
			f := MustParse(s)
			back, err := FromDecimal(f.Decimal())
			require.NoError(t, err)
			assert.True(t, back.Eq(f), s)
		}
	})

	t.Run("DecimalExponent", func(t *testing.T) {
		f, err := FromDecimal(decimal.New(12, 3))
		require.NoError(t, err)
		assert.True(t, f.Eq(FromInt(12000)))
	})

	t.Run("ParseError", func(t *testing.T) {
		_, err := Parse("abc")
		assert.Error(t, err)
		_, err = Parse("1e40")
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("Float", func(t *testing.T) {
		for _, x := range []float64{0, 0.5, -1234.75, 1e-6} {
			assert.InDelta(t, x, mustFloat(t, x).Float64(), 1e-18)
		}
		_, err := FromFloat(math.NaN())
		assert.ErrorIs(t, err, ErrOutOfRange)
		_, err = FromFloat(1e30)
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("Raw", func(t *testing.T) {
		assert.Equal(t, "-9223372036854775808", MustParse("-0.5").Raw().String())
		f, err := FromRaw(big.NewInt(1))
		require.NoError(t, err)
		assert.True(t, f.Eq(Ulp))
		_, err = FromRaw(new(big.Int).Lsh(big.NewInt(1), 127))
		assert.ErrorIs(t, err, ErrOutOfRange)
	})
}

func TestCalc(t *testing.T) {
	t.Run("Chain", func(t *testing.T) {
		var c Calc
		x := c.Div(c.Sub(FromInt(10), FromInt(4)), c.Mul(Two, Half))
		require.NoError(t, c.Err())
		assert.True(t, x.Eq(FromInt(6)))
		assert.True(t, c.Sum(One, Two, x).Eq(FromInt(9)))
		assert.True(t, c.Prod(Two, Two, Half).Eq(Two))
	})

	t.Run("StickyError", func(t *testing.T) {
		var c Calc
		_ = c.Div(One, Zero)
		y := c.Add(One, One)
		assert.True(t, y.IsZero())
		assert.ErrorIs(t, c.Err(), ErrDivisionByZero)

		c.Fail(ErrDomain)
		assert.ErrorIs(t, c.Err(), ErrDivisionByZero)
	})
}
