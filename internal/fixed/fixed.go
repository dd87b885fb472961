// Package fixed implements a signed 64.64 binary fixed-point number.
//
// The layout is the ABDK 64x64 format: a signed 128-bit integer whose low
// 64 bits are the fraction. Values are held in a two's-complement 256-bit
// word so that products and shifted dividends never need a wider type.
// Every operation is pure integer arithmetic and therefore bit-identical on
// every platform.
package fixed

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow       = errors.New("fixed: overflow")
	ErrDivisionByZero = errors.New("fixed: division by zero")
	ErrDomain         = errors.New("fixed: argument outside function domain")
	ErrOutOfRange     = errors.New("fixed: value out of representable range")
)

// Fixed is an immutable signed 64.64 fixed-point value. The zero value is 0.
type Fixed struct {
	v uint256.Int
}

var (
	maxRaw = uint256.Int{0xffffffffffffffff, 0x7fffffffffffffff, 0, 0}
	minRaw = uint256.Int{0, 0x8000000000000000, 0xffffffffffffffff, 0xffffffffffffffff}
)

var (
	Zero = Fixed{}
	One  = Fixed{v: uint256.Int{0, 1, 0, 0}}
	Two  = Fixed{v: uint256.Int{0, 2, 0, 0}}
	Half = Fixed{v: uint256.Int{1 << 63, 0, 0, 0}}
	// Max and Min are the representable bounds, roughly ±1.7e19.
	Max = Fixed{v: maxRaw}
	Min = Fixed{v: minRaw}
	// Ulp is the smallest positive value, 2^-64.
	Ulp = Fixed{v: uint256.Int{1, 0, 0, 0}}
)

// fromWord narrows a 256-bit intermediate to the int128 range.
func fromWord(z *uint256.Int) (Fixed, error) {
	if z.Sgt(&maxRaw) || z.Slt(&minRaw) {
		return Zero, ErrOverflow
	}
	return Fixed{v: *z}, nil
}

// fromParts builds i + frac·2^-64.
func fromParts(i int64, frac uint64) Fixed {
	var ext uint64
	if i < 0 {
		ext = ^uint64(0)
	}
	return Fixed{v: uint256.Int{frac, uint64(i), ext, ext}}
}

// FromInt converts an integer. Every int64 is representable.
func FromInt(i int64) Fixed {
	return fromParts(i, 0)
}

// FromFraction returns num/den, e.g. FromFraction(1, 1000) for 0.001.
func FromFraction(num, den int64) (Fixed, error) {
	return FromInt(num).Div(FromInt(den))
}

// ToInt returns the integer part rounded toward negative infinity.
func (f Fixed) ToInt() int64 {
	var z uint256.Int
	z.SRsh(&f.v, 64)
	return int64(z[0])
}

// Floor clears the fractional bits, rounding toward negative infinity.
func (f Fixed) Floor() Fixed {
	return fromParts(f.ToInt(), 0)
}

func (f Fixed) Sign() int       { return f.v.Sign() }
func (f Fixed) IsZero() bool    { return f.v.IsZero() }
func (f Fixed) IsNeg() bool     { return f.v.Sign() < 0 }
func (f Fixed) IsPos() bool     { return f.v.Sign() > 0 }
func (f Fixed) Eq(g Fixed) bool { return f.v.Eq(&g.v) }
func (f Fixed) Lt(g Fixed) bool { return f.v.Slt(&g.v) }
func (f Fixed) Gt(g Fixed) bool { return f.v.Sgt(&g.v) }
func (f Fixed) Le(g Fixed) bool { return !f.v.Sgt(&g.v) }
func (f Fixed) Ge(g Fixed) bool { return !f.v.Slt(&g.v) }

// Cmp returns -1, 0 or +1.
func (f Fixed) Cmp(g Fixed) int {
	switch {
	case f.v.Slt(&g.v):
		return -1
	case f.v.Eq(&g.v):
		return 0
	default:
		return 1
	}
}

// Neg returns -f. Min saturates to Max.
func (f Fixed) Neg() Fixed {
	if f.v.Eq(&minRaw) {
		return Max
	}
	var z uint256.Int
	z.Neg(&f.v)
	return Fixed{v: z}
}

// Abs returns |f|. Min saturates to Max.
func (f Fixed) Abs() Fixed {
	if f.IsNeg() {
		return f.Neg()
	}
	return f
}

func MinOf(a, b Fixed) Fixed {
	if a.Lt(b) {
		return a
	}
	return b
}

func MaxOf(a, b Fixed) Fixed {
	if a.Gt(b) {
		return a
	}
	return b
}

// Clamp limits f to [lo, hi].
func (f Fixed) Clamp(lo, hi Fixed) Fixed {
	return MinOf(MaxOf(f, lo), hi)
}

// WithSign returns |f| carrying the sign of s (zero s keeps f positive).
func (f Fixed) WithSign(s Fixed) Fixed {
	if s.IsNeg() {
		return f.Abs().Neg()
	}
	return f.Abs()
}

func (f Fixed) Add(g Fixed) (Fixed, error) {
	var z uint256.Int
	z.Add(&f.v, &g.v)
	return fromWord(&z)
}

func (f Fixed) Sub(g Fixed) (Fixed, error) {
	var z uint256.Int
	z.Sub(&f.v, &g.v)
	return fromWord(&z)
}

// Mul multiplies with a 256-bit intermediate and rounds toward negative
// infinity.
func (f Fixed) Mul(g Fixed) (Fixed, error) {
	var p, z uint256.Int
	p.Mul(&f.v, &g.v)
	z.SRsh(&p, 64)
	return fromWord(&z)
}

// Div divides a 192-bit shifted dividend and truncates toward zero.
func (f Fixed) Div(g Fixed) (Fixed, error) {
	if g.IsZero() {
		return Zero, ErrDivisionByZero
	}
	var n, q uint256.Int
	n.Lsh(&f.v, 64)
	q.SDiv(&n, &g.v)
	return fromWord(&q)
}

func (f Fixed) MulInt(i int64) (Fixed, error) {
	return f.Mul(FromInt(i))
}

func (f Fixed) DivInt(i int64) (Fixed, error) {
	return f.Div(FromInt(i))
}

// Inv returns 1/f.
func (f Fixed) Inv() (Fixed, error) {
	return One.Div(f)
}

// Avg returns (a+b)/2 rounded toward negative infinity. It never overflows.
func Avg(a, b Fixed) Fixed {
	var s, z uint256.Int
	s.Add(&a.v, &b.v)
	z.SRsh(&s, 1)
	return Fixed{v: z}
}
