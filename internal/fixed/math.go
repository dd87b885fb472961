package fixed

import "github.com/holiman/uint256"

var (
	expUpper = FromInt(64)
	expLower = FromInt(-64)
)

// Sqrt returns the square root rounded toward zero.
func (f Fixed) Sqrt() (Fixed, error) {
	if f.IsNeg() {
		return Zero, ErrDomain
	}
	var x uint256.Int
	x.Lsh(&f.v, 64)
	r := isqrt(&x)
	return Fixed{v: r}, nil
}

// isqrt is the integer Newton iteration seeded from the bit length. The seed
// 2^ceil(n/2) is never below the root, so the iterates decrease
// monotonically and the loop ends at floor(sqrt(x)).
func isqrt(x *uint256.Int) uint256.Int {
	var r, q, y uint256.Int
	if x.IsZero() {
		return r
	}
	r.Lsh(uint256.NewInt(1), uint((x.BitLen()+1)/2))
	for i := 0; i < 256; i++ {
		q.Div(x, &r)
		y.Add(&r, &q)
		y.Rsh(&y, 1)
		if !y.Lt(&r) {
			break
		}
		r.Set(&y)
	}
	return r
}

// Exp2 returns 2^f. Arguments of 64 or more overflow; arguments below -64
// underflow to zero.
func (f Fixed) Exp2() (Fixed, error) {
	if f.Ge(expUpper) {
		return Zero, ErrOverflow
	}
	if f.Lt(expLower) {
		return Zero, nil
	}
	// r is 2^frac scaled by 2^127; multiplying from the most significant
	// fraction bit keeps every product below 2^256.
	r := uint256.Int{0, 1 << 63, 0, 0}
	frac := f.v[0]
	var p uint256.Int
	for k := 0; k < 64; k++ {
		if frac&(uint64(1)<<(63-k)) != 0 {
			p.Mul(&r, &exp2Table[k])
			r.Rsh(&p, 128)
		}
	}
	n := int64(f.v[1])
	r.Rsh(&r, uint(63-n))
	return fromWord(&r)
}

// Exp returns e^f via Exp2(f·log2 e).
func (f Fixed) Exp() (Fixed, error) {
	if f.Ge(expUpper) {
		return Zero, ErrOverflow
	}
	if f.Lt(expLower) {
		return Zero, nil
	}
	var p uint256.Int
	p.Mul(&f.v, &log2E)
	p.SRsh(&p, 128)
	return Fixed{v: p}.Exp2()
}

// Log2 returns the binary logarithm of a positive value.
func (f Fixed) Log2() (Fixed, error) {
	if !f.IsPos() {
		return Zero, ErrDomain
	}
	msb := f.v.BitLen() - 1
	var ux, sq uint256.Int
	ux.Lsh(&f.v, uint(127-msb))
	var frac uint64
	for bit := uint64(1) << 63; bit > 0; bit >>= 1 {
		sq.Mul(&ux, &ux)
		b := sq[3] >> 63
		ux.Rsh(&sq, uint(127+b))
		if b == 1 {
			frac |= bit
		}
	}
	return fromParts(int64(msb-64), frac), nil
}

// Ln returns the natural logarithm of a positive value as log2(f)·ln 2.
func (f Fixed) Ln() (Fixed, error) {
	l, err := f.Log2()
	if err != nil {
		return Zero, err
	}
	var p uint256.Int
	p.Mul(&l.v, &ln2)
	p.SRsh(&p, 128)
	return Fixed{v: p}, nil
}

// Pow raises f to a non-negative integer power by square and multiply.
func (f Fixed) Pow(n uint64) (Fixed, error) {
	result, base := One, f
	var err error
	for n > 0 {
		if n&1 == 1 {
			if result, err = result.Mul(base); err != nil {
				return Zero, err
			}
		}
		n >>= 1
		if n > 0 {
			if base, err = base.Mul(base); err != nil {
				return Zero, err
			}
		}
	}
	return result, nil
}
