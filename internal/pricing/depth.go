package pricing

import (
	"iter"

	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/perp"
)

const depthBisectSteps = 64

// DepthGrid is the set of percentage deviations from mid reported by
// DepthMatrix.
var DepthGrid = []fixed.Fixed{
	fixed.MustParse("-2.5"),
	fixed.MustParse("-1"),
	fixed.MustParse("-0.5"),
	fixed.MustParse("-0.25"),
	fixed.Zero,
	fixed.MustParse("0.25"),
	fixed.MustParse("0.5"),
	fixed.MustParse("1"),
	fixed.MustParse("2.5"),
}

var hundred = fixed.FromInt(100)

// DepthPoint one row of the depth matrix.
type DepthPoint struct {
	Percent fixed.Fixed // deviation from mid, in percent
	Price   fixed.Fixed
	Size    fixed.Fixed // signed trade size reaching Price
}

// DepthMatrix yields, for every DepthGrid entry, the largest lot-rounded
// trade whose price stays within that deviation from mid. The sequence is
// lazy and can be ranged over any number of times; it stops after the first
// error.
func (e *Engine) DepthMatrix(amm perp.AMMState) iter.Seq2[DepthPoint, error] {
	return func(yield func(DepthPoint, error) bool) {
		mid, err := e.MidPrice(amm)
		if err != nil {
			yield(DepthPoint{}, err)
			return
		}
		for _, pct := range DepthGrid {
			pt, err := e.depthPoint(amm, mid, pct)
			if !yield(pt, err) || err != nil {
				return
			}
		}
	}
}

func (e *Engine) depthPoint(amm perp.AMMState, mid, pct fixed.Fixed) (DepthPoint, error) {
	if pct.IsZero() {
		return DepthPoint{Percent: pct, Price: mid, Size: fixed.Zero}, nil
	}

	var c fixed.Calc
	target := c.Mul(mid, c.Add(fixed.One, c.Div(pct, hundred)))
	if err := c.Err(); err != nil {
		return DepthPoint{}, err
	}

	// within reports whether a trade of magnitude m on the pct side stays
	// inside the target price.
	dir := pct.Sign()
	within := func(m fixed.Fixed) (bool, error) {
		k := m.WithSign(pct)
		p, err := e.Price(amm, k)
		if err != nil {
			return false, err
		}
		if dir > 0 {
			return p.Le(target), nil
		}
		return p.Ge(target), nil
	}

	lo, hi := fixed.Zero, e.depthLimit
	ok, err := within(hi)
	if err != nil {
		return DepthPoint{}, err
	}
	if ok {
		lo = hi
	} else {
		lot := e.params.LotSizeBC
		for i := 0; i < depthBisectSteps; i++ {
			gap, _ := hi.Sub(lo)
			if gap.Le(lot) {
				break
			}
			m := fixed.Avg(lo, hi)
			if ok, err = within(m); err != nil {
				return DepthPoint{}, err
			}
			if ok {
				lo = m
			} else {
				hi = m
			}
		}
	}

	size := e.params.RoundToLot(lo).WithSign(pct)
	if size.IsZero() {
		return DepthPoint{Percent: pct, Price: mid, Size: fixed.Zero}, nil
	}
	price, err := e.Price(amm, size)
	if err != nil {
		return DepthPoint{}, err
	}
	return DepthPoint{Percent: pct, Price: price, Size: size}, nil
}
