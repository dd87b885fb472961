package fixed

// Calc chains fallible operations and keeps the first error. Once an error
// is recorded every further operation returns Zero, so a formula can be
// written in one piece and checked once:
//
//	var c fixed.Calc
//	x := c.Div(c.Sub(a, b), c.Mul(s, t))
//	if err := c.Err(); err != nil { ... }
type Calc struct {
	err error
}

// Err returns the first error recorded.
func (c *Calc) Err() error { return c.err }

// Fail records err unless an earlier error is already held.
func (c *Calc) Fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *Calc) keep(f Fixed, err error) Fixed {
	if c.err != nil {
		return Zero
	}
	if err != nil {
		c.err = err
		return Zero
	}
	return f
}

func (c *Calc) Add(a, b Fixed) Fixed          { return c.keep(a.Add(b)) }
func (c *Calc) Sub(a, b Fixed) Fixed          { return c.keep(a.Sub(b)) }
func (c *Calc) Mul(a, b Fixed) Fixed          { return c.keep(a.Mul(b)) }
func (c *Calc) Div(a, b Fixed) Fixed          { return c.keep(a.Div(b)) }
func (c *Calc) MulInt(a Fixed, i int64) Fixed { return c.keep(a.MulInt(i)) }
func (c *Calc) DivInt(a Fixed, i int64) Fixed { return c.keep(a.DivInt(i)) }
func (c *Calc) Inv(a Fixed) Fixed             { return c.keep(a.Inv()) }
func (c *Calc) Sqrt(a Fixed) Fixed            { return c.keep(a.Sqrt()) }
func (c *Calc) Exp(a Fixed) Fixed             { return c.keep(a.Exp()) }
func (c *Calc) Ln(a Fixed) Fixed              { return c.keep(a.Ln()) }
func (c *Calc) Pow(a Fixed, n uint64) Fixed   { return c.keep(a.Pow(n)) }

// Sum adds all terms.
func (c *Calc) Sum(terms ...Fixed) Fixed {
	acc := Zero
	for _, t := range terms {
		acc = c.Add(acc, t)
	}
	return acc
}

// Prod multiplies all factors left to right.
func (c *Calc) Prod(factors ...Fixed) Fixed {
	acc := One
	for _, f := range factors {
		acc = c.Mul(acc, f)
	}
	return acc
}
