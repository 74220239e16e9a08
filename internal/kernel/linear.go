package kernel

import (
	"fmt"
	"math/big"
)

// Linear is the affine function A·x + B·y + C.
type Linear struct {
	A, B, C *big.Rat
}

func NewLinear(a, b, c *big.Rat) Linear {
	return Linear{new(big.Rat).Set(a), new(big.Rat).Set(b), new(big.Rat).Set(c)}
}

// LineThrough returns the function that vanishes on the line p->q and is
// positive to its left.
func LineThrough(p, q Point) Linear {
	dx := new(big.Rat).Sub(q.X, p.X)
	dy := new(big.Rat).Sub(q.Y, p.Y)
	a := new(big.Rat).Neg(dy)
	c := new(big.Rat).Mul(dy, p.X)
	c.Sub(c, new(big.Rat).Mul(dx, p.Y))
	return Linear{a, dx, c}
}

func (f Linear) Eval(p Point) *big.Rat {
	v := new(big.Rat).Mul(f.A, p.X)
	v.Add(v, new(big.Rat).Mul(f.B, p.Y))
	return v.Add(v, f.C)
}

func (f Linear) Sub(g Linear) Linear {
	return Linear{
		new(big.Rat).Sub(f.A, g.A),
		new(big.Rat).Sub(f.B, g.B),
		new(big.Rat).Sub(f.C, g.C),
	}
}

func (f Linear) Neg() Linear {
	return Linear{new(big.Rat).Neg(f.A), new(big.Rat).Neg(f.B), new(big.Rat).Neg(f.C)}
}

func (f Linear) Equal(g Linear) bool {
	return f.A.Cmp(g.A) == 0 && f.B.Cmp(g.B) == 0 && f.C.Cmp(g.C) == 0
}

// IsConstant reports whether f does not depend on the position.
func (f Linear) IsConstant() bool {
	return f.A.Sign() == 0 && f.B.Sign() == 0
}

func (f Linear) String() string {
	return fmt.Sprintf("%s·x + %s·y + %s", FormatRat(f.A), FormatRat(f.B), FormatRat(f.C))
}

// containsLinear reports whether fs holds a function identical to f.
func containsLinear(fs []Linear, f Linear) bool {
	for _, g := range fs {
		if g.Equal(f) {
			return true
		}
	}
	return false
}
