package kernel

import "math/big"

// Norm selects the metric used to measure distances to sites.
type Norm int

const (
	Linf Norm = iota
	L1
)

func (n Norm) String() string {
	if n == L1 {
		return "L1"
	}
	return "L∞"
}

// DistanceTerms returns linear functions whose pointwise maximum is the
// distance under norm from a position to the segment [a, b]. A point site is
// the segment [a, a].
//
// The distance to a convex set is the maximum over unit vectors w of the dual
// norm of w·x minus the support of the set in direction w. For a segment the
// maximum is always reached at a vertex of the dual unit ball or at one of the
// two normals of the segment, so those are the only directions kept.
func DistanceTerms(a, b Point, norm Norm) []Linear {
	one, minus := big.NewRat(1, 1), big.NewRat(-1, 1)
	zero := new(big.Rat)

	var dirs [][2]*big.Rat
	switch norm {
	case Linf:
		dirs = [][2]*big.Rat{{one, zero}, {minus, zero}, {zero, one}, {zero, minus}}
	case L1:
		dirs = [][2]*big.Rat{{one, one}, {one, minus}, {minus, one}, {minus, minus}}
	}

	if !a.Equal(b) {
		dx := new(big.Rat).Sub(b.X, a.X)
		dy := new(big.Rat).Sub(b.Y, a.Y)
		ax, ay := new(big.Rat).Abs(dx), new(big.Rat).Abs(dy)
		var scale *big.Rat
		if norm == Linf {
			scale = new(big.Rat).Add(ax, ay)
		} else {
			scale = maxRat(ax, ay)
		}
		nx := new(big.Rat).Quo(new(big.Rat).Neg(dy), scale)
		ny := new(big.Rat).Quo(dx, scale)
		dirs = append(dirs,
			[2]*big.Rat{nx, ny},
			[2]*big.Rat{new(big.Rat).Neg(nx), new(big.Rat).Neg(ny)},
		)
	}

	terms := make([]Linear, 0, len(dirs))
	for _, w := range dirs {
		support := maxRat(dot(w, a), dot(w, b))
		f := NewLinear(w[0], w[1], new(big.Rat).Neg(support))
		if !containsLinear(terms, f) {
			terms = append(terms, f)
		}
	}
	return terms
}

func dot(w [2]*big.Rat, p Point) *big.Rat {
	v := new(big.Rat).Mul(w[0], p.X)
	return v.Add(v, new(big.Rat).Mul(w[1], p.Y))
}

// MaxOf evaluates the pointwise maximum of terms at p.
func MaxOf(terms []Linear, p Point) *big.Rat {
	var best *big.Rat
	for _, f := range terms {
		if v := f.Eval(p); best == nil || v.Cmp(best) > 0 {
			best = v
		}
	}
	return best
}

// Distance measures from p to the segment [a, b] under norm.
func Distance(p, a, b Point, norm Norm) *big.Rat {
	return MaxOf(DistanceTerms(a, b, norm), p)
}

// Domain returns the half-planes (as functions to keep <= 0) on which
// terms[i] is the largest of terms.
func Domain(terms []Linear, i int) []Linear {
	fs := make([]Linear, 0, len(terms)-1)
	for j, f := range terms {
		if j != i {
			fs = append(fs, f.Sub(terms[i]))
		}
	}
	return fs
}

// Below returns the half-planes on which every one of terms is at most g.
func Below(terms []Linear, g Linear) []Linear {
	fs := make([]Linear, len(terms))
	for k, f := range terms {
		fs[k] = f.Sub(g)
	}
	return fs
}

// HasTerm reports whether terms contains a function identical to g.
func HasTerm(terms []Linear, g Linear) bool {
	return containsLinear(terms, g)
}
