package kernel

import "math/big"

// Segment is the closed segment between A and B.
type Segment struct {
	A, B Point
}

func (s Segment) IsDegenerate() bool {
	return s.A.Equal(s.B)
}

// ContainsInterior reports whether p lies on the segment strictly between its
// endpoints.
func (s Segment) ContainsInterior(p Point) bool {
	if s.IsDegenerate() || Orient(s.A, s.B, p) != 0 {
		return false
	}
	t := param(s.A, s.B, p)
	lo := minRat(param(s.A, s.B, s.A), param(s.A, s.B, s.B))
	hi := maxRat(param(s.A, s.B, s.A), param(s.A, s.B, s.B))
	return lo.Cmp(t) < 0 && t.Cmp(hi) < 0
}

// Crosses reports a proper crossing: the interiors of s and t meet in a single
// point that is an endpoint of neither.
func (s Segment) Crosses(t Segment) bool {
	o1 := Orient(s.A, s.B, t.A)
	o2 := Orient(s.A, s.B, t.B)
	o3 := Orient(t.A, t.B, s.A)
	o4 := Orient(t.A, t.B, s.B)
	return o1*o2 < 0 && o3*o4 < 0
}

// Overlaps reports whether s and t are collinear and share a piece of
// positive length.
func (s Segment) Overlaps(t Segment) bool {
	if s.IsDegenerate() || Orient(s.A, s.B, t.A) != 0 || Orient(s.A, s.B, t.B) != 0 {
		return false
	}
	lo := maxRat(minRat(param(s.A, s.B, s.A), param(s.A, s.B, s.B)), minRat(param(s.A, s.B, t.A), param(s.A, s.B, t.B)))
	hi := minRat(maxRat(param(s.A, s.B, s.A), param(s.A, s.B, s.B)), maxRat(param(s.A, s.B, t.A), param(s.A, s.B, t.B)))
	return lo.Cmp(hi) < 0
}

// Position orders points of the segment's line from A toward B.
func (s Segment) Position(p Point) *big.Rat {
	t := new(big.Rat).Set(param(s.A, s.B, p))
	if param(s.A, s.B, s.B).Cmp(param(s.A, s.B, s.A)) < 0 {
		t.Neg(t)
	}
	return t
}
