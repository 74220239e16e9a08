package kernel

import (
	"math/big"
	"sort"
	"strings"
)

// Polygon is a convex polygon with counterclockwise vertices. Every Polygon
// produced by this package has at least three vertices, positive area and no
// collinear vertices; an empty result is reported as nil.
type Polygon []Point

// Square returns the axis aligned square of half-size r centered on the origin.
func Square(r *big.Rat) Polygon {
	neg := new(big.Rat).Neg(r)
	return Polygon{
		{neg, neg},
		{r, neg},
		{r, r},
		{neg, r},
	}
}

// Clip keeps the part of the polygon where f <= 0 (Sutherland–Hodgman against
// a single closed half-plane).
func (poly Polygon) Clip(f Linear) Polygon {
	if len(poly) == 0 {
		return nil
	}
	values := make([]*big.Rat, len(poly))
	inside := true
	for i, p := range poly {
		values[i] = f.Eval(p)
		if values[i].Sign() > 0 {
			inside = false
		}
	}
	if inside {
		return poly
	}

	result := make(Polygon, 0, len(poly)+1)
	for i, p := range poly {
		j := CircularIndex(i+1, len(poly))
		fp, fq := values[i], values[j]
		if fp.Sign() <= 0 {
			result = append(result, p)
		}
		if fp.Sign()*fq.Sign() < 0 {
			result = append(result, crossing(p, poly[j], fp, fq))
		}
	}
	return result.normalize()
}

// ClipAll clips by every half-plane in turn.
func (poly Polygon) ClipAll(fs []Linear) Polygon {
	for _, f := range fs {
		poly = poly.Clip(f)
		if poly == nil {
			return nil
		}
	}
	return poly
}

// crossing is the point of segment p-q where the linear function with values
// fp at p and fq at q vanishes.
func crossing(p, q Point, fp, fq *big.Rat) Point {
	t := new(big.Rat).Sub(fp, fq)
	t.Quo(fp, t)
	x := new(big.Rat).Sub(q.X, p.X)
	x.Mul(x, t).Add(x, p.X)
	y := new(big.Rat).Sub(q.Y, p.Y)
	y.Mul(y, t).Add(y, p.Y)
	return Point{x, y}
}

// normalize drops repeated and collinear vertices, and returns nil when
// nothing with positive area is left.
func (poly Polygon) normalize() Polygon {
	pts := make(Polygon, 0, len(poly))
	for _, p := range poly {
		if len(pts) > 0 && pts[len(pts)-1].Equal(p) {
			continue
		}
		pts = append(pts, p)
	}
	for len(pts) > 1 && pts[0].Equal(pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}

	for changed := true; changed && len(pts) >= 3; {
		changed = false
		for i := range pts {
			prev := pts[CircularIndex(i-1, len(pts))]
			next := pts[CircularIndex(i+1, len(pts))]
			if Orient(prev, pts[i], next) == 0 {
				pts = append(pts[:i], pts[i+1:]...)
				changed = true
				break
			}
		}
	}
	if len(pts) < 3 || pts.Area2().Sign() <= 0 {
		return nil
	}
	return pts
}

// Area2 is twice the signed area; positive for counterclockwise polygons.
func (poly Polygon) Area2() *big.Rat {
	sum := new(big.Rat)
	for i, p := range poly {
		q := poly[CircularIndex(i+1, len(poly))]
		sum.Add(sum, new(big.Rat).Mul(p.X, q.Y))
		sum.Sub(sum, new(big.Rat).Mul(p.Y, q.X))
	}
	return sum
}

// Contains reports whether p lies in the closed polygon.
func (poly Polygon) Contains(p Point) bool {
	if len(poly) < 3 {
		return false
	}
	for i, a := range poly {
		if Orient(a, poly[CircularIndex(i+1, len(poly))], p) < 0 {
			return false
		}
	}
	return true
}

// IsConvex reports whether every turn is strictly to the left.
func (poly Polygon) IsConvex() bool {
	if len(poly) < 3 {
		return false
	}
	for i := range poly {
		prev := poly[CircularIndex(i-1, len(poly))]
		next := poly[CircularIndex(i+1, len(poly))]
		if Orient(prev, poly[i], next) <= 0 {
			return false
		}
	}
	return true
}

// Edge returns the i-th directed edge, from vertex i to vertex i+1.
func (poly Polygon) Edge(i int) (Point, Point) {
	return poly[i], poly[CircularIndex(i+1, len(poly))]
}

// Bounds is the smallest rectangle holding the polygon.
func (poly Polygon) Bounds() Rect {
	r, _ := RectAround(poly)
	return r
}

// Hull returns the convex hull of pts, counterclockwise and without collinear
// vertices, or nil when it has no area.
func Hull(pts []Point) Polygon {
	if len(pts) < 3 {
		return nil
	}
	sorted := append([]Point{}, pts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })

	// Andrew's monotone chain: lower hull left to right, upper hull back.
	var lower, upper Polygon
	for _, p := range sorted {
		for len(lower) >= 2 && Orient(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && Orient(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	return hull.normalize()
}

// MergeAll returns the union of polys when it is convex. The polygons must not
// overlap: the union is convex exactly when it fills the hull of all of them.
func MergeAll(polys []Polygon) (Polygon, bool) {
	var pts []Point
	sum := new(big.Rat)
	for _, poly := range polys {
		pts = append(pts, poly...)
		sum.Add(sum, poly.Area2())
	}
	hull := Hull(pts)
	if hull == nil || hull.Area2().Cmp(sum) != 0 {
		return nil, false
	}
	return hull, true
}

// Merge joins two non-overlapping polygons when their union is convex.
func Merge(a, b Polygon) (Polygon, bool) {
	if len(a) == 0 || len(b) == 0 || !a.Bounds().Meets(b.Bounds()) {
		return nil, false
	}
	return MergeAll([]Polygon{a, b})
}

// SharesBoundary reports whether some edge of a overlaps some edge of b along
// a piece of positive length.
func SharesBoundary(a, b Polygon) bool {
	if len(a) == 0 || len(b) == 0 || !a.Bounds().Meets(b.Bounds()) {
		return false
	}
	for i := range a {
		p, q := a.Edge(i)
		for j := range b {
			r, s := b.Edge(j)
			if !boxesMeet(p, q, r, s) {
				continue
			}
			if Orient(p, q, r) != 0 || Orient(p, q, s) != 0 {
				continue
			}
			lo := maxRat(minRat(param(p, q, p), param(p, q, q)), minRat(param(p, q, r), param(p, q, s)))
			hi := minRat(maxRat(param(p, q, p), param(p, q, q)), maxRat(param(p, q, r), param(p, q, s)))
			if lo.Cmp(hi) < 0 {
				return true
			}
		}
	}
	return false
}

// boxesMeet reports whether the bounding boxes of segments p-q and r-s
// intersect.
func boxesMeet(p, q, r, s Point) bool {
	return maxRat(minRat(p.X, q.X), minRat(r.X, s.X)).Cmp(minRat(maxRat(p.X, q.X), maxRat(r.X, s.X))) <= 0 &&
		maxRat(minRat(p.Y, q.Y), minRat(r.Y, s.Y)).Cmp(minRat(maxRat(p.Y, q.Y), maxRat(r.Y, s.Y))) <= 0
}

func (poly Polygon) String() string {
	parts := make([]string, len(poly))
	for i, p := range poly {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
