package kernel

import (
	"fmt"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Rect is an exact axis aligned rectangle.
type Rect struct {
	Min, Max Point
}

// RectAround returns the smallest rectangle holding every point. It is false
// when there are no points.
func RectAround(pts []Point) (Rect, bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	r := Rect{pts[0], pts[0]}
	for _, p := range pts[1:] {
		r = r.Extend(p)
	}
	return r, true
}

func (r Rect) Extend(p Point) Rect {
	return Rect{
		Point{minRat(r.Min.X, p.X), minRat(r.Min.Y, p.Y)},
		Point{maxRat(r.Max.X, p.X), maxRat(r.Max.Y, p.Y)},
	}
}

func (r Rect) Contains(p Point) bool {
	return r.Min.X.Cmp(p.X) <= 0 && p.X.Cmp(r.Max.X) <= 0 &&
		r.Min.Y.Cmp(p.Y) <= 0 && p.Y.Cmp(r.Max.Y) <= 0
}

// Meets reports whether the closed rectangles intersect.
func (r Rect) Meets(o Rect) bool {
	return r.Min.X.Cmp(o.Max.X) <= 0 && o.Min.X.Cmp(r.Max.X) <= 0 &&
		r.Min.Y.Cmp(o.Max.Y) <= 0 && o.Min.Y.Cmp(r.Max.Y) <= 0
}

// View converts to a floating point rectangle, for fitting a viewport.
func (r Rect) View() r2.Rect {
	x0, y0 := r.Min.Float64()
	x1, y1 := r.Max.Float64()
	return r2.Rect{X: r1.Interval{Lo: x0, Hi: x1}, Y: r1.Interval{Lo: y0, Hi: y1}}
}

func (r Rect) String() string {
	return fmt.Sprintf("%v-%v", r.Min, r.Max)
}
