package kernel

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

// Point is an exact rational coordinate pair. Points are values: nothing in
// this module mutates the rationals behind a Point once it has been built, so
// copies may share them freely.
type Point struct {
	X, Y *big.Rat
}

// Pt builds an integer point, mostly for tests and fixtures.
func Pt(x, y int64) Point {
	return Point{big.NewRat(x, 1), big.NewRat(y, 1)}
}

// NewPoint copies x and y into a new Point.
func NewPoint(x, y *big.Rat) Point {
	return Point{new(big.Rat).Set(x), new(big.Rat).Set(y)}
}

var ErrBadNumber = errors.New("invalid number")

// ParseRat reads an exact number from decimal ("1.25"), exponent ("1e-3") or
// fraction ("5/4") notation.
func ParseRat(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, errors.Wrapf(ErrBadNumber, "%q", s)
	}
	return r, nil
}

func ParsePoint(xs, ys string) (Point, error) {
	x, err := ParseRat(xs)
	if err != nil {
		return Point{}, err
	}
	y, err := ParseRat(ys)
	if err != nil {
		return Point{}, err
	}
	return Point{x, y}, nil
}

// FormatRat renders r exactly: integers as integers, finite decimals as
// decimals, everything else as a fraction.
func FormatRat(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	if prec, exact := r.FloatPrec(); exact {
		return r.FloatString(prec)
	}
	return r.RatString()
}

func (p Point) Equal(q Point) bool {
	return p.X.Cmp(q.X) == 0 && p.Y.Cmp(q.Y) == 0
}

// Cmp orders points lexicographically, by X and then by Y.
func (p Point) Cmp(q Point) int {
	if c := p.X.Cmp(q.X); c != 0 {
		return c
	}
	return p.Y.Cmp(q.Y)
}

func (p Point) Less(q Point) bool {
	return p.Cmp(q) < 0
}

// Key is a canonical string usable as a map key. Equal points have equal keys.
func (p Point) Key() string {
	return p.X.RatString() + "," + p.Y.RatString()
}

func (p Point) String() string {
	return fmt.Sprintf("(%s, %s)", FormatRat(p.X), FormatRat(p.Y))
}

func (p Point) Float64() (float64, float64) {
	x, _ := p.X.Float64()
	y, _ := p.Y.Float64()
	return x, y
}

// MaxAbs is the larger of |X| and |Y|.
func (p Point) MaxAbs() *big.Rat {
	x := new(big.Rat).Abs(p.X)
	y := new(big.Rat).Abs(p.Y)
	if x.Cmp(y) >= 0 {
		return x
	}
	return y
}

// Orient returns the sign of the cross product (b-a) x (c-a): positive when c
// lies to the left of the directed line a->b, negative to the right, zero when
// the three points are collinear.
func Orient(a, b, c Point) int {
	abx := new(big.Rat).Sub(b.X, a.X)
	aby := new(big.Rat).Sub(b.Y, a.Y)
	acx := new(big.Rat).Sub(c.X, a.X)
	acy := new(big.Rat).Sub(c.Y, a.Y)
	abx.Mul(abx, acy)
	aby.Mul(aby, acx)
	return abx.Cmp(aby)
}

// param projects p onto the dominant axis of the direction a->b. Comparisons
// of param values order collinear points along the line.
func param(a, b, p Point) *big.Rat {
	if a.X.Cmp(b.X) != 0 {
		return p.X
	}
	return p.Y
}

func minRat(a, b *big.Rat) *big.Rat {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func maxRat(a, b *big.Rat) *big.Rat {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Often we want to treat an array as a circular buffer. This gives the modular
// index given length n, but unlike the raw modulo operator, it only gives
// positive values.
func CircularIndex(i, n int) int {
	return (i%n + n) % n
}
