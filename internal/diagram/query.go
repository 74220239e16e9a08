package diagram

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/osuushi/segvoronoi/internal/kernel"
)

type EdgeKind int

const (
	VoronoiEdge EdgeKind = iota
	SegmentEdge
)

func (k EdgeKind) String() string {
	if k == SegmentEdge {
		return "segment"
	}
	return "voronoi"
}

// Edge is a piece of the diagram to draw. A Voronoi edge separates the regions
// of Sites[0], on the left of From->To, and Sites[1], on its right. A segment
// edge is a segment site itself; Sites holds the segment and NoHandle.
type Edge struct {
	Kind     EdgeKind
	Sites    [2]Handle
	From, To kernel.Point
	// Unbounded edges run into the frame: they continue to infinity in the
	// ideal diagram.
	Unbounded bool
}

func (e Edge) String() string {
	suffix := ""
	if e.Unbounded {
		suffix = " unbounded"
	}
	return fmt.Sprintf("%v %v-%v%s", e.Kind, e.From, e.To, suffix)
}

// An EdgeIterator lists the edges of a diagram exactly once: segment edges
// first, then Voronoi edges. Its index is built on the first call to Next and
// rebuilt by Reset when the diagram changed in between. Behavior is undefined
// if you modify the diagram during iteration.
type EdgeIterator struct {
	d          *Diagram
	skipSeeded bool

	built    bool
	version  int
	frame    *big.Rat
	segments []Edge
	lines    []*boundary

	segmentIndex, lineIndex int
	pending                 []Edge
}

// Edges iterates over the edges outside the regions holding a seed.
func (d *Diagram) Edges() *EdgeIterator {
	return &EdgeIterator{d: d, skipSeeded: true}
}

// AllEdges iterates over every edge, seeds notwithstanding.
func (d *Diagram) AllEdges() *EdgeIterator {
	return &EdgeIterator{d: d}
}

func (iter *EdgeIterator) build() {
	d := iter.d
	iter.built = true
	iter.version = d.version
	iter.frame = d.Frame()
	iter.segmentIndex, iter.lineIndex, iter.pending = 0, 0, nil

	excluded := map[Handle]bool{}
	if iter.skipSeeded {
		excluded = d.seededSites()
	}

	iter.segments = nil
	for _, h := range d.order {
		s := d.sites[h]
		if s.Kind == SegmentSite && !excluded[h] {
			iter.segments = append(iter.segments, Edge{
				Kind:  SegmentEdge,
				Sites: [2]Handle{h, NoHandle},
				From:  s.A,
				To:    s.B,
			})
		}
	}
	iter.lines = d.boundaries(excluded)
}

func (iter *EdgeIterator) Next() (Edge, bool) {
	if !iter.built {
		iter.build()
	}
	if iter.segmentIndex < len(iter.segments) {
		iter.segmentIndex++
		return iter.segments[iter.segmentIndex-1], true
	}
	for len(iter.pending) == 0 {
		if iter.lineIndex >= len(iter.lines) {
			return Edge{}, false
		}
		iter.pending = iter.lines[iter.lineIndex].edges(iter.frame)
		iter.lineIndex++
	}
	edge := iter.pending[0]
	iter.pending = iter.pending[1:]
	return edge, true
}

// Reset restarts the iteration, picking up any change to the diagram.
func (iter *EdgeIterator) Reset() {
	if !iter.built || iter.version != iter.d.version {
		iter.built = false
		return
	}
	iter.segmentIndex, iter.lineIndex, iter.pending = 0, 0, nil
}

// Create a channel using a go routine to iterate over the edges. The index is
// built before the goroutine starts.
func (iter *EdgeIterator) MakeChan() chan Edge {
	if !iter.built {
		iter.build()
	}
	ch := make(chan Edge)
	go func() {
		for {
			edge, ok := iter.Next()
			if !ok {
				break
			}
			ch <- edge
		}
		close(ch)
	}()
	return ch
}

// Collect drains the iterator into a slice.
func (iter *EdgeIterator) Collect() []Edge {
	var edges []Edge
	for edge, ok := iter.Next(); ok; edge, ok = iter.Next() {
		edges = append(edges, edge)
	}
	return edges
}

// A boundary gathers every cell edge lying on one line. Each span records the
// stretch of the line covered by one cell and on which side the cell lies.
type boundary struct {
	line  kernel.Linear
	spans []span
}

type span struct {
	lo, hi *big.Rat
	owner  Handle
	left   bool
}

// lineKey normalizes the line through p and q so that its first nonzero
// coefficient is 1.
func lineKey(p, q kernel.Point) (kernel.Linear, string) {
	f := kernel.LineThrough(p, q)
	scale := f.A
	if scale.Sign() == 0 {
		scale = f.B
	}
	f = kernel.Linear{
		A: new(big.Rat).Quo(f.A, scale),
		B: new(big.Rat).Quo(f.B, scale),
		C: new(big.Rat).Quo(f.C, scale),
	}
	return f, f.A.RatString() + " " + f.B.RatString() + " " + f.C.RatString()
}

// param positions p along the line: by x, or by y for a vertical line.
func (b *boundary) param(p kernel.Point) *big.Rat {
	if b.line.B.Sign() == 0 {
		return p.Y
	}
	return p.X
}

func (b *boundary) at(t *big.Rat) kernel.Point {
	if b.line.B.Sign() == 0 {
		x := new(big.Rat).Quo(b.line.C, b.line.A)
		return kernel.Point{X: x.Neg(x), Y: t}
	}
	y := new(big.Rat).Mul(b.line.A, t)
	y.Add(y, b.line.C).Quo(y, b.line.B)
	return kernel.Point{X: t, Y: y.Neg(y)}
}

func (d *Diagram) boundaries(excluded map[Handle]bool) []*boundary {
	byKey := map[string]*boundary{}
	var keys []string
	for _, h := range d.order {
		for _, cell := range d.cells[h] {
			for i := range cell {
				p, q := cell.Edge(i)
				line, key := lineKey(p, q)
				b, ok := byKey[key]
				if !ok {
					b = &boundary{line: line}
					byKey[key] = b
					keys = append(keys, key)
				}
				// Cells wind counterclockwise, so a cell lies on the left of its
				// edges.
				tp, tq := b.param(p), b.param(q)
				if tp.Cmp(tq) < 0 {
					b.spans = append(b.spans, span{tp, tq, h, true})
				} else {
					b.spans = append(b.spans, span{tq, tp, h, false})
				}
			}
		}
	}
	sort.Strings(keys)

	result := make([]*boundary, 0, len(keys))
	for _, key := range keys {
		b := byKey[key]
		if len(excluded) > 0 {
			kept := b.spans[:0]
			for _, s := range b.spans {
				if !excluded[s.owner] {
					kept = append(kept, s)
				}
			}
			b.spans = kept
		}
		if len(b.spans) > 1 {
			result = append(result, b)
		}
	}
	return result
}

// edges sweeps the line and reports the maximal stretches with different
// owners on either side.
func (b *boundary) edges(frame *big.Rat) []Edge {
	var breaks []*big.Rat
	for _, s := range b.spans {
		breaks = append(breaks, s.lo, s.hi)
	}
	sort.Slice(breaks, func(i, j int) bool { return breaks[i].Cmp(breaks[j]) < 0 })
	unique := breaks[:0]
	for _, t := range breaks {
		if len(unique) == 0 || unique[len(unique)-1].Cmp(t) != 0 {
			unique = append(unique, t)
		}
	}

	var result []Edge
	var run *Edge
	flush := func() {
		if run != nil {
			run.Unbounded = onFrame(run.From, frame) || onFrame(run.To, frame)
			result = append(result, *run)
			run = nil
		}
	}
	for i := 0; i+1 < len(unique); i++ {
		lo, hi := unique[i], unique[i+1]
		left, right := NoHandle, NoHandle
		for _, s := range b.spans {
			if s.lo.Cmp(lo) <= 0 && s.hi.Cmp(hi) >= 0 {
				if s.left {
					left = s.owner
				} else {
					right = s.owner
				}
			}
		}
		if left == NoHandle || right == NoHandle || left == right {
			flush()
			continue
		}
		if run != nil && run.Sites == [2]Handle{left, right} {
			run.To = b.at(hi)
			continue
		}
		flush()
		run = &Edge{Kind: VoronoiEdge, Sites: [2]Handle{left, right}, From: b.at(lo), To: b.at(hi)}
	}
	flush()
	return result
}

func onFrame(p kernel.Point, frame *big.Rat) bool {
	if frame == nil {
		return false
	}
	return new(big.Rat).Abs(p.X).Cmp(frame) == 0 || new(big.Rat).Abs(p.Y).Cmp(frame) == 0
}

// Neighbors lists the sites whose regions share a boundary of positive length
// with the region of h.
func (d *Diagram) Neighbors(h Handle) []Handle {
	result := make([]Handle, 0, len(d.adjacency[h]))
	for n := range d.adjacency[h] {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// ConstraintDegree counts the segment sites ending at the point site h.
func (d *Diagram) ConstraintDegree(h Handle) int {
	count := 0
	for _, s := range d.sites {
		if s.Kind == SegmentSite && (s.Ends[0] == h || s.Ends[1] == h) {
			count++
		}
	}
	return count
}

// Locate returns a site whose region contains p. It is false when the diagram
// is empty.
func (d *Diagram) Locate(p kernel.Point) (Handle, bool) {
	if len(d.order) == 0 {
		return NoHandle, false
	}
	h := d.locate(p, d.last)
	for _, cell := range d.cells[h] {
		if cell.Contains(p) {
			return h, true
		}
	}
	return d.nearest(p), true
}

// nearest scans every placed site.
func (d *Diagram) nearest(p kernel.Point) Handle {
	best := d.order[0]
	bestKey := d.key(p, best)
	for _, h := range d.order[1:] {
		if k := d.key(p, h); k.less(bestKey) {
			best, bestKey = h, k
		}
	}
	return best
}

// VoronoiVertices lists the finite points where three or more regions meet,
// in lexicographic order.
func (d *Diagram) VoronoiVertices() []kernel.Point {
	type meeting struct {
		point  kernel.Point
		owners map[Handle]struct{}
	}
	byKey := map[string]*meeting{}
	for _, edge := range d.AllEdges().Collect() {
		if edge.Kind != VoronoiEdge {
			continue
		}
		for _, p := range []kernel.Point{edge.From, edge.To} {
			if onFrame(p, d.frame) {
				continue
			}
			m, ok := byKey[p.Key()]
			if !ok {
				m = &meeting{p, map[Handle]struct{}{}}
				byKey[p.Key()] = m
			}
			m.owners[edge.Sites[0]] = struct{}{}
			m.owners[edge.Sites[1]] = struct{}{}
		}
	}

	var result []kernel.Point
	for _, m := range byKey {
		if len(m.owners) >= 3 {
			result = append(result, m.point)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Less(result[j]) })
	return result
}

// Bounds is the smallest rectangle holding every site and every finite end of
// a Voronoi edge. It is false when the diagram is empty.
func (d *Diagram) Bounds() (kernel.Rect, bool) {
	var pts []kernel.Point
	for _, s := range d.sites {
		pts = append(pts, s.A, s.B)
	}
	for _, edge := range d.AllEdges().Collect() {
		if edge.Kind != VoronoiEdge {
			continue
		}
		for _, p := range []kernel.Point{edge.From, edge.To} {
			if !onFrame(p, d.frame) {
				pts = append(pts, p)
			}
		}
	}
	return kernel.RectAround(pts)
}
