package diagram

import (
	"math/big"

	"github.com/osuushi/segvoronoi/internal/kernel"
)

// distanceKey orders sites by nearness to a position: L∞ distance, then L1
// distance, then placement rank.
type distanceKey struct {
	linf, l1 *big.Rat
	rank     int
}

func (k distanceKey) less(o distanceKey) bool {
	if c := k.linf.Cmp(o.linf); c != 0 {
		return c < 0
	}
	if c := k.l1.Cmp(o.l1); c != 0 {
		return c < 0
	}
	return k.rank < o.rank
}

func (d *Diagram) key(p kernel.Point, h Handle) distanceKey {
	s := d.sites[h]
	return distanceKey{kernel.MaxOf(s.linf, p), kernel.MaxOf(s.l1, p), s.rank}
}

// A rewrite is the conflict region of a new site: for every site that loses
// ground, the cells it keeps and the pieces it hands over. It is computed
// without touching the diagram, and applied in one step.
type rewrite struct {
	site   Handle
	losses []loss
}

type loss struct {
	owner Handle
	kept  []kernel.Polygon
	taken []kernel.Polygon
}

// place gives the registered site h its cells. The frame must already hold h.
func (d *Diagram) place(h Handle, hint Handle) {
	if d.frame == nil {
		fatalf("placing %v without a frame", d.sites[h].Site)
	}
	var plan *rewrite
	if len(d.order) > 0 {
		plan = d.conflictRegion(h, hint)
	}

	s := d.sites[h]
	s.rank = len(d.order)
	d.order = append(d.order, h)
	d.version++
	d.last = h

	if plan == nil {
		d.cells[h] = []kernel.Polygon{kernel.Square(d.frame)}
		d.adjacency[h] = map[Handle]struct{}{}
		return
	}
	d.apply(plan)
}

// anchor is a position known to be inside the region of a freshly placed
// site, or on its boundary.
func (s *siteState) anchor() kernel.Point {
	return s.A
}

// locate walks the adjacency graph from start toward the site nearest to p,
// and stops at a local minimum.
func (d *Diagram) locate(p kernel.Point, start Handle) Handle {
	current := start
	if !d.placed(current) {
		current = d.last
	}
	best := d.key(p, current)
	for {
		moved := false
		for _, n := range d.Neighbors(current) {
			if k := d.key(p, n); k.less(best) {
				current, best, moved = n, k, true
			}
		}
		if !moved {
			return current
		}
	}
}

func (d *Diagram) conflictRegion(h, hint Handle) *rewrite {
	plan := &rewrite{site: h}
	start := d.locate(d.sites[h].anchor(), hint)

	visited := map[Handle]bool{start: true}
	queue := []Handle{start}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		l, ok := d.split(t, h)
		if !ok {
			continue
		}
		plan.losses = append(plan.losses, l)
		for _, n := range d.Neighbors(t) {
			if !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}

	if len(plan.losses) == 0 {
		// The walk stalled on a site the newcomer does not touch.
		for _, t := range d.order {
			if visited[t] {
				continue
			}
			if l, ok := d.split(t, h); ok {
				plan.losses = append(plan.losses, l)
			}
		}
	}
	return plan
}

// split computes what the new site h takes from the cells of t.
func (d *Diagram) split(t, h Handle) (loss, bool) {
	owner, site := d.sites[t], d.sites[h]
	l := loss{owner: t}
	for _, cell := range d.cells[t] {
		pieces := takenPieces(cell, owner, site)
		if len(pieces) == 0 {
			l.kept = append(l.kept, cell)
			continue
		}
		rest := []kernel.Polygon{cell}
		for _, piece := range pieces {
			l.taken = append(l.taken, piece.poly)
			var next []kernel.Polygon
			for _, r := range rest {
				next = append(next, difference(r, piece.bounds)...)
			}
			rest = next
		}
		l.kept = append(l.kept, rest...)
	}
	return l, len(l.taken) > 0
}

type piece struct {
	poly   kernel.Polygon
	bounds []kernel.Linear
}

// takenPieces splits the part of cell that site wins from owner into convex
// pieces, one per linearity domain of owner's distance. Where the L∞
// distances coincide on a whole domain, L1 decides; where both coincide the
// owner keeps the ground.
func takenPieces(cell kernel.Polygon, owner, site *siteState) []piece {
	var pieces []piece
	for i, ti := range owner.linf {
		bounds := kernel.Domain(owner.linf, i)
		bounds = append(bounds, kernel.Below(site.linf, ti)...)
		region := cell.ClipAll(bounds)
		if region == nil {
			continue
		}
		if !kernel.HasTerm(site.linf, ti) {
			pieces = append(pieces, piece{region, bounds})
			continue
		}
		for m, um := range owner.l1 {
			if kernel.HasTerm(site.l1, um) {
				continue
			}
			tie := append(append([]kernel.Linear{}, bounds...), kernel.Domain(owner.l1, m)...)
			tie = append(tie, kernel.Below(site.l1, um)...)
			if poly := region.ClipAll(tie); poly != nil {
				pieces = append(pieces, piece{poly, tie})
			}
		}
	}
	return pieces
}

// difference splits poly minus the intersection of the half-planes f <= 0
// into convex pieces: the k-th piece lies inside the first k-1 half-planes
// and outside the k-th.
func difference(poly kernel.Polygon, bounds []kernel.Linear) []kernel.Polygon {
	var out []kernel.Polygon
	current := poly
	for _, f := range bounds {
		if f.IsConstant() {
			if f.C.Sign() > 0 {
				return append(out, current)
			}
			continue
		}
		if outside := current.Clip(f.Neg()); outside != nil {
			out = append(out, outside)
		}
		current = current.Clip(f)
		if current == nil {
			break
		}
	}
	return out
}

func (d *Diagram) apply(plan *rewrite) {
	var won []kernel.Polygon
	for _, l := range plan.losses {
		d.cells[l.owner] = coalesce(l.kept)
		won = append(won, l.taken...)
	}
	d.cells[plan.site] = coalesce(won)
	d.relink(plan)
}

// coalesce merges the cells of one owner into fewer convex pieces: into one
// when their union is convex, otherwise by pairs and then by triples whose
// union is.
func coalesce(cells []kernel.Polygon) []kernel.Polygon {
	cells = append([]kernel.Polygon{}, cells...)
	if len(cells) < 2 {
		return cells
	}
	if whole, ok := kernel.MergeAll(cells); ok {
		return []kernel.Polygon{whole}
	}
	for mergePair(&cells) || mergeTriple(&cells) {
	}
	return cells
}

func mergePair(cells *[]kernel.Polygon) bool {
	c := *cells
	for i := range c {
		for j := i + 1; j < len(c); j++ {
			if union, ok := kernel.Merge(c[i], c[j]); ok {
				c[i] = union
				*cells = append(c[:j], c[j+1:]...)
				return true
			}
		}
	}
	return false
}

// mergeTriple catches unions that are only convex with a third piece, like a
// triangle cut in three around an inner point.
func mergeTriple(cells *[]kernel.Polygon) bool {
	c := *cells
	bounds := make([]kernel.Rect, len(c))
	for i, cell := range c {
		bounds[i] = cell.Bounds()
	}
	for i := range c {
		for j := i + 1; j < len(c); j++ {
			if !bounds[i].Meets(bounds[j]) {
				continue
			}
			for k := j + 1; k < len(c); k++ {
				if !bounds[k].Meets(bounds[i]) && !bounds[k].Meets(bounds[j]) {
					continue
				}
				if union, ok := kernel.MergeAll([]kernel.Polygon{c[i], c[j], c[k]}); ok {
					c[i] = union
					c = append(c[:k], c[k+1:]...)
					*cells = append(c[:j], c[j+1:]...)
					return true
				}
			}
		}
	}
	return false
}

// relink updates adjacency once plan is applied. Losers only shrink, so a
// loser keeps a subset of its old neighbors and may gain the new site. The
// new site borders losers, and the old neighbors of losers that border the
// pieces it took. Only pairs next to a taken piece need a fresh check.
func (d *Diagram) relink(plan *rewrite) {
	s := plan.site
	d.adjacency[s] = map[Handle]struct{}{}
	losers := map[Handle]bool{}
	for _, l := range plan.losses {
		losers[l.owner] = true
	}

	for _, l := range plan.losses {
		t := l.owner
		if d.touches(t, s) {
			d.link(t, s)
		}
		for _, n := range d.Neighbors(t) {
			if n == s {
				continue
			}
			bordersTaken := bordersAny(d.cells[n], l.taken)
			if bordersTaken {
				d.link(s, n)
			}
			if (losers[n] || bordersTaken) && !d.touches(t, n) {
				d.unlink(t, n)
			}
		}
	}
}

func (d *Diagram) link(a, b Handle) {
	for _, pair := range [2][2]Handle{{a, b}, {b, a}} {
		if d.adjacency[pair[0]] == nil {
			d.adjacency[pair[0]] = map[Handle]struct{}{}
		}
		d.adjacency[pair[0]][pair[1]] = struct{}{}
	}
}

func (d *Diagram) unlink(a, b Handle) {
	delete(d.adjacency[a], b)
	delete(d.adjacency[b], a)
}

func bordersAny(cells, pieces []kernel.Polygon) bool {
	for _, c := range cells {
		for _, p := range pieces {
			if kernel.SharesBoundary(c, p) {
				return true
			}
		}
	}
	return false
}

func (d *Diagram) touches(a, b Handle) bool {
	for _, pa := range d.cells[a] {
		for _, pb := range d.cells[b] {
			if kernel.SharesBoundary(pa, pb) {
				return true
			}
		}
	}
	return false
}
