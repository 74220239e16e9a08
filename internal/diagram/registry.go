package diagram

import (
	"math/big"
	"sort"

	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Public insertion entry points. Each one recovers builder panics into an
// error, the same way for every operation.

func (d *Diagram) InsertPoint(p kernel.Point) (Handle, error) {
	return d.InsertPointNear(p, NoHandle)
}

// InsertPointNear inserts p, starting the search for its place from hint.
// Hints speed up insertion of consecutive polyline vertices; an invalid hint is
// ignored.
func (d *Diagram) InsertPointNear(p kernel.Point, hint Handle) (h Handle, err error) {
	defer func() {
		if recovered := HandlePanicRecover(recover()); recovered != nil {
			h, err = NoHandle, recovered
		}
	}()
	return d.insertPoint(p, hint), nil
}

// InsertSegment inserts both endpoints, reusing existing point sites, and then
// the segment between them.
func (d *Diagram) InsertSegment(p, q kernel.Point) (h Handle, err error) {
	defer func() {
		if recovered := HandlePanicRecover(recover()); recovered != nil {
			h, err = NoHandle, recovered
		}
	}()
	if p.Equal(q) {
		return NoHandle, errors.Wrapf(ErrDegenerateSegment, "%v", p)
	}
	if err := d.checkCrossings(kernel.Segment{A: p, B: q}); err != nil {
		return NoHandle, err
	}
	a := d.insertPoint(p, NoHandle)
	b := d.insertPoint(q, a)
	pieces, err := d.insertSegment(a, b)
	if err != nil {
		return NoHandle, err
	}
	return pieces[0], nil
}

// InsertSegmentBetween inserts the segment joining two point sites. When the
// segment passes through other point sites it is split at them, and the handle
// of the piece starting at a is returned.
func (d *Diagram) InsertSegmentBetween(a, b Handle) (h Handle, err error) {
	defer func() {
		if recovered := HandlePanicRecover(recover()); recovered != nil {
			h, err = NoHandle, recovered
		}
	}()
	for _, end := range []Handle{a, b} {
		if !d.valid(end) || d.sites[end].Kind != PointSite {
			return NoHandle, errors.Wrapf(ErrInvalidHandle, "segment endpoint %d", end)
		}
	}
	pieces, err := d.insertSegment(a, b)
	if err != nil {
		return NoHandle, err
	}
	return pieces[0], nil
}

// InsertSite inserts a site description read from a site stream. Only Kind,
// A and B are used.
func (d *Diagram) InsertSite(site Site) (Handle, error) {
	if site.Kind == SegmentSite {
		return d.InsertSegment(site.A, site.B)
	}
	return d.InsertPoint(site.A)
}

// InsertPolyline inserts the segments joining consecutive points. Repeated
// consecutive points and segments that cannot be inserted are skipped with a
// diagnostic, and the rest of the chain is still inserted. A single point is
// inserted as a point site. The handles of the inserted sites are returned:
// every segment piece for a chain, the point for a single point.
func (d *Diagram) InsertPolyline(points []kernel.Point) (handles []Handle, err error) {
	defer func() {
		if recovered := HandlePanicRecover(recover()); recovered != nil {
			err = recovered
		}
	}()
	if len(points) == 0 {
		return nil, nil
	}
	prev := points[0]
	vp := d.insertPoint(prev, NoHandle)
	if len(points) == 1 {
		return []Handle{vp}, nil
	}

	for _, q := range points[1:] {
		if q.Equal(prev) {
			d.log.Debug("duplicate point", zap.Stringer("point", q))
			continue
		}
		if err := d.checkCrossings(kernel.Segment{A: prev, B: q}); err != nil {
			d.log.Info("skipped segment", zap.Stringer("from", prev), zap.Stringer("to", q), zap.Error(err))
			prev, vp = q, d.insertPoint(q, vp)
			continue
		}
		vq := d.insertPoint(q, vp)
		pieces, err := d.insertSegment(vp, vq)
		if err != nil {
			return handles, err
		}
		handles = append(handles, pieces...)
		prev, vp = q, vq
	}
	return handles, nil
}

func (d *Diagram) register(site Site) Handle {
	site.Handle = Handle(len(d.sites))
	d.sites = append(d.sites, newSiteState(site))
	if site.Kind == PointSite {
		d.points[site.A.Key()] = site.Handle
	} else {
		d.segments[segmentKey(site.Ends[0], site.Ends[1])] = site.Handle
	}
	return site.Handle
}

func segmentKey(a, b Handle) [2]Handle {
	if b < a {
		a, b = b, a
	}
	return [2]Handle{a, b}
}

func (d *Diagram) insertPoint(p kernel.Point, hint Handle) Handle {
	if h, ok := d.points[p.Key()]; ok {
		return h
	}
	h := d.register(Site{Kind: PointSite, A: p, B: p, Ends: [2]Handle{NoHandle, NoHandle}})

	for _, s := range d.sites {
		if s.Kind == SegmentSite && (kernel.Segment{A: s.A, B: s.B}).ContainsInterior(p) {
			d.splitSegment(s, h)
			d.rebuild()
			return h
		}
	}

	if !d.fits(p) {
		d.rebuild()
		return h
	}
	d.place(h, hint)
	return h
}

// splitSegment shortens s to end at the point site at, and registers the rest
// of it as a new segment. The caller rebuilds.
func (d *Diagram) splitSegment(s *siteState, at Handle) {
	p := d.sites[at].A
	end := s.Ends[1]
	delete(d.segments, segmentKey(s.Ends[0], s.Ends[1]))

	s.Ends[1] = at
	s.B = p
	s.linf = kernel.DistanceTerms(s.A, s.B, kernel.Linf)
	s.l1 = kernel.DistanceTerms(s.A, s.B, kernel.L1)
	d.segments[segmentKey(s.Ends[0], s.Ends[1])] = s.Handle

	d.register(Site{Kind: SegmentSite, A: p, B: d.sites[end].A, Ends: [2]Handle{at, end}})
	d.log.Debug("split segment", zap.Stringer("segment", s.Site), zap.Stringer("at", p))
}

func (d *Diagram) checkCrossings(seg kernel.Segment) error {
	for _, s := range d.sites {
		if s.Kind == SegmentSite && seg.Crosses(kernel.Segment{A: s.A, B: s.B}) {
			return errors.Wrapf(ErrIntersectingSegment, "%v-%v crosses %v", seg.A, seg.B, s.Site)
		}
	}
	return nil
}

// insertSegment returns the pieces the segment was cut into, starting at a.
func (d *Diagram) insertSegment(a, b Handle) ([]Handle, error) {
	if a == b {
		return nil, errors.Wrapf(ErrDegenerateSegment, "%v", d.sites[a].A)
	}
	if h, ok := d.segments[segmentKey(a, b)]; ok {
		return []Handle{h}, nil
	}
	seg := kernel.Segment{A: d.sites[a].A, B: d.sites[b].A}
	if err := d.checkCrossings(seg); err != nil {
		return nil, err
	}

	// Cut at the point sites lying inside the segment.
	var cuts []Handle
	for _, s := range d.sites {
		if s.Kind == PointSite && seg.ContainsInterior(s.A) {
			cuts = append(cuts, s.Handle)
		}
	}
	sort.Slice(cuts, func(i, j int) bool {
		return seg.Position(d.sites[cuts[i]].A).Cmp(seg.Position(d.sites[cuts[j]].A)) < 0
	})
	chain := append(append([]Handle{a}, cuts...), b)

	pieces := make([]Handle, 0, len(chain)-1)
	for i := 0; i+1 < len(chain); i++ {
		from, to := chain[i], chain[i+1]
		h, ok := d.segments[segmentKey(from, to)]
		if !ok {
			h = d.register(Site{
				Kind: SegmentSite,
				A:    d.sites[from].A,
				B:    d.sites[to].A,
				Ends: [2]Handle{from, to},
			})
			d.place(h, from)
		}
		pieces = append(pieces, h)
	}
	return pieces, nil
}

// fits reports whether p lies well inside the current frame.
func (d *Diagram) fits(p kernel.Point) bool {
	if d.frame == nil {
		return false
	}
	need := new(big.Rat).Mul(p.MaxAbs(), big.NewRat(16, 1))
	return need.Cmp(d.frame) <= 0
}

// frameFor is the smallest power of two that is at least 16 and at least 16
// times every coordinate of every site.
func (d *Diagram) frameFor() *big.Rat {
	need := big.NewRat(1, 1)
	for _, s := range d.sites {
		need = maxRat(need, s.A.MaxAbs(), s.B.MaxAbs())
	}
	need.Mul(need, big.NewRat(16, 1))
	r := big.NewRat(16, 1)
	for r.Cmp(need) < 0 {
		r.Add(r, r)
	}
	return r
}

func maxRat(rs ...*big.Rat) *big.Rat {
	best := new(big.Rat).Set(rs[0])
	for _, r := range rs[1:] {
		if r.Cmp(best) > 0 {
			best.Set(r)
		}
	}
	return best
}

// rebuild replays every site from scratch in a frame sized for all of them.
// Sites are placed in handle order, with segment endpoints first.
func (d *Diagram) rebuild() {
	d.resetCells()
	d.frame = d.frameFor()
	for h := range d.sites {
		d.placeWithEnds(Handle(h))
	}
	d.log.Debug("rebuilt diagram", zap.Int("sites", len(d.sites)), zap.String("frame", kernel.FormatRat(d.frame)))
}

func (d *Diagram) placeWithEnds(h Handle) {
	s := d.sites[h]
	if s.rank >= 0 {
		return
	}
	hint := NoHandle
	if s.Kind == SegmentSite {
		d.placeWithEnds(s.Ends[0])
		d.placeWithEnds(s.Ends[1])
		hint = s.Ends[0]
	}
	d.place(h, hint)
}
