package sitefile

import (
	"io"

	"github.com/osuushi/segvoronoi/internal/diagram"
	"github.com/osuushi/segvoronoi/internal/kernel"
	"go.uber.org/zap"
)

// ReadPolygons reads ".plg" blocks: a vertex count n followed by n points.
// Each polygon is closed by a segment from its last vertex back to the first.
func (l *Loader) ReadPolygons(r io.Reader) (Stats, error) {
	var stats Stats
	in := newTokens(r)
	for {
		n, err := in.integer()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		if n == 0 {
			return stats, in.malformed("empty polygon")
		}
		points := make([]kernel.Point, n)
		for i := range points {
			if points[i], err = in.mustPoint(); err != nil {
				return stats, err
			}
		}
		if err := l.insertPolygon(points, &stats); err != nil {
			return stats, err
		}
	}
}

// insertPolygon inserts the closed chain through points.
func (l *Loader) insertPolygon(points []kernel.Point, stats *Stats) error {
	first, err := l.Diagram.InsertPoint(points[0])
	if err != nil {
		return err
	}
	stats.Points++
	vp := first
	for _, q := range points[1:] {
		vq, err := l.Diagram.InsertPointNear(q, vp)
		if err != nil {
			return err
		}
		stats.Points++
		if err := l.segment(vp, vq, stats); err != nil {
			return err
		}
		vp = vq
	}
	if vp != first {
		return l.segment(vp, first, stats)
	}
	return nil
}

func (l *Loader) segment(a, b diagram.Handle, stats *Stats) error {
	_, err := l.Diagram.InsertSegmentBetween(a, b)
	if err != nil {
		if l.skip(err, stats, "segment") {
			return nil
		}
		return err
	}
	stats.Segments++
	return nil
}

// ReadEdges reads ".edg" files: a leading count, which is not enforced, then
// one "x1 y1 x2 y2" record per segment. Zero-length records are skipped, and
// a record starting where the previous one ended reuses that vertex.
func (l *Loader) ReadEdges(r io.Reader) (Stats, error) {
	var stats Stats
	in := newTokens(r)
	if _, err := in.integer(); err != nil {
		if err == io.EOF {
			return stats, nil
		}
		return stats, err
	}

	var (
		previous  kernel.Point
		vprevious = diagram.NoHandle
	)
	for {
		p, err := in.point()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		q, err := in.mustPoint()
		if err != nil {
			return stats, err
		}
		if p.Equal(q) {
			l.logger().Info("skipped zero-length segment", zap.Stringer("at", p))
			stats.Skipped++
			continue
		}

		vp := vprevious
		if vp == diagram.NoHandle || !p.Equal(previous) {
			if vp, err = l.Diagram.InsertPointNear(p, vprevious); err != nil {
				return stats, err
			}
			stats.Points++
		}
		vq, err := l.Diagram.InsertPointNear(q, vp)
		if err != nil {
			return stats, err
		}
		stats.Points++
		if err := l.segment(vp, vq, &stats); err != nil {
			return stats, err
		}
		previous, vprevious = q, vq
	}
}

// ReadPointLists reads ".pts" blocks: a count n followed by n points.
func (l *Loader) ReadPointLists(r io.Reader) (Stats, error) {
	var stats Stats
	in := newTokens(r)
	hint := diagram.NoHandle
	for {
		n, err := in.integer()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		for i := 0; i < n; i++ {
			p, err := in.mustPoint()
			if err != nil {
				return stats, err
			}
			if hint, err = l.Diagram.InsertPointNear(p, hint); err != nil {
				return stats, err
			}
			stats.Points++
		}
	}
}

// ReadPoints reads ".pin" files: bare "x y" pairs until the end of input.
func (l *Loader) ReadPoints(r io.Reader) (Stats, error) {
	var stats Stats
	in := newTokens(r)
	hint := diagram.NoHandle
	for {
		p, err := in.point()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		if hint, err = l.Diagram.InsertPointNear(p, hint); err != nil {
			return stats, err
		}
		stats.Points++
	}
}

// ReadSites reads ".cin" site objects: "p x y" for a point and
// "s x1 y1 x2 y2" for a segment.
func (l *Loader) ReadSites(r io.Reader) (Stats, error) {
	var stats Stats
	in := newTokens(r)
	for {
		tag, err := in.next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		switch tag {
		case "p":
			p, err := in.mustPoint()
			if err != nil {
				return stats, err
			}
			if _, err := l.Diagram.InsertPoint(p); err != nil {
				return stats, err
			}
			stats.Points++
		case "s":
			p, err := in.mustPoint()
			if err != nil {
				return stats, err
			}
			q, err := in.mustPoint()
			if err != nil {
				return stats, err
			}
			if _, err := l.Diagram.InsertSegment(p, q); err != nil {
				if l.skip(err, &stats, "segment") {
					continue
				}
				return stats, err
			}
			stats.Segments++
		default:
			return stats, in.malformed("unknown site tag %q", tag)
		}
	}
}
