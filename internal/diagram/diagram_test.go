package diagram

import (
	"fmt"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// Helpers

func insertPoints(t *testing.T, d *Diagram, coords ...int64) []Handle {
	t.Helper()
	var handles []Handle
	for i := 0; i+1 < len(coords); i += 2 {
		h, err := d.InsertPoint(kernel.Pt(coords[i], coords[i+1]))
		require.NoError(t, err)
		handles = append(handles, h)
	}
	return handles
}

// signatures describes edges by geometry only, so that diagrams built with
// different handles can be compared. Voronoi edges are oriented so that the
// smaller site description comes first.
func signatures(d *Diagram, edges []Edge) []string {
	result := make([]string, 0, len(edges))
	for _, e := range edges {
		if e.Kind == SegmentEdge {
			result = append(result, e.String())
			continue
		}
		left, right := d.sites[e.Sites[0]].Site.String(), d.sites[e.Sites[1]].Site.String()
		from, to := e.From, e.To
		if right < left {
			left, right, from, to = right, left, to, from
		}
		suffix := ""
		if e.Unbounded {
			suffix = " unbounded"
		}
		result = append(result, fmt.Sprintf("%s|%s %v-%v%s", left, right, from, to, suffix))
	}
	sort.Strings(result)
	return result
}

func separates(d *Diagram, edges []Edge, a, b Handle) bool {
	for _, e := range edges {
		if e.Kind == VoronoiEdge && (e.Sites == [2]Handle{a, b} || e.Sites == [2]Handle{b, a}) {
			return true
		}
	}
	return false
}

// Tests

func TestEmptyDiagram(t *testing.T) {
	d := New()
	assert.True(t, d.IsEmpty())
	assert.Empty(t, d.Edges().Collect())
	_, ok := d.Bounds()
	assert.False(t, ok)
	_, ok = d.Locate(kernel.Pt(1, 1))
	assert.False(t, ok)
	assert.Nil(t, d.Frame())
}

func TestSinglePoint(t *testing.T) {
	d := New()
	h, err := d.InsertPoint(kernel.Pt(0, 0))
	require.NoError(t, err)
	assert.Equal(t, Handle(0), h)
	assert.Equal(t, "16", kernel.FormatRat(d.Frame()))
	assert.Empty(t, d.Edges().Collect())
	assert.Empty(t, d.Neighbors(h))
	located, ok := d.Locate(kernel.Pt(7, -3))
	assert.True(t, ok)
	assert.Equal(t, h, located)
	assertValidDiagram(t, d)
}

func TestTwoPoints(t *testing.T) {
	d := New()
	handles := insertPoints(t, d, 0, 0, 4, 0)
	assert.Equal(t, "64", kernel.FormatRat(d.Frame()))

	edges := d.Edges().Collect()
	require.Len(t, edges, 1)
	assert.Equal(t, []string{"point (0, 0)|point (4, 0) (2, -64)-(2, 64) unbounded"}, signatures(d, edges))
	assert.Equal(t, [2]Handle{handles[0], handles[1]}, edges[0].Sites, "the older site lies left of the upward edge")
	assert.Equal(t, []Handle{handles[1]}, d.Neighbors(handles[0]))
	assert.Empty(t, d.VoronoiVertices())
	assertValidDiagram(t, d)
}

func TestThreePointScenario(t *testing.T) {
	d := New()
	handles := insertPoints(t, d, 0, 0, 4, 0, 0, 4)
	a, b, c := handles[0], handles[1], handles[2]

	edges := d.Edges().Collect()
	assert.Equal(t, []string{
		"point (0, 0)|point (0, 4) (2, 2)-(-64, 2) unbounded",
		"point (0, 0)|point (4, 0) (2, -64)-(2, 2) unbounded",
		"point (0, 4)|point (4, 0) (2, 2)-(64, 64) unbounded",
	}, signatures(d, edges))

	assert.Equal(t, "[(2, 2)]", fmt.Sprint(d.VoronoiVertices()))
	bounds, ok := d.Bounds()
	require.True(t, ok)
	assert.Equal(t, "(0, 0)-(4, 4)", bounds.String())
	assert.Equal(t, []Handle{b, c}, d.Neighbors(a))

	located, ok := d.Locate(kernel.Pt(3, -1))
	require.True(t, ok)
	assert.Equal(t, b, located)
	assertValidDiagram(t, d)

	t.Run("then a segment between the first two", func(t *testing.T) {
		s, err := d.InsertSegmentBetween(a, b)
		require.NoError(t, err)
		site, err := d.Site(s)
		require.NoError(t, err)
		assert.Equal(t, SegmentSite, site.Kind)
		assert.Equal(t, [2]Handle{a, b}, site.Ends)

		edges := d.Edges().Collect()
		assert.False(t, separates(d, edges, a, b), "the endpoint regions no longer meet")
		segmentEdges := 0
		for _, e := range edges {
			if e.Kind == SegmentEdge {
				segmentEdges++
				assert.Equal(t, s, e.Sites[0])
			}
		}
		assert.Equal(t, 1, segmentEdges)
		assert.Contains(t, d.Neighbors(a), s)
		assert.Contains(t, d.Neighbors(b), s)
		assert.Contains(t, d.Neighbors(s), c)
		assert.Equal(t, 1, d.ConstraintDegree(a))
		assert.Equal(t, 1, d.ConstraintDegree(b))
		assert.Equal(t, 0, d.ConstraintDegree(c))
		assertValidDiagram(t, d)
	})
}

func TestIdempotentInsertion(t *testing.T) {
	d := New()
	handles := insertPoints(t, d, 0, 0, 5, 1, 2, 7)
	s, err := d.InsertSegment(kernel.Pt(0, 0), kernel.Pt(5, 1))
	require.NoError(t, err)
	before := signatures(d, d.Edges().Collect())
	version := d.Version()

	again := insertPoints(t, d, 0, 0, 5, 1, 2, 7)
	assert.Equal(t, handles, again)
	same, err := d.InsertSegment(kernel.Pt(5, 1), kernel.Pt(0, 0))
	require.NoError(t, err)
	assert.Equal(t, s, same)

	assert.Equal(t, 4, d.NumVertices())
	assert.Equal(t, version, d.Version(), "repeated insertions change nothing")
	assert.Equal(t, before, signatures(d, d.Edges().Collect()))
}

func TestInsertionOrderDoesNotMatterWithoutTies(t *testing.T) {
	coords := []int64{0, 0, 5, 1, 2, 7, 9, 4, -3, 6}
	var expected []string
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 4; round++ {
		order := rng.Perm(len(coords) / 2)
		d := New()
		for _, i := range order {
			insertPoints(t, d, coords[2*i], coords[2*i+1])
		}
		actual := signatures(d, d.Edges().Collect())
		if expected == nil {
			expected = actual
			assertValidDiagram(t, d)
			continue
		}
		assert.Equal(t, expected, actual, "order %v", order)
	}
}

// Sites on a grid tie in L∞ distance across whole regions, so the L1 and rank
// tie-breaks decide those. The result must still not depend on the order.
func TestInsertionOrderDoesNotMatterWithTies(t *testing.T) {
	var grid [][4]int64
	for x := int64(0); x <= 4; x += 2 {
		for y := int64(0); y <= 4; y += 2 {
			grid = append(grid, [4]int64{x, y, x, y})
		}
	}
	grid = append(grid, [4]int64{1, 3, 1, 3})

	for _, c := range []struct {
		name  string
		sites [][4]int64
	}{
		{"points", grid},
		{"points and a segment", append(append([][4]int64{}, grid...), [4]int64{0, 0, 4, 2})},
	} {
		c := c
		t.Run(c.name, func(t *testing.T) {
			var expected []string
			rng := rand.New(rand.NewSource(11))
			for round := 0; round < 5; round++ {
				order := rng.Perm(len(c.sites))
				d := New()
				for _, i := range order {
					s := c.sites[i]
					p, q := kernel.Pt(s[0], s[1]), kernel.Pt(s[2], s[3])
					var err error
					if p.Equal(q) {
						_, err = d.InsertPoint(p)
					} else {
						_, err = d.InsertSegment(p, q)
					}
					require.NoError(t, err)
				}
				assertValidDiagram(t, d)
				actual := signatures(d, d.Edges().Collect())
				if expected == nil {
					expected = actual
					continue
				}
				assert.Equal(t, expected, actual, "order %v", order)
			}
		})
	}
}

func TestDuplicatesAndDegenerateSegments(t *testing.T) {
	d := New()
	handles := insertPoints(t, d, 1, 1, 1, 1)
	assert.Equal(t, handles[0], handles[1])
	assert.Equal(t, 1, d.NumVertices())

	_, err := d.InsertSegment(kernel.Pt(1, 1), kernel.Pt(1, 1))
	assert.ErrorIs(t, err, ErrDegenerateSegment)
	_, err = d.InsertSegmentBetween(handles[0], handles[0])
	assert.ErrorIs(t, err, ErrDegenerateSegment)
	_, err = d.InsertSegmentBetween(handles[0], Handle(42))
	assert.ErrorIs(t, err, ErrInvalidHandle)
	_, err = d.Site(Handle(-3))
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.Equal(t, 1, d.NumVertices())
}

func TestCrossingSegmentsAreRejected(t *testing.T) {
	d := New()
	_, err := d.InsertSegment(kernel.Pt(0, 0), kernel.Pt(4, 4))
	require.NoError(t, err)
	_, err = d.InsertSegment(kernel.Pt(0, 4), kernel.Pt(4, 0))
	assert.ErrorIs(t, err, ErrIntersectingSegment)
	assert.Equal(t, 3, d.NumVertices(), "endpoints of a rejected segment are not inserted")

	// Touching at an endpoint is fine.
	_, err = d.InsertSegment(kernel.Pt(4, 4), kernel.Pt(8, 0))
	assert.NoError(t, err)
	assertValidDiagram(t, d)
}

func TestSegmentThroughPointsIsSplit(t *testing.T) {
	d := New()
	handles := insertPoints(t, d, 0, 0, 2, 0, 4, 0, 1, 3)
	first, err := d.InsertSegmentBetween(handles[0], handles[2])
	require.NoError(t, err)

	site, err := d.Site(first)
	require.NoError(t, err)
	assert.Equal(t, [2]Handle{handles[0], handles[1]}, site.Ends)
	assert.Equal(t, 2, d.NumSegments())
	assert.Equal(t, 2, d.ConstraintDegree(handles[1]))
	assert.Equal(t, 1, d.ConstraintDegree(handles[2]))

	var segments []string
	for _, e := range d.Edges().Collect() {
		if e.Kind == SegmentEdge {
			segments = append(segments, e.String())
		}
	}
	assert.ElementsMatch(t, []string{"segment (0, 0)-(2, 0)", "segment (2, 0)-(4, 0)"}, segments)
	assertValidDiagram(t, d)
}

func TestPointOnSegmentSplitsIt(t *testing.T) {
	d := New()
	s, err := d.InsertSegment(kernel.Pt(-4, 0), kernel.Pt(4, 0))
	require.NoError(t, err)
	_, err = d.InsertPoint(kernel.Pt(0, 5))
	require.NoError(t, err)

	mid, err := d.InsertPoint(kernel.Pt(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, d.NumSegments())
	assert.Equal(t, 2, d.ConstraintDegree(mid))

	site, err := d.Site(s)
	require.NoError(t, err)
	assert.Equal(t, "segment (-4, 0)-(0, 0)", site.String(), "the old handle keeps the first half")
	rest, err := d.Site(Handle(d.NumVertices() - 1))
	require.NoError(t, err)
	assert.Equal(t, "segment (0, 0)-(4, 0)", rest.String())
	assertValidDiagram(t, d)
}

func TestOverlappingSegmentIsCutAtExistingPoints(t *testing.T) {
	d := New()
	_, err := d.InsertSegment(kernel.Pt(0, 0), kernel.Pt(4, 0))
	require.NoError(t, err)
	_, err = d.InsertSegment(kernel.Pt(2, 0), kernel.Pt(6, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, d.NumSegments())
	assert.Equal(t, 4, d.NumPoints())
	assertValidDiagram(t, d)
}

func TestGrowingTheFrameRebuilds(t *testing.T) {
	d := New()
	insertPoints(t, d, 1, 1, -2, 3)
	assert.Equal(t, "64", kernel.FormatRat(d.Frame()))
	insertPoints(t, d, 100, 0)
	assert.Equal(t, "2048", kernel.FormatRat(d.Frame()))
	assert.Equal(t, 3, len(d.Sites()))
	assertValidDiagram(t, d)
}

func TestSegmentsAndPoints(t *testing.T) {
	d := New()
	_, err := d.InsertSegment(kernel.Pt(0, 0), kernel.Pt(5, 3))
	require.NoError(t, err)
	insertPoints(t, d, 1, 4)
	_, err = d.InsertSegment(kernel.Pt(6, -2), kernel.Pt(8, 5))
	require.NoError(t, err)
	insertPoints(t, d, 3, -3, 9, 9)
	assertValidDiagram(t, d)

	for _, e := range d.AllEdges().Collect() {
		if e.Kind == VoronoiEdge {
			assert.NotEqual(t, e.Sites[0], e.Sites[1])
		}
	}
}

func TestPolyline(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	d := NewWithOptions(Options{Log: zap.New(core)})
	handles, err := d.InsertPolyline([]kernel.Point{
		kernel.Pt(0, 0), kernel.Pt(6, 0), kernel.Pt(6, 0), kernel.Pt(6, 6), kernel.Pt(0, 6), kernel.Pt(0, 0),
	})
	require.NoError(t, err)
	assert.Len(t, handles, 4)
	duplicates := logs.FilterMessage("duplicate point").All()
	require.Len(t, duplicates, 1)
	assert.Equal(t, "(6, 0)", duplicates[0].ContextMap()["point"])
	assert.Equal(t, 4, d.NumPoints())
	assert.Equal(t, 4, d.NumSegments())

	single, err := d.InsertPolyline([]kernel.Point{kernel.Pt(3, 3)})
	require.NoError(t, err)
	require.Len(t, single, 1)
	site, err := d.Site(single[0])
	require.NoError(t, err)
	assert.Equal(t, PointSite, site.Kind)

	// A chain crossing the square is skipped piecewise and keeps going.
	crossing, err := d.InsertPolyline([]kernel.Point{kernel.Pt(3, 10), kernel.Pt(3, -10), kernel.Pt(10, -10)})
	require.NoError(t, err)
	assert.Len(t, crossing, 1)
	skipped := logs.FilterMessage("skipped segment").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "(3, 10)", skipped[0].ContextMap()["from"])
	assertValidDiagram(t, d)

	// A chain through a point site comes back as both pieces.
	pieces, err := d.InsertPolyline([]kernel.Point{kernel.Pt(3, 1), kernel.Pt(3, 5)})
	require.NoError(t, err)
	assert.Len(t, pieces, 2)

	_, err = d.InsertPoint(kernel.Pt(1, 0))
	require.NoError(t, err)
	splits := logs.FilterMessage("split segment").All()
	require.Len(t, splits, 1)
	assert.Equal(t, "segment (0, 0)-(1, 0)", splits[0].ContextMap()["segment"])
}

func TestSeeds(t *testing.T) {
	d := New()
	handles := insertPoints(t, d, 0, 0, 4, 0, 0, 4)
	d.AddSeed(kernel.Pt(-5, -5))
	assert.Len(t, d.AllEdges().Collect(), 3)
	edges := d.Edges().Collect()
	require.Len(t, edges, 1)
	assert.ElementsMatch(t, []Handle{handles[1], handles[2]}, edges[0].Sites[:])

	d.Clear()
	assert.Equal(t, 0, d.NumVertices())
	assert.Empty(t, d.Edges().Collect())
	assert.Len(t, d.Seeds(), 1, "seeds survive clearing")
}

func TestEdgeIterator(t *testing.T) {
	d := New()
	insertPoints(t, d, 0, 0, 4, 0)
	iter := d.Edges()
	first := iter.Collect()
	require.Len(t, first, 1)
	_, ok := iter.Next()
	assert.False(t, ok, "exhausted")

	iter.Reset()
	assert.Equal(t, signatures(d, first), signatures(d, iter.Collect()), "restartable")

	insertPoints(t, d, 0, 4)
	iter.Reset()
	assert.Len(t, iter.Collect(), 3, "reset picks up changes")

	iter.Reset()
	count := 0
	for range iter.MakeChan() {
		count++
	}
	assert.Equal(t, 3, count)
}

func TestClear(t *testing.T) {
	d := New()
	insertPoints(t, d, 0, 0, 4, 0)
	_, err := d.InsertSegment(kernel.Pt(0, 0), kernel.Pt(4, 0))
	require.NoError(t, err)
	d.Clear()
	assert.True(t, d.IsEmpty())
	assert.Equal(t, 0, d.NumSegments())
	_, ok := d.Bounds()
	assert.False(t, ok)

	h, err := d.InsertPoint(kernel.Pt(4, 0))
	require.NoError(t, err)
	assert.Equal(t, Handle(0), h, "handles start over")
}

func TestSitesReplay(t *testing.T) {
	d := New()
	insertPoints(t, d, 3, 3, 0, 0)
	_, err := d.InsertSegment(kernel.Pt(-2, 5), kernel.Pt(6, 5))
	require.NoError(t, err)
	_, err = d.InsertPoint(kernel.Pt(2, 5))
	require.NoError(t, err)

	replay := New()
	for _, site := range d.Sites() {
		_, err := replay.InsertSite(site)
		require.NoError(t, err)
	}
	assert.Equal(t, d.NumVertices(), replay.NumVertices())
	assert.Equal(t, signatures(d, d.Edges().Collect()), signatures(replay, replay.Edges().Collect()))
}

func TestDebugOutput(t *testing.T) {
	d := New()
	insertPoints(t, d, 0, 0, 4, 0)
	assert.Contains(t, d.DebugString(), "point (4, 0)")

	path := filepath.Join(t.TempDir(), "diagram.png")
	require.NoError(t, d.DrawPNG(path, 10, true))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	assert.Error(t, New().DrawPNG(path, 10, false))
}

func TestDrawPNGLimitsCanvas(t *testing.T) {
	d := New()
	insertPoints(t, d, 0, 0, 5000, 5000)

	path := filepath.Join(t.TempDir(), "big.png")
	require.NoError(t, d.DrawPNG(path, 20, false))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, maxDrawSide+2*drawPadding)
	assert.LessOrEqual(t, cfg.Height, maxDrawSide+2*drawPadding)
	assert.Greater(t, cfg.Width, maxDrawSide/2)
}

func TestCoalesce(t *testing.T) {
	fan := []kernel.Polygon{
		{kernel.Pt(0, 0), kernel.Pt(6, 0), kernel.Pt(2, 2)},
		{kernel.Pt(6, 0), kernel.Pt(0, 6), kernel.Pt(2, 2)},
		{kernel.Pt(0, 6), kernel.Pt(0, 0), kernel.Pt(2, 2)},
	}
	assert.Equal(t, "[[(0, 0) (6, 0) (0, 6)]]", fmt.Sprint(coalesce(fan)))

	// An L shape with a separate square beside it: the L needs two pieces.
	pieces := []kernel.Polygon{
		{kernel.Pt(0, 0), kernel.Pt(2, 0), kernel.Pt(2, 1), kernel.Pt(0, 1)},
		{kernel.Pt(0, 1), kernel.Pt(1, 1), kernel.Pt(1, 2), kernel.Pt(0, 2)},
		{kernel.Pt(0, 2), kernel.Pt(1, 2), kernel.Pt(1, 3), kernel.Pt(0, 3)},
		{kernel.Pt(5, 5), kernel.Pt(6, 5), kernel.Pt(6, 6), kernel.Pt(5, 6)},
	}
	merged := coalesce(pieces)
	assert.Len(t, merged, 3)
	assert.Len(t, pieces, 4, "the input is left alone")
}

// Random sites exercise the conflict region and relinking well beyond the
// hand-made cases. Cells are merged after every insertion, so no two cells of
// one site may form a convex union.
func TestRandomPointsStayValid(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	d := New()
	for i := 0; i < 60; i++ {
		_, err := d.InsertPoint(kernel.Pt(rng.Int63n(1000), rng.Int63n(1000)))
		require.NoError(t, err)
	}
	assertValidDiagram(t, d)

	for _, h := range d.order {
		cells := d.cells[h]
		for i := range cells {
			for j := i + 1; j < len(cells); j++ {
				_, ok := kernel.Merge(cells[i], cells[j])
				assert.False(t, ok, "cells of %v can be merged", d.sites[h].Site)
			}
		}
	}
}
