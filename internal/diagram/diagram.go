// Package diagram maintains the Voronoi diagram of point and segment sites
// under the L∞ metric, with exact rational arithmetic.
//
// Every site owns a set of convex cells. Together the cells tile a square
// frame centered on the origin, and each cell holds exactly the positions that
// are nearest to its owner. "Nearest" compares the L∞ distance first, the L1
// distance second, and the placement rank last, so that distance ties between
// sites always resolve the same way and an equidistant newcomer never steals
// from a site placed before it.
package diagram

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/osuushi/segvoronoi/internal/dbg"
	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Handle identifies a site. Handles are stable for the lifetime of a diagram,
// up to Clear.
type Handle int

const NoHandle Handle = -1

type SiteKind int

const (
	PointSite SiteKind = iota
	SegmentSite
)

func (k SiteKind) String() string {
	if k == SegmentSite {
		return "segment"
	}
	return "point"
}

var (
	ErrDegenerateSegment   = errors.New("segment endpoints are identical")
	ErrIntersectingSegment = errors.New("segment crosses an existing segment")
	ErrInvalidHandle       = errors.New("invalid handle")
)

// Site describes a registered site. For a point, A and B are the same point
// and Ends holds NoHandle twice. For a segment, Ends are the handles of the
// point sites at A and B.
type Site struct {
	Handle Handle
	Kind   SiteKind
	A, B   kernel.Point
	Ends   [2]Handle
}

func (s Site) String() string {
	if s.Kind == SegmentSite {
		return fmt.Sprintf("segment %v-%v", s.A, s.B)
	}
	return fmt.Sprintf("point %v", s.A)
}

type siteState struct {
	Site
	linf, l1 []kernel.Linear
	// Placement order within the current build, or -1.
	rank int
}

func newSiteState(site Site) *siteState {
	return &siteState{
		Site: site,
		linf: kernel.DistanceTerms(site.A, site.B, kernel.Linf),
		l1:   kernel.DistanceTerms(site.A, site.B, kernel.L1),
		rank: -1,
	}
}

type Options struct {
	// Log receives diagnostics about skipped input, splits and rebuilds. Nil
	// discards them.
	Log *zap.Logger
}

type Diagram struct {
	sites    []*siteState
	points   map[string]Handle
	segments map[[2]Handle]Handle

	// Placed sites by rank.
	order     []Handle
	cells     map[Handle][]kernel.Polygon
	adjacency map[Handle]map[Handle]struct{}
	// Half-size of the frame square; nil while empty.
	frame *big.Rat
	last  Handle

	seeds   []kernel.Point
	version int
	log     *zap.Logger
}

func New() *Diagram {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) *Diagram {
	d := &Diagram{log: opts.Log}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	d.reset()
	return d
}

func (d *Diagram) reset() {
	d.sites = nil
	d.points = map[string]Handle{}
	d.segments = map[[2]Handle]Handle{}
	d.resetCells()
	d.frame = nil
}

func (d *Diagram) resetCells() {
	d.order = nil
	d.cells = map[Handle][]kernel.Polygon{}
	d.adjacency = map[Handle]map[Handle]struct{}{}
	d.last = NoHandle
	for _, s := range d.sites {
		s.rank = -1
	}
}

// Clear removes every site. Seeds are kept.
func (d *Diagram) Clear() {
	d.reset()
	d.version++
}

func (d *Diagram) valid(h Handle) bool {
	return h >= 0 && int(h) < len(d.sites)
}

func (d *Diagram) placed(h Handle) bool {
	return d.valid(h) && d.sites[h].rank >= 0
}

// Site returns the description of h.
func (d *Diagram) Site(h Handle) (Site, error) {
	if !d.valid(h) {
		return Site{}, errors.Wrapf(ErrInvalidHandle, "%d", h)
	}
	return d.sites[h].Site, nil
}

// Sites lists every site in placement order. Endpoints always precede the
// segments that use them, so replaying the list rebuilds the same diagram.
func (d *Diagram) Sites() []Site {
	result := make([]Site, 0, len(d.order))
	for _, h := range d.order {
		result = append(result, d.sites[h].Site)
	}
	return result
}

// NumVertices counts the sites of both kinds.
func (d *Diagram) NumVertices() int {
	return len(d.sites)
}

func (d *Diagram) NumSegments() int {
	return len(d.segments)
}

func (d *Diagram) NumPoints() int {
	return len(d.points)
}

func (d *Diagram) IsEmpty() bool {
	return len(d.sites) == 0
}

// Frame is the half-size of the square the cells tile, or nil when empty.
func (d *Diagram) Frame() *big.Rat {
	if d.frame == nil {
		return nil
	}
	return new(big.Rat).Set(d.frame)
}

// Cells returns the convex pieces of the region of h.
func (d *Diagram) Cells(h Handle) []kernel.Polygon {
	return d.cells[h]
}

// Version changes whenever the diagram does.
func (d *Diagram) Version() int {
	return d.version
}

// DebugString lists every site with a readable name, its rank, cells and
// neighbors.
func (d *Diagram) DebugString() string {
	var b strings.Builder
	for _, h := range d.order {
		s := d.sites[h]
		neighbors := d.Neighbors(h)
		names := make([]string, len(neighbors))
		for i, n := range neighbors {
			names[i] = dbg.Name(d.sites[n])
		}
		sort.Strings(names)
		fmt.Fprintf(&b, "%s #%d %v\n", aurora.Cyan(dbg.Name(s)), s.rank, s.Site)
		for _, cell := range d.cells[h] {
			fmt.Fprintf(&b, "    %v\n", cell)
		}
		fmt.Fprintf(&b, "    %s %s\n", aurora.Yellow("neighbors:"), strings.Join(names, ", "))
	}
	return b.String()
}
