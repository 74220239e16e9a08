// Segment Voronoi diagrams under the L-infinity metric, in exact arithmetic.
//
// Sites are points and non-crossing line segments. The plane is divided into
// the regions closest to each site, measuring with the L-infinity distance and
// breaking ties with the L1 distance. Coordinates are rationals, so "0.1" is
// exactly one tenth and nothing is ever rounded.
package segvoronoi

import (
	"github.com/osuushi/segvoronoi/internal/diagram"
	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/osuushi/segvoronoi/internal/sitefile"
)

type Point = kernel.Point
type Rect = kernel.Rect
type Diagram = diagram.Diagram
type Handle = diagram.Handle
type Site = diagram.Site
type Edge = diagram.Edge

var (
	Pt         = kernel.Pt
	ParsePoint = kernel.ParsePoint
)

func New() *Diagram {
	return diagram.New()
}

// Open adds the sites in a site file to d, choosing the format by extension.
func Open(d *Diagram, path string) (sitefile.Stats, error) {
	return sitefile.NewLoader(d, nil).Open(path)
}

// Build makes a diagram from polylines. A polyline with one point is a point
// site; longer ones become chains of segments. Segments crossing earlier ones
// are left out.
func Build(polylines ...[]Point) (result *Diagram, err error) {
	defer func() {
		if recoveredErr := diagram.HandlePanicRecover(recover()); recoveredErr != nil {
			result = nil
			err = recoveredErr
		}
	}()
	d := diagram.New()
	for _, polyline := range polylines {
		if _, err := d.InsertPolyline(polyline); err != nil {
			return nil, err
		}
	}
	return d, nil
}
