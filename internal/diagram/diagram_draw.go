package diagram

import (
	"math"

	"github.com/fogleman/gg"
	"github.com/osuushi/segvoronoi/internal/dbg"
	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/pkg/errors"
)

// Padding around the view so that sites on the bounding box stay visible.
const drawPadding = 40

// maxDrawSide bounds the longer side of the drawing area in pixels. Larger
// views are drawn at a reduced scale.
const maxDrawSide = 4096

// DrawPNG writes a snapshot of the diagram: region fills, Voronoi edges,
// segment sites and point sites, framed on Bounds. This is a debugging aid,
// not a renderer.
func (d *Diagram) DrawPNG(path string, scale float64, labels bool) error {
	bounds, ok := d.Bounds()
	if !ok {
		return errors.New("nothing to draw in an empty diagram")
	}
	view := bounds.View()
	// Keep degenerate views (a single point, a horizontal segment) visible.
	view = view.ExpandedByMargin(math.Max(1, 0.1*math.Max(view.Size().X, view.Size().Y)))

	if longest := math.Max(view.Size().X, view.Size().Y); scale*longest > maxDrawSide {
		scale = maxDrawSide / longest
	}
	width := int(scale*view.Size().X) + drawPadding*2
	height := int(scale*view.Size().Y) + drawPadding*2
	c := gg.NewContext(width, height)
	c.SetRGB(1, 1, 1)
	c.DrawRectangle(0, 0, float64(width), float64(height))
	c.Fill()

	// Flip the context so the origin is at the bottom left
	c.Translate(0, float64(height))
	c.Scale(1, -1)
	c.Translate(drawPadding, drawPadding)
	c.Scale(scale, scale)
	c.Translate(-view.X.Lo, -view.Y.Lo)

	for _, h := range d.order {
		r, g, b := siteColor(h)
		c.SetRGBA(r, g, b, 0.25)
		for _, cell := range d.cells[h] {
			tracePolygon(c, cell)
			c.Fill()
		}
	}

	c.SetLineWidth(1)
	for _, edge := range d.Edges().Collect() {
		x0, y0 := edge.From.Float64()
		x1, y1 := edge.To.Float64()
		c.MoveTo(x0, y0)
		c.LineTo(x1, y1)
		if edge.Kind == SegmentEdge {
			c.SetRGB(0, 0, 1)
			c.SetLineWidth(3)
		} else {
			c.SetRGB(0, 0, 0)
			c.SetLineWidth(1)
		}
		c.Stroke()
	}

	c.SetRGB(1, 0, 0)
	for _, h := range d.order {
		s := d.sites[h]
		if s.Kind != PointSite {
			continue
		}
		x, y := s.A.Float64()
		c.DrawCircle(x, y, 3/scale)
		c.Fill()
		if labels {
			drawLabel(c, dbg.Name(s), x, y)
		}
	}

	return errors.Wrapf(c.SavePNG(path), "save %s", path)
}

func tracePolygon(c *gg.Context, poly kernel.Polygon) {
	for i, p := range poly {
		x, y := p.Float64()
		if i == 0 {
			c.MoveTo(x, y)
		} else {
			c.LineTo(x, y)
		}
	}
	c.ClosePath()
}

// We have to go back to identity to draw the text, so the label position is
// converted to native coordinates first.
func drawLabel(c *gg.Context, text string, x, y float64) {
	x, y = c.TransformPoint(x, y)
	c.Push()
	c.Identity()
	c.SetRGB(0.3, 0.3, 0.3)
	c.DrawStringAnchored(text, x+6, y-6, 0, 0)
	c.Pop()
}

// siteColor spreads hues by golden ratio steps so that neighbors differ.
func siteColor(h Handle) (float64, float64, float64) {
	hue := math.Mod(float64(h)*0.618033988749895, 1)
	return hsvToRGB(hue, 0.6, 0.95)
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
