package sitefile

import (
	"io"
	"strings"
	"unicode"

	"github.com/JoshVarga/svgparser"
	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/pkg/errors"
)

// ReadSVG loads every <polygon> element as a closed polygon. This is not a
// full (or even correct) svg reader: transforms, paths and units are ignored.
// Note that svg coordinates grow downward, so shapes come out mirrored.
func (l *Loader) ReadSVG(r io.Reader) (Stats, error) {
	var stats Stats
	root, err := svgparser.Parse(r, false)
	if err != nil {
		return stats, errors.Wrapf(ErrMalformed, "svg: %v", err)
	}
	for i, el := range root.FindAll("polygon") {
		points, err := parseSVGPoints(el.Attributes["points"])
		if err != nil {
			return stats, errors.Wrapf(err, "polygon %d", i)
		}
		if len(points) == 0 {
			continue
		}
		if err := l.insertPolygon(points, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// parseSVGPoints reads "x,y x,y ..." lists. Commas and whitespace are
// interchangeable separators.
func parseSVGPoints(attr string) ([]kernel.Point, error) {
	fields := strings.FieldsFunc(attr, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields)%2 != 0 {
		return nil, errors.Wrapf(ErrMalformed, "odd number of coordinates in %q", attr)
	}
	points := make([]kernel.Point, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		p, err := kernel.ParsePoint(fields[i], fields[i+1])
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "%v", err)
		}
		points = append(points, p)
	}
	return points, nil
}
