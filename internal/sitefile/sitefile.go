// Package sitefile reads and writes the flat text formats that feed sites to
// a diagram.
//
// Every text format is a stream of whitespace separated tokens. Numbers are
// parsed exactly, so "0.1" is one tenth and "1/3" is one third.
package sitefile

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/osuushi/segvoronoi/internal/diagram"
	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrMalformed      = errors.New("malformed input")
	ErrUnknownFormat  = errors.New("unknown file format")
	ErrNotImplemented = errors.New("not implemented")
)

// Inserter is the part of a diagram that loading needs.
type Inserter interface {
	InsertPoint(p kernel.Point) (diagram.Handle, error)
	InsertPointNear(p kernel.Point, hint diagram.Handle) (diagram.Handle, error)
	InsertSegment(p, q kernel.Point) (diagram.Handle, error)
	InsertSegmentBetween(a, b diagram.Handle) (diagram.Handle, error)
}

// Stats counts what a load read.
type Stats struct {
	Points   int
	Segments int
	// Records that could not be inserted, such as zero-length segments.
	Skipped int
}

type Loader struct {
	Diagram Inserter
	Log     *zap.Logger
}

// NewLoader returns a loader inserting into d. A nil logger discards
// diagnostics.
func NewLoader(d Inserter, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{Diagram: d, Log: logger}
}

type readFunc func(l *Loader, r io.Reader) (Stats, error)

var readers = map[string]readFunc{
	".plg": (*Loader).ReadPolygons,
	".edg": (*Loader).ReadEdges,
	".pts": (*Loader).ReadPointLists,
	".pin": (*Loader).ReadPoints,
	".cin": (*Loader).ReadSites,
	".svg": (*Loader).ReadSVG,
}

// Extensions lists the formats Open understands.
func Extensions() []string {
	return []string{".plg", ".edg", ".pts", ".pin", ".cin", ".svg"}
}

// Known reports whether Open can read path.
func Known(path string) bool {
	_, ok := readers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Open loads path, choosing the reader by extension. An empty path does
// nothing. Reading stops at the first malformed record; whatever was inserted
// before it stays in the diagram.
func (l *Loader) Open(path string) (Stats, error) {
	if path == "" {
		return Stats{}, nil
	}
	read, ok := readers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return Stats{}, errors.Wrapf(ErrUnknownFormat, "%s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	stats, err := read(l, f)
	return stats, errors.Wrapf(err, "%s", path)
}

func (l *Loader) logger() *zap.Logger {
	if l.Log == nil {
		return zap.NewNop()
	}
	return l.Log
}

// skip reports whether err is an insertion problem to note and move past.
func (l *Loader) skip(err error, stats *Stats, what string) bool {
	switch errors.Cause(err) {
	case diagram.ErrDegenerateSegment, diagram.ErrIntersectingSegment:
		l.logger().Info("skipped "+what, zap.Error(err))
		stats.Skipped++
		return true
	}
	return false
}

// tokens reads whitespace separated words and keeps track of their position
// for error messages.
type tokens struct {
	scanner *bufio.Scanner
	count   int
}

func newTokens(r io.Reader) *tokens {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	return &tokens{scanner: scanner}
}

// next returns io.EOF at the end of the input.
func (t *tokens) next() (string, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	t.count++
	return t.scanner.Text(), nil
}

func (t *tokens) malformed(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformed, "token %d: "+format, append([]interface{}{t.count}, args...)...)
}

// integer reads a nonnegative integer. io.EOF is returned only when the input
// ends before the integer starts.
func (t *tokens) integer() (int, error) {
	word, err := t.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(word)
	if err != nil || n < 0 {
		return 0, t.malformed("expected a count, got %q", word)
	}
	return n, nil
}

// point reads two numbers. io.EOF is returned only when the input ends before
// the point starts.
func (t *tokens) point() (kernel.Point, error) {
	xs, err := t.next()
	if err != nil {
		return kernel.Point{}, err
	}
	ys, err := t.next()
	if err == io.EOF {
		return kernel.Point{}, t.malformed("input ends inside a point")
	}
	if err != nil {
		return kernel.Point{}, err
	}
	p, err := kernel.ParsePoint(xs, ys)
	if err != nil {
		return kernel.Point{}, t.malformed("%v", err)
	}
	return p, nil
}

// mustPoint is point for positions where the input may not end.
func (t *tokens) mustPoint() (kernel.Point, error) {
	p, err := t.point()
	if err == io.EOF {
		return p, t.malformed("input ends inside a record")
	}
	return p, err
}
