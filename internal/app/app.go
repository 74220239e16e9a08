// Package app keeps the state a diagram session works on: the diagram, the
// settings, the current file, and the handlers run by the command line.
package app

import (
	"fmt"
	"io"
	"time"

	"github.com/osuushi/segvoronoi/internal/config"
	"github.com/osuushi/segvoronoi/internal/diagram"
	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/osuushi/segvoronoi/internal/sitefile"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type App struct {
	Diagram *diagram.Diagram
	Config  *config.Config
	Log     *zap.Logger
	// Echo receives one "p x y" or "s x1 y1 x2 y2" line per site added by
	// Input, when set.
	Echo io.Writer
	// File is the last file opened successfully.
	File string

	loader *sitefile.Loader
}

// New returns an application on an empty diagram. Nil arguments get the
// default settings and a logger that discards everything.
func New(cfg *config.Config, logger *zap.Logger) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := diagram.NewWithOptions(diagram.Options{Log: logger})
	return &App{
		Diagram: d,
		Config:  cfg,
		Log:     logger,
		loader:  sitefile.NewLoader(d, logger),
	}
}

// Open loads path into the diagram and records it as a recent file. Loading
// adds to whatever the diagram already holds. A malformed file still counts as
// opened, since its first records were loaded.
func (a *App) Open(path string) (sitefile.Stats, error) {
	if path == "" {
		return sitefile.Stats{}, nil
	}
	start := time.Now()
	stats, err := a.loader.Open(path)
	a.Log.Info("loaded file",
		zap.String("path", path),
		zap.Duration("took", time.Since(start)),
		zap.Int("points", stats.Points),
		zap.Int("segments", stats.Segments),
		zap.Int("skipped", stats.Skipped),
		zap.Error(err))
	if err != nil && errors.Cause(err) != sitefile.ErrMalformed {
		return stats, err
	}
	a.File = path
	a.Config.AddRecent(path)
	return stats, err
}

// Input inserts a drawn polyline. A single point becomes a point site. Every
// site added is echoed.
func (a *App) Input(points []kernel.Point) error {
	handles, err := a.Diagram.InsertPolyline(points)
	if a.Echo == nil {
		return err
	}
	for _, h := range handles {
		site, siteErr := a.Diagram.Site(h)
		if siteErr != nil {
			return siteErr
		}
		if _, werr := fmt.Fprintln(a.Echo, echoLine(site)); werr != nil {
			return errors.Wrap(werr, "echo")
		}
	}
	return err
}

func echoLine(site diagram.Site) string {
	if site.Kind == diagram.SegmentSite {
		return fmt.Sprintf("s %s %s %s %s",
			kernel.FormatRat(site.A.X), kernel.FormatRat(site.A.Y),
			kernel.FormatRat(site.B.X), kernel.FormatRat(site.B.Y))
	}
	return fmt.Sprintf("p %s %s", kernel.FormatRat(site.A.X), kernel.FormatRat(site.A.Y))
}

// Clear empties the diagram and forgets the current file.
func (a *App) Clear() {
	a.Diagram.Clear()
	a.File = ""
}

// Recenter returns the rectangle a view should fit, or false when there is
// nothing to show.
func (a *App) Recenter() (kernel.Rect, bool) {
	return a.Diagram.Bounds()
}

// ApplySeeds installs the seeds from the settings and any extra ones.
func (a *App) ApplySeeds(extra ...string) error {
	seeds, err := a.Config.SeedPoints()
	if err != nil {
		return err
	}
	for _, s := range extra {
		p, err := config.ParsePoint(s)
		if err != nil {
			return errors.Wrapf(err, "seed %q", s)
		}
		seeds = append(seeds, p)
	}
	a.Diagram.SetSeeds(seeds)
	return nil
}

func (a *App) SaveSites(path string) error {
	return sitefile.SaveSites(path, a.Diagram)
}

func (a *App) SaveConstraints(path string) error {
	return sitefile.SaveConstraints(path, a.Diagram)
}

// Summary describes the diagram in a few numbers.
type Summary struct {
	Points          int    `yaml:"points"`
	Segments        int    `yaml:"segments"`
	Edges           int    `yaml:"edges"`
	VoronoiVertices int    `yaml:"voronoi_vertices"`
	Bounds          string `yaml:"bounds,omitempty"`
}

func (a *App) Summary() Summary {
	s := Summary{
		Points:          a.Diagram.NumPoints(),
		Segments:        a.Diagram.NumSegments(),
		Edges:           len(a.Diagram.Edges().Collect()),
		VoronoiVertices: len(a.Diagram.VoronoiVertices()),
	}
	if bounds, ok := a.Diagram.Bounds(); ok {
		s.Bounds = bounds.String()
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d points, %d segments, %d edges, %d Voronoi vertices, bounds %s",
		s.Points, s.Segments, s.Edges, s.VoronoiVertices, s.Bounds)
}

type edgeRecord struct {
	Kind      string   `yaml:"kind"`
	From      []string `yaml:"from,flow"`
	To        []string `yaml:"to,flow"`
	Sites     []int    `yaml:"sites,flow"`
	Unbounded bool     `yaml:"unbounded,omitempty"`
}

// DumpEdges prints the edges outside seeded regions in the format named by
// the settings.
func (a *App) DumpEdges(w io.Writer, format string) error {
	edges := a.Diagram.Edges().Collect()
	switch format {
	case config.DumpNone:
		return nil
	case config.DumpText:
		for _, edge := range edges {
			if _, err := fmt.Fprintln(w, edge); err != nil {
				return errors.Wrap(err, "dump edges")
			}
		}
		return nil
	case config.DumpYAML:
		records := make([]edgeRecord, len(edges))
		for i, edge := range edges {
			records[i] = edgeRecord{
				Kind:      edge.Kind.String(),
				From:      []string{kernel.FormatRat(edge.From.X), kernel.FormatRat(edge.From.Y)},
				To:        []string{kernel.FormatRat(edge.To.X), kernel.FormatRat(edge.To.Y)},
				Unbounded: edge.Unbounded,
			}
			for _, h := range edge.Sites {
				if h != diagram.NoHandle {
					records[i].Sites = append(records[i].Sites, int(h))
				}
			}
		}
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(records); err != nil {
			return errors.Wrap(err, "dump edges")
		}
		return errors.Wrap(enc.Close(), "dump edges")
	}
	return errors.Errorf("unknown dump format %q", format)
}
