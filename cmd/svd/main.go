package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/osuushi/segvoronoi/internal/app"
	"github.com/osuushi/segvoronoi/internal/config"
	"github.com/osuushi/segvoronoi/internal/dbg"
	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/osuushi/segvoronoi/internal/sitefile"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"
)

// svd builds segment Voronoi diagrams from site files or from polylines typed
// on stdin, and reports on them.
var (
	cli        = kingpin.New("svd", "Segment Voronoi diagrams under the L-infinity metric.")
	configPath = cli.Flag("config", "Settings file (YAML).").String()
	verbose    = cli.Flag("verbose", "Log progress and dump the diagram.").Short('v').Bool()
	noColor    = cli.Flag("no-color", "Disable colored output.").Bool()

	showCmd  = cli.Command("show", "Open a site file and summarize its diagram.").Default()
	showFile = showCmd.Arg("file", "Site file ("+strings.Join(sitefile.Extensions(), ", ")+").").String()
	showDump = showCmd.Flag("dump", "Print the edges: none, text or yaml.").Enum(config.DumpNone, config.DumpText, config.DumpYAML)
	showSeed = showCmd.Flag("seed", "Leave the region containing x,y out of the edges. Repeatable.").Strings()

	drawCmd    = cli.Command("draw", "Write a PNG snapshot of a diagram.")
	drawFile   = drawCmd.Arg("file", "Site file.").Required().String()
	drawPNG    = drawCmd.Flag("png", "Output image.").Required().String()
	drawImgcat = drawCmd.Flag("imgcat", "Also show the image in the terminal.").Bool()

	inputCmd  = cli.Command("input", "Read polylines from stdin, one per line as x y x y ...")
	inputSave = inputCmd.Flag("save", "Save the sites to a .cin file when done.").String()

	constraintsCmd  = cli.Command("save-constraints", "Save the segment sites as constraints.")
	constraintsFile = constraintsCmd.Arg("file", "Output file.").Required().String()
)

func main() {
	cli.HelpFlag.Short('h')
	command := kingpin.MustParse(cli.Parse(os.Args[1:]))

	cfg, cfgPath, err := loadConfig()
	cli.FatalIfError(err, "")
	color := aurora.NewAurora(!(*noColor || cfg.NoColor))

	logger := zap.NewNop()
	if *verbose {
		logger, err = zap.NewDevelopment()
		cli.FatalIfError(err, "logger")
	}
	defer logger.Sync()

	switch command {
	case showCmd.FullCommand():
		a := app.New(cfg, logger)
		err = show(a, color)
	case drawCmd.FullCommand():
		a := app.New(cfg, logger)
		err = draw(a, color)
	case inputCmd.FullCommand():
		a := app.New(cfg, logger)
		a.Echo = os.Stdout
		err = input(a, os.Stdin, color)
	case constraintsCmd.FullCommand():
		a := app.New(cfg, logger)
		if err = a.SaveConstraints(*constraintsFile); errors.Cause(err) == sitefile.ErrNotImplemented {
			fmt.Println(color.Yellow(err.Error()))
			err = nil
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red(err.Error()))
		logger.Sync()
		os.Exit(1)
	}

	// Settings are only written back to a file that already exists.
	if cfgPath != "" {
		if err := cfg.Save(cfgPath); err != nil {
			logger.Warn("saving settings", zap.String("path", cfgPath), zap.Error(err))
		}
	}
}

func loadConfig() (*config.Config, string, error) {
	if *configPath != "" {
		return config.LoadFromPath(*configPath)
	}
	return config.Load()
}

// show never fails on a file it cannot load: the problem is reported and the
// diagram is summarized with whatever was loaded.
func show(a *app.App, color aurora.Aurora) error {
	stats, err := a.Open(*showFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Yellow(err.Error()))
	}
	if stats.Skipped > 0 {
		fmt.Fprintln(os.Stderr, color.Yellow(fmt.Sprintf("skipped %d records", stats.Skipped)))
	}
	if err := a.ApplySeeds(*showSeed...); err != nil {
		return err
	}

	fmt.Println(color.Bold(a.Summary().String()))
	if *verbose {
		fmt.Fprintln(os.Stderr, dbg.Dump(stats))
		fmt.Fprintln(os.Stderr, a.Diagram.DebugString())
	}

	format := a.Config.Dump
	if *showDump != "" {
		format = *showDump
	}
	return a.DumpEdges(os.Stdout, format)
}

func draw(a *app.App, color aurora.Aurora) error {
	if _, err := a.Open(*drawFile); err != nil {
		fmt.Fprintln(os.Stderr, color.Yellow(err.Error()))
	}
	if err := a.ApplySeeds(); err != nil {
		return err
	}
	if err := a.Diagram.DrawPNG(*drawPNG, a.Config.Scale, *verbose); err != nil {
		return err
	}
	fmt.Println(color.Green("wrote " + *drawPNG))
	if *drawImgcat {
		dbg.ShowPNG(*drawPNG)
	}
	return nil
}

// input inserts one polyline per line of r. A line with a single point inserts
// a point site. Bad lines are reported and skipped.
func input(a *app.App, r io.Reader, color aurora.Aurora) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		points, err := parsePolyline(fields)
		if err == nil {
			err = a.Input(points)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, color.Red(fmt.Sprintf("line %d: %v", line, err)))
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read stdin")
	}

	fmt.Println(color.Bold(a.Summary().String()))
	if *inputSave != "" {
		return a.SaveSites(*inputSave)
	}
	return nil
}

func parsePolyline(fields []string) ([]kernel.Point, error) {
	if len(fields)%2 != 0 {
		return nil, errors.Errorf("odd number of coordinates")
	}
	points := make([]kernel.Point, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		p, err := kernel.ParsePoint(fields[i], fields[i+1])
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}
