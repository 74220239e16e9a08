package sitefile

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/osuushi/segvoronoi/internal/diagram"
	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/pkg/errors"
)

// SiteLister is the part of a diagram that saving needs.
type SiteLister interface {
	Sites() []diagram.Site
}

// WriteSites writes every site in placement order in the ".cin" format.
// Reading the output back with ReadSites rebuilds the same diagram.
func WriteSites(w io.Writer, d SiteLister) error {
	out := bufio.NewWriter(w)
	for _, site := range d.Sites() {
		var err error
		if site.Kind == diagram.SegmentSite {
			_, err = fmt.Fprintf(out, "s %s %s %s %s\n",
				kernel.FormatRat(site.A.X), kernel.FormatRat(site.A.Y),
				kernel.FormatRat(site.B.X), kernel.FormatRat(site.B.Y))
		} else {
			_, err = fmt.Fprintf(out, "p %s %s\n", kernel.FormatRat(site.A.X), kernel.FormatRat(site.A.Y))
		}
		if err != nil {
			return errors.Wrap(err, "write sites")
		}
	}
	return errors.Wrap(out.Flush(), "write sites")
}

// SaveSites writes the sites of d to path.
func SaveSites(path string, d SiteLister) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := WriteSites(f, d); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

// SaveConstraints would write the segment sites as a ".poly" or ".edg"
// constraint file. No constraint writer exists yet.
func SaveConstraints(path string, d SiteLister) error {
	return errors.Wrapf(ErrNotImplemented, "save constraints to %s", path)
}
