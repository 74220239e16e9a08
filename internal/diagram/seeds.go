package diagram

import "github.com/osuushi/segvoronoi/internal/kernel"

// Seeds mark regions to leave out of Edges, such as the holes of a polygon.
// They are not sites: they never change the subdivision, and they survive
// Clear.

func (d *Diagram) SetSeeds(seeds []kernel.Point) {
	d.seeds = append([]kernel.Point{}, seeds...)
	d.version++
}

func (d *Diagram) AddSeed(p kernel.Point) {
	d.seeds = append(d.seeds, p)
	d.version++
}

func (d *Diagram) Seeds() []kernel.Point {
	return append([]kernel.Point{}, d.seeds...)
}

func (d *Diagram) seededSites() map[Handle]bool {
	result := map[Handle]bool{}
	for _, seed := range d.seeds {
		if h, ok := d.Locate(seed); ok {
			result[h] = true
		}
	}
	return result
}
