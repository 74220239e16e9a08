package diagram

// This contains no actual tests. It is just a helper for testing diagram
// validity.

import (
	"math/big"
	"testing"

	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to check that a diagram is valid. The rules are:
// 1. Every placed site has a rank matching its position in placement order.
// 2. The cells tile the frame: their areas add up to the frame's area.
// 3. Every cell is a nondegenerate convex polygon.
// 4. At every sample point, the site found by brute force owns a cell
//    containing the sample.
// 5. Adjacency is symmetric and matches shared boundaries exactly.
func assertValidDiagram(t *testing.T, d *Diagram) {
	t.Helper()
	require.NotNil(t, d.frame)
	require.Len(t, d.order, len(d.sites), "every site is placed")

	total := new(big.Rat)
	for rank, h := range d.order {
		require.Equal(t, rank, d.sites[h].rank)
		for _, cell := range d.cells[h] {
			require.True(t, cell.IsConvex(), "cell %v of %v is not convex", cell, d.sites[h].Site)
			total.Add(total, cell.Area2())
		}
	}
	side := new(big.Rat).Add(d.frame, d.frame)
	expected := new(big.Rat).Mul(side, side)
	expected.Add(expected, expected)
	assert.Equal(t, 0, total.Cmp(expected), "cells cover %v of %v", total, expected)

	validateOwnersBySampling(t, d)

	for _, a := range d.order {
		for _, b := range d.order {
			if a == b {
				continue
			}
			_, ab := d.adjacency[a][b]
			_, ba := d.adjacency[b][a]
			assert.Equal(t, ab, ba, "adjacency of %v and %v is not symmetric", d.sites[a].Site, d.sites[b].Site)
			assert.Equal(t, d.touches(a, b), ab, "adjacency of %v and %v", d.sites[a].Site, d.sites[b].Site)
		}
	}

	if t.Failed() {
		t.Log(d.DebugString())
	}
}

func validateOwnersBySampling(t *testing.T, d *Diagram) {
	t.Helper()
	bounds, ok := d.Bounds()
	require.True(t, ok)

	// Pad the bounding box so the unbounded parts get sampled too.
	pad := big.NewRat(3, 1)
	minX := new(big.Rat).Sub(bounds.Min.X, pad)
	minY := new(big.Rat).Sub(bounds.Min.Y, pad)
	width := new(big.Rat).Sub(bounds.Max.X, minX)
	width.Add(width, pad)
	height := new(big.Rat).Sub(bounds.Max.Y, minY)
	height.Add(height, pad)

	const steps = 12
	for i := 0; i < steps; i++ {
		for j := 0; j < steps; j++ {
			// Odd offsets keep most samples off the bisectors.
			fx := new(big.Rat).Add(big.NewRat(int64(i), steps), big.NewRat(1, 3*steps))
			fy := new(big.Rat).Add(big.NewRat(int64(j), steps), big.NewRat(1, 7*steps))
			p := kernel.Point{
				X: fx.Mul(fx, width).Add(fx, minX),
				Y: fy.Mul(fy, height).Add(fy, minY),
			}

			owner := d.nearest(p)
			var containing []Handle
			for _, h := range d.order {
				for _, cell := range d.cells[h] {
					if cell.Contains(p) {
						containing = append(containing, h)
						break
					}
				}
			}
			assert.Contains(t, containing, owner, "nearest site to %v is %v", p, d.sites[owner].Site)
		}
	}
}
