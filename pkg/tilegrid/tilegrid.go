// Package tilegrid partitions the full mosaic into a deterministic ordered
// sequence of fixed-size tiles and tracks the user's current position in
// that sequence.
package tilegrid

import (
	"blinkstack/internal/models"
)

// Grid is the ordered sequence of tiles covering the mosaic, plus a single
// mutable cursor. Tiles are generated once at construction and never change;
// only the cursor moves.
type Grid struct {
	tiles []models.Tile
	index int
}

// New builds the tile grid for a width x height mosaic with the given tile
// edge length. Both axes are strided independently from 1 in steps of edge,
// x outer and y inner, so tiles walk down each column before moving right.
// Trailing tiles deliberately run past the true extent when the edge does
// not divide the mosaic evenly; the viewer clips the cutout on load.
func New(width, height, edge int) *Grid {
	g := &Grid{}
	for x := 1; x <= width; x += edge {
		for y := 1; y <= height; y += edge {
			g.tiles = append(g.tiles, models.Tile{
				XMin: x,
				XMax: x + edge - 1,
				YMin: y,
				YMax: y + edge - 1,
			})
		}
	}
	return g
}

// Len returns the number of tiles in the grid
func (g *Grid) Len() int {
	return len(g.tiles)
}

// Index returns the position of the current tile in the sequence
func (g *Grid) Index() int {
	return g.index
}

// Current returns the tile at the cursor, or nil for an empty grid
func (g *Grid) Current() *models.Tile {
	if len(g.tiles) == 0 {
		return nil
	}
	return &g.tiles[g.index]
}

// Advance moves the cursor to the next tile and returns it. Advancing from
// the last tile is a no-op, not an error.
func (g *Grid) Advance() *models.Tile {
	if g.index < len(g.tiles)-1 {
		g.index++
	}
	return g.Current()
}

// Retreat moves the cursor to the previous tile and returns it. Retreating
// from the first tile is a no-op, not an error.
func (g *Grid) Retreat() *models.Tile {
	if g.index > 0 {
		g.index--
	}
	return g.Current()
}
