package models

import (
	"fmt"
)

// Tile is a rectangular sub-region of the full mosaic's pixel grid,
// expressed in 1-based inclusive full-mosaic coordinates (the same
// convention the viewer's cutout syntax uses). Tiles are created once
// by the grid and never mutated afterwards.
type Tile struct {
	// XMin, XMax bound the tile along the x axis, inclusive
	XMin, XMax int

	// YMin, YMax bound the tile along the y axis, inclusive
	YMin, YMax int
}

// String renders the tile in the viewer's cutout syntax, e.g. "[1:128,129:256]".
func (t *Tile) String() string {
	if t == nil {
		return "[*,*]"
	}
	return fmt.Sprintf("[%d:%d,%d:%d]", t.XMin, t.XMax, t.YMin, t.YMax)
}

// MarkedPoint is one marked object position in full-mosaic pixel space.
// Stored coordinates are always global regardless of which tile was
// active when the mark was made.
type MarkedPoint struct {
	X, Y float64
}

// Event is the viewer's report of one user key press: the key identifier
// plus the cursor position at event time, in viewer-local (tile-local)
// image coordinates.
type Event struct {
	// Key is the viewer's name for the pressed key, e.g. "n" or "question"
	Key string

	// X, Y is the cursor position when the key was pressed
	X, Y float64
}

// FrameBinding records what a live viewer frame is currently showing:
// which source image, and which tile the displayed cutout was built from.
// A nil Tile means the frame shows the full uncropped image.
type FrameBinding struct {
	// Path is the source image the frame was loaded from
	Path string

	// Tile is the cutout used for the load, nil for a full-image load
	Tile *Tile
}
