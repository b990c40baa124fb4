// Package imageset resolves a directory and glob pattern into the ordered
// collection of source images making up one mosaic, and exposes the full
// pixel dimensions of the mosaic read from the first image's FITS header.
package imageset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/astrogo/fitsio"
)

// ErrEmptySet indicates that no files matched the glob pattern when the
// mosaic dimensions were requested
var ErrEmptySet = errors.New("no images match the pattern")

// Set is an ordered collection of same-sized FITS images forming one mosaic.
// Dimensions are read lazily from the first image and cached; every image
// in the set is assumed to share them. That assumption is not re-verified
// per image.
type Set struct {
	// dir is the directory containing the images
	dir string

	// pattern is the glob matched against dir
	pattern string

	// width, height are the cached mosaic dimensions in pixels
	width  int
	height int

	// haveDims records whether the dimensions were read already
	haveDims bool
}

// New creates an image set over the given directory and glob pattern
func New(dir, pattern string) *Set {
	return &Set{
		dir:     dir,
		pattern: pattern,
	}
}

// Paths returns the sorted file paths currently matching the set's pattern.
// The directory is re-globbed on every call so the result always reflects
// current directory contents.
func (s *Set) Paths() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, s.pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", s.pattern, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Dimensions returns the (width, height) of the mosaic in pixels, read from
// the NAXIS header cards of the first matching image on the first call and
// cached for the lifetime of the set
func (s *Set) Dimensions() (int, int, error) {
	if s.haveDims {
		return s.width, s.height, nil
	}

	paths, err := s.Paths()
	if err != nil {
		return 0, 0, err
	}
	if len(paths) == 0 {
		return 0, 0, fmt.Errorf("%w: %s in %s", ErrEmptySet, s.pattern, s.dir)
	}

	w, h, err := readDimensions(paths[0])
	if err != nil {
		return 0, 0, err
	}

	s.width = w
	s.height = h
	s.haveDims = true
	return s.width, s.height, nil
}

// readDimensions reads the image axes from the primary HDU of a FITS file
func readDimensions(path string) (int, int, error) {
	r, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read FITS %s: %w", path, err)
	}
	defer f.Close()

	axes := f.HDU(0).Header().Axes()
	if len(axes) < 2 {
		return 0, 0, fmt.Errorf("%s: expected 2 image axes, found %d", path, len(axes))
	}

	return axes[0], axes[1], nil
}
