package imageset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fitsBlock is the FITS fixed record length
const fitsBlock = 2880

// writeFITS writes a minimal single-HDU 8-bit FITS image of the given
// dimensions, zero-filled
func writeFITS(t *testing.T, path string, width, height int) {
	t.Helper()

	card := func(keyword, value string) string {
		return fmt.Sprintf("%-8s= %20s%50s", keyword, value, "")
	}

	var header strings.Builder
	header.WriteString(card("SIMPLE", "T"))
	header.WriteString(card("BITPIX", "8"))
	header.WriteString(card("NAXIS", "2"))
	header.WriteString(card("NAXIS1", fmt.Sprintf("%d", width)))
	header.WriteString(card("NAXIS2", fmt.Sprintf("%d", height)))
	header.WriteString(fmt.Sprintf("%-80s", "END"))
	for header.Len()%fitsBlock != 0 {
		header.WriteString(" ")
	}

	data := make([]byte, ((width*height+fitsBlock-1)/fitsBlock)*fitsBlock)

	if err := os.WriteFile(path, append([]byte(header.String()), data...), 0644); err != nil {
		t.Fatalf("Failed to write FITS file: %v", err)
	}
}

// TestPathsSortedAndLive verifies that Paths returns sorted matches and
// re-globs on every call so new files show up
func TestPathsSortedAndLive(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"s2.fits", "s1.fits"} {
		writeFITS(t, filepath.Join(dir, name), 4, 4)
	}

	set := New(dir, "s*.fits")
	paths, err := set.Paths()
	if err != nil {
		t.Fatalf("Paths failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Expected 2 paths, got %d", len(paths))
	}
	if filepath.Base(paths[0]) != "s1.fits" || filepath.Base(paths[1]) != "s2.fits" {
		t.Errorf("Expected sorted order [s1.fits s2.fits], got %v", paths)
	}

	// A file added after construction must appear on the next call
	writeFITS(t, filepath.Join(dir, "s0.fits"), 4, 4)
	paths, err = set.Paths()
	if err != nil {
		t.Fatalf("Paths failed: %v", err)
	}
	if len(paths) != 3 || filepath.Base(paths[0]) != "s0.fits" {
		t.Errorf("Expected s0.fits first among 3 paths, got %v", paths)
	}
}

// TestDimensionsFromHeader verifies that the mosaic dimensions come from
// the first image's NAXIS cards and are cached
func TestDimensionsFromHeader(t *testing.T) {
	dir := t.TempDir()
	writeFITS(t, filepath.Join(dir, "s1.fits"), 256, 128)

	set := New(dir, "s*.fits")
	w, h, err := set.Dimensions()
	if err != nil {
		t.Fatalf("Dimensions failed: %v", err)
	}
	if w != 256 || h != 128 {
		t.Errorf("Expected 256x128, got %dx%d", w, h)
	}

	// Removing the file must not matter once dimensions are cached
	if err := os.Remove(filepath.Join(dir, "s1.fits")); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	w, h, err = set.Dimensions()
	if err != nil {
		t.Fatalf("Cached Dimensions failed: %v", err)
	}
	if w != 256 || h != 128 {
		t.Errorf("Expected cached 256x128, got %dx%d", w, h)
	}
}

// TestDimensionsEmptySet verifies the empty-set failure when no files match
func TestDimensionsEmptySet(t *testing.T) {
	set := New(t.TempDir(), "s*.fits")
	if _, _, err := set.Dimensions(); !errors.Is(err, ErrEmptySet) {
		t.Errorf("Expected ErrEmptySet, got %v", err)
	}
}

// TestDimensionsBadFile verifies that an unreadable first image is an error
func TestDimensionsBadFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "s1.fits"), []byte("not a fits file"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	set := New(dir, "s*.fits")
	if _, _, err := set.Dimensions(); err == nil {
		t.Error("Expected an error for a malformed FITS file")
	}
}
