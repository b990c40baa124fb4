// Package regions persists marked-object coordinates per source image as
// sidecar text files, and converts between tile-local and full-mosaic pixel
// coordinates. Sidecar files always hold full-mosaic coordinates, one point
// per line, so the same marks survive tile navigation and frame reloads.
package regions

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"blinkstack/internal/models"
)

// Store reads and writes region sidecar files. Each source image gets one
// sidecar named by replacing the image's extension with the store's
// extension. Saves fully rewrite the sidecar; there is no append path.
type Store struct {
	// extension is the sidecar extension, including the leading dot
	extension string
}

// NewStore creates a store using the given sidecar extension, e.g. ".coo"
func NewStore(extension string) *Store {
	return &Store{extension: extension}
}

// SidecarPath returns the sidecar path for an image: the image path with
// its extension replaced by the store's extension
func (s *Store) SidecarPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + s.extension
}

// LocalToGlobal converts a tile-local position to full-mosaic coordinates.
// A nil tile means the frame shows the full uncropped image, so local and
// global coordinates coincide.
func LocalToGlobal(x, y float64, tile *models.Tile) (float64, float64) {
	if tile == nil {
		return x, y
	}
	return x + float64(tile.XMin) - 1, y + float64(tile.YMin) - 1
}

// GlobalToLocal converts a full-mosaic position back to tile-local
// coordinates. It is the exact inverse of LocalToGlobal for any tile.
func GlobalToLocal(x, y float64, tile *models.Tile) (float64, float64) {
	if tile == nil {
		return x, y
	}
	return x - float64(tile.XMin) + 1, y - float64(tile.YMin) + 1
}

// Load reads the stored points for an image, in full-mosaic coordinates.
// A missing sidecar is not an error; it yields an empty result.
func (s *Store) Load(imagePath string) ([]models.MarkedPoint, error) {
	f, err := os.Open(s.SidecarPath(imagePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open region file: %w", err)
	}
	defer f.Close()

	var points []models.MarkedPoint
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("bad coordinate in %s: %w", s.SidecarPath(imagePath), err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad coordinate in %s: %w", s.SidecarPath(imagePath), err)
		}
		points = append(points, models.MarkedPoint{X: x, Y: y})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read region file: %w", err)
	}

	return points, nil
}

// Save fully rewrites the sidecar for an image with the given full-mosaic
// points, creating the file if absent. The rewrite goes through a temporary
// file and an atomic rename so a partially written sidecar is never visible.
func (s *Store) Save(imagePath string, points []models.MarkedPoint) error {
	path := s.SidecarPath(imagePath)

	// Temp file in the same directory so the final rename stays on one filesystem
	tmp, err := os.CreateTemp(filepath.Dir(path), ".region-*")
	if err != nil {
		return fmt.Errorf("failed to create region file: %w", err)
	}

	for _, p := range points {
		if _, err := fmt.Fprintf(tmp, "%12.2f %12.2f\n", p.X, p.Y); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("failed to write region file: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write region file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace region file: %w", err)
	}

	return nil
}

// DeleteNear removes every stored point within Euclidean radius of the
// given full-mosaic coordinate and rewrites the sidecar with the remainder.
// It returns how many points were removed.
func (s *Store) DeleteNear(imagePath string, x, y, radius float64) (int, error) {
	points, err := s.Load(imagePath)
	if err != nil {
		return 0, err
	}

	cursor := r2.Vec{X: x, Y: y}
	kept := points[:0]
	for _, p := range points {
		d := r2.Sub(r2.Vec{X: p.X, Y: p.Y}, cursor)
		if r2.Norm(d) < radius {
			continue
		}
		kept = append(kept, p)
	}

	removed := len(points) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := s.Save(imagePath, kept); err != nil {
		return 0, err
	}
	return removed, nil
}
