package display

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"blinkstack/internal/models"
	"blinkstack/pkg/config"
	"blinkstack/pkg/regions"
)

// circlePattern matches one marker line of the viewer's region list reply,
// e.g. "circle(64,64,10) # color=red"
var circlePattern = regexp.MustCompile(`circle\(([^,]+),([^,]+),[^)]*\)`)

// Session owns the live mapping from viewer frame numbers to the source
// image and tile each frame currently shows. All coordinate translation
// between viewer-local and full-mosaic space goes through the tile bound
// to the frame being acted on, so marks keep meaning the same mosaic
// position no matter which tile was active when they were made.
type Session struct {
	viewer Viewer
	store  *regions.Store
	cfg    *config.Config
	logger *slog.Logger

	// bindings maps live viewer frame numbers to what they display.
	// Cleared whenever all frames are deleted; an entry is overwritten
	// when its frame is reloaded with a new tile.
	bindings map[int]models.FrameBinding
}

// NewSession creates a session over the given viewer connection
func NewSession(viewer Viewer, store *regions.Store, cfg *config.Config, logger *slog.Logger) *Session {
	return &Session{
		viewer:   viewer,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		bindings: make(map[int]models.FrameBinding),
	}
}

// Setup applies the session's fixed display cosmetics: scale mode, colormap,
// blink interval and UI panel visibility. These are not reconfigurable at
// runtime.
func (s *Session) Setup() error {
	if err := s.viewer.Set("scale " + s.cfg.Display.Scale); err != nil {
		return err
	}
	if err := s.setColormap(); err != nil {
		return err
	}
	if err := s.viewer.Set(fmt.Sprintf("blink interval %g", s.cfg.Display.BlinkInterval)); err != nil {
		return err
	}
	for _, panel := range s.cfg.Display.HidePanels {
		if err := s.viewer.Set("view " + panel + " no"); err != nil {
			return err
		}
	}
	return s.Blink(true)
}

func (s *Session) setColormap() error {
	invert := "no"
	if s.cfg.Display.InvertColormap {
		invert = "yes"
	}
	return s.viewer.Set("cmap invert " + invert)
}

// frameNumber asks the viewer which frame is currently active
func (s *Session) frameNumber() (int, error) {
	reply, err := s.viewer.Get("frame frameno")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(reply)
	if err != nil {
		return 0, fmt.Errorf("bad frame number %q: %w", reply, err)
	}
	return n, nil
}

// activeBinding returns the active frame number and its binding
func (s *Session) activeBinding() (int, models.FrameBinding, error) {
	n, err := s.frameNumber()
	if err != nil {
		return 0, models.FrameBinding{}, err
	}
	binding, ok := s.bindings[n]
	if !ok {
		return 0, models.FrameBinding{}, fmt.Errorf("frame %d has no bound image", n)
	}
	return n, binding, nil
}

// LoadImage creates a new viewer frame and displays the given tile's cutout
// of the image in it
func (s *Session) LoadImage(path string, tile *models.Tile) error {
	return s.loadImage(path, tile, true)
}

// ReloadActive redisplays an image in the currently active frame, replacing
// that frame's binding. Used after a delete so the overlay reflects the
// rewritten sidecar.
func (s *Session) ReloadActive(path string, tile *models.Tile) error {
	return s.loadImage(path, tile, false)
}

func (s *Session) loadImage(path string, tile *models.Tile, newFrame bool) error {
	if newFrame {
		if err := s.viewer.Set("frame new"); err != nil {
			return err
		}
	}

	// The viewer resets the colormap on frame creation
	if err := s.setColormap(); err != nil {
		return err
	}

	cutout := tile.String()
	s.logger.Debug("loading image", "path", path, "cutout", cutout)
	if err := s.viewer.Set("file " + path + cutout); err != nil {
		return err
	}

	frame, err := s.frameNumber()
	if err != nil {
		return err
	}
	s.bindings[frame] = models.FrameBinding{Path: path, Tile: tile}

	if err := s.viewer.Set("zoom to fit"); err != nil {
		return err
	}

	// Label the frame with its source and cutout, vertically centered just
	// inside the tile's right edge. Full-image loads carry no label since
	// there is no tile to anchor it to.
	if tile != nil {
		x := float64(tile.XMax - 10)
		y := float64(tile.YMin+tile.YMax) / 2.0
		if err := s.label(x, y, path+cutout); err != nil {
			return err
		}
	}

	return s.drawSavedMarks(path, tile)
}

// LoadStack loads every given image at the same tile, one viewer frame per
// image in order. Blinking is suspended for the duration and resumed if it
// was active beforehand.
func (s *Session) LoadStack(paths []string, tile *models.Tile) error {
	blinking, err := s.Blinking()
	if err != nil {
		return err
	}
	if blinking {
		if err := s.Blink(false); err != nil {
			return err
		}
	}

	for _, path := range paths {
		if err := s.LoadImage(path, tile); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if blinking {
		return s.Blink(true)
	}
	return nil
}

// Mark draws a circle marker at a viewer-local position on the active
// frame. The overlay change is visual only; persistence happens through
// SaveCurrentMarks.
func (s *Session) Mark(x, y float64) error {
	return s.viewer.SetWith("regions",
		fmt.Sprintf("image; circle(%g,%g,%g) # color=%s", x, y, s.cfg.Marks.Radius, s.cfg.Marks.Color))
}

// label draws a text annotation at a viewer-local position
func (s *Session) label(x, y float64, text string) error {
	return s.viewer.SetWith("regions",
		fmt.Sprintf("image; text %f %f # text={%s}", x, y, text))
}

// drawSavedMarks redraws the image's persisted marks on the active frame,
// transformed from full-mosaic into the tile's local coordinates
func (s *Session) drawSavedMarks(path string, tile *models.Tile) error {
	points, err := s.store.Load(path)
	if err != nil {
		return err
	}
	for _, p := range points {
		x, y := regions.GlobalToLocal(p.X, p.Y, tile)
		if err := s.Mark(x, y); err != nil {
			return err
		}
	}
	return nil
}

// frameMarks parses the viewer's region list for the active frame into
// viewer-local marker positions
func (s *Session) frameMarks() ([]models.MarkedPoint, error) {
	reply, err := s.viewer.Get("regions")
	if err != nil {
		return nil, err
	}

	var points []models.MarkedPoint
	for _, line := range strings.Split(reply, "\n") {
		m := circlePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(m[2]), 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("malformed region line %q", strings.TrimSpace(line))
		}
		points = append(points, models.MarkedPoint{X: x, Y: y})
	}
	return points, nil
}

// SaveCurrentMarks reads every marker drawn on the active frame, converts
// each to full-mosaic coordinates through the frame's bound tile, and
// rewrites the bound image's sidecar with the result
func (s *Session) SaveCurrentMarks() error {
	_, binding, err := s.activeBinding()
	if err != nil {
		return err
	}

	local, err := s.frameMarks()
	if err != nil {
		return err
	}

	points := make([]models.MarkedPoint, 0, len(local))
	for _, p := range local {
		x, y := regions.LocalToGlobal(p.X, p.Y, binding.Tile)
		points = append(points, models.MarkedPoint{X: x, Y: y})
	}

	if err := s.store.Save(binding.Path, points); err != nil {
		return err
	}
	s.logger.Info("saved marks", "image", binding.Path, "count", len(points))
	return nil
}

// DeleteNearCursor removes persisted marks near a viewer-local cursor
// position from the active frame's image, then reloads the frame so the
// overlay matches the rewritten sidecar. Returns how many points were
// removed.
func (s *Session) DeleteNearCursor(x, y float64) (int, error) {
	_, binding, err := s.activeBinding()
	if err != nil {
		return 0, err
	}

	gx, gy := regions.LocalToGlobal(x, y, binding.Tile)
	removed, err := s.store.DeleteNear(binding.Path, gx, gy, s.cfg.Marks.DeleteRadius)
	if err != nil {
		return 0, err
	}
	s.logger.Info("deleted marks", "image", binding.Path, "count", removed)

	// Drop the stale overlay before redrawing from the sidecar
	if err := s.viewer.Set("regions delete all"); err != nil {
		return removed, err
	}
	return removed, s.ReloadActive(binding.Path, binding.Tile)
}

// Blinking reports whether the viewer is currently blinking
func (s *Session) Blinking() (bool, error) {
	reply, err := s.viewer.Get("blink")
	if err != nil {
		return false, err
	}
	return reply == "yes", nil
}

// Blink switches blinking on or off
func (s *Session) Blink(on bool) error {
	if on {
		return s.viewer.Set("blink yes")
	}
	return s.viewer.Set("blink no")
}

// ToggleBlink flips the viewer's blink state
func (s *Session) ToggleBlink() error {
	blinking, err := s.Blinking()
	if err != nil {
		return err
	}
	return s.Blink(!blinking)
}

// ClearAll deletes every viewer frame and forgets all frame bindings. This
// must run before loading a new tile's stack so stale bindings can never
// misattribute a coordinate transform.
func (s *Session) ClearAll() error {
	if err := s.viewer.Set("frame delete all"); err != nil {
		return err
	}
	s.bindings = make(map[int]models.FrameBinding)
	return nil
}

// PollEvent blocks until the user presses a key inside the viewer and
// returns the key with the cursor position at event time. Transient read
// failures and malformed replies are retried; the configured retry cap
// bounds the retries, with 0 meaning retry forever.
func (s *Session) PollEvent() (models.Event, error) {
	attempts := 0
	for {
		reply, err := s.viewer.Get("imexam key coordinate image")
		if err == nil {
			fields := strings.Fields(reply)
			if len(fields) == 3 {
				x, errX := strconv.ParseFloat(fields[1], 64)
				y, errY := strconv.ParseFloat(fields[2], 64)
				if errX == nil && errY == nil {
					return models.Event{Key: fields[0], X: x, Y: y}, nil
				}
			}
			err = fmt.Errorf("malformed imexam reply %q", reply)
		}

		attempts++
		if limit := s.cfg.Events.MaxRetries; limit > 0 && attempts >= limit {
			return models.Event{}, fmt.Errorf("event poll gave up after %d attempts: %w", attempts, err)
		}
		s.logger.Debug("retrying event poll", "error", err)
	}
}
