// Package stack runs the interactive inspection loop: it polls the viewer
// for key events and dispatches them to tile navigation, blink control and
// the mark/delete operations.
package stack

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"blinkstack/internal/models"
	"blinkstack/pkg/display"
	"blinkstack/pkg/imageset"
	"blinkstack/pkg/tilegrid"
)

// Usage lists the key bindings recognized while the viewer has focus
const Usage = `The program displays all images matching the given pattern in the viewer
and starts blinking through them, one tile of the mosaic at a time.

The viewer window must be selected for these keystrokes to register.

b - toggle blinking off and on.
a - add a point at the cursor to the found object list.
d - delete mark(s) within the delete radius of the cursor.
n - go to the next tile of the mosaic.
p - go to the previous tile of the mosaic.
q - quit.
? - print this help.
`

// Loop is the interaction state machine. All session state lives in the
// grid's cursor and the session's frame bindings; the loop itself only
// routes events.
type Loop struct {
	set     *imageset.Set
	grid    *tilegrid.Grid
	session *display.Session
	logger  *slog.Logger

	// out receives user-visible messages: warnings and help text
	out io.Writer
}

// NewLoop creates the interaction loop over an already set up session
func NewLoop(set *imageset.Set, grid *tilegrid.Grid, session *display.Session, logger *slog.Logger) *Loop {
	return &Loop{
		set:     set,
		grid:    grid,
		session: session,
		logger:  logger,
		out:     os.Stdout,
	}
}

// Run displays the first tile's stack and then consumes viewer events until
// the user quits. Quitting always forces blinking off first.
func (l *Loop) Run() error {
	if err := l.showCurrentTile(); err != nil {
		return err
	}

	for {
		event, err := l.session.PollEvent()
		if err != nil {
			return err
		}

		done, err := l.dispatch(event)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// dispatch handles one event and reports whether the loop should end
func (l *Loop) dispatch(event models.Event) (bool, error) {
	switch event.Key {
	case "n":
		l.grid.Advance()
		return false, l.showCurrentTile()

	case "p":
		l.grid.Retreat()
		return false, l.showCurrentTile()

	case "b":
		return false, l.session.ToggleBlink()

	case "a":
		return false, l.addMark(event)

	case "d":
		return false, l.deleteMark(event)

	case "question", "?":
		fmt.Fprint(l.out, Usage)
		return false, nil

	case "q":
		return true, l.session.Blink(false)
	}

	// Unrecognized keys are ignored
	return false, nil
}

// showCurrentTile replaces the whole displayed stack with the current
// tile's cutouts. Frames must be cleared before the new stack loads so no
// stale frame binding can survive into the new tile.
func (l *Loop) showCurrentTile() error {
	tile := l.grid.Current()
	l.logger.Debug("showing tile", "index", l.grid.Index(), "tile", tile.String())

	if err := l.session.ClearAll(); err != nil {
		return err
	}

	paths, err := l.set.Paths()
	if err != nil {
		return err
	}
	return l.session.LoadStack(paths, tile)
}

// addMark draws a marker at the cursor and persists the frame's marks.
// Marking requires blinking to be off so the cursor position refers to a
// known frame.
func (l *Loop) addMark(event models.Event) error {
	blinking, err := l.session.Blinking()
	if err != nil {
		return err
	}
	if blinking {
		fmt.Fprintln(l.out, "Toggle off blink (b) before marking.")
		return nil
	}

	if err := l.session.Mark(event.X, event.Y); err != nil {
		return err
	}
	return l.session.SaveCurrentMarks()
}

// deleteMark removes persisted marks near the cursor. Like addMark it is
// rejected while blinking.
func (l *Loop) deleteMark(event models.Event) error {
	blinking, err := l.session.Blinking()
	if err != nil {
		return err
	}
	if blinking {
		fmt.Fprintln(l.out, "Toggle off blink (b) before deleting a mark.")
		return nil
	}

	_, err = l.session.DeleteNearCursor(event.X, event.Y)
	return err
}
