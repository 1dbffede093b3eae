package preedit

import (
	"errors"

	"hanim/internal/config"
)

// Window is an overlay showing one preedit glyph next to the client's
// caret. It owns its font and graphics context until Clean.
type Window struct {
	id     WindowID
	target WindowID
	spot   Point
	font   Font
	gc     uint32
	pad    int16
	ch     rune
	closed bool
}

// New opens the configured font, creates the overlay at spot (relative to
// target) on screen, and prepares it for drawing. Any resource acquired
// before a failure is released again.
func New(d Display, cfg *config.Snapshot, target WindowID, spot Point, screen int) (w *Window, err error) {
	font, err := d.OpenFont(cfg.FontName())
	if err != nil {
		return nil, opError("open font", 0, err)
	}
	defer func() {
		if err != nil {
			d.CloseFont(font.ID)
		}
	}()

	pad := int16(cfg.Padding())
	w = &Window{target: target, spot: spot, font: font, pad: pad}

	at, err := w.origin(d)
	if err != nil {
		return nil, err
	}

	id, err := d.CreateWindow(WindowSpec{
		Screen:     screen,
		At:         at,
		Width:      uint16(font.Width + 2*pad),
		Height:     uint16(font.Ascent + font.Descent + 2*pad),
		Background: cfg.Background(),
	})
	if err != nil {
		return nil, opError("create", 0, err)
	}
	if id == 0 {
		return nil, opError("create", 0, ErrZeroWindow)
	}
	defer func() {
		if err != nil {
			d.DestroyWindow(id)
		}
	}()
	w.id = id

	gc, err := d.CreateGC(id, font.ID, cfg.Foreground(), cfg.Background())
	if err != nil {
		return nil, opError("create gc", id, err)
	}
	w.gc = gc

	if target != 0 {
		if err := d.WatchWindow(target); err != nil {
			d.FreeGC(gc)
			return nil, opError("watch target", target, err)
		}
	}
	return w, nil
}

// ID returns the overlay's window id.
func (w *Window) ID() WindowID { return w.id }

// Target returns the client window the overlay follows.
func (w *Window) Target() WindowID { return w.target }

// Preedit returns the glyph currently shown.
func (w *Window) Preedit() rune { return w.ch }

// SetPreedit replaces the glyph and redraws.
func (w *Window) SetPreedit(d Display, ch rune) error {
	if w.closed {
		return ErrWindowClosed
	}
	w.ch = ch
	return w.draw(d)
}

// Expose repaints after damage.
func (w *Window) Expose(d Display) error {
	if w.closed {
		return ErrWindowClosed
	}
	return w.draw(d)
}

// SetSpot moves the overlay to a new position relative to its target.
func (w *Window) SetSpot(d Display, spot Point) error {
	if w.closed {
		return ErrWindowClosed
	}
	w.spot = spot
	return w.reposition(d)
}

// SetTarget makes the overlay follow another client window and moves it
// to spot relative to that window. On failure the old target is kept.
func (w *Window) SetTarget(d Display, target WindowID, spot Point) error {
	if w.closed {
		return ErrWindowClosed
	}
	if target != 0 && target != w.target {
		if err := d.WatchWindow(target); err != nil {
			return opError("watch target", target, err)
		}
	}
	w.target = target
	w.spot = spot
	return w.reposition(d)
}

// ConfigureNotify follows the target window when it moves or resizes.
// The overlay itself is never reconfigured by anyone else.
func (w *Window) ConfigureNotify(d Display, ev ConfigureEvent) error {
	if w.closed {
		return ErrWindowClosed
	}
	if w.target == 0 || ev.Window != w.target {
		return nil
	}
	return w.reposition(d)
}

// Clean releases the graphics context and font and destroys the window.
// It must be called exactly once; later calls return ErrWindowClosed.
// Every release is attempted even if an earlier one fails.
func (w *Window) Clean(d Display) error {
	if w.closed {
		return ErrWindowClosed
	}
	w.closed = true

	return errors.Join(
		opError("free gc", w.id, d.FreeGC(w.gc)),
		opError("close font", w.id, d.CloseFont(w.font.ID)),
		opError("destroy", w.id, d.DestroyWindow(w.id)),
	)
}

func (w *Window) origin(d Display) (Point, error) {
	at, err := d.TranslateToRoot(w.target, w.spot)
	if err != nil {
		return Point{}, opError("translate", w.target, err)
	}
	// The spot is the text baseline; place the glyph's baseline on it.
	at.Y -= w.font.Ascent + w.pad
	return at, nil
}

func (w *Window) reposition(d Display) error {
	at, err := w.origin(d)
	if err != nil {
		return err
	}
	return opError("move", w.id, d.MoveWindow(w.id, at))
}

func (w *Window) draw(d Display) error {
	if err := d.ClearWindow(w.id); err != nil {
		return opError("clear", w.id, err)
	}
	if w.ch == 0 {
		return nil
	}
	at := Point{X: w.pad, Y: w.pad + w.font.Ascent}
	return opError("draw", w.id, d.DrawGlyph(w.id, w.gc, at, w.ch))
}
