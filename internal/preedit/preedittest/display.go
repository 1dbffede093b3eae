// Package preedittest provides an in-memory preedit.Display for tests.
package preedittest

import (
	"fmt"

	"hanim/internal/preedit"
)

// Display records every call and keeps track of live resources.
type Display struct {
	// Calls is the ordered log of operations, e.g. "draw 100 '가'".
	Calls []string

	// Fail makes the named operation ("open font", "create", "create gc",
	// "watch", "draw", "clear", "move", "translate", "destroy") return
	// the error.
	Fail map[string]error

	// Origins maps client windows to their root position.
	Origins map[preedit.WindowID]preedit.Point

	Windows map[preedit.WindowID]preedit.Point
	Fonts   map[uint32]bool
	GCs     map[uint32]bool
	Glyphs  map[preedit.WindowID]rune

	next uint32
}

var _ preedit.Display = (*Display)(nil)

// New returns an empty display that hands out ids starting at 100.
func New() *Display {
	return &Display{
		Fail:    map[string]error{},
		Origins: map[preedit.WindowID]preedit.Point{},
		Windows: map[preedit.WindowID]preedit.Point{},
		Fonts:   map[uint32]bool{},
		GCs:     map[uint32]bool{},
		Glyphs:  map[preedit.WindowID]rune{},
		next:    99,
	}
}

func (d *Display) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Display) id() uint32 {
	d.next++
	return d.next
}

// Reset clears the call log.
func (d *Display) Reset() { d.Calls = nil }

func (d *Display) OpenFont(name string) (preedit.Font, error) {
	if err := d.Fail["open font"]; err != nil {
		return preedit.Font{}, err
	}
	id := d.id()
	d.Fonts[id] = true
	d.record("open font %s", name)
	return preedit.Font{ID: id, Ascent: 16, Descent: 4, Width: 20}, nil
}

func (d *Display) CloseFont(font uint32) error {
	delete(d.Fonts, font)
	d.record("close font %d", font)
	return nil
}

func (d *Display) CreateWindow(spec preedit.WindowSpec) (preedit.WindowID, error) {
	if err := d.Fail["create"]; err != nil {
		return 0, err
	}
	id := preedit.WindowID(d.id())
	d.Windows[id] = spec.At
	d.record("create %d at %d,%d size %dx%d", id, spec.At.X, spec.At.Y, spec.Width, spec.Height)
	return id, nil
}

func (d *Display) DestroyWindow(w preedit.WindowID) error {
	if err := d.Fail["destroy"]; err != nil {
		return err
	}
	if _, ok := d.Windows[w]; !ok {
		return fmt.Errorf("destroy of unknown window %d", w)
	}
	delete(d.Windows, w)
	delete(d.Glyphs, w)
	d.record("destroy %d", w)
	return nil
}

func (d *Display) MoveWindow(w preedit.WindowID, at preedit.Point) error {
	if err := d.Fail["move"]; err != nil {
		return err
	}
	d.Windows[w] = at
	d.record("move %d to %d,%d", w, at.X, at.Y)
	return nil
}

func (d *Display) WatchWindow(w preedit.WindowID) error {
	if err := d.Fail["watch"]; err != nil {
		return err
	}
	d.record("watch %d", w)
	return nil
}

func (d *Display) CreateGC(w preedit.WindowID, font uint32, fg, bg uint32) (uint32, error) {
	if err := d.Fail["create gc"]; err != nil {
		return 0, err
	}
	id := d.id()
	d.GCs[id] = true
	d.record("create gc %d", w)
	return id, nil
}

func (d *Display) FreeGC(gc uint32) error {
	delete(d.GCs, gc)
	d.record("free gc %d", gc)
	return nil
}

func (d *Display) ClearWindow(w preedit.WindowID) error {
	if err := d.Fail["clear"]; err != nil {
		return err
	}
	delete(d.Glyphs, w)
	return nil
}

func (d *Display) DrawGlyph(w preedit.WindowID, gc uint32, at preedit.Point, ch rune) error {
	if err := d.Fail["draw"]; err != nil {
		return err
	}
	d.Glyphs[w] = ch
	d.record("draw %d %q", w, ch)
	return nil
}

func (d *Display) TranslateToRoot(w preedit.WindowID, at preedit.Point) (preedit.Point, error) {
	if err := d.Fail["translate"]; err != nil {
		return preedit.Point{}, err
	}
	o := d.Origins[w]
	return preedit.Point{X: o.X + at.X, Y: o.Y + at.Y}, nil
}

// Live reports whether no fonts, GCs or windows remain allocated.
func (d *Display) Live() int {
	return len(d.Windows) + len(d.Fonts) + len(d.GCs)
}
