package ibus

import (
	"errors"

	"github.com/godbus/dbus/v5"

	"hanim/internal/ime"
	"hanim/internal/preedit"
)

// Engine is one exported IBus engine object. IBus creates one per input
// context; the matching ime context is created on first use, once the
// client capabilities are known.
type Engine struct {
	f    *Frontend
	id   ime.ContextID
	path dbus.ObjectPath

	caps      uint32
	spot      preedit.Point
	created   bool
	destroyed bool
}

// ErrEngineDestroyed is returned for calls reaching an engine object after
// its Destroy.
var ErrEngineDestroyed = errors.New("ibus: engine destroyed")

// Path returns the object path of the engine.
func (e *Engine) Path() dbus.ObjectPath { return e.path }

func (e *Engine) style() ime.InputStyle {
	if e.caps&CapPreeditText != 0 {
		return ime.PreeditCallbacks | ime.StatusNothing
	}
	return ime.PreeditPosition | ime.StatusNothing
}

func (e *Engine) ensure() error {
	if e.destroyed {
		return ErrEngineDestroyed
	}
	if e.created {
		return nil
	}
	err := e.f.h.CreateContext(e.f.conn, e.id, ime.ContextAttrs{Style: e.style(), Spot: e.spot})
	if err != nil {
		return err
	}
	e.created = true
	return nil
}

// KeyEvent converts IBus key event arguments. IBus passes evdev keycodes,
// which sit 8 below X keycodes. The virtual Super, Hyper and Meta bits
// fold into Mod4. Lock and NumLock are dropped so they do not count as
// modifiers.
func KeyEvent(keycode, state uint32) ime.KeyEvent {
	if state&(SuperMask|HyperMask|MetaMask) != 0 {
		state |= Mod4Mask
	}
	return ime.KeyEvent{
		Press:   state&ReleaseMask == 0,
		Keycode: uint16(keycode + 8),
		State:   state & 0xffff &^ (LockMask | Mod2Mask),
	}
}

// ProcessKeyEvent reports whether the key was consumed.
func (e *Engine) ProcessKeyEvent(keyval, keycode, state uint32) (bool, *dbus.Error) {
	var consumed bool
	derr := e.f.run("ProcessKeyEvent", func() error {
		if err := e.ensure(); err != nil {
			return err
		}
		var err error
		consumed, err = e.f.h.ForwardEvent(e.id, KeyEvent(keycode, state))
		return err
	})
	return consumed, derr
}

func (e *Engine) FocusIn() *dbus.Error {
	return e.f.run("FocusIn", func() error {
		if err := e.ensure(); err != nil {
			return err
		}
		return e.f.h.SetFocus(e.id)
	})
}

func (e *Engine) FocusOut() *dbus.Error {
	return e.f.run("FocusOut", e.unsetFocus)
}

func (e *Engine) unsetFocus() error {
	if !e.created {
		return nil
	}
	return e.f.h.UnsetFocus(e.id)
}

// Reset commits whatever the reset flushed.
func (e *Engine) Reset() *dbus.Error {
	return e.f.run("Reset", func() error {
		if !e.created {
			return nil
		}
		text, err := e.f.h.ResetContext(e.id)
		if err != nil || text == "" {
			return err
		}
		return e.f.Commit(e.id, text)
	})
}

func (e *Engine) Enable() *dbus.Error { return nil }

func (e *Engine) Disable() *dbus.Error {
	return e.f.run("Disable", e.unsetFocus)
}

// SetCapabilities records the client capabilities. The preedit style is
// fixed once the context exists.
func (e *Engine) SetCapabilities(caps uint32) *dbus.Error {
	return e.f.run("SetCapabilities", func() error {
		if e.created && caps&CapPreeditText != e.caps&CapPreeditText {
			e.f.logger.Debug("capabilities changed after context creation", "path", e.path, "caps", caps)
		}
		e.caps = caps
		return nil
	})
}

// SetCursorLocation gives the caret rectangle in root coordinates. The
// overlay baseline goes at its bottom edge.
func (e *Engine) SetCursorLocation(x, y, w, h int32) *dbus.Error {
	return e.f.run("SetCursorLocation", func() error {
		e.spot = preedit.Point{X: int16(x), Y: int16(y + h)}
		if !e.created {
			return nil
		}
		return e.f.h.SetValues(e.id, ime.ContextAttrs{Spot: e.spot})
	})
}

func (e *Engine) SetContentType(purpose, hints uint32) *dbus.Error { return nil }

func (e *Engine) SetSurroundingText(text dbus.Variant, cursor, anchor uint32) *dbus.Error {
	return nil
}

func (e *Engine) PropertyActivate(name string, state uint32) *dbus.Error { return nil }

func (e *Engine) PageUp() *dbus.Error     { return nil }
func (e *Engine) PageDown() *dbus.Error   { return nil }
func (e *Engine) CursorUp() *dbus.Error   { return nil }
func (e *Engine) CursorDown() *dbus.Error { return nil }

func (e *Engine) CandidateClicked(index, button, state uint32) *dbus.Error { return nil }

// Destroy is the org.freedesktop.IBus.Service method. The pending unit is
// discarded.
func (e *Engine) Destroy() *dbus.Error {
	return e.f.run("Destroy", func() error {
		if e.destroyed {
			return nil
		}
		e.destroyed = true
		delete(e.f.engines, e.id)
		e.f.unexport(e)
		if !e.created {
			return nil
		}
		e.created = false
		return e.f.h.DestroyContext(e.id)
	})
}
