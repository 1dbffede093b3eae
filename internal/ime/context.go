package ime

import (
	"hanim/internal/engine"
	"hanim/internal/preedit"
)

// State is the composition state of an input context.
type State uint8

const (
	Idle State = iota
	ComposingOverlay
	ComposingInline
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ComposingOverlay:
		return "ComposingOverlay"
	case ComposingInline:
		return "ComposingInline"
	default:
		return "State(?)"
	}
}

// ContextAttrs are the client-supplied attributes of an input context.
type ContextAttrs struct {
	// Style is fixed at creation.
	Style InputStyle

	// AppWindow is the client window overlays follow. Zero means the root
	// window, with Spot in root coordinates.
	AppWindow preedit.WindowID

	// Spot is the caret baseline position relative to AppWindow.
	Spot preedit.Point
}

// InputContext is the server-side state of one text entry point. It owns
// its engine and refers to its overlay window, if any, by id only.
type InputContext struct {
	id     ContextID
	conn   ConnID
	attrs  ContextAttrs
	engine *engine.InputEngine

	window preedit.WindowID
	inline bool
}

// ID returns the context id.
func (ic *InputContext) ID() ContextID { return ic.id }

// Conn returns the owning connection.
func (ic *InputContext) Conn() ConnID { return ic.conn }

// Attrs returns the current attributes.
func (ic *InputContext) Attrs() ContextAttrs { return ic.attrs }

// Window returns the overlay window id, or 0 when there is none.
func (ic *InputContext) Window() preedit.WindowID { return ic.window }

// State reports the composition state.
func (ic *InputContext) State() State {
	switch {
	case ic.window != 0:
		return ComposingOverlay
	case ic.inline:
		return ComposingInline
	default:
		return Idle
	}
}
