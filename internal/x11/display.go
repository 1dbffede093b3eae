// Package x11 implements preedit.Display on top of an X core protocol
// connection and pumps the overlay-related events back to the server.
package x11

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"hanim/internal/preedit"
)

// Display is a connection to an X server.
type Display struct {
	conn   *xgb.Conn
	setup  *xproto.SetupInfo
	screen int
	logger *slog.Logger

	closeOnce sync.Once
}

var _ preedit.Display = (*Display)(nil)

// Dial connects to the named display. An empty name uses $DISPLAY. A
// negative screen selects the display's default screen.
func Dial(name string, screen int, logger *slog.Logger) (*Display, error) {
	conn, err := xgb.NewConnDisplay(name)
	if err != nil {
		return nil, fmt.Errorf("x11: connect %q: %w", name, err)
	}
	setup := xproto.Setup(conn)
	if screen < 0 {
		screen = conn.DefaultScreen
	}
	if screen >= len(setup.Roots) {
		conn.Close()
		return nil, fmt.Errorf("x11: screen %d out of range (display has %d)", screen, len(setup.Roots))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Display{conn: conn, setup: setup, screen: screen, logger: logger}, nil
}

// Screen returns the screen overlays are created on.
func (d *Display) Screen() int { return d.screen }

// Close disconnects from the X server. It is safe to call more than once.
func (d *Display) Close() {
	d.closeOnce.Do(d.conn.Close)
}

func (d *Display) root(screen int) xproto.ScreenInfo {
	if screen < 0 || screen >= len(d.setup.Roots) {
		screen = d.screen
	}
	return d.setup.Roots[screen]
}

func (d *Display) OpenFont(name string) (preedit.Font, error) {
	fid, err := xproto.NewFontId(d.conn)
	if err != nil {
		return preedit.Font{}, err
	}
	if err := xproto.OpenFontChecked(d.conn, fid, uint16(len(name)), name).Check(); err != nil {
		return preedit.Font{}, fmt.Errorf("open font %q: %w", name, err)
	}
	info, err := xproto.QueryFont(d.conn, xproto.Fontable(fid)).Reply()
	if err != nil {
		xproto.CloseFont(d.conn, fid)
		return preedit.Font{}, fmt.Errorf("query font %q: %w", name, err)
	}
	return preedit.Font{
		ID:      uint32(fid),
		Ascent:  info.FontAscent,
		Descent: info.FontDescent,
		Width:   info.MaxBounds.CharacterWidth,
	}, nil
}

func (d *Display) CloseFont(font uint32) error {
	return xproto.CloseFontChecked(d.conn, xproto.Font(font)).Check()
}

func (d *Display) CreateWindow(spec preedit.WindowSpec) (preedit.WindowID, error) {
	wid, err := xproto.NewWindowId(d.conn)
	if err != nil {
		return 0, err
	}
	scr := d.root(spec.Screen)

	// Value order follows the mask bits: back pixel, override redirect,
	// event mask.
	err = xproto.CreateWindowChecked(d.conn, scr.RootDepth, wid, scr.Root,
		spec.At.X, spec.At.Y, spec.Width, spec.Height, 0,
		xproto.WindowClassInputOutput, scr.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{spec.Background, 1, xproto.EventMaskExposure},
	).Check()
	if err != nil {
		return 0, err
	}
	if err := xproto.MapWindowChecked(d.conn, wid).Check(); err != nil {
		xproto.DestroyWindow(d.conn, wid)
		return 0, err
	}
	return preedit.WindowID(wid), nil
}

func (d *Display) DestroyWindow(w preedit.WindowID) error {
	return xproto.DestroyWindowChecked(d.conn, xproto.Window(w)).Check()
}

func (d *Display) MoveWindow(w preedit.WindowID, at preedit.Point) error {
	return xproto.ConfigureWindowChecked(d.conn, xproto.Window(w),
		xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{uint32(int32(at.X)), uint32(int32(at.Y))},
	).Check()
}

// WatchWindow selects StructureNotify on a client window so the overlay
// can follow it. The client's own event selection is not affected.
func (d *Display) WatchWindow(w preedit.WindowID) error {
	return xproto.ChangeWindowAttributesChecked(d.conn, xproto.Window(w),
		xproto.CwEventMask, []uint32{xproto.EventMaskStructureNotify},
	).Check()
}

func (d *Display) CreateGC(w preedit.WindowID, font uint32, fg, bg uint32) (uint32, error) {
	gc, err := xproto.NewGcontextId(d.conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateGCChecked(d.conn, gc, xproto.Drawable(w),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont,
		[]uint32{fg, bg, font},
	).Check()
	if err != nil {
		return 0, err
	}
	return uint32(gc), nil
}

func (d *Display) FreeGC(gc uint32) error {
	return xproto.FreeGCChecked(d.conn, xproto.Gcontext(gc)).Check()
}

func (d *Display) ClearWindow(w preedit.WindowID) error {
	return xproto.ClearAreaChecked(d.conn, false, xproto.Window(w), 0, 0, 0, 0).Check()
}

func (d *Display) DrawGlyph(w preedit.WindowID, gc uint32, at preedit.Point, ch rune) error {
	chars, err := char2b(ch)
	if err != nil {
		return err
	}
	return xproto.ImageText16Checked(d.conn, byte(len(chars)), xproto.Drawable(w),
		xproto.Gcontext(gc), at.X, at.Y, chars,
	).Check()
}

func (d *Display) TranslateToRoot(w preedit.WindowID, at preedit.Point) (preedit.Point, error) {
	if w == 0 {
		return at, nil
	}
	reply, err := xproto.TranslateCoordinates(d.conn, xproto.Window(w), d.root(d.screen).Root, at.X, at.Y).Reply()
	if err != nil {
		return preedit.Point{}, err
	}
	return preedit.Point{X: reply.DstX, Y: reply.DstY}, nil
}

// char2b encodes a rune as a core protocol 16-bit character. Runes outside
// the basic multilingual plane cannot be drawn with core fonts.
func char2b(ch rune) ([]xproto.Char2b, error) {
	if ch < 0 || ch > 0xffff {
		return nil, fmt.Errorf("x11: rune %U outside BMP", ch)
	}
	return []xproto.Char2b{{Byte1: byte(ch >> 8), Byte2: byte(ch)}}, nil
}

// Ping makes a round trip to the X server.
func (d *Display) Ping() error {
	_, err := xproto.GetInputFocus(d.conn).Reply()
	return err
}
