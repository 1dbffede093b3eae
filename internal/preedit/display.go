// Package preedit manages the overlay windows that show the syllable being
// composed when the client asked the server to draw the preedit itself.
package preedit

// WindowID identifies a window in the windowing system. Zero is never a
// valid window.
type WindowID uint32

// Point is a position in pixels.
type Point struct {
	X, Y int16
}

// Font describes an opened font and the bounds of its largest glyph.
type Font struct {
	ID      uint32
	Ascent  int16
	Descent int16
	Width   int16
}

// WindowSpec describes an overlay window to create.
type WindowSpec struct {
	Screen     int
	At         Point
	Width      uint16
	Height     uint16
	Background uint32
}

// ConfigureEvent reports that a window moved or changed size.
type ConfigureEvent struct {
	Window WindowID
	X, Y   int16
	Width  uint16
	Height uint16
}

// Display is the set of synchronous windowing operations overlay windows
// need. Every call is a round trip; errors are returned to the caller and
// never retried.
type Display interface {
	OpenFont(name string) (Font, error)
	CloseFont(font uint32) error

	// CreateWindow creates and maps an unmanaged window at an absolute
	// root position.
	CreateWindow(spec WindowSpec) (WindowID, error)
	DestroyWindow(w WindowID) error
	MoveWindow(w WindowID, at Point) error

	// WatchWindow asks for configure notifications on a client window.
	WatchWindow(w WindowID) error

	CreateGC(w WindowID, font uint32, fg, bg uint32) (uint32, error)
	FreeGC(gc uint32) error

	ClearWindow(w WindowID) error
	DrawGlyph(w WindowID, gc uint32, at Point, ch rune) error

	// TranslateToRoot converts a position relative to w into root
	// coordinates. A zero w means the position is already absolute.
	TranslateToRoot(w WindowID, at Point) (Point, error)
}
