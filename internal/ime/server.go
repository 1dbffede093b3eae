package ime

// ContextID identifies an input context within the server.
type ContextID uint32

// ConnID identifies a client connection.
type ConnID uint32

// X core event mask bits used with Server.SetEventMask.
const (
	KeyPressMask   uint32 = 1 << 0
	KeyReleaseMask uint32 = 1 << 1
)

// ShiftMask is the X modifier bit for Shift. Any other modifier bit on a
// key press is a reset trigger.
const ShiftMask uint32 = 1 << 0

// Server is the output side of the input method protocol. Every call is a
// synchronous round trip whose error is returned to the caller as is.
type Server interface {
	// Commit inserts finished text into the client.
	Commit(ic ContextID, text string) error

	// PreeditDraw replaces the client-drawn preedit. An empty text clears it.
	PreeditDraw(ic ContextID, text string) error

	// SetEventMask selects which key events the client forwards and which
	// of them it waits for synchronously.
	SetEventMask(ic ContextID, forward, sync uint32) error
}

// KeyEvent is a key event forwarded by a client.
type KeyEvent struct {
	Press   bool
	Keycode uint16
	State   uint32
}
