// Package ime is the input context handler of the hanim input method
// server. It interprets composition results into protocol actions and
// drives the overlay preedit windows.
//
// # Flow
//
//	protocol frontend ──► Handler ──► engine.InputEngine
//	                         │
//	                         ├──► Server (commit, preedit draw, event mask)
//	                         └──► preedit.Registry / preedit.Display
//
// Each input context is in one of three states:
//
//	┌──────────────────┬───────────────────────────────────────────────┐
//	│ State            │ Meaning                                       │
//	├──────────────────┼───────────────────────────────────────────────┤
//	│ Idle             │ nothing pending, no overlay window            │
//	│ ComposingOverlay │ pending unit shown in an overlay window       │
//	│ ComposingInline  │ pending unit drawn by the client (callbacks)  │
//	└──────────────────┴───────────────────────────────────────────────┘
//
// Overlay or inline feedback is chosen once, from the input style
// negotiated at context creation.
//
// # Reset triggers
//
// An explicit reset, losing focus, and any key press carrying modifiers
// other than Shift flush the engine: the preedit is cleared and the
// flushed unit, if any, is committed. A modified key is then forwarded to
// the client unconsumed.
//
// Destroying a context tears down its overlay window but does not commit
// the pending unit; it is discarded.
//
// # Concurrency
//
// A Handler is not safe for concurrent use. Frontends serialise every
// callback through a single goroutine (see package eventloop).
package ime
