package preedit

import (
	"errors"
	"fmt"
)

var (
	// ErrWindowClosed is returned when a cleaned window is used again.
	ErrWindowClosed = errors.New("preedit: window already cleaned")

	// ErrZeroWindow is returned when the display hands out window id 0.
	ErrZeroWindow = errors.New("preedit: display returned window id 0")
)

// WindowError is a failed windowing operation.
type WindowError struct {
	Op     string
	Window WindowID
	Err    error
}

func (e *WindowError) Error() string {
	if e.Window == 0 {
		return fmt.Sprintf("preedit: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("preedit: %s window %d: %v", e.Op, e.Window, e.Err)
}

func (e *WindowError) Unwrap() error { return e.Err }

func opError(op string, w WindowID, err error) error {
	if err == nil {
		return nil
	}
	return &WindowError{Op: op, Window: w, Err: err}
}
