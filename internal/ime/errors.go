package ime

import "errors"

var (
	// ErrUnknownContext is returned for callbacks naming a context that
	// was never created or is already destroyed.
	ErrUnknownContext = errors.New("ime: unknown input context")

	// ErrDuplicateContext is returned when a context id is reused while
	// the context is still alive.
	ErrDuplicateContext = errors.New("ime: input context already exists")

	// ErrUnknownConnection is returned when a context is created on a
	// connection that was never connected.
	ErrUnknownConnection = errors.New("ime: unknown connection")
)
