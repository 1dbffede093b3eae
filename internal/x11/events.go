package x11

import (
	"context"
	"errors"

	"github.com/jezek/xgb/xproto"

	"hanim/internal/preedit"
)

// ErrDisconnected is returned by Pump when the X connection goes away.
var ErrDisconnected = errors.New("x11: connection closed")

// Sink receives the overlay events the server cares about.
type Sink interface {
	Expose(w preedit.WindowID)
	ConfigureNotify(ev preedit.ConfigureEvent)
}

// Pump reads events until ctx is cancelled or the connection closes and
// hands Expose and ConfigureNotify to sink. Protocol errors from
// unchecked requests are logged and skipped. Pump blocks in the X
// library, so cancelling ctx only takes effect once Close is called or
// the next event arrives.
func (d *Display) Pump(ctx context.Context, sink Sink) error {
	for {
		ev, xerr := d.conn.WaitForEvent()
		if err := ctx.Err(); err != nil {
			return err
		}
		if ev == nil && xerr == nil {
			return ErrDisconnected
		}
		if xerr != nil {
			d.logger.Warn("x11 protocol error", "error", xerr.Error())
			continue
		}
		dispatch(ev, sink)
	}
}

func dispatch(ev any, sink Sink) {
	switch e := ev.(type) {
	case xproto.ExposeEvent:
		// Only the last of a series carries Count 0.
		if e.Count == 0 {
			sink.Expose(preedit.WindowID(e.Window))
		}
	case xproto.ConfigureNotifyEvent:
		sink.ConfigureNotify(preedit.ConfigureEvent{
			Window: preedit.WindowID(e.Window),
			X:      e.X,
			Y:      e.Y,
			Width:  e.Width,
			Height: e.Height,
		})
	}
}
