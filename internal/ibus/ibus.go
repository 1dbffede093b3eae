// Package ibus is the protocol frontend of the input method server. It
// speaks the IBus engine D-Bus protocol, forwards every call to an
// ime.Handler on the event loop, and implements ime.Server by emitting
// IBus signals.
package ibus

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"hanim/internal/eventloop"
	"hanim/internal/ime"
	"hanim/internal/metrics"
)

// IBus D-Bus names.
const (
	FactoryPath      dbus.ObjectPath = "/org/freedesktop/IBus/Factory"
	FactoryInterface                 = "org.freedesktop.IBus.Factory"
	EngineInterface                  = "org.freedesktop.IBus.Engine"
	ServiceInterface                 = "org.freedesktop.IBus.Service"
	EnginePathPrefix                 = "/org/freedesktop/IBus/Engine/"

	// ErrorName is the D-Bus error returned when the handler fails.
	ErrorName = "org.freedesktop.IBus.Error"
)

// BusName is the well-known name the component owns.
const BusName = "org.freedesktop.IBus.Hanim"

// EngineName is the engine name advertised in the component file.
const EngineName = "hangul"

// Client capabilities.
const (
	CapPreeditText uint32 = 1 << 0
	CapFocus       uint32 = 1 << 3
)

// Key event state bits.
const (
	ShiftMask   uint32 = 1 << 0
	LockMask    uint32 = 1 << 1
	Mod2Mask    uint32 = 1 << 4
	Mod4Mask    uint32 = 1 << 6
	SuperMask   uint32 = 1 << 26
	HyperMask   uint32 = 1 << 27
	MetaMask    uint32 = 1 << 28
	ReleaseMask uint32 = 1 << 30
)

// preeditClear is the UpdatePreeditText mode that drops the preedit on
// focus loss instead of committing it; the handler commits on its own.
const preeditClear uint32 = 0

// Bus is the part of a D-Bus connection the frontend uses. *dbus.Conn
// satisfies it.
type Bus interface {
	Export(v any, path dbus.ObjectPath, iface string) error
	Emit(path dbus.ObjectPath, name string, values ...any) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
}

// Handler is the input context handler the frontend drives.
type Handler interface {
	Connect(conn ime.ConnID)
	Disconnect(conn ime.ConnID) error
	CreateContext(conn ime.ConnID, id ime.ContextID, attrs ime.ContextAttrs) error
	SetValues(id ime.ContextID, attrs ime.ContextAttrs) error
	DestroyContext(id ime.ContextID) error
	ResetContext(id ime.ContextID) (string, error)
	SetFocus(id ime.ContextID) error
	UnsetFocus(id ime.ContextID) error
	ForwardEvent(id ime.ContextID, ev ime.KeyEvent) (bool, error)
}

var _ Handler = (*ime.Handler)(nil)

// Frontend owns the exported D-Bus objects. All of its state, and every
// call into the Handler, is confined to the event loop.
type Frontend struct {
	bus     Bus
	loop    *eventloop.Loop
	logger  *slog.Logger
	metrics *metrics.ServerMetrics

	h       Handler
	conn    ime.ConnID
	engines map[ime.ContextID]*Engine
	nextID  ime.ContextID
}

var _ ime.Server = (*Frontend)(nil)

// New returns a frontend on bus. Attach must be called before Start.
func New(bus Bus, loop *eventloop.Loop, logger *slog.Logger, m *metrics.ServerMetrics) *Frontend {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewServerMetrics(nil)
	}
	return &Frontend{
		bus:     bus,
		loop:    loop,
		logger:  logger,
		metrics: m,
		conn:    1,
		engines: make(map[ime.ContextID]*Engine),
	}
}

// Attach sets the handler and registers the bus connection with it. The
// handler is usually built with the frontend as its ime.Server, so the
// two are tied together after construction.
func (f *Frontend) Attach(h Handler) error {
	return f.loop.Do(func() {
		f.h = h
		h.Connect(f.conn)
	})
}

// Start exports the engine factory and claims name on the bus.
func (f *Frontend) Start(name string) error {
	if f.h == nil {
		return errors.New("ibus: Start before Attach")
	}
	if err := f.bus.Export(&factory{f: f}, FactoryPath, FactoryInterface); err != nil {
		return fmt.Errorf("ibus: export factory: %w", err)
	}
	reply, err := f.bus.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("ibus: request name %s: %w", name, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("ibus: name %s already taken", name)
	}
	f.logger.Info("ibus frontend started", "name", name)
	return nil
}

// Close destroys every context of the bus connection.
func (f *Frontend) Close() error {
	var err error
	if lerr := f.loop.Do(func() {
		if f.h != nil {
			err = f.h.Disconnect(f.conn)
		}
		for id, e := range f.engines {
			e.destroyed = true
			e.created = false
			f.unexport(e)
			delete(f.engines, id)
		}
	}); lerr != nil {
		return lerr
	}
	return err
}

// run executes fn on the loop and converts a failure into a D-Bus error.
func (f *Frontend) run(op string, fn func() error) *dbus.Error {
	var err error
	if lerr := f.loop.Do(func() { err = fn() }); lerr != nil {
		err = lerr
	}
	if err == nil {
		return nil
	}
	f.metrics.ErrorsTotal.Inc()
	f.logger.Warn("ibus call failed", "op", op, "error", err)
	return dbus.NewError(ErrorName, []any{err.Error()})
}

func (f *Frontend) createEngine(name string) (dbus.ObjectPath, error) {
	if name != EngineName {
		return "", fmt.Errorf("ibus: unknown engine %q", name)
	}
	f.nextID++
	e := &Engine{
		f:    f,
		id:   f.nextID,
		path: dbus.ObjectPath(fmt.Sprintf("%s%d", EnginePathPrefix, f.nextID)),
	}
	if err := f.bus.Export(e, e.path, EngineInterface); err != nil {
		return "", fmt.Errorf("ibus: export engine: %w", err)
	}
	if err := f.bus.Export(e, e.path, ServiceInterface); err != nil {
		f.bus.Export(nil, e.path, EngineInterface)
		return "", fmt.Errorf("ibus: export engine service: %w", err)
	}
	f.engines[e.id] = e
	f.logger.Debug("engine created", "path", e.path)
	return e.path, nil
}

func (f *Frontend) unexport(e *Engine) {
	f.bus.Export(nil, e.path, EngineInterface)
	f.bus.Export(nil, e.path, ServiceInterface)
}

func (f *Frontend) emit(ic ime.ContextID, member string, values ...any) error {
	e, ok := f.engines[ic]
	if !ok {
		return fmt.Errorf("%w: %d", ime.ErrUnknownContext, ic)
	}
	return f.bus.Emit(e.path, EngineInterface+"."+member, values...)
}

// Commit implements ime.Server.
func (f *Frontend) Commit(ic ime.ContextID, text string) error {
	return f.emit(ic, "CommitText", dbus.MakeVariant(newText(text)))
}

// PreeditDraw implements ime.Server. An empty text hides the preedit.
func (f *Frontend) PreeditDraw(ic ime.ContextID, text string) error {
	if text == "" {
		return f.emit(ic, "HidePreeditText")
	}
	cursor := uint32(len([]rune(text)))
	return f.emit(ic, "UpdatePreeditText", dbus.MakeVariant(newText(text)), cursor, true, preeditClear)
}

// SetEventMask implements ime.Server. IBus always routes key presses and
// releases to the engine.
func (f *Frontend) SetEventMask(ime.ContextID, uint32, uint32) error {
	return nil
}

type factory struct {
	f *Frontend
}

// CreateEngine is the org.freedesktop.IBus.Factory method.
func (fa *factory) CreateEngine(name string) (dbus.ObjectPath, *dbus.Error) {
	var path dbus.ObjectPath
	derr := fa.f.run("CreateEngine", func() error {
		var err error
		path, err = fa.f.createEngine(name)
		return err
	})
	return path, derr
}
