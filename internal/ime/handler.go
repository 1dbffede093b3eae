package ime

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"hanim/internal/config"
	"hanim/internal/engine"
	"hanim/internal/metrics"
	"hanim/internal/preedit"
)

// Options configures a Handler.
type Options struct {
	Config  *config.Snapshot
	Server  Server
	Display preedit.Display
	Engine  engine.Factory

	// Screen is the X screen overlay windows are created on.
	Screen int

	Logger  *slog.Logger
	Metrics *metrics.ServerMetrics
}

// Handler is the input context state machine. It receives protocol
// callbacks, consults each context's engine, and drives the Server and
// the overlay windows.
type Handler struct {
	cfg       *config.Snapshot
	srv       Server
	display   preedit.Display
	newEngine engine.Factory
	screen    int
	logger    *slog.Logger
	metrics   *metrics.ServerMetrics

	windows  *preedit.Registry
	contexts map[ContextID]*InputContext
	conns    map[ConnID]struct{}
}

// NewHandler builds a handler. Config, Server, Display and Engine are
// required.
func NewHandler(opts Options) *Handler {
	if opts.Config == nil || opts.Server == nil || opts.Display == nil || opts.Engine == nil {
		panic("ime: NewHandler requires Config, Server, Display and Engine")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewServerMetrics(nil)
	}
	return &Handler{
		cfg:       opts.Config,
		srv:       opts.Server,
		display:   opts.Display,
		newEngine: opts.Engine,
		screen:    opts.Screen,
		logger:    logger,
		metrics:   m,
		windows:   preedit.NewRegistry(),
		contexts:  make(map[ContextID]*InputContext),
		conns:     make(map[ConnID]struct{}),
	}
}

// Context returns the live context with the given id.
func (h *Handler) Context(id ContextID) (*InputContext, bool) {
	ic, ok := h.contexts[id]
	return ic, ok
}

// Windows returns the overlay window registry.
func (h *Handler) Windows() *preedit.Registry { return h.windows }

func (h *Handler) lookup(id ContextID) (*InputContext, error) {
	ic, ok := h.contexts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownContext, id)
	}
	return ic, nil
}

// mustWindow returns the overlay the context refers to. A context pointing
// at a window missing from the registry cannot be recovered from.
func (h *Handler) mustWindow(ic *InputContext) *preedit.Window {
	w, ok := h.windows.Get(ic.window)
	if !ok {
		panic(fmt.Sprintf("ime: context %d refers to window %d missing from registry", ic.id, ic.window))
	}
	return w
}

// Connect registers a client connection.
func (h *Handler) Connect(conn ConnID) {
	h.conns[conn] = struct{}{}
	h.logger.Info("client connected", "conn", conn)
}

// Disconnect destroys every context of conn. Pending compositions are
// discarded like on DestroyContext.
func (h *Handler) Disconnect(conn ConnID) error {
	var ids []ContextID
	for id, ic := range h.contexts {
		if ic.conn == conn {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs []error
	for _, id := range ids {
		errs = append(errs, h.DestroyContext(id))
	}
	delete(h.conns, conn)
	h.logger.Info("client disconnected", "conn", conn, "contexts", len(ids))
	return errors.Join(errs...)
}

// CreateContext registers a context on conn and asks the client to
// forward key presses and releases.
func (h *Handler) CreateContext(conn ConnID, id ContextID, attrs ContextAttrs) error {
	if _, ok := h.conns[conn]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownConnection, conn)
	}
	if _, ok := h.contexts[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateContext, id)
	}

	// Register only once the client forwards key events.
	if err := h.srv.SetEventMask(id, KeyPressMask|KeyReleaseMask, 0); err != nil {
		return fmt.Errorf("set event mask for %d: %w", id, err)
	}

	ic := &InputContext{
		id:     id,
		conn:   conn,
		attrs:  attrs,
		engine: engine.New(h.newEngine),
	}
	h.contexts[id] = ic
	h.metrics.ContextsCreatedTotal.Inc()
	h.metrics.InputContexts.Inc()
	h.logger.Info("input context created", "ic", id, "conn", conn, "style", attrs.Style, "inline", attrs.Style.Inline())
	return nil
}

// SetValues updates the client window and spot. The style is fixed at
// creation and ignored here. A live overlay follows the new client window
// and is moved to the new spot.
func (h *Handler) SetValues(id ContextID, attrs ContextAttrs) error {
	ic, err := h.lookup(id)
	if err != nil {
		return err
	}
	retarget := attrs.AppWindow != ic.attrs.AppWindow
	moved := retarget || attrs.Spot != ic.attrs.Spot
	ic.attrs.AppWindow = attrs.AppWindow
	ic.attrs.Spot = attrs.Spot

	if !moved || ic.window == 0 {
		return nil
	}
	w := h.mustWindow(ic)
	if retarget {
		return w.SetTarget(h.display, ic.attrs.AppWindow, ic.attrs.Spot)
	}
	return w.SetSpot(h.display, ic.attrs.Spot)
}

// DestroyContext tears down the context's overlay and drops its engine.
// Any pending unit is discarded without being committed.
func (h *Handler) DestroyContext(id ContextID) error {
	ic, err := h.lookup(id)
	if err != nil {
		return err
	}
	delete(h.contexts, id)
	h.metrics.InputContexts.Dec()

	err = h.destroyWindow(ic)
	ic.engine.Close()
	h.logger.Info("input context destroyed", "ic", id)
	return err
}

// ResetContext flushes the engine, clears the preedit and returns the
// flushed text as the reply. The reply is the commit; nothing else is
// sent to the client.
func (h *Handler) ResetContext(id ContextID) (string, error) {
	ic, err := h.lookup(id)
	if err != nil {
		return "", err
	}
	h.metrics.ResetsTotal.Inc()

	ch, ok := ic.engine.Reset()
	if err := h.clearPreedit(ic); err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return string(ch), nil
}

// SetFocus is called when the context gains focus.
func (h *Handler) SetFocus(id ContextID) error {
	_, err := h.lookup(id)
	return err
}

// UnsetFocus flushes and commits the pending unit.
func (h *Handler) UnsetFocus(id ContextID) error {
	ic, err := h.lookup(id)
	if err != nil {
		return err
	}
	return h.flush(ic)
}

// Caret is accepted and ignored.
func (h *Handler) Caret(id ContextID) error {
	_, err := h.lookup(id)
	return err
}

// PreeditStart is accepted and ignored.
func (h *Handler) PreeditStart(id ContextID) error {
	_, err := h.lookup(id)
	return err
}

// ForwardEvent handles a key event and reports whether it was consumed.
// Unconsumed keys must be sent back to the client unchanged.
func (h *Handler) ForwardEvent(id ContextID, ev KeyEvent) (bool, error) {
	ic, err := h.lookup(id)
	if err != nil {
		return false, err
	}
	if !ev.Press {
		return false, nil
	}

	start := time.Now()
	defer h.metrics.KeyLatency.ObserveSince(start)
	h.metrics.KeysTotal.Inc()

	if ev.State&^ShiftMask != 0 {
		if err := h.flush(ic); err != nil {
			return false, err
		}
		return false, nil
	}

	res := ic.engine.PressKey(h.cfg, ev.Keycode, ev.State)
	h.logger.Debug("key", "ic", id, "keycode", ev.Keycode, "state", ev.State, "result", res)

	consumed, err := h.apply(ic, res)
	if consumed {
		h.metrics.ConsumedKeysTotal.Inc()
	}
	return consumed, err
}

func (h *Handler) apply(ic *InputContext, res engine.Result) (bool, error) {
	switch res.Kind {
	case engine.Bypass:
		return false, nil

	case engine.Consume:
		return true, nil

	case engine.ClearPreedit:
		return true, h.clearPreedit(ic)

	case engine.CommitBypass:
		if err := h.commit(ic, res.Char1); err != nil {
			return false, err
		}
		return false, h.clearPreedit(ic)

	case engine.Commit:
		if err := h.commit(ic, res.Char1); err != nil {
			return true, err
		}
		return true, h.clearPreedit(ic)

	case engine.CommitCommit:
		if err := h.commit(ic, res.Char1); err != nil {
			return true, err
		}
		if err := h.commit(ic, res.Char2); err != nil {
			return true, err
		}
		return true, h.clearPreedit(ic)

	case engine.CommitPreedit:
		if err := h.commit(ic, res.Char1); err != nil {
			return true, err
		}
		return true, h.showPreedit(ic, res.Char2)

	case engine.Preedit:
		return true, h.showPreedit(ic, res.Char1)

	default:
		h.logger.Warn("unknown engine result", "ic", ic.id, "result", res)
		return false, nil
	}
}

// flush is the reset trigger: the preedit is cleared first, then the
// flushed unit is committed.
func (h *Handler) flush(ic *InputContext) error {
	h.metrics.ResetsTotal.Inc()
	ch, ok := ic.engine.Reset()
	if err := h.clearPreedit(ic); err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return h.commit(ic, ch)
}

func (h *Handler) commit(ic *InputContext, ch rune) error {
	h.metrics.CommitsTotal.Inc()
	if err := h.srv.Commit(ic.id, string(ch)); err != nil {
		return fmt.Errorf("commit %q to context %d: %w", ch, ic.id, err)
	}
	return nil
}

func (h *Handler) showPreedit(ic *InputContext, ch rune) error {
	if ic.attrs.Style.Inline() {
		if err := h.srv.PreeditDraw(ic.id, string(ch)); err != nil {
			return fmt.Errorf("preedit draw on context %d: %w", ic.id, err)
		}
		ic.inline = true
		return nil
	}

	if ic.window == 0 {
		w, err := preedit.New(h.display, h.cfg, ic.attrs.AppWindow, ic.attrs.Spot, h.screen)
		if err != nil {
			return err
		}
		h.windows.Insert(w)
		ic.window = w.ID()
		h.metrics.PreeditWindows.Inc()
		h.logger.Debug("preedit window created", "ic", ic.id, "window", w.ID(), "target", ic.attrs.AppWindow)
	}
	return h.mustWindow(ic).SetPreedit(h.display, ch)
}

// clearPreedit returns the context to Idle.
func (h *Handler) clearPreedit(ic *InputContext) error {
	if ic.inline {
		ic.inline = false
		if err := h.srv.PreeditDraw(ic.id, ""); err != nil {
			return fmt.Errorf("preedit clear on context %d: %w", ic.id, err)
		}
	}
	return h.destroyWindow(ic)
}

func (h *Handler) destroyWindow(ic *InputContext) error {
	if ic.window == 0 {
		return nil
	}
	w := h.mustWindow(ic)
	h.windows.Remove(ic.window)
	ic.window = 0
	h.metrics.PreeditWindows.Dec()
	h.logger.Debug("preedit window destroyed", "ic", ic.id, "window", w.ID())
	return w.Clean(h.display)
}

// Expose repaints the overlay with the given id. Unknown windows are
// ignored.
func (h *Handler) Expose(window preedit.WindowID) error {
	w, ok := h.windows.Get(window)
	if !ok {
		return nil
	}
	return w.Expose(h.display)
}

// ConfigureNotify moves overlays following the reconfigured window.
func (h *Handler) ConfigureNotify(ev preedit.ConfigureEvent) error {
	var errs []error
	for _, w := range h.windows.ByTarget(ev.Window) {
		errs = append(errs, w.ConfigureNotify(h.display, ev))
	}
	return errors.Join(errs...)
}
