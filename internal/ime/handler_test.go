package ime

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanim/internal/config"
	"hanim/internal/engine"
	"hanim/internal/logging"
	"hanim/internal/preedit"
	"hanim/internal/preedit/preedittest"
)

const controlMask uint32 = 1 << 2

// scriptedComposer returns canned results and tracks the pending unit the
// way a real composer would.
type scriptedComposer struct {
	results []engine.Result
	pending rune
	presses int
	resets  int
	closed  int
}

func (c *scriptedComposer) PressKey(_ *config.Snapshot, _ uint16, _ uint32) engine.Result {
	c.presses++
	if len(c.results) == 0 {
		return engine.Result{Kind: engine.Bypass}
	}
	res := c.results[0]
	c.results = c.results[1:]
	switch res.Kind {
	case engine.Preedit:
		c.pending = res.Char1
	case engine.CommitPreedit:
		c.pending = res.Char2
	case engine.ClearPreedit, engine.Commit, engine.CommitCommit, engine.CommitBypass:
		c.pending = 0
	}
	return res
}

func (c *scriptedComposer) Reset() rune {
	c.resets++
	ch := c.pending
	c.pending = 0
	return ch
}

func (c *scriptedComposer) Close() { c.closed++ }

// recordingServer logs into the display's call log so protocol and window
// actions share one ordered trace.
type recordingServer struct {
	d    *preedittest.Display
	fail map[string]error
}

func (s *recordingServer) Commit(ic ContextID, text string) error {
	if err := s.fail["commit"]; err != nil {
		return err
	}
	s.d.Calls = append(s.d.Calls, fmt.Sprintf("commit %d %q", ic, text))
	return nil
}

func (s *recordingServer) PreeditDraw(ic ContextID, text string) error {
	if err := s.fail["preedit"]; err != nil {
		return err
	}
	s.d.Calls = append(s.d.Calls, fmt.Sprintf("preedit %d %q", ic, text))
	return nil
}

func (s *recordingServer) SetEventMask(ic ContextID, forward, sync uint32) error {
	if err := s.fail["mask"]; err != nil {
		return err
	}
	s.d.Calls = append(s.d.Calls, fmt.Sprintf("mask %d %d %d", ic, forward, sync))
	return nil
}

type harness struct {
	h    *Handler
	d    *preedittest.Display
	srv  *recordingServer
	comp []*scriptedComposer
	next [][]engine.Result
}

const (
	overlayStyle = PreeditPosition | StatusNothing
	inlineStyle  = PreeditCallbacks | StatusNothing
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	d := preedittest.New()
	hs := &harness{d: d, srv: &recordingServer{d: d, fail: map[string]error{}}}
	hs.h = NewHandler(Options{
		Config:  config.DefaultConfig().Snapshot(),
		Server:  hs.srv,
		Display: d,
		Engine: func() engine.Composer {
			c := &scriptedComposer{}
			if len(hs.next) > 0 {
				c.results = hs.next[0]
				hs.next = hs.next[1:]
			}
			hs.comp = append(hs.comp, c)
			return c
		},
		Logger: logging.Nop().Logger,
	})
	hs.h.Connect(1)
	return hs
}

// open creates context id with the given style and scripted results.
func (hs *harness) open(t *testing.T, id ContextID, style InputStyle, results ...engine.Result) *scriptedComposer {
	t.Helper()
	hs.next = append(hs.next, results)
	require.NoError(t, hs.h.CreateContext(1, id, ContextAttrs{Style: style, Spot: preedit.Point{X: 10, Y: 30}}))
	hs.d.Reset()
	return hs.comp[len(hs.comp)-1]
}

func (hs *harness) press(t *testing.T, id ContextID) bool {
	t.Helper()
	consumed, err := hs.h.ForwardEvent(id, KeyEvent{Press: true, Keycode: 38})
	require.NoError(t, err)
	return consumed
}

// actions returns the call log without font and GC bookkeeping.
func (hs *harness) actions() []string {
	var out []string
	for _, c := range hs.d.Calls {
		f := strings.Fields(c)
		switch {
		case f[0] == "create" && f[1] != "gc":
			out = append(out, "create "+f[1])
		case f[0] == "commit", f[0] == "preedit", f[0] == "mask", f[0] == "draw", f[0] == "destroy", f[0] == "move", f[0] == "watch":
			out = append(out, c)
		}
	}
	hs.d.Reset()
	return out
}

func (hs *harness) assertAtMostOneWindow(t *testing.T) {
	t.Helper()
	seen := map[preedit.WindowID]ContextID{}
	for id, ic := range hs.h.contexts {
		if ic.window == 0 {
			continue
		}
		other, dup := seen[ic.window]
		assert.False(t, dup, "window %d shared by contexts %d and %d", ic.window, id, other)
		seen[ic.window] = id
		_, ok := hs.h.windows.Get(ic.window)
		assert.True(t, ok, "context %d window %d not registered", id, ic.window)
	}
	assert.Equal(t, len(seen), hs.h.windows.Len())
}

func pre(ch rune) engine.Result { return engine.Result{Kind: engine.Preedit, Char1: ch} }

func TestOverlayResultReactions(t *testing.T) {
	tests := []struct {
		name     string
		primed   bool
		result   engine.Result
		consumed bool
		want     []string
		state    State
	}{
		{"Bypass", false, engine.Result{Kind: engine.Bypass}, false, nil, Idle},
		{"Consume", false, engine.Result{Kind: engine.Consume}, true, nil, Idle},
		{"ConsumeWhileComposing", true, engine.Result{Kind: engine.Consume}, true, nil, ComposingOverlay},
		{"ClearPreedit", true, engine.Result{Kind: engine.ClearPreedit}, true,
			[]string{"destroy 101"}, Idle},
		{"CommitBypass", true, engine.Result{Kind: engine.CommitBypass, Char1: '가'}, false,
			[]string{`commit 1 "가"`, "destroy 101"}, Idle},
		{"Commit", true, engine.Result{Kind: engine.Commit, Char1: '가'}, true,
			[]string{`commit 1 "가"`, "destroy 101"}, Idle},
		{"CommitCommit", true, engine.Result{Kind: engine.CommitCommit, Char1: '가', Char2: '!'}, true,
			[]string{`commit 1 "가"`, `commit 1 "!"`, "destroy 101"}, Idle},
		{"CommitPreedit", true, engine.Result{Kind: engine.CommitPreedit, Char1: '가', Char2: 'ㄴ'}, true,
			[]string{`commit 1 "가"`, "draw 101 'ㄴ'"}, ComposingOverlay},
		{"Preedit", false, pre('ㄱ'), true,
			[]string{"create 101", "draw 101 'ㄱ'"}, ComposingOverlay},
		{"PreeditUpdate", true, pre('가'), true,
			[]string{"draw 101 '가'"}, ComposingOverlay},
		{"CommitBypassIdle", false, engine.Result{Kind: engine.CommitBypass, Char1: 'a'}, false,
			[]string{`commit 1 "a"`}, Idle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t)
			results := []engine.Result{tt.result}
			if tt.primed {
				results = []engine.Result{pre('ㄱ'), tt.result}
			}
			hs.open(t, 1, overlayStyle, results...)
			if tt.primed {
				hs.press(t, 1)
				hs.actions()
			}

			assert.Equal(t, tt.consumed, hs.press(t, 1))
			assert.Equal(t, tt.want, hs.actions())

			ic, ok := hs.h.Context(1)
			require.True(t, ok)
			assert.Equal(t, tt.state, ic.State())
			hs.assertAtMostOneWindow(t)
			if tt.state == Idle {
				assert.Zero(t, hs.d.Live(), "overlay resources leaked")
			}
		})
	}
}

func TestInlineResultReactions(t *testing.T) {
	tests := []struct {
		name     string
		primed   bool
		result   engine.Result
		consumed bool
		want     []string
		state    State
	}{
		{"Preedit", false, pre('ㄱ'), true, []string{`preedit 1 "ㄱ"`}, ComposingInline},
		{"ClearPreedit", true, engine.Result{Kind: engine.ClearPreedit}, true,
			[]string{`preedit 1 ""`}, Idle},
		{"Commit", true, engine.Result{Kind: engine.Commit, Char1: '가'}, true,
			[]string{`commit 1 "가"`, `preedit 1 ""`}, Idle},
		{"CommitCommit", true, engine.Result{Kind: engine.CommitCommit, Char1: '가', Char2: 'a'}, true,
			[]string{`commit 1 "가"`, `commit 1 "a"`, `preedit 1 ""`}, Idle},
		{"CommitBypass", true, engine.Result{Kind: engine.CommitBypass, Char1: '가'}, false,
			[]string{`commit 1 "가"`, `preedit 1 ""`}, Idle},
		{"CommitPreedit", true, engine.Result{Kind: engine.CommitPreedit, Char1: '가', Char2: 'ㄴ'}, true,
			[]string{`commit 1 "가"`, `preedit 1 "ㄴ"`}, ComposingInline},
		{"CommitIdle", false, engine.Result{Kind: engine.Commit, Char1: 'a'}, true,
			[]string{`commit 1 "a"`}, Idle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t)
			results := []engine.Result{tt.result}
			if tt.primed {
				results = []engine.Result{pre('ㄱ'), tt.result}
			}
			hs.open(t, 1, inlineStyle, results...)
			if tt.primed {
				hs.press(t, 1)
				hs.actions()
			}

			assert.Equal(t, tt.consumed, hs.press(t, 1))
			assert.Equal(t, tt.want, hs.actions())

			ic, _ := hs.h.Context(1)
			assert.Equal(t, tt.state, ic.State())
			assert.Zero(t, hs.h.Windows().Len())
			assert.Zero(t, hs.d.Live())
		})
	}
}

func TestCreateContextSelectsKeyEvents(t *testing.T) {
	hs := newHarness(t)
	require.NoError(t, hs.h.CreateContext(1, 5, ContextAttrs{Style: overlayStyle}))
	assert.Equal(t, []string{"mask 5 3 0"}, hs.actions())

	err := hs.h.CreateContext(1, 5, ContextAttrs{Style: overlayStyle})
	assert.ErrorIs(t, err, ErrDuplicateContext)

	err = hs.h.CreateContext(9, 6, ContextAttrs{Style: overlayStyle})
	assert.ErrorIs(t, err, ErrUnknownConnection)
}

func TestUnknownContext(t *testing.T) {
	hs := newHarness(t)

	_, err := hs.h.ForwardEvent(42, KeyEvent{Press: true})
	assert.ErrorIs(t, err, ErrUnknownContext)
	_, err = hs.h.ResetContext(42)
	assert.ErrorIs(t, err, ErrUnknownContext)
	assert.ErrorIs(t, hs.h.DestroyContext(42), ErrUnknownContext)
	assert.ErrorIs(t, hs.h.UnsetFocus(42), ErrUnknownContext)
	assert.ErrorIs(t, hs.h.SetFocus(42), ErrUnknownContext)
	assert.ErrorIs(t, hs.h.Caret(42), ErrUnknownContext)
	assert.ErrorIs(t, hs.h.PreeditStart(42), ErrUnknownContext)
	assert.ErrorIs(t, hs.h.SetValues(42, ContextAttrs{}), ErrUnknownContext)
}

func TestReleaseEventsNeverReachEngine(t *testing.T) {
	hs := newHarness(t)
	comp := hs.open(t, 1, overlayStyle, pre('ㄱ'), engine.Result{Kind: engine.Commit, Char1: '가'})
	hs.press(t, 1)
	hs.actions()

	for _, state := range []uint32{0, ShiftMask, controlMask} {
		consumed, err := hs.h.ForwardEvent(1, KeyEvent{Press: false, Keycode: 38, State: state})
		require.NoError(t, err)
		assert.False(t, consumed)
	}

	assert.Equal(t, 1, comp.presses)
	assert.Zero(t, comp.resets)
	assert.Empty(t, hs.actions())
	ic, _ := hs.h.Context(1)
	assert.Equal(t, ComposingOverlay, ic.State())
}

func TestShiftAloneReachesEngine(t *testing.T) {
	hs := newHarness(t)
	comp := hs.open(t, 1, overlayStyle, pre('ㄲ'))

	consumed, err := hs.h.ForwardEvent(1, KeyEvent{Press: true, Keycode: 24, State: ShiftMask})
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.Equal(t, 1, comp.presses)
	assert.Zero(t, comp.resets)
}

func TestModifiedKeyFlushesThenForwards(t *testing.T) {
	for _, style := range []InputStyle{overlayStyle, inlineStyle} {
		t.Run(style.String(), func(t *testing.T) {
			hs := newHarness(t)
			comp := hs.open(t, 1, style, pre('ㄴ'))
			hs.press(t, 1)
			hs.actions()

			consumed, err := hs.h.ForwardEvent(1, KeyEvent{Press: true, Keycode: 38, State: ShiftMask | controlMask})
			require.NoError(t, err)
			assert.False(t, consumed)

			clear := "destroy 101"
			if style.Inline() {
				clear = `preedit 1 ""`
			}
			assert.Equal(t, []string{clear, `commit 1 "ㄴ"`}, hs.actions())
			assert.Equal(t, 1, comp.presses, "engine consulted for modified key")

			// Nothing left to flush.
			consumed, err = hs.h.ForwardEvent(1, KeyEvent{Press: true, Keycode: 38, State: controlMask})
			require.NoError(t, err)
			assert.False(t, consumed)
			assert.Empty(t, hs.actions())
		})
	}
}

func TestCompositionScenario(t *testing.T) {
	hs := newHarness(t)
	hs.open(t, 1, overlayStyle,
		pre('ㄱ'),
		engine.Result{Kind: engine.CommitPreedit, Char1: '가', Char2: 'ㄴ'},
	)

	// First key opens an overlay showing the jamo.
	assert.True(t, hs.press(t, 1))
	assert.Equal(t, []string{"create 101", "draw 101 'ㄱ'"}, hs.actions())
	assert.Equal(t, 1, hs.h.Windows().Len())
	assert.Equal(t, 'ㄱ', hs.d.Glyphs[101])

	// Second key commits the syllable and keeps composing in the same window.
	assert.True(t, hs.press(t, 1))
	assert.Equal(t, []string{`commit 1 "가"`, "draw 101 'ㄴ'"}, hs.actions())
	assert.Equal(t, 1, hs.h.Windows().Len())
	assert.Equal(t, 'ㄴ', hs.d.Glyphs[101])

	// Losing focus flushes the pending jamo and removes the window.
	require.NoError(t, hs.h.UnsetFocus(1))
	assert.Equal(t, []string{"destroy 101", `commit 1 "ㄴ"`}, hs.actions())
	assert.Zero(t, hs.h.Windows().Len())
	assert.Zero(t, hs.d.Live())

	// Gaining focus does nothing visible.
	require.NoError(t, hs.h.SetFocus(1))
	assert.Empty(t, hs.actions())
}

func TestResetIsIdempotent(t *testing.T) {
	hs := newHarness(t)
	hs.open(t, 1, overlayStyle, pre('ㄱ'))
	hs.press(t, 1)
	hs.actions()

	require.NoError(t, hs.h.UnsetFocus(1))
	require.NoError(t, hs.h.UnsetFocus(1))
	assert.Equal(t, []string{"destroy 101", `commit 1 "ㄱ"`}, hs.actions())
}

func TestResetContextReply(t *testing.T) {
	for _, style := range []InputStyle{overlayStyle, inlineStyle} {
		t.Run(style.String(), func(t *testing.T) {
			hs := newHarness(t)
			hs.open(t, 1, style, pre('ㄱ'))
			hs.press(t, 1)
			hs.actions()

			text, err := hs.h.ResetContext(1)
			require.NoError(t, err)
			assert.Equal(t, "ㄱ", text)

			// The reply carries the text; no separate commit is sent.
			for _, a := range hs.actions() {
				assert.NotContains(t, a, "commit")
			}
			ic, _ := hs.h.Context(1)
			assert.Equal(t, Idle, ic.State())

			text, err = hs.h.ResetContext(1)
			require.NoError(t, err)
			assert.Empty(t, text)
			assert.Empty(t, hs.actions())
		})
	}
}

func TestDestroyDiscardsComposition(t *testing.T) {
	hs := newHarness(t)
	comp := hs.open(t, 1, overlayStyle, pre('ㄱ'))
	hs.press(t, 1)
	hs.actions()

	require.NoError(t, hs.h.DestroyContext(1))
	assert.Equal(t, []string{"destroy 101"}, hs.actions())

	_, ok := hs.h.Windows().Get(101)
	assert.False(t, ok)
	assert.Zero(t, hs.d.Live())
	assert.Equal(t, 1, comp.closed)
	assert.Zero(t, comp.resets)

	_, ok = hs.h.Context(1)
	assert.False(t, ok)
}

func TestDisconnectDestroysContexts(t *testing.T) {
	hs := newHarness(t)
	hs.h.Connect(2)
	hs.open(t, 1, overlayStyle, pre('ㄱ'))
	hs.open(t, 2, inlineStyle, pre('ㄴ'))
	hs.next = append(hs.next, []engine.Result{pre('ㄷ')})
	require.NoError(t, hs.h.CreateContext(2, 3, ContextAttrs{Style: overlayStyle}))
	hs.press(t, 1)
	hs.press(t, 2)
	hs.press(t, 3)
	hs.actions()
	require.Equal(t, 2, hs.h.Windows().Len())

	require.NoError(t, hs.h.Disconnect(1))
	assert.Equal(t, []string{"destroy 101"}, hs.actions())
	_, ok := hs.h.Context(1)
	assert.False(t, ok)
	_, ok = hs.h.Context(2)
	assert.False(t, ok)
	_, ok = hs.h.Context(3)
	assert.True(t, ok)
	assert.Equal(t, 1, hs.h.Windows().Len())
	hs.assertAtMostOneWindow(t)

	err := hs.h.CreateContext(1, 4, ContextAttrs{})
	assert.ErrorIs(t, err, ErrUnknownConnection)
}

func TestExposeAndConfigure(t *testing.T) {
	hs := newHarness(t)
	hs.open(t, 1, overlayStyle, pre('ㄱ'))
	hs.press(t, 1)
	hs.actions()

	require.NoError(t, hs.h.Expose(999))
	assert.Empty(t, hs.actions())

	hs.d.Glyphs[101] = 0
	require.NoError(t, hs.h.Expose(101))
	assert.Equal(t, []string{"draw 101 'ㄱ'"}, hs.actions())

	// The overlay follows the root-relative spot; target 0 never matches,
	// and the overlay's own configure events are ignored.
	require.NoError(t, hs.h.ConfigureNotify(preedit.ConfigureEvent{Window: 555}))
	require.NoError(t, hs.h.ConfigureNotify(preedit.ConfigureEvent{Window: 101}))
	assert.Empty(t, hs.actions())
}

func TestConfigureFollowsTarget(t *testing.T) {
	hs := newHarness(t)
	hs.next = append(hs.next, []engine.Result{pre('ㄱ')})
	require.NoError(t, hs.h.CreateContext(1, 1, ContextAttrs{Style: overlayStyle, AppWindow: 7, Spot: preedit.Point{X: 10, Y: 30}}))
	hs.press(t, 1)
	hs.actions()

	hs.d.Origins[7] = preedit.Point{X: 200, Y: 100}
	require.NoError(t, hs.h.ConfigureNotify(preedit.ConfigureEvent{Window: 7, X: 200, Y: 100}))
	assert.Equal(t, []string{"move 101 to 210,112"}, hs.actions())
}

func TestSetValuesMovesOverlay(t *testing.T) {
	hs := newHarness(t)
	hs.open(t, 1, overlayStyle, pre('ㄱ'))

	// No window yet: only the attributes change.
	require.NoError(t, hs.h.SetValues(1, ContextAttrs{Style: inlineStyle, Spot: preedit.Point{X: 20, Y: 40}}))
	assert.Empty(t, hs.actions())
	ic, _ := hs.h.Context(1)
	assert.Equal(t, overlayStyle, ic.Attrs().Style)

	hs.press(t, 1)
	assert.Equal(t, preedit.Point{X: 20, Y: 22}, hs.d.Windows[101])
	hs.actions()

	require.NoError(t, hs.h.SetValues(1, ContextAttrs{Spot: preedit.Point{X: 40, Y: 50}}))
	assert.Equal(t, []string{"move 101 to 40,32"}, hs.actions())

	require.NoError(t, hs.h.SetValues(1, ContextAttrs{Spot: preedit.Point{X: 40, Y: 50}}))
	assert.Empty(t, hs.actions())
}

func TestSetValuesRetargetsOverlay(t *testing.T) {
	hs := newHarness(t)
	hs.next = append(hs.next, []engine.Result{pre('ㄱ')})
	require.NoError(t, hs.h.CreateContext(1, 1, ContextAttrs{Style: overlayStyle, AppWindow: 500, Spot: preedit.Point{X: 10, Y: 30}}))
	hs.d.Origins[500] = preedit.Point{X: 100, Y: 100}
	hs.d.Origins[600] = preedit.Point{X: 300, Y: 200}
	hs.press(t, 1)
	hs.actions()

	// Same spot, new client window.
	require.NoError(t, hs.h.SetValues(1, ContextAttrs{AppWindow: 600, Spot: preedit.Point{X: 10, Y: 30}}))
	assert.Equal(t, []string{"watch 600", "move 101 to 310,212"}, hs.actions())

	w, ok := hs.h.Windows().Get(101)
	require.True(t, ok)
	assert.Equal(t, preedit.WindowID(600), w.Target())
	assert.Empty(t, hs.h.Windows().ByTarget(500))

	// Only the new client window is followed.
	require.NoError(t, hs.h.ConfigureNotify(preedit.ConfigureEvent{Window: 500}))
	assert.Empty(t, hs.actions())
	hs.d.Origins[600] = preedit.Point{X: 0, Y: 0}
	require.NoError(t, hs.h.ConfigureNotify(preedit.ConfigureEvent{Window: 600}))
	assert.Equal(t, []string{"move 101 to 10,12"}, hs.actions())

	// A failed watch keeps the overlay on its current target.
	boom := errors.New("bad window")
	hs.d.Fail["watch"] = boom
	err := hs.h.SetValues(1, ContextAttrs{AppWindow: 700, Spot: preedit.Point{X: 10, Y: 30}})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, preedit.WindowID(600), w.Target())
}

func TestCreateContextMaskFailureLeavesNoContext(t *testing.T) {
	hs := newHarness(t)
	boom := errors.New("boom")
	hs.srv.fail["mask"] = boom

	err := hs.h.CreateContext(1, 7, ContextAttrs{Style: overlayStyle})
	assert.ErrorIs(t, err, boom)
	_, ok := hs.h.Context(7)
	assert.False(t, ok)
	assert.Empty(t, hs.comp, "no engine is acquired")
	assert.Equal(t, int64(0), hs.h.metrics.InputContexts.Value())
	assert.Equal(t, uint64(0), hs.h.metrics.ContextsCreatedTotal.Value())

	delete(hs.srv.fail, "mask")
	require.NoError(t, hs.h.CreateContext(1, 7, ContextAttrs{Style: overlayStyle}))
	_, ok = hs.h.Context(7)
	assert.True(t, ok)
	assert.Len(t, hs.comp, 1)
}

func TestWindowCreationFailurePropagates(t *testing.T) {
	hs := newHarness(t)
	hs.open(t, 1, overlayStyle, pre('ㄱ'))
	boom := errors.New("no font")
	hs.d.Fail["open font"] = boom

	_, err := hs.h.ForwardEvent(1, KeyEvent{Press: true, Keycode: 38})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var werr *preedit.WindowError
	assert.ErrorAs(t, err, &werr)

	ic, _ := hs.h.Context(1)
	assert.Equal(t, Idle, ic.State())
	assert.Zero(t, hs.h.Windows().Len())
	assert.Zero(t, hs.d.Live())
}

func TestCommitFailurePropagates(t *testing.T) {
	hs := newHarness(t)
	hs.open(t, 1, overlayStyle, engine.Result{Kind: engine.Commit, Char1: 'a'})
	boom := errors.New("connection lost")
	hs.srv.fail["commit"] = boom

	_, err := hs.h.ForwardEvent(1, KeyEvent{Press: true, Keycode: 38})
	assert.ErrorIs(t, err, boom)
}

func TestRegistryDesyncPanics(t *testing.T) {
	hs := newHarness(t)
	hs.open(t, 1, overlayStyle, pre('ㄱ'), pre('가'))
	hs.press(t, 1)

	w, ok := hs.h.windows.Remove(101)
	require.True(t, ok)
	t.Cleanup(func() { w.Clean(hs.d) })

	assert.Panics(t, func() {
		hs.h.ForwardEvent(1, KeyEvent{Press: true, Keycode: 38})
	})
}

func TestMetrics(t *testing.T) {
	hs := newHarness(t)
	hs.open(t, 1, overlayStyle, pre('ㄱ'), engine.Result{Kind: engine.CommitPreedit, Char1: '가', Char2: 'ㄴ'})
	hs.press(t, 1)
	hs.press(t, 1)
	hs.h.ForwardEvent(1, KeyEvent{Press: false})

	m := hs.h.metrics
	assert.Equal(t, uint64(2), m.KeysTotal.Value())
	assert.Equal(t, uint64(2), m.ConsumedKeysTotal.Value())
	assert.Equal(t, uint64(1), m.CommitsTotal.Value())
	assert.Equal(t, int64(1), m.PreeditWindows.Value())
	assert.Equal(t, int64(1), m.InputContexts.Value())

	require.NoError(t, hs.h.DestroyContext(1))
	assert.Equal(t, int64(0), m.PreeditWindows.Value())
	assert.Equal(t, int64(0), m.InputContexts.Value())
	assert.Equal(t, uint64(1), m.ContextsCreatedTotal.Value())
}
