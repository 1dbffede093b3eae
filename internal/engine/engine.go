// Package engine wraps a stateful composition engine behind a narrow,
// synchronous interface. One InputEngine belongs to exactly one input
// context and lives exactly as long as it.
package engine

import (
	"fmt"

	"hanim/internal/config"
)

// ResultKind tells the input context handler how to react to a key.
type ResultKind uint8

const (
	// Bypass means the key is unrelated to composition; forward it unchanged.
	Bypass ResultKind = iota
	// Consume means the key was absorbed without any visible effect.
	Consume
	// ClearPreedit discards the in-progress composition without producing text.
	ClearPreedit
	// CommitBypass finalizes Char1 and then forwards the key.
	CommitBypass
	// Commit finalizes Char1.
	Commit
	// CommitCommit finalizes Char1 then Char2 from a single keystroke.
	CommitCommit
	// CommitPreedit finalizes Char1 and starts a new unit with Char2.
	CommitPreedit
	// Preedit reports the in-progress unit Char1.
	Preedit
)

var kindNames = [...]string{
	Bypass:        "Bypass",
	Consume:       "Consume",
	ClearPreedit:  "ClearPreedit",
	CommitBypass:  "CommitBypass",
	Commit:        "Commit",
	CommitCommit:  "CommitCommit",
	CommitPreedit: "CommitPreedit",
	Preedit:       "Preedit",
}

func (k ResultKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ResultKind(%d)", uint8(k))
}

// Result is the outcome of a single key press.
type Result struct {
	Kind  ResultKind
	Char1 rune
	Char2 rune
}

func (r Result) String() string {
	switch r.Kind {
	case CommitCommit, CommitPreedit:
		return fmt.Sprintf("%s(%q, %q)", r.Kind, r.Char1, r.Char2)
	case CommitBypass, Commit, Preedit:
		return fmt.Sprintf("%s(%q)", r.Kind, r.Char1)
	default:
		return r.Kind.String()
	}
}

// Composer is the composition engine contract. Implementations keep their
// own per-context state and must never block.
//
// PressKey never fails: input the composer does not understand yields a
// Bypass result. Reset returns the flushed unit, or 0 when nothing was
// pending, and leaves the composer empty.
type Composer interface {
	PressKey(cfg *config.Snapshot, keycode uint16, state uint32) Result
	Reset() rune
	Close()
}

// Factory builds a fresh Composer for a new input context.
type Factory func() Composer

// InputEngine owns one Composer. The zero value is not usable; use New.
type InputEngine struct {
	c Composer
}

// New acquires a composer from f. The caller must Close the engine.
func New(f Factory) *InputEngine {
	return &InputEngine{c: f()}
}

// PressKey feeds one key press to the composer.
func (e *InputEngine) PressKey(cfg *config.Snapshot, keycode uint16, state uint32) Result {
	if e.c == nil {
		return Result{Kind: Bypass}
	}
	return e.c.PressKey(cfg, keycode, state)
}

// Reset flushes the partially composed unit. ok is false when nothing was
// pending, so a second Reset in a row always reports nothing.
func (e *InputEngine) Reset() (ch rune, ok bool) {
	if e.c == nil {
		return 0, false
	}
	ch = e.c.Reset()
	return ch, ch != 0
}

// Close releases the composer. It is safe to call more than once.
func (e *InputEngine) Close() {
	if e.c == nil {
		return
	}
	e.c.Close()
	e.c = nil
}
