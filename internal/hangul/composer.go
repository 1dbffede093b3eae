// Package hangul implements a Korean 2-set (dubeolsik) composition engine.
//
// The composer keeps at most one syllable in progress: an initial
// consonant, a medial vowel, and a final consonant, any of which may be
// missing. Each key press is answered with an engine.Result describing
// what the input context should commit and display.
package hangul

import (
	"hanim/internal/config"
	"hanim/internal/engine"
)

// Composer holds the syllable being composed and the input mode.
type Composer struct {
	cho, jung, jong rune
	english         bool
}

var _ engine.Composer = (*Composer)(nil)

// New returns an empty composer in Hangul mode.
func New() *Composer {
	return &Composer{}
}

// Factory satisfies engine.Factory.
func Factory() engine.Composer {
	return New()
}

// English reports whether the composer is in English mode.
func (c *Composer) English() bool { return c.english }

// PressKey implements engine.Composer.
func (c *Composer) PressKey(cfg *config.Snapshot, keycode uint16, state uint32) engine.Result {
	if cfg != nil && keycode == cfg.ToggleKeycode() {
		return c.toggle()
	}
	if keycode == keycodeBackSpace {
		return c.backspace()
	}

	if !c.english {
		if jamo, ok := lookup(dubeolsik, keycode, state); ok {
			if isVowel(jamo) {
				return c.vowel(jamo)
			}
			return c.consonant(jamo)
		}
	}

	return c.other(cfg, keycode, state)
}

// Reset implements engine.Composer.
func (c *Composer) Reset() rune {
	ch := c.current()
	c.clear()
	return ch
}

// Close implements engine.Composer.
func (c *Composer) Close() {
	c.clear()
}

func (c *Composer) clear() {
	c.cho, c.jung, c.jong = 0, 0, 0
}

func (c *Composer) empty() bool {
	return c.cho == 0 && c.jung == 0 && c.jong == 0
}

// current renders the unit in progress, or 0 when empty.
func (c *Composer) current() rune {
	switch {
	case c.cho != 0 && c.jung != 0:
		return compose(c.cho, c.jung, c.jong)
	case c.cho != 0:
		return c.cho
	default:
		return c.jung
	}
}

func (c *Composer) toggle() engine.Result {
	c.english = !c.english
	if c.empty() {
		return engine.Result{Kind: engine.Consume}
	}
	return engine.Result{Kind: engine.Commit, Char1: c.Reset()}
}

func (c *Composer) preedit() engine.Result {
	return engine.Result{Kind: engine.Preedit, Char1: c.current()}
}

// restart commits the current unit and begins a new one from the given
// parts.
func (c *Composer) restart(cho, jung rune) engine.Result {
	done := c.current()
	c.cho, c.jung, c.jong = cho, jung, 0
	return engine.Result{Kind: engine.CommitPreedit, Char1: done, Char2: c.current()}
}

func (c *Composer) consonant(j rune) engine.Result {
	switch {
	case c.empty():
		c.cho = j
		return c.preedit()

	case c.jung == 0 || c.cho == 0:
		// A lone consonant or a lone vowel cannot take a final.
		return c.restart(j, 0)

	case c.jong == 0:
		if canBeFinal(j) {
			c.jong = j
			return c.preedit()
		}
		return c.restart(j, 0)

	default:
		if compound, ok := compoundFinals[pair{c.jong, j}]; ok {
			c.jong = compound
			return c.preedit()
		}
		return c.restart(j, 0)
	}
}

func (c *Composer) vowel(v rune) engine.Result {
	switch {
	case c.empty():
		c.jung = v
		return c.preedit()

	case c.jung == 0:
		c.jung = v
		return c.preedit()

	case c.jong == 0:
		if compound, ok := compoundVowels[pair{c.jung, v}]; ok {
			c.jung = compound
			return c.preedit()
		}
		return c.restart(0, v)

	default:
		// The final consonant moves to the next syllable.
		moved := c.jong
		if parts, ok := splitFinals[c.jong]; ok {
			c.jong = parts.a
			moved = parts.b
		} else {
			c.jong = 0
		}
		return c.restart(moved, v)
	}
}

func (c *Composer) backspace() engine.Result {
	switch {
	case c.empty():
		return engine.Result{Kind: engine.Bypass}
	case c.jong != 0:
		if parts, ok := splitFinals[c.jong]; ok {
			c.jong = parts.a
		} else {
			c.jong = 0
		}
	case c.jung != 0:
		if parts, ok := splitVowels[c.jung]; ok {
			c.jung = parts.a
		} else {
			c.jung = 0
		}
	default:
		c.cho = 0
	}

	if c.empty() {
		return engine.Result{Kind: engine.ClearPreedit}
	}
	return c.preedit()
}

// other handles keys that are not jamo in the current mode.
func (c *Composer) other(cfg *config.Snapshot, keycode uint16, state uint32) engine.Result {
	ch, printable := lookup(usASCII, keycode, state)
	direct := printable && cfg != nil && cfg.CommitEnglish()

	if c.empty() {
		if direct {
			return engine.Result{Kind: engine.Commit, Char1: ch}
		}
		return engine.Result{Kind: engine.Bypass}
	}

	pending := c.Reset()
	if direct {
		return engine.Result{Kind: engine.CommitCommit, Char1: pending, Char2: ch}
	}
	return engine.Result{Kind: engine.CommitBypass, Char1: pending}
}
