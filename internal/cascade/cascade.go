// internal/cascade/cascade.go
//
// Continuous-mode clear → gravity → refill cycle.
//
// The engine is a finite state machine advanced by elapsed time:
//
//	Idle ─match─▶ Matched ─▶ Blinking ─▶ Clearing ─▶ Gravity ─▶ Refill ─▶ Idle
//
// Each phase has a fixed duration. Advance consumes a time delta across as
// many phases as it covers and applies each phase's entry mutation exactly
// once, so the same total elapsed time gives the same board no matter how
// it is split into ticks. Only one cycle runs at a time.
//
// Entry mutations:
//   - Matched:  the matched cells are locked.
//   - Clearing: the matched cells become Empty; locks are dropped.
//   - Gravity:  letters in affected columns fall over the gaps; the empty
//     slot becomes the highest (then leftmost) empty cell.
//   - Refill:   every other empty cell receives a new random letter.
//   - Idle:     a new active word is selected.

package cascade

import (
	"math/rand/v2"
	"time"

	"github.com/robalobadob/wordslide/internal/board"
	"github.com/robalobadob/wordslide/internal/match"
	"github.com/robalobadob/wordslide/internal/words"
)

// Phase of the cascade cycle.
type Phase string

const (
	Idle     Phase = "idle"
	Matched  Phase = "matched"
	Blinking Phase = "blinking"
	Clearing Phase = "clearing"
	Gravity  Phase = "gravity"
	Refill   Phase = "refill"
)

var nextPhase = map[Phase]Phase{
	Matched:  Blinking,
	Blinking: Clearing,
	Clearing: Gravity,
	Gravity:  Refill,
	Refill:   Idle,
}

const (
	// HistoryCap bounds the recently-used word list.
	HistoryCap = 100
	// FallbackWord is the active word when nothing in the bank can be
	// built from the board's letters. Boards too small for it get the
	// longest entry of fallbackWords that fits.
	FallbackWord = "SLIDE"
)

var fallbackWords = []string{FallbackWord, "SLID", "LID", "GO"}

// Fallback returns the fallback word for a board whose longest line is
// longest cells and which has open non-blocked cells besides the slot.
func Fallback(longest, open int) string {
	for _, w := range fallbackWords {
		if len(w) <= longest && len(w) <= open {
			return w
		}
	}
	return fallbackWords[len(fallbackWords)-1]
}

// Durations of each timed phase. Matched and Gravity default to zero:
// they are instantaneous steps between the timed highlights.
type Durations struct {
	Matched  time.Duration `json:"matched"`
	Blinking time.Duration `json:"blinking"`
	Clearing time.Duration `json:"clearing"`
	Gravity  time.Duration `json:"gravity"`
	Refill   time.Duration `json:"refill"`
}

// DefaultDurations returns the standard cycle timing.
func DefaultDurations() Durations {
	return Durations{
		Blinking: 2 * time.Second,
		Clearing: 2 * time.Second,
		Refill:   1200 * time.Millisecond,
	}
}

func (d Durations) of(p Phase) time.Duration {
	switch p {
	case Matched:
		return d.Matched
	case Blinking:
		return d.Blinking
	case Clearing:
		return d.Clearing
	case Gravity:
		return d.Gravity
	case Refill:
		return d.Refill
	}
	return 0
}

// State is the serialisable part of the engine.
type State struct {
	Phase   Phase         `json:"phase"`
	Elapsed time.Duration `json:"elapsed"`
	Word    string        `json:"word"`
	Match   *match.Match  `json:"match,omitempty"`
	History []string      `json:"history"`
}

// Transition records one phase change made by Advance.
type Transition struct {
	From Phase  `json:"from"`
	To   Phase  `json:"to"`
	Word string `json:"word,omitempty"` // word cleared, set on the Refill → Idle step
}

// Engine runs the cycle for one session.
type Engine struct {
	bank      *words.Bank
	rng       *rand.Rand
	durations Durations
	st        State
}

// New creates an idle engine with no active word.
func New(bank *words.Bank, rng *rand.Rand, d Durations) *Engine {
	if bank == nil {
		bank = words.NewBank(nil)
	}
	return &Engine{bank: bank, rng: rng, durations: d, st: State{Phase: Idle}}
}

// State returns a copy of the engine state.
func (e *Engine) State() State {
	st := e.st
	st.History = append([]string(nil), e.st.History...)
	if e.st.Match != nil {
		m := *e.st.Match
		st.Match = &m
	}
	return st
}

// Restore replaces the engine state.
func (e *Engine) Restore(st State) {
	if st.Phase == "" {
		st.Phase = Idle
	}
	st.History = append([]string(nil), st.History...)
	e.st = st
}

func (e *Engine) Phase() Phase { return e.st.Phase }

func (e *Engine) Word() string { return e.st.Word }

// Busy reports whether a cycle is in flight.
func (e *Engine) Busy() bool { return e.st.Phase != Idle }

// Remaining returns the time left in the current phase.
func (e *Engine) Remaining() time.Duration {
	if e.st.Phase == Idle {
		return 0
	}
	return e.durations.of(e.st.Phase) - e.st.Elapsed
}

// Trigger starts a cycle if the active word appears anywhere on the board.
// The first occurrence in FindAll order is taken and its cells locked.
func (e *Engine) Trigger(b *board.Board) bool {
	if e.st.Phase != Idle || e.st.Word == "" {
		return false
	}
	found := match.FindAll(b.Grid, e.st.Word)
	if len(found) == 0 {
		return false
	}
	m := found[0]
	e.st.Match = &m
	e.st.Phase = Matched
	e.st.Elapsed = 0
	b.Locked = board.NewPosSet(m.Cells(len(e.st.Word))...)
	return true
}

// Advance moves the cycle forward by dt, mutating b on phase entry.
// Time left over after returning to Idle is discarded.
func (e *Engine) Advance(b *board.Board, dt time.Duration) []Transition {
	var out []Transition
	for e.st.Phase != Idle {
		remaining := e.durations.of(e.st.Phase) - e.st.Elapsed
		if dt < remaining {
			e.st.Elapsed += dt
			return out
		}
		dt -= remaining
		from := e.st.Phase
		to := nextPhase[from]
		tr := Transition{From: from, To: to}
		if to == Idle {
			tr.Word = e.st.Word
		}
		e.enter(to, b)
		out = append(out, tr)
	}
	return out
}

func (e *Engine) enter(p Phase, b *board.Board) {
	e.st.Phase = p
	e.st.Elapsed = 0
	switch p {
	case Clearing:
		e.clear(b)
	case Gravity:
		ApplyGravity(b, e.affectedColumns())
	case Refill:
		e.refill(b)
	case Idle:
		e.st.Match = nil
		e.SelectWord(b.Grid)
	}
}

func (e *Engine) cells() []board.Pos {
	if e.st.Match == nil {
		return nil
	}
	return e.st.Match.Cells(len(e.st.Word))
}

func (e *Engine) clear(b *board.Board) {
	for _, p := range e.cells() {
		if b.Grid.InBounds(p) && !b.Blocked.Has(p) {
			b.Grid.Set(p, board.Empty)
		}
	}
	b.Locked = board.PosSet{}
}

func (e *Engine) affectedColumns() []int {
	seen := map[int]bool{}
	var cols []int
	for _, p := range e.cells() {
		if !seen[p.Col] {
			seen[p.Col] = true
			cols = append(cols, p.Col)
		}
	}
	return cols
}

// ApplyGravity compacts the letters of each listed column towards the
// bottom, skipping blocked cells, and re-homes the empty slot to the
// highest remaining empty cell. A pre-existing empty slot in an affected
// column is closed like a cleared cell.
func ApplyGravity(b *board.Board, cols []int) {
	g := b.Grid
	for _, c := range cols {
		if c < 0 || c >= g.Cols() {
			continue
		}
		var rows []int
		var letters []byte
		for r := 0; r < g.Rows(); r++ {
			p := board.Pos{Row: r, Col: c}
			if b.Blocked.Has(p) {
				continue
			}
			rows = append(rows, r)
			if v := g.At(p); v != board.Empty {
				letters = append(letters, v)
			}
		}
		gap := len(rows) - len(letters)
		for i, r := range rows {
			if i < gap {
				g[r][c] = board.Empty
			} else {
				g[r][c] = letters[i-gap]
			}
		}
	}
	if empties := g.EmptyCells(); len(empties) > 0 {
		b.Empty = empties[0]
	}
}

// refill gives every empty cell but the slot a random letter, then makes
// sure the cleared placement no longer spells the cleared word.
func (e *Engine) refill(b *board.Board) {
	for _, p := range b.Grid.EmptyCells() {
		if p != b.Empty {
			b.Grid.Set(p, e.randomLetter())
		}
	}
	m := e.st.Match
	if m == nil || !match.MatchAt(b.Grid, e.st.Word, m.Row, m.Col, m.Orientation) {
		return
	}
	for i, p := range m.Cells(len(e.st.Word)) {
		if p == b.Empty || b.Blocked.Has(p) {
			continue
		}
		b.Grid.Set(p, e.otherLetter(e.st.Word[i]))
		return
	}
}

func (e *Engine) randomLetter() byte { return byte('A' + e.rng.IntN(26)) }

// otherLetter draws a uniform letter different from not.
func (e *Engine) otherLetter(not byte) byte {
	off := 1 + e.rng.IntN(25)
	return byte('A' + (int(not-'A')+off)%26)
}

// SelectWord picks the next active word: a bank word that fits the grid
// and can be built from its letters, preferring words outside History.
// With no candidate a fallback word that fits the board is used and
// History is left alone.
func (e *Engine) SelectWord(g board.Grid) (word string, fallback bool) {
	counts := g.Letters()
	longest := max(g.Rows(), g.Cols())
	word, ok := e.choose(func(w string) bool {
		return len(w) <= longest && words.Constructible(w, counts)
	})
	if !ok {
		open := -1
		for _, row := range g {
			for _, v := range row {
				if v != board.Blocked {
					open++
				}
			}
		}
		e.st.Word = Fallback(longest, open)
		return e.st.Word, true
	}
	return word, false
}

// SelectInitial picks a word for a fresh board of the given size, before
// any letters exist; the generator then places its letters.
func (e *Engine) SelectInitial(rows, cols int) (word string, fallback bool) {
	longest := max(rows, cols)
	word, ok := e.choose(func(w string) bool {
		return len(w) <= longest && len(w) <= rows*cols-1
	})
	if !ok {
		e.st.Word = Fallback(longest, rows*cols-1)
		return e.st.Word, true
	}
	return word, false
}

func (e *Engine) choose(keep func(string) bool) (string, bool) {
	var cands []string
	for _, w := range e.bank.Words() {
		if keep(w) {
			cands = append(cands, w)
		}
	}
	if len(cands) == 0 {
		return "", false
	}
	used := make(map[string]bool, len(e.st.History))
	for _, w := range e.st.History {
		used[w] = true
	}
	var fresh []string
	for _, w := range cands {
		if !used[w] {
			fresh = append(fresh, w)
		}
	}
	if len(fresh) == 0 {
		e.st.History = nil
		fresh = cands
	}
	w := fresh[e.rng.IntN(len(fresh))]
	e.remember(w)
	e.st.Word = w
	return w, true
}

func (e *Engine) remember(w string) {
	if len(e.st.History) >= HistoryCap {
		e.st.History = nil
	}
	e.st.History = append(e.st.History, w)
}
