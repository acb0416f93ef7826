// internal/game/session.go
//
// Session is the per-game coordinator: it owns the board, validates move
// requests, times the slide transition, commits moves, runs the win check
// for its mode and drives the continuous-mode cascade.
//
// Protocol for one move:
//  1. RequestMove rejects immediately when a slide or cascade is in
//     flight, or the cell is locked, blocked or not next to the slot.
//  2. Otherwise a slide of Config.SlideDuration starts.
//  3. Tick completes the slide: the move is applied, Moves is bumped,
//     locks are refreshed and the mode's win check runs.
//  4. Classic: a finished board reports EventLevelComplete. Continuous:
//     a found word starts a cascade and moves wait until it returns to
//     idle.
//
// Win checks: classic levels complete only when every word sits at its
// anchor (match.IsAnchored); continuous mode reacts to the active word
// appearing anywhere (match.FindAll).
//
// A Session is not safe for concurrent use. Slides and cascade phases
// cannot be cancelled; time only moves through Tick.

package game

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	mrand "math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordslide/internal/board"
	"github.com/robalobadob/wordslide/internal/cascade"
	"github.com/robalobadob/wordslide/internal/difficulty"
	"github.com/robalobadob/wordslide/internal/generator"
	"github.com/robalobadob/wordslide/internal/hint"
	"github.com/robalobadob/wordslide/internal/match"
	"github.com/robalobadob/wordslide/internal/words"
)

const (
	// DefaultSlideDuration is eight frames at 60 Hz.
	DefaultSlideDuration = 8 * time.Second / 60

	DefaultContinuousRows = 5
	DefaultContinuousCols = 5

	// PointsPerLetter scores a cleared continuous-mode word.
	PointsPerLetter = 10
)

// LevelListener is told when a classic level is finished.
type LevelListener interface {
	LevelComplete(s Snapshot)
}

// Config describes a new session.
type Config struct {
	Mode       Mode
	Level      int // classic: 1-based level number
	Rows       int // continuous: grid size
	Cols       int
	Difficulty difficulty.Level
	Seed       uint64 // 0 draws a random seed

	SlideDuration time.Duration
	Cascade       cascade.Durations
	HintPenalty   int
	Bank          *words.Bank
	Generator     *generator.Options
	Listener      LevelListener
}

func (c *Config) defaults() {
	if c.Mode == "" {
		c.Mode = ModeClassic
	}
	if c.Level < 1 {
		c.Level = 1
	}
	if c.Rows < 1 {
		c.Rows = DefaultContinuousRows
	}
	if c.Cols < 1 {
		c.Cols = DefaultContinuousCols
	}
	if c.Difficulty == "" {
		c.Difficulty = difficulty.Easy
	}
	if c.SlideDuration <= 0 {
		c.SlideDuration = DefaultSlideDuration
	}
	if c.Cascade == (cascade.Durations{}) {
		c.Cascade = cascade.DefaultDurations()
	}
	if c.HintPenalty <= 0 {
		c.HintPenalty = hint.Penalty
	}
	if c.Bank == nil {
		c.Bank = words.Default()
	}
}

// Session is one player's game.
type Session struct {
	ID string

	cfg  Config
	pcg  *mrand.PCG
	rng  *mrand.Rand
	gen  *generator.Generator
	casc *cascade.Engine

	b         board.Board
	words     []string // classic targets; continuous uses casc.Word()
	level     int
	rows      int
	cols      int
	moves     int
	score     int
	cleared   int
	complete  bool
	exhausted bool
	slide     *Slide
}

// New starts a session with a freshly generated board.
func New(cfg Config) (*Session, error) {
	cfg.defaults()
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = randomSeed()
	}
	s := newSession(cfg, mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s.ID = randomID()
	s.level = cfg.Level
	if err := s.startLevel(); err != nil {
		return nil, err
	}
	return s, nil
}

func newSession(cfg Config, pcg *mrand.PCG) *Session {
	rng := mrand.New(pcg)
	return &Session{
		cfg:  cfg,
		pcg:  pcg,
		rng:  rng,
		gen:  generator.New(rng, cfg.Generator),
		casc: cascade.New(cfg.Bank, rng, cfg.Cascade),
	}
}

// startLevel generates the board for the current level (classic) or a
// fresh continuous board, resetting per-board state.
func (s *Session) startLevel() error {
	req := generator.Request{}
	switch s.cfg.Mode {
	case ModeClassic:
		lv, err := words.LevelAt(s.level)
		if err != nil {
			return err
		}
		s.words = lv.Words
		s.rows, s.cols = lv.Rows, lv.Cols
		req.Words = lv.Words
		req.Check = generator.CheckAnchored
	case ModeContinuous:
		s.rows, s.cols = s.cfg.Rows, s.cfg.Cols
		word, fallback := s.casc.SelectInitial(s.rows, s.cols)
		if fallback {
			log.Warn().Str("word", word).Msg("no bank word fits the board; using fallback")
		}
		s.words = nil
		req.Words = []string{word}
		req.Check = generator.CheckAnywhere
	}
	req.Rows, req.Cols = s.rows, s.cols
	req.Blocked = difficulty.Blocked(s.cfg.Difficulty, difficulty.Shape{
		Rows:    s.rows,
		Cols:    s.cols,
		Words:   len(s.words),
		Letters: letterCount(req.Words),
	}, s.rng)

	res, err := s.gen.Generate(req)
	if err != nil {
		return fmt.Errorf("start level %d: %w", s.level, err)
	}
	s.b = res.Board
	s.exhausted = res.Exhausted
	s.complete = false
	s.slide = nil
	if s.cfg.Mode == ModeClassic {
		s.b.Locked = match.Locks(s.b.Grid, s.words)
	}
	return nil
}

func letterCount(ws []string) int {
	n := 0
	for _, w := range ws {
		n += len(w)
	}
	return n
}

// Mode returns the session's rules.
func (s *Session) Mode() Mode { return s.cfg.Mode }

// Busy reports whether a slide or cascade is in flight.
func (s *Session) Busy() bool { return s.slide != nil || s.casc.Busy() }

// Complete reports whether the classic level is finished.
func (s *Session) Complete() bool { return s.complete }

// Moves returns the move counter, hint penalties included.
func (s *Session) Moves() int { return s.moves }

// Words returns the current target words.
func (s *Session) Words() []string {
	if s.cfg.Mode == ModeContinuous {
		if w := s.casc.Word(); w != "" {
			return []string{w}
		}
		return nil
	}
	return append([]string(nil), s.words...)
}

// RequestMove validates a move of the tile at p and starts its slide.
// Rejections leave the session untouched.
func (s *Session) RequestMove(p board.Pos) ([]Event, error) {
	switch {
	case s.Busy():
		return nil, ErrBusy
	case s.complete:
		return nil, ErrLevelComplete
	case s.b.Locked.Has(p):
		return nil, ErrLocked
	case s.b.Blocked.Has(p):
		return nil, ErrBlocked
	case !s.b.CanMove(p):
		return nil, ErrNotAdjacent
	}
	s.slide = &Slide{From: p, To: s.b.Empty}
	from, to := p, s.b.Empty
	return []Event{{Kind: EventMoveStarted, From: &from, To: &to}}, nil
}

// Tick advances time by dt: it finishes a pending slide and drives the
// cascade. Time left after a slide completes flows into a cascade it
// starts.
func (s *Session) Tick(dt time.Duration) []Event {
	if dt < 0 {
		dt = 0
	}
	var events []Event
	if s.slide != nil {
		remaining := s.cfg.SlideDuration - s.slide.Elapsed
		if dt < remaining {
			s.slide.Elapsed += dt
			return nil
		}
		dt -= remaining
		events = append(events, s.commit()...)
	}
	if s.casc.Busy() {
		events = append(events, s.advanceCascade(dt)...)
	}
	return events
}

// Settle runs Tick until nothing is in flight and returns every event.
func (s *Session) Settle() []Event {
	var events []Event
	for s.Busy() {
		step := s.cfg.SlideDuration
		if s.slide == nil {
			step = s.casc.Remaining()
		}
		events = append(events, s.Tick(step)...)
	}
	return events
}

// commit applies the pending slide.
func (s *Session) commit() []Event {
	sl := s.slide
	s.slide = nil
	next, err := s.b.ApplyMove(sl.From)
	if err != nil {
		// RequestMove validated this and nothing else mutates the board
		// while a slide is pending.
		log.Error().Err(err).Str("session", s.ID).Msg("slide no longer valid; dropped")
		return nil
	}
	s.b = next
	s.moves++
	from, to := sl.From, sl.To
	events := []Event{{Kind: EventMoveCommitted, From: &from, To: &to}}

	switch s.cfg.Mode {
	case ModeClassic:
		s.b.Locked = match.Locks(s.b.Grid, s.words)
		if match.IsAnchored(s.b.Grid, s.words) {
			s.complete = true
			events = append(events, Event{Kind: EventLevelComplete})
			if s.cfg.Listener != nil {
				s.cfg.Listener.LevelComplete(s.Snapshot())
			}
		}
	case ModeContinuous:
		if s.casc.Trigger(&s.b) {
			events = append(events, Event{
				Kind:  EventWordMatched,
				Word:  s.casc.Word(),
				Phase: cascade.Matched,
				Cells: s.b.Locked.Sorted(),
			})
		}
	}
	return events
}

func (s *Session) advanceCascade(dt time.Duration) []Event {
	var events []Event
	for _, tr := range s.casc.Advance(&s.b, dt) {
		events = append(events, Event{Kind: EventPhaseChanged, Phase: tr.To})
		if tr.To == cascade.Idle {
			s.cleared++
			s.score += len(tr.Word) * PointsPerLetter
			events = append(events, Event{Kind: EventWordCleared, Word: tr.Word})
		}
	}
	return events
}

// Hint asks the advisor for a suggestion. Every call costs
// Config.HintPenalty moves, whether or not a concrete move comes back.
func (s *Session) Hint() hint.Hint {
	h := hint.Advise(hint.Request{
		Grid:     s.b.Grid,
		Words:    s.Words(),
		Locked:   s.b.Locked,
		Blocked:  s.b.Blocked,
		Anchored: s.cfg.Mode == ModeClassic,
	})
	s.moves += s.cfg.HintPenalty
	return h
}

// NextLevel moves a finished classic session to the following level.
func (s *Session) NextLevel() error {
	if s.cfg.Mode != ModeClassic {
		return ErrNotClassic
	}
	if !s.complete {
		return ErrLevelNotComplete
	}
	s.level++
	s.moves = 0
	return s.startLevel()
}

// Reset regenerates the current board and zeroes the counters.
func (s *Session) Reset() error {
	if s.casc.Busy() {
		s.casc.Restore(cascade.State{Phase: cascade.Idle, History: s.casc.State().History})
	}
	s.moves, s.score, s.cleared = 0, 0, 0
	return s.startLevel()
}

// SetDifficulty changes the blocked-cell modifier and regenerates.
func (s *Session) SetDifficulty(l difficulty.Level) error {
	s.cfg.Difficulty = l
	return s.Reset()
}

// Snapshot returns a deep copy of the render view.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:         s.ID,
		Mode:       s.cfg.Mode,
		Difficulty: s.cfg.Difficulty,
		Grid:       s.b.Grid.Clone(),
		Empty:      s.b.Empty,
		Locked:     s.b.Locked.Sorted(),
		Blocked:    s.b.Blocked.Sorted(),
		Words:      s.Words(),
		Moves:      s.moves,
		Score:      s.score,
		Cleared:    s.cleared,
		Phase:      s.casc.Phase(),
		Complete:   s.complete,
		Exhausted:  s.exhausted,
	}
	if s.cfg.Mode == ModeClassic {
		snap.Level = s.level
	}
	if s.slide != nil {
		sl := *s.slide
		snap.Slide = &sl
	}
	if st := s.casc.State(); st.Match != nil {
		snap.Match = st.Match
	}
	return snap
}

// State captures the session for persistence.
func (s *Session) State() (State, error) {
	rngState, err := s.pcg.MarshalBinary()
	if err != nil {
		return State{}, fmt.Errorf("marshal rng: %w", err)
	}
	st := State{
		Version:    StateVersion,
		ID:         s.ID,
		Mode:       s.cfg.Mode,
		Level:      s.level,
		Difficulty: s.cfg.Difficulty,
		Rows:       s.rows,
		Cols:       s.cols,
		Board:      s.b.Clone(),
		Words:      append([]string(nil), s.words...),
		Moves:      s.moves,
		Score:      s.score,
		Cleared:    s.cleared,
		Complete:   s.complete,
		Exhausted:  s.exhausted,
		Cascade:    s.casc.State(),
		RNG:        rngState,
	}
	if s.slide != nil {
		sl := *s.slide
		st.Slide = &sl
	}
	return st, nil
}

// Restore rebuilds a session from st. Timing, bank and listener come from
// cfg; everything else comes from st.
func Restore(st State, cfg Config) (*Session, error) {
	if st.Version != StateVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadState, st.Version)
	}
	mode, err := ParseMode(string(st.Mode))
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode
	cfg.Difficulty = st.Difficulty
	cfg.defaults()

	if err := checkState(st); err != nil {
		return nil, err
	}
	pcg := &mrand.PCG{}
	if err := pcg.UnmarshalBinary(st.RNG); err != nil {
		return nil, fmt.Errorf("%w: rng: %v", ErrBadState, err)
	}

	s := newSession(cfg, pcg)
	s.ID = st.ID
	s.level = st.Level
	s.rows, s.cols = st.Rows, st.Cols
	s.b = st.Board.Clone()
	s.words = append([]string(nil), st.Words...)
	s.moves, s.score, s.cleared = st.Moves, st.Score, st.Cleared
	s.complete = st.Complete
	s.exhausted = st.Exhausted
	if st.Slide != nil {
		sl := *st.Slide
		s.slide = &sl
	}
	s.casc.Restore(st.Cascade)
	return s, nil
}

func checkState(st State) error {
	g := st.Board.Grid
	if g.Rows() != st.Rows || g.Cols() != st.Cols || st.Rows == 0 {
		return fmt.Errorf("%w: grid is %dx%d, want %dx%d", ErrBadState, g.Rows(), g.Cols(), st.Rows, st.Cols)
	}
	switch st.Cascade.Phase {
	case cascade.Clearing, cascade.Gravity:
		// several empty cells are expected mid-cycle
	default:
		if err := st.Board.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrBadState, err)
		}
	}
	if st.Slide != nil && st.Slide.To != st.Board.Empty {
		return fmt.Errorf("%w: slide target %s is not the empty slot", ErrBadState, st.Slide.To)
	}
	if st.Mode == ModeContinuous && st.Cascade.Word == "" {
		return fmt.Errorf("%w: continuous session has no active word", ErrBadState)
	}
	return nil
}

// randomSeed draws a seed from crypto/rand.
func randomSeed() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// randomID returns a compact 16-hex-char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
