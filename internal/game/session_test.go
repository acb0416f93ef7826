package game

import (
	"encoding/json"
	mrand "math/rand/v2"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordslide/internal/board"
	"github.com/robalobadob/wordslide/internal/cascade"
	"github.com/robalobadob/wordslide/internal/difficulty"
	"github.com/robalobadob/wordslide/internal/hint"
	"github.com/robalobadob/wordslide/internal/match"
	"github.com/robalobadob/wordslide/internal/words"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type recorder struct{ done []Snapshot }

func (r *recorder) LevelComplete(s Snapshot) { r.done = append(r.done, s) }

func rngBytes(t *testing.T, seed uint64) []byte {
	t.Helper()
	b, err := mrand.NewPCG(seed, seed+1).MarshalBinary()
	require.NoError(t, err)
	return b
}

func fixtureState(t *testing.T, mode Mode, grid board.Grid, empty board.Pos, targets []string) State {
	t.Helper()
	st := State{
		Version: StateVersion,
		ID:      "fixture",
		Mode:    mode,
		Level:   1,
		Rows:    grid.Rows(),
		Cols:    grid.Cols(),
		Board:   board.Board{Grid: grid, Empty: empty, Locked: board.PosSet{}, Blocked: board.PosSet{}},
		RNG:     rngBytes(t, 99),
	}
	if mode == ModeClassic {
		st.Words = targets
		st.Board.Locked = match.Locks(grid, targets)
	} else {
		st.Cascade = cascade.State{Phase: cascade.Idle, Word: targets[0]}
	}
	return st
}

// fixture builds a session around a hand-written board through Restore.
func fixture(t *testing.T, mode Mode, grid board.Grid, empty board.Pos, targets []string, cfg Config) *Session {
	t.Helper()
	s, err := Restore(fixtureState(t, mode, grid, empty, targets), cfg)
	require.NoError(t, err, "Restore")
	return s
}

func catSession(t *testing.T, cfg Config) *Session {
	return fixture(t, ModeClassic, board.MustParseGrid("CA.", "TXX", "XXX"), board.Pos{Row: 0, Col: 2}, []string{"CAT"}, cfg)
}

func kinds(events []Event) []EventKind {
	var out []EventKind
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func TestRequestMoveRejectsDistantTile(t *testing.T) {
	s := catSession(t, Config{})
	before := s.Snapshot().Grid

	events, err := s.RequestMove(board.Pos{Row: 1, Col: 0})
	assert.ErrorIs(t, err, ErrNotAdjacent)
	assert.ErrorIs(t, err, board.ErrInvalidMove)
	assert.Empty(t, events)
	assert.False(t, s.Busy(), "rejected move started a slide")
	assert.True(t, s.Snapshot().Grid.Equal(before), "grid changed")

	_, err = s.RequestMove(board.Pos{Row: 0, Col: 2})
	assert.ErrorIs(t, err, ErrNotAdjacent, "moving the empty slot")
}

func TestRequestMoveSlidesThenCommits(t *testing.T) {
	s := catSession(t, Config{SlideDuration: 100 * time.Millisecond})

	events, err := s.RequestMove(board.Pos{Row: 0, Col: 1})
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventMoveStarted}, kinds(events))

	_, err = s.RequestMove(board.Pos{Row: 1, Col: 2})
	assert.ErrorIs(t, err, ErrBusy)

	assert.Empty(t, s.Tick(60*time.Millisecond))
	assert.NotNil(t, s.Snapshot().Slide)
	assert.Equal(t, 0, s.Moves(), "move committed before the slide finished")

	events = s.Tick(40 * time.Millisecond)
	assert.Equal(t, []EventKind{EventMoveCommitted}, kinds(events))

	snap := s.Snapshot()
	assert.Equal(t, "C.A\nTXX\nXXX", snap.Grid.String())
	assert.Equal(t, board.Pos{Row: 0, Col: 1}, snap.Empty)
	assert.Equal(t, 1, snap.Moves)
	assert.False(t, snap.Complete)
	assert.False(t, match.IsAnchored(snap.Grid, []string{"CAT"}))
}

func TestClassicLevelComplete(t *testing.T) {
	rec := &recorder{}
	s := fixture(t, ModeClassic, board.MustParseGrid("CA.", "XXT", "XXX"), board.Pos{Row: 0, Col: 2}, []string{"CAT"}, Config{Listener: rec})

	_, err := s.RequestMove(board.Pos{Row: 1, Col: 2})
	require.NoError(t, err)
	events := s.Settle()
	require.Len(t, events, 2)
	assert.Equal(t, EventLevelComplete, events[1].Kind)
	assert.True(t, s.Complete())
	assert.Len(t, rec.done, 1)
	assert.Len(t, s.Snapshot().Locked, 3, "the cells of CAT lock")

	_, err = s.RequestMove(board.Pos{Row: 1, Col: 1})
	assert.ErrorIs(t, err, ErrLevelComplete)

	require.NoError(t, s.NextLevel())
	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Level)
	assert.False(t, snap.Complete)
	assert.Equal(t, 0, snap.Moves)
	lv, err := words.LevelAt(2)
	require.NoError(t, err)
	assert.Equal(t, lv.Words, snap.Words)
}

func TestNextLevelNeedsCompletion(t *testing.T) {
	assert.ErrorIs(t, catSession(t, Config{}).NextLevel(), ErrLevelNotComplete)
}

func TestRequestMoveLockedAndBlocked(t *testing.T) {
	// Row 0 already spells CAT for word 0, so its cells are locked.
	s := fixture(t, ModeClassic, board.MustParseGrid("CAT", "XDX", "X.X"), board.Pos{Row: 2, Col: 1}, []string{"CAT", "ODX"}, Config{})
	_, err := s.RequestMove(board.Pos{Row: 1, Col: 1})
	require.NoError(t, err, "open neighbour rejected")
	s.Settle()
	// Empty is now (1,1); (0,1) belongs to the locked CAT.
	_, err = s.RequestMove(board.Pos{Row: 0, Col: 1})
	assert.ErrorIs(t, err, ErrLocked)

	st, err := s.State()
	require.NoError(t, err)
	st.Board.Grid[1][0] = board.Blocked
	st.Board.Blocked = board.NewPosSet(board.Pos{Row: 1, Col: 0})
	b, err := Restore(st, Config{})
	require.NoError(t, err)
	_, err = b.RequestMove(board.Pos{Row: 1, Col: 0})
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestHintChargesPenalty(t *testing.T) {
	s := fixture(t, ModeClassic, board.MustParseGrid("CAX", "XX.", "XXT"), board.Pos{Row: 1, Col: 2}, []string{"CAT"}, Config{})
	h := s.Hint()
	assert.Equal(t, hint.KindMove, h.Kind)
	assert.Equal(t, "T", h.Letter)
	assert.Equal(t, board.Pos{Row: 2, Col: 2}, h.From)
	assert.Equal(t, board.Pos{Row: 0, Col: 2}, h.To)
	assert.Equal(t, hint.Penalty, s.Moves())

	none := fixture(t, ModeClassic, board.MustParseGrid("XXX", "XX.", "XXX"), board.Pos{Row: 1, Col: 2}, []string{"CAT"}, Config{HintPenalty: 5})
	assert.Equal(t, hint.KindStrategy, none.Hint().Kind)
	assert.Equal(t, 5, none.Moves(), "strategy hints cost moves too")
}

func TestContinuousCascadeCycle(t *testing.T) {
	cfg := Config{Bank: words.NewBank([]string{"CAT", "DOG", "OWL"})}
	s := fixture(t, ModeContinuous, board.MustParseGrid(
		"CA.Q",
		"XYTW",
		"DOGZ",
		"KLMN",
	), board.Pos{Row: 0, Col: 2}, []string{"CAT"}, cfg)

	_, err := s.RequestMove(board.Pos{Row: 1, Col: 2})
	require.NoError(t, err)
	events := s.Tick(DefaultSlideDuration)
	var matched *Event
	for i, e := range events {
		if e.Kind == EventWordMatched {
			matched = &events[i]
		}
	}
	require.NotNil(t, matched, "no match event: %+v", events)
	assert.Equal(t, "CAT", matched.Word)
	assert.Len(t, matched.Cells, 3)
	assert.True(t, s.Busy(), "cascade not running")

	_, err = s.RequestMove(board.Pos{Row: 1, Col: 2})
	assert.ErrorIs(t, err, ErrBusy)

	var cleared string
	for _, e := range s.Settle() {
		if e.Kind == EventWordCleared {
			cleared = e.Word
		}
	}
	assert.Equal(t, "CAT", cleared)

	snap := s.Snapshot()
	assert.Equal(t, cascade.Idle, snap.Phase)
	assert.Equal(t, 3*PointsPerLetter, snap.Score)
	assert.Equal(t, 1, snap.Cleared)
	assert.Equal(t, 1, snap.Grid.CountEmpty(), "after refill:\n%s", snap.Grid)
	assert.False(t, match.MatchAt(snap.Grid, "CAT", 0, 0, match.Horizontal), "cleared cells still spell CAT:\n%s", snap.Grid)
	require.Len(t, snap.Words, 1)
	assert.NotEmpty(t, snap.Words[0])
}

func TestTickCarriesLeftoverIntoCascade(t *testing.T) {
	cfg := Config{Bank: words.NewBank([]string{"CAT"})}
	s := fixture(t, ModeContinuous, board.MustParseGrid("CA.", "XYT", "DOG"), board.Pos{Row: 0, Col: 2}, []string{"CAT"}, cfg)
	_, err := s.RequestMove(board.Pos{Row: 1, Col: 2})
	require.NoError(t, err)
	s.Tick(DefaultSlideDuration + 2500*time.Millisecond)
	assert.Equal(t, cascade.Clearing, s.Snapshot().Phase)
}

func TestNewSessionsAreValid(t *testing.T) {
	cases := []Config{
		{Mode: ModeClassic, Level: 1, Seed: 1},
		{Mode: ModeClassic, Level: 8, Seed: 2, Difficulty: difficulty.Hard},
		{Mode: ModeContinuous, Seed: 3},
		{Mode: ModeContinuous, Rows: 4, Cols: 6, Seed: 4, Difficulty: difficulty.Medium},
	}
	for _, cfg := range cases {
		s, err := New(cfg)
		require.NoError(t, err, "New(%+v)", cfg)
		snap := s.Snapshot()
		b := board.Board{Grid: snap.Grid, Empty: snap.Empty, Blocked: board.NewPosSet(snap.Blocked...)}
		require.NoError(t, b.Validate(), "%s\n%s", cfg.Mode, snap.Grid)
		if snap.Exhausted {
			continue
		}
		if cfg.Mode == ModeClassic {
			assert.False(t, match.AnyAnchored(snap.Grid, snap.Words), "classic board starts solved:\n%s", snap.Grid)
		} else {
			assert.False(t, match.IsPresentAnywhere(snap.Grid, snap.Words), "continuous board starts with %v on it:\n%s", snap.Words, snap.Grid)
		}
	}
}

func TestSameSeedSameBoard(t *testing.T) {
	a, err := New(Config{Mode: ModeContinuous, Seed: 77})
	require.NoError(t, err)
	b, err := New(Config{Mode: ModeContinuous, Seed: 77})
	require.NoError(t, err)
	assert.True(t, a.Snapshot().Grid.Equal(b.Snapshot().Grid))
	assert.Equal(t, a.Words(), b.Words())
	assert.NotEqual(t, a.ID, b.ID, "session IDs collide")
}

func TestStateRoundTrip(t *testing.T) {
	s, err := New(Config{Mode: ModeClassic, Level: 6, Seed: 5})
	require.NoError(t, err)
	for _, p := range s.b.Movable() {
		if _, err := s.RequestMove(p); err == nil {
			s.Tick(DefaultSlideDuration / 2) // leave the slide in flight
			break
		}
	}
	s.Hint()

	st, err := s.State()
	require.NoError(t, err)
	data, err := json.Marshal(st)
	require.NoError(t, err)
	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	r, err := Restore(decoded, Config{})
	require.NoError(t, err)
	again, err := r.State()
	require.NoError(t, err)
	data2, err := json.Marshal(again)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(data2))

	// Both copies continue identically, including generator randomness.
	s.Settle()
	r.Settle()
	require.NoError(t, s.Reset())
	require.NoError(t, r.Reset())
	assert.True(t, s.Snapshot().Grid.Equal(r.Snapshot().Grid), "restored session diverged")
}

func TestRestoreRejectsInconsistentState(t *testing.T) {
	s := catSession(t, Config{})
	st, err := s.State()
	require.NoError(t, err)
	st.Board.Grid[2][2] = board.Empty
	_, err = Restore(st, Config{})
	assert.ErrorIs(t, err, ErrBadState, "two empty cells")

	st, _ = s.State()
	st.Version = 0
	_, err = Restore(st, Config{})
	assert.ErrorIs(t, err, ErrBadState, "bad version")
}

func TestRestoreRejectsContinuousWithoutWord(t *testing.T) {
	st := fixtureState(t, ModeContinuous, board.MustParseGrid("CA.", "XYT", "DOG"), board.Pos{Row: 0, Col: 2}, []string{"CAT"})
	st.Cascade.Word = ""
	_, err := Restore(st, Config{})
	assert.ErrorIs(t, err, ErrBadState)

	st.Cascade.Word = "CAT"
	_, err = Restore(st, Config{})
	assert.NoError(t, err)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := catSession(t, Config{})
	snap := s.Snapshot()
	snap.Grid[0][0] = 'Z'
	snap.Words[0] = "DOG"
	again := s.Snapshot()
	assert.Equal(t, byte('C'), again.Grid[0][0])
	assert.Equal(t, "CAT", again.Words[0])
}

func TestSetDifficultyRegenerates(t *testing.T) {
	s, err := New(Config{Mode: ModeClassic, Level: 8, Seed: 9})
	require.NoError(t, err)
	require.NoError(t, s.SetDifficulty(difficulty.Hard))
	snap := s.Snapshot()
	assert.Equal(t, difficulty.Hard, snap.Difficulty)
	assert.Equal(t, 0, snap.Moves)
	for _, p := range snap.Blocked {
		assert.Equal(t, board.Blocked, snap.Grid.At(p), "blocked %s not marked", p)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeClassic, m)
	_, err = ParseMode("arcade")
	assert.Error(t, err)
}
