// internal/game/types.go
//
// Core type definitions for a game session.
// Defines:
//   - Mode: classic (fixed levels) or continuous (clear and refill).
//   - Event: what a RequestMove/Tick call changed, for renderers and the
//     HTTP layer.
//   - Snapshot: read-only view handed to renderers.
//   - State: the full serialisable session, restored bit-for-bit.
//   - Rejection errors for RequestMove.

package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/wordslide/internal/board"
	"github.com/robalobadob/wordslide/internal/cascade"
	"github.com/robalobadob/wordslide/internal/difficulty"
	"github.com/robalobadob/wordslide/internal/match"
)

// Mode selects the rules a session plays by.
type Mode string

const (
	ModeClassic    Mode = "classic"
	ModeContinuous Mode = "continuous"
)

// ParseMode maps a user-supplied name to a Mode. Empty means classic.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeClassic:
		return ModeClassic, nil
	case ModeContinuous:
		return ModeContinuous, nil
	}
	return "", fmt.Errorf("game: unknown mode %q", s)
}

// Every rejection wraps board.ErrInvalidMove, so callers can test for
// either the family or the specific reason.
var (
	ErrBusy          = fmt.Errorf("%w: a move or cascade is in flight", board.ErrInvalidMove)
	ErrLocked        = fmt.Errorf("%w: cell is locked", board.ErrInvalidMove)
	ErrBlocked       = fmt.Errorf("%w: cell is blocked", board.ErrInvalidMove)
	ErrNotAdjacent   = fmt.Errorf("%w: cell is not next to the empty slot", board.ErrInvalidMove)
	ErrLevelComplete = fmt.Errorf("%w: level already complete", board.ErrInvalidMove)
)

var (
	ErrNotClassic       = errors.New("game: only classic sessions have levels")
	ErrLevelNotComplete = errors.New("game: level not complete")
	ErrBadState         = errors.New("game: saved state is inconsistent")
)

// EventKind names an Event.
type EventKind string

const (
	EventMoveStarted   EventKind = "move_started"
	EventMoveCommitted EventKind = "move_committed"
	EventLevelComplete EventKind = "level_complete"
	EventWordMatched   EventKind = "word_matched"
	EventPhaseChanged  EventKind = "phase_changed"
	EventWordCleared   EventKind = "word_cleared"
)

// Event reports one observable change.
type Event struct {
	Kind  EventKind     `json:"kind"`
	From  *board.Pos    `json:"from,omitempty"`
	To    *board.Pos    `json:"to,omitempty"`
	Word  string        `json:"word,omitempty"`
	Phase cascade.Phase `json:"phase,omitempty"`
	Cells []board.Pos   `json:"cells,omitempty"`
}

// Slide is an in-flight move transition.
type Slide struct {
	From    board.Pos     `json:"from"`
	To      board.Pos     `json:"to"`
	Elapsed time.Duration `json:"elapsed"`
}

// Snapshot is the render-boundary view of a session. It shares no memory
// with the session.
type Snapshot struct {
	ID         string           `json:"id"`
	Mode       Mode             `json:"mode"`
	Level      int              `json:"level,omitempty"`
	Difficulty difficulty.Level `json:"difficulty"`
	Grid       board.Grid       `json:"grid"`
	Empty      board.Pos        `json:"empty"`
	Locked     []board.Pos      `json:"locked"`
	Blocked    []board.Pos      `json:"blocked"`
	Words      []string         `json:"words"`
	Moves      int              `json:"moves"`
	Score      int              `json:"score"`
	Cleared    int              `json:"cleared"`
	Phase      cascade.Phase    `json:"phase"`
	Slide      *Slide           `json:"slide,omitempty"`
	Match      *match.Match     `json:"match,omitempty"`
	Complete   bool             `json:"complete"`
	Exhausted  bool             `json:"exhausted,omitempty"`
}

// StateVersion is bumped when State changes shape.
const StateVersion = 1

// State is everything needed to resume a session exactly.
type State struct {
	Version    int              `json:"version"`
	ID         string           `json:"id"`
	Mode       Mode             `json:"mode"`
	Level      int              `json:"level"`
	Difficulty difficulty.Level `json:"difficulty"`
	Rows       int              `json:"rows"`
	Cols       int              `json:"cols"`
	Board      board.Board      `json:"board"`
	Words      []string         `json:"words"`
	Moves      int              `json:"moves"`
	Score      int              `json:"score"`
	Cleared    int              `json:"cleared"`
	Complete   bool             `json:"complete"`
	Exhausted  bool             `json:"exhausted"`
	Slide      *Slide           `json:"slide,omitempty"`
	Cascade    cascade.State    `json:"cascade"`
	RNG        []byte           `json:"rng"`
}
