// internal/board/board.go
//
// Board couples a grid with its empty slot and the cells excluded from
// move selection. ApplyMove is a pure function: it never mutates the
// receiver and returns a fresh Board for an accepted move.

package board

import (
	"errors"
	"fmt"
)

// ErrInvalidMove is returned by ApplyMove when CanMove is false.
var ErrInvalidMove = errors.New("invalid move")

// Board is one move-primitive state.
type Board struct {
	Grid    Grid   `json:"grid"`
	Empty   Pos    `json:"empty"`
	Locked  PosSet `json:"locked"`
	Blocked PosSet `json:"blocked"`
}

// CanMove reports whether the tile at p may slide into the empty slot.
func (b Board) CanMove(p Pos) bool {
	if !b.Grid.InBounds(p) || p == b.Empty {
		return false
	}
	if !IsAdjacent(p, b.Empty) {
		return false
	}
	return !b.Locked.Has(p) && !b.Blocked.Has(p)
}

// ApplyMove slides the tile at p into the empty slot. On success the
// returned board differs from b in exactly two cells and its Empty is p.
func (b Board) ApplyMove(p Pos) (Board, error) {
	if !b.CanMove(p) {
		return b, fmt.Errorf("%w: %s -> %s", ErrInvalidMove, p, b.Empty)
	}
	g := b.Grid.Clone()
	g.Set(b.Empty, g.At(p))
	g.Set(p, Empty)
	return Board{
		Grid:    g,
		Empty:   p,
		Locked:  b.Locked.Clone(),
		Blocked: b.Blocked.Clone(),
	}, nil
}

// Clone returns a deep copy.
func (b Board) Clone() Board {
	return Board{
		Grid:    b.Grid.Clone(),
		Empty:   b.Empty,
		Locked:  b.Locked.Clone(),
		Blocked: b.Blocked.Clone(),
	}
}

// Validate checks the resting-state invariants: exactly one empty cell,
// located at Empty, and every blocked cell holding Blocked.
func (b Board) Validate() error {
	empties := b.Grid.EmptyCells()
	if len(empties) != 1 {
		return fmt.Errorf("board: %d empty cells, want 1", len(empties))
	}
	if empties[0] != b.Empty {
		return fmt.Errorf("board: empty slot at %s, recorded %s", empties[0], b.Empty)
	}
	for p := range b.Blocked {
		if !b.Grid.InBounds(p) || b.Grid.At(p) != Blocked {
			return fmt.Errorf("board: blocked cell %s not marked", p)
		}
	}
	return nil
}

// Movable lists every position that CanMove accepts, row-major.
func (b Board) Movable() []Pos {
	var out []Pos
	for _, d := range []Pos{{-1, 0}, {0, -1}, {0, 1}, {1, 0}} {
		p := Pos{b.Empty.Row + d.Row, b.Empty.Col + d.Col}
		if b.CanMove(p) {
			out = append(out, p)
		}
	}
	return out
}
