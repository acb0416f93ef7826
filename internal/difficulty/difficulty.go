// internal/difficulty/difficulty.go
//
// Difficulty modifier: chooses blocked cells for a board.
//
// Blocked cells never hold a letter or the empty slot. They are placed
// away from the anchor rows/columns of the target words (word i needs
// row i or column i free), never disconnect the open cells, and always
// leave room for every target letter plus the slot.

package difficulty

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/robalobadob/wordslide/internal/board"
)

// Level names a difficulty.
type Level string

const (
	Easy   Level = "easy"
	Medium Level = "medium"
	Hard   Level = "hard"
)

// Parse maps a user-supplied name to a Level. Empty means Easy.
func Parse(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", Easy:
		return Easy, nil
	case Medium:
		return Medium, nil
	case Hard:
		return Hard, nil
	}
	return "", fmt.Errorf("difficulty: unknown level %q", s)
}

// BlockedCount is how many cells the level tries to block.
func (l Level) BlockedCount() int {
	switch l {
	case Medium:
		return 1
	case Hard:
		return 2
	}
	return 0
}

// Shape describes the board the blocked cells are chosen for.
type Shape struct {
	Rows    int
	Cols    int
	Words   int // anchored words; rows and columns below this stay open
	Letters int // total target letters that must still fit
}

// Blocked picks up to l.BlockedCount() cells. Fewer are returned when the
// board has no safe cell left.
func Blocked(l Level, s Shape, rng *rand.Rand) board.PosSet {
	out := board.PosSet{}
	want := l.BlockedCount()
	if want == 0 {
		return out
	}

	var cands []board.Pos
	for r := s.Words; r < s.Rows; r++ {
		for c := s.Words; c < s.Cols; c++ {
			cands = append(cands, board.Pos{Row: r, Col: c})
		}
	}
	rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })

	for _, p := range cands {
		if len(out) == want {
			break
		}
		if s.Rows*s.Cols-len(out)-1 < s.Letters+1 {
			break
		}
		out.Add(p)
		if !connected(s.Rows, s.Cols, out) {
			delete(out, p)
		}
	}
	return out
}

// connected reports whether the open cells form one 4-connected region.
func connected(rows, cols int, blocked board.PosSet) bool {
	open := mapset.New[board.Pos]()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if p := (board.Pos{Row: r, Col: c}); !blocked.Has(p) {
				open.Put(p)
			}
		}
	}
	if open.Size() == 0 {
		return false
	}
	return reachable(open, firstOpen(rows, cols, blocked)).Size() == open.Size()
}

// reachable floods out from start through the cells in open.
func reachable(open mapset.Set[board.Pos], start board.Pos) mapset.Set[board.Pos] {
	visited := mapset.New[board.Pos]()
	queue := []board.Pos{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if !open.Has(current) || visited.Has(current) {
			continue
		}
		visited.Put(current)
		for _, d := range []board.Pos{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}} {
			n := board.Pos{Row: current.Row + d.Row, Col: current.Col + d.Col}
			if open.Has(n) && !visited.Has(n) {
				queue = append(queue, n)
			}
		}
	}
	return visited
}

func firstOpen(rows, cols int, blocked board.PosSet) board.Pos {
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if p := (board.Pos{Row: r, Col: c}); !blocked.Has(p) {
				return p
			}
		}
	}
	return board.Pos{}
}
