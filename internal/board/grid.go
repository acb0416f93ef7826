// internal/board/grid.go
//
// Grid and position primitives for the sliding letter board.
//
// A cell holds one of:
//   - an uppercase ASCII letter 'A'..'Z',
//   - Empty (the single slot tiles slide into),
//   - Blocked (a difficulty cell that never holds a letter or the slot).
//
// Grids serialise to JSON as one string per row ('.' empty, '#' blocked)
// so saved games stay readable and round-trip exactly.

package board

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	Empty   byte = 0
	Blocked byte = '#'

	emptyGlyph = '.'
)

// Pos is a (row, col) cell coordinate.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.Row, p.Col) }

// Distance returns the Manhattan distance between two positions.
func Distance(a, b Pos) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

// IsAdjacent reports whether a and b share an edge.
func IsAdjacent(a, b Pos) bool { return Distance(a, b) == 1 }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Grid is a rows x cols matrix of cells.
type Grid [][]byte

// NewGrid allocates a grid with every cell set to Empty.
func NewGrid(rows, cols int) Grid {
	g := make(Grid, rows)
	for r := range g {
		g[r] = make([]byte, cols)
	}
	return g
}

// ParseGrid builds a grid from row strings using the JSON glyphs
// ('.' or ' ' for empty, '#' for blocked). Letters are upper-cased.
func ParseGrid(rows ...string) (Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("parse grid: no rows")
	}
	cols := len(rows[0])
	g := NewGrid(len(rows), cols)
	for r, line := range rows {
		if len(line) != cols {
			return nil, fmt.Errorf("parse grid: row %d has %d cells, want %d", r, len(line), cols)
		}
		for c := 0; c < cols; c++ {
			ch := line[c]
			switch {
			case ch == emptyGlyph || ch == ' ':
				g[r][c] = Empty
			case ch == Blocked:
				g[r][c] = Blocked
			case ch >= 'a' && ch <= 'z':
				g[r][c] = ch - 'a' + 'A'
			case ch >= 'A' && ch <= 'Z':
				g[r][c] = ch
			default:
				return nil, fmt.Errorf("parse grid: bad cell %q at %d,%d", ch, r, c)
			}
		}
	}
	return g, nil
}

// MustParseGrid is ParseGrid for fixtures; it panics on malformed input.
func MustParseGrid(rows ...string) Grid {
	g, err := ParseGrid(rows...)
	if err != nil {
		panic(err)
	}
	return g
}

func (g Grid) Rows() int { return len(g) }

func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// InBounds reports whether p lies inside the grid.
func (g Grid) InBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < g.Rows() && p.Col >= 0 && p.Col < g.Cols()
}

func (g Grid) At(p Pos) byte { return g[p.Row][p.Col] }

func (g Grid) Set(p Pos, v byte) { g[p.Row][p.Col] = v }

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for r := range g {
		out[r] = append([]byte(nil), g[r]...)
	}
	return out
}

// Equal reports cell-wise equality.
func (g Grid) Equal(o Grid) bool {
	if len(g) != len(o) {
		return false
	}
	for r := range g {
		if string(g[r]) != string(o[r]) {
			return false
		}
	}
	return true
}

// IsLetter reports whether v is an uppercase tile letter.
func IsLetter(v byte) bool { return v >= 'A' && v <= 'Z' }

// EmptyCells lists every Empty cell in row-major order.
func (g Grid) EmptyCells() []Pos {
	var out []Pos
	for r := range g {
		for c := range g[r] {
			if g[r][c] == Empty {
				out = append(out, Pos{r, c})
			}
		}
	}
	return out
}

// CountEmpty returns the number of Empty cells.
func (g Grid) CountEmpty() int { return len(g.EmptyCells()) }

// Letters returns the letter multiset as 26 counts.
func (g Grid) Letters() [26]int {
	var counts [26]int
	for r := range g {
		for _, v := range g[r] {
			if IsLetter(v) {
				counts[v-'A']++
			}
		}
	}
	return counts
}

// String renders the grid with the JSON glyphs, one row per line.
func (g Grid) String() string {
	return strings.Join(g.rowStrings(), "\n")
}

func (g Grid) rowStrings() []string {
	out := make([]string, len(g))
	for r := range g {
		row := make([]byte, len(g[r]))
		for c, v := range g[r] {
			if v == Empty {
				row[c] = emptyGlyph
			} else {
				row[c] = v
			}
		}
		out[r] = string(row)
	}
	return out
}

func (g Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.rowStrings())
}

func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows []string
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		*g = Grid{}
		return nil
	}
	parsed, err := ParseGrid(rows...)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// PosSet is a set of positions (locked cells, blocked cells).
// Its JSON form is a row-major sorted list.
type PosSet map[Pos]struct{}

// NewPosSet builds a set from the given positions.
func NewPosSet(ps ...Pos) PosSet {
	s := make(PosSet, len(ps))
	for _, p := range ps {
		s[p] = struct{}{}
	}
	return s
}

// Has is nil-safe.
func (s PosSet) Has(p Pos) bool {
	_, ok := s[p]
	return ok
}

func (s PosSet) Add(p Pos) { s[p] = struct{}{} }

// Clone returns a copy; a nil set clones to an empty one.
func (s PosSet) Clone() PosSet {
	out := make(PosSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Sorted returns the members in row-major order.
func (s PosSet) Sorted() []Pos {
	out := make([]Pos, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

func (s PosSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *PosSet) UnmarshalJSON(data []byte) error {
	var list []Pos
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewPosSet(list...)
	return nil
}
