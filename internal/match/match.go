// internal/match/match.go
//
// Word detection over a letter grid.
//
// Orientation is horizontal (increasing column, same row) or vertical
// (increasing row, same column). Comparisons are case-insensitive and an
// Empty or Blocked cell never matches a letter. Every function here is a
// pure read of the grid.

package match

import (
	"github.com/robalobadob/wordslide/internal/board"
)

// Orientation of a placement.
type Orientation string

const (
	Horizontal Orientation = "h"
	Vertical   Orientation = "v"
)

// Match is the origin and direction of one word occurrence.
type Match struct {
	Row         int         `json:"row"`
	Col         int         `json:"col"`
	Orientation Orientation `json:"orientation"`
}

// Cells returns the n positions covered by a placement starting at m.
func (m Match) Cells(n int) []board.Pos {
	out := make([]board.Pos, n)
	for i := 0; i < n; i++ {
		if m.Orientation == Vertical {
			out[i] = board.Pos{Row: m.Row + i, Col: m.Col}
		} else {
			out[i] = board.Pos{Row: m.Row, Col: m.Col + i}
		}
	}
	return out
}

// Fits reports whether a word of length n placed at m stays in bounds.
func (m Match) Fits(g board.Grid, n int) bool {
	if n == 0 || m.Row < 0 || m.Col < 0 {
		return false
	}
	if m.Orientation == Vertical {
		return m.Row+n <= g.Rows() && m.Col < g.Cols()
	}
	return m.Col+n <= g.Cols() && m.Row < g.Rows()
}

// MatchAt compares word against the cells starting at (row, col).
func MatchAt(g board.Grid, word string, row, col int, o Orientation) bool {
	m := Match{Row: row, Col: col, Orientation: o}
	if !m.Fits(g, len(word)) {
		return false
	}
	for i, p := range m.Cells(len(word)) {
		if g.At(p) != upper(word[i]) {
			return false
		}
	}
	return true
}

// FindAll returns every occurrence of word, row-major, horizontal before
// vertical at a shared origin.
func FindAll(g board.Grid, word string) []Match {
	var out []Match
	if word == "" {
		return out
	}
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			if MatchAt(g, word, r, c, Horizontal) {
				out = append(out, Match{r, c, Horizontal})
			}
			if MatchAt(g, word, r, c, Vertical) {
				out = append(out, Match{r, c, Vertical})
			}
		}
	}
	return out
}

// Anchors returns the two anchored placements for the word at index i:
// row i read horizontally and column i read vertically.
func Anchors(i int) [2]Match {
	return [2]Match{
		{Row: i, Col: 0, Orientation: Horizontal},
		{Row: 0, Col: i, Orientation: Vertical},
	}
}

// AnchoredMatch returns the first anchored placement of words[i] that
// currently spells it.
func AnchoredMatch(g board.Grid, words []string, i int) (Match, bool) {
	for _, a := range Anchors(i) {
		if MatchAt(g, words[i], a.Row, a.Col, a.Orientation) {
			return a, true
		}
	}
	return Match{}, false
}

// IsAnchored is the classic win check: every word i sits at row i or
// column i.
func IsAnchored(g board.Grid, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for i := range words {
		if _, ok := AnchoredMatch(g, words, i); !ok {
			return false
		}
	}
	return true
}

// IsPresentAnywhere reports whether every word occurs somewhere.
func IsPresentAnywhere(g board.Grid, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if len(FindAll(g, w)) == 0 {
			return false
		}
	}
	return true
}

// AnyAnchored reports whether at least one word already sits at an
// anchor.
func AnyAnchored(g board.Grid, words []string) bool {
	for i := range words {
		if _, ok := AnchoredMatch(g, words, i); ok {
			return true
		}
	}
	return false
}

// AnyPresent reports whether at least one word occurs somewhere.
func AnyPresent(g board.Grid, words []string) bool {
	for _, w := range words {
		if len(FindAll(g, w)) > 0 {
			return true
		}
	}
	return false
}

// Placements lists every in-bounds placement for a word of length n,
// ordered like FindAll.
func Placements(g board.Grid, n int) []Match {
	var out []Match
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			for _, o := range []Orientation{Horizontal, Vertical} {
				m := Match{r, c, o}
				if m.Fits(g, n) {
					out = append(out, m)
				}
			}
		}
	}
	return out
}

// Locks collects the cells of every anchored match among words.
func Locks(g board.Grid, words []string) board.PosSet {
	out := board.PosSet{}
	for i, w := range words {
		if m, ok := AnchoredMatch(g, words, i); ok {
			for _, p := range m.Cells(len(w)) {
				out.Add(p)
			}
		}
	}
	return out
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
