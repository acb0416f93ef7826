// internal/hint/hint.go
//
// Next-move suggestions.
//
// Advise ranks every candidate placement of every target word by the
// fraction of its letters already in place, keeps those strictly between
// 0% and 100%, and for the best one finds the missing letter that sits
// closest (Manhattan distance) to the cell it belongs in. Ties go to the
// earlier word, then horizontal over vertical, then row-major order.
// When no placement has partial progress, or none of its letters can be
// found, a non-actionable strategy hint is returned instead.
//
// Locked and blocked cells are never proposed as sources, and neither are
// cells already holding a correct letter of the chosen placement.

package hint

import (
	"fmt"
	"sort"

	"github.com/robalobadob/wordslide/internal/board"
	"github.com/robalobadob/wordslide/internal/match"
)

// Penalty is added to the move counter for every hint request.
const Penalty = 3

// Kind of hint.
type Kind string

const (
	KindMove     Kind = "move"
	KindStrategy Kind = "strategy"
)

// Hint is a suggestion for the player.
type Hint struct {
	Kind     Kind      `json:"kind"`
	Word     string    `json:"word,omitempty"`
	Letter   string    `json:"letter,omitempty"`
	From     board.Pos `json:"from"`
	To       board.Pos `json:"to"`
	Distance int       `json:"distance,omitempty"`
	Progress float64   `json:"progress,omitempty"`
	Message  string    `json:"message"`
}

// Request carries the board view the advisor reads.
type Request struct {
	Grid    board.Grid
	Words   []string
	Locked  board.PosSet
	Blocked board.PosSet
	// Anchored restricts word i to row i / column i (classic mode).
	// Otherwise every in-bounds placement is considered.
	Anchored bool
}

type candidate struct {
	word     string
	index    int
	place    match.Match
	correct  int
	progress float64
}

// Advise returns the most useful hint for req.
func Advise(req Request) Hint {
	cands := rank(req)
	for _, c := range cands {
		if h, ok := bestMove(req, c); ok {
			return h
		}
	}
	return strategy(req, cands)
}

// rank lists partially complete placements, best first.
func rank(req Request) []candidate {
	var out []candidate
	for i, w := range req.Words {
		if w == "" {
			continue
		}
		for _, m := range placements(req, i, w) {
			correct := 0
			for k, p := range m.Cells(len(w)) {
				if req.Grid.At(p) == w[k] {
					correct++
				}
			}
			if correct == 0 || correct == len(w) {
				continue
			}
			out = append(out, candidate{
				word:     w,
				index:    i,
				place:    m,
				correct:  correct,
				progress: float64(correct) / float64(len(w)),
			})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].progress > out[b].progress })
	return out
}

func placements(req Request, i int, w string) []match.Match {
	if !req.Anchored {
		return match.Placements(req.Grid, len(w))
	}
	var out []match.Match
	for _, a := range match.Anchors(i) {
		if a.Fits(req.Grid, len(w)) {
			out = append(out, a)
		}
	}
	return out
}

// bestMove finds the closest usable source for any missing letter of c.
func bestMove(req Request, c candidate) (Hint, bool) {
	cells := c.place.Cells(len(c.word))
	keep := board.PosSet{}
	for k, p := range cells {
		if req.Grid.At(p) == c.word[k] {
			keep.Add(p)
		}
	}

	var best Hint
	found := false
	for k, target := range cells {
		letter := c.word[k]
		if req.Grid.At(target) == letter {
			continue
		}
		src, dist, ok := nearest(req, letter, target, keep)
		if !ok {
			continue
		}
		if !found || dist < best.Distance {
			found = true
			best = Hint{
				Kind:     KindMove,
				Word:     c.word,
				Letter:   string(letter),
				From:     src,
				To:       target,
				Distance: dist,
				Progress: c.progress,
			}
		}
	}
	if found {
		best.Message = fmt.Sprintf("Move the %s at %s towards %s to build %s", best.Letter, best.From, best.To, best.Word)
	}
	return best, found
}

// nearest scans row-major for the closest free occurrence of letter.
func nearest(req Request, letter byte, target board.Pos, keep board.PosSet) (board.Pos, int, bool) {
	var best board.Pos
	bestDist := -1
	for r := 0; r < req.Grid.Rows(); r++ {
		for col := 0; col < req.Grid.Cols(); col++ {
			p := board.Pos{Row: r, Col: col}
			if req.Grid.At(p) != letter || p == target {
				continue
			}
			if req.Locked.Has(p) || req.Blocked.Has(p) || keep.Has(p) {
				continue
			}
			if d := board.Distance(p, target); bestDist < 0 || d < bestDist {
				best, bestDist = p, d
			}
		}
	}
	return best, bestDist, bestDist >= 0
}

// strategy builds the fallback message.
func strategy(req Request, cands []candidate) Hint {
	h := Hint{Kind: KindStrategy}
	switch {
	case len(cands) > 0:
		c := cands[0]
		h.Word = c.word
		h.Message = fmt.Sprintf("The letters %s still needs are out of reach; free up tiles around it first", c.word)
	case len(req.Words) == 0:
		h.Message = "No target words on this board"
	case req.Anchored:
		i := firstUnsolved(req)
		if i < 0 {
			h.Message = "Every word is in place"
			break
		}
		h.Word = req.Words[i]
		h.Message = fmt.Sprintf("Start %s along row %d or down column %d; work the empty slot around one letter at a time", req.Words[i], i, i)
	default:
		h.Word = req.Words[0]
		h.Message = fmt.Sprintf("Gather the letters of %s in one line, anywhere on the board", req.Words[0])
	}
	return h
}

func firstUnsolved(req Request) int {
	for i := range req.Words {
		if _, ok := match.AnchoredMatch(req.Grid, req.Words, i); !ok {
			return i
		}
	}
	return -1
}
