// internal/generator/generator.go
//
// Starting-board generation for a target word set.
//
// Contract (Generate):
//   - Every target word's letters are placed on the board; remaining open
//     cells receive uniformly random letters A–Z.
//   - Exactly one open (non-blocked) cell is left empty, chosen at random.
//   - The board is scrambled with 2–4 random transpositions after the
//     shuffle so solving always takes at least one move.
//   - No target word is already complete under the request's Check.
//
// The last point is best effort. Generate runs up to Options.MaxAttempts
// rounds of fill → shuffle → scramble → check. If every round still shows
// a finished word it applies up to Options.ForcedSwaps single swaps,
// checking after each, and returns whatever board it holds with
// Result.Exhausted set. Exhaustion is never an error.

package generator

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordslide/internal/board"
	"github.com/robalobadob/wordslide/internal/match"
)

const (
	DefaultMaxAttempts = 10
	DefaultMinScramble = 2
	DefaultMaxScramble = 4
	DefaultForcedSwaps = 8

	MaxDimension = 12
)

var (
	ErrNoWords           = errors.New("generator: no target words")
	ErrInvalidDimensions = errors.New("generator: invalid grid dimensions")
	ErrTooManyLetters    = errors.New("generator: target letters do not fit the board")
	ErrInvalidWord       = errors.New("generator: target words must be A-Z")
)

// Check selects the win check a fresh board must not already satisfy.
type Check int

const (
	// CheckAnchored rejects boards where any word sits at its row/column.
	CheckAnchored Check = iota
	// CheckAnywhere rejects boards where any word appears anywhere.
	CheckAnywhere
)

// Solved reports whether any word is already complete under c.
func (c Check) Solved(g board.Grid, words []string) bool {
	if c == CheckAnywhere {
		return match.AnyPresent(g, words)
	}
	return match.AnyAnchored(g, words)
}

// Request describes one board to build.
type Request struct {
	Words   []string
	Rows    int
	Cols    int
	Blocked board.PosSet
	Check   Check
}

// Result is a generated board plus how hard it was to get.
type Result struct {
	Board     board.Board
	Attempts  int
	Exhausted bool
}

// Generator builds boards from an injected random source.
type Generator struct {
	options *Options
	rng     *rand.Rand
}

// New creates a generator. A nil options value uses DefaultOptions.
func New(rng *rand.Rand, options *Options) *Generator {
	if options == nil {
		options = DefaultOptions()
	}
	options.normalize()
	return &Generator{options: options, rng: rng}
}

// Generate builds a starting board for req.
func (g *Generator) Generate(req Request) (Result, error) {
	open, letters, err := g.validate(req)
	if err != nil {
		return Result{}, err
	}

	var b board.Board
	for attempt := 1; attempt <= g.options.MaxAttempts; attempt++ {
		b = g.fill(req, open, letters)
		g.scramble(&b, open)
		if !req.Check.Solved(b.Grid, req.Words) {
			return Result{Board: b, Attempts: attempt}, nil
		}
	}

	for i := 0; i < g.options.ForcedSwaps; i++ {
		g.swap(&b, open)
		if !req.Check.Solved(b.Grid, req.Words) {
			return Result{Board: b, Attempts: g.options.MaxAttempts}, nil
		}
	}

	log.Warn().
		Strs("words", req.Words).
		Int("rows", req.Rows).
		Int("cols", req.Cols).
		Int("attempts", g.options.MaxAttempts).
		Msg("board generation exhausted; accepting pre-solved board")
	return Result{Board: b, Attempts: g.options.MaxAttempts, Exhausted: true}, nil
}

// validate checks the request and returns the open cells (row-major) and
// the concatenated target letters.
func (g *Generator) validate(req Request) ([]board.Pos, []byte, error) {
	if len(req.Words) == 0 {
		return nil, nil, ErrNoWords
	}
	if req.Rows < 1 || req.Cols < 1 || req.Rows > MaxDimension || req.Cols > MaxDimension {
		return nil, nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, req.Rows, req.Cols)
	}
	var open []board.Pos
	for r := 0; r < req.Rows; r++ {
		for c := 0; c < req.Cols; c++ {
			p := board.Pos{Row: r, Col: c}
			if !req.Blocked.Has(p) {
				open = append(open, p)
			}
		}
	}
	var letters []byte
	for _, w := range req.Words {
		for i := 0; i < len(w); i++ {
			if !board.IsLetter(w[i]) {
				return nil, nil, fmt.Errorf("%w: %q", ErrInvalidWord, w)
			}
			letters = append(letters, w[i])
		}
	}
	if len(open) < 2 || len(letters) > len(open)-1 {
		return nil, nil, fmt.Errorf("%w: %d letters, %d open cells", ErrTooManyLetters, len(letters), len(open))
	}
	return open, letters, nil
}

// fill places the target letters, random filler and one empty cell on
// the open positions in shuffled order.
func (g *Generator) fill(req Request, open []board.Pos, letters []byte) board.Board {
	cells := make([]byte, 0, len(open))
	cells = append(cells, letters...)
	for len(cells) < len(open)-1 {
		cells = append(cells, g.RandomLetter())
	}
	cells = append(cells, board.Empty)
	g.rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	grid := board.NewGrid(req.Rows, req.Cols)
	blocked := board.PosSet{}
	for p := range req.Blocked {
		if grid.InBounds(p) {
			grid.Set(p, board.Blocked)
			blocked.Add(p)
		}
	}
	var empty board.Pos
	for i, p := range open {
		grid.Set(p, cells[i])
		if cells[i] == board.Empty {
			empty = p
		}
	}
	return board.Board{Grid: grid, Empty: empty, Locked: board.PosSet{}, Blocked: blocked}
}

// scramble applies between MinScramble and MaxScramble transpositions.
func (g *Generator) scramble(b *board.Board, open []board.Pos) {
	n := g.options.MinScramble
	if span := g.options.MaxScramble - g.options.MinScramble; span > 0 {
		n += g.rng.IntN(span + 1)
	}
	for i := 0; i < n; i++ {
		g.swap(b, open)
	}
}

// swap exchanges two distinct lettered open cells.
func (g *Generator) swap(b *board.Board, open []board.Pos) {
	tiles := make([]board.Pos, 0, len(open))
	for _, p := range open {
		if p != b.Empty {
			tiles = append(tiles, p)
		}
	}
	if len(tiles) < 2 {
		return
	}
	i := g.rng.IntN(len(tiles))
	j := g.rng.IntN(len(tiles) - 1)
	if j >= i {
		j++
	}
	a, c := tiles[i], tiles[j]
	va, vc := b.Grid.At(a), b.Grid.At(c)
	b.Grid.Set(a, vc)
	b.Grid.Set(c, va)
}

// RandomLetter draws a uniform letter A–Z.
func (g *Generator) RandomLetter() byte {
	return byte('A' + g.rng.IntN(26))
}
