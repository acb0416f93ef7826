package difficulty

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordslide/internal/board"
)

func TestParse(t *testing.T) {
	cases := map[string]Level{"": Easy, "easy": Easy, " Medium ": Medium, "HARD": Hard}
	for in, want := range cases {
		got, err := Parse(in)
		assert.NoError(t, err, "Parse(%q)", in)
		assert.Equal(t, want, got, "Parse(%q)", in)
	}
	_, err := Parse("nightmare")
	assert.Error(t, err, "unknown level accepted")
}

func TestBlockedAvoidsAnchorsAndKeepsRoom(t *testing.T) {
	for seed := uint64(0); seed < 30; seed++ {
		rng := rand.New(rand.NewPCG(seed, 7))
		s := Shape{Rows: 4, Cols: 4, Words: 2, Letters: 8}
		got := Blocked(Hard, s, rng)
		require.LessOrEqual(t, len(got), 2, "seed %d", seed)
		for p := range got {
			require.True(t, p.Row >= 2 && p.Col >= 2, "seed %d: %s blocks an anchor line", seed, p)
		}
		require.GreaterOrEqual(t, 16-len(got)-1, s.Letters, "seed %d: no room left", seed)
		require.True(t, connected(4, 4, got), "seed %d: open cells split by %v", seed, got.Sorted())
	}
}

func TestBlockedEasyIsEmpty(t *testing.T) {
	got := Blocked(Easy, Shape{Rows: 5, Cols: 5, Words: 1, Letters: 5}, rand.New(rand.NewPCG(1, 1)))
	assert.Empty(t, got)
}

func TestBlockedRespectsCapacity(t *testing.T) {
	// 3x3 with 7 letters: 9 cells - 1 slot leaves room for exactly 8, so
	// only one cell may go.
	got := Blocked(Hard, Shape{Rows: 3, Cols: 3, Words: 1, Letters: 7}, rand.New(rand.NewPCG(2, 2)))
	assert.LessOrEqual(t, len(got), 1, "blocked %v", got.Sorted())
}

func TestConnected(t *testing.T) {
	cases := []struct {
		name    string
		blocked board.PosSet
		want    bool
	}{
		{"no blocks", board.PosSet{}, true},
		{"ring around the centre", board.NewPosSet(board.Pos{Row: 1, Col: 1}), true},
		{"middle column splits", board.NewPosSet(board.Pos{Row: 0, Col: 1}, board.Pos{Row: 1, Col: 1}, board.Pos{Row: 2, Col: 1}), false},
		{"corner cut off", board.NewPosSet(board.Pos{Row: 0, Col: 1}, board.Pos{Row: 1, Col: 0}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, connected(3, 3, tc.blocked))
		})
	}
}

func TestConnectedAllBlocked(t *testing.T) {
	all := board.NewPosSet(board.Pos{Row: 0, Col: 0}, board.Pos{Row: 0, Col: 1})
	assert.False(t, connected(1, 2, all))
}
