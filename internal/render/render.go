// internal/render/render.go
//
// Terminal rendering of a game.Snapshot for the play and gen commands.
// Locked cells are green, a matched word is yellow, blocked cells are
// light gray and hint endpoints are cyan.

package render

import (
	"fmt"
	"strings"

	"github.com/vyevs/ansi"

	"github.com/robalobadob/wordslide/internal/board"
	"github.com/robalobadob/wordslide/internal/cascade"
	"github.com/robalobadob/wordslide/internal/game"
	"github.com/robalobadob/wordslide/internal/hint"
	"github.com/robalobadob/wordslide/internal/match"
)

const (
	colorLocked  = "green"
	colorMatch   = "yellow"
	colorBlocked = "light gray"
	colorHint    = "cyan"
)

// Options tweak the output.
type Options struct {
	Plain bool       // no colour codes
	Hint  *hint.Hint // highlight From and To
}

// Board draws the grid with row/column indices, followed by a status line.
func Board(s game.Snapshot, o Options) string {
	var b strings.Builder
	b.Grow(64 + s.Grid.Rows()*s.Grid.Cols()*8)

	colors := cellColors(s, o)

	b.WriteString("   ")
	for c := 0; c < s.Grid.Cols(); c++ {
		fmt.Fprintf(&b, "%2d", c)
	}
	b.WriteByte('\n')

	for r, row := range s.Grid {
		fmt.Fprintf(&b, "%2d ", r)
		for c, v := range row {
			b.WriteByte(' ')
			color := colors[board.Pos{Row: r, Col: c}]
			if color != "" && !o.Plain {
				b.WriteString(ansi.FGColorName(color))
			}
			b.WriteByte(glyph(v))
			if color != "" && !o.Plain {
				b.WriteString(ansi.Clear)
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(Status(s))
	b.WriteByte('\n')
	return b.String()
}

func glyph(v byte) byte {
	switch v {
	case board.Empty:
		return '.'
	case board.Blocked:
		return '#'
	}
	return v
}

func cellColors(s game.Snapshot, o Options) map[board.Pos]string {
	out := make(map[board.Pos]string)
	for _, p := range s.Blocked {
		out[p] = colorBlocked
	}
	for _, p := range s.Locked {
		out[p] = colorLocked
	}
	if s.Match != nil && len(s.Words) > 0 {
		for _, p := range s.Match.Cells(len(matchedWord(s))) {
			out[p] = colorMatch
		}
	}
	if o.Hint != nil && o.Hint.Kind == hint.KindMove {
		out[o.Hint.From] = colorHint
		out[o.Hint.To] = colorHint
	}
	return out
}

// matchedWord is the word a cascade is clearing; it is still the active
// word until the cycle returns to idle.
func matchedWord(s game.Snapshot) string {
	if len(s.Words) == 0 {
		return ""
	}
	return s.Words[0]
}

// Status is the one-line summary under the board.
func Status(s game.Snapshot) string {
	var parts []string
	switch s.Mode {
	case game.ModeClassic:
		parts = append(parts, fmt.Sprintf("level %d", s.Level))
		parts = append(parts, "words "+strings.Join(s.Words, " "))
	case game.ModeContinuous:
		parts = append(parts, "find "+strings.Join(s.Words, " "))
		parts = append(parts, fmt.Sprintf("score %d", s.Score))
		parts = append(parts, fmt.Sprintf("cleared %d", s.Cleared))
	}
	parts = append(parts, fmt.Sprintf("moves %d", s.Moves))
	if s.Phase != "" && s.Phase != cascade.Idle {
		parts = append(parts, string(s.Phase))
	}
	if s.Complete {
		parts = append(parts, "COMPLETE")
	}
	return strings.Join(parts, " | ")
}

// Hint describes a hint for the terminal.
func Hint(h hint.Hint) string {
	if h.Kind == hint.KindStrategy {
		return h.Message
	}
	return fmt.Sprintf("move %s from %s toward %s for %s (%d steps)", h.Letter, h.From, h.To, h.Word, h.Distance)
}

// Matches lists where each word currently sits, for the gen command.
func Matches(g board.Grid, words []string) string {
	var b strings.Builder
	for _, w := range words {
		ms := match.FindAll(g, w)
		fmt.Fprintf(&b, "%s: %d placement(s)", w, len(ms))
		for _, m := range ms {
			fmt.Fprintf(&b, " %s", board.Pos{Row: m.Row, Col: m.Col})
			b.WriteString(string(m.Orientation))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
