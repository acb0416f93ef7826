// cmd/play.go
//
// `wordslide play`: a line-oriented terminal game. Each move is settled
// before the board is redrawn, so the cascade never needs a clock.

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robalobadob/wordslide/internal/board"
	"github.com/robalobadob/wordslide/internal/difficulty"
	"github.com/robalobadob/wordslide/internal/game"
	"github.com/robalobadob/wordslide/internal/hint"
	"github.com/robalobadob/wordslide/internal/render"
)

var (
	playMode       string
	playLevel      int
	playRows       int
	playCols       int
	playSeed       uint64
	playDifficulty string
	playPlain      bool
)

const playHelp = `commands:
  <row> <col>   slide that tile into the empty slot
  h             hint (costs moves)
  n             next level (classic, after a win)
  r             reset the board
  d <level>     change difficulty (easy, medium, hard)
  q             quit`

func init() {
	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Long: `Play a session in the terminal. Moves settle immediately: the slide and
any cascade run to completion before the board is redrawn.

` + playHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sessionFlags(playMode, playDifficulty)
			if err != nil {
				return err
			}
			c.Level = playLevel
			c.Rows, c.Cols = playRows, playCols
			c.Seed = playSeed
			return play(cmd.InOrStdin(), cmd.OutOrStdout(), c, playPlain)
		},
	}
	playCmd.Flags().StringVarP(&playMode, "mode", "m", string(game.ModeClassic), "classic or continuous")
	playCmd.Flags().IntVarP(&playLevel, "level", "l", 1, "Starting classic level")
	playCmd.Flags().IntVar(&playRows, "rows", game.DefaultContinuousRows, "Continuous grid rows")
	playCmd.Flags().IntVar(&playCols, "cols", game.DefaultContinuousCols, "Continuous grid columns")
	playCmd.Flags().Uint64Var(&playSeed, "seed", 0, "Seed (0 = random)")
	playCmd.Flags().StringVarP(&playDifficulty, "difficulty", "d", "", "easy, medium or hard")
	playCmd.Flags().BoolVar(&playPlain, "plain", false, "No colours")
	rootCmd.AddCommand(playCmd)
}

// play runs the read-eval-draw loop until q or end of input.
func play(in io.Reader, out io.Writer, c game.Config, plain bool) error {
	g, err := game.New(c)
	if err != nil {
		return err
	}
	sc := bufio.NewScanner(in)
	var last *hint.Hint

	draw := func() {
		fmt.Fprint(out, render.Board(g.Snapshot(), render.Options{Plain: plain, Hint: last}))
		last = nil
	}
	say := func(format string, a ...any) { fmt.Fprintf(out, format+"\n", a...) }

	draw()
	fmt.Fprintln(out, playHelp)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "q", "quit", "exit":
			return nil
		case "h", "hint":
			h := g.Hint()
			last = &h
			say("%s", render.Hint(h))
		case "n", "next":
			if err := g.NextLevel(); err != nil {
				say("cannot advance: %v", err)
				continue
			}
		case "r", "reset":
			if err := g.Reset(); err != nil {
				return err
			}
		case "d":
			if len(fields) != 2 {
				say("usage: d <easy|medium|hard>")
				continue
			}
			l, err := difficulty.Parse(fields[1])
			if err != nil {
				say("%v", err)
				continue
			}
			if err := g.SetDifficulty(l); err != nil {
				return err
			}
		default:
			p, ok := parsePos(fields)
			if !ok {
				say("unknown command %q", sc.Text())
				continue
			}
			if _, err := g.RequestMove(p); err != nil {
				if errors.Is(err, board.ErrInvalidMove) {
					say("%v", err)
					continue
				}
				return err
			}
			for _, e := range g.Settle() {
				switch e.Kind {
				case game.EventWordCleared:
					say("cleared %s", e.Word)
				case game.EventLevelComplete:
					say("level complete in %d moves! n for the next level", g.Moves())
				}
			}
		}
		draw()
	}
}

func parsePos(fields []string) (board.Pos, bool) {
	if len(fields) != 2 {
		return board.Pos{}, false
	}
	r, err1 := strconv.Atoi(fields[0])
	c, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return board.Pos{}, false
	}
	return board.Pos{Row: r, Col: c}, true
}
