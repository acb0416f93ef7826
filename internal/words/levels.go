// internal/words/levels.go
//
// Classic level table. Each level names its grid size and an ordered
// target word list; word i is solved when it reads across row i or down
// column i.

package words

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/robalobadob/wordslide/assets"
)

// Level is one classic-mode puzzle definition.
type Level struct {
	Number int      `json:"number"` // 1-based
	Rows   int      `json:"rows"`
	Cols   int      `json:"cols"`
	Words  []string `json:"words"`
}

var (
	levelsOnce sync.Once
	levels     []Level
	levelsErr  error
)

// Levels returns the embedded level table.
func Levels() ([]Level, error) {
	levelsOnce.Do(func() {
		lines, err := assets.LevelLines()
		if err != nil {
			levelsErr = err
			return
		}
		levels, levelsErr = ParseLevels(lines)
	})
	return levels, levelsErr
}

// LevelAt returns level n (1-based). Numbers past the end wrap around so
// classic play never runs out of boards.
func LevelAt(n int) (Level, error) {
	all, err := Levels()
	if err != nil {
		return Level{}, err
	}
	if len(all) == 0 {
		return Level{}, fmt.Errorf("words: no levels")
	}
	if n < 1 {
		n = 1
	}
	lv := all[(n-1)%len(all)]
	lv.Number = n
	lv.Words = append([]string(nil), lv.Words...)
	return lv, nil
}

// ParseLevels parses "rows cols WORD[,WORD...]" lines and checks that
// every word fits at its anchor and the letters leave room for the slot.
func ParseLevels(lines []string) ([]Level, error) {
	out := make([]Level, 0, len(lines))
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("levels line %d: want 3 fields, got %d", i+1, len(fields))
		}
		rows, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("levels line %d: rows: %w", i+1, err)
		}
		cols, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("levels line %d: cols: %w", i+1, err)
		}
		lv := Level{Number: len(out) + 1, Rows: rows, Cols: cols}
		total := 0
		for j, w := range strings.Split(fields[2], ",") {
			w = Normalize(w)
			if !IsAlpha(w) {
				return nil, fmt.Errorf("levels line %d: bad word %q", i+1, w)
			}
			if !fitsAnchor(w, j, rows, cols) {
				return nil, fmt.Errorf("levels line %d: %s does not fit row or column %d", i+1, w, j)
			}
			total += len(w)
			lv.Words = append(lv.Words, w)
		}
		if total > rows*cols-1 {
			return nil, fmt.Errorf("levels line %d: %d letters on a %dx%d board", i+1, total, rows, cols)
		}
		out = append(out, lv)
	}
	return out, nil
}

func fitsAnchor(w string, i, rows, cols int) bool {
	across := i < rows && len(w) <= cols
	down := i < cols && len(w) <= rows
	return across || down
}
