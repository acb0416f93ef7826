// internal/words/words.go
//
// Word bank management for continuous mode.
//
// Responsibilities:
//   - Load the bank from a configured file or fall back to the embedded
//     default (assets/wordbank.txt).
//   - Normalise entries to uppercase A–Z, 3–5 letters, de-duplicated.
//   - Hand out an immutable *Bank; the cascade engine filters it by the
//     letters currently on the board.
//
// Initialization behavior (Init):
//   1. If path is non-empty, read one word per line from that file.
//   2. Otherwise use the embedded bank.
//   The result is cached (sync.Once) and shared read-only by all sessions.

package words

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/wordslide/assets"
)

const (
	MinWordLen = 3
	MaxWordLen = 5
)

// ErrEmptyBank is returned when no usable word survives normalisation.
var ErrEmptyBank = errors.New("words: word bank is empty")

// Bank is an ordered, de-duplicated list of uppercase words.
type Bank struct {
	list []string
}

var (
	initOnce   sync.Once
	defaultBnk *Bank
	initialErr error
)

// Init loads the shared bank exactly once.
func Init(path string) error {
	initOnce.Do(func() {
		var lines []string
		var err error
		if path != "" {
			lines, err = readWordFile(path)
		} else {
			lines, err = assets.WordBankLines()
		}
		if err != nil {
			initialErr = err
			return
		}
		defaultBnk = NewBank(lines)
		if defaultBnk.Len() == 0 {
			initialErr = ErrEmptyBank
		}
	})
	return initialErr
}

// Default returns the shared bank, loading the embedded list if Init was
// never called.
func Default() *Bank {
	_ = Init("")
	if defaultBnk == nil {
		return NewBank(nil)
	}
	return defaultBnk
}

// NewBank normalises raw entries into a bank. Invalid entries are dropped.
func NewBank(raw []string) *Bank {
	b := &Bank{}
	seen := make(map[string]bool, len(raw))
	for _, w := range raw {
		w = Normalize(w)
		if len(w) < MinWordLen || len(w) > MaxWordLen || !IsAlpha(w) || seen[w] {
			continue
		}
		seen[w] = true
		b.list = append(b.list, w)
	}
	return b
}

// Words returns a copy of the bank in file order.
func (b *Bank) Words() []string { return append([]string(nil), b.list...) }

func (b *Bank) Len() int { return len(b.list) }

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// Normalize trims and upper-cases a word.
func Normalize(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}

// IsAlpha reports whether s is all uppercase ASCII letters.
func IsAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Constructible reports whether every letter of w is available in counts
// (as returned by board.Grid.Letters) at least as many times as w needs it.
func Constructible(w string, counts [26]int) bool {
	var need [26]int
	for i := 0; i < len(w); i++ {
		c := w[i]
		if c < 'A' || c > 'Z' {
			return false
		}
		need[c-'A']++
		if need[c-'A'] > counts[c-'A'] {
			return false
		}
	}
	return true
}
