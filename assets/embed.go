// assets/embed.go
//
// Embedded data files: the continuous-mode word bank, the classic level
// table and the SQL migrations applied by internal/db.

package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed wordbank.txt levels.txt sql/*.sql
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// WordBankLines returns the raw word bank entries.
func WordBankLines() ([]string, error) {
	return readLines("wordbank.txt")
}

// LevelLines returns the raw level table rows ("rows cols WORD,WORD").
func LevelLines() ([]string, error) {
	return readLines("levels.txt")
}

// Migrations exposes the sql directory for the migrator.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		panic(err) // directory is embedded at build time
	}
	return sub
}
