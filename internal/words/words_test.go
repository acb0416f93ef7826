package words

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestNewBankNormalises(t *testing.T) {
	b := NewBank([]string{" cat ", "CAT", "dogs", "a", "toolong", "c4t", "Slide"})
	got := b.Words()
	want := []string{"CAT", "DOGS", "SLIDE"}
	if len(got) != len(want) {
		t.Fatalf("Words = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Words = %v, want %v", got, want)
		}
	}
}

func TestDefaultBankLoadsEmbeddedList(t *testing.T) {
	b := Default()
	if b.Len() < 50 {
		t.Fatalf("embedded bank has %d words", b.Len())
	}
	if !slices.Contains(b.Words(), "SLIDE") {
		t.Fatal("fallback word missing from embedded bank")
	}
}

func TestReadWordFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.txt")
	if err := os.WriteFile(path, []byte("# comment\nrat\n\nowl\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lines, err := readWordFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0] != "rat" || lines[1] != "owl" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestConstructible(t *testing.T) {
	var counts [26]int
	for _, c := range "CATTO" {
		counts[c-'A']++
	}
	cases := []struct {
		word string
		want bool
	}{
		{"CAT", true},
		{"TACT", false}, // needs two Ts and a second C
		{"TOT", true},
		{"TOTT", false},
		{"DOG", false},
		{"cat", false}, // callers pass normalised words
	}
	for _, tc := range cases {
		if got := Constructible(tc.word, counts); got != tc.want {
			t.Errorf("Constructible(%q) = %v, want %v", tc.word, got, tc.want)
		}
	}
}

func TestLevelsEmbeddedTableParses(t *testing.T) {
	all, err := Levels()
	if err != nil {
		t.Fatalf("Levels: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("no levels")
	}
	first := all[0]
	if first.Rows != 3 || first.Cols != 3 || len(first.Words) != 1 || first.Words[0] != "CAT" {
		t.Fatalf("level 1 = %+v", first)
	}
}

func TestLevelAtWraps(t *testing.T) {
	all, err := Levels()
	if err != nil {
		t.Fatal(err)
	}
	lv, err := LevelAt(len(all) + 1)
	if err != nil {
		t.Fatal(err)
	}
	if lv.Number != len(all)+1 || lv.Words[0] != all[0].Words[0] {
		t.Fatalf("wrapped level = %+v", lv)
	}
	lv.Words[0] = "ZZZ"
	if again, _ := LevelAt(1); again.Words[0] == "ZZZ" {
		t.Fatal("LevelAt leaked the shared word slice")
	}
}

func TestParseLevelsRejects(t *testing.T) {
	cases := map[string]string{
		"bad field count":  "3 3",
		"bad rows":         "x 3 CAT",
		"word too long":    "3 3 CATS",
		"too many letters": "2 2 AB,CD",
		"non letters":      "3 3 C4T",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseLevels([]string{line}); err == nil {
				t.Fatalf("ParseLevels(%q) accepted", line)
			}
		})
	}
}
