// internal/daily/daily.go
//
// Daily challenge selection. Everyone playing on the same UTC date gets
// the same classic level and the same generated board: both come from
// HMAC-SHA256(salt, "YYYY-MM-DD").

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/wordslide/internal/game"
	"github.com/robalobadob/wordslide/internal/words"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func digest(date time.Time, salt string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	return h.Sum(nil)
}

// Seed returns the board seed for a date. Never zero, since a zero seed
// asks the game for a random one.
func Seed(date time.Time, salt string) uint64 {
	sum := digest(date, salt)
	n := binary.BigEndian.Uint64(sum[8:16])
	if n == 0 {
		n = 1
	}
	return n
}

// LevelNumber returns the 1-based level played on date, out of levels.
func LevelNumber(date time.Time, salt string, levels int) int {
	if levels <= 0 {
		return 1
	}
	sum := digest(date, salt)
	n := binary.BigEndian.Uint64(sum[:8])
	return int(n%uint64(levels)) + 1
}

// Challenge returns the session config for date's challenge. Difficulty
// and timing are left for the caller.
func Challenge(date time.Time, salt string) (game.Config, error) {
	levels, err := words.Levels()
	if err != nil {
		return game.Config{}, err
	}
	return game.Config{
		Mode:  game.ModeClassic,
		Level: LevelNumber(date, salt, len(levels)),
		Seed:  Seed(date, salt),
	}, nil
}
