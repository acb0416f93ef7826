// internal/config/config.go
//
// Process configuration.
// Responsibilities:
//   - Loading .env (if present) into the environment.
//   - Parsing the environment into Config, with defaults for local dev.
//   - Setting up the global zerolog logger from LOG_LEVEL / LOG_FORMAT.

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordslide/internal/cascade"
	"github.com/robalobadob/wordslide/internal/difficulty"
)

const devSecret = "dev_secret_change_me"

// Config is everything read from the environment.
type Config struct {
	Port      string `env:"PORT"       envDefault:"5175"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	DBPath    string `env:"DB_PATH"    envDefault:"./data/wordslide.db"`
	NodeEnv   string `env:"NODE_ENV"   envDefault:"development"`

	JWTSecret      string `env:"JWT_SECRET"       envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME"      envDefault:"wordslide_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN"    envDefault:"http://localhost:5173"`

	DailySalt  string `env:"DAILY_SALT"       envDefault:"local_dev_salt"`
	WordsFile  string `env:"WORDS_BANK_FILE"`
	Difficulty string `env:"DIFFICULTY"       envDefault:"easy"`

	// zero keeps game.DefaultSlideDuration
	SlideDuration  time.Duration `env:"SLIDE_DURATION"`
	BlinkDuration  time.Duration `env:"BLINK_DURATION"  envDefault:"2s"`
	ClearDuration  time.Duration `env:"CLEAR_DURATION"  envDefault:"2s"`
	RefillDuration time.Duration `env:"REFILL_DURATION" envDefault:"1200ms"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"2h"`
}

// Load reads .env (missing is fine) and parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := difficulty.Parse(c.Difficulty); err != nil {
		return Config{}, err
	}
	if c.Production() && c.JWTSecret == devSecret {
		return Config{}, errors.New("config: JWT_SECRET must be set in production")
	}
	return c, nil
}

// Production reports NODE_ENV=production; cookies go Secure/SameSite=None.
func (c Config) Production() bool { return c.NodeEnv == "production" }

// DifficultyLevel is the parsed DIFFICULTY.
func (c Config) DifficultyLevel() difficulty.Level {
	l, _ := difficulty.Parse(c.Difficulty)
	return l
}

// Cascade returns the configured phase durations.
func (c Config) Cascade() cascade.Durations {
	d := cascade.DefaultDurations()
	d.Blinking = c.BlinkDuration
	d.Clearing = c.ClearDuration
	d.Refill = c.RefillDuration
	return d
}

// SetupLogging configures the global zerolog logger. LOG_FORMAT=console
// switches to the human-readable writer on w.
func (c Config) SetupLogging(w io.Writer) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if c.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
