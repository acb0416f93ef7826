// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily challenge.
//   - POST /daily/new         → start (or resume) today's level
//   - GET  /daily/leaderboard → fewest moves for today (or ?date=)
//
// A daily game is an ordinary session played through /game/*; its level
// and board come from daily.Challenge, so every player gets the same
// puzzle. Finishing the level records the result once per player and
// date.

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordslide/internal/daily"
	"github.com/robalobadob/wordslide/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*dailySession // keyed by owner|date
	mu       sync.Mutex
}

// dailySession tracks one player's attempt; it is the session's
// LevelListener.
type dailySession struct {
	d      *dailyServer
	GameID string
	Date   string
	Level  int
	Start  time.Time

	mu       sync.Mutex
	owner    string
	finished bool
}

func (s *Server) mountDaily(r chi.Router) {
	s.daily = &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.DailySalt,
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.daily.handleNew)
		r.Get("/leaderboard", s.daily.handleLeaderboard)
	})
}

type dailyNewRes struct {
	GameID string         `json:"gameId,omitempty"`
	Date   string         `json:"date"`
	Level  int            `json:"level"`
	Played bool           `json:"played"`
	State  *game.Snapshot `json:"state,omitempty"`
}

func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	owner, me := d.srv.owner(w, r)
	now := d.srv.now()
	date := daily.DateKey(now)

	if played, err := d.store.AlreadyPlayed(r.Context(), owner, date); err != nil {
		log.Error().Err(err).Msg("daily already played")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	} else if played {
		writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Played: true})
		return
	}

	key := owner + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if ok {
		var snap game.Snapshot
		err := d.srv.sessions.With(r.Context(), sess.GameID, owner, func(g *game.Session) error {
			snap = g.Snapshot()
			return nil
		})
		if err == nil {
			writeJSON(w, http.StatusOK, dailyNewRes{GameID: sess.GameID, Date: date, Level: sess.Level, State: &snap})
			return
		}
		// swept from memory; start over
	}

	cfg, err := daily.Challenge(now, d.salt)
	if err != nil {
		writeGameError(w, err)
		return
	}
	sess = &dailySession{d: d, owner: owner, Date: date, Level: cfg.Level, Start: now}
	cfg.Listener = sess
	g, err := game.New(d.srv.sessionConfig(cfg))
	if err != nil {
		writeGameError(w, err)
		return
	}
	sess.GameID = g.ID
	d.srv.startSession(r.Context(), owner, me, g)

	d.mu.Lock()
	d.sessions[key] = sess
	d.mu.Unlock()

	snap := g.Snapshot()
	writeJSON(w, http.StatusOK, dailyNewRes{GameID: g.ID, Date: date, Level: cfg.Level, State: &snap})
}

// LevelComplete records the first completion of the daily level.
func (ds *dailySession) LevelComplete(snap game.Snapshot) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.finished || snap.Level != ds.Level {
		return
	}
	ds.finished = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	elapsed := int(ds.d.srv.now().Sub(ds.Start).Milliseconds())
	if err := ds.d.store.InsertResult(ctx, daily.Result{
		UserID:    ds.owner,
		Date:      ds.Date,
		Level:     ds.Level,
		Moves:     snap.Moves,
		ElapsedMs: elapsed,
	}); err != nil {
		log.Warn().Err(err).Str("owner", ds.owner).Str("date", ds.Date).Msg("insert daily result")
		return
	}
	log.Info().Str("date", ds.Date).Int("moves", snap.Moves).Msg("daily level complete")
}

// claim re-keys a guest's daily attempts and results to an account. A date
// the account already has an attempt for keeps the account's attempt.
func (d *dailyServer) claim(ctx context.Context, from, to string) {
	d.mu.Lock()
	for key, sess := range d.sessions {
		owner, date, _ := strings.Cut(key, "|")
		if owner != from {
			continue
		}
		delete(d.sessions, key)
		sess.mu.Lock()
		sess.owner = to
		sess.mu.Unlock()
		if _, taken := d.sessions[to+"|"+date]; !taken {
			d.sessions[to+"|"+date] = sess
		}
	}
	d.mu.Unlock()

	if err := d.store.Claim(ctx, from, to); err != nil {
		log.Warn().Err(err).Msg("claim anon daily results")
	}
}

type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date")
		return
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
