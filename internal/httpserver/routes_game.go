// internal/httpserver/routes_game.go
//
// Game endpoints. Sessions live in the memory store; every handler works
// on its session inside store.With, so one session never sees two
// requests at once.
//
//   - POST /game/new    → start a classic or continuous session
//   - GET  /game/{id}   → current snapshot
//   - DELETE /game/{id} → abandon a live session
//   - POST /game/move   → request a move (optionally settle it at once)
//   - POST /game/tick   → advance time by ms
//   - POST /game/hint   → ask for a hint (costs moves)
//   - POST /game/next   → next classic level
//   - POST /game/reset  → regenerate, optionally at a new difficulty
//   - POST /game/save   → persist the session state
//   - POST /game/load   → restore a saved session
//   - GET  /game/saves  → list the caller's saves

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordslide/internal/board"
	"github.com/robalobadob/wordslide/internal/difficulty"
	"github.com/robalobadob/wordslide/internal/game"
	"github.com/robalobadob/wordslide/internal/generator"
	"github.com/robalobadob/wordslide/internal/hint"
	"github.com/robalobadob/wordslide/internal/store"
)

const maxBody = 1 << 20

func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Get("/saves", s.handleListSaves)
		r.Get("/{id}", s.handleGetGame)
		r.Delete("/{id}", s.handleDeleteGame)
		r.Post("/move", s.handleMove)
		r.Post("/tick", s.handleTick)
		r.Post("/hint", s.handleHint)
		r.Post("/next", s.handleNext)
		r.Post("/reset", s.handleReset)
		r.Post("/save", s.handleSave)
		r.Post("/load", s.handleLoad)
	})
}

// decode reads a JSON body. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// sessionConfig fills timing and difficulty from the server config.
func (s *Server) sessionConfig(c game.Config) game.Config {
	c.SlideDuration = s.cfg.SlideDuration
	c.Cascade = s.cfg.Cascade()
	if c.Difficulty == "" {
		c.Difficulty = s.cfg.DifficultyLevel()
	}
	return c
}

type gameRes struct {
	GameID string        `json:"gameId"`
	State  game.Snapshot `json:"state"`
	Events []game.Event  `json:"events,omitempty"`
	Hint   *hint.Hint    `json:"hint,omitempty"`
}

func respond(g *game.Session, events []game.Event) gameRes {
	return gameRes{GameID: g.ID, State: g.Snapshot(), Events: events}
}

// writeGameError maps store and game errors to HTTP responses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, board.ErrInvalidMove):
		writeError(w, http.StatusConflict, moveErrCode(err))
	case errors.Is(err, game.ErrLevelNotComplete):
		writeError(w, http.StatusConflict, "level_not_complete")
	case errors.Is(err, game.ErrNotClassic):
		writeError(w, http.StatusBadRequest, "not_classic")
	case errors.Is(err, game.ErrBadState):
		writeError(w, http.StatusUnprocessableEntity, "bad_state")
	default:
		log.Error().Err(err).Msg("game request failed")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

func moveErrCode(err error) string {
	switch {
	case errors.Is(err, game.ErrBusy):
		return "busy"
	case errors.Is(err, game.ErrLocked):
		return "locked"
	case errors.Is(err, game.ErrBlocked):
		return "blocked"
	case errors.Is(err, game.ErrNotAdjacent):
		return "not_adjacent"
	case errors.Is(err, game.ErrLevelComplete):
		return "level_complete"
	}
	return "invalid_move"
}

// ------------------------------- new / get ---------------------------------

type newGameReq struct {
	Mode       string `json:"mode"`
	Level      int    `json:"level"`
	Rows       int    `json:"rows"`
	Cols       int    `json:"cols"`
	Difficulty string `json:"difficulty"`
	Seed       uint64 `json:"seed"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	mode, err := game.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_mode")
		return
	}
	var diff difficulty.Level
	if req.Difficulty != "" {
		if diff, err = difficulty.Parse(req.Difficulty); err != nil {
			writeError(w, http.StatusBadRequest, "bad_difficulty")
			return
		}
	}
	if req.Rows < 0 || req.Cols < 0 || req.Rows > generator.MaxDimension || req.Cols > generator.MaxDimension {
		writeError(w, http.StatusBadRequest, "bad_dimensions")
		return
	}

	g, err := game.New(s.sessionConfig(game.Config{
		Mode:       mode,
		Level:      req.Level,
		Rows:       req.Rows,
		Cols:       req.Cols,
		Difficulty: diff,
		Seed:       req.Seed,
	}))
	if errors.Is(err, generator.ErrInvalidDimensions) || errors.Is(err, generator.ErrTooManyLetters) {
		writeError(w, http.StatusBadRequest, "bad_dimensions")
		return
	}
	if err != nil {
		writeGameError(w, err)
		return
	}
	owner, me := s.owner(w, r)
	s.startSession(r.Context(), owner, me, g)
	writeJSON(w, http.StatusOK, respond(g, nil))
}

// startSession registers g and writes its history row.
func (s *Server) startSession(ctx context.Context, owner string, me *authUser, g *game.Session) {
	_ = s.sessions.Put(ctx, owner, g)

	snap := g.Snapshot()
	now := s.now().UTC().Format(time.RFC3339)
	col := "anonymous_id"
	if me != nil {
		col = "user_id"
	}
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO games (id, `+col+`, mode, level, status, started_at)
	                                    VALUES (?,?,?,?,?,?)`, g.ID, owner, snap.Mode, snap.Level, "playing", now); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("insert game row")
	}
	if me != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE users SET games_played = games_played + 1 WHERE id=?`, me.ID); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump games played")
		}
	}
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	owner, _ := s.owner(w, r)
	var res gameRes
	err := s.sessions.With(r.Context(), chi.URLParam(r, "id"), owner, func(g *game.Session) error {
		res = respond(g, nil)
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	owner, _ := s.owner(w, r)
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id"), owner); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ------------------------------- play ---------------------------------------

type moveReq struct {
	GameID string `json:"gameId"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Settle bool   `json:"settle"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := decode(r, &req); err != nil || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	owner, me := s.owner(w, r)
	var res gameRes
	err := s.sessions.With(r.Context(), req.GameID, owner, func(g *game.Session) error {
		events, err := g.RequestMove(board.Pos{Row: req.Row, Col: req.Col})
		if err != nil {
			return err
		}
		if req.Settle {
			events = append(events, g.Settle()...)
		}
		s.record(r.Context(), me, g, events)
		res = respond(g, events)
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type tickReq struct {
	GameID string `json:"gameId"`
	Ms     int64  `json:"ms"`
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req tickReq
	if err := decode(r, &req); err != nil || req.GameID == "" || req.Ms < 0 {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	owner, me := s.owner(w, r)
	var res gameRes
	err := s.sessions.With(r.Context(), req.GameID, owner, func(g *game.Session) error {
		events := g.Tick(time.Duration(req.Ms) * time.Millisecond)
		s.record(r.Context(), me, g, events)
		res = respond(g, events)
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type gameIDReq struct {
	GameID     string `json:"gameId"`
	Difficulty string `json:"difficulty,omitempty"`
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req gameIDReq
	if err := decode(r, &req); err != nil || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	owner, _ := s.owner(w, r)
	var res gameRes
	err := s.sessions.With(r.Context(), req.GameID, owner, func(g *game.Session) error {
		h := g.Hint()
		res = respond(g, nil)
		res.Hint = &h
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	var req gameIDReq
	if err := decode(r, &req); err != nil || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	owner, _ := s.owner(w, r)
	var res gameRes
	err := s.sessions.With(r.Context(), req.GameID, owner, func(g *game.Session) error {
		if err := g.NextLevel(); err != nil {
			return err
		}
		s.updateRow(r.Context(), g, "playing")
		res = respond(g, nil)
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req gameIDReq
	if err := decode(r, &req); err != nil || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	var diff difficulty.Level
	if req.Difficulty != "" {
		var err error
		if diff, err = difficulty.Parse(req.Difficulty); err != nil {
			writeError(w, http.StatusBadRequest, "bad_difficulty")
			return
		}
	}
	owner, _ := s.owner(w, r)
	var res gameRes
	err := s.sessions.With(r.Context(), req.GameID, owner, func(g *game.Session) error {
		var err error
		if diff != "" {
			err = g.SetDifficulty(diff)
		} else {
			err = g.Reset()
		}
		if err != nil {
			return err
		}
		s.updateRow(r.Context(), g, "playing")
		res = respond(g, nil)
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// record persists progress after events: the games row always, the
// user's stats when a level was won or a word cleared.
func (s *Server) record(ctx context.Context, me *authUser, g *game.Session, events []game.Event) {
	var won, cleared int
	for _, e := range events {
		switch e.Kind {
		case game.EventLevelComplete:
			won++
		case game.EventWordCleared:
			cleared++
		}
	}
	status := "playing"
	if won > 0 {
		status = "won"
	}
	s.updateRow(ctx, g, status)

	if me == nil || won+cleared == 0 {
		return
	}
	snap := g.Snapshot()
	if _, err := s.db.ExecContext(ctx, `
        UPDATE users SET levels_won = levels_won + ?, words_cleared = words_cleared + ?,
                         best_score = MAX(best_score, ?)
        WHERE id=?`, won, cleared, snap.Score, me.ID); err != nil {
		log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
	}
}

func (s *Server) updateRow(ctx context.Context, g *game.Session, status string) {
	snap := g.Snapshot()
	var finished any
	if status == "won" {
		finished = s.now().UTC().Format(time.RFC3339)
	}
	if _, err := s.db.ExecContext(ctx, `
        UPDATE games SET level=?, status=?, moves=?, score=?, finished_at=?
        WHERE id=?`, snap.Level, status, snap.Moves, snap.Score, finished, g.ID); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("update game row")
	}
}

// ------------------------------ save / load --------------------------------

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req gameIDReq
	if err := decode(r, &req); err != nil || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	owner, _ := s.owner(w, r)
	var st game.State
	err := s.sessions.With(r.Context(), req.GameID, owner, func(g *game.Session) error {
		var err error
		st, err = g.State()
		return err
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	if err := s.saves.Save(r.Context(), owner, st); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"saveId": st.ID})
}

type loadReq struct {
	SaveID string `json:"saveId"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadReq
	if err := decode(r, &req); err != nil || req.SaveID == "" {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	owner, _ := s.owner(w, r)
	st, err := s.saves.Load(r.Context(), owner, req.SaveID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	g, err := game.Restore(st, s.sessionConfig(game.Config{}))
	if err != nil {
		writeGameError(w, err)
		return
	}
	_ = s.sessions.Put(r.Context(), owner, g)
	writeJSON(w, http.StatusOK, respond(g, nil))
}

func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	owner, _ := s.owner(w, r)
	list, err := s.saves.List(r.Context(), owner)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
