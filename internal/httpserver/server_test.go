package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordslide/internal/board"
	"github.com/robalobadob/wordslide/internal/config"
	"github.com/robalobadob/wordslide/internal/daily"
	"github.com/robalobadob/wordslide/internal/db"
	"github.com/robalobadob/wordslide/internal/game"
	"github.com/robalobadob/wordslide/internal/hint"
	"github.com/robalobadob/wordslide/internal/store"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test_secret",
		JWTExpiresDays: 1,
		CookieName:     "wordslide_token",
		ClientOrigin:   "http://localhost:5173",
		DailySalt:      "salt",
		Difficulty:     "easy",
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	conn, err := db.OpenAndMigrate(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	s := New(testConfig(), store.NewMemoryStore(), conn)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

// client keeps its own cookies, so each one is a separate player.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, ts *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		c.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type errRes struct {
	Error string `json:"error"`
}

func (c *client) newGame(body newGameReq) gameRes {
	c.t.Helper()
	var res gameRes
	if code := c.do("POST", "/game/new", body, &res); code != http.StatusOK {
		c.t.Fatalf("new game: status %d", code)
	}
	return res
}

func neighbour(s game.Snapshot) board.Pos {
	for _, d := range []board.Pos{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}} {
		p := board.Pos{Row: s.Empty.Row + d.Row, Col: s.Empty.Col + d.Col}
		if s.Grid.InBounds(p) {
			return p
		}
	}
	return s.Empty
}

func TestHealthAndNotFound(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)

	var health map[string]any
	if code := c.do("GET", "/health", nil, &health); code != http.StatusOK || health["ok"] != true {
		t.Fatalf("health = %d %v", code, health)
	}
	var e errRes
	if code := c.do("GET", "/nope", nil, &e); code != http.StatusNotFound || e.Error != "not_found" {
		t.Fatalf("404 = %d %v", code, e)
	}
}

func TestGameFlow(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)

	g := c.newGame(newGameReq{Mode: "classic", Level: 1, Seed: 7})
	if g.GameID == "" || g.State.Grid.Rows() != 3 || len(g.State.Words) != 1 {
		t.Fatalf("new game = %+v", g)
	}

	var got gameRes
	if code := c.do("GET", "/game/"+g.GameID, nil, &got); code != http.StatusOK || !got.State.Grid.Equal(g.State.Grid) {
		t.Fatalf("get = %d %+v", code, got)
	}

	var e errRes
	code := c.do("POST", "/game/move", moveReq{GameID: g.GameID, Row: g.State.Empty.Row, Col: g.State.Empty.Col}, &e)
	if code != http.StatusConflict || e.Error != "not_adjacent" {
		t.Fatalf("bad move = %d %v", code, e)
	}

	p := neighbour(g.State)
	var moved gameRes
	if code := c.do("POST", "/game/move", moveReq{GameID: g.GameID, Row: p.Row, Col: p.Col, Settle: true}, &moved); code != http.StatusOK {
		t.Fatalf("move = %d", code)
	}
	if moved.State.Moves != 1 || moved.State.Empty != p || moved.State.Slide != nil {
		t.Fatalf("after move: %+v", moved.State)
	}
	if len(moved.Events) < 2 || moved.Events[0].Kind != game.EventMoveStarted {
		t.Fatalf("events = %+v", moved.Events)
	}

	var h gameRes
	if code := c.do("POST", "/game/hint", gameIDReq{GameID: g.GameID}, &h); code != http.StatusOK || h.Hint == nil {
		t.Fatalf("hint = %d %+v", code, h)
	}
	if h.State.Moves != 1+hint.Penalty {
		t.Fatalf("moves after hint = %d", h.State.Moves)
	}

	if code := c.do("POST", "/game/tick", tickReq{GameID: g.GameID, Ms: -5}, nil); code != http.StatusBadRequest {
		t.Fatalf("negative tick = %d", code)
	}
}

func TestMoveWithTicks(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)
	g := c.newGame(newGameReq{Seed: 11})

	p := neighbour(g.State)
	var started gameRes
	if code := c.do("POST", "/game/move", moveReq{GameID: g.GameID, Row: p.Row, Col: p.Col}, &started); code != http.StatusOK {
		t.Fatalf("move = %d", code)
	}
	if started.State.Slide == nil || started.State.Moves != 0 {
		t.Fatalf("slide not pending: %+v", started.State)
	}
	var e errRes
	if code := c.do("POST", "/game/move", moveReq{GameID: g.GameID, Row: p.Row, Col: p.Col}, &e); code != http.StatusConflict || e.Error != "busy" {
		t.Fatalf("second move = %d %v", code, e)
	}

	var ticked gameRes
	ms := game.DefaultSlideDuration.Milliseconds() + 1
	if code := c.do("POST", "/game/tick", tickReq{GameID: g.GameID, Ms: ms}, &ticked); code != http.StatusOK {
		t.Fatalf("tick = %d", code)
	}
	if ticked.State.Slide != nil || ticked.State.Moves != 1 {
		t.Fatalf("after tick: %+v", ticked.State)
	}
}

func TestGamesArePerPlayer(t *testing.T) {
	_, ts := newTestServer(t)
	alice, bob := newClient(t, ts), newClient(t, ts)
	g := alice.newGame(newGameReq{Seed: 3})

	var e errRes
	if code := bob.do("GET", "/game/"+g.GameID, nil, &e); code != http.StatusNotFound {
		t.Fatalf("bob saw alice's game: %d", code)
	}
	if code := bob.do("POST", "/game/hint", gameIDReq{GameID: g.GameID}, &e); code != http.StatusNotFound {
		t.Fatalf("bob hinted alice's game: %d", code)
	}
}

func TestSaveAndLoad(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)
	g := c.newGame(newGameReq{Mode: "continuous", Rows: 4, Cols: 4, Seed: 5})
	c.do("POST", "/game/hint", gameIDReq{GameID: g.GameID}, nil)

	var saved map[string]string
	if code := c.do("POST", "/game/save", gameIDReq{GameID: g.GameID}, &saved); code != http.StatusOK || saved["saveId"] != g.GameID {
		t.Fatalf("save = %d %v", code, saved)
	}
	c.do("POST", "/game/hint", gameIDReq{GameID: g.GameID}, nil)

	var loaded gameRes
	if code := c.do("POST", "/game/load", loadReq{SaveID: g.GameID}, &loaded); code != http.StatusOK {
		t.Fatalf("load = %d", code)
	}
	if loaded.State.Moves != hint.Penalty || !loaded.State.Grid.Equal(g.State.Grid) || loaded.State.Words[0] != g.State.Words[0] {
		t.Fatalf("loaded %+v", loaded.State)
	}

	var list []store.SaveInfo
	if code := c.do("GET", "/game/saves", nil, &list); code != http.StatusOK || len(list) != 1 {
		t.Fatalf("saves = %d %v", code, list)
	}
	var e errRes
	if code := newClient(t, ts).do("POST", "/game/load", loadReq{SaveID: g.GameID}, &e); code != http.StatusNotFound {
		t.Fatalf("stranger loaded a save: %d", code)
	}
}

func TestNewGameValidation(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)
	cases := map[string]struct {
		body newGameReq
		code string
	}{
		"mode":       {newGameReq{Mode: "arcade"}, "bad_mode"},
		"difficulty": {newGameReq{Difficulty: "brutal"}, "bad_difficulty"},
		"too big":    {newGameReq{Mode: "continuous", Rows: 40, Cols: 4}, "bad_dimensions"},
		"too small":  {newGameReq{Mode: "continuous", Rows: 1, Cols: 1}, "bad_dimensions"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var e errRes
			if code := c.do("POST", "/game/new", tc.body, &e); code != http.StatusBadRequest || e.Error != tc.code {
				t.Fatalf("got %d %v, want 400 %s", code, e, tc.code)
			}
		})
	}
}

func TestNextLevelNeedsWin(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)
	g := c.newGame(newGameReq{Seed: 9})
	var e errRes
	if code := c.do("POST", "/game/next", gameIDReq{GameID: g.GameID}, &e); code != http.StatusConflict || e.Error != "level_not_complete" {
		t.Fatalf("next = %d %v", code, e)
	}

	var reset gameRes
	if code := c.do("POST", "/game/reset", gameIDReq{GameID: g.GameID, Difficulty: "medium"}, &reset); code != http.StatusOK {
		t.Fatalf("reset = %d", code)
	}
	if reset.State.Difficulty != "medium" {
		t.Fatalf("difficulty = %s", reset.State.Difficulty)
	}
}

func TestAuthFlow(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)

	// a guest game is carried into the new account
	c.newGame(newGameReq{Seed: 1})

	creds := credentials{Username: "slider", Password: "correct horse"}
	if code := c.do("POST", "/auth/signup", creds, nil); code != http.StatusOK {
		t.Fatalf("signup = %d", code)
	}
	var e errRes
	if code := newClient(t, ts).do("POST", "/auth/signup", creds, &e); code != http.StatusConflict {
		t.Fatalf("duplicate signup = %d %v", code, e)
	}

	var me authUser
	if code := c.do("GET", "/auth/me", nil, &me); code != http.StatusOK || me.Username != "slider" {
		t.Fatalf("me = %d %+v", code, me)
	}

	c.newGame(newGameReq{Seed: 2})
	var stats map[string]any
	if code := c.do("GET", "/stats/me", nil, &stats); code != http.StatusOK || stats["gamesPlayed"] != float64(1) {
		t.Fatalf("stats = %d %v", code, stats)
	}
	var mine []gameRow
	if code := c.do("GET", "/games/mine", nil, &mine); code != http.StatusOK || len(mine) != 2 {
		t.Fatalf("games/mine = %d %v", code, mine)
	}

	c.do("POST", "/auth/logout", nil, nil)
	if code := c.do("GET", "/auth/me", nil, &e); code != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d", code)
	}
	if code := c.do("POST", "/auth/login", credentials{Username: "slider", Password: "wrong password"}, &e); code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", code)
	}
	if code := c.do("POST", "/auth/login", credentials{Username: "SLIDER", Password: "correct horse"}, nil); code != http.StatusOK {
		t.Fatalf("login = %d", code)
	}
	if code := c.do("GET", "/auth/me", nil, &me); code != http.StatusOK {
		t.Fatalf("me after login = %d", code)
	}
}

func TestSignupValidation(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)
	for _, creds := range []credentials{
		{Username: "ab", Password: "long enough"},
		{Username: "has space", Password: "long enough"},
		{Username: "fine_name", Password: "short"},
	} {
		if code := c.do("POST", "/auth/signup", creds, nil); code != http.StatusBadRequest {
			t.Fatalf("%+v accepted: %d", creds, code)
		}
	}
}

func TestDailyFlow(t *testing.T) {
	s, ts := newTestServer(t)
	c := newClient(t, ts)

	var first dailyNewRes
	if code := c.do("POST", "/daily/new", nil, &first); code != http.StatusOK || first.GameID == "" || first.Played {
		t.Fatalf("daily new = %d %+v", code, first)
	}
	cfg, err := daily.Challenge(time.Now(), "salt")
	if err != nil {
		t.Fatal(err)
	}
	if first.Level != cfg.Level || first.State == nil || first.State.Level != cfg.Level {
		t.Fatalf("level = %d, want %d", first.Level, cfg.Level)
	}

	var again dailyNewRes
	c.do("POST", "/daily/new", nil, &again)
	if again.GameID != first.GameID {
		t.Fatalf("resumed %s, want %s", again.GameID, first.GameID)
	}

	// Another player gets the same board.
	var other dailyNewRes
	newClient(t, ts).do("POST", "/daily/new", nil, &other)
	if other.GameID == first.GameID || !other.State.Grid.Equal(first.State.Grid) {
		t.Fatal("daily boards differ between players")
	}

	var lb lbRes
	if code := c.do("GET", "/daily/leaderboard", nil, &lb); code != http.StatusOK || len(lb.Top) != 0 {
		t.Fatalf("leaderboard = %d %+v", code, lb)
	}

	// Finish the level through the listener the session was given.
	s.daily.mu.Lock()
	var sess *dailySession
	for _, ds := range s.daily.sessions {
		if ds.GameID == first.GameID {
			sess = ds
		}
	}
	s.daily.mu.Unlock()
	if sess == nil {
		t.Fatal("daily session not tracked")
	}
	snap := *first.State
	snap.Moves = 17
	sess.LevelComplete(snap)
	sess.LevelComplete(snap)

	var done dailyNewRes
	if code := c.do("POST", "/daily/new", nil, &done); code != http.StatusOK || !done.Played {
		t.Fatalf("after finish = %d %+v", code, done)
	}
	c.do("GET", "/daily/leaderboard", nil, &lb)
	if len(lb.Top) != 1 || lb.Top[0].Moves != 17 {
		t.Fatalf("leaderboard = %+v", lb)
	}

	var e errRes
	if code := c.do("GET", "/daily/leaderboard?date=yesterday", nil, &e); code != http.StatusBadRequest {
		t.Fatalf("bad date = %d", code)
	}
}

func TestGuestSessionsSurviveSignup(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)

	g := c.newGame(newGameReq{Mode: "classic", Level: 1, Seed: 11})
	var before dailyNewRes
	require.Equal(t, http.StatusOK, c.do("POST", "/daily/new", nil, &before))

	creds := credentials{Username: "newcomer", Password: "correct horse"}
	require.Equal(t, http.StatusOK, c.do("POST", "/auth/signup", creds, nil))

	var got gameRes
	require.Equal(t, http.StatusOK, c.do("GET", "/game/"+g.GameID, nil, &got))
	assert.True(t, got.State.Grid.Equal(g.State.Grid))

	p := neighbour(g.State)
	var moved gameRes
	require.Equal(t, http.StatusOK, c.do("POST", "/game/move", moveReq{GameID: g.GameID, Row: p.Row, Col: p.Col, Settle: true}, &moved))
	assert.Equal(t, 1, moved.State.Moves)

	// the account resumes the guest's daily board instead of getting a second one
	var after dailyNewRes
	require.Equal(t, http.StatusOK, c.do("POST", "/daily/new", nil, &after))
	assert.Equal(t, before.GameID, after.GameID)
}

func TestDeleteGame(t *testing.T) {
	_, ts := newTestServer(t)
	alice, bob := newClient(t, ts), newClient(t, ts)
	g := alice.newGame(newGameReq{Seed: 4})

	var e errRes
	assert.Equal(t, http.StatusNotFound, bob.do("DELETE", "/game/"+g.GameID, nil, &e))
	assert.Equal(t, http.StatusOK, alice.do("DELETE", "/game/"+g.GameID, nil, nil))
	assert.Equal(t, http.StatusNotFound, alice.do("GET", "/game/"+g.GameID, nil, &e))
	assert.Equal(t, "not_found", e.Error)
}
