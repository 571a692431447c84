package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"snakescores/handlers"
	"snakescores/models"
	"snakescores/repository"
	"snakescores/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type scoresResponse struct {
	Success   bool                 `json:"success"`
	Message   string               `json:"message"`
	TopScores []services.ScoreView `json:"top_scores"`
	Scores    []services.ScoreView `json:"scores"`
}

func newTestServer(t *testing.T) (*gin.Engine, repository.ScoreStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := repository.NewGormStore(db).WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	leaderboardService := services.NewLeaderboardService(store, time.UTC)
	hub := services.NewHub(leaderboardService)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	leaderboardService.SetPublisher(hub)

	router := gin.New()
	SetupRoutes(router, handlers.NewLeaderboardHandler(leaderboardService), hub, []string{"*"})
	return router, store
}

func request(t *testing.T, router *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, scoresResponse) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp scoresResponse
	if w.Code != http.StatusMethodNotAllowed {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

func saveScore(t *testing.T, router *gin.Engine, body string) scoresResponse {
	t.Helper()
	w, resp := request(t, router, http.MethodPost, "/api/save-score/", body)
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("save %s: %d %s", body, w.Code, w.Body.String())
	}
	return resp
}

func TestSubmitThenQueryOrdering(t *testing.T) {
	router, _ := newTestServer(t)

	saveScore(t, router, `{"player_name":"Ayşe","score":500,"difficulty":"hard"}`)
	resp := saveScore(t, router, `{"player_name":"Mert","score":900,"difficulty":"easy"}`)

	if len(resp.TopScores) != 2 || resp.TopScores[0].PlayerName != "Mert" || resp.TopScores[1].PlayerName != "Ayşe" {
		t.Fatalf("unexpected top_scores: %+v", resp.TopScores)
	}

	w, query := request(t, router, http.MethodGet, "/api/high-scores/", "")
	if w.Code != http.StatusOK || !query.Success {
		t.Fatalf("query: %d %s", w.Code, w.Body.String())
	}
	if len(query.Scores) != 2 || query.Scores[0].Score != 900 || query.Scores[1].Score != 500 {
		t.Fatalf("unexpected scores: %+v", query.Scores)
	}
	if query.Scores[0].Date != "01/05/2024 12:00" {
		t.Fatalf("date = %q", query.Scores[0].Date)
	}
}

func TestSubmitDefaults(t *testing.T) {
	router, store := newTestServer(t)

	saveScore(t, router, `{}`)
	saveScore(t, router, `{"player_name":""}`)

	entries, err := store.Top(context.Background(), 10, models.AllDifficulties)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.PlayerName != models.DefaultPlayerName || e.Score != 0 || e.Difficulty != models.DefaultDifficulty {
			t.Fatalf("defaults not applied: %+v", e)
		}
	}
}

func TestQueryReturnsAtMostTen(t *testing.T) {
	router, _ := newTestServer(t)

	for i := 1; i <= 11; i++ {
		saveScore(t, router, fmt.Sprintf(`{"player_name":"p%d","score":%d}`, i, i*100))
	}

	_, resp := request(t, router, http.MethodGet, "/api/high-scores/", "")
	if len(resp.Scores) != 10 {
		t.Fatalf("expected 10 scores, got %d", len(resp.Scores))
	}
	for _, s := range resp.Scores {
		if s.PlayerName == "p1" {
			t.Fatal("lowest ranked entry must be excluded")
		}
	}
}

func TestQueryDifficultyFilter(t *testing.T) {
	router, _ := newTestServer(t)

	saveScore(t, router, `{"player_name":"a","score":1,"difficulty":"hard"}`)
	saveScore(t, router, `{"player_name":"b","score":2,"difficulty":"Hard"}`)
	saveScore(t, router, `{"player_name":"c","score":3,"difficulty":"easy"}`)

	_, resp := request(t, router, http.MethodGet, "/api/high-scores/?difficulty=hard", "")
	if len(resp.Scores) != 1 || resp.Scores[0].PlayerName != "a" {
		t.Fatalf("unexpected filtered scores: %+v", resp.Scores)
	}

	_, resp = request(t, router, http.MethodGet, "/api/high-scores/?difficulty=all", "")
	if len(resp.Scores) != 3 {
		t.Fatalf("expected 3 scores for all, got %d", len(resp.Scores))
	}

	w, resp := request(t, router, http.MethodGet, "/api/high-scores/?difficulty=", "")
	if w.Code != http.StatusOK || len(resp.Scores) != 0 {
		t.Fatalf("empty difficulty: %d %+v", w.Code, resp.Scores)
	}
}

func TestMalformedSubmitCreatesNothing(t *testing.T) {
	router, store := newTestServer(t)

	for _, body := range []string{
		`{"player_name": "broken"`,
		`null`,
		`{"score":7} trailing`,
		`[{"score":7}]`,
		`{"score":null}`,
	} {
		w, resp := request(t, router, http.MethodPost, "/api/save-score/", body)
		if w.Code != http.StatusBadRequest || resp.Success || resp.Message == "" {
			t.Fatalf("%q: unexpected %d %s", body, w.Code, w.Body.String())
		}
	}

	entries, err := store.Top(context.Background(), 10, models.AllDifficulties)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestMethodGuards(t *testing.T) {
	router, _ := newTestServer(t)

	w, _ := request(t, router, http.MethodGet, "/api/save-score/", "")
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("GET save-score: %d Allow=%q", w.Code, w.Header().Get("Allow"))
	}

	w, _ = request(t, router, http.MethodPost, "/api/high-scores/", `{}`)
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("POST high-scores: %d Allow=%q", w.Code, w.Header().Get("Allow"))
	}
}

func TestHealth(t *testing.T) {
	router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://snake.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws/leaderboard", nil)
	if !check(req) {
		t.Fatal("requests without Origin should pass")
	}
	req.Header.Set("Origin", "http://snake.example.com")
	if !check(req) {
		t.Fatal("allowed origin rejected")
	}
	req.Header.Set("Origin", "http://evil.example.com")
	if check(req) {
		t.Fatal("unknown origin accepted")
	}

	if !originChecker([]string{"*"})(req) {
		t.Fatal("wildcard should accept any origin")
	}
}
