package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"snakescores/models"
	"snakescores/repository"
)

const (
	// LeaderboardSize is the fixed number of entries every read returns at most.
	LeaderboardSize = 10

	DateLayout = "02/01/2006 15:04"
)

// LeaderboardPublisher receives the refreshed top list after each submit.
type LeaderboardPublisher interface {
	PublishLeaderboard(scores []ScoreView)
}

type LeaderboardService struct {
	store     repository.ScoreStore
	location  *time.Location
	publisher LeaderboardPublisher
}

func NewLeaderboardService(store repository.ScoreStore, location *time.Location) *LeaderboardService {
	if location == nil {
		location = time.UTC
	}
	return &LeaderboardService{
		store:    store,
		location: location,
	}
}

// SetPublisher wires the live feed. A nil publisher disables it.
func (s *LeaderboardService) SetPublisher(publisher LeaderboardPublisher) {
	s.publisher = publisher
}

type SaveScoreRequest struct {
	PlayerName *string    `json:"player_name"`
	Score      ScoreValue `json:"score"`
	Difficulty *string    `json:"difficulty"`
}

// DecodeSaveScoreRequest parses a submit body. The body must hold exactly one
// JSON object and none of its known fields may be null.
func DecodeSaveScoreRequest(body []byte) (*SaveScoreRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, ValidationError(err)
	}
	if fields == nil {
		return nil, ValidationError(errors.New("request body must be a JSON object"))
	}
	for _, name := range []string{"player_name", "score", "difficulty"} {
		if raw, ok := fields[name]; ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, ValidationError(fmt.Errorf("%s may not be null", name))
		}
	}

	var req SaveScoreRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, ValidationError(err)
	}
	return &req, nil
}

type ScoreView struct {
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
	Difficulty string `json:"difficulty"`
	Date       string `json:"date"`
}

// Submit stores one score and returns the refreshed unfiltered top list.
func (s *LeaderboardService) Submit(ctx context.Context, req *SaveScoreRequest) ([]ScoreView, error) {
	entry, err := newHighScore(req)
	if err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		return nil, StorageError(err)
	}
	log.Printf("Saved score %d for %s (%s)", entry.Score, entry.PlayerName, entry.Difficulty)

	top, err := s.top(ctx, models.AllDifficulties)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.PublishLeaderboard(top)
	}
	return top, nil
}

// Query returns the top list for difficulty, or for every difficulty when it
// is models.AllDifficulties. Stored entries always carry a difficulty, so an
// empty filter matches nothing.
func (s *LeaderboardService) Query(ctx context.Context, difficulty string) ([]ScoreView, error) {
	if difficulty == "" {
		return []ScoreView{}, nil
	}
	return s.top(ctx, difficulty)
}

func (s *LeaderboardService) top(ctx context.Context, difficulty string) ([]ScoreView, error) {
	scores, err := s.store.Top(ctx, LeaderboardSize, difficulty)
	if err != nil {
		return nil, StorageError(err)
	}

	views := make([]ScoreView, 0, len(scores))
	for _, score := range scores {
		views = append(views, ScoreView{
			PlayerName: score.PlayerName,
			Score:      score.Score,
			Difficulty: score.Difficulty,
			Date:       score.CreatedAt.In(s.location).Format(DateLayout),
		})
	}
	return views, nil
}

func newHighScore(req *SaveScoreRequest) (*models.HighScore, error) {
	entry := &models.HighScore{
		PlayerName: models.DefaultPlayerName,
		Difficulty: models.DefaultDifficulty,
	}
	if req.PlayerName != nil && *req.PlayerName != "" {
		entry.PlayerName = *req.PlayerName
	}
	if req.Difficulty != nil && *req.Difficulty != "" {
		entry.Difficulty = *req.Difficulty
	}
	if req.Score.Set {
		entry.Score = req.Score.Value
	}

	if utf8.RuneCountInString(entry.PlayerName) > models.MaxPlayerNameLength {
		return nil, ValidationError(fmt.Errorf("player_name must be at most %d characters", models.MaxPlayerNameLength))
	}
	if utf8.RuneCountInString(entry.Difficulty) > models.MaxDifficultyLength {
		return nil, ValidationError(fmt.Errorf("difficulty must be at most %d characters", models.MaxDifficultyLength))
	}
	return entry, nil
}
