package repository

import (
	"context"
	"time"

	"snakescores/models"
)

// ScoreStore is the append-only persistence behind the leaderboard.
//
// Top returns at most n entries ordered by score descending, then by
// creation time descending. An empty difficulty or models.AllDifficulties
// disables filtering; anything else is matched exactly.
type ScoreStore interface {
	Insert(ctx context.Context, entry *models.HighScore) error
	Top(ctx context.Context, n int, difficulty string) ([]models.HighScore, error)
}

// Clock returns the insertion timestamp. Stores default to time.Now.
type Clock func() time.Time

func filterDifficulty(difficulty string) (string, bool) {
	if difficulty == "" || difficulty == models.AllDifficulties {
		return "", false
	}
	return difficulty, true
}
