package models

import (
	"time"
)

const (
	DefaultPlayerName = "Anonymous"
	DefaultDifficulty = "medium"

	// AllDifficulties disables the difficulty filter on leaderboard reads.
	AllDifficulties = "all"

	MaxPlayerNameLength = 50
	MaxDifficultyLength = 10
)

// HighScore is one submitted game result. Rows are append-only.
type HighScore struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	PlayerName string    `json:"player_name" gorm:"size:50;not null"`
	Score      int       `json:"score" gorm:"not null;index:idx_high_scores_rank,priority:2,sort:desc"`
	Difficulty string    `json:"difficulty" gorm:"size:10;not null;index:idx_high_scores_rank,priority:1"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;index:idx_high_scores_rank,priority:3,sort:desc"`
}
