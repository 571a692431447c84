package repository

import (
	"context"
	"fmt"
	"time"

	"snakescores/models"

	"gorm.io/gorm"
)

type GormStore struct {
	db  *gorm.DB
	now Clock
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

// WithClock overrides the insertion timestamp source.
func (s *GormStore) WithClock(now Clock) *GormStore {
	s.now = now
	return s
}

// Migrate creates or updates the high_scores table.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&models.HighScore{}); err != nil {
		return fmt.Errorf("failed to migrate high scores: %w", err)
	}
	return nil
}

func (s *GormStore) Insert(ctx context.Context, entry *models.HighScore) error {
	entry.ID = 0
	entry.CreatedAt = s.now().UTC()

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to insert high score: %w", err)
	}
	return nil
}

func (s *GormStore) Top(ctx context.Context, n int, difficulty string) ([]models.HighScore, error) {
	scores := make([]models.HighScore, 0, n)
	if n <= 0 {
		return scores, nil
	}

	query := s.db.WithContext(ctx).Model(&models.HighScore{})
	if d, ok := filterDifficulty(difficulty); ok {
		query = query.Where("difficulty = ?", d)
	}

	err := query.
		Order("score DESC").
		Order("created_at DESC").
		Order("id DESC").
		Limit(n).
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load top scores: %w", err)
	}
	return scores, nil
}
