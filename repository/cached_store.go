package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"snakescores/models"

	"github.com/redis/go-redis/v9"
)

const (
	topCacheGenerationKey = "highscores:gen"
	topCacheKey           = "highscores:top:%d:%s:%d"
)

// CachedStore serves Top from Redis. Cached lists are keyed by a generation
// counter that Insert bumps, so a list loaded before an insert is never read
// after it, even if it reaches Redis late. Redis failures are logged and fall
// through to the wrapped store.
type CachedStore struct {
	next  ScoreStore
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedStore(next ScoreStore, client *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		redis: client,
		ttl:   ttl,
	}
}

func (s *CachedStore) Insert(ctx context.Context, entry *models.HighScore) error {
	if err := s.next.Insert(ctx, entry); err != nil {
		return err
	}
	if err := s.redis.Incr(ctx, topCacheGenerationKey).Err(); err != nil {
		log.Printf("Failed to advance top score cache generation: %v", err)
	}
	return nil
}

func (s *CachedStore) Top(ctx context.Context, n int, difficulty string) ([]models.HighScore, error) {
	if _, ok := filterDifficulty(difficulty); !ok {
		difficulty = models.AllDifficulties
	}

	gen, err := s.generation(ctx)
	if err != nil {
		log.Printf("Redis error getting %s: %v", topCacheGenerationKey, err)
		return s.next.Top(ctx, n, difficulty)
	}
	key := fmt.Sprintf(topCacheKey, gen, difficulty, n)

	data, err := s.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var scores []models.HighScore
		if err := json.Unmarshal(data, &scores); err == nil {
			return scores, nil
		}
		log.Printf("Discarding corrupt top score cache entry %s", key)
	case err != redis.Nil:
		log.Printf("Redis error getting %s: %v", key, err)
	}

	scores, err := s.next.Top(ctx, n, difficulty)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(scores)
	if err != nil {
		log.Printf("Failed to marshal top scores for cache: %v", err)
		return scores, nil
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		log.Printf("Failed to store %s in Redis: %v", key, err)
	}
	return scores, nil
}

// generation returns the current cache generation. A missing counter is
// generation zero.
func (s *CachedStore) generation(ctx context.Context) (int64, error) {
	gen, err := s.redis.Get(ctx, topCacheGenerationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}
