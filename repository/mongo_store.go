package repository

import (
	"context"
	"fmt"
	"time"

	"snakescores/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const highScoresCollection = "high_scores"

type mongoHighScore struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	PlayerName string             `bson:"player_name"`
	Score      int                `bson:"score"`
	Difficulty string             `bson:"difficulty"`
	CreatedAt  time.Time          `bson:"created_at"`
}

// MongoStore keeps high scores in a single collection. Entries carry no
// numeric ID; the ObjectID only breaks ties between equal timestamps.
type MongoStore struct {
	collection *mongo.Collection
	now        Clock
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection(highScoresCollection),
		now:        time.Now,
	}
}

// EnsureIndexes creates the ranking index used by Top.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "difficulty", Value: 1},
			{Key: "score", Value: -1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("rank_index"),
	}

	if _, err := s.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create rank index: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, entry *models.HighScore) error {
	// Mongo keeps millisecond precision.
	entry.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	doc := mongoHighScore{
		PlayerName: entry.PlayerName,
		Score:      entry.Score,
		Difficulty: entry.Difficulty,
		CreatedAt:  entry.CreatedAt,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert high score: %w", err)
	}
	return nil
}

func (s *MongoStore) Top(ctx context.Context, n int, difficulty string) ([]models.HighScore, error) {
	scores := make([]models.HighScore, 0, n)
	if n <= 0 {
		return scores, nil
	}

	filter := bson.M{}
	if d, ok := filterDifficulty(difficulty); ok {
		filter["difficulty"] = d
	}

	opts := options.Find().
		SetSort(bson.D{
			{Key: "score", Value: -1},
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}).
		SetLimit(int64(n))

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load top scores: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc mongoHighScore
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode high score: %w", err)
		}
		scores = append(scores, models.HighScore{
			PlayerName: doc.PlayerName,
			Score:      doc.Score,
			Difficulty: doc.Difficulty,
			CreatedAt:  doc.CreatedAt.UTC(),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to load top scores: %w", err)
	}
	return scores, nil
}
