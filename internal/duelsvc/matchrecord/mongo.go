package matchrecord

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/duel-services/internal/duelsvc/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	profilesCollection = "game_profiles"
	matchesCollection  = "matches"
)

type MongoSource struct {
	profiles *mongo.Collection
	matches  *mongo.Collection
}

func NewMongoSource(db *mongo.Database) *MongoSource {
	return &MongoSource{
		profiles: db.Collection(profilesCollection),
		matches:  db.Collection(matchesCollection),
	}
}

// EnsureIndexes creates the lookup indexes the two queries rely on.
func (s *MongoSource) EnsureIndexes(ctx context.Context) error {
	_, err := s.profiles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "game_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create profile index: %w", err)
	}

	_, err = s.matches.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "game_profile_id", Value: 1}, {Key: "played_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create match index: %w", err)
	}
	return nil
}

func (s *MongoSource) ProfileID(ctx context.Context, userID, gameID string) (string, error) {
	var profile models.GameProfile
	err := s.profiles.FindOne(ctx, bson.M{"user_id": userID, "game_id": gameID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("find game profile: %w", err)
	}
	return profile.ID, nil
}

// LatestMatch returns the most recently played match of the profile. The top
// two are fetched so a tie on played_at is reported instead of broken.
func (s *MongoSource) LatestMatch(ctx context.Context, profileID string) (*models.MatchRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "played_at", Value: -1}}).SetLimit(2)

	cursor, err := s.matches.Find(ctx, bson.M{"game_profile_id": profileID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find latest match: %w", err)
	}
	var matches []models.MatchRecord
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, fmt.Errorf("decode latest match: %w", err)
	}

	switch {
	case len(matches) == 0:
		return nil, ErrNotFound
	case len(matches) > 1 && matches[0].PlayedAt.Equal(matches[1].PlayedAt):
		return nil, ErrAmbiguous
	}
	return &matches[0], nil
}
