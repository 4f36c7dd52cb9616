package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"neuralflux/internal/model"
)

// PlayerStatsRepo stores lifetime aggregates, one document per player
type PlayerStatsRepo interface {
	Get(ctx context.Context, playerID string) (*model.PlayerStats, error)
	Upsert(ctx context.Context, stats *model.PlayerStats) error
}

type playerStatsRepo struct {
	collection *mongo.Collection
}

func NewPlayerStatsRepo(db *mongo.Database) PlayerStatsRepo {
	return &playerStatsRepo{
		collection: db.Collection("player_stats"),
	}
}

func (r *playerStatsRepo) Get(ctx context.Context, playerID string) (*model.PlayerStats, error) {
	var stats model.PlayerStats
	err := r.collection.FindOne(ctx, bson.M{"_id": playerID}).Decode(&stats)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // No games yet
		}
		return nil, err
	}
	return &stats, nil
}

func (r *playerStatsRepo) Upsert(ctx context.Context, stats *model.PlayerStats) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": stats.PlayerID}, stats, opts)
	return err
}
