package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"neuralflux/internal/model"
)

// GameRecordRepo stores one record per finished session
type GameRecordRepo interface {
	Insert(ctx context.Context, rec *model.GameRecord) error
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]*model.GameRecord, error)
	EnsureIndexes(ctx context.Context) error
}

type gameRecordRepo struct {
	collection *mongo.Collection
}

func NewGameRecordRepo(db *mongo.Database) GameRecordRepo {
	return &gameRecordRepo{
		collection: db.Collection("game_records"),
	}
}

// EnsureIndexes creates the lookup indexes. A session is recorded at most once.
func (r *gameRecordRepo) EnsureIndexes(ctx context.Context) error {
	var errs []error
	errs = append(errs, r.createIndex(ctx, bson.D{{Key: "sessionId", Value: 1}}, true))
	errs = append(errs, r.createIndex(ctx, bson.D{
		{Key: "playerId", Value: 1},
		{Key: "finishedAt", Value: -1},
	}, false))
	errs = append(errs, r.createIndex(ctx, bson.D{{Key: "finalScore", Value: -1}}, false))
	return errors.Join(errs...)
}

func (r *gameRecordRepo) createIndex(ctx context.Context, keys bson.D, unique bool) error {
	opts := options.Index().SetUnique(unique)
	if _, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts}); err != nil {
		return fmt.Errorf("index on %s: %w", r.collection.Name(), err)
	}
	return nil
}

func (r *gameRecordRepo) Insert(ctx context.Context, rec *model.GameRecord) error {
	if rec.ID == "" {
		rec.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return nil // Already recorded
	}
	return err
}

func (r *gameRecordRepo) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*model.GameRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "finishedAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"playerId": playerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.GameRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
