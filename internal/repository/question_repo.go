package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"neuralflux/internal/model"
)

const duplicateKeyCode = 11000

// QuestionRepo is the offline question bank
type QuestionRepo interface {
	RandomQuestion(ctx context.Context, category model.Category, difficulty int) (*model.BankQuestion, error)
	InsertMany(ctx context.Context, questions []model.BankQuestion) (int, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}

type questionRepo struct {
	collection *mongo.Collection
}

func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection("questions"),
	}
}

// RandomQuestion samples one question of the category, preferring the
// exact difficulty. Returns nil, nil when the category is empty.
func (r *questionRepo) RandomQuestion(ctx context.Context, category model.Category, difficulty int) (*model.BankQuestion, error) {
	q, err := r.sample(ctx, bson.M{"category": category, "difficulty": difficulty})
	if err != nil || q != nil {
		return q, err
	}
	return r.sample(ctx, bson.M{"category": category})
}

func (r *questionRepo) sample(ctx context.Context, filter bson.M) (*model.BankQuestion, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sample", Value: bson.M{"size": 1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("sample question: %w", err)
	}
	defer cursor.Close(ctx)

	var questions []model.BankQuestion
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("decode question: %w", err)
	}
	if len(questions) == 0 {
		return nil, nil
	}
	return &questions[0], nil
}

func (r *questionRepo) InsertMany(ctx context.Context, questions []model.BankQuestion) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	now := time.Now()
	docs := make([]interface{}, 0, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			q.ID = primitive.NewObjectID().Hex()
		}
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		docs = append(docs, q)
	}

	// Unordered so one existing id does not stop the rest of the batch
	res, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) && onlyDuplicates(bwe) {
			return len(docs) - len(bwe.WriteErrors), nil
		}
		return 0, fmt.Errorf("insert questions: %w", err)
	}
	return len(res.InsertedIDs), nil
}

func (r *questionRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *questionRepo) DeleteAll(ctx context.Context) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{})
	return err
}

func onlyDuplicates(bwe mongo.BulkWriteException) bool {
	if bwe.WriteConcernError != nil {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return false
		}
	}
	return true
}
