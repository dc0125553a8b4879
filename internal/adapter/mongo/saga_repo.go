package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sagaRepository struct {
	collection *mongo.Collection
}

func NewSagaRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.SagaRepository {
	return &sagaRepository{
		collection: client.Database(cfg.Database).Collection(sagaCollectionName),
	}
}

func (r *sagaRepository) Start(ctx context.Context, saga *entity.CheckoutSaga) error {
	if _, err := r.collection.InsertOne(ctx, saga); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to start checkout saga %s: %w", saga.OrderID, err)
	}
	return nil
}

func (r *sagaRepository) GetByOrderID(ctx context.Context, orderID string) (*entity.CheckoutSaga, error) {
	var saga entity.CheckoutSaga
	if err := r.collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&saga); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get checkout saga %s: %w", orderID, err)
	}
	return &saga, nil
}

func (r *sagaRepository) AppendStep(ctx context.Context, orderID string, step entity.SagaStep) error {
	return r.update(ctx, orderID, step, bson.M{
		"$push": bson.M{"steps": step},
		"$set":  bson.M{"updated_at": step.At},
	})
}

func (r *sagaRepository) SetPaymentIntent(ctx context.Context, orderID, paymentIntentID string, step entity.SagaStep) error {
	return r.update(ctx, orderID, step, bson.M{
		"$push": bson.M{"steps": step},
		"$set":  bson.M{"payment_intent_id": paymentIntentID, "updated_at": step.At},
	})
}

func (r *sagaRepository) Finish(ctx context.Context, orderID string, state entity.SagaState, step entity.SagaStep) error {
	return r.update(ctx, orderID, step, bson.M{
		"$push": bson.M{"steps": step},
		"$set":  bson.M{"state": state, "updated_at": step.At},
	})
}

// update applies a step-carrying update at most once per step id. Replaying a
// step that is already in the log is a no-op.
func (r *sagaRepository) update(ctx context.Context, orderID string, step entity.SagaStep, update bson.M) error {
	filter := bson.M{"_id": orderID, "steps.id": bson.M{"$ne": step.ID}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update checkout saga %s: %w", orderID, err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByOrderID(ctx, orderID); err != nil {
			return err
		}
	}
	return nil
}

func (r *sagaRepository) ListStalled(ctx context.Context, updatedBefore time.Time) ([]entity.CheckoutSaga, error) {
	filter := bson.M{"state": entity.SagaRunning, "updated_at": bson.M{"$lt": updatedBefore}}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list stalled sagas: %w", err)
	}
	defer cursor.Close(ctx)

	sagas := make([]entity.CheckoutSaga, 0)
	if err := cursor.All(ctx, &sagas); err != nil {
		return nil, fmt.Errorf("failed to decode stalled sagas: %w", err)
	}
	return sagas, nil
}
