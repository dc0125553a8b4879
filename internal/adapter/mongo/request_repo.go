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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type requestDocument struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	ListingID  string               `bson:"listing_id"`
	CustomerID string               `bson:"customer_id"`
	Status     entity.RequestStatus `bson:"status"`
	CreatedAt  time.Time            `bson:"created_at"`
	UpdatedAt  time.Time            `bson:"updated_at"`
}

func (d requestDocument) toEntity() entity.Request {
	return entity.Request{
		ID:         d.ID.Hex(),
		Listing:    entity.RefID[entity.Listing](d.ListingID),
		CustomerID: d.CustomerID,
		Status:     d.Status,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type requestRepository struct {
	collection *mongo.Collection
}

func NewRequestRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.RequestRepository {
	return &requestRepository{
		collection: client.Database(cfg.Database).Collection(requestCollectionName),
	}
}

func (r *requestRepository) Create(ctx context.Context, request *entity.Request) (string, error) {
	doc := requestDocument{
		ListingID:  request.ListingID(),
		CustomerID: request.CustomerID,
		Status:     request.Status,
		CreatedAt:  request.CreatedAt,
		UpdatedAt:  request.UpdatedAt,
	}
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", repository.ErrAlreadyExists
		}
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	objectID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted ID to ObjectID")
	}
	request.ID = objectID.Hex()
	return request.ID, nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

func (r *requestRepository) FindByListingAndCustomer(ctx context.Context, listingID, customerID string) (*entity.Request, error) {
	return r.findOne(ctx, bson.M{"listing_id": listingID, "customer_id": customerID})
}

func (r *requestRepository) findOne(ctx context.Context, filter bson.M) (*entity.Request, error) {
	var doc requestDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find request: %w", err)
	}
	req := doc.toEntity()
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, status entity.RequestStatus) ([]entity.Request, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []requestDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}

	requests := make([]entity.Request, 0, len(docs))
	for _, d := range docs {
		requests = append(requests, d.toEntity())
	}
	return requests, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id string, status entity.RequestStatus) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("failed to update request %s status: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *requestRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete request %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
