package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type listingRepository struct {
	collection *mongo.Collection
}

func NewListingRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.ListingRepository {
	return &listingRepository{
		collection: client.Database(cfg.Database).Collection(listingCollectionName),
	}
}

func (r *listingRepository) Create(ctx context.Context, listing *entity.Listing) (string, error) {
	listing.ID = ""
	res, err := r.collection.InsertOne(ctx, listing)
	if err != nil {
		return "", fmt.Errorf("failed to create listing: %w", err)
	}
	objectID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted ID to ObjectID")
	}
	listing.ID = objectID.Hex()
	return listing.ID, nil
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var listing entity.Listing
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&listing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing %s: %w", id, err)
	}
	return &listing, nil
}

func (r *listingRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Listing, error) {
	objIDs := toObjectIDs(ids)
	if len(objIDs) == 0 {
		return []entity.Listing{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find listings by ids: %w", err)
	}
	defer cursor.Close(ctx)

	listings := make([]entity.Listing, 0, len(objIDs))
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) List(ctx context.Context, params repository.ListListingsParams) (*repository.ListListingsResult, error) {
	filter := listingFilter(params)

	page, limit := params.Page, params.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer cursor.Close(ctx)

	listings := make([]entity.Listing, 0, limit)
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listed listings: %w", err)
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	return &repository.ListListingsResult{
		Listings:   listings,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func listingFilter(params repository.ListListingsParams) bson.M {
	filter := bson.M{}
	if params.Status != "" {
		filter["status"] = params.Status
	}
	if params.OwnerID != "" {
		filter["owner_id"] = params.OwnerID
	}
	if params.Species != "" {
		filter["species"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(params.Species) + "$", Options: "i"}
	}
	if params.Breed != "" {
		filter["breed"] = primitive.Regex{Pattern: regexp.QuoteMeta(params.Breed), Options: "i"}
	}
	if params.Location != "" {
		filter["location"] = primitive.Regex{Pattern: regexp.QuoteMeta(params.Location), Options: "i"}
	}
	if params.AgeMin != nil || params.AgeMax != nil {
		age := bson.M{}
		if params.AgeMin != nil {
			age["$gte"] = *params.AgeMin
		}
		if params.AgeMax != nil {
			age["$lte"] = *params.AgeMax
		}
		filter["age"] = age
	}
	return filter
}

func (r *listingRepository) UpdateStatus(ctx context.Context, id string, status entity.ListingStatus) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	filter := bson.M{"_id": objID}
	if status != entity.ListingAdopted {
		filter["status"] = bson.M{"$ne": entity.ListingAdopted}
	}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update listing %s status: %w", id, err)
	}
	if result.MatchedCount == 0 {
		count, errCount := r.collection.CountDocuments(ctx, bson.M{"_id": objID})
		if errCount != nil {
			return fmt.Errorf("failed to check listing %s: %w", id, errCount)
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	return nil
}

func (r *listingRepository) ReserveIfAvailable(ctx context.Context, id string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, repository.ErrNotFound
	}
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "status": entity.ListingAvailable},
		bson.M{"$set": bson.M{"status": entity.ListingPending, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to reserve listing %s: %w", id, err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *listingRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *listingRepository) ExistsActiveForPet(ctx context.Context, petID string) (bool, error) {
	filter := bson.M{"pet_id": petID, "status": bson.M{"$ne": entity.ListingAdopted}}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check listings for pet %s: %w", petID, err)
	}
	return count > 0, nil
}

func toObjectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, objID)
		}
	}
	return out
}
