package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/app/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
)

const (
	listingCollectionName = "adoption_listings"
	orderCollectionName   = "adoption_orders"
	requestCollectionName = "adoption_requests"
	taxCollectionName     = "tax_settings"
	sagaCollectionName    = "checkout_sagas"
)

func NewClient(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)
	if cfg.User != "" && cfg.Password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: cfg.User,
			Password: cfg.Password,
		})
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, connectTimeout)
	defer cancelConnect()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, pingTimeout)
	defer cancelPing()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// request index is what keeps one request per (listing, customer) under
// concurrent checkouts.
func EnsureIndexes(ctx context.Context, client *mongo.Client, cfg config.MongoDBConfig) error {
	db := client.Database(cfg.Database)

	specs := map[string][]mongo.IndexModel{
		requestCollectionName: {
			{
				Keys:    bson.D{{Key: "listing_id", Value: 1}, {Key: "customer_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_listing_customer"),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		listingCollectionName: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
			{Keys: bson.D{{Key: "pet_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		orderCollectionName: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "items.listing_id", Value: 1}}},
		},
		taxCollectionName: {
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		sagaCollectionName: {
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "updated_at", Value: 1}}},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
