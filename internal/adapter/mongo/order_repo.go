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

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.OrderRepository {
	return &orderRepository{
		collection: client.Database(cfg.Database).Collection(orderCollectionName),
	}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) (string, error) {
	order.ID = ""
	res, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}
	objectID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted ID to ObjectID")
	}
	order.ID = objectID.Hex()
	return order.ID, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid order ID format: %w", repository.ErrNotFound)
	}

	var order entity.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, params repository.ListOrdersParams) ([]entity.Order, error) {
	filter := bson.M{}
	if params.CustomerID != "" {
		filter["customer_id"] = params.CustomerID
	}
	if params.Status != "" {
		filter["status"] = params.Status
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]entity.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode listed orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) FindLatestForCustomerListing(ctx context.Context, customerID, listingID string) (*entity.Order, error) {
	filter := bson.M{"customer_id": customerID, "items.listing_id": listingID}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var order entity.Order
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order for customer %s listing %s: %w", customerID, listingID, err)
	}
	return &order, nil
}

func (r *orderRepository) SetPaymentIntent(ctx context.Context, orderID, paymentIntentID string) error {
	objID, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return fmt.Errorf("invalid order ID format: %w", repository.ErrNotFound)
	}
	update := bson.M{"$set": bson.M{"payment_intent_id": paymentIntentID, "updated_at": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("failed to set payment intent on order %s: %w", orderID, err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, params repository.MarkOrderPaidParams) error {
	objID, err := primitive.ObjectIDFromHex(params.OrderID)
	if err != nil {
		return fmt.Errorf("invalid order ID format: %w", repository.ErrNotFound)
	}

	// Pipeline update so paid_at keeps its first value in a single write.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status":         entity.OrderPaid,
			"payment_status": entity.PaymentPaid,
			"paid_at":        bson.M{"$ifNull": bson.A{"$paid_at", params.PaidAt}},
			"updated_at":     params.PaidAt,
		}}},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("failed to mark order %s paid: %w", params.OrderID, err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID}); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	return nil
}

func (r *orderRepository) ExistsPendingWithListing(ctx context.Context, listingID string) (bool, error) {
	filter := bson.M{"status": entity.OrderPending, "items.listing_id": listingID}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check pending orders for listing %s: %w", listingID, err)
	}
	return count > 0, nil
}

type taxRepository struct {
	collection *mongo.Collection
}

func NewTaxRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.TaxRepository {
	return &taxRepository{
		collection: client.Database(cfg.Database).Collection(taxCollectionName),
	}
}

type taxSetting struct {
	Percent   float64   `bson:"percent"`
	IsActive  bool      `bson:"is_active"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *taxRepository) GetActivePercent(ctx context.Context) (float64, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var setting taxSetting
	if err := r.collection.FindOne(ctx, bson.M{"is_active": true}, opts).Decode(&setting); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get active tax setting: %w", err)
	}
	return setting.Percent, nil
}
