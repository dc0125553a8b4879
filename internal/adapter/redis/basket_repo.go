package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
	"github.com/redis/go-redis/v9"
)

const basketKeyPrefix = "adoption_basket:"

type basketRepository struct {
	client redis.Cmdable
}

func NewBasketRepository(client redis.Cmdable) repository.BasketRepository {
	return &basketRepository{client: client}
}

func basketKey(customerID string) string {
	return basketKeyPrefix + customerID
}

func (r *basketRepository) GetByCustomerID(ctx context.Context, customerID string) (*entity.Basket, error) {
	val, err := r.client.Get(ctx, basketKey(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entity.NewBasket(customerID), nil
		}
		return nil, fmt.Errorf("failed to get basket for customer %s from redis: %w", customerID, err)
	}

	var basket entity.Basket
	if err := json.Unmarshal(val, &basket); err != nil {
		return nil, fmt.Errorf("failed to unmarshal basket for customer %s: %w", customerID, err)
	}
	if basket.Items == nil {
		basket.Items = make([]entity.BasketItem, 0)
	}
	return &basket, nil
}

func (r *basketRepository) Save(ctx context.Context, basket *entity.Basket, ttl time.Duration) error {
	if basket == nil || basket.CustomerID == "" {
		return errors.New("cannot save nil basket or basket with empty customer ID")
	}

	data, err := json.Marshal(basket)
	if err != nil {
		return fmt.Errorf("failed to marshal basket for customer %s: %w", basket.CustomerID, err)
	}
	if err := r.client.Set(ctx, basketKey(basket.CustomerID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save basket for customer %s to redis: %w", basket.CustomerID, err)
	}
	return nil
}

func (r *basketRepository) DeleteByCustomerID(ctx context.Context, customerID string) error {
	if err := r.client.Del(ctx, basketKey(customerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete basket for customer %s from redis: %w", customerID, err)
	}
	return nil
}
