package repository

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
)

type BasketRepository interface {
	// GetByCustomerID never returns ErrNotFound; a missing basket is empty.
	GetByCustomerID(ctx context.Context, customerID string) (*entity.Basket, error)
	Save(ctx context.Context, basket *entity.Basket, ttl time.Duration) error
	DeleteByCustomerID(ctx context.Context, customerID string) error
}
