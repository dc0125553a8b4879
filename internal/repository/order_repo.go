package repository

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
)

type ListOrdersParams struct {
	CustomerID string
	Status     entity.OrderStatus
}

type MarkOrderPaidParams struct {
	OrderID string
	PaidAt  time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) (string, error)
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// List returns matching orders, newest first.
	List(ctx context.Context, params ListOrdersParams) ([]entity.Order, error)
	// FindLatestForCustomerListing returns the most recent order of customerID
	// that contains listingID.
	FindLatestForCustomerListing(ctx context.Context, customerID, listingID string) (*entity.Order, error)
	SetPaymentIntent(ctx context.Context, orderID, paymentIntentID string) error
	// MarkPaid sets status and payment status to paid. PaidAt is written only
	// if the order has none yet.
	MarkPaid(ctx context.Context, params MarkOrderPaidParams) error
	// Delete is idempotent: deleting a missing order is not an error.
	Delete(ctx context.Context, id string) error
	ExistsPendingWithListing(ctx context.Context, listingID string) (bool, error)
}

type TaxRepository interface {
	// GetActivePercent returns the newest active tax percent, or 0 when none is active.
	GetActivePercent(ctx context.Context) (float64, error)
}
