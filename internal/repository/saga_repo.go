package repository

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
)

type SagaRepository interface {
	Start(ctx context.Context, saga *entity.CheckoutSaga) error
	GetByOrderID(ctx context.Context, orderID string) (*entity.CheckoutSaga, error)
	AppendStep(ctx context.Context, orderID string, step entity.SagaStep) error
	SetPaymentIntent(ctx context.Context, orderID, paymentIntentID string, step entity.SagaStep) error
	Finish(ctx context.Context, orderID string, state entity.SagaState, step entity.SagaStep) error
	// ListStalled returns running sagas last touched before updatedBefore.
	ListStalled(ctx context.Context, updatedBefore time.Time) ([]entity.CheckoutSaga, error)
}
