package service

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/payment"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *entity.Listing) (string, error) {
	args := m.Called(ctx, listing)
	if id := args.String(0); id != "" {
		listing.ID = id
	}
	return args.String(0), args.Error(1)
}

func (m *MockListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Listing, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Listing), args.Error(1)
}

func (m *MockListingRepository) List(ctx context.Context, params repository.ListListingsParams) (*repository.ListListingsResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListListingsResult), args.Error(1)
}

func (m *MockListingRepository) UpdateStatus(ctx context.Context, id string, status entity.ListingStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockListingRepository) ReserveIfAvailable(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockListingRepository) ExistsActiveForPet(ctx context.Context, petID string) (bool, error) {
	args := m.Called(ctx, petID)
	return args.Bool(0), args.Error(1)
}

type MockListingCache struct {
	mock.Mock
}

func (m *MockListingCache) Get(ctx context.Context, id string) (*entity.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingCache) Set(ctx context.Context, listing *entity.Listing, ttl time.Duration) error {
	return m.Called(ctx, listing, ttl).Error(0)
}

func (m *MockListingCache) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockBasketRepository struct {
	mock.Mock
}

func (m *MockBasketRepository) GetByCustomerID(ctx context.Context, customerID string) (*entity.Basket, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Basket), args.Error(1)
}

func (m *MockBasketRepository) Save(ctx context.Context, basket *entity.Basket, ttl time.Duration) error {
	return m.Called(ctx, basket, ttl).Error(0)
}

func (m *MockBasketRepository) DeleteByCustomerID(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *entity.Order) (string, error) {
	args := m.Called(ctx, order)
	if id := args.String(0); id != "" {
		order.ID = id
	}
	return args.String(0), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, params repository.ListOrdersParams) ([]entity.Order, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

func (m *MockOrderRepository) FindLatestForCustomerListing(ctx context.Context, customerID, listingID string) (*entity.Order, error) {
	args := m.Called(ctx, customerID, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepository) SetPaymentIntent(ctx context.Context, orderID, paymentIntentID string) error {
	return m.Called(ctx, orderID, paymentIntentID).Error(0)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, params repository.MarkOrderPaidParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrderRepository) ExistsPendingWithListing(ctx context.Context, listingID string) (bool, error) {
	args := m.Called(ctx, listingID)
	return args.Bool(0), args.Error(1)
}

type MockTaxRepository struct {
	mock.Mock
}

func (m *MockTaxRepository) GetActivePercent(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, request *entity.Request) (string, error) {
	args := m.Called(ctx, request)
	if id := args.String(0); id != "" {
		request.ID = id
	}
	return args.String(0), args.Error(1)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Request), args.Error(1)
}

func (m *MockRequestRepository) FindByListingAndCustomer(ctx context.Context, listingID, customerID string) (*entity.Request, error) {
	args := m.Called(ctx, listingID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Request), args.Error(1)
}

func (m *MockRequestRepository) List(ctx context.Context, status entity.RequestStatus) ([]entity.Request, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Request), args.Error(1)
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, id string, status entity.RequestStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockRequestRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockSagaRepository struct {
	mock.Mock
}

func (m *MockSagaRepository) Start(ctx context.Context, saga *entity.CheckoutSaga) error {
	return m.Called(ctx, saga).Error(0)
}

func (m *MockSagaRepository) GetByOrderID(ctx context.Context, orderID string) (*entity.CheckoutSaga, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CheckoutSaga), args.Error(1)
}

func (m *MockSagaRepository) AppendStep(ctx context.Context, orderID string, step entity.SagaStep) error {
	return m.Called(ctx, orderID, step).Error(0)
}

func (m *MockSagaRepository) SetPaymentIntent(ctx context.Context, orderID, paymentIntentID string, step entity.SagaStep) error {
	return m.Called(ctx, orderID, paymentIntentID, step).Error(0)
}

func (m *MockSagaRepository) Finish(ctx context.Context, orderID string, state entity.SagaState, step entity.SagaStep) error {
	return m.Called(ctx, orderID, state, step).Error(0)
}

func (m *MockSagaRepository) ListStalled(ctx context.Context, updatedBefore time.Time) ([]entity.CheckoutSaga, error) {
	args := m.Called(ctx, updatedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CheckoutSaga), args.Error(1)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreatePaymentIntent(ctx context.Context, params payment.IntentParams) (*payment.Intent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, message interface{}) error {
	return m.Called(ctx, subject, message).Error(0)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject, bodyText string) error {
	return m.Called(ctx, to, subject, bodyText).Error(0)
}

func newTestLogger() logger.Logger {
	return logger.NewNopLogger()
}

func newTestMetrics() *metrics.MetricsManager {
	return metrics.NewMetricsManager("adoption_test")
}

// permissivePublisher accepts any event.
func permissivePublisher() *MockPublisher {
	p := new(MockPublisher)
	p.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return p
}

func intPtr(v int) *int { return &v }

type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingService) FindByIDs(ctx context.Context, ids []string) ([]entity.Listing, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Listing), args.Error(1)
}

func (m *MockListingService) ListListings(ctx context.Context, query ListListingsQuery) (*repository.ListListingsResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListListingsResult), args.Error(1)
}

func (m *MockListingService) ListOwnerListings(ctx context.Context, ownerID string) ([]entity.Listing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Listing), args.Error(1)
}

func (m *MockListingService) CreateListing(ctx context.Context, input entity.NewListingInput) (*entity.Listing, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingService) SetStatus(ctx context.Context, id string, status entity.ListingStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockListingService) UpdateStatusByAdmin(ctx context.Context, id, adminID string, status entity.ListingStatus) error {
	return m.Called(ctx, id, adminID, status).Error(0)
}

func (m *MockListingService) Reserve(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingService) DeleteListing(ctx context.Context, id, requesterID string, isAdmin bool) error {
	return m.Called(ctx, id, requesterID, isAdmin).Error(0)
}

type MockBasketService struct {
	mock.Mock
}

func (m *MockBasketService) GetBasket(ctx context.Context, customerID string) (*BasketView, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BasketView), args.Error(1)
}

func (m *MockBasketService) AddItem(ctx context.Context, customerID, listingID string) (*BasketView, error) {
	args := m.Called(ctx, customerID, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BasketView), args.Error(1)
}

func (m *MockBasketService) RemoveItem(ctx context.Context, customerID, listingID string) (*BasketView, error) {
	args := m.Called(ctx, customerID, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BasketView), args.Error(1)
}

func (m *MockBasketService) RemoveItems(ctx context.Context, customerID string, listingIDs []string) (*BasketView, error) {
	args := m.Called(ctx, customerID, listingIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BasketView), args.Error(1)
}

func (m *MockBasketService) ClearBasket(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}
