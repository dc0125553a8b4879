package rest

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/service"
	"github.com/stretchr/testify/mock"
)

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

func (m *MockListingService) ListListings(ctx context.Context, query service.ListListingsQuery) (*repository.ListListingsResult, error) {
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

func (m *MockBasketService) basket(args mock.Arguments) (*service.BasketView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BasketView), args.Error(1)
}

func (m *MockBasketService) GetBasket(ctx context.Context, customerID string) (*service.BasketView, error) {
	return m.basket(m.Called(ctx, customerID))
}

func (m *MockBasketService) AddItem(ctx context.Context, customerID, listingID string) (*service.BasketView, error) {
	return m.basket(m.Called(ctx, customerID, listingID))
}

func (m *MockBasketService) RemoveItem(ctx context.Context, customerID, listingID string) (*service.BasketView, error) {
	return m.basket(m.Called(ctx, customerID, listingID))
}

func (m *MockBasketService) RemoveItems(ctx context.Context, customerID string, listingIDs []string) (*service.BasketView, error) {
	return m.basket(m.Called(ctx, customerID, listingIDs))
}

func (m *MockBasketService) ClearBasket(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(ctx context.Context, input service.CheckoutInput) (*service.CheckoutResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CheckoutResult), args.Error(1)
}

func (m *MockCheckoutService) RecoverStalled(ctx context.Context, stallAfter time.Duration) (*service.RecoveryReport, error) {
	args := m.Called(ctx, stallAfter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecoveryReport), args.Error(1)
}

type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) request(args mock.Arguments) (*entity.Request, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Request), args.Error(1)
}

func (m *MockRequestService) CreateRequest(ctx context.Context, listingID, customerID string) (*entity.Request, error) {
	return m.request(m.Called(ctx, listingID, customerID))
}

func (m *MockRequestService) EnsureRequest(ctx context.Context, listingID, customerID string, status entity.RequestStatus) (bool, error) {
	args := m.Called(ctx, listingID, customerID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestService) GetRequest(ctx context.Context, id string) (*entity.Request, error) {
	return m.request(m.Called(ctx, id))
}

func (m *MockRequestService) UpdateStatus(ctx context.Context, id string, status entity.RequestStatus) (*entity.Request, error) {
	return m.request(m.Called(ctx, id, status))
}

func (m *MockRequestService) DeleteRequest(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRequestService) ListRequests(ctx context.Context, status entity.RequestStatus) ([]entity.Request, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Request), args.Error(1)
}

type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) Reconcile(ctx context.Context, filter, trigger string) (*service.ReconcileReport, error) {
	args := m.Called(ctx, filter, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReconcileReport), args.Error(1)
}

func (m *MockReconciliationService) ListRequests(ctx context.Context, filter string) ([]entity.Request, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Request), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) OrdersByCustomer(ctx context.Context, customerID string) ([]entity.Order, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID, requesterID string, isAdmin bool) (*entity.Order, error) {
	args := m.Called(ctx, orderID, requesterID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

type MockReceiptService struct {
	mock.Mock
}

func (m *MockReceiptService) GenerateReceipt(ctx context.Context, orderID, customerID string, isAdmin bool) ([]byte, string, error) {
	args := m.Called(ctx, orderID, customerID, isAdmin)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}
