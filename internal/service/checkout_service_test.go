package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	natsadapter "github.com/Abdurahmanit/GroupProject/adoption-service/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/payment"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	listings  *MockListingService
	requests  *MockRequestRepository
	orders    *MockOrderRepository
	taxes     *MockTaxRepository
	sagas     *MockSagaRepository
	baskets   *MockBasketService
	gateway   *MockPaymentGateway
	publisher *MockPublisher
	mailer    *MockEmailSender
	metrics   *metrics.MetricsManager
	cfg       CheckoutConfig
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		listings:  new(MockListingService),
		requests:  new(MockRequestRepository),
		orders:    new(MockOrderRepository),
		taxes:     new(MockTaxRepository),
		sagas:     new(MockSagaRepository),
		baskets:   new(MockBasketService),
		gateway:   new(MockPaymentGateway),
		publisher: permissivePublisher(),
		mailer:    new(MockEmailSender),
		metrics:   newTestMetrics(),
		cfg:       CheckoutConfig{Currency: "usd", ProcessingFee: 40, ShippingFee: 40},
	}
	f.sagas.On("Start", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.sagas.On("AppendStep", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.sagas.On("SetPaymentIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.sagas.On("Finish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

func (f *checkoutFixture) service() CheckoutService {
	requestSvc := NewRequestService(f.requests, f.orders, f.listings, f.publisher, newTestLogger())
	return NewCheckoutService(f.listings, requestSvc, f.requests, f.orders, f.taxes, f.sagas, f.baskets,
		f.gateway, f.publisher, f.mailer, f.metrics, newTestLogger(), f.cfg)
}

// expectClaims accepts request creation and listing flips for any listing.
func (f *checkoutFixture) expectClaims() {
	f.requests.On("FindByListingAndCustomer", mock.Anything, mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	f.requests.On("Create", mock.Anything, mock.Anything).Return("r", nil)
	f.listings.On("SetStatus", mock.Anything, mock.Anything, entity.ListingPending).Return(nil)
}

var validCustomer = entity.CustomerInfo{Name: "Ann", Address: "1 Main St", Phone: "555-0100"}

func TestCheckoutService_Checkout_Success_Totals(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	listings := []entity.Listing{
		{ID: "a", PetName: "Rex", Species: "dog", Price: 150, Status: entity.ListingAvailable},
		{ID: "b", PetName: "Tom", Species: "cat", Price: 100, Status: entity.ListingPending},
	}

	f.listings.On("FindByIDs", mock.Anything, []string{"a", "b"}).Return(listings, nil).Once()
	f.taxes.On("GetActivePercent", mock.Anything).Return(8.0, nil).Once()
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*entity.Order")).Return("o1", nil).Once()
	f.expectClaims()
	f.gateway.On("CreatePaymentIntent", mock.Anything, payment.IntentParams{
		AmountMinor:    35000,
		Currency:       "usd",
		Metadata:       map[string]string{"orderId": "o1", "customerId": "c1"},
		IdempotencyKey: "o1",
	}).Return(&payment.Intent{ID: "pi_1", ClientSecret: "secret_1"}, nil).Once()
	f.orders.On("SetPaymentIntent", mock.Anything, "o1", "pi_1").Return(nil).Once()
	f.baskets.On("ClearBasket", mock.Anything, "c1").Return(nil).Once()

	result, err := f.service().Checkout(ctx, CheckoutInput{
		CustomerID:   "c1",
		ListingIDs:   []string{" a ", "b", "a", ""},
		CustomerInfo: validCustomer,
	})

	require.NoError(t, err)
	order := result.Order
	assert.Equal(t, "secret_1", result.ClientSecret)
	assert.Equal(t, 250.0, order.Subtotal)
	assert.Equal(t, 8.0, order.TaxPercent)
	assert.Equal(t, 20.0, order.TaxAmount)
	assert.Equal(t, 350.0, order.Total)
	assert.Equal(t, entity.OrderPending, order.Status)
	assert.Equal(t, entity.PaymentUnpaid, order.PaymentStatus)
	require.NotNil(t, order.PaymentIntentID)
	assert.Equal(t, "pi_1", *order.PaymentIntentID)
	assert.Equal(t, []string{"a", "b"}, order.ListingIDs(), "items keep request order")

	f.listings.AssertCalled(t, "SetStatus", mock.Anything, "a", entity.ListingPending)
	f.listings.AssertNotCalled(t, "SetStatus", mock.Anything, "b", entity.ListingPending)
	f.requests.AssertNumberOfCalls(t, "Create", 2)
	f.baskets.AssertExpectations(t)
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertCalled(t, "Publish", mock.Anything, natsadapter.SubjectOrderCreated, mock.Anything)
	f.sagas.AssertCalled(t, "Finish", mock.Anything, "o1", entity.SagaCompleted, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckoutTotal.WithLabelValues(metrics.OutcomeSucceeded)))
	assert.Equal(t, 350.0, testutil.ToFloat64(f.metrics.CheckoutAmount))
}

func TestCheckoutService_Checkout_EmailsReceiptWhenAddressGiven(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	info := validCustomer
	info.Email = "ann@example.com"

	f.listings.On("FindByIDs", mock.Anything, []string{"a"}).Return([]entity.Listing{{ID: "a", PetName: "Rex", Price: 10, Status: entity.ListingAvailable}}, nil).Once()
	f.taxes.On("GetActivePercent", mock.Anything).Return(0.0, nil).Once()
	f.orders.On("Create", mock.Anything, mock.Anything).Return("o2", nil).Once()
	f.expectClaims()
	f.gateway.On("CreatePaymentIntent", mock.Anything, mock.Anything).Return(&payment.Intent{ID: "pi_2", ClientSecret: "s"}, nil).Once()
	f.orders.On("SetPaymentIntent", mock.Anything, "o2", "pi_2").Return(nil).Once()
	f.baskets.On("ClearBasket", mock.Anything, "c1").Return(nil).Once()
	f.mailer.On("Send", mock.Anything, []string{"ann@example.com"}, mock.Anything, mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "Total: 90.00 USD") && strings.Contains(body, "pi_2")
	})).Return(errors.New("smtp down")).Once()

	_, err := f.service().Checkout(ctx, CheckoutInput{CustomerID: "c1", ListingIDs: []string{"a"}, CustomerInfo: info})

	require.NoError(t, err, "a failed receipt email does not fail checkout")
	f.mailer.AssertExpectations(t)
}

func TestCheckoutService_Checkout_Fail_EmptyBasket(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.service().Checkout(context.Background(), CheckoutInput{CustomerID: "c1", ListingIDs: []string{" "}, CustomerInfo: validCustomer})

	assert.ErrorIs(t, err, ErrNotFound)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckoutTotal.WithLabelValues(metrics.OutcomeRejected)))
}

func TestCheckoutService_Checkout_Fail_NoListingsFound(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	f.listings.On("FindByIDs", mock.Anything, []string{"x"}).Return([]entity.Listing{}, nil).Once()

	_, err := f.service().Checkout(ctx, CheckoutInput{CustomerID: "c1", ListingIDs: []string{"x"}, CustomerInfo: validCustomer})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "no listings found")
}

func TestCheckoutService_Checkout_Fail_PartialNotFound(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	f.listings.On("FindByIDs", mock.Anything, []string{"A", "B"}).Return([]entity.Listing{{ID: "A", Status: entity.ListingAvailable}}, nil).Once()

	_, err := f.service().Checkout(ctx, CheckoutInput{CustomerID: "c1", ListingIDs: []string{"A", "B"}, CustomerInfo: validCustomer})

	assert.ErrorIs(t, err, ErrPartialNotFound)
	assert.NotErrorIs(t, err, ErrNotFound)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.listings.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
	f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckoutService_Checkout_Fail_AdoptedListing(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	f.listings.On("FindByIDs", mock.Anything, []string{"a", "b"}).Return([]entity.Listing{
		{ID: "a", Status: entity.ListingAvailable},
		{ID: "b", Status: entity.ListingAdopted},
	}, nil).Once()

	_, err := f.service().Checkout(ctx, CheckoutInput{CustomerID: "c1", ListingIDs: []string{"a", "b"}, CustomerInfo: validCustomer})

	assert.ErrorIs(t, err, ErrConflict)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.listings.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckoutService_Checkout_Fail_Validation(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.service().Checkout(context.Background(), CheckoutInput{
		CustomerID:   "c1",
		ListingIDs:   []string{"a"},
		CustomerInfo: entity.CustomerInfo{Name: "Ann", Email: "not-an-email"},
	})

	assert.ErrorIs(t, err, ErrValidation)
	f.listings.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
}

func TestCheckoutService_Checkout_Fail_GatewayDeletesOrder(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	f.listings.On("FindByIDs", mock.Anything, []string{"a"}).Return([]entity.Listing{{ID: "a", Price: 100, Status: entity.ListingAvailable}}, nil).Once()
	f.taxes.On("GetActivePercent", mock.Anything).Return(0.0, nil).Once()
	f.orders.On("Create", mock.Anything, mock.Anything).Return("o3", nil).Once()
	f.expectClaims()
	f.gateway.On("CreatePaymentIntent", mock.Anything, mock.Anything).Return(nil, payment.ErrDeclined).Once()
	f.orders.On("Delete", mock.Anything, "o3").Return(nil).Once()

	_, err := f.service().Checkout(ctx, CheckoutInput{CustomerID: "c1", ListingIDs: []string{"a"}, CustomerInfo: validCustomer})

	assert.ErrorIs(t, err, ErrGateway)
	f.orders.AssertExpectations(t)
	f.orders.AssertNotCalled(t, "SetPaymentIntent", mock.Anything, mock.Anything, mock.Anything)
	f.baskets.AssertNotCalled(t, "ClearBasket", mock.Anything, mock.Anything)
	f.sagas.AssertCalled(t, "Finish", mock.Anything, "o3", entity.SagaCompensated, mock.Anything)
	f.publisher.AssertCalled(t, "Publish", mock.Anything, natsadapter.SubjectOrderPaymentFailed, mock.Anything)
	// Listings and requests touched before the failure are not reverted.
	f.listings.AssertNotCalled(t, "SetStatus", mock.Anything, "a", entity.ListingAvailable)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckoutTotal.WithLabelValues(metrics.OutcomeCompensated)))
}

func TestCheckoutService_Checkout_Fail_ClaimLoopCompensates(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	f.listings.On("FindByIDs", mock.Anything, []string{"a"}).Return([]entity.Listing{{ID: "a", Price: 100, Status: entity.ListingAvailable}}, nil).Once()
	f.taxes.On("GetActivePercent", mock.Anything).Return(0.0, nil).Once()
	f.orders.On("Create", mock.Anything, mock.Anything).Return("o4", nil).Once()
	f.requests.On("FindByListingAndCustomer", mock.Anything, "a", "c1").Return(nil, errors.New("mongo timeout")).Once()
	f.orders.On("Delete", mock.Anything, "o4").Return(nil).Once()

	_, err := f.service().Checkout(ctx, CheckoutInput{CustomerID: "c1", ListingIDs: []string{"a"}, CustomerInfo: validCustomer})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGateway)
	f.gateway.AssertNotCalled(t, "CreatePaymentIntent", mock.Anything, mock.Anything)
	f.orders.AssertExpectations(t)
}

func TestCheckoutService_Checkout_ClaimsListingsOneAtATime(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	listings := []entity.Listing{
		{ID: "a", Price: 10, Status: entity.ListingAvailable},
		{ID: "b", Price: 20, Status: entity.ListingAvailable},
	}

	f.listings.On("FindByIDs", mock.Anything, []string{"a", "b"}).Return(listings, nil).Once()
	f.taxes.On("GetActivePercent", mock.Anything).Return(0.0, nil).Once()
	f.orders.On("Create", mock.Anything, mock.Anything).Return("o11", nil).Once()
	f.requests.On("FindByListingAndCustomer", mock.Anything, "a", "c1").Return(nil, repository.ErrNotFound).Once()
	f.requests.On("Create", mock.Anything, mock.Anything).Return("r", nil).Once()
	f.listings.On("SetStatus", mock.Anything, "a", entity.ListingPending).Return(errors.New("write conflict")).Once()
	f.orders.On("Delete", mock.Anything, "o11").Return(nil).Once()

	_, err := f.service().Checkout(ctx, CheckoutInput{CustomerID: "c1", ListingIDs: []string{"a", "b"}, CustomerInfo: validCustomer})

	require.Error(t, err)
	f.requests.AssertNumberOfCalls(t, "Create", 1)
	f.requests.AssertNotCalled(t, "FindByListingAndCustomer", mock.Anything, "b", "c1")
	f.sagas.AssertNotCalled(t, "AppendStep", mock.Anything, "o11", mock.Anything)
	f.orders.AssertExpectations(t)
}

func TestCheckoutService_Checkout_Exclusive_RejectsForeignPending(t *testing.T) {
	f := newCheckoutFixture()
	f.cfg.ExclusiveListings = true
	ctx := context.Background()

	f.listings.On("FindByIDs", mock.Anything, []string{"a"}).Return([]entity.Listing{{ID: "a", Status: entity.ListingPending}}, nil).Once()
	f.requests.On("FindByListingAndCustomer", mock.Anything, "a", "c1").Return(nil, repository.ErrNotFound).Once()

	_, err := f.service().Checkout(ctx, CheckoutInput{CustomerID: "c1", ListingIDs: []string{"a"}, CustomerInfo: validCustomer})

	assert.ErrorIs(t, err, ErrConflict)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckoutService_Checkout_Exclusive_LostReservationCompensates(t *testing.T) {
	f := newCheckoutFixture()
	f.cfg.ExclusiveListings = true
	ctx := context.Background()

	f.listings.On("FindByIDs", mock.Anything, []string{"a"}).Return([]entity.Listing{{ID: "a", Price: 5, Status: entity.ListingAvailable}}, nil).Once()
	f.taxes.On("GetActivePercent", mock.Anything).Return(0.0, nil).Once()
	f.orders.On("Create", mock.Anything, mock.Anything).Return("o5", nil).Once()
	f.requests.On("FindByListingAndCustomer", mock.Anything, "a", "c1").Return(nil, repository.ErrNotFound).Once()
	f.requests.On("Create", mock.Anything, mock.Anything).Return("r", nil).Once()
	f.listings.On("Reserve", mock.Anything, "a").Return(false, nil).Once()
	f.orders.On("Delete", mock.Anything, "o5").Return(nil).Once()

	_, err := f.service().Checkout(ctx, CheckoutInput{CustomerID: "c1", ListingIDs: []string{"a"}, CustomerInfo: validCustomer})

	assert.ErrorIs(t, err, ErrConflict)
	f.gateway.AssertNotCalled(t, "CreatePaymentIntent", mock.Anything, mock.Anything)
	f.orders.AssertExpectations(t)
}

func TestCheckoutService_RecoverStalled(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	stalled := []entity.CheckoutSaga{
		{OrderID: "o6", CustomerID: "c1", State: entity.SagaRunning, PaymentIntentID: "pi_6",
			Steps: []entity.SagaStep{{Name: entity.StepPaymentRequested}}},
		{OrderID: "o7", CustomerID: "c2", State: entity.SagaRunning,
			Steps: []entity.SagaStep{{Name: entity.StepOrderCreated}}},
	}

	f.sagas.On("ListStalled", ctx, mock.MatchedBy(func(before time.Time) bool {
		return before.Before(time.Now().Add(-14 * time.Minute))
	})).Return(stalled, nil).Once()
	f.orders.On("GetByID", ctx, "o6").Return(&entity.Order{ID: "o6", CustomerID: "c1", Items: []entity.OrderItem{{ListingID: "a"}}}, nil).Once()
	f.orders.On("SetPaymentIntent", ctx, "o6", "pi_6").Return(nil).Once()
	f.baskets.On("RemoveItems", ctx, "c1", []string{"a"}).Return(&BasketView{}, nil).Once()
	f.orders.On("GetByID", ctx, "o7").Return(&entity.Order{ID: "o7", CustomerID: "c2"}, nil).Once()
	f.orders.On("Delete", ctx, "o7").Return(nil).Once()

	report, err := f.service().RecoverStalled(ctx, 15*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Resumed)
	assert.Equal(t, 1, report.Compensated)
	f.sagas.AssertCalled(t, "Finish", ctx, "o6", entity.SagaCompleted, mock.Anything)
	f.sagas.AssertCalled(t, "Finish", ctx, "o7", entity.SagaCompensated, mock.Anything)
	f.orders.AssertExpectations(t)
	f.baskets.AssertNotCalled(t, "ClearBasket", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SagasRecovered.WithLabelValues("resumed")))
}

func TestCheckoutService_RecoverStalled_OrderHoldsIntent(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	intent := "pi_live"
	stalled := []entity.CheckoutSaga{
		{OrderID: "o8", CustomerID: "c1", State: entity.SagaRunning,
			Steps: []entity.SagaStep{{Name: entity.StepListingsReserved}}},
	}

	f.sagas.On("ListStalled", ctx, mock.Anything).Return(stalled, nil).Once()
	f.orders.On("GetByID", ctx, "o8").Return(&entity.Order{
		ID:              "o8",
		CustomerID:      "c1",
		Items:           []entity.OrderItem{{ListingID: "a"}},
		PaymentIntentID: &intent,
	}, nil).Once()
	f.baskets.On("RemoveItems", ctx, "c1", []string{"a"}).Return(&BasketView{}, nil).Once()

	report, err := f.service().RecoverStalled(ctx, 15*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Resumed)
	assert.Equal(t, 0, report.Compensated)
	f.orders.AssertNotCalled(t, "Delete", mock.Anything, "o8")
	f.orders.AssertNotCalled(t, "SetPaymentIntent", mock.Anything, mock.Anything, mock.Anything)
	f.sagas.AssertCalled(t, "Finish", ctx, "o8", entity.SagaCompleted, mock.Anything)
}

func TestCheckoutService_RecoverStalled_OrderAlreadyGone(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	stalled := []entity.CheckoutSaga{
		{OrderID: "o9", CustomerID: "c1", State: entity.SagaRunning,
			Steps: []entity.SagaStep{{Name: entity.StepOrderCreated}}},
	}

	f.sagas.On("ListStalled", ctx, mock.Anything).Return(stalled, nil).Once()
	f.orders.On("GetByID", ctx, "o9").Return(nil, repository.ErrNotFound).Once()

	report, err := f.service().RecoverStalled(ctx, 15*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Compensated)
	f.orders.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	f.sagas.AssertCalled(t, "Finish", ctx, "o9", entity.SagaCompensated, mock.Anything)
}

func TestCheckoutService_RecoverStalled_SkipsOnLoadError(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	stalled := []entity.CheckoutSaga{{OrderID: "o10", CustomerID: "c1", State: entity.SagaRunning}}

	f.sagas.On("ListStalled", ctx, mock.Anything).Return(stalled, nil).Once()
	f.orders.On("GetByID", ctx, "o10").Return(nil, errors.New("mongo down")).Once()

	report, err := f.service().RecoverStalled(ctx, 15*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, 0, report.Resumed+report.Compensated)
	f.orders.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCheckoutService_RecordStep_RetriesWithSameStep(t *testing.T) {
	f := newCheckoutFixture()
	f.sagas = new(MockSagaRepository)
	ctx := context.Background()

	var ids []string
	capture := func(args mock.Arguments) { ids = append(ids, args.Get(2).(entity.SagaStep).ID) }
	f.sagas.On("AppendStep", ctx, "o12", mock.Anything).Run(capture).Return(errors.New("socket closed")).Once()
	f.sagas.On("AppendStep", ctx, "o12", mock.Anything).Run(capture).Return(nil).Once()

	svc := f.service().(*checkoutService)
	svc.recordStep(ctx, "o12", entity.StepRequestsEnsured, "")

	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, ids[0], ids[1])
	f.sagas.AssertExpectations(t)
}

func TestCheckoutService_RecordStep_NoRetryForMissingSaga(t *testing.T) {
	f := newCheckoutFixture()
	f.sagas = new(MockSagaRepository)
	ctx := context.Background()

	f.sagas.On("AppendStep", ctx, "o13", mock.Anything).Return(repository.ErrNotFound).Once()

	svc := f.service().(*checkoutService)
	svc.recordStep(ctx, "o13", entity.StepListingsReserved, "")

	f.sagas.AssertNumberOfCalls(t, "AppendStep", 1)
}
