package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/adapter/email"
	natsadapter "github.com/Abdurahmanit/GroupProject/adoption-service/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/payment"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/pricing"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("adoption-service/checkout")

const (
	defaultCurrency      = "usd"
	defaultProcessingFee = 40.0
	defaultShippingFee   = 40.0
)

type CheckoutInput struct {
	CustomerID   string
	ListingIDs   []string
	CustomerInfo entity.CustomerInfo
}

type CheckoutResult struct {
	Order        *entity.Order
	ClientSecret string
}

type CheckoutConfig struct {
	Currency      string
	ProcessingFee float64
	ShippingFee   float64
	// ExclusiveListings rejects listings another customer already holds.
	ExclusiveListings bool
}

type OrderCreatedEvent struct {
	OrderID         string    `json:"orderId"`
	CustomerID      string    `json:"customerId"`
	ListingIDs      []string  `json:"listingIds"`
	Total           float64   `json:"total"`
	Currency        string    `json:"currency"`
	PaymentIntentID string    `json:"paymentIntentId"`
	CreatedAt       time.Time `json:"createdAt"`
}

type OrderPaymentFailedEvent struct {
	OrderID    string    `json:"orderId"`
	CustomerID string    `json:"customerId"`
	ListingIDs []string  `json:"listingIds"`
	Reason     string    `json:"reason"`
	FailedAt   time.Time `json:"failedAt"`
}

type RecoveryReport struct {
	Resumed     int `json:"resumed"`
	Compensated int `json:"compensated"`
}

type CheckoutService interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	// RecoverStalled finishes checkouts whose saga has not moved for
	// stallAfter. A saga that already holds a payment intent is completed;
	// anything earlier is compensated by deleting its order.
	RecoverStalled(ctx context.Context, stallAfter time.Duration) (*RecoveryReport, error)
}

type checkoutService struct {
	listings    ListingService
	requests    RequestService
	requestRepo repository.RequestRepository
	orders      repository.OrderRepository
	taxes       repository.TaxRepository
	sagas       repository.SagaRepository
	baskets     BasketService
	gateway     payment.Gateway
	publisher   natsadapter.MessagePublisher
	emailSender email.Sender
	metrics     *metrics.MetricsManager
	log         logger.Logger
	validate    *validator.Validate
	cfg         CheckoutConfig
}

func NewCheckoutService(
	listings ListingService,
	requests RequestService,
	requestRepo repository.RequestRepository,
	orders repository.OrderRepository,
	taxes repository.TaxRepository,
	sagas repository.SagaRepository,
	baskets BasketService,
	gateway payment.Gateway,
	publisher natsadapter.MessagePublisher,
	emailSender email.Sender,
	metricsManager *metrics.MetricsManager,
	log logger.Logger,
	cfg CheckoutConfig,
) CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if cfg.ProcessingFee < 0 {
		cfg.ProcessingFee = defaultProcessingFee
	}
	if cfg.ShippingFee < 0 {
		cfg.ShippingFee = defaultShippingFee
	}
	return &checkoutService{
		listings:    listings,
		requests:    requests,
		requestRepo: requestRepo,
		orders:      orders,
		taxes:       taxes,
		sagas:       sagas,
		baskets:     baskets,
		gateway:     gateway,
		publisher:   publisher,
		emailSender: emailSender,
		metrics:     metricsManager,
		log:         log,
		validate:    validator.New(),
		cfg:         cfg,
	}
}

// normalizeListingIDs trims ids, drops blanks and duplicates, and keeps the
// caller's order.
func normalizeListingIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *checkoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	ctx, span := tracer.Start(ctx, "Checkout", oteltrace.WithAttributes(
		attribute.String("customer_id", input.CustomerID),
		attribute.Int("listing_count", len(input.ListingIDs)),
	))
	defer span.End()

	s.log.Infof("Checkout started: CustomerID=%s, Listings=%v", input.CustomerID, input.ListingIDs)

	listings, err := s.prepare(ctx, input)
	if err != nil {
		s.metrics.CheckoutTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	items := make([]entity.OrderItem, 0, len(listings))
	prices := make([]float64, 0, len(listings))
	for _, listing := range listings {
		items = append(items, listing.Snapshot())
		prices = append(prices, listing.Price)
	}

	taxPercent, err := s.taxes.GetActivePercent(ctx)
	if err != nil {
		s.log.Errorf("Checkout for %s: could not read tax setting: %v", input.CustomerID, err)
		span.RecordError(err)
		return nil, fmt.Errorf("could not read tax setting: %w", err)
	}
	totals := pricing.WithFees(
		pricing.CalculateTotals(pricing.Sum(prices...), taxPercent),
		s.cfg.ProcessingFee, s.cfg.ShippingFee,
	)

	order, err := entity.NewOrder(input.CustomerID, items, input.CustomerInfo, s.cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	order.Subtotal = totals.Subtotal
	order.TaxPercent = totals.TaxPercent
	order.TaxAmount = totals.TaxAmount
	order.ProcessingFee = totals.ProcessingFee
	order.ShippingFee = totals.ShippingFee
	order.Total = totals.Total

	if _, err := s.orders.Create(ctx, order); err != nil {
		s.log.Errorf("Checkout for %s: failed to create order: %v", input.CustomerID, err)
		span.RecordError(err)
		return nil, fmt.Errorf("could not create order: %w", err)
	}
	span.SetAttributes(attribute.String("order_id", order.ID), attribute.Float64("order_total", order.Total))
	s.startSaga(ctx, order)

	if err := s.claimListings(ctx, order, listings); err != nil {
		s.log.Errorf("Checkout %s: preparing listings failed: %v", order.ID, err)
		s.compensate(ctx, order, err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, "claiming listings failed")
		if errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("could not prepare listings for checkout: %w", err)
	}

	intent, err := s.requestPayment(ctx, order)
	if err != nil {
		s.log.Errorf("Checkout %s: payment intent failed: %v", order.ID, err)
		s.compensate(ctx, order, err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment intent failed")
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	s.complete(ctx, order, intent)
	s.log.Infof("Checkout %s completed for customer %s: total=%.2f %s", order.ID, order.CustomerID, order.Total, order.Currency)
	return &CheckoutResult{Order: order, ClientSecret: intent.ClientSecret}, nil
}

// prepare validates the input and returns the listings in request order.
func (s *checkoutService) prepare(ctx context.Context, input CheckoutInput) ([]entity.Listing, error) {
	if err := s.validate.Struct(input.CustomerInfo); err != nil {
		return nil, fmt.Errorf("%w: customer info: %v", ErrValidation, err)
	}

	ids := normalizeListingIDs(input.ListingIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no listings found", ErrNotFound)
	}

	found, err := s.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no listings found", ErrNotFound)
	}

	byID := make(map[string]entity.Listing, len(found))
	for _, listing := range found {
		byID[listing.ID] = listing
	}
	ordered := make([]entity.Listing, 0, len(ids))
	missing := make([]string, 0)
	for _, id := range ids {
		listing, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		ordered = append(ordered, listing)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrPartialNotFound, strings.Join(missing, ", "))
	}

	for _, listing := range ordered {
		switch listing.Status {
		case entity.ListingAdopted:
			return nil, fmt.Errorf("%w: listing already adopted: %s", ErrConflict, listing.ID)
		case entity.ListingPending:
			if !s.cfg.ExclusiveListings {
				continue
			}
			held, err := s.holdsRequest(ctx, listing.ID, input.CustomerID)
			if err != nil {
				return nil, err
			}
			if !held {
				return nil, fmt.Errorf("%w: listing %s is reserved by another customer", ErrConflict, listing.ID)
			}
		}
	}
	return ordered, nil
}

func (s *checkoutService) holdsRequest(ctx context.Context, listingID, customerID string) (bool, error) {
	_, err := s.requestRepo.FindByListingAndCustomer(ctx, listingID, customerID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("could not check existing requests: %w", err)
}

// claimListings records the customer's interest in each listing and moves
// it to pending before touching the next one. Work done before a failure is
// not undone.
func (s *checkoutService) claimListings(ctx context.Context, order *entity.Order, listings []entity.Listing) error {
	for _, listing := range listings {
		if _, err := s.requests.EnsureRequest(ctx, listing.ID, order.CustomerID, entity.RequestPending); err != nil {
			return fmt.Errorf("ensure request for listing %s: %w", listing.ID, err)
		}
		if err := s.flipPending(ctx, listing); err != nil {
			return err
		}
	}
	s.recordStep(ctx, order.ID, entity.StepRequestsEnsured, "")
	s.recordStep(ctx, order.ID, entity.StepListingsReserved, "")
	return nil
}

func (s *checkoutService) flipPending(ctx context.Context, listing entity.Listing) error {
	if listing.Status == entity.ListingPending {
		return nil
	}
	if s.cfg.ExclusiveListings {
		reserved, err := s.listings.Reserve(ctx, listing.ID)
		if err != nil {
			return fmt.Errorf("reserve listing %s: %w", listing.ID, err)
		}
		if !reserved {
			return fmt.Errorf("%w: listing %s was taken during checkout", ErrConflict, listing.ID)
		}
		return nil
	}
	if err := s.listings.SetStatus(ctx, listing.ID, entity.ListingPending); err != nil {
		return fmt.Errorf("set listing %s pending: %w", listing.ID, err)
	}
	return nil
}

func (s *checkoutService) requestPayment(ctx context.Context, order *entity.Order) (*payment.Intent, error) {
	ctx, span := tracer.Start(ctx, "PaymentGateway.CreatePaymentIntent", oteltrace.WithAttributes(
		attribute.String("order_id", order.ID),
		attribute.String("currency", order.Currency),
	))
	defer span.End()

	params := payment.IntentParams{
		AmountMinor: pricing.MinorUnits(order.Total),
		Currency:    order.Currency,
		Metadata: map[string]string{
			"orderId":    order.ID,
			"customerId": order.CustomerID,
		},
		IdempotencyKey: order.ID,
	}
	span.SetAttributes(attribute.Int64("amount_minor", params.AmountMinor))

	intent, err := s.gateway.CreatePaymentIntent(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.AddEvent("payment_intent_created", oteltrace.WithAttributes(attribute.String("payment_intent_id", intent.ID)))
	return intent, nil
}

func (s *checkoutService) complete(ctx context.Context, order *entity.Order, intent *payment.Intent) {
	intentID := intent.ID
	order.PaymentIntentID = &intentID

	paymentStep := s.step(entity.StepPaymentRequested, intent.ID)
	if err := s.writeStep(order.ID, paymentStep, func(step entity.SagaStep) error {
		return s.sagas.SetPaymentIntent(ctx, order.ID, intent.ID, step)
	}); err != nil {
		s.log.Warnf("Checkout %s: failed to record payment step: %v", order.ID, err)
	}
	if err := s.orders.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		// The saga holds the intent id; the reconciler attaches it later.
		s.log.Errorf("Checkout %s: failed to save payment intent %s on order: %v", order.ID, intent.ID, err)
		return
	}
	if err := s.baskets.ClearBasket(ctx, order.CustomerID); err != nil {
		s.log.Warnf("Checkout %s: failed to clear basket of %s: %v", order.ID, order.CustomerID, err)
	}
	if err := s.finish(ctx, order.ID, entity.SagaCompleted, s.step(entity.StepCompleted, "")); err != nil {
		s.log.Warnf("Checkout %s: failed to finish saga: %v", order.ID, err)
	}

	s.metrics.CheckoutTotal.WithLabelValues(metrics.OutcomeSucceeded).Inc()
	s.metrics.CheckoutAmount.Add(order.Total)

	event := OrderCreatedEvent{
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		ListingIDs:      order.ListingIDs(),
		Total:           order.Total,
		Currency:        order.Currency,
		PaymentIntentID: intent.ID,
		CreatedAt:       order.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, natsadapter.SubjectOrderCreated, event); err != nil {
		s.log.Warnf("Checkout %s: failed to publish order created: %v", order.ID, err)
	}

	if addr := order.CustomerInfo.Email; addr != "" {
		subject := fmt.Sprintf("Your adoption order %s", order.ID)
		if err := s.emailSender.Send(ctx, []string{addr}, subject, renderReceipt(order)); err != nil {
			s.log.Warnf("Checkout %s: failed to email receipt to %s: %v", order.ID, addr, err)
		}
	}
}

// compensate removes the order of a failed checkout. Listings and requests
// touched before the failure stay as they are.
func (s *checkoutService) compensate(ctx context.Context, order *entity.Order, reason string) {
	ctx = context.WithoutCancel(ctx)

	if err := s.orders.Delete(ctx, order.ID); err != nil {
		s.log.Errorf("Checkout %s: compensating delete failed: %v", order.ID, err)
	}
	if err := s.finish(ctx, order.ID, entity.SagaCompensated, s.step(entity.StepCompensated, reason)); err != nil {
		s.log.Warnf("Checkout %s: failed to mark saga compensated: %v", order.ID, err)
	}
	s.metrics.CheckoutTotal.WithLabelValues(metrics.OutcomeCompensated).Inc()

	event := OrderPaymentFailedEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		ListingIDs: order.ListingIDs(),
		Reason:     reason,
		FailedAt:   time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, natsadapter.SubjectOrderPaymentFailed, event); err != nil {
		s.log.Warnf("Checkout %s: failed to publish payment failure: %v", order.ID, err)
	}
}

func (s *checkoutService) step(name entity.SagaStepName, detail string) entity.SagaStep {
	return entity.NewSagaStep(name, detail)
}

func (s *checkoutService) startSaga(ctx context.Context, order *entity.Order) {
	now := time.Now().UTC()
	saga := &entity.CheckoutSaga{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		State:      entity.SagaRunning,
		Steps:      []entity.SagaStep{s.step(entity.StepOrderCreated, "")},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.sagas.Start(ctx, saga); err != nil {
		s.log.Warnf("Checkout %s: failed to start saga log: %v", order.ID, err)
	}
}

func (s *checkoutService) recordStep(ctx context.Context, orderID string, name entity.SagaStepName, detail string) {
	err := s.writeStep(orderID, s.step(name, detail), func(step entity.SagaStep) error {
		return s.sagas.AppendStep(ctx, orderID, step)
	})
	if err != nil {
		s.log.Warnf("Checkout %s: failed to record step %s: %v", orderID, name, err)
	}
}

func (s *checkoutService) finish(ctx context.Context, orderID string, state entity.SagaState, step entity.SagaStep) error {
	return s.writeStep(orderID, step, func(step entity.SagaStep) error {
		return s.sagas.Finish(ctx, orderID, state, step)
	})
}

// writeStep retries a failed saga write once with the same step. The saga
// store ignores a step id it has already recorded, so a write that landed
// before the error is not duplicated.
func (s *checkoutService) writeStep(orderID string, step entity.SagaStep, write func(entity.SagaStep) error) error {
	err := write(step)
	if err == nil || errors.Is(err, repository.ErrNotFound) {
		return err
	}
	s.log.Debugf("Checkout %s: retrying step %s (%s) after: %v", orderID, step.Name, step.ID, err)
	return write(step)
}

func (s *checkoutService) RecoverStalled(ctx context.Context, stallAfter time.Duration) (*RecoveryReport, error) {
	stalled, err := s.sagas.ListStalled(ctx, time.Now().UTC().Add(-stallAfter))
	if err != nil {
		return nil, fmt.Errorf("could not list stalled checkouts: %w", err)
	}

	report := &RecoveryReport{}
	for i := range stalled {
		saga := &stalled[i]

		order, err := s.orders.GetByID(ctx, saga.OrderID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.log.Errorf("Could not load order of stalled checkout %s: %v", saga.OrderID, err)
			continue
		}

		// The order may hold an intent the saga log never recorded.
		intentID := saga.PaymentIntentID
		if intentID == "" && order != nil && order.PaymentIntentID != nil {
			intentID = *order.PaymentIntentID
		}

		if intentID != "" {
			if order == nil {
				s.log.Errorf("Could not resume checkout %s: order with payment intent %s is gone", saga.OrderID, intentID)
				continue
			}
			if err := s.resume(ctx, saga, order, intentID); err != nil {
				s.log.Errorf("Could not resume checkout %s: %v", saga.OrderID, err)
				continue
			}
			report.Resumed++
			s.metrics.SagasRecovered.WithLabelValues("resumed").Inc()
			continue
		}

		s.log.Warnf("Compensating checkout %s stalled at %s", saga.OrderID, saga.LastStep())
		if order != nil {
			if err := s.orders.Delete(ctx, saga.OrderID); err != nil {
				s.log.Errorf("Could not delete order of stalled checkout %s: %v", saga.OrderID, err)
				continue
			}
		}
		if err := s.finish(ctx, saga.OrderID, entity.SagaCompensated,
			s.step(entity.StepCompensated, "stalled before payment")); err != nil {
			s.log.Warnf("Could not mark stalled checkout %s compensated: %v", saga.OrderID, err)
		}
		report.Compensated++
		s.metrics.SagasRecovered.WithLabelValues("compensated").Inc()
	}
	return report, nil
}

func (s *checkoutService) resume(ctx context.Context, saga *entity.CheckoutSaga, order *entity.Order, intentID string) error {
	s.log.Infof("Resuming checkout %s with payment intent %s", saga.OrderID, intentID)

	if order.PaymentIntentID == nil {
		if err := s.orders.SetPaymentIntent(ctx, order.ID, intentID); err != nil {
			return fmt.Errorf("attach payment intent: %w", err)
		}
	}
	// Only the ordered listings leave the basket; the customer may have
	// added others since.
	if _, err := s.baskets.RemoveItems(ctx, order.CustomerID, order.ListingIDs()); err != nil {
		s.log.Warnf("Resumed checkout %s: failed to clean basket: %v", order.ID, err)
	}
	return s.finish(ctx, saga.OrderID, entity.SagaCompleted, s.step(entity.StepCompleted, "resumed"))
}
