package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
)

// Reconciliation triggers, used as metric labels.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerRead      = "read"
)

type ReconcileReport struct {
	Filter          string `json:"filter"`
	OrdersScanned   int    `json:"ordersScanned"`
	RequestsCreated int    `json:"requestsCreated"`
}

type ReconciliationService interface {
	// Reconcile creates the missing request for every item of every order
	// matching filter. filter is a request status, "all" or empty.
	Reconcile(ctx context.Context, filter, trigger string) (*ReconcileReport, error)
	ListRequests(ctx context.Context, filter string) ([]entity.Request, error)
}

type reconciliationService struct {
	orders          repository.OrderRepository
	requests        RequestService
	metrics         *metrics.MetricsManager
	log             logger.Logger
	backfillOnEmpty bool
}

func NewReconciliationService(
	orders repository.OrderRepository,
	requests RequestService,
	metricsManager *metrics.MetricsManager,
	log logger.Logger,
	backfillOnEmpty bool,
) ReconciliationService {
	return &reconciliationService{
		orders:          orders,
		requests:        requests,
		metrics:         metricsManager,
		log:             log,
		backfillOnEmpty: backfillOnEmpty,
	}
}

// parseRequestFilter maps a request status filter to the matching request
// status and order status. Empty results mean no filtering.
func parseRequestFilter(filter string) (entity.RequestStatus, entity.OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", statusFilterAll:
		return "", "", nil
	case string(entity.RequestDelivered):
		return entity.RequestDelivered, entity.OrderPaid, nil
	case string(entity.RequestPending):
		return entity.RequestPending, entity.OrderPending, nil
	default:
		return "", "", fmt.Errorf("%w: unknown request status %q", ErrValidation, filter)
	}
}

func (s *reconciliationService) Reconcile(ctx context.Context, filter, trigger string) (*ReconcileReport, error) {
	_, orderStatus, err := parseRequestFilter(filter)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.List(ctx, repository.ListOrdersParams{Status: orderStatus})
	if err != nil {
		return nil, fmt.Errorf("could not list orders for reconciliation: %w", err)
	}

	report := &ReconcileReport{Filter: filter, OrdersScanned: len(orders)}
	for _, order := range orders {
		status := entity.RequestPending
		if order.IsPaid() {
			status = entity.RequestDelivered
		}
		for _, item := range order.Items {
			created, err := s.requests.EnsureRequest(ctx, item.ListingID, order.CustomerID, status)
			if err != nil {
				s.log.Errorf("Reconciliation of order %s stopped at listing %s: %v", order.ID, item.ListingID, err)
				return nil, err
			}
			if created {
				report.RequestsCreated++
			}
		}
	}

	s.metrics.ReconciliationRuns.WithLabelValues(trigger).Inc()
	s.metrics.RequestsBackfilled.Add(float64(report.RequestsCreated))
	s.log.Infof("Reconciliation (%s, filter=%q) scanned %d orders, created %d requests",
		trigger, filter, report.OrdersScanned, report.RequestsCreated)
	return report, nil
}

func (s *reconciliationService) ListRequests(ctx context.Context, filter string) ([]entity.Request, error) {
	status, _, err := parseRequestFilter(filter)
	if err != nil {
		return nil, err
	}

	requests, err := s.requests.ListRequests(ctx, status)
	if err != nil {
		return nil, err
	}
	if len(requests) > 0 || !s.backfillOnEmpty {
		return requests, nil
	}

	report, err := s.Reconcile(ctx, filter, TriggerRead)
	if err != nil {
		return nil, err
	}
	if report.RequestsCreated == 0 {
		return requests, nil
	}
	return s.requests.ListRequests(ctx, status)
}
