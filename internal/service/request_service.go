package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	natsadapter "github.com/Abdurahmanit/GroupProject/adoption-service/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
)

type RequestDeliveredEvent struct {
	RequestID   string    `json:"requestId"`
	ListingID   string    `json:"listingId"`
	CustomerID  string    `json:"customerId"`
	OrderID     string    `json:"orderId,omitempty"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

type RequestService interface {
	CreateRequest(ctx context.Context, listingID, customerID string) (*entity.Request, error)
	// EnsureRequest creates a request for the pair unless one exists and
	// reports whether it created one.
	EnsureRequest(ctx context.Context, listingID, customerID string, status entity.RequestStatus) (bool, error)
	GetRequest(ctx context.Context, id string) (*entity.Request, error)
	UpdateStatus(ctx context.Context, id string, status entity.RequestStatus) (*entity.Request, error)
	// DeleteRequest removes a request. Reconciliation recreates it while an
	// order for the same listing and customer still exists.
	DeleteRequest(ctx context.Context, id string) error
	ListRequests(ctx context.Context, status entity.RequestStatus) ([]entity.Request, error)
}

// ListingResolver swaps bare listing ids on requests for the loaded records.
type ListingResolver struct {
	listings ListingService
}

func NewListingResolver(listings ListingService) *ListingResolver {
	return &ListingResolver{listings: listings}
}

// Resolve leaves references to deleted listings unresolved.
func (r *ListingResolver) Resolve(ctx context.Context, requests []entity.Request) ([]entity.Request, error) {
	if len(requests) == 0 {
		return requests, nil
	}
	ids := make([]string, 0, len(requests))
	seen := make(map[string]struct{}, len(requests))
	for _, req := range requests {
		id := req.ListingID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	listings, err := r.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Listing, len(listings))
	for i := range listings {
		byID[listings[i].ID] = &listings[i]
	}

	out := make([]entity.Request, len(requests))
	for i, req := range requests {
		req.Listing = entity.Resolved(req.ListingID(), byID[req.ListingID()])
		out[i] = req
	}
	return out, nil
}

type requestService struct {
	requests  repository.RequestRepository
	orders    repository.OrderRepository
	listings  ListingService
	resolver  *ListingResolver
	publisher natsadapter.MessagePublisher
	log       logger.Logger
}

func NewRequestService(
	requests repository.RequestRepository,
	orders repository.OrderRepository,
	listings ListingService,
	publisher natsadapter.MessagePublisher,
	log logger.Logger,
) RequestService {
	return &requestService{
		requests:  requests,
		orders:    orders,
		listings:  listings,
		resolver:  NewListingResolver(listings),
		publisher: publisher,
		log:       log,
	}
}

func (s *requestService) CreateRequest(ctx context.Context, listingID, customerID string) (*entity.Request, error) {
	s.log.Infof("Creating adoption request: ListingID=%s, CustomerID=%s", listingID, customerID)

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status == entity.ListingAdopted {
		return nil, fmt.Errorf("%w: listing %s has already been adopted", ErrConflict, listingID)
	}

	_, err = s.requests.FindByListingAndCustomer(ctx, listingID, customerID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: a request for listing %s already exists", ErrConflict, listingID)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("could not check existing requests: %w", err)
	}

	request, err := entity.NewRequest(listingID, customerID, entity.RequestPending)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := s.requests.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: a request for listing %s already exists", ErrConflict, listingID)
		}
		s.log.Errorf("Failed to create request for listing %s: %v", listingID, err)
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	if listing.Status != entity.ListingPending {
		if err := s.listings.SetStatus(ctx, listingID, entity.ListingPending); err != nil {
			s.log.Warnf("Request %s created but listing %s was not flipped to pending: %v", request.ID, listingID, err)
		}
		listing.Status = entity.ListingPending
	}

	request.Listing = entity.Resolved(listingID, listing)
	return request, nil
}

func (s *requestService) EnsureRequest(ctx context.Context, listingID, customerID string, status entity.RequestStatus) (bool, error) {
	_, err := s.requests.FindByListingAndCustomer(ctx, listingID, customerID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("could not check existing requests: %w", err)
	}

	request, err := entity.NewRequest(listingID, customerID, status)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := s.requests.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("could not create request: %w", err)
	}
	s.log.Debugf("Request %s ensured for listing %s and customer %s", request.ID, listingID, customerID)
	return true, nil
}

func (s *requestService) load(ctx context.Context, id string) (*entity.Request, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: request %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("could not load request: %w", err)
	}
	return request, nil
}

func (s *requestService) resolveOne(ctx context.Context, request *entity.Request) (*entity.Request, error) {
	resolved, err := s.resolver.Resolve(ctx, []entity.Request{*request})
	if err != nil {
		return nil, err
	}
	return &resolved[0], nil
}

func (s *requestService) GetRequest(ctx context.Context, id string) (*entity.Request, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolveOne(ctx, request)
}

func (s *requestService) UpdateStatus(ctx context.Context, id string, status entity.RequestStatus) (*entity.Request, error) {
	status = entity.RequestStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown request status %q", ErrValidation, status)
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Updating request %s from %s to %s", id, request.Status, status)

	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: request %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("could not update request status: %w", err)
	}
	request.Status = status
	request.UpdatedAt = time.Now().UTC()

	if status == entity.RequestDelivered {
		if err := s.completeAdoption(ctx, request); err != nil {
			return nil, err
		}
	}
	return s.resolveOne(ctx, request)
}

// completeAdoption marks the listing adopted and the customer's latest order
// for it paid. Both steps are safe to repeat.
func (s *requestService) completeAdoption(ctx context.Context, request *entity.Request) error {
	listingID := request.ListingID()

	if err := s.listings.SetStatus(ctx, listingID, entity.ListingAdopted); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		s.log.Warnf("Request %s delivered for missing listing %s", request.ID, listingID)
	}

	event := RequestDeliveredEvent{
		RequestID:   request.ID,
		ListingID:   listingID,
		CustomerID:  request.CustomerID,
		DeliveredAt: time.Now().UTC(),
	}

	order, err := s.orders.FindLatestForCustomerListing(ctx, request.CustomerID, listingID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.log.Infof("No order found for customer %s and listing %s; nothing to mark paid", request.CustomerID, listingID)
	case err != nil:
		return fmt.Errorf("could not find order for request: %w", err)
	default:
		params := repository.MarkOrderPaidParams{OrderID: order.ID, PaidAt: event.DeliveredAt}
		if err := s.orders.MarkPaid(ctx, params); err != nil {
			s.log.Errorf("Failed to mark order %s paid: %v", order.ID, err)
			return fmt.Errorf("could not mark order paid: %w", err)
		}
		event.OrderID = order.ID
	}

	if err := s.publisher.Publish(ctx, natsadapter.SubjectRequestDelivered, event); err != nil {
		s.log.Warnf("Failed to publish delivery of request %s: %v", request.ID, err)
	}
	return nil
}

func (s *requestService) DeleteRequest(ctx context.Context, id string) error {
	s.log.Infof("Deleting request %s", id)
	if err := s.requests.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: request %s", ErrNotFound, id)
		}
		return fmt.Errorf("could not delete request: %w", err)
	}
	return nil
}

func (s *requestService) ListRequests(ctx context.Context, status entity.RequestStatus) ([]entity.Request, error) {
	requests, err := s.requests.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("could not list requests: %w", err)
	}
	return s.resolver.Resolve(ctx, requests)
}
