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
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
)

const (
	defaultListingCacheTTL = 5 * time.Minute
	defaultPageSize        = 10
	maxPageSize            = 100
	statusFilterAll        = "all"
)

type ListListingsQuery struct {
	Status   string
	Species  string
	Breed    string
	Location string
	AgeMin   *int
	AgeMax   *int
	Page     int
	Limit    int
}

type ListingStatusChangedEvent struct {
	ListingID string               `json:"listingId"`
	Status    entity.ListingStatus `json:"status"`
	ChangedAt time.Time            `json:"changedAt"`
}

type ListingService interface {
	GetListing(ctx context.Context, id string) (*entity.Listing, error)
	// FindByIDs bypasses the cache; checkout needs the current status.
	FindByIDs(ctx context.Context, ids []string) ([]entity.Listing, error)
	ListListings(ctx context.Context, query ListListingsQuery) (*repository.ListListingsResult, error)
	ListOwnerListings(ctx context.Context, ownerID string) ([]entity.Listing, error)
	CreateListing(ctx context.Context, input entity.NewListingInput) (*entity.Listing, error)
	SetStatus(ctx context.Context, id string, status entity.ListingStatus) error
	UpdateStatusByAdmin(ctx context.Context, id, adminID string, status entity.ListingStatus) error
	// Reserve flips an available listing to pending; it reports false when
	// the listing was not available.
	Reserve(ctx context.Context, id string) (bool, error)
	DeleteListing(ctx context.Context, id, requesterID string, isAdmin bool) error
}

type listingService struct {
	listings  repository.ListingRepository
	cache     repository.ListingCache
	orders    repository.OrderRepository
	publisher natsadapter.MessagePublisher
	metrics   *metrics.MetricsManager
	log       logger.Logger
	cacheTTL  time.Duration
}

func NewListingService(
	listings repository.ListingRepository,
	cache repository.ListingCache,
	orders repository.OrderRepository,
	publisher natsadapter.MessagePublisher,
	metricsManager *metrics.MetricsManager,
	log logger.Logger,
	cacheTTL time.Duration,
) ListingService {
	if cacheTTL <= 0 {
		cacheTTL = defaultListingCacheTTL
	}
	return &listingService{
		listings:  listings,
		cache:     cache,
		orders:    orders,
		publisher: publisher,
		metrics:   metricsManager,
		log:       log,
		cacheTTL:  cacheTTL,
	}
}

func (s *listingService) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	cached, err := s.cache.Get(ctx, id)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.log.Warnf("Listing cache read for %s failed, falling back to storage: %v", id, err)
	}

	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: listing %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("could not load listing: %w", err)
	}

	if err := s.cache.Set(ctx, listing, s.cacheTTL); err != nil {
		s.log.Warnf("Failed to cache listing %s: %v", id, err)
	}
	return listing, nil
}

func (s *listingService) FindByIDs(ctx context.Context, ids []string) ([]entity.Listing, error) {
	listings, err := s.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("could not resolve listings: %w", err)
	}
	return listings, nil
}

func (s *listingService) ListListings(ctx context.Context, query ListListingsQuery) (*repository.ListListingsResult, error) {
	params := repository.ListListingsParams{
		Species:  strings.TrimSpace(query.Species),
		Breed:    strings.TrimSpace(query.Breed),
		Location: strings.TrimSpace(query.Location),
		AgeMin:   query.AgeMin,
		AgeMax:   query.AgeMax,
		Page:     query.Page,
		Limit:    query.Limit,
	}

	switch status := strings.ToLower(strings.TrimSpace(query.Status)); status {
	case "":
		params.Status = entity.ListingAvailable
	case statusFilterAll:
	default:
		if !entity.ListingStatus(status).Valid() {
			return nil, fmt.Errorf("%w: unknown listing status %q", ErrValidation, query.Status)
		}
		params.Status = entity.ListingStatus(status)
	}

	if params.AgeMin != nil && params.AgeMax != nil && *params.AgeMin > *params.AgeMax {
		return nil, fmt.Errorf("%w: ageMin is greater than ageMax", ErrValidation)
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultPageSize
	}
	if params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}

	result, err := s.listings.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("could not list listings: %w", err)
	}
	return result, nil
}

func (s *listingService) ListOwnerListings(ctx context.Context, ownerID string) ([]entity.Listing, error) {
	result, err := s.listings.List(ctx, repository.ListListingsParams{OwnerID: ownerID, Page: 1, Limit: maxPageSize})
	if err != nil {
		return nil, fmt.Errorf("could not list owner listings: %w", err)
	}
	return result.Listings, nil
}

func (s *listingService) CreateListing(ctx context.Context, input entity.NewListingInput) (*entity.Listing, error) {
	s.log.Infof("Creating adoption listing: OwnerID=%s, PetID=%s", input.OwnerID, input.PetID)

	listing, err := entity.NewListing(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if input.PetID != "" {
		exists, err := s.listings.ExistsActiveForPet(ctx, input.PetID)
		if err != nil {
			return nil, fmt.Errorf("could not check existing listings: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: pet %s already has an active listing", ErrConflict, input.PetID)
		}
	}

	if _, err := s.listings.Create(ctx, listing); err != nil {
		s.log.Errorf("Failed to create listing for pet %s: %v", input.PetID, err)
		return nil, fmt.Errorf("could not create listing: %w", err)
	}
	s.log.Infof("Adoption listing %s created", listing.ID)
	return listing, nil
}

func (s *listingService) SetStatus(ctx context.Context, id string, status entity.ListingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown listing status %q", ErrValidation, status)
	}

	if err := s.listings.UpdateStatus(ctx, id, status); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("%w: listing %s", ErrNotFound, id)
		case errors.Is(err, repository.ErrConflict):
			return fmt.Errorf("%w: listing %s is already adopted", ErrConflict, id)
		}
		s.log.Errorf("Failed to set listing %s to %s: %v", id, status, err)
		return fmt.Errorf("could not update listing status: %w", err)
	}

	s.afterStatusChange(ctx, id, status)
	return nil
}

func (s *listingService) UpdateStatusByAdmin(ctx context.Context, id, adminID string, status entity.ListingStatus) error {
	s.log.Infof("Admin %s setting listing %s to %s", adminID, id, status)
	return s.SetStatus(ctx, id, status)
}

func (s *listingService) Reserve(ctx context.Context, id string) (bool, error) {
	reserved, err := s.listings.ReserveIfAvailable(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, fmt.Errorf("%w: listing %s", ErrNotFound, id)
		}
		return false, fmt.Errorf("could not reserve listing: %w", err)
	}
	if reserved {
		s.afterStatusChange(ctx, id, entity.ListingPending)
	}
	return reserved, nil
}

func (s *listingService) afterStatusChange(ctx context.Context, id string, status entity.ListingStatus) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warnf("Failed to evict listing %s from cache: %v", id, err)
	}
	s.metrics.ListingStatusChanges.WithLabelValues(string(status)).Inc()

	event := ListingStatusChangedEvent{ListingID: id, Status: status, ChangedAt: time.Now().UTC()}
	if err := s.publisher.Publish(ctx, natsadapter.SubjectListingStatusChanged, event); err != nil {
		s.log.Warnf("Failed to publish status change for listing %s: %v", id, err)
	}
}

func (s *listingService) DeleteListing(ctx context.Context, id, requesterID string, isAdmin bool) error {
	s.log.Infof("Deleting listing %s requested by %s (admin=%t)", id, requesterID, isAdmin)

	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: listing %s", ErrNotFound, id)
		}
		return fmt.Errorf("could not load listing: %w", err)
	}
	if !isAdmin && listing.OwnerID != requesterID {
		s.log.Warnf("User %s attempted to delete listing %s owned by %s", requesterID, id, listing.OwnerID)
		return fmt.Errorf("%w: only the owner or an admin can delete listing %s", ErrForbidden, id)
	}

	referenced, err := s.orders.ExistsPendingWithListing(ctx, id)
	if err != nil {
		return fmt.Errorf("could not check orders for listing: %w", err)
	}
	if referenced {
		return fmt.Errorf("%w: listing %s is part of a pending order", ErrConflict, id)
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: listing %s", ErrNotFound, id)
		}
		return fmt.Errorf("could not delete listing: %w", err)
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warnf("Failed to evict deleted listing %s from cache: %v", id, err)
	}
	return nil
}
