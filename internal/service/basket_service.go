package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/pricing"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
)

const defaultBasketTTL = 30 * 24 * time.Hour

type BasketItemView struct {
	ListingID string          `json:"listingId"`
	AddedAt   time.Time       `json:"addedAt"`
	Listing   *entity.Listing `json:"listing,omitempty"`
}

// BasketView is a basket with each item resolved to its current listing.
// Items whose listing no longer exists keep a nil Listing and do not count
// toward Subtotal.
type BasketView struct {
	CustomerID string           `json:"customerId"`
	Items      []BasketItemView `json:"items"`
	Subtotal   float64          `json:"subtotal"`
}

type BasketService interface {
	GetBasket(ctx context.Context, customerID string) (*BasketView, error)
	AddItem(ctx context.Context, customerID, listingID string) (*BasketView, error)
	RemoveItem(ctx context.Context, customerID, listingID string) (*BasketView, error)
	RemoveItems(ctx context.Context, customerID string, listingIDs []string) (*BasketView, error)
	ClearBasket(ctx context.Context, customerID string) error
}

type basketService struct {
	baskets  repository.BasketRepository
	listings ListingService
	log      logger.Logger
	ttl      time.Duration
}

func NewBasketService(
	baskets repository.BasketRepository,
	listings ListingService,
	log logger.Logger,
	ttl time.Duration,
) BasketService {
	if ttl <= 0 {
		ttl = defaultBasketTTL
	}
	return &basketService{
		baskets:  baskets,
		listings: listings,
		log:      log,
		ttl:      ttl,
	}
}

func (s *basketService) enrich(ctx context.Context, basket *entity.Basket) (*BasketView, error) {
	view := &BasketView{
		CustomerID: basket.CustomerID,
		Items:      make([]BasketItemView, 0, len(basket.Items)),
	}
	if len(basket.Items) == 0 {
		return view, nil
	}

	listings, err := s.listings.FindByIDs(ctx, basket.ListingIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Listing, len(listings))
	for i := range listings {
		byID[listings[i].ID] = &listings[i]
	}

	prices := make([]float64, 0, len(basket.Items))
	for _, item := range basket.Items {
		listing, ok := byID[item.ListingID]
		if !ok {
			s.log.Debugf("Basket of %s references missing listing %s", basket.CustomerID, item.ListingID)
		} else {
			prices = append(prices, listing.Price)
		}
		view.Items = append(view.Items, BasketItemView{
			ListingID: item.ListingID,
			AddedAt:   item.AddedAt,
			Listing:   listing,
		})
	}
	view.Subtotal = pricing.Sum(prices...)
	return view, nil
}

func (s *basketService) load(ctx context.Context, customerID string) (*entity.Basket, error) {
	basket, err := s.baskets.GetByCustomerID(ctx, customerID)
	if err != nil {
		s.log.Errorf("Error getting basket for customer %s: %v", customerID, err)
		return nil, fmt.Errorf("could not retrieve basket: %w", err)
	}
	return basket, nil
}

func (s *basketService) save(ctx context.Context, basket *entity.Basket) error {
	if err := s.baskets.Save(ctx, basket, s.ttl); err != nil {
		s.log.Errorf("Error saving basket for customer %s: %v", basket.CustomerID, err)
		return fmt.Errorf("could not save basket: %w", err)
	}
	return nil
}

func (s *basketService) GetBasket(ctx context.Context, customerID string) (*BasketView, error) {
	basket, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, basket)
}

func (s *basketService) AddItem(ctx context.Context, customerID, listingID string) (*BasketView, error) {
	s.log.Infof("Adding listing to basket: CustomerID=%s, ListingID=%s", customerID, listingID)
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return nil, fmt.Errorf("%w: listing ID is required", ErrValidation)
	}

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status == entity.ListingAdopted {
		s.log.Warnf("Customer %s attempted to add adopted listing %s", customerID, listingID)
		return nil, fmt.Errorf("%w: listing %s has already been adopted", ErrConflict, listingID)
	}

	basket, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	added, err := basket.Add(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if added {
		if err := s.save(ctx, basket); err != nil {
			return nil, err
		}
	}
	return s.enrich(ctx, basket)
}

func (s *basketService) RemoveItem(ctx context.Context, customerID, listingID string) (*BasketView, error) {
	s.log.Infof("Removing listing from basket: CustomerID=%s, ListingID=%s", customerID, listingID)
	basket, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := basket.Remove(listingID); err != nil {
		if errors.Is(err, entity.ErrBasketItemNotFound) {
			return nil, fmt.Errorf("%w: listing %s is not in the basket", ErrNotFound, listingID)
		}
		return nil, fmt.Errorf("could not remove basket item: %w", err)
	}
	if err := s.save(ctx, basket); err != nil {
		return nil, err
	}
	return s.enrich(ctx, basket)
}

func (s *basketService) RemoveItems(ctx context.Context, customerID string, listingIDs []string) (*BasketView, error) {
	s.log.Infof("Removing %d listings from basket of customer %s", len(listingIDs), customerID)
	basket, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if removed := basket.RemoveMany(listingIDs); removed > 0 {
		if err := s.save(ctx, basket); err != nil {
			return nil, err
		}
	}
	return s.enrich(ctx, basket)
}

func (s *basketService) ClearBasket(ctx context.Context, customerID string) error {
	s.log.Infof("Clearing basket for customer %s", customerID)
	if err := s.baskets.DeleteByCustomerID(ctx, customerID); err != nil {
		s.log.Errorf("Error deleting basket for customer %s: %v", customerID, err)
		return fmt.Errorf("could not clear basket: %w", err)
	}
	return nil
}
