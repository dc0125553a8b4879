package entity

import (
	"errors"
	"time"
)

var ErrBasketItemNotFound = errors.New("listing is not in the basket")

type BasketItem struct {
	ListingID string    `json:"listing_id"`
	AddedAt   time.Time `json:"added_at"`
}

// Basket holds the listings a customer intends to adopt. Items keep the order
// they were added in and never repeat a listing.
type Basket struct {
	CustomerID string       `json:"customer_id"`
	Items      []BasketItem `json:"items"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func NewBasket(customerID string) *Basket {
	return &Basket{
		CustomerID: customerID,
		Items:      make([]BasketItem, 0),
		UpdatedAt:  time.Now().UTC(),
	}
}

func (b *Basket) indexOf(listingID string) int {
	for i, item := range b.Items {
		if item.ListingID == listingID {
			return i
		}
	}
	return -1
}

func (b *Basket) Contains(listingID string) bool {
	return b.indexOf(listingID) >= 0
}

// Add appends listingID unless it is already present. It reports whether the
// basket changed.
func (b *Basket) Add(listingID string) (bool, error) {
	if listingID == "" {
		return false, errors.New("listing ID cannot be empty")
	}
	if b.Contains(listingID) {
		return false, nil
	}
	now := time.Now().UTC()
	b.Items = append(b.Items, BasketItem{ListingID: listingID, AddedAt: now})
	b.UpdatedAt = now
	return true, nil
}

func (b *Basket) Remove(listingID string) error {
	idx := b.indexOf(listingID)
	if idx == -1 {
		return ErrBasketItemNotFound
	}
	b.Items = append(b.Items[:idx], b.Items[idx+1:]...)
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveMany drops every listed item that is present and returns how many
// were removed. Unknown ids are ignored.
func (b *Basket) RemoveMany(listingIDs []string) int {
	drop := make(map[string]struct{}, len(listingIDs))
	for _, id := range listingIDs {
		drop[id] = struct{}{}
	}
	kept := b.Items[:0]
	for _, item := range b.Items {
		if _, ok := drop[item.ListingID]; !ok {
			kept = append(kept, item)
		}
	}
	removed := len(b.Items) - len(kept)
	b.Items = kept
	if removed > 0 {
		b.UpdatedAt = time.Now().UTC()
	}
	return removed
}

func (b *Basket) ListingIDs() []string {
	ids := make([]string, 0, len(b.Items))
	for _, item := range b.Items {
		ids = append(ids, item.ListingID)
	}
	return ids
}
