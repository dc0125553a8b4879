package entity

import (
	"errors"
	"time"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestDelivered RequestStatus = "delivered"
)

func (s RequestStatus) Valid() bool {
	return s == RequestPending || s == RequestDelivered
}

// Request records a customer's intent to adopt one listing. At most one
// exists per (listing, customer) pair.
type Request struct {
	ID         string             `json:"id"`
	Listing    Reference[Listing] `json:"listing"`
	CustomerID string             `json:"customerId"`
	Status     RequestStatus      `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

func NewRequest(listingID, customerID string, status RequestStatus) (*Request, error) {
	if listingID == "" {
		return nil, errors.New("listing ID cannot be empty")
	}
	if customerID == "" {
		return nil, errors.New("customer ID cannot be empty")
	}
	if !status.Valid() {
		return nil, errors.New("invalid request status")
	}
	now := time.Now().UTC()
	return &Request{
		Listing:    RefID[Listing](listingID),
		CustomerID: customerID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (r *Request) ListingID() string {
	return r.Listing.ID()
}
