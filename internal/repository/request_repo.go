package repository

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
)

type RequestRepository interface {
	// Create returns ErrAlreadyExists when the (listing, customer) pair is taken.
	Create(ctx context.Context, request *entity.Request) (string, error)
	GetByID(ctx context.Context, id string) (*entity.Request, error)
	FindByListingAndCustomer(ctx context.Context, listingID, customerID string) (*entity.Request, error)
	// List returns requests newest first. An empty status means all.
	List(ctx context.Context, status entity.RequestStatus) ([]entity.Request, error)
	UpdateStatus(ctx context.Context, id string, status entity.RequestStatus) error
	Delete(ctx context.Context, id string) error
}
