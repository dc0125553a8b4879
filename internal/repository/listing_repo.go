package repository

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
)

type ListListingsParams struct {
	// Status empty means any status.
	Status   entity.ListingStatus
	Species  string
	Breed    string
	Location string
	AgeMin   *int
	AgeMax   *int
	OwnerID  string
	Page     int
	Limit    int
}

type ListListingsResult struct {
	Listings   []entity.Listing
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) (string, error)
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	// FindByIDs returns the listings that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]entity.Listing, error)
	List(ctx context.Context, params ListListingsParams) (*ListListingsResult, error)
	// UpdateStatus moves a listing to status unless it is adopted and status is
	// not. Returns ErrNotFound or ErrConflict accordingly.
	UpdateStatus(ctx context.Context, id string, status entity.ListingStatus) error
	// ReserveIfAvailable flips an available listing to pending and reports
	// whether it did.
	ReserveIfAvailable(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	// ExistsActiveForPet reports whether petID already has a listing that is
	// not adopted.
	ExistsActiveForPet(ctx context.Context, petID string) (bool, error)
}

type ListingCache interface {
	Get(ctx context.Context, id string) (*entity.Listing, error)
	Set(ctx context.Context, listing *entity.Listing, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
