package entity

import (
	"errors"
	"strings"
	"time"
)

type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingPending   ListingStatus = "pending"
	ListingAdopted   ListingStatus = "adopted"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingAvailable, ListingPending, ListingAdopted:
		return true
	}
	return false
}

type ContactInfo struct {
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Listing is an offer of a single pet for adoption. Pet fields are
// denormalized at creation so the listing survives pet profile edits.
type Listing struct {
	ID          string        `bson:"_id,omitempty" json:"id"`
	OwnerID     string        `bson:"owner_id,omitempty" json:"ownerId,omitempty"`
	PetID       string        `bson:"pet_id,omitempty" json:"petId,omitempty"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Location    string        `bson:"location,omitempty" json:"location,omitempty"`
	PetName     string        `bson:"pet_name" json:"petName"`
	Species     string        `bson:"species" json:"species"`
	Breed       string        `bson:"breed,omitempty" json:"breed,omitempty"`
	Age         *int          `bson:"age,omitempty" json:"age,omitempty"`
	Gender      string        `bson:"gender,omitempty" json:"gender,omitempty"`
	AvatarURL   string        `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	Contact     ContactInfo   `bson:"contact,omitempty" json:"contact,omitempty"`
	Price       float64       `bson:"price" json:"price"`
	Status      ListingStatus `bson:"status" json:"status"`
	CreatedAt   time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updatedAt"`
}

type NewListingInput struct {
	OwnerID     string
	PetID       string
	Title       string
	Description string
	Location    string
	PetName     string
	Species     string
	Breed       string
	Age         *int
	Gender      string
	AvatarURL   string
	Contact     ContactInfo
	Price       float64
}

func NewListing(in NewListingInput) (*Listing, error) {
	if strings.TrimSpace(in.PetName) == "" {
		return nil, errors.New("pet name cannot be empty")
	}
	if strings.TrimSpace(in.Species) == "" {
		return nil, errors.New("species cannot be empty")
	}
	if in.Price < 0 {
		return nil, errors.New("price cannot be negative")
	}
	if in.Age != nil && *in.Age < 0 {
		return nil, errors.New("age cannot be negative")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = in.PetName
	}
	now := time.Now().UTC()
	return &Listing{
		OwnerID:     in.OwnerID,
		PetID:       in.PetID,
		Title:       title,
		Description: in.Description,
		Location:    in.Location,
		PetName:     in.PetName,
		Species:     in.Species,
		Breed:       in.Breed,
		Age:         in.Age,
		Gender:      in.Gender,
		AvatarURL:   in.AvatarURL,
		Contact:     in.Contact,
		Price:       in.Price,
		Status:      ListingAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Snapshot copies the fields an order keeps for this listing.
func (l *Listing) Snapshot() OrderItem {
	return OrderItem{
		ListingID: l.ID,
		PetName:   l.PetName,
		Species:   l.Species,
		Breed:     l.Breed,
		Age:       l.Age,
		Gender:    l.Gender,
		AvatarURL: l.AvatarURL,
		Price:     l.Price,
	}
}
