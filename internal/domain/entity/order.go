package entity

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// OrderItem is the immutable snapshot of a listing taken at checkout.
type OrderItem struct {
	ListingID string  `bson:"listing_id" json:"listingId"`
	PetName   string  `bson:"pet_name" json:"petName"`
	Species   string  `bson:"species" json:"petType"`
	Breed     string  `bson:"breed,omitempty" json:"petBreed,omitempty"`
	Age       *int    `bson:"age,omitempty" json:"petAge,omitempty"`
	Gender    string  `bson:"gender,omitempty" json:"petGender,omitempty"`
	AvatarURL string  `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	Price     float64 `bson:"price" json:"price"`
}

type CustomerInfo struct {
	Name    string `bson:"name" json:"name" validate:"required"`
	Address string `bson:"address" json:"address" validate:"required"`
	Phone   string `bson:"phone" json:"phone" validate:"required"`
	Email   string `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
}

type Order struct {
	ID              string        `bson:"_id,omitempty" json:"id"`
	CustomerID      string        `bson:"customer_id" json:"customerId"`
	Items           []OrderItem   `bson:"items" json:"items"`
	CustomerInfo    CustomerInfo  `bson:"customer_info" json:"customerInfo"`
	Subtotal        float64       `bson:"subtotal" json:"subtotal"`
	TaxPercent      float64       `bson:"tax_percent" json:"taxPercent"`
	TaxAmount       float64       `bson:"tax_amount" json:"taxAmount"`
	ProcessingFee   float64       `bson:"processing_fee" json:"processingFee"`
	ShippingFee     float64       `bson:"shipping_fee" json:"shippingFee"`
	Total           float64       `bson:"total" json:"total"`
	Currency        string        `bson:"currency" json:"currency"`
	Status          OrderStatus   `bson:"status" json:"status"`
	PaymentStatus   PaymentStatus `bson:"payment_status" json:"paymentStatus"`
	PaymentIntentID *string       `bson:"payment_intent_id,omitempty" json:"paymentIntentId,omitempty"`
	PaidAt          *time.Time    `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	CreatedAt       time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updated_at" json:"updatedAt"`
}

func NewOrder(customerID string, items []OrderItem, info CustomerInfo, currency string) (*Order, error) {
	if customerID == "" {
		return nil, errors.New("customer ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}
	now := time.Now().UTC()
	return &Order{
		CustomerID:    customerID,
		Items:         items,
		CustomerInfo:  info,
		Currency:      currency,
		Status:        OrderPending,
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (o *Order) ListingIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ListingID)
	}
	return ids
}

func (o *Order) IsPaid() bool {
	return o.Status == OrderPaid
}
