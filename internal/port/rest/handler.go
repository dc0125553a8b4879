package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/service"
	"github.com/go-playground/validator/v10"
)

type Services struct {
	Listings       service.ListingService
	Baskets        service.BasketService
	Checkout       service.CheckoutService
	Requests       service.RequestService
	Reconciliation service.ReconciliationService
	Orders         service.OrderService
	Receipts       service.ReceiptService
}

type Handler struct {
	svc       Services
	log       logger.Logger
	validate  *validator.Validate
	adminRole string
}

func NewHandler(svc Services, log logger.Logger, adminRole string) *Handler {
	return &Handler{
		svc:       svc,
		log:       log,
		validate:  validator.New(),
		adminRole: adminRole,
	}
}

type contactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

type createListingRequest struct {
	PetID       string         `json:"petId"`
	Title       string         `json:"title" validate:"omitempty,min=3"`
	Description string         `json:"description"`
	Location    string         `json:"location" validate:"required,min=2"`
	PetName     string         `json:"petName" validate:"required"`
	Species     string         `json:"species" validate:"required"`
	Breed       string         `json:"breed"`
	Age         *int           `json:"age" validate:"omitempty,gte=0"`
	Gender      string         `json:"gender"`
	AvatarURL   string         `json:"avatarUrl" validate:"omitempty,url"`
	Contact     contactRequest `json:"contact"`
	Price       float64        `json:"price" validate:"gte=0"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type basketItemRequest struct {
	ListingID string `json:"listingId" validate:"required"`
}

type basketItemsRequest struct {
	ListingIDs []string `json:"listingIds" validate:"required,min=1"`
}

type customerRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// checkoutRequest.ListingIDs is optional; when absent the basket contents are
// checked out.
type checkoutRequest struct {
	ListingIDs []string        `json:"listingIds"`
	Customer   customerRequest `json:"customer"`
}

type checkoutResponse struct {
	OrderID         string             `json:"orderId"`
	PaymentIntentID string             `json:"paymentIntentId"`
	ClientSecret    string             `json:"clientSecret"`
	Subtotal        float64            `json:"subtotal"`
	TaxPercent      float64            `json:"taxPercent"`
	TaxAmount       float64            `json:"taxAmount"`
	ProcessingFee   float64            `json:"processingFee"`
	ShippingFee     float64            `json:"shippingFee"`
	Total           float64            `json:"total"`
	Currency        string             `json:"currency"`
	Items           []entity.OrderItem `json:"items"`
}

func toCheckoutResponse(result *service.CheckoutResult) checkoutResponse {
	order := result.Order
	resp := checkoutResponse{
		OrderID:       order.ID,
		ClientSecret:  result.ClientSecret,
		Subtotal:      order.Subtotal,
		TaxPercent:    order.TaxPercent,
		TaxAmount:     order.TaxAmount,
		ProcessingFee: order.ProcessingFee,
		ShippingFee:   order.ShippingFee,
		Total:         order.Total,
		Currency:      order.Currency,
		Items:         order.Items,
	}
	if order.PaymentIntentID != nil {
		resp.PaymentIntentID = *order.PaymentIntentID
	}
	return resp
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation failed"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// caller returns the authenticated user id and whether they are an admin.
func (h *Handler) caller(r *http.Request) (string, bool) {
	id, _ := UserIDFromContext(r.Context())
	return id, RoleFromContext(r.Context()) == h.adminRole
}

func queryInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative integer", service.ErrValidation, key)
	}
	return &v, nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}
