package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
)

type ReceiptService interface {
	// GenerateReceipt returns a plain-text receipt and a suggested file name.
	GenerateReceipt(ctx context.Context, orderID, customerID string, isAdmin bool) ([]byte, string, error)
}

type receiptService struct {
	orders OrderService
	log    logger.Logger
}

func NewReceiptService(orders OrderService, log logger.Logger) ReceiptService {
	return &receiptService{
		orders: orders,
		log:    log,
	}
}

func (s *receiptService) GenerateReceipt(ctx context.Context, orderID, customerID string, isAdmin bool) ([]byte, string, error) {
	s.log.Infof("Generating receipt for order %s, requested by %s", orderID, customerID)

	order, err := s.orders.GetOrder(ctx, orderID, customerID, isAdmin)
	if err != nil {
		return nil, "", err
	}
	return []byte(renderReceipt(order)), fmt.Sprintf("receipt_%s.txt", order.ID), nil
}

func renderReceipt(order *entity.Order) string {
	var b strings.Builder
	currency := strings.ToUpper(order.Currency)

	fmt.Fprintf(&b, "Adoption order: %s\n", order.ID)
	fmt.Fprintf(&b, "Customer: %s\n", order.CustomerInfo.Name)
	fmt.Fprintf(&b, "Address: %s\n", order.CustomerInfo.Address)
	fmt.Fprintf(&b, "Phone: %s\n", order.CustomerInfo.Phone)
	fmt.Fprintf(&b, "Status: %s (payment %s)\n", order.Status, order.PaymentStatus)
	fmt.Fprintf(&b, "Date: %s\n\nPets:\n", order.CreatedAt.Format("2006-01-02 15:04 MST"))

	for _, item := range order.Items {
		name := item.PetName
		if item.Breed != "" {
			name = fmt.Sprintf("%s (%s, %s)", item.PetName, item.Species, item.Breed)
		} else if item.Species != "" {
			name = fmt.Sprintf("%s (%s)", item.PetName, item.Species)
		}
		fmt.Fprintf(&b, "- %s: %.2f %s\n", name, item.Price, currency)
	}

	fmt.Fprintf(&b, "\nSubtotal: %.2f %s\n", order.Subtotal, currency)
	fmt.Fprintf(&b, "Tax (%.2f%%): %.2f %s\n", order.TaxPercent, order.TaxAmount, currency)
	fmt.Fprintf(&b, "Processing fee: %.2f %s\n", order.ProcessingFee, currency)
	fmt.Fprintf(&b, "Shipping fee: %.2f %s\n", order.ShippingFee, currency)
	fmt.Fprintf(&b, "Total: %.2f %s\n", order.Total, currency)
	if order.PaymentIntentID != nil {
		fmt.Fprintf(&b, "Payment reference: %s\n", *order.PaymentIntentID)
	}
	return b.String()
}
