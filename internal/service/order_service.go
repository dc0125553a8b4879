package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/repository"
)

type OrderService interface {
	// OrdersByCustomer returns the customer's orders, newest first.
	OrdersByCustomer(ctx context.Context, customerID string) ([]entity.Order, error)
	GetOrder(ctx context.Context, orderID, requesterID string, isAdmin bool) (*entity.Order, error)
}

type orderService struct {
	orders repository.OrderRepository
	log    logger.Logger
}

func NewOrderService(orders repository.OrderRepository, log logger.Logger) OrderService {
	return &orderService{
		orders: orders,
		log:    log,
	}
}

func (s *orderService) OrdersByCustomer(ctx context.Context, customerID string) ([]entity.Order, error) {
	orders, err := s.orders.List(ctx, repository.ListOrdersParams{CustomerID: customerID})
	if err != nil {
		s.log.Errorf("Failed to list orders for customer %s: %v", customerID, err)
		return nil, fmt.Errorf("could not list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID, requesterID string, isAdmin bool) (*entity.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("could not load order: %w", err)
	}
	if !isAdmin && order.CustomerID != requesterID {
		s.log.Warnf("User %s attempted to read order %s belonging to %s", requesterID, orderID, order.CustomerID)
		return nil, fmt.Errorf("%w: order %s belongs to another customer", ErrForbidden, orderID)
	}
	return order, nil
}
