package services

import (
	"fmt"
	"log"

	"digistore/internal/models"
	"digistore/internal/repositories"
	"digistore/pkg/rabbitmq"
)

// CheckoutService converts a purchase intent into a durable order.
type CheckoutService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	mqClient    *rabbitmq.Client
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, mqClient *rabbitmq.Client) *CheckoutService {
	return &CheckoutService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		mqClient:    mqClient,
	}
}

// PlaceOrder buys a single product for the given user.
//
// The product must exist and be active; nothing is written otherwise.
// The order and its single item are stored in one atomic write, so a
// failure can never leave an order without items. There is no payment
// step; the order is completed immediately and its item records the
// product's price at purchase time.
func (s *CheckoutService) PlaceOrder(userID, productID string) (*models.Order, error) {
	product, err := s.productRepo.GetActiveByID(productID)
	if err != nil {
		return nil, fmt.Errorf("product %s not available: %w", productID, err)
	}

	order := &models.Order{
		UserID:      userID,
		TotalAmount: product.Price,
		Status:      models.OrderStatusCompleted,
		Items: []models.OrderItem{
			{
				ProductID: product.ID,
				Price:     product.Price,
			},
		},
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	// Notify downstream consumers (fulfillment, receipts). A publish
	// failure is logged but never fails an already-persisted order.
	if s.mqClient != nil {
		event := map[string]interface{}{
			"orderID":   order.ID,
			"userID":    order.UserID,
			"productID": product.ID,
			"status":    string(order.Status),
			"total":     order.TotalAmount,
		}
		if err := s.mqClient.PublishOrderCompleted(event); err != nil {
			log.Printf("Warning: Failed to publish order completed event for order %s: %v", order.ID, err)
		} else {
			log.Printf("Successfully published order completed event for order %s", order.ID)
		}
	} else {
		log.Println("RabbitMQ client is not initialized. Skipping message publication.")
	}

	return order, nil
}
