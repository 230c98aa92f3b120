package repositories

import "digistore/internal/models"

// OrderRepository defines the interface for order data access.
//
// Create persists the order together with its items as a single atomic
// write: either every row is stored or none is. Orders are never updated
// or deleted through the application.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByUser(userID string) ([]models.Order, error)
	GetAll() ([]models.Order, error)
}
