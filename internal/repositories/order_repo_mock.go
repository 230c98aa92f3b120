package repositories

import (
	"sort"
	"sync"
	"time"

	"digistore/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// CreateErr, when set, makes the next Create fail without storing
// anything, which lets tests exercise the checkout failure path.
type MockOrderRepository struct {
	orders    map[string]models.Order
	mu        sync.RWMutex
	CreateErr error
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create stores the order and its items atomically: on a simulated
// failure nothing is written, matching the GORM implementation.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		err := r.CreateErr
		r.CreateErr = nil
		return err
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt = now
	}
	r.orders[order.ID] = *order
	return nil
}

// GetByUser returns a user's orders, newest first.
func (r *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			list = append(list, o)
		}
	}
	sortOrdersNewestFirst(list)
	return list, nil
}

// GetAll returns every order, newest first.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		list = append(list, o)
	}
	sortOrdersNewestFirst(list)
	return list, nil
}

func sortOrdersNewestFirst(list []models.Order) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
