package services

import (
	"digistore/internal/models"
	"digistore/internal/repositories"
)

// AdminService handles the privileged product management and order
// oversight surface. Access control is enforced by middleware before
// any of these methods run.
type AdminService struct {
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
}

// NewAdminService creates a new AdminService.
func NewAdminService(productRepo repositories.ProductRepository, orderRepo repositories.OrderRepository) *AdminService {
	return &AdminService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// ListProducts retrieves every product, including inactive ones.
func (s *AdminService) ListProducts() ([]models.Product, error) {
	return s.productRepo.GetAll()
}

// CreateProduct creates a new product.
func (s *AdminService) CreateProduct(product *models.Product) error {
	return s.productRepo.Create(product)
}

// UpdateProduct updates an existing product.
// Historical order items are never touched; their prices stay as
// snapshotted at purchase time.
func (s *AdminService) UpdateProduct(product *models.Product) error {
	return s.productRepo.Update(product)
}

// DeleteProduct deletes a product by its ID. The deletion is immediate
// and non-reversible.
func (s *AdminService) DeleteProduct(id string) error {
	return s.productRepo.Delete(id)
}

// ListOrders retrieves all orders across every user for oversight.
func (s *AdminService) ListOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}
