package services

import (
	"fmt"
	"strings"

	"digistore/internal/models"
	"digistore/internal/repositories"
)

// FeaturedLimit caps the number of products shown on the landing view.
const FeaturedLimit = 3

// CatalogService handles the customer-facing product catalog: listing,
// filtering, sorting, search, and featured products. It only ever
// exposes active products.
type CatalogService struct {
	productRepo  repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(productRepo repositories.ProductRepository, categoryRepo repositories.CategoryRepository) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// ListProducts retrieves active products matching the filter. An unknown
// sort value falls back to newest-first.
func (s *CatalogService) ListProducts(filter repositories.ProductFilter) ([]models.Product, error) {
	if !filter.Sort.Valid() {
		filter.Sort = repositories.SortNewest
	}
	return s.productRepo.ListActive(filter)
}

// SearchProducts retrieves active products whose title or description
// contains the query case-insensitively. A blank query is rejected
// before any lookup.
func (s *CatalogService) SearchProducts(query string) ([]models.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	return s.productRepo.SearchActive(strings.TrimSpace(query))
}

// FeaturedProducts retrieves the featured active products for the landing view.
func (s *CatalogService) FeaturedProducts() ([]models.Product, error) {
	return s.productRepo.Featured(FeaturedLimit)
}

// GetProductBySlug retrieves a single active product by its slug.
// Inactive products are indistinguishable from missing ones.
func (s *CatalogService) GetProductBySlug(slug string) (*models.Product, error) {
	return s.productRepo.GetActiveBySlug(slug)
}

// Categories retrieves all categories ordered by name.
func (s *CatalogService) Categories() ([]models.Category, error) {
	return s.categoryRepo.GetAll()
}
