package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"digistore/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It mirrors the query semantics of the GORM implementation so catalog
// behavior can be tested without a database.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// ListActive returns active products matching the filter, sorted.
func (r *MockProductRepository) ListActive(filter ProductFilter) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.Product
	for _, p := range r.products {
		if !p.IsActive {
			continue
		}
		if filter.CategoryID != "" && filter.CategoryID != "all" {
			if p.CategoryID == nil || *p.CategoryID != filter.CategoryID {
				continue
			}
		}
		list = append(list, p)
	}
	sortProducts(list, filter.Sort)
	return list, nil
}

// SearchActive returns active products whose title or description
// contains the query case-insensitively, newest first.
func (r *MockProductRepository) SearchActive(query string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	var list []models.Product
	for _, p := range r.products {
		if !p.IsActive {
			continue
		}
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			list = append(list, p)
		}
	}
	sortProducts(list, SortNewest)
	return list, nil
}

// Featured returns up to limit active featured products.
func (r *MockProductRepository) Featured(limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.Product
	for _, p := range r.products {
		if p.IsFeatured && p.IsActive {
			list = append(list, p)
		}
	}
	sortProducts(list, SortNewest)
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// GetActiveBySlug returns an active product by its slug.
func (r *MockProductRepository) GetActiveBySlug(slug string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Slug == slug && p.IsActive {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product with slug %s not found", slug)
}

// GetActiveByID returns an active product by its ID.
func (r *MockProductRepository) GetActiveByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok || !p.IsActive {
		return nil, fmt.Errorf("product with ID %s not found", id)
	}
	return &p, nil
}

// GetAll returns all products, including inactive ones, newest first.
func (r *MockProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		list = append(list, p)
	}
	sortProducts(list, SortNewest)
	return list, nil
}

// GetByID returns a product by its ID, active or not.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s not found", id)
	}
	return &p, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s not found for update", product.ID)
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s not found for deletion", id)
	}
	delete(r.products, id)
	return nil
}

func sortProducts(list []models.Product, by ProductSort) {
	switch by {
	case SortPriceLow:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price < list[j].Price })
	case SortPriceHigh:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price > list[j].Price })
	default:
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	}
}
