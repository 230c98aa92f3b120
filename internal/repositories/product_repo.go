package repositories

import "digistore/internal/models"

// ProductSort identifies one of the supported catalog orderings.
type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceLow  ProductSort = "price-low"
	SortPriceHigh ProductSort = "price-high"
)

// Valid reports whether s is a known sort order.
func (s ProductSort) Valid() bool {
	switch s {
	case SortNewest, SortPriceLow, SortPriceHigh:
		return true
	}
	return false
}

// ProductFilter describes the catalog listing constraints.
// An empty or "all" CategoryID applies no category constraint.
type ProductFilter struct {
	CategoryID string
	Sort       ProductSort
}

// ProductRepository defines the interface for product data access.
// The *Active methods back the customer-facing catalog and only ever
// return products with IsActive=true; the rest back the admin surface.
type ProductRepository interface {
	ListActive(filter ProductFilter) ([]models.Product, error)
	SearchActive(query string) ([]models.Product, error)
	Featured(limit int) ([]models.Product, error)
	GetActiveBySlug(slug string) (*models.Product, error)
	GetActiveByID(id string) (*models.Product, error)
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
