package models

import (
	"strings"
	"time"
)

// Product represents a digital good in the store.
// Only products with IsActive=true are visible to customer-facing views.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;type:varchar(200)" validate:"required,max=200"`
	Description string    `json:"description" validate:"required,max=2000"`
	Price       float64   `json:"price" validate:"gte=0"`
	ImageURL    string    `json:"image_url" validate:"omitempty,url"`
	DownloadURL string    `json:"download_url" validate:"omitempty,url"`
	CategoryID  *string   `json:"category_id" gorm:"type:varchar(36)"`
	IsFeatured  bool      `json:"is_featured"`
	IsActive    bool      `json:"is_active"`
	Tags        []string  `json:"tags" gorm:"serializer:json"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// ParseTags splits a comma-separated tag string into an ordered list.
// Each tag is trimmed and empty entries are dropped. Duplicates are kept.
func ParseTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
