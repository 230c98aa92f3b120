package repositories

import "digistore/internal/models"

// ProfileRepository defines the interface for profile data access.
type ProfileRepository interface {
	Create(profile *models.Profile) error
	GetByEmail(email string) (*models.Profile, error)
	GetByID(id string) (*models.Profile, error)
	UpdateFullName(id string, fullName string) error
}
