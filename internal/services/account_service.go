package services

import (
	"fmt"
	"strings"

	"digistore/internal/models"
	"digistore/internal/repositories"
)

// AccountService handles the signed-in user's own data: order history
// and profile editing.
type AccountService struct {
	profileRepo repositories.ProfileRepository
	orderRepo   repositories.OrderRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(profileRepo repositories.ProfileRepository, orderRepo repositories.OrderRepository) *AccountService {
	return &AccountService{
		profileRepo: profileRepo,
		orderRepo:   orderRepo,
	}
}

// GetProfile retrieves the profile for the given user ID.
func (s *AccountService) GetProfile(userID string) (*models.Profile, error) {
	return s.profileRepo.GetByID(userID)
}

// OrderHistory retrieves the user's orders newest-first, each with its
// items and each item's product.
func (s *AccountService) OrderHistory(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID)
}

// UpdateFullName changes the display name on the user's profile.
// It is the only profile field editable through the account surface.
func (s *AccountService) UpdateFullName(userID, fullName string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return fmt.Errorf("full name is required")
	}
	if err := s.profileRepo.UpdateFullName(userID, fullName); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
