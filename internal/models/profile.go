package models

import "time"

// Profile represents a registered user of the store.
// IsAdmin is only ever set by an operator directly in the database;
// no handler accepts it as input.
type Profile struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password  string    `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"`
	FullName  string    `json:"full_name" validate:"omitempty,max=100"`
	AvatarURL string    `json:"avatar_url" validate:"omitempty,url"`
	IsAdmin   bool      `json:"is_admin" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
