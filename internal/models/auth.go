package models

import (
	"time"
)

// Account origins recorded in User.Provider.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User represents a user in the system
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Hidden from JSON responses
	Provider     string    `json:"-" db:"auth_provider"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
