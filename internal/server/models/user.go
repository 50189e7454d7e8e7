// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. Email and Username are stored in their
// normalized (trimmed, lowercased) form and are unique.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
