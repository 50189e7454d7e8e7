// Package users persists account records. Email and username are expected
// to arrive already normalized (trimmed, lowercased) from the service layer.
package users

import (
	"context"

	"github.com/avolkov/minipost/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills in the generated id and timestamps.
	// A username or email collision yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail is the credential-verification lookup and the only read
	// that projects the password hash.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user without the password hash.
	GetByID(ctx context.Context, id string) (*models.User, error)
}
