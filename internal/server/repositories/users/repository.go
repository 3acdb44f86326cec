// Package users declares the credential store: principals and their
// password hashes.
package users

import (
	"context"

	"github.com/dmitrijs2005/cashcare/internal/server/models"
)

type Repository interface {
	// Create stores a new user. A taken email yields common.ErrorAlreadyExists,
	// a taken id common.ErrStorageConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail returns common.ErrorNotFound for unknown emails.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}
