// Package refreshtokens declares the refresh token ledger storage contract.
// Tokens are addressed by the hash of their opaque value.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/server/models"
)

type Repository interface {
	// Create stores a new token. A token_hash collision yields
	// common.ErrStorageConflict and nothing is written.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find returns the token with the given hash regardless of its state,
	// or common.ErrorNotFound.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Consume atomically revokes a token that is neither revoked nor
	// expired at now, with reason "rotated", and returns it. When no such
	// token exists it returns common.ErrorNotFound and changes nothing; of
	// several concurrent callers at most one succeeds.
	Consume(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error)

	// Revoke marks the token revoked. Revoking an already revoked token
	// succeeds and keeps the original revocation time and reason.
	// An unknown hash yields common.ErrorNotFound.
	Revoke(ctx context.Context, tokenHash string, reason models.RevokeReason, now time.Time) error

	// RevokeAllForUser revokes every live token of userID and returns how
	// many were affected.
	RevokeAllForUser(ctx context.Context, userID string, reason models.RevokeReason, now time.Time) (int64, error)
}
