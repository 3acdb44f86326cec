package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/common"
	"github.com/dmitrijs2005/cashcare/internal/server/models"
)

type RefreshTokensRepository struct {
	s *Store
}

func (r *RefreshTokensRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.tokens[t.TokenHash]; ok {
		return common.ErrStorageConflict
	}
	stored := *t
	stored.Token = ""
	r.s.tokens[t.TokenHash] = stored
	return nil
}

func (r *RefreshTokensRepository) Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.tokens[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(t), nil
}

func (r *RefreshTokensRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.tokens[tokenHash]
	if !ok || !t.IsUsable(now) {
		return nil, common.ErrorNotFound
	}
	revoke(&t, models.RevokeReasonRotated, now)
	r.s.tokens[tokenHash] = t
	return clone(t), nil
}

func (r *RefreshTokensRepository) Revoke(ctx context.Context, tokenHash string, reason models.RevokeReason, now time.Time) error {
	defer r.s.lock(ctx)()

	t, ok := r.s.tokens[tokenHash]
	if !ok {
		return common.ErrorNotFound
	}
	if !t.Revoked {
		revoke(&t, reason, now)
		r.s.tokens[tokenHash] = t
	}
	return nil
}

func (r *RefreshTokensRepository) RevokeAllForUser(ctx context.Context, userID string, reason models.RevokeReason, now time.Time) (int64, error) {
	defer r.s.lock(ctx)()

	var n int64
	for h, t := range r.s.tokens {
		if t.UserID != userID || t.Revoked {
			continue
		}
		revoke(&t, reason, now)
		r.s.tokens[h] = t
		n++
	}
	return n, nil
}

func revoke(t *models.RefreshToken, reason models.RevokeReason, now time.Time) {
	at := now
	t.Revoked = true
	t.RevokedAt = &at
	t.RevokeReason = reason
}

// clone detaches the RevokedAt pointer from the stored record.
func clone(t models.RefreshToken) *models.RefreshToken {
	if t.RevokedAt != nil {
		at := *t.RevokedAt
		t.RevokedAt = &at
	}
	return &t
}
