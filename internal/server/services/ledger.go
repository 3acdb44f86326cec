package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/common"
	"github.com/dmitrijs2005/cashcare/internal/cryptox"
	"github.com/dmitrijs2005/cashcare/internal/dbx"
	"github.com/dmitrijs2005/cashcare/internal/logging"
	"github.com/dmitrijs2005/cashcare/internal/server/models"
	"github.com/dmitrijs2005/cashcare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cashcare/internal/timex"
	"github.com/google/uuid"
)

// TokenGenerator returns a new opaque token value and its digest.
type TokenGenerator func(n int) (value, hash string, err error)

// RefreshLedger issues, looks up, revokes and rotates refresh tokens.
type RefreshLedger struct {
	tx         dbx.Transactor
	repos      repomanager.RepositoryManager
	ttl        time.Duration
	tokenBytes int
	now        timex.Clock
	generate   TokenGenerator
	logger     logging.Logger

	revokeAllOnReuse bool
}

// Rotation is the outcome of a successful rotate: the consumed token and
// its successor, which carries the plaintext value for the client.
type Rotation struct {
	Previous  *models.RefreshToken
	Successor *models.RefreshToken
}

type LedgerOption func(*RefreshLedger)

func WithLedgerClock(now timex.Clock) LedgerOption {
	return func(l *RefreshLedger) { l.now = now }
}

func WithTokenGenerator(g TokenGenerator) LedgerOption {
	return func(l *RefreshLedger) { l.generate = g }
}

func WithTokenBytes(n int) LedgerOption {
	return func(l *RefreshLedger) { l.tokenBytes = n }
}

// WithRevokeAllOnReuse makes Rotate revoke every live token of the
// principal when a consumed token is presented again.
func WithRevokeAllOnReuse(enabled bool) LedgerOption {
	return func(l *RefreshLedger) { l.revokeAllOnReuse = enabled }
}

func WithLedgerLogger(logger logging.Logger) LedgerOption {
	return func(l *RefreshLedger) { l.logger = logger }
}

func NewRefreshLedger(tx dbx.Transactor, repos repomanager.RepositoryManager, ttl time.Duration, opts ...LedgerOption) *RefreshLedger {
	l := &RefreshLedger{
		tx:         tx,
		repos:      repos,
		ttl:        ttl,
		tokenBytes: common.RefreshTokenBytes,
		now:        timex.SystemClock,
		generate:   cryptox.NewOpaqueToken,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Issue starts a new lineage for userID. The returned token is the only
// place its plaintext value appears.
func (l *RefreshLedger) Issue(ctx context.Context, userID string) (*models.RefreshToken, error) {
	return l.issue(ctx, l.tx.Conn(), userID, uuid.NewString(), l.now())
}

// Lookup returns the token for value whatever its state, or
// common.ErrorNotFound.
func (l *RefreshLedger) Lookup(ctx context.Context, value string) (*models.RefreshToken, error) {
	t, err := l.repos.RefreshTokens(l.tx.Conn()).Find(ctx, cryptox.HashToken(value))
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	return t, nil
}

// Revoke marks the token for value revoked. It is idempotent; an unknown
// value yields common.ErrorNotFound.
func (l *RefreshLedger) Revoke(ctx context.Context, value string, reason models.RevokeReason) error {
	if err := l.repos.RefreshTokens(l.tx.Conn()).Revoke(ctx, cryptox.HashToken(value), reason, l.now()); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// Rotate consumes a live token and issues its successor in the same
// lineage, in one transaction. The consuming write is a conditional update,
// so of several concurrent calls with one value only one can succeed.
//
// Failures, checked in this order: common.ErrInvalidToken for unknown
// values, common.ErrRefreshTokenExpired for expired tokens (revoked or not),
// common.ErrTokenReuseDetected for revoked ones.
func (l *RefreshLedger) Rotate(ctx context.Context, value string) (*Rotation, error) {
	now := l.now()
	hash := cryptox.HashToken(value)

	var (
		rot   Rotation
		owner string
	)
	err := l.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := l.repos.RefreshTokens(tx)

		prev, err := repo.Consume(ctx, hash, now)
		if errors.Is(err, common.ErrorNotFound) {
			current, err := repo.Find(ctx, hash)
			if err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					return common.ErrInvalidToken
				}
				return err
			}
			owner = current.UserID
			return rejection(current, now)
		}
		if err != nil {
			return err
		}

		next, err := l.issue(ctx, tx, prev.UserID, prev.FamilyID, now)
		if err != nil {
			return err
		}
		rot = Rotation{Previous: prev, Successor: next}
		return nil
	})

	if errors.Is(err, common.ErrTokenReuseDetected) {
		l.logger.Warn(ctx, "refresh token reuse detected",
			"user_id", owner, "token", cryptox.Fingerprint(hash))
		if l.revokeAllOnReuse {
			l.revokeAll(ctx, owner, now)
		}
	}
	if err != nil {
		return nil, err
	}
	return &rot, nil
}

// rejection explains why a stored token could not be consumed at now.
// Expiry takes precedence over revocation.
func rejection(t *models.RefreshToken, now time.Time) error {
	switch {
	case t.IsExpired(now):
		return common.ErrRefreshTokenExpired
	case t.Revoked:
		return common.ErrTokenReuseDetected
	default:
		return fmt.Errorf("%w: refresh token %s is live but was not consumed", common.ErrorInternal, t.ID)
	}
}

func (l *RefreshLedger) revokeAll(ctx context.Context, userID string, now time.Time) {
	n, err := l.repos.RefreshTokens(l.tx.Conn()).RevokeAllForUser(ctx, userID, models.RevokeReasonReuse, now)
	if err != nil {
		l.logger.Error(ctx, "revoking sessions after reuse failed", "user_id", userID, "error", err)
		return
	}
	l.logger.Warn(ctx, "revoked all sessions after reuse", "user_id", userID, "revoked", n)
}

func (l *RefreshLedger) issue(ctx context.Context, db dbx.DBTX, userID, familyID string, now time.Time) (*models.RefreshToken, error) {
	value, hash, err := l.generate(l.tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	t := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     value,
		TokenHash: hash,
		FamilyID:  familyID,
		ExpiresAt: now.Add(l.ttl),
		CreatedAt: now,
	}
	if err := l.repos.RefreshTokens(db).Create(ctx, t); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return t, nil
}
