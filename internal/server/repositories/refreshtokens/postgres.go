package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/common"
	"github.com/dmitrijs2005/cashcare/internal/dbx"
	"github.com/dmitrijs2005/cashcare/internal/server/models"
)

const columns = `id, user_id, token_hash, family_id, expires_at, revoked, revoked_at, revoke_reason, created_at`

// PostgresRepository works over dbx.DBTX, so the same code runs on
// *sql.DB and inside a transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, family_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.UserID, t.TokenHash, t.FamilyID, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrStorageConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT ` + columns + `
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	return scanToken(r.db.QueryRowContext(ctx, query, tokenHash))
}

// Consume relies on the row lock taken by UPDATE: a concurrent transaction
// blocks on the same row and re-evaluates "revoked = FALSE" after the first
// one commits, so it matches nothing.
func (r *PostgresRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2, revoke_reason = $3
		WHERE token_hash = $1 AND revoked = FALSE AND expires_at > $2
		RETURNING ` + columns
	return scanToken(r.db.QueryRowContext(ctx, query, tokenHash, now, string(models.RevokeReasonRotated)))
}

func (r *PostgresRepository) Revoke(ctx context.Context, tokenHash string, reason models.RevokeReason, now time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE,
		    revoked_at = COALESCE(revoked_at, $2),
		    revoke_reason = COALESCE(revoke_reason, $3)
		WHERE token_hash = $1
	`
	res, err := r.db.ExecContext(ctx, query, tokenHash, now, string(reason))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string, reason models.RevokeReason, now time.Time) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2, revoke_reason = $3
		WHERE user_id = $1 AND revoked = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, userID, now, string(reason))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scanToken(row *sql.Row) (*models.RefreshToken, error) {
	var (
		t         models.RefreshToken
		revokedAt sql.NullTime
		reason    sql.NullString
	)
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.FamilyID, &t.ExpiresAt,
		&t.Revoked, &revokedAt, &reason, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if revokedAt.Valid {
		ts := revokedAt.Time
		t.RevokedAt = &ts
	}
	t.RevokeReason = models.RevokeReason(reason.String)
	return &t, nil
}
