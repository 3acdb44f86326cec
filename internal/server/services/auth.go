// Package services contains server-side business logic. AuthService ties
// together password verification, access token issuance and the refresh
// token ledger.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/common"
	"github.com/dmitrijs2005/cashcare/internal/cryptox"
	"github.com/dmitrijs2005/cashcare/internal/dbx"
	"github.com/dmitrijs2005/cashcare/internal/logging"
	"github.com/dmitrijs2005/cashcare/internal/server/models"
	"github.com/dmitrijs2005/cashcare/internal/server/ratelimit"
	"github.com/dmitrijs2005/cashcare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cashcare/internal/server/telemetry"
	"github.com/google/uuid"
)

// MinPasswordLength is enforced on registration only.
const MinPasswordLength = 8

// PasswordHasher produces and checks self-describing password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
	// Dummy returns a valid hash of an unknown password, verified against
	// for unknown principals so both paths cost the same.
	Dummy() string
	// NeedsRehash reports hashes made with outdated parameters or algorithms.
	NeedsRehash(encoded string) bool
}

// AccessTokenIssuer mints and verifies short-lived bearer tokens.
type AccessTokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// LoginLimiter throttles failed logins per email.
type LoginLimiter interface {
	Allow(ctx context.Context, email string) error
	Fail(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

type AuthService struct {
	tx      dbx.Transactor
	repos   repomanager.RepositoryManager
	hasher  PasswordHasher
	issuer  AccessTokenIssuer
	ledger  *RefreshLedger
	limiter LoginLimiter
	metrics *telemetry.Metrics
	logger  logging.Logger
}

type AuthOption func(*AuthService)

// WithLimiter enables login throttling. Without it every attempt is allowed.
func WithLimiter(l LoginLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = l }
}

func WithMetrics(m *telemetry.Metrics) AuthOption {
	return func(s *AuthService) { s.metrics = m }
}

func WithLogger(l logging.Logger) AuthOption {
	return func(s *AuthService) { s.logger = l }
}

func NewAuthService(tx dbx.Transactor, repos repomanager.RepositoryManager, hasher PasswordHasher,
	issuer AccessTokenIssuer, ledger *RefreshLedger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		tx:     tx,
		repos:  repos,
		hasher: hasher,
		issuer: issuer,
		ledger: ledger,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a principal. A taken email yields common.ErrorAlreadyExists.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repos.Users(s.tx.Conn()).Create(ctx, &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a token pair. Unknown emails and
// wrong passwords both yield common.ErrInvalidCredentials, and no token is
// stored for a failed attempt.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.allow(ctx, email); err != nil {
		s.metrics.Login(ctx, telemetry.OutcomeRateLimited)
		return nil, err
	}

	user, err := s.repos.Users(s.tx.Conn()).GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.hasher.Verify(password, s.hasher.Dummy())
		return nil, s.loginFailed(ctx, email, "unknown email")
	case err != nil:
		s.metrics.Login(ctx, telemetry.OutcomeError)
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, email, "password mismatch")
	}
	s.rehash(ctx, user, password)

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn(ctx, "resetting login attempts failed", "error", err)
		}
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		s.metrics.Login(ctx, telemetry.OutcomeError)
		return nil, err
	}
	s.metrics.Login(ctx, telemetry.OutcomeSuccess)
	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates refreshToken and returns a new pair. The previous refresh
// token is unusable once this returns successfully.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	rot, err := s.ledger.Rotate(ctx, refreshToken)
	if err != nil {
		s.metrics.Refresh(ctx, refreshOutcome(err))
		s.logger.Warn(ctx, "refresh rejected",
			"token", cryptox.Fingerprint(cryptox.HashToken(refreshToken)), "error", err)
		return nil, err
	}

	access, exp, err := s.issuer.Issue(rot.Successor.UserID)
	if err != nil {
		s.metrics.Refresh(ctx, telemetry.OutcomeError)
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.metrics.Refresh(ctx, telemetry.OutcomeSuccess)
	s.logger.Debug(ctx, "refresh token rotated",
		"user_id", rot.Successor.UserID, "family_id", rot.Successor.FamilyID)
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  exp,
		RefreshToken:     rot.Successor.Token,
		RefreshExpiresAt: rot.Successor.ExpiresAt,
	}, nil
}

// Logout revokes refreshToken. Repeating it is harmless; an unknown token
// yields common.ErrInvalidToken.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.ledger.Revoke(ctx, refreshToken, models.RevokeReasonLogout)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.metrics.Logout(ctx, telemetry.OutcomeInvalidToken)
		return common.ErrInvalidToken
	case err != nil:
		s.metrics.Logout(ctx, telemetry.OutcomeError)
		return err
	}
	s.metrics.Logout(ctx, telemetry.OutcomeSuccess)
	return nil
}

// Authenticate returns the principal an access token was issued to.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (string, error) {
	userID, err := s.issuer.Verify(accessToken)
	if err != nil {
		s.logger.Debug(ctx, "access token rejected", "error", err)
		return "", err
	}
	return userID, nil
}

// Profile returns the stored principal for userID.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.repos.Users(s.tx.Conn()).GetUserByID(ctx, userID)
}

func (s *AuthService) issuePair(ctx context.Context, userID string) (*TokenPair, error) {
	access, exp, err := s.issuer.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.ledger.Issue(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  exp,
		RefreshToken:     refresh.Token,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// rehash upgrades a legacy or outdated hash after a successful login. A
// failure here never fails the login.
func (s *AuthService) rehash(ctx context.Context, user *models.User, password string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.repos.Users(s.tx.Conn()).UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.Warn(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	s.logger.Info(ctx, "password hash upgraded", "user_id", user.ID)
}

// allow consults the limiter. An unreachable limiter lets the attempt through.
func (s *AuthService) allow(ctx context.Context, email string) error {
	if s.limiter == nil {
		return nil
	}
	err := s.limiter.Allow(ctx, email)
	if errors.Is(err, ratelimit.ErrRedisUnavailable) {
		s.logger.Warn(ctx, "login limiter unavailable", "error", err)
		return nil
	}
	return err
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) error {
	if s.limiter != nil {
		if err := s.limiter.Fail(ctx, email); err != nil {
			s.logger.Warn(ctx, "recording failed login", "error", err)
		}
	}
	s.metrics.Login(ctx, telemetry.OutcomeInvalidCredentials)
	s.logger.Info(ctx, "login failed", "reason", reason)
	return common.ErrInvalidCredentials
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	return email, nil
}

func refreshOutcome(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		return telemetry.OutcomeInvalidToken
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return telemetry.OutcomeExpired
	case errors.Is(err, common.ErrTokenReuseDetected):
		return telemetry.OutcomeReuse
	default:
		return telemetry.OutcomeError
	}
}
