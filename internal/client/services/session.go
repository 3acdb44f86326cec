// Package services contains application services for the cashcare CLI.
// SessionService drives the auth calls and keeps the token pair in the
// local database so a session survives restarts.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/client/client"
	"github.com/dmitrijs2005/cashcare/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cashcare/internal/common"
	"github.com/dmitrijs2005/cashcare/internal/dbx"
	pb "github.com/dmitrijs2005/cashcare/internal/proto"
)

// Metadata keys.
const (
	keyEmail            = "email"
	keyAccessToken      = "access_token"
	keyAccessExpiresAt  = "access_expires_at"
	keyRefreshToken     = "refresh_token"
	keyRefreshExpiresAt = "refresh_expires_at"
)

type SessionService struct {
	client client.Client
	db     *sql.DB
}

func NewSessionService(c client.Client, db *sql.DB) *SessionService {
	return &SessionService{client: c, db: db}
}

// Restore loads a saved pair into the client and starts persisting every
// pair the client receives from now on. It returns the email of the saved
// session, or "" when there is none.
func (s *SessionService) Restore(ctx context.Context) (string, error) {
	saved, err := metadata.NewSQLiteRepository(s.db).List(ctx)
	if err != nil {
		return "", err
	}

	if refresh := string(saved[keyRefreshToken]); refresh != "" {
		s.client.SetTokens(&pb.TokenPair{
			AccessToken:      string(saved[keyAccessToken]),
			AccessExpiresAt:  parseTime(saved[keyAccessExpiresAt]),
			RefreshToken:     refresh,
			RefreshExpiresAt: parseTime(saved[keyRefreshExpiresAt]),
		})
	}

	s.client.OnTokens(func(pair *pb.TokenPair) {
		// Rotation can happen inside any call; the caller's context may
		// already be gone by the time we save.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.saveTokens(ctx, pair)
	})

	if string(saved[keyRefreshToken]) == "" {
		return "", nil
	}
	return string(saved[keyEmail]), nil
}

func (s *SessionService) Register(ctx context.Context, email string, password []byte, name, phone string) (string, error) {
	return s.client.Register(ctx, &pb.RegisterRequest{
		Email:    strings.TrimSpace(email),
		Password: string(password),
		Name:     name,
		Phone:    phone,
	})
}

// Login authenticates and records email alongside the new pair.
func (s *SessionService) Login(ctx context.Context, email string, password []byte) error {
	defer common.WipeByteArray(password)

	if _, err := s.client.Login(ctx, strings.TrimSpace(email), password); err != nil {
		return err
	}
	return metadata.NewSQLiteRepository(s.db).Set(ctx, keyEmail, []byte(strings.TrimSpace(email)))
}

func (s *SessionService) WhoAmI(ctx context.Context) (*pb.Profile, error) {
	return s.client.WhoAmI(ctx)
}

// Refresh rotates the refresh token and returns when the new one expires.
func (s *SessionService) Refresh(ctx context.Context) (time.Time, error) {
	pair, err := s.client.Refresh(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return pair.RefreshExpiresAt, nil
}

// Logout revokes the session on the server and wipes it locally. Local
// data is removed even when the server cannot be reached.
func (s *SessionService) Logout(ctx context.Context) error {
	remote := s.client.Logout(ctx)
	if err := metadata.NewSQLiteRepository(s.db).Clear(ctx); err != nil {
		return err
	}
	return remote
}

// Close releases the connection and the local database.
func (s *SessionService) Close() error {
	return errors.Join(s.client.Close(), s.db.Close())
}

// saveTokens writes the whole pair atomically. An empty pair clears it.
func (s *SessionService) saveTokens(ctx context.Context, pair *pb.TokenPair) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		values := map[string]string{
			keyAccessToken:      pair.AccessToken,
			keyAccessExpiresAt:  formatTime(pair.AccessExpiresAt),
			keyRefreshToken:     pair.RefreshToken,
			keyRefreshExpiresAt: formatTime(pair.RefreshExpiresAt),
		}
		for k, v := range values {
			if err := repo.Set(ctx, k, []byte(v)); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
		}
		return nil
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(b []byte) time.Time {
	t, _ := time.Parse(time.RFC3339, string(b))
	return t
}
