package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/client/client"
	"github.com/dmitrijs2005/cashcare/internal/client/repositories/metadata"
	pb "github.com/dmitrijs2005/cashcare/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	tokens   *pb.TokenPair
	onTokens func(*pb.TokenPair)

	loginErr  error
	logoutErr error
	closed    bool
}

func (f *fakeClient) set(p *pb.TokenPair) {
	f.tokens = p
	if f.onTokens != nil {
		f.onTokens(p)
	}
}

func (f *fakeClient) Register(_ context.Context, req *pb.RegisterRequest) (string, error) {
	return "id-" + req.Email, nil
}

func (f *fakeClient) Login(_ context.Context, email string, password []byte) (*pb.TokenPair, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	p := &pb.TokenPair{
		AccessToken: "a1", AccessExpiresAt: time.Date(2025, 1, 1, 0, 15, 0, 0, time.UTC),
		RefreshToken: "r1", RefreshExpiresAt: time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
	}
	f.set(p)
	return p, nil
}

func (f *fakeClient) Refresh(context.Context) (*pb.TokenPair, error) {
	if f.tokens == nil || f.tokens.RefreshToken == "" {
		return nil, client.ErrNotLoggedIn
	}
	p := &pb.TokenPair{AccessToken: "a2", RefreshToken: "r2", RefreshExpiresAt: time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)}
	f.set(p)
	return p, nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.set(&pb.TokenPair{})
	return f.logoutErr
}

func (f *fakeClient) WhoAmI(context.Context) (*pb.Profile, error) {
	return &pb.Profile{UserID: "u1"}, nil
}

func (f *fakeClient) SetTokens(p *pb.TokenPair)            { f.set(p) }
func (f *fakeClient) OnTokens(fn func(pair *pb.TokenPair)) { f.onTokens = fn }

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func openDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSession_LoginPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	fc := &fakeClient{}
	s := NewSessionService(fc, openDB(t, path))

	email, err := s.Restore(ctx)
	require.NoError(t, err)
	assert.Empty(t, email)

	require.NoError(t, s.Login(ctx, " a@example.com ", []byte("pw")))

	_, err = s.Refresh(ctx)
	require.NoError(t, err)

	fresh := &fakeClient{}
	restored := NewSessionService(fresh, openDB(t, path))
	email, err = restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email)
	require.NotNil(t, fresh.tokens)
	assert.Equal(t, "r2", fresh.tokens.RefreshToken)
	assert.Equal(t, time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), fresh.tokens.RefreshExpiresAt)
}

func TestSession_LoginFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	db := openDB(t, filepath.Join(t.TempDir(), "session.db"))

	s := NewSessionService(&fakeClient{loginErr: client.ErrUnauthorized}, db)
	_, err := s.Restore(ctx)
	require.NoError(t, err)

	password := []byte("pw")
	assert.ErrorIs(t, s.Login(ctx, "a@example.com", password), client.ErrUnauthorized)
	assert.Equal(t, []byte{0, 0}, password, "password is wiped")

	all, err := metadata.NewSQLiteRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSession_LogoutClearsEvenIfServerFails(t *testing.T) {
	ctx := context.Background()
	db := openDB(t, filepath.Join(t.TempDir(), "session.db"))

	fc := &fakeClient{logoutErr: client.ErrUnavailable}
	s := NewSessionService(fc, db)
	_, err := s.Restore(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Login(ctx, "a@example.com", []byte("pw")))

	err = s.Logout(ctx)
	assert.True(t, errors.Is(err, client.ErrUnavailable))

	all, err := metadata.NewSQLiteRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	email, err := NewSessionService(&fakeClient{}, db).Restore(ctx)
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestSession_RegisterWhoAmIClose(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{}
	s := NewSessionService(fc, openDB(t, filepath.Join(t.TempDir(), "session.db")))

	id, err := s.Register(ctx, " b@example.com ", []byte("pw"), "B", "")
	require.NoError(t, err)
	assert.Equal(t, "id-b@example.com", id)

	p, err := s.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)

	require.NoError(t, s.Close())
	assert.True(t, fc.closed)
}
