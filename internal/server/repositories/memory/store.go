// Package memory is an in-process implementation of the server
// repositories. It backs tests and "-d memory" development runs and keeps
// the same atomicity guarantees as the PostgreSQL implementation: every
// repository call is serialized, and WithTx runs the whole unit of work
// under one lock and restores the previous state if it fails.
package memory

import (
	"context"
	"database/sql"
	"maps"
	"sync"

	"github.com/dmitrijs2005/cashcare/internal/dbx"
	"github.com/dmitrijs2005/cashcare/internal/server/models"
	"github.com/dmitrijs2005/cashcare/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/cashcare/internal/server/repositories/users"
)

type txKey struct{}

// Store holds all data. The zero value is not usable; call NewStore.
type Store struct {
	mu     sync.Mutex
	users  map[string]models.User
	emails map[string]string
	tokens map[string]models.RefreshToken
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]models.User),
		emails: make(map[string]string),
		tokens: make(map[string]models.RefreshToken),
	}
}

// Conn returns nil: the store does not speak SQL and its repositories
// ignore the handle they are given.
func (s *Store) Conn() dbx.DBTX {
	return nil
}

// WithTx runs fn while holding the store lock. Repository calls made with
// the context passed to fn do not lock again. If fn fails or panics every
// change it made is discarded.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	usersSnap := maps.Clone(s.users)
	emailsSnap := maps.Clone(s.emails)
	tokensSnap := maps.Clone(s.tokens)

	defer func() {
		if p := recover(); p != nil {
			s.users, s.emails, s.tokens = usersSnap, emailsSnap, tokensSnap
			panic(p)
		}
		if err != nil {
			s.users, s.emails, s.tokens = usersSnap, emailsSnap, tokensSnap
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s), nil)
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store lock unless ctx belongs to a transaction on this
// store, which already holds it.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Manager vends store-backed repositories. It satisfies
// repomanager.RepositoryManager.
type Manager struct {
	store *Store
}

func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *Manager) Users(dbx.DBTX) users.Repository {
	return &UsersRepository{s: m.store}
}

func (m *Manager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return &RefreshTokensRepository{s: m.store}
}
