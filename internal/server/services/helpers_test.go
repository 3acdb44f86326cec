package services

import (
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/server/auth"
	"github.com/dmitrijs2005/cashcare/internal/server/passwords"
	"github.com/dmitrijs2005/cashcare/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	day        = 24 * time.Hour
	refreshTTL = 7 * day
	accessTTL  = 15 * time.Minute
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: t0} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type harness struct {
	clock  *fakeClock
	store  *memory.Store
	repos  *memory.Manager
	ledger *RefreshLedger
	svc    *AuthService
}

func newHarness(t *testing.T, ledgerOpts []LedgerOption, opts ...AuthOption) *harness {
	t.Helper()

	h := &harness{clock: newFakeClock(), store: memory.NewStore()}
	h.repos = memory.NewManager(h.store)

	hasher, err := passwords.NewArgon2(passwords.Params{Memory: 64, Time: 1, Threads: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)

	issuer, err := auth.NewIssuer("test-secret", accessTTL, auth.WithClock(h.clock.Now))
	require.NoError(t, err)

	ledgerOpts = append([]LedgerOption{WithLedgerClock(h.clock.Now)}, ledgerOpts...)
	h.ledger = NewRefreshLedger(h.store, h.repos, refreshTTL, ledgerOpts...)
	h.svc = NewAuthService(h.store, h.repos, hasher, issuer, h.ledger, opts...)
	return h
}
