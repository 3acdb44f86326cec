package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/common"
	"github.com/dmitrijs2005/cashcare/internal/cryptox"
	"github.com/dmitrijs2005/cashcare/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Issue(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	tok, err := h.ledger.Issue(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, "u1", tok.UserID)
	assert.False(t, tok.Revoked)
	assert.Equal(t, t0.Add(refreshTTL), tok.ExpiresAt)
	assert.Len(t, tok.Token, 2*common.RefreshTokenBytes)
	assert.Equal(t, cryptox.HashToken(tok.Token), tok.TokenHash)

	other, err := h.ledger.Issue(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, tok.Token, other.Token)
	assert.NotEqual(t, tok.FamilyID, other.FamilyID)

	found, err := h.ledger.Lookup(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, tok.ID, found.ID)
	assert.Empty(t, found.Token, "plaintext is never stored")
}

func TestLedger_IssueCollision(t *testing.T) {
	fixed := func(int) (string, string, error) { return "same", cryptox.HashToken("same"), nil }
	h := newHarness(t, []LedgerOption{WithTokenGenerator(fixed)})
	ctx := context.Background()

	_, err := h.ledger.Issue(ctx, "u1")
	require.NoError(t, err)

	_, err = h.ledger.Issue(ctx, "u2")
	assert.ErrorIs(t, err, common.ErrStorageConflict)

	found, err := h.ledger.Lookup(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.UserID, "existing record is untouched")
}

func TestLedger_IssueGeneratorError(t *testing.T) {
	boom := errors.New("entropy exhausted")
	gen := func(int) (string, string, error) { return "", "", boom }
	h := newHarness(t, []LedgerOption{WithTokenGenerator(gen)})

	_, err := h.ledger.Issue(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)
}

func TestLedger_LookupUnknown(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.ledger.Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLedger_Revoke(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	tok, err := h.ledger.Issue(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, h.ledger.Revoke(ctx, tok.Token, models.RevokeReasonLogout))
	h.clock.Set(t0.Add(day))
	require.NoError(t, h.ledger.Revoke(ctx, tok.Token, models.RevokeReasonLogout), "revoke is idempotent")

	got, err := h.ledger.Lookup(ctx, tok.Token)
	require.NoError(t, err)
	assert.True(t, got.Revoked)
	require.NotNil(t, got.RevokedAt)
	assert.Equal(t, t0, *got.RevokedAt)
	assert.Equal(t, models.RevokeReasonLogout, got.RevokeReason)

	assert.ErrorIs(t, h.ledger.Revoke(ctx, "unknown", models.RevokeReasonLogout), common.ErrorNotFound)
}

func TestLedger_Rotate(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	tok, err := h.ledger.Issue(ctx, "u1")
	require.NoError(t, err)

	h.clock.Set(t0.Add(day))
	rot, err := h.ledger.Rotate(ctx, tok.Token)
	require.NoError(t, err)

	assert.Equal(t, tok.ID, rot.Previous.ID)
	assert.True(t, rot.Previous.Revoked)
	assert.Equal(t, models.RevokeReasonRotated, rot.Previous.RevokeReason)

	next := rot.Successor
	assert.Equal(t, "u1", next.UserID)
	assert.Equal(t, tok.FamilyID, next.FamilyID)
	assert.False(t, next.Revoked)
	assert.Equal(t, t0.Add(day+refreshTTL), next.ExpiresAt)
	assert.NotEqual(t, tok.Token, next.Token)
}

func TestLedger_RotateFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(t *testing.T, h *harness) string
		want    error
	}{
		{
			name:    "unknown",
			prepare: func(*testing.T, *harness) string { return "deadbeef" },
			want:    common.ErrInvalidToken,
		},
		{
			name: "expired",
			prepare: func(t *testing.T, h *harness) string {
				tok, err := h.ledger.Issue(ctx, "u1")
				require.NoError(t, err)
				h.clock.Set(t0.Add(refreshTTL))
				return tok.Token
			},
			want: common.ErrRefreshTokenExpired,
		},
		{
			name: "revoked",
			prepare: func(t *testing.T, h *harness) string {
				tok, err := h.ledger.Issue(ctx, "u1")
				require.NoError(t, err)
				require.NoError(t, h.ledger.Revoke(ctx, tok.Token, models.RevokeReasonLogout))
				return tok.Token
			},
			want: common.ErrTokenReuseDetected,
		},
		{
			name: "expired and revoked",
			prepare: func(t *testing.T, h *harness) string {
				tok, err := h.ledger.Issue(ctx, "u1")
				require.NoError(t, err)
				require.NoError(t, h.ledger.Revoke(ctx, tok.Token, models.RevokeReasonLogout))
				h.clock.Set(t0.Add(refreshTTL + day))
				return tok.Token
			},
			want: common.ErrRefreshTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			value := tt.prepare(t, h)

			rot, err := h.ledger.Rotate(ctx, value)
			assert.Nil(t, rot)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLedger_RotateTimeline(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	first, err := h.ledger.Issue(ctx, "u1")
	require.NoError(t, err)

	h.clock.Set(t0.Add(day + time.Minute))
	rot, err := h.ledger.Rotate(ctx, first.Token)
	require.NoError(t, err)
	second := rot.Successor

	h.clock.Set(t0.Add(2 * day))
	_, err = h.ledger.Rotate(ctx, first.Token)
	require.ErrorIs(t, err, common.ErrTokenReuseDetected)

	h.clock.Set(t0.Add(8 * day))
	rot, err = h.ledger.Rotate(ctx, second.Token)
	require.NoError(t, err, "successor keeps its own lifetime")
	assert.Equal(t, first.FamilyID, rot.Successor.FamilyID)
}

func TestLedger_RotateChain(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	tok, err := h.ledger.Issue(ctx, "u1")
	require.NoError(t, err)

	seen := []string{tok.Token}
	for i := 0; i < 5; i++ {
		rot, err := h.ledger.Rotate(ctx, seen[len(seen)-1])
		require.NoError(t, err)
		seen = append(seen, rot.Successor.Token)
	}

	for i, value := range seen {
		got, err := h.ledger.Lookup(ctx, value)
		require.NoError(t, err)
		last := i == len(seen)-1
		assert.Equal(t, !last, got.Revoked, "token %d", i)
		assert.Equal(t, tok.FamilyID, got.FamilyID)
	}
}

func TestLedger_ConcurrentRotate(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	tok, err := h.ledger.Issue(ctx, "u1")
	require.NoError(t, err)

	const n = 32
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = h.ledger.Rotate(ctx, tok.Token)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, reuse int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, common.ErrTokenReuseDetected):
			reuse++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, reuse)
}

func TestLedger_RevokeAllOnReuse(t *testing.T) {
	ctx := context.Background()

	for _, enabled := range []bool{false, true} {
		h := newHarness(t, []LedgerOption{WithRevokeAllOnReuse(enabled)})

		tok, err := h.ledger.Issue(ctx, "u1")
		require.NoError(t, err)
		other, err := h.ledger.Issue(ctx, "u1")
		require.NoError(t, err)

		rot, err := h.ledger.Rotate(ctx, tok.Token)
		require.NoError(t, err)
		_, err = h.ledger.Rotate(ctx, tok.Token)
		require.ErrorIs(t, err, common.ErrTokenReuseDetected)

		for _, value := range []string{rot.Successor.Token, other.Token} {
			got, err := h.ledger.Lookup(ctx, value)
			require.NoError(t, err)
			assert.Equal(t, enabled, got.Revoked, "enabled=%v", enabled)
			if enabled {
				assert.Equal(t, models.RevokeReasonReuse, got.RevokeReason)
			}
		}
	}
}

func TestLedger_RotateSuccessorCollisionRollsBack(t *testing.T) {
	calls := 0
	gen := func(n int) (string, string, error) {
		calls++
		if calls == 1 {
			return cryptox.NewOpaqueToken(n)
		}
		return "taken", cryptox.HashToken("taken"), nil
	}
	h := newHarness(t, []LedgerOption{WithTokenGenerator(gen)})
	ctx := context.Background()

	tok, err := h.ledger.Issue(ctx, "u1")
	require.NoError(t, err)
	_, err = h.ledger.Issue(ctx, "u2")
	require.NoError(t, err)

	_, err = h.ledger.Rotate(ctx, tok.Token)
	require.ErrorIs(t, err, common.ErrStorageConflict)

	got, err := h.ledger.Lookup(ctx, tok.Token)
	require.NoError(t, err)
	assert.False(t, got.Revoked, "consume is rolled back with the failed insert")
}
