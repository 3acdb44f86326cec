package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshToken_IsExpired(t *testing.T) {
	exp := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	tok := &RefreshToken{ExpiresAt: exp}

	assert.False(t, tok.IsExpired(exp.Add(-time.Nanosecond)))
	assert.True(t, tok.IsExpired(exp), "expiry instant itself is expired")
	assert.True(t, tok.IsExpired(exp.Add(time.Second)))
}

func TestRefreshToken_IsUsable(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		tok  RefreshToken
		want bool
	}{
		{name: "live", tok: RefreshToken{ExpiresAt: now.Add(time.Hour)}, want: true},
		{name: "revoked", tok: RefreshToken{ExpiresAt: now.Add(time.Hour), Revoked: true}},
		{name: "expired", tok: RefreshToken{ExpiresAt: now.Add(-time.Hour)}},
		{name: "expired and revoked", tok: RefreshToken{ExpiresAt: now.Add(-time.Hour), Revoked: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tok.IsUsable(now))
		})
	}
}
