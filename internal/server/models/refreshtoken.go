package models

import "time"

// RevokeReason records why a refresh token stopped being usable.
type RevokeReason string

const (
	RevokeReasonRotated RevokeReason = "rotated"
	RevokeReasonLogout  RevokeReason = "logout"
	RevokeReasonReuse   RevokeReason = "reuse"
)

// RefreshToken is one entry of the refresh token ledger.
//
// Only TokenHash is stored. Token carries the opaque value the client
// receives and is set only on a freshly issued record.
type RefreshToken struct {
	ID           string
	UserID       string
	Token        string
	TokenHash    string
	FamilyID     string
	ExpiresAt    time.Time
	Revoked      bool
	RevokedAt    *time.Time
	RevokeReason RevokeReason
	CreatedAt    time.Time
}

// IsExpired reports whether the token is past its expiry at now.
// A token whose expiry equals now is already expired.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsUsable reports whether the token can still be rotated at now.
func (t *RefreshToken) IsUsable(now time.Time) bool {
	return !t.Revoked && !t.IsExpired(now)
}
