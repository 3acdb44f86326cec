// Package cryptox holds the digest helpers used for opaque refresh tokens.
// The ledger stores only the SHA-256 of a token, so a leaked table does not
// hand out usable credentials.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dmitrijs2005/cashcare/internal/common"
)

// HashToken returns the hex SHA-256 digest of an opaque token value.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// NewOpaqueToken returns a random hex token of n bytes of entropy together
// with its digest.
func NewOpaqueToken(n int) (value, hash string, err error) {
	value, err = common.MakeRandHexString(n)
	if err != nil {
		return "", "", err
	}
	return value, HashToken(value), nil
}

// Fingerprint shortens a digest for log lines.
func Fingerprint(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
