// Package passwords hashes and verifies user passwords.
//
// New hashes are argon2id in PHC string form:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
//
// Legacy bcrypt hashes ($2a$, $2b$, $2y$) are still accepted by Verify.
package passwords

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/cashcare/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const algorithmID = "argon2id"

// Bounds applied to parameters read from stored hashes, so a tampered row
// cannot make Verify allocate or spin without limit.
const (
	maxMemoryKiB   = 1 << 20
	maxTime        = 16
	maxKeyLength   = 128
	minSaltLength  = 8
	minMemoryKiB   = 8
	minParallelism = 1
)

// Params are the argon2id cost settings for new hashes.
type Params struct {
	Memory     uint32 // KiB
	Time       uint32
	Threads    uint8
	SaltLength uint32
	KeyLength  uint32
}

// DefaultParams follow the x/crypto/argon2 recommendation for IDKey.
func DefaultParams() Params {
	return Params{Memory: 64 * 1024, Time: 1, Threads: 4, SaltLength: 16, KeyLength: 32}
}

var ErrInvalidParams = errors.New("invalid argon2 parameters")

type Argon2 struct {
	params Params
	rand   io.Reader

	dummyOnce sync.Once
	dummy     string
}

func NewArgon2(p Params) (*Argon2, error) {
	if p.Memory < minMemoryKiB || p.Memory > maxMemoryKiB ||
		p.Time == 0 || p.Time > maxTime ||
		p.Threads < minParallelism ||
		p.SaltLength < minSaltLength ||
		p.KeyLength < 16 || p.KeyLength > maxKeyLength {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidParams, p)
	}
	return &Argon2{params: p, rand: rand.Reader}, nil
}

// Hash returns a PHC encoded argon2id hash of password with a fresh salt.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", common.ErrorValidation)
	}

	salt := make([]byte, a.params.SaltLength)
	if _, err := io.ReadFull(a.rand, salt); err != nil {
		return "", err
	}

	return a.encode(password, salt), nil
}

func (a *Argon2) encode(password string, salt []byte) string {
	key := argon2.IDKey([]byte(password), salt, a.params.Time, a.params.Memory, a.params.Threads, a.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version,
		a.params.Memory, a.params.Time, a.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// Verify reports whether password matches encoded. It never fails: an
// unparseable or unsupported hash simply does not match.
func (a *Argon2) Verify(password, encoded string) bool {
	if isBcrypt(encoded) {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	}

	p, err := parsePHC(encoded)
	if err != nil {
		return false
	}

	key := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.hash)))
	return subtle.ConstantTimeCompare(key, p.hash) == 1
}

// Dummy returns a valid hash of a random password. Verifying against it
// costs the same as a real check, which keeps unknown-user logins from
// returning measurably faster.
func (a *Argon2) Dummy() string {
	a.dummyOnce.Do(func() {
		pw, err := common.MakeRandHexString(16)
		if err != nil {
			pw = "dummy-password"
		}
		var hashErr error
		if a.dummy, hashErr = a.Hash(pw); hashErr != nil {
			// No salt could be read. A fixed salt keeps the configured cost.
			a.dummy = a.encode(pw, make([]byte, a.params.SaltLength))
		}
	})
	return a.dummy
}

// NeedsRehash reports whether encoded was produced with other parameters
// than a uses, or with bcrypt.
func (a *Argon2) NeedsRehash(encoded string) bool {
	p, err := parsePHC(encoded)
	if err != nil {
		return true
	}
	return p.memory != a.params.Memory || p.time != a.params.Time ||
		p.threads != a.params.Threads || uint32(len(p.hash)) != a.params.KeyLength
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

type phc struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	hash    []byte
}

var errBadHash = errors.New("malformed password hash")

func parsePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return nil, errBadHash
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, errBadHash
	}

	p := &phc{}
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errBadHash
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, errBadHash
		}
		switch k {
		case "m":
			p.memory = uint32(n)
		case "t":
			p.time = uint32(n)
		case "p":
			if n > 255 {
				return nil, errBadHash
			}
			p.threads = uint8(n)
		default:
			return nil, errBadHash
		}
	}
	if p.memory < minMemoryKiB || p.memory > maxMemoryKiB ||
		p.time == 0 || p.time > maxTime || p.threads < minParallelism {
		return nil, errBadHash
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) < minSaltLength {
		return nil, errBadHash
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.hash) < 16 || len(p.hash) > maxKeyLength {
		return nil, errBadHash
	}
	return p, nil
}
