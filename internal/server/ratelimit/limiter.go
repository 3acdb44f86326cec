// Package ratelimit throttles failed logins per e-mail address with
// fixed-window counters in Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/common"
	"github.com/dmitrijs2005/cashcare/internal/cryptox"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps any Redis failure. Callers may choose to fail
// open on it.
var ErrRedisUnavailable = errors.New("redis unavailable")

const keyPrefix = "cashcare:login-failures:"

type Limiter struct {
	redis       redis.UniversalClient
	maxAttempts int
	window      time.Duration
}

// New returns a Limiter that blocks an address after maxAttempts failed
// logins until window has passed since the first of them.
func New(client redis.UniversalClient, maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{redis: client, maxAttempts: maxAttempts, window: window}
}

// Allow returns common.ErrorRateLimited when email is locked out.
func (l *Limiter) Allow(ctx context.Context, email string) error {
	count, err := l.redis.Get(ctx, key(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.maxAttempts) {
		return common.ErrorRateLimited
	}
	return nil
}

// Fail records a failed login. The window starts with the first failure;
// INCR and EXPIRE NX run in one MULTI so a counter never lacks a TTL.
func (l *Limiter) Fail(ctx context.Context, email string) error {
	k := key(email)
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *Limiter) Reset(ctx context.Context, email string) error {
	if err := l.redis.Del(ctx, key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// key hashes the address so no e-mail ends up in Redis in clear.
func key(email string) string {
	return keyPrefix + cryptox.HashToken(email)
}
