package config

import (
	"fmt"
	"strconv"
	"time"
)

// Environment variables recognised by parseEnv.
const (
	EnvGRPCAddr         = "CASHCARE_GRPC_ADDR"
	EnvDatabaseDSN      = "CASHCARE_DATABASE_DSN"
	EnvSecretKey        = "CASHCARE_SECRET_KEY"
	EnvAccessTokenTTL   = "CASHCARE_ACCESS_TOKEN_TTL"
	EnvRefreshTokenTTL  = "CASHCARE_REFRESH_TOKEN_TTL"
	EnvRevokeAllOnReuse = "CASHCARE_REVOKE_ALL_ON_REUSE"
	EnvRedisAddr        = "CASHCARE_REDIS_ADDR"
	EnvLogLevel         = "CASHCARE_LOG_LEVEL"
)

type lookupFunc func(key string) (string, bool)

// parseEnv overlays values from the environment. Durations use Go syntax
// ("15m", "168h").
func parseEnv(config *Config, lookup lookupFunc) error {
	if v, ok := lookup(EnvGRPCAddr); ok {
		config.EndpointAddrGRPC = v
	}
	if v, ok := lookup(EnvDatabaseDSN); ok {
		config.DatabaseDSN = v
	}
	if v, ok := lookup(EnvSecretKey); ok {
		config.SecretKey = v
	}
	if v, ok := lookup(EnvRedisAddr); ok {
		config.RedisAddr = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		config.LogLevel = v
	}

	if v, ok := lookup(EnvAccessTokenTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAccessTokenTTL, err)
		}
		config.AccessTokenValidityDuration = d
	}
	if v, ok := lookup(EnvRefreshTokenTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRefreshTokenTTL, err)
		}
		config.RefreshTokenValidityDuration = d
	}
	if v, ok := lookup(EnvRevokeAllOnReuse); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRevokeAllOnReuse, err)
		}
		config.RevokeAllOnReuse = b
	}
	return nil
}
