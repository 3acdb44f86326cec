package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cashcare/internal/flagx"
	"github.com/dmitrijs2005/cashcare/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both "15m" style strings and integer nanoseconds. Pointer fields
// distinguish "absent" from zero values, so a file only overrides what it
// names.
type JsonConfig struct {
	EndpointAddrGRPC             string          `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string          `json:"database_dsn"`
	SecretKey                    string          `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	RefreshTokenBytes            *int            `json:"refresh_token_bytes"`
	RevokeAllOnReuse             *bool           `json:"revoke_all_on_reuse"`
	RedisAddr                    string          `json:"redis_addr"`
	MaxLoginAttempts             *int            `json:"max_login_attempts"`
	LoginLockoutDuration         *timex.Duration `json:"login_lockout_duration"`
	Argon2Memory                 *uint32         `json:"argon2_memory_kib"`
	Argon2Time                   *uint32         `json:"argon2_time"`
	Argon2Threads                *uint8          `json:"argon2_threads"`
	LogLevel                     string          `json:"log_level"`
	LogFormat                    string          `json:"log_format"`
}

// parseJson overlays values from the file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.JsonConfigFlags(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.LoginLockoutDuration != nil {
		config.LoginLockoutDuration = c.LoginLockoutDuration.Duration
	}
	if c.RefreshTokenBytes != nil {
		config.RefreshTokenBytes = *c.RefreshTokenBytes
	}
	if c.RevokeAllOnReuse != nil {
		config.RevokeAllOnReuse = *c.RevokeAllOnReuse
	}
	if c.MaxLoginAttempts != nil {
		config.MaxLoginAttempts = *c.MaxLoginAttempts
	}
	if c.Argon2Memory != nil {
		config.Argon2Memory = *c.Argon2Memory
	}
	if c.Argon2Time != nil {
		config.Argon2Time = *c.Argon2Time
	}
	if c.Argon2Threads != nil {
		config.Argon2Threads = *c.Argon2Threads
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
