// Package common contains shared constants and sentinel errors used across
// cashcare components.
package common

// AuthorizationHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the access token in the authorization header.
const BearerPrefix = "Bearer "

// RefreshTokenBytes is the default amount of entropy in an opaque refresh
// token value, before hex encoding.
const RefreshTokenBytes = 32
