// Package client talks to the cashcare auth service.
//
// GRPCClient keeps the current token pair, sends the access token as
// "authorization: Bearer <token>" and, when a call fails because the access
// token expired, rotates the refresh token once and retries the call.
// Rotations are serialized: a refresh token is only ever presented once, as
// presenting a rotated token again is treated by the server as theft.
//
// Transport failures are mapped to the sentinel errors in errors.go.
//
// InitDatabase opens the CLI's local SQLite database and applies its
// embedded goose migrations.
package client
