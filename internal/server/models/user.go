// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a principal that can log in. PasswordHash holds an encoded
// argon2id (or legacy bcrypt) hash and never leaves the server.
type User struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}
