// Package models defines the server-side persistence types that are not part
// of the attestation core (which owns its own record type).
package models

import "time"

// User is a registered dashboard account. PasswordHash/PasswordSalt hold the
// argon2id digest and its per-user random salt; the clear password never
// touches storage.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash []byte
	PasswordSalt []byte
	CreatedAt    time.Time
}
