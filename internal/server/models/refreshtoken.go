package models

import "time"

// RefreshToken is an opaque server-persisted token allowing a client to
// obtain a fresh access token after expiry.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}
