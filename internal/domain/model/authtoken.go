package model

import "time"

// AuthToken is a bearer token issued by the courier's authenticate endpoint
// together with its declared expiry.
type AuthToken struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the token can still be sent at the given instant.
// A token is never used past its expiry.
func (t AuthToken) Valid(now time.Time) bool {
	return t.Token != "" && t.ExpiresAt.After(now)
}
