package domain

import "time"

// IssuedToken is an access token handed to a client at login.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}
