package domain

import "time"

// Session is a server-side record of an issued login. Revoking it
// invalidates the token even before the token itself expires.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}
