package domain

import "time"

// OTP is a completion verification code bound to one ticket and its reporter.
type OTP struct {
	ID            string
	TicketID      string
	StudentID     string
	Code          string
	ExpiresAt     time.Time
	Used          bool
	UsedAt        *time.Time
	InvalidatedAt *time.Time
	CreatedAt     time.Time
}

// Expired reports whether the code is past its validity window at now.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
