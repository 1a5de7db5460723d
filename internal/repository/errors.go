package repository

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrStatusConflict is returned when a compare-and-set finds a status
	// other than the expected one.
	ErrStatusConflict = errors.New("ticket status changed concurrently")
	// ErrOTPUnavailable is returned when an OTP was already used or
	// superseded at redemption time.
	ErrOTPUnavailable = errors.New("otp already used or superseded")
	// ErrDuplicateEmail is returned when a user email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrSessionNotFound is returned for unknown, expired or revoked sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// validID reports whether id can name a row. Primary keys are UUIDs, and
// anything else is simply not found rather than a database error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
