package dto

import (
	"time"

	"github.com/spec-kit/facility-tickets/internal/domain"
)

// SignupRequest payload for new students.
type SignupRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	ContactNumber string `json:"contact_number"`
	RollNumber    string `json:"roll_number"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account. The password hash never
// leaves the service.
type UserResponse struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Role          domain.Role `json:"role"`
	ContactNumber string      `json:"contact_number,omitempty"`
	RollNumber    string      `json:"roll_number,omitempty"`
	FieldOfWork   string      `json:"field_of_work,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// CreateWorkerRequest payload for admin worker creation.
type CreateWorkerRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	ContactNumber string `json:"contact_number"`
	FieldOfWork   string `json:"field_of_work"`
}
