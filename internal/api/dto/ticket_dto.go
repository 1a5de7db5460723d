package dto

import (
	"time"

	"github.com/spec-kit/facility-tickets/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject       string                `json:"subject"`
	Description   string                `json:"description"`
	Location      string                `json:"location"`
	Category      string                `json:"category"`
	ContactNumber string                `json:"contact_number"`
	Priority      domain.TicketPriority `json:"priority"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	WorkerID string `json:"worker_id"`
}

// VerifyTicketRequest carries the code the student received by email.
type VerifyTicketRequest struct {
	Code string `json:"code"`
}

// TicketResponse is the ticket representation shared by every role.
type TicketResponse struct {
	ID            string                `json:"id"`
	Subject       string                `json:"subject"`
	Description   string                `json:"description"`
	Location      string                `json:"location"`
	Category      string                `json:"category"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	ContactNumber string                `json:"contact_number,omitempty"`
	Reporter      TicketReporter        `json:"reporter"`
	WorkerID      *string               `json:"worker_id"`
	AdminID       *string               `json:"admin_id"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	CompletedAt   *time.Time            `json:"completed_at"`
}

// TicketReporter is the reporter snapshot taken at creation.
type TicketReporter struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// VerificationResponse acknowledges a code was sent. The code itself only
// travels by email.
type VerificationResponse struct {
	TicketID  string    `json:"ticket_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CategoryResponse is one catalogue entry.
type CategoryResponse struct {
	Name  string               `json:"name"`
	Group domain.CategoryGroup `json:"group"`
}

// Pagination echoes the window applied to a listing.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
