package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spec-kit/facility-tickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketCompleted       EventType = "ticket_completed"
	EventVerificationRequested EventType = "verification_requested"
	EventTicketVerified        EventType = "ticket_verified"
	EventUserRegistered        EventType = "user_registered"
)

// AllEventTypes lists every type a bus subscriber may receive.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketAssigned,
	EventTicketCompleted,
	EventVerificationRequested,
	EventTicketVerified,
	EventUserRegistered,
}

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services after a state change
// has been committed.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Subject  string                `json:"subject"`
	Category string                `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketAssignedPayload carries what the worker needs to find the job.
type TicketAssignedPayload struct {
	WorkerID    string                `json:"worker_id"`
	WorkerName  string                `json:"worker_name"`
	WorkerEmail string                `json:"worker_email"`
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Location    string                `json:"location"`
	Priority    domain.TicketPriority `json:"priority"`
}

// TicketCompletedPayload payload.
type TicketCompletedPayload struct {
	WorkerID   string `json:"worker_id"`
	ReporterID string `json:"reporter_id"`
}

// VerificationRequestedPayload carries the freshly issued code to the
// student's mailbox. It is never echoed over HTTP.
type VerificationRequestedPayload struct {
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	Subject      string    `json:"subject"`
	Code         string    `json:"code"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TicketVerifiedPayload payload.
type TicketVerifiedPayload struct {
	WorkerID string `json:"worker_id"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// PayloadAs returns the event payload as T. Payloads that crossed a wire
// arrive as raw JSON and are decoded on demand.
func PayloadAs[T any](event Event) (T, error) {
	var out T
	switch p := event.Payload.(type) {
	case T:
		return p, nil
	case *T:
		if p == nil {
			return out, fmt.Errorf("event %s: nil payload", event.Type)
		}
		return *p, nil
	case json.RawMessage:
		err := json.Unmarshal(p, &out)
		return out, err
	case []byte:
		err := json.Unmarshal(p, &out)
		return out, err
	}
	return out, fmt.Errorf("event %s: unexpected payload type %T", event.Type, event.Payload)
}
