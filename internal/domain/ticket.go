package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states. The ordinal order is the only
// order in which a ticket may move.
type TicketStatus int

const (
	TicketStatusUnknown TicketStatus = iota
	TicketStatusPending
	TicketStatusAssigned
	TicketStatusCompleted
	TicketStatusDone
)

var statusNames = map[TicketStatus]string{
	TicketStatusPending:   "Pending",
	TicketStatusAssigned:  "Assigned",
	TicketStatusCompleted: "Completed",
	TicketStatusDone:      "Done",
}

// ParseTicketStatus converts an external representation to a status.
func ParseTicketStatus(s string) (TicketStatus, error) {
	for status, name := range statusNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return status, nil
		}
	}
	return TicketStatusUnknown, fmt.Errorf("unknown ticket status %q", s)
}

func (s TicketStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether s is a defined lifecycle state.
func (s TicketStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusDone
}

func (s TicketStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ticket status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *TicketStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseTicketStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer.
func (s TicketStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ticket status %d", int(s))
	}
	return s.String(), nil
}

// Scan implements sql.Scanner.
func (s *TicketStatus) Scan(src any) error {
	text, err := scanText(src)
	if err != nil {
		return err
	}
	return s.UnmarshalText([]byte(text))
}

// TicketPriority enumerates reporter-declared urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityModerate TicketPriority = "Moderate"
	TicketPriorityHigh     TicketPriority = "High"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityModerate, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is a reported facility problem.
type Ticket struct {
	ID            string
	ReporterID    string
	ReporterName  string
	ReporterEmail string
	WorkerID      *string
	AdminID       *string
	Status        TicketStatus
	Priority      TicketPriority
	Category      string
	Subject       string
	Description   string
	Location      string
	ContactNumber string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// BoundTo reports whether the ticket is assigned to the given worker.
func (t *Ticket) BoundTo(workerID string) bool {
	return t.WorkerID != nil && *t.WorkerID == workerID
}

// ReportedBy reports whether userID created the ticket.
func (t *Ticket) ReportedBy(userID string) bool {
	return t.ReporterID == userID
}
