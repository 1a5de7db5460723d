// Package memory provides process-local implementations of the repository
// interfaces. They keep the same compare-and-set guarantees as the
// Postgres versions and back development runs and tests.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/repository"
)

// Store holds every table behind one lock so multi-table operations such as
// OTP redemption stay atomic.
type Store struct {
	mu sync.Mutex

	users       map[string]*domain.User
	userOrder   []string
	tickets     map[string]*domain.Ticket
	ticketOrder []string
	otps        map[string]*domain.OTP
	categories  map[string]*domain.Category
	sessions    map[string]domain.Session

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:      make(map[string]*domain.User),
		tickets:    make(map[string]*domain.Ticket),
		otps:       make(map[string]*domain.OTP),
		categories: make(map[string]*domain.Category),
		sessions:   make(map[string]domain.Session),
		now:        time.Now,
	}
}

// WithClock overrides the clock used for generated timestamps and session expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Users() repository.UserRepository          { return userRepo{s} }
func (s *Store) Tickets() repository.TicketRepository      { return ticketRepo{s} }
func (s *Store) OTPs() repository.OTPRepository            { return otpRepo{s} }
func (s *Store) Categories() repository.CategoryRepository { return categoryRepo{s} }
func (s *Store) Sessions() repository.SessionRepository    { return sessionRepo{s} }

func newID() string {
	return uuid.NewString()
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	c.WorkerID = cloneString(t.WorkerID)
	c.AdminID = cloneString(t.AdminID)
	c.CompletedAt = cloneTime(t.CompletedAt)
	return &c
}

func cloneOTP(o *domain.OTP) *domain.OTP {
	c := *o
	c.UsedAt = cloneTime(o.UsedAt)
	c.InvalidatedAt = cloneTime(o.InvalidatedAt)
	return &c
}
