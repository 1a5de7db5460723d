package memory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/repository"
)

type otpRepo struct{ s *Store }

func (r otpRepo) Issue(_ context.Context, otp *domain.OTP) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ticket, ok := r.s.tickets[otp.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if ticket.Status != domain.TicketStatusCompleted {
		return repository.ErrStatusConflict
	}

	at := otp.CreatedAt
	if at.IsZero() {
		at = r.s.now()
		otp.CreatedAt = at
	}
	for _, existing := range r.s.otps {
		if existing.TicketID == otp.TicketID && existing.StudentID == otp.StudentID &&
			!existing.Used && existing.InvalidatedAt == nil {
			invalidated := at
			existing.InvalidatedAt = &invalidated
		}
	}
	otp.ID = newID()
	r.s.otps[otp.ID] = cloneOTP(otp)
	return nil
}

func (r otpRepo) FindActive(_ context.Context, ticketID, studentID, code string) (*domain.OTP, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, otp := range r.s.otps {
		if otp.TicketID == ticketID && otp.StudentID == studentID && otp.Code == code &&
			!otp.Used && otp.InvalidatedAt == nil {
			return cloneOTP(otp), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r otpRepo) Redeem(_ context.Context, otpID, ticketID string, at time.Time) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	otp, ok := r.s.otps[otpID]
	if !ok || otp.Used || otp.InvalidatedAt != nil {
		return nil, repository.ErrOTPUnavailable
	}
	// The ticket CAS leaves the store untouched on failure, so it runs before
	// the code is consumed.
	updated, err := r.s.compareAndSetLocked(ticketID, domain.TicketStatusCompleted, repository.TicketChange{
		Status:    domain.TicketStatusDone,
		UpdatedAt: at,
	})
	if err != nil {
		return nil, err
	}
	usedAt := at
	otp.Used = true
	otp.UsedAt = &usedAt
	return updated, nil
}
