package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/events"
	"github.com/spec-kit/facility-tickets/internal/observability"
	"github.com/spec-kit/facility-tickets/internal/repository"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

const (
	defaultOTPLength = 6
	defaultOTPTTL    = 10 * time.Minute
)

// CodeGenerator returns a fresh numeric code of the given length.
type CodeGenerator func(length int) (string, error)

// RandomCode draws a uniformly distributed, zero-padded numeric code.
func RandomCode(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// VerificationService issues and redeems the one-time codes that close a
// ticket.
type VerificationService struct {
	tickets  repository.TicketRepository
	otps     repository.OTPRepository
	events   publisher
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
	generate CodeGenerator
	length   int
	ttl      time.Duration
}

// VerificationDependencies bundles repositories and OTP policy.
type VerificationDependencies struct {
	TicketRepo repository.TicketRepository
	OTPRepo    repository.OTPRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
	Generator  CodeGenerator
	CodeLength int
	TTL        time.Duration
}

// VerificationIssued reports a fresh code without revealing it.
type VerificationIssued struct {
	TicketID  string
	ExpiresAt time.Time
}

// NewVerificationService creates the service.
func NewVerificationService(deps VerificationDependencies) *VerificationService {
	logger := loggerOrNop(deps.Logger)
	now := clockOrNow(deps.Clock)
	svc := &VerificationService{
		tickets:  deps.TicketRepo,
		otps:     deps.OTPRepo,
		events:   publisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
		metrics:  deps.Metrics,
		logger:   logger,
		now:      now,
		generate: deps.Generator,
		length:   deps.CodeLength,
		ttl:      deps.TTL,
	}
	if svc.generate == nil {
		svc.generate = RandomCode
	}
	if svc.length <= 0 {
		svc.length = defaultOTPLength
	}
	if svc.ttl <= 0 {
		svc.ttl = defaultOTPTTL
	}
	return svc
}

// RequestVerification issues a new code for a Completed ticket to its
// reporter. Any earlier unused code for the ticket stops working.
func (s *VerificationService) RequestVerification(ctx context.Context, caller domain.Caller, ticketID string) (*VerificationIssued, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupError(err, "ticket", ticketID)
	}
	if !caller.Is(domain.RoleStudent) || !ticket.ReportedBy(caller.UserID) {
		return nil, apperrors.NewUnauthorized("only the reporter can verify this ticket")
	}
	if ticket.Status != domain.TicketStatusCompleted {
		return nil, apperrors.NewInvalidState("ticket is "+ticket.Status.String(), map[string]any{
			"ticket_id": ticket.ID,
			"status":    ticket.Status.String(),
		})
	}

	code, err := s.generate(s.length)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("generate otp: %w", err))
	}
	now := s.now()
	otp := &domain.OTP{
		TicketID:  ticket.ID,
		StudentID: caller.UserID,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.otps.Issue(ctx, otp); err != nil {
		return nil, casError(err, ticket.ID)
	}

	s.logger.Info("verification code issued", zap.String("ticket_id", ticket.ID), zap.Time("expires_at", otp.ExpiresAt))
	s.events.publish(ctx, events.EventVerificationRequested, ticket.ID, caller, events.VerificationRequestedPayload{
		StudentName:  ticket.ReporterName,
		StudentEmail: ticket.ReporterEmail,
		Subject:      ticket.Subject,
		Code:         code,
		ExpiresAt:    otp.ExpiresAt,
	})
	return &VerificationIssued{TicketID: ticket.ID, ExpiresAt: otp.ExpiresAt}, nil
}

// Verify redeems code and closes the ticket. It is the only way a ticket
// reaches Done.
func (s *VerificationService) Verify(ctx context.Context, caller domain.Caller, ticketID, code string) (*domain.Ticket, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewValidationError("code is required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupError(err, "ticket", ticketID)
	}
	if !caller.Is(domain.RoleStudent) || !ticket.ReportedBy(caller.UserID) {
		return nil, apperrors.NewUnauthorized("only the reporter can verify this ticket")
	}

	otp, err := s.otps.FindActive(ctx, ticket.ID, caller.UserID, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidOTP("invalid or already used code")
		}
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	if otp.Expired(now) {
		return nil, apperrors.NewExpired("code expired, request a new one")
	}
	if err := domain.CheckTransition(ticket.Status, domain.TicketStatusDone, caller.Role); err != nil {
		return nil, transitionError(err, ticket, domain.TicketStatusDone)
	}

	done, err := s.otps.Redeem(ctx, otp.ID, ticket.ID, now)
	if err != nil {
		if errors.Is(err, repository.ErrOTPUnavailable) {
			return nil, apperrors.NewInvalidOTP("invalid or already used code")
		}
		return nil, casError(err, ticket.ID)
	}

	s.metrics.RecordTransition(domain.TicketStatusDone.String())
	s.logger.Info("ticket verified", zap.String("ticket_id", ticket.ID))
	workerID := ""
	if done.WorkerID != nil {
		workerID = *done.WorkerID
	}
	s.events.publish(ctx, events.EventTicketVerified, ticket.ID, caller, events.TicketVerifiedPayload{WorkerID: workerID})
	return done, nil
}
