package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/events"
	"github.com/spec-kit/facility-tickets/internal/observability"
	"github.com/spec-kit/facility-tickets/internal/repository"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

// AssignmentService binds Pending tickets to workers.
type AssignmentService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	events  publisher
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := loggerOrNop(deps.Logger)
	now := clockOrNow(deps.Clock)
	return &AssignmentService{
		tickets: deps.TicketRepo,
		users:   deps.UserRepo,
		events:  publisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
		metrics: deps.Metrics,
		logger:  logger,
		now:     now,
	}
}

// Assign binds ticketID to workerID. There is no reassignment: once a
// ticket has left Pending every further call fails with InvalidState.
func (s *AssignmentService) Assign(ctx context.Context, caller domain.Caller, ticketID, workerID string) (*domain.Ticket, error) {
	if !caller.Is(domain.RoleAdmin) {
		return nil, apperrors.NewUnauthorized("only admins can assign tickets")
	}
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return nil, apperrors.NewValidationError("worker_id is required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupError(err, "ticket", ticketID)
	}
	worker, err := s.users.GetByID(ctx, workerID)
	if err != nil {
		return nil, lookupError(err, "worker", workerID)
	}
	if err := domain.CheckTransition(ticket.Status, domain.TicketStatusAssigned, caller.Role); err != nil {
		return nil, transitionError(err, ticket, domain.TicketStatusAssigned)
	}
	if worker.Role != domain.RoleWorker {
		return nil, apperrors.NewInvalidTarget("assignee is not a worker", map[string]any{
			"worker_id": worker.ID,
			"role":      worker.Role.String(),
		})
	}

	adminID := caller.UserID
	updated, err := s.tickets.CompareAndSetStatus(ctx, ticket.ID, ticket.Status, repository.TicketChange{
		Status:    domain.TicketStatusAssigned,
		WorkerID:  &worker.ID,
		AdminID:   &adminID,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, casError(err, ticket.ID)
	}

	s.metrics.RecordTransition(domain.TicketStatusAssigned.String())
	s.logger.Info("ticket assigned",
		zap.String("ticket_id", updated.ID),
		zap.String("worker_id", worker.ID),
		zap.String("admin_id", adminID),
	)
	s.events.publish(ctx, events.EventTicketAssigned, updated.ID, caller, events.TicketAssignedPayload{
		WorkerID:    worker.ID,
		WorkerName:  worker.Name,
		WorkerEmail: worker.Email,
		Subject:     updated.Subject,
		Description: updated.Description,
		Category:    updated.Category,
		Location:    updated.Location,
		Priority:    updated.Priority,
	})
	return updated, nil
}
