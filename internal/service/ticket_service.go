package service

import (
	"context"
	"errors"
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

// ScopeAll widens an admin listing from the Pending queue to every ticket.
const ScopeAll = "all"

// TicketService coordinates ticket creation, reads and worker completion.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	events     publisher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	Clock        func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject       string
	Description   string
	Location      string
	Category      string
	ContactNumber string
	Priority      domain.TicketPriority
}

// TicketQuery narrows a listing. Role scoping is applied on top and can
// never be widened by the query.
type TicketQuery struct {
	Scope      string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Category   *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := loggerOrNop(deps.Logger)
	now := clockOrNow(deps.Clock)
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		categories: deps.CategoryRepo,
		events:     publisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
		metrics:    deps.Metrics,
		logger:     logger,
		now:        now,
	}
}

// CreateTicket files a new Pending ticket for a student.
func (s *TicketService) CreateTicket(ctx context.Context, caller domain.Caller, input TicketCreateInput) (*domain.Ticket, error) {
	if !caller.Is(domain.RoleStudent) {
		return nil, apperrors.NewUnauthorized("only students can raise tickets")
	}

	input.Subject = strings.TrimSpace(input.Subject)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)
	input.Category = strings.TrimSpace(input.Category)
	var missing []string
	for field, value := range map[string]string{
		"subject":     input.Subject,
		"description": input.Description,
		"location":    input.Location,
		"category":    input.Category,
	} {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": sortedStrings(missing)})
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityModerate
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": string(input.Priority)})
	}

	category, err := s.categories.GetByName(ctx, input.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
		}
		return nil, apperrors.MapError(err)
	}

	reporter, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthenticated("session user no longer exists")
		}
		return nil, apperrors.MapError(err)
	}

	contact := strings.TrimSpace(input.ContactNumber)
	if contact == "" {
		contact = reporter.ContactNumber
	}
	ticket := &domain.Ticket{
		ReporterID:    reporter.ID,
		ReporterName:  reporter.Name,
		ReporterEmail: reporter.Email,
		Status:        domain.TicketStatusPending,
		Priority:      input.Priority,
		Category:      category.Name,
		Subject:       input.Subject,
		Description:   input.Description,
		Location:      input.Location,
		ContactNumber: contact,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("ticket created", zap.String("ticket_id", ticket.ID), zap.String("reporter_id", reporter.ID))
	s.events.publish(ctx, events.EventTicketCreated, ticket.ID, caller, events.TicketCreatedPayload{
		Subject:  ticket.Subject,
		Category: ticket.Category,
		Priority: ticket.Priority,
	})
	return ticket, nil
}

// ListTickets returns the tickets the caller may read, newest first.
// Students see what they reported, workers what is bound to them. Admins
// get the Pending queue unless they ask for ScopeAll or name statuses.
func (s *TicketService) ListTickets(ctx context.Context, caller domain.Caller, query TicketQuery) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		Statuses:   query.Statuses,
		Priorities: query.Priorities,
		Category:   query.Category,
		SearchTerm: query.SearchTerm,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	switch caller.Role {
	case domain.RoleStudent:
		filter.ReporterID = &caller.UserID
	case domain.RoleWorker:
		filter.WorkerID = &caller.UserID
	case domain.RoleAdmin:
		if query.Scope != ScopeAll && len(filter.Statuses) == 0 {
			filter.Statuses = []domain.TicketStatus{domain.TicketStatusPending}
		}
	default:
		return nil, apperrors.NewUnauthorized("unknown role")
	}

	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket returns one ticket if the caller may read it.
func (s *TicketService) GetTicket(ctx context.Context, caller domain.Caller, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupError(err, "ticket", ticketID)
	}
	if !CanRead(caller, ticket) {
		return nil, apperrors.NewUnauthorized("ticket not visible to caller")
	}
	return ticket, nil
}

// Complete moves an Assigned ticket to Completed on behalf of its bound
// worker. Anyone else is refused whatever the ticket's status.
func (s *TicketService) Complete(ctx context.Context, caller domain.Caller, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupError(err, "ticket", ticketID)
	}
	if !caller.Is(domain.RoleWorker) || !ticket.BoundTo(caller.UserID) {
		return nil, apperrors.NewUnauthorized("ticket is not assigned to caller")
	}
	if err := domain.CheckTransition(ticket.Status, domain.TicketStatusCompleted, caller.Role); err != nil {
		return nil, transitionError(err, ticket, domain.TicketStatusCompleted)
	}

	now := s.now()
	updated, err := s.tickets.CompareAndSetStatus(ctx, ticket.ID, ticket.Status, repository.TicketChange{
		Status:      domain.TicketStatusCompleted,
		CompletedAt: &now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, casError(err, ticket.ID)
	}

	s.metrics.RecordTransition(domain.TicketStatusCompleted.String())
	s.logger.Info("ticket completed", zap.String("ticket_id", ticket.ID), zap.String("worker_id", caller.UserID))
	s.events.publish(ctx, events.EventTicketCompleted, ticket.ID, caller, events.TicketCompletedPayload{
		WorkerID:   caller.UserID,
		ReporterID: updated.ReporterID,
	})
	return updated, nil
}

// CanRead applies the read rule: reporters read their own tickets, workers
// the ones bound to them, admins everything.
func CanRead(caller domain.Caller, ticket *domain.Ticket) bool {
	switch caller.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleStudent:
		return ticket.ReportedBy(caller.UserID)
	case domain.RoleWorker:
		return ticket.BoundTo(caller.UserID)
	}
	return false
}
