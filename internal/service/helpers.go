package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/events"
	"github.com/spec-kit/facility-tickets/internal/repository"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

// publisher emits events after a change has been committed. Publishing
// failures are logged and never reach the caller.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func (p publisher) publish(ctx context.Context, eventType events.EventType, ticketID string, caller domain.Caller, payload any) {
	if p.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     events.Actor{UserID: caller.UserID, Role: caller.Role},
		Timestamp: p.now(),
		Payload:   payload,
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event publish failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", ticketID),
			zap.Error(err),
		)
	}
}

func clockOrNow(clock func() time.Time) func() time.Time {
	if clock == nil {
		return time.Now
	}
	return clock
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// lookupError turns a repository miss into NotFound for resource.
func lookupError(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
	}
	return apperrors.MapError(err)
}

// transitionError maps a lifecycle rejection onto the error taxonomy.
func transitionError(err error, ticket *domain.Ticket, to domain.TicketStatus) error {
	details := map[string]any{
		"ticket_id": ticket.ID,
		"status":    ticket.Status.String(),
		"target":    to.String(),
	}
	switch {
	case errors.Is(err, domain.ErrRoleNotPermitted):
		return apperrors.NewUnauthorized("role may not move ticket to " + to.String())
	case errors.Is(err, domain.ErrInvalidTransition):
		return apperrors.NewInvalidState("ticket is "+ticket.Status.String(), details)
	}
	return apperrors.MapError(err)
}

// casError maps a failed compare-and-set. A conflict means another writer
// moved the ticket between our read and our write.
func casError(err error, ticketID string) error {
	switch {
	case errors.Is(err, repository.ErrStatusConflict):
		return apperrors.NewInvalidState("ticket status changed concurrently", map[string]any{"ticket_id": ticketID})
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return apperrors.MapError(err)
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
