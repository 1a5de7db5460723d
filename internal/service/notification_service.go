package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/facility-tickets/internal/events"
	"github.com/spec-kit/facility-tickets/internal/notify"
	"github.com/spec-kit/facility-tickets/internal/observability"
)

// NotificationService turns domain events into emails. It runs after the
// state change has been committed; a failed send is logged and counted
// but never undoes the change.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notify.Mailer
	metrics    *observability.Metrics
	logger     *zap.Logger
	otpTTL     time.Duration
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Mailer     notify.Mailer
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	OTPTTL     time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	ttl := deps.OTPTTL
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		mailer:     deps.Mailer,
		metrics:    deps.Metrics,
		logger:     loggerOrNop(deps.Logger).Named("notifications"),
		otpTTL:     ttl,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventVerificationRequested, n.handleVerificationRequested)
	n.dispatcher.Subscribe(events.EventTicketCreated, n.logOnly)
	n.dispatcher.Subscribe(events.EventTicketCompleted, n.logOnly)
	n.dispatcher.Subscribe(events.EventTicketVerified, n.logOnly)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, err := events.PayloadAs[events.UserRegisteredPayload](event)
	if err != nil {
		return err
	}
	return n.record(event, "welcome", n.mailer.NotifyWelcome(ctx, payload.Name, payload.Email))
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, err := events.PayloadAs[events.TicketAssignedPayload](event)
	if err != nil {
		return err
	}
	err = n.mailer.NotifyWorkerAssigned(ctx, payload.WorkerName, payload.WorkerEmail, notify.AssignmentDetails{
		TicketID:    event.TicketID,
		Subject:     payload.Subject,
		Description: payload.Description,
		Category:    payload.Category,
		Location:    payload.Location,
		Priority:    string(payload.Priority),
	})
	return n.record(event, "worker_assigned", err)
}

func (n *NotificationService) handleVerificationRequested(ctx context.Context, event events.Event) error {
	payload, err := events.PayloadAs[events.VerificationRequestedPayload](event)
	if err != nil {
		return err
	}
	ttl := n.otpTTL
	if !payload.ExpiresAt.IsZero() && !event.Timestamp.IsZero() {
		ttl = payload.ExpiresAt.Sub(event.Timestamp)
	}
	err = n.mailer.NotifyOTP(ctx, payload.StudentName, payload.StudentEmail, payload.Subject, payload.Code, ttl)
	return n.record(event, "otp", err)
}

func (n *NotificationService) logOnly(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.UserID),
	)
	return nil
}

func (n *NotificationService) record(event events.Event, kind string, err error) error {
	n.metrics.RecordNotification(kind, err == nil)
	if err != nil {
		n.logger.Warn("notification failed",
			zap.String("kind", kind),
			zap.String("event_id", event.ID),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err),
		)
		return err
	}
	n.logger.Debug("notification sent", zap.String("kind", kind), zap.String("ticket_id", event.TicketID))
	return nil
}
