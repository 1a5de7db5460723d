package notify

import (
	"context"
	"time"
)

// Mailer is the notifier the services talk to. Every method is best-effort
// from the caller's perspective: errors are reported so they can be logged,
// never so a committed change can be undone.
type Mailer interface {
	NotifyWelcome(ctx context.Context, name, email string) error
	NotifyWorkerAssigned(ctx context.Context, workerName, workerEmail string, d AssignmentDetails) error
	NotifyOTP(ctx context.Context, studentName, studentEmail, subject, code string, ttl time.Duration) error
}

type mailer struct {
	sender Sender
}

// NewMailer renders templates and hands them to sender.
func NewMailer(sender Sender) Mailer {
	return &mailer{sender: sender}
}

func (m *mailer) NotifyWelcome(ctx context.Context, name, email string) error {
	_, err := m.sender.Send(ctx, WelcomeMessage(name, email))
	return err
}

func (m *mailer) NotifyWorkerAssigned(ctx context.Context, workerName, workerEmail string, d AssignmentDetails) error {
	_, err := m.sender.Send(ctx, WorkerAssignedMessage(workerName, workerEmail, d))
	return err
}

func (m *mailer) NotifyOTP(ctx context.Context, studentName, studentEmail, subject, code string, ttl time.Duration) error {
	_, err := m.sender.Send(ctx, VerificationCodeMessage(studentName, studentEmail, subject, code, ttl))
	return err
}
