// Package notify delivers transactional email.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
	"go.uber.org/zap"

	"github.com/spec-kit/facility-tickets/internal/config"
)

// Message is a single outbound email.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message and returns the provider's message id, if any.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewSender picks the provider named in cfg.
func NewSender(cfg config.NotificationConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case "mailersend":
		if cfg.MailerSendAPIKey == "" || cfg.EmailFrom == "" {
			return nil, errors.New("mailersend provider requires MAILERSEND_API_KEY and NOTIFY_EMAIL_FROM")
		}
		return NewMailerSendSender(cfg), nil
	case "", "log":
		return NewLogSender(logger), nil
	}
	return nil, fmt.Errorf("unknown notification provider %q", cfg.Provider)
}

type mailerSendSender struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	timeout time.Duration
}

// NewMailerSendSender sends through the MailerSend API.
func NewMailerSendSender(cfg config.NotificationConfig) Sender {
	timeout := time.Duration(cfg.SendTimeoutSecond) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &mailerSendSender{
		client:  mailersend.NewMailersend(cfg.MailerSendAPIKey),
		from:    mailersend.From{Name: cfg.EmailFromName, Email: cfg.EmailFrom},
		timeout: timeout,
	}
}

func (m *mailerSendSender) Send(ctx context.Context, msg Message) (string, error) {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return "", errors.New("empty recipient email")
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	email := m.client.Email.NewMessage()
	email.SetFrom(m.from)
	email.SetRecipients([]mailersend.Recipient{{Name: msg.ToName, Email: msg.ToEmail}})
	email.SetSubject(msg.Subject)
	if strings.TrimSpace(msg.Text) != "" {
		email.SetText(msg.Text)
	}
	if strings.TrimSpace(msg.HTML) != "" {
		email.SetHTML(msg.HTML)
	}

	res, err := m.client.Email.Send(ctx, email)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return res.Header.Get("X-Message-Id"), nil
}

type logSender struct {
	logger *zap.Logger
}

// NewLogSender writes messages to the log instead of sending them. Used in
// development and tests.
func NewLogSender(logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logSender{logger: logger.Named("mail")}
}

func (l *logSender) Send(_ context.Context, msg Message) (string, error) {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return "", errors.New("empty recipient email")
	}
	l.logger.Info("email",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return "", nil
}
