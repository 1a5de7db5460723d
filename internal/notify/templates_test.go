package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/facility-tickets/internal/config"
)

func TestVerificationCodeMessage(t *testing.T) {
	msg := VerificationCodeMessage("Asha", "asha@uni.edu", "Broken <fan>", "048213", 10*time.Minute)
	if msg.ToEmail != "asha@uni.edu" {
		t.Fatalf("to = %q", msg.ToEmail)
	}
	if !strings.Contains(msg.Text, "048213") || !strings.Contains(msg.Text, "10 minutes") {
		t.Fatalf("text missing code or ttl: %q", msg.Text)
	}
	if strings.Contains(msg.HTML, "<fan>") {
		t.Fatal("subject not escaped in html body")
	}
}

func TestWorkerAssignedMessage(t *testing.T) {
	msg := WorkerAssignedMessage("Ravi", "ravi@uni.edu", AssignmentDetails{
		TicketID: "t1", Subject: "Leaking tap", Location: "Hostel B", Category: "Plumbing", Priority: "High",
	})
	if msg.Subject != "New ticket assigned: Leaking tap" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "Hostel B") {
		t.Fatalf("text missing location: %q", msg.Text)
	}
}

func TestNewSender(t *testing.T) {
	if _, err := NewSender(config.NotificationConfig{Provider: "mailersend"}, zap.NewNop()); err == nil {
		t.Fatal("expected error without api key")
	}
	sender, err := NewSender(config.NotificationConfig{Provider: "log"}, zap.NewNop())
	if err != nil {
		t.Fatalf("log sender: %v", err)
	}
	if _, err := sender.Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
	if _, err := sender.Send(context.Background(), WelcomeMessage("A", "a@uni.edu")); err != nil {
		t.Fatalf("send: %v", err)
	}
}
