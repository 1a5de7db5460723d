package notify

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// WelcomeMessage greets a newly registered user.
func WelcomeMessage(name, email string) Message {
	text := fmt.Sprintf("Hi %s,\n\nYour account is ready. You can now raise facility tickets and track them until they are resolved.", name)
	htmlBody := fmt.Sprintf(`<p>Hi %s,</p><p>Your account is ready. You can now raise facility tickets and track them until they are resolved.</p>`,
		html.EscapeString(name))
	return Message{
		ToEmail: email,
		ToName:  name,
		Subject: "Welcome to the Campus Facility Desk",
		Text:    text,
		HTML:    htmlBody,
	}
}

// AssignmentDetails describes the job sent to a worker.
type AssignmentDetails struct {
	TicketID    string
	Subject     string
	Description string
	Category    string
	Location    string
	Priority    string
}

// WorkerAssignedMessage tells a worker a ticket is now theirs.
func WorkerAssignedMessage(workerName, workerEmail string, d AssignmentDetails) Message {
	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\nA new ticket has been assigned to you.\n\n", workerName)
	fmt.Fprintf(&text, "Ticket: %s\nSubject: %s\nCategory: %s\nLocation: %s\nPriority: %s\n\n%s\n",
		d.TicketID, d.Subject, d.Category, d.Location, d.Priority, d.Description)

	esc := html.EscapeString
	htmlBody := fmt.Sprintf(`<p>Hi %s,</p><p>A new ticket has been assigned to you.</p>`+
		`<table><tr><td>Ticket</td><td>%s</td></tr><tr><td>Subject</td><td>%s</td></tr>`+
		`<tr><td>Category</td><td>%s</td></tr><tr><td>Location</td><td>%s</td></tr>`+
		`<tr><td>Priority</td><td>%s</td></tr></table><p>%s</p>`,
		esc(workerName), esc(d.TicketID), esc(d.Subject), esc(d.Category), esc(d.Location), esc(d.Priority), esc(d.Description))

	return Message{
		ToEmail: workerEmail,
		ToName:  workerName,
		Subject: "New ticket assigned: " + d.Subject,
		Text:    text.String(),
		HTML:    htmlBody,
	}
}

// VerificationCodeMessage delivers the completion code to the reporting student.
func VerificationCodeMessage(studentName, studentEmail, subject, code string, ttl time.Duration) Message {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	text := fmt.Sprintf("Hi %s,\n\nThe work on %q has been marked complete. Use code %s to confirm it. The code expires in %d minutes.",
		studentName, subject, code, minutes)
	htmlBody := fmt.Sprintf(`<p>Hi %s,</p><p>The work on <b>%s</b> has been marked complete.</p><p>Your verification code is <b>%s</b>. It expires in %d minutes.</p>`,
		html.EscapeString(studentName), html.EscapeString(subject), code, minutes)
	return Message{
		ToEmail: studentEmail,
		ToName:  studentName,
		Subject: "Your ticket verification code",
		Text:    text,
		HTML:    htmlBody,
	}
}
