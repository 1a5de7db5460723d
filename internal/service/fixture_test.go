package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/facility-tickets/internal/auth"
	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/events"
	"github.com/spec-kit/facility-tickets/internal/notify"
	"github.com/spec-kit/facility-tickets/internal/observability"
	"github.com/spec-kit/facility-tickets/internal/repository/memory"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

type fakeMailer struct {
	mu       sync.Mutex
	fail     error
	welcomes []string
	assigned []string
	otps     []string
}

func (m *fakeMailer) NotifyWelcome(_ context.Context, _, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, email)
	return m.fail
}

func (m *fakeMailer) NotifyWorkerAssigned(_ context.Context, _, email string, _ notify.AssignmentDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assigned = append(m.assigned, email)
	return m.fail
}

func (m *fakeMailer) NotifyOTP(_ context.Context, _, _, _, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps = append(m.otps, code)
	return m.fail
}

func (m *fakeMailer) lastOTP() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.otps) == 0 {
		return ""
	}
	return m.otps[len(m.otps)-1]
}

type fixture struct {
	store   *memory.Store
	mailer  *fakeMailer
	metrics *observability.Metrics

	mu    sync.Mutex
	now   time.Time
	codes []string

	tickets      *TicketService
	assignments  *AssignmentService
	verification *VerificationService
	auth         *AuthService
	staff        *StaffService
	categories   *CategoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		mailer:  &fakeMailer{},
		metrics: observability.NewMetrics(),
		now:     time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	f.store = memory.NewStore().WithClock(f.clock)

	dispatcher := events.NewInMemoryDispatcher(nil)
	NewNotificationService(NotificationDependencies{
		Dispatcher: dispatcher,
		Mailer:     f.mailer,
		Metrics:    f.metrics,
	}).RegisterHandlers()

	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:   f.store.Tickets(),
		UserRepo:     f.store.Users(),
		CategoryRepo: f.store.Categories(),
		Dispatcher:   dispatcher,
		Metrics:      f.metrics,
		Clock:        f.clock,
	})
	f.assignments = NewAssignmentService(AssignmentDependencies{
		TicketRepo: f.store.Tickets(),
		UserRepo:   f.store.Users(),
		Dispatcher: dispatcher,
		Metrics:    f.metrics,
		Clock:      f.clock,
	})
	f.verification = NewVerificationService(VerificationDependencies{
		TicketRepo: f.store.Tickets(),
		OTPRepo:    f.store.OTPs(),
		Dispatcher: dispatcher,
		Metrics:    f.metrics,
		Clock:      f.clock,
		Generator:  f.nextCode,
		TTL:        10 * time.Minute,
	})
	f.auth = NewAuthService(AuthDependencies{
		UserRepo:    f.store.Users(),
		SessionRepo: f.store.Sessions(),
		Tokens:      auth.NewTokenManager("test-secret", time.Hour).WithClock(f.clock),
		Dispatcher:  dispatcher,
		BcryptCost:  bcrypt.MinCost,
	})
	f.staff = NewStaffService(f.store.Users(), f.auth)
	f.categories = NewCategoryService(f.store.Categories())
	if _, err := f.categories.Seed(context.Background(), DefaultCategories); err != nil {
		t.Fatalf("seed categories: %v", err)
	}
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// queueCodes makes the generator hand out codes in order, then "048213".
func (f *fixture) queueCodes(codes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, codes...)
}

func (f *fixture) nextCode(int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		return "048213", nil
	}
	code := f.codes[0]
	f.codes = f.codes[1:]
	return code, nil
}

func (f *fixture) user(t *testing.T, role domain.Role, email string) domain.Caller {
	t.Helper()
	u := &domain.User{Name: email, Email: email, PasswordHash: "x", Role: role}
	if err := f.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return domain.Caller{UserID: u.ID, Role: role}
}

func (f *fixture) newTicket(t *testing.T, student domain.Caller) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), student, TicketCreateInput{
		Subject:     "Leaking tap",
		Description: "Water everywhere in washroom 2",
		Location:    "Hostel B",
		Category:    "Plumbing",
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

// completedTicket walks a fresh ticket to Completed.
func (f *fixture) completedTicket(t *testing.T, student, admin, worker domain.Caller) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	ticket := f.newTicket(t, student)
	if _, err := f.assignments.Assign(ctx, admin, ticket.ID, worker.UserID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	done, err := f.tickets.Complete(ctx, worker, ticket.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	return done
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		var de *apperrors.DomainError
		if errors.As(err, &de) {
			t.Fatalf("got %s (%s), want %s", de.Code, de.Message, code)
		}
		t.Fatalf("got %v, want %s", err, code)
	}
}
