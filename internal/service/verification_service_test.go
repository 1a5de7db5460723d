package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/facility-tickets/internal/domain"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

func TestVerifyRejectsForeignCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := f.user(t, domain.RoleStudent, "s1@uni.edu")
	s2 := f.user(t, domain.RoleStudent, "s2@uni.edu")
	admin := f.user(t, domain.RoleAdmin, "a@uni.edu")
	worker := f.user(t, domain.RoleWorker, "w@uni.edu")

	t1 := f.completedTicket(t, s1, admin, worker)
	t2 := f.completedTicket(t, s1, admin, worker)
	t3 := f.completedTicket(t, s2, admin, worker)

	f.queueCodes("111111", "222222")
	if _, err := f.verification.RequestVerification(ctx, s1, t1.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.verification.RequestVerification(ctx, s2, t3.ID); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		caller   domain.Caller
		ticketID string
		code     string
		want     string
	}{
		{"never issued", s1, t1.ID, "999999", apperrors.CodeInvalidOTP},
		{"issued for a different ticket", s1, t2.ID, "111111", apperrors.CodeInvalidOTP},
		{"issued for a different student", s2, t3.ID, "111111", apperrors.CodeInvalidOTP},
		{"not the reporter", s2, t1.ID, "111111", apperrors.CodeUnauthorized},
		{"worker cannot verify", worker, t1.ID, "111111", apperrors.CodeUnauthorized},
		{"admin cannot verify", admin, t1.ID, "111111", apperrors.CodeUnauthorized},
		{"unknown ticket", s1, "missing", "111111", apperrors.CodeNotFound},
		{"empty code", s1, t1.ID, "  ", apperrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.verification.Verify(ctx, tc.caller, tc.ticketID, tc.code)
			wantCode(t, err, tc.want)
		})
	}

	for _, id := range []string{t1.ID, t2.ID, t3.ID} {
		stored, _ := f.store.Tickets().GetByID(ctx, id)
		if stored.Status != domain.TicketStatusCompleted {
			t.Fatalf("ticket %s moved to %s", id, stored.Status)
		}
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, domain.RoleStudent, "s@uni.edu")
	admin := f.user(t, domain.RoleAdmin, "a@uni.edu")
	worker := f.user(t, domain.RoleWorker, "w@uni.edu")
	ticket := f.completedTicket(t, student, admin, worker)

	if _, err := f.verification.RequestVerification(ctx, student, ticket.ID); err != nil {
		t.Fatal(err)
	}

	f.advance(10 * time.Minute)
	f.advance(time.Second)
	_, err := f.verification.Verify(ctx, student, ticket.ID, "048213")
	wantCode(t, err, apperrors.CodeExpired)

	// A fresh request recovers.
	f.queueCodes("135790")
	if _, err := f.verification.RequestVerification(ctx, student, ticket.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.verification.Verify(ctx, student, ticket.ID, "135790"); err != nil {
		t.Fatalf("verify fresh code: %v", err)
	}
}

func TestVerifyAtExactExpiryStillValid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, domain.RoleStudent, "s@uni.edu")
	admin := f.user(t, domain.RoleAdmin, "a@uni.edu")
	worker := f.user(t, domain.RoleWorker, "w@uni.edu")
	ticket := f.completedTicket(t, student, admin, worker)

	if _, err := f.verification.RequestVerification(ctx, student, ticket.ID); err != nil {
		t.Fatal(err)
	}
	f.advance(10 * time.Minute)
	if _, err := f.verification.Verify(ctx, student, ticket.ID, "048213"); err != nil {
		t.Fatalf("verify at expiry instant: %v", err)
	}
}

func TestNewCodeSupersedesOld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, domain.RoleStudent, "s@uni.edu")
	admin := f.user(t, domain.RoleAdmin, "a@uni.edu")
	worker := f.user(t, domain.RoleWorker, "w@uni.edu")
	ticket := f.completedTicket(t, student, admin, worker)

	f.queueCodes("111111", "222222")
	if _, err := f.verification.RequestVerification(ctx, student, ticket.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.verification.RequestVerification(ctx, student, ticket.ID); err != nil {
		t.Fatal(err)
	}

	_, err := f.verification.Verify(ctx, student, ticket.ID, "111111")
	wantCode(t, err, apperrors.CodeInvalidOTP)

	if _, err := f.verification.Verify(ctx, student, ticket.ID, "222222"); err != nil {
		t.Fatalf("verify latest code: %v", err)
	}
}

func TestConcurrentVerifySingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, domain.RoleStudent, "s@uni.edu")
	admin := f.user(t, domain.RoleAdmin, "a@uni.edu")
	worker := f.user(t, domain.RoleWorker, "w@uni.edu")
	ticket := f.completedTicket(t, student, admin, worker)
	if _, err := f.verification.RequestVerification(ctx, student, ticket.ID); err != nil {
		t.Fatal(err)
	}

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		invalid int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.verification.Verify(ctx, student, ticket.ID, "048213")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case apperrors.HasCode(err, apperrors.CodeInvalidOTP):
				invalid++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 1 || invalid != n-1 {
		t.Fatalf("success=%d invalid=%d", success, invalid)
	}
}

func TestRequestVerificationGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, domain.RoleStudent, "s@uni.edu")
	other := f.user(t, domain.RoleStudent, "o@uni.edu")
	admin := f.user(t, domain.RoleAdmin, "a@uni.edu")
	worker := f.user(t, domain.RoleWorker, "w@uni.edu")

	pending := f.newTicket(t, student)
	completed := f.completedTicket(t, student, admin, worker)

	_, err := f.verification.RequestVerification(ctx, student, pending.ID)
	wantCode(t, err, apperrors.CodeInvalidState)
	_, err = f.verification.RequestVerification(ctx, other, completed.ID)
	wantCode(t, err, apperrors.CodeUnauthorized)
	_, err = f.verification.RequestVerification(ctx, worker, completed.ID)
	wantCode(t, err, apperrors.CodeUnauthorized)
	_, err = f.verification.RequestVerification(ctx, student, "missing")
	wantCode(t, err, apperrors.CodeNotFound)

	if len(f.mailer.otps) != 0 {
		t.Fatalf("codes sent on rejected requests: %v", f.mailer.otps)
	}
}

func TestRandomCodeIsZeroPadded(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9]{6}$`)
	for i := 0; i < 200; i++ {
		code, err := RandomCode(6)
		if err != nil {
			t.Fatal(err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("code %q is not six digits", code)
		}
	}
}

func TestConcurrentRequestVerificationKeepsOneCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.user(t, domain.RoleStudent, "s@uni.edu")
	admin := f.user(t, domain.RoleAdmin, "a@uni.edu")
	worker := f.user(t, domain.RoleWorker, "w@uni.edu")
	ticket := f.completedTicket(t, student, admin, worker)

	codes := []string{"100001", "100002", "100003", "100004", "100005", "100006", "100007", "100008"}
	f.queueCodes(codes...)

	var wg sync.WaitGroup
	for range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.verification.RequestVerification(ctx, student, ticket.ID); err != nil {
				t.Errorf("request verification: %v", err)
			}
		}()
	}
	wg.Wait()

	accepted := 0
	for _, code := range codes {
		_, err := f.verification.Verify(ctx, student, ticket.ID, code)
		switch {
		case err == nil:
			accepted++
		case apperrors.HasCode(err, apperrors.CodeInvalidOTP):
		default:
			t.Fatalf("verify %s: %v", code, err)
		}
	}
	if accepted != 1 {
		t.Fatalf("accepted %d codes, want 1", accepted)
	}
}
