package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCheckTransition(t *testing.T) {
	cases := []struct {
		name string
		from TicketStatus
		to   TicketStatus
		role Role
		want error
	}{
		{"admin assigns pending", TicketStatusPending, TicketStatusAssigned, RoleAdmin, nil},
		{"worker completes assigned", TicketStatusAssigned, TicketStatusCompleted, RoleWorker, nil},
		{"student verifies completed", TicketStatusCompleted, TicketStatusDone, RoleStudent, nil},
		{"admin reassigns", TicketStatusAssigned, TicketStatusAssigned, RoleAdmin, ErrInvalidTransition},
		{"worker assigns", TicketStatusPending, TicketStatusAssigned, RoleWorker, ErrRoleNotPermitted},
		{"worker completes pending", TicketStatusPending, TicketStatusCompleted, RoleWorker, ErrInvalidTransition},
		{"admin closes", TicketStatusCompleted, TicketStatusDone, RoleAdmin, ErrRoleNotPermitted},
		{"student completes", TicketStatusAssigned, TicketStatusCompleted, RoleStudent, ErrRoleNotPermitted},
		{"back to pending", TicketStatusAssigned, TicketStatusPending, RoleAdmin, ErrInvalidTransition},
		{"reopen done", TicketStatusDone, TicketStatusCompleted, RoleWorker, ErrInvalidTransition},
		{"skip to done", TicketStatusAssigned, TicketStatusDone, RoleStudent, ErrInvalidTransition},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckTransition(tc.from, tc.to, tc.role)
			if !errors.Is(err, tc.want) {
				t.Fatalf("CheckTransition(%s, %s, %s) = %v, want %v", tc.from, tc.to, tc.role, err, tc.want)
			}
		})
	}
}

func TestTransitionsOnlyMoveForward(t *testing.T) {
	statuses := []TicketStatus{TicketStatusPending, TicketStatusAssigned, TicketStatusCompleted, TicketStatusDone}
	roles := []Role{RoleStudent, RoleAdmin, RoleWorker}
	for _, from := range statuses {
		for _, to := range statuses {
			for _, role := range roles {
				if CheckTransition(from, to, role) == nil && to != from+1 {
					t.Fatalf("transition %s -> %s allowed for %s", from, to, role)
				}
			}
		}
	}
}

func TestNextStatus(t *testing.T) {
	next, ok := NextStatus(TicketStatusPending)
	if !ok || next != TicketStatusAssigned {
		t.Fatalf("NextStatus(Pending) = %s, %v", next, ok)
	}
	if _, ok := NextStatus(TicketStatusDone); ok {
		t.Fatal("Done must be terminal")
	}
	if !TicketStatusDone.Terminal() {
		t.Fatal("Done.Terminal() = false")
	}
}

func TestCheckTransitionFollowsNextStatus(t *testing.T) {
	roles := []Role{RoleStudent, RoleAdmin, RoleWorker}
	for _, from := range []TicketStatus{TicketStatusPending, TicketStatusAssigned, TicketStatusCompleted, TicketStatusDone} {
		next, ok := NextStatus(from)
		if ok == from.Terminal() {
			t.Fatalf("%s: NextStatus ok=%v but Terminal=%v", from, ok, from.Terminal())
		}
		allowed := 0
		for _, role := range roles {
			if CheckTransition(from, next, role) == nil {
				allowed++
			}
		}
		if from.Terminal() && allowed != 0 {
			t.Fatalf("%s is terminal but %d roles may leave it", from, allowed)
		}
		if !from.Terminal() && allowed != 1 {
			t.Fatalf("%s -> %s allowed for %d roles, want 1", from, next, allowed)
		}
	}
}

func TestTicketStatusText(t *testing.T) {
	raw, err := json.Marshal(struct {
		Status TicketStatus `json:"status"`
	}{TicketStatusCompleted})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"status":"Completed"}` {
		t.Fatalf("unexpected json %s", raw)
	}

	var decoded struct {
		Status TicketStatus `json:"status"`
	}
	if err := json.Unmarshal([]byte(`{"status":"assigned"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Status != TicketStatusAssigned {
		t.Fatalf("decoded %s", decoded.Status)
	}
	if err := json.Unmarshal([]byte(`{"status":"Rejected"}`), &decoded); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if _, err := TicketStatusUnknown.Value(); err == nil {
		t.Fatal("expected error storing unknown status")
	}
}

func TestRoleScan(t *testing.T) {
	var r Role
	if err := r.Scan([]byte("WORKER")); err != nil || r != RoleWorker {
		t.Fatalf("Scan WORKER = %s, %v", r, err)
	}
	if err := r.Scan("janitor"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if err := r.Scan(nil); err == nil {
		t.Fatal("expected error for NULL role")
	}
}
