package domain

import "errors"

var (
	// ErrRoleNotPermitted means the role may never perform the requested transition.
	ErrRoleNotPermitted = errors.New("role not permitted for transition")
	// ErrInvalidTransition means the transition is not available from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

type transitionRule struct {
	from TicketStatus
	role Role
}

// transitions is keyed by target status: every reachable status has
// exactly one source and one acting role.
var transitions = map[TicketStatus]transitionRule{
	TicketStatusAssigned:  {from: TicketStatusPending, role: RoleAdmin},
	TicketStatusCompleted: {from: TicketStatusAssigned, role: RoleWorker},
	TicketStatusDone:      {from: TicketStatusCompleted, role: RoleStudent},
}

// CheckTransition validates moving a ticket from one status to another on
// behalf of role. Role mismatches are reported before state mismatches.
func CheckTransition(from, to TicketStatus, role Role) error {
	rule, ok := transitions[to]
	if !ok {
		return ErrInvalidTransition
	}
	if rule.role != role {
		return ErrRoleNotPermitted
	}
	if from.Terminal() {
		return ErrInvalidTransition
	}
	if next, ok := NextStatus(from); !ok || next != to {
		return ErrInvalidTransition
	}
	return nil
}

// NextStatus returns the single forward successor of s.
func NextStatus(s TicketStatus) (TicketStatus, bool) {
	for to, rule := range transitions {
		if rule.from == s {
			return to, true
		}
	}
	return TicketStatusUnknown, false
}
