package models

import dErrors "convene/pkg/domain-errors"

// Status is a guest's lifecycle state.
//
// Invariant: CheckedIn == true exactly when Status == StatusCheckedIn. Every
// mutator keeps the pair in lockstep.
type Status string

const (
	StatusInvited   Status = "invited"
	StatusConfirmed Status = "confirmed"
	StatusCheckedIn Status = "checked_in"
	StatusNoShow    Status = "no_show"
	StatusCancelled Status = "cancelled"
)

// validStatuses is the single source of truth for valid statuses.
var validStatuses = map[Status]bool{
	StatusInvited:   true,
	StatusConfirmed: true,
	StatusCheckedIn: true,
	StatusNoShow:    true,
	StatusCancelled: true,
}

// statusTransitions is the closed transition table. Any pair not listed is
// rejected; checked_in is terminal, and no_show may still become checked_in
// (late arrival).
var statusTransitions = map[Status][]Status{
	StatusInvited: {StatusCheckedIn, StatusNoShow},
	StatusNoShow:  {StatusCheckedIn},
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	return validStatuses[s]
}

// CanTransitionTo consults the transition table.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ValidateStatusTransition rejects any transition outside the table with a
// domain error; illegal transitions are never silently applied.
func ValidateStatusTransition(current, next Status) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	if !current.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot transition guest from %s to %s", current, next)
	}
	return nil
}
