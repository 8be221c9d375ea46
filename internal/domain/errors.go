package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories for missing records.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input such as a bad time string or an
// empty range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type ConflictReason string

const (
	ConflictSlotTaken           ConflictReason = "slot_taken"
	ConflictOutsideAvailability ConflictReason = "outside_availability"
	ConflictConcurrentUpdate    ConflictReason = "concurrent_update"
)

// ConflictError means the requested time cannot be held.
type ConflictError struct {
	Reason ConflictReason
	UserID string
	Range  string
}

func (e *ConflictError) Error() string {
	switch e.Reason {
	case ConflictSlotTaken:
		if e.UserID != "" {
			return fmt.Sprintf("time %s is already booked for user %s", e.Range, e.UserID)
		}
		return "time is already booked"
	case ConflictOutsideAvailability:
		return fmt.Sprintf("time %s is outside the declared availability of user %s", e.Range, e.UserID)
	case ConflictConcurrentUpdate:
		return "record was modified concurrently, reload and retry"
	default:
		return "conflict: " + string(e.Reason)
	}
}

// IsConflict reports whether err is a ConflictError with the given reason.
func IsConflict(err error, reason ConflictReason) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Reason == reason
}

type TransitionReason string

const (
	ReasonIllegalState TransitionReason = "illegal_state"
	ReasonWrongActor   TransitionReason = "wrong_actor"
	ReasonNotFound     TransitionReason = "not_found"
	ReasonNoProposal   TransitionReason = "no_proposal"
	ReasonOpenProposal TransitionReason = "open_proposal"
	ReasonNotOwner     TransitionReason = "not_owner"
)

// InvalidStateTransition is returned when an operation is not legal from the
// record's current status or for the calling user.
type InvalidStateTransition struct {
	Entity    string
	ID        string
	From      string
	Attempted string
	Reason    TransitionReason
	Err       error
}

func (e *InvalidStateTransition) Error() string {
	switch e.Reason {
	case ReasonWrongActor:
		return fmt.Sprintf("%s %s: caller may not %s it in state %s", e.Entity, e.ID, e.Attempted, e.From)
	case ReasonNotOwner:
		return fmt.Sprintf("%s %s belongs to another user, cannot %s it", e.Entity, e.ID, e.Attempted)
	case ReasonNotFound:
		return fmt.Sprintf("%s %s does not exist, cannot %s", e.Entity, e.ID, e.Attempted)
	case ReasonNoProposal:
		return fmt.Sprintf("%s %s has no proposed time to %s", e.Entity, e.ID, e.Attempted)
	case ReasonOpenProposal:
		return fmt.Sprintf("%s %s has an unresolved proposed time, cannot %s", e.Entity, e.ID, e.Attempted)
	default:
		return fmt.Sprintf("%s %s: cannot %s from state %s", e.Entity, e.ID, e.Attempted, e.From)
	}
}

func (e *InvalidStateTransition) Unwrap() error { return e.Err }

// RescheduleLimitExceeded is returned once the reschedule budget is spent.
type RescheduleLimitExceeded struct {
	Entity string
	ID     string
	Limit  int
}

func (e *RescheduleLimitExceeded) Error() string {
	return fmt.Sprintf("%s %s already used all %d reschedules, only accept or decline remain", e.Entity, e.ID, e.Limit)
}
