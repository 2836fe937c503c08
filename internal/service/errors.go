package service

import (
	"errors"
	"fmt"

	"github.com/meetgrid/scheduler/internal/model"
)

// Domain sentinels surfaced to handlers, which map them onto HTTP status
// codes with errors.Is.
var (
	// ErrAlreadyRegistered is returned when a user with an active
	// registration registers again.
	ErrAlreadyRegistered = errors.New("already registered for this event")

	// ErrNotRegistered is returned when cancelling or removing a user
	// who holds no active registration.
	ErrNotRegistered = errors.New("no active registration for this event")

	// ErrNoSlotsAvailable is returned when every player seat is taken.
	ErrNoSlotsAvailable = errors.New("no player slots available")

	// ErrNoAlternateSlots is returned when every alternate seat is taken.
	ErrNoAlternateSlots = errors.New("no alternate slots available")

	// ErrNoAlternates is returned when a promotion finds no alternates.
	ErrNoAlternates = errors.New("no alternates available to promote")

	// ErrPositionOccupied is returned when the requested seat position
	// is already held by an active attendee.
	ErrPositionOccupied = errors.New("position is already occupied")

	// ErrInvalidPosition is returned for seat positions outside the
	// event's configured range.
	ErrInvalidPosition = errors.New("position is out of range")

	// ErrForbidden is returned when a user other than the creator
	// attempts to mutate an event.
	ErrForbidden = errors.New("only the event creator may perform this action")

	// ErrRegistrationClosed is returned when registering on a cancelled
	// or completed event.
	ErrRegistrationClosed = errors.New("event is not open for registration")
)

// InvalidTransitionError reports a lifecycle move the state machine does
// not allow.
type InvalidTransitionError struct {
	From model.EventStatus
	To   model.EventStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition event from %s to %s", e.From, e.To)
}

// ConflictError carries the full conflict list so callers can render
// which existing commitments collide with the proposed time range.
type ConflictError struct {
	Check *model.ConflictCheck
}

func (e *ConflictError) Error() string {
	return e.Check.Message
}
