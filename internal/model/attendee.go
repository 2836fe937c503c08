package model

import "time"

// AttendeeStatus is the registration state of a user on an event.
type AttendeeStatus string

const (
	AttendeeStatusConfirmed AttendeeStatus = "confirmed"
	AttendeeStatusWaitlist  AttendeeStatus = "waitlist"
	AttendeeStatusCancelled AttendeeStatus = "cancelled"
	AttendeeStatusDeclined  AttendeeStatus = "declined"
)

// SlotType is the category of seat an attendee holds in a game pod.
type SlotType string

const (
	SlotTypeNone      SlotType = "none"
	SlotTypePlayer    SlotType = "player"
	SlotTypeAlternate SlotType = "alternate"
	SlotTypeSpectator SlotType = "spectator"
)

// Attendee links a user to an event. There is exactly one row per
// (event, user) pair; re-registration after a cancellation reuses the row.
//
// WaitlistPosition is set only while Status is waitlist and is kept as a
// consecutive 1..N sequence per event. SlotPosition is unique within an
// (event, slot type) pair.
type Attendee struct {
	ID               string         `json:"id"`
	EventID          string         `json:"event_id"`
	UserID           string         `json:"user_id"`
	Status           AttendeeStatus `json:"status"`
	SlotType         SlotType       `json:"slot_type"`
	SlotPosition     *int           `json:"slot_position,omitempty"`
	WaitlistPosition *int           `json:"waitlist_position,omitempty"`
	RegisteredAt     time.Time      `json:"registered_at"`
	AssignedAt       *time.Time     `json:"assigned_at,omitempty"`
}

// Active reports whether the registration still occupies capacity or a
// seat. Cancelled rows keep their slot fields for audit, so occupancy
// checks must go through this predicate rather than the slot fields alone.
func (a *Attendee) Active() bool {
	return a.Status != AttendeeStatusCancelled && a.Status != AttendeeStatusDeclined
}

// Attendance is one entry of a user's event calendar, used by conflict
// detection to scan a user's confirmed commitments.
type Attendance struct {
	EventID    string         `json:"event_id"`
	EventTitle string         `json:"event_title"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    *time.Time     `json:"end_time,omitempty"`
	Status     AttendeeStatus `json:"status"`
}

// RegistrationResult summarises the outcome of a registration attempt.
type RegistrationResult struct {
	Success          bool           `json:"success"`
	Status           AttendeeStatus `json:"status"`
	Attendee         *Attendee      `json:"attendee,omitempty"`
	WaitlistPosition *int           `json:"waitlist_position,omitempty"`
	SpotsRemaining   *int           `json:"spots_remaining,omitempty"`
	Message          string         `json:"message"`
}

// SlotAssignmentResult summarises the outcome of a seat operation.
type SlotAssignmentResult struct {
	Success  bool      `json:"success"`
	Attendee *Attendee `json:"attendee,omitempty"`
	Message  string    `json:"message"`
}

// SlotCount is per-type seat accounting for a game pod.
type SlotCount struct {
	Total     int `json:"total"`
	Filled    int `json:"filled"`
	Available int `json:"available"`
}

// SlotAvailability reports seat usage across all slot types of an event.
// Spectator seating is unbounded, so only its filled count is meaningful.
type SlotAvailability struct {
	EventID   string    `json:"event_id"`
	Player    SlotCount `json:"player"`
	Alternate SlotCount `json:"alternate"`
	Spectator struct {
		Filled int `json:"filled"`
	} `json:"spectator"`
}
