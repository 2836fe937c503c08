// Package model defines the core domain types for the scheduling and
// capacity subsystem.
package model

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// EventType tags what kind of gathering an event is.
type EventType string

const (
	EventTypeTournament EventType = "tournament"
	EventTypeConvention EventType = "convention"
	EventTypeRelease    EventType = "release"
	EventTypeStream     EventType = "stream"
	EventTypeCommunity  EventType = "community"
	EventTypePersonal   EventType = "personal"
	EventTypeGamePod    EventType = "game_pod"
)

// Event represents a scheduled event created by a user.
//
// MaxAttendees is nil for events with unlimited capacity. EndTime is nil
// for open-ended events; scheduling logic substitutes a default duration.
type Event struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	StartTime      time.Time   `json:"start_time"`
	EndTime        *time.Time  `json:"end_time,omitempty"`
	Timezone       string      `json:"timezone"`
	Location       string      `json:"location,omitempty"`
	CreatorID      string      `json:"creator_id"`
	HostID         string      `json:"host_id"`
	EventType      EventType   `json:"event_type"`
	Status         EventStatus `json:"status"`
	MaxAttendees   *int        `json:"max_attendees,omitempty"`
	PlayerSlots    int         `json:"player_slots"`
	AlternateSlots int         `json:"alternate_slots"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// IsGamePod reports whether the event uses fixed player/alternate seating.
func (e *Event) IsGamePod() bool {
	return e.EventType == EventTypeGamePod
}

// Unlimited reports whether the event has no attendee cap.
func (e *Event) Unlimited() bool {
	return e.MaxAttendees == nil
}

// CreateEventRequest is the payload for creating a new event.
// AttendeeIDs lists invitees whose calendars are conflict-checked up front.
type CreateEventRequest struct {
	Title          string      `json:"title" validate:"required,max=200"`
	Description    string      `json:"description" validate:"max=2000"`
	StartTime      time.Time   `json:"start_time" validate:"required"`
	EndTime        *time.Time  `json:"end_time,omitempty"`
	Timezone       string      `json:"timezone" validate:"max=64"`
	Location       string      `json:"location" validate:"max=200"`
	HostID         string      `json:"host_id"`
	EventType      EventType   `json:"event_type" validate:"omitempty,oneof=tournament convention release stream community personal game_pod"`
	Status         EventStatus `json:"status" validate:"omitempty,oneof=draft active"`
	MaxAttendees   *int        `json:"max_attendees,omitempty" validate:"omitempty,gte=1"`
	PlayerSlots    int         `json:"player_slots" validate:"gte=0,lte=64"`
	AlternateSlots int         `json:"alternate_slots" validate:"gte=0,lte=64"`
	AttendeeIDs    []string    `json:"attendee_ids,omitempty"`
}

// UpdateEventRequest carries partial updates to an event. Nil fields are
// left untouched.
type UpdateEventRequest struct {
	Title        *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Timezone     *string    `json:"timezone,omitempty" validate:"omitempty,max=64"`
	Location     *string    `json:"location,omitempty" validate:"omitempty,max=200"`
	MaxAttendees *int       `json:"max_attendees,omitempty" validate:"omitempty,gte=1"`
}

// EventSummary is the list-view projection of an event with registration
// counts attached.
type EventSummary struct {
	Event
	ConfirmedCount int `json:"confirmed_count"`
	WaitlistCount  int `json:"waitlist_count"`
}

// EventCapacity summarises an event's registration headroom.
// SpotsRemaining is nil when the event has unlimited capacity.
type EventCapacity struct {
	EventID        string `json:"event_id"`
	MaxAttendees   *int   `json:"max_attendees,omitempty"`
	ConfirmedCount int    `json:"confirmed_count"`
	WaitlistCount  int    `json:"waitlist_count"`
	SpotsRemaining *int   `json:"spots_remaining,omitempty"`
	IsFull         bool   `json:"is_full"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
