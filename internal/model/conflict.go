package model

import "time"

// ConflictType classifies how a scheduling overlap was found: through the
// user's own created events or through events they attend.
type ConflictType string

const (
	ConflictTypeCreator  ConflictType = "creator"
	ConflictTypeAttendee ConflictType = "attendee"
)

// ConflictingEvent is one overlap found during a conflict scan.
type ConflictingEvent struct {
	EventID      string       `json:"event_id"`
	Title        string       `json:"title"`
	StartTime    time.Time    `json:"start_time"`
	EndTime      *time.Time   `json:"end_time,omitempty"`
	ConflictType ConflictType `json:"conflict_type"`
}

// ConflictCheck is the aggregate result of a conflict scan.
type ConflictCheck struct {
	HasConflict       bool               `json:"has_conflict"`
	ConflictingEvents []ConflictingEvent `json:"conflicting_events"`
	Message           string             `json:"message,omitempty"`
}

// ConflictCheckInput describes a proposed time range to scan against
// existing commitments. ExcludeEventID removes the event itself from the
// scan during updates.
type ConflictCheckInput struct {
	StartTime      time.Time
	EndTime        *time.Time
	CreatorID      string
	AttendeeIDs    []string
	ExcludeEventID string
}
