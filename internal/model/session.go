package model

import "time"

// GameSessionStatus is the lifecycle state of a game session spawned from
// a filled pod.
type GameSessionStatus string

const (
	GameSessionWaiting   GameSessionStatus = "waiting"
	GameSessionActive    GameSessionStatus = "active"
	GameSessionPaused    GameSessionStatus = "paused"
	GameSessionCompleted GameSessionStatus = "completed"
	GameSessionCancelled GameSessionStatus = "cancelled"
)

// PlayerPosition is one seated player in a game session snapshot.
type PlayerPosition struct {
	UserID   string `json:"user_id"`
	Position int    `json:"position"`
}

// GameSession is the downstream record created when a game pod fills.
// At most one session exists per event.
type GameSession struct {
	ID              string            `json:"id"`
	EventID         string            `json:"event_id"`
	Status          GameSessionStatus `json:"status"`
	PlayerPositions []PlayerPosition  `json:"player_positions"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// EventStatusChange is one entry of the append-only status history log.
// ChangedBy is nil for system-triggered transitions.
type EventStatusChange struct {
	ID             string      `json:"id"`
	EventID        string      `json:"event_id"`
	PreviousStatus EventStatus `json:"previous_status"`
	NewStatus      EventStatus `json:"new_status"`
	ChangedBy      *string     `json:"changed_by,omitempty"`
	Reason         string      `json:"reason,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ExpiryResult aggregates one run of the expired-event batch job.
type ExpiryResult struct {
	Activated int      `json:"activated"`
	Completed int      `json:"completed"`
	Errors    []string `json:"errors,omitempty"`
}
