package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meetgrid/scheduler/internal/model"
)

const eventColumns = `id, title, description, start_time, end_time, timezone, location,
	creator_id, host_id, event_type, status, max_attendees, player_slots,
	alternate_slots, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.Timezone,
		&e.Location, &e.CreatorID, &e.HostID, &e.EventType, &e.Status,
		&e.MaxAttendees, &e.PlayerSlots, &e.AlternateSlots, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]model.Event, error) {
	defer rows.Close()
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// CreateEvent inserts a new event row.
func (p *Postgres) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := p.q.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		e.ID, e.Title, e.Description, e.StartTime, e.EndTime, e.Timezone, e.Location,
		e.CreatorID, e.HostID, e.EventType, e.Status, e.MaxAttendees, e.PlayerSlots,
		e.AlternateSlots, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent returns a single event or ErrNotFound.
func (p *Postgres) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return scanEvent(p.q.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// GetEventForUpdate returns the event with an exclusive row-level lock.
// Inside a transaction this serialises concurrent capacity mutations on
// the same event: a second transaction blocks here until the first
// commits or rolls back.
func (p *Postgres) GetEventForUpdate(ctx context.Context, id string) (*model.Event, error) {
	return scanEvent(p.q.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
}

// UpdateEvent writes all mutable event fields.
func (p *Postgres) UpdateEvent(ctx context.Context, e *model.Event) error {
	tag, err := p.q.Exec(ctx,
		`UPDATE events SET title = $2, description = $3, start_time = $4, end_time = $5,
		 timezone = $6, location = $7, max_attendees = $8, player_slots = $9,
		 alternate_slots = $10, updated_at = $11
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.StartTime, e.EndTime, e.Timezone, e.Location,
		e.MaxAttendees, e.PlayerSlots, e.AlternateSlots, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEventStatus writes only the status column.
func (p *Postgres) SetEventStatus(ctx context.Context, id string, status model.EventStatus) error {
	tag, err := p.q.Exec(ctx,
		`UPDATE events SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("set event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent removes an event; attendees, history, and sessions cascade.
func (p *Postgres) DeleteEvent(ctx context.Context, id string) error {
	tag, err := p.q.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUpcomingEvents returns non-cancelled events starting at or after from.
func (p *Postgres) ListUpcomingEvents(ctx context.Context, from time.Time) ([]model.Event, error) {
	rows, err := p.q.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE start_time >= $1 AND status <> 'cancelled'
		 ORDER BY start_time ASC`, from)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return collectEvents(rows)
}

// ListCreatedEvents returns all events created by a user, most recent first.
func (p *Postgres) ListCreatedEvents(ctx context.Context, creatorID string) ([]model.Event, error) {
	rows, err := p.q.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE creator_id = $1
		 ORDER BY start_time DESC`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list created events: %w", err)
	}
	return collectEvents(rows)
}

// ListDraftEventsDue returns draft events whose start time has passed.
func (p *Postgres) ListDraftEventsDue(ctx context.Context, now time.Time) ([]model.Event, error) {
	rows, err := p.q.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE status = 'draft' AND start_time <= $1
		 ORDER BY start_time ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("list due draft events: %w", err)
	}
	return collectEvents(rows)
}

// ListActiveEventsEnded returns active events whose effective end has
// passed. Open-ended events fall back to a two hour duration, mirroring
// the overlap checker's default.
func (p *Postgres) ListActiveEventsEnded(ctx context.Context, now time.Time) ([]model.Event, error) {
	rows, err := p.q.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE status = 'active'
		   AND COALESCE(end_time, start_time + interval '2 hours') <= $1
		 ORDER BY start_time ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("list ended active events: %w", err)
	}
	return collectEvents(rows)
}
