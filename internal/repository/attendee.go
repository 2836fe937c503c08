package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meetgrid/scheduler/internal/model"
)

const attendeeColumns = `id, event_id, user_id, status, slot_type, slot_position,
	waitlist_position, registered_at, assigned_at`

func scanAttendee(row pgx.Row) (*model.Attendee, error) {
	var a model.Attendee
	err := row.Scan(
		&a.ID, &a.EventID, &a.UserID, &a.Status, &a.SlotType,
		&a.SlotPosition, &a.WaitlistPosition, &a.RegisteredAt, &a.AssignedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan attendee: %w", err)
	}
	return &a, nil
}

func collectAttendees(rows pgx.Rows) ([]model.Attendee, error) {
	defer rows.Close()
	var attendees []model.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, *a)
	}
	return attendees, rows.Err()
}

// GetAttendee returns the registration row for a (event, user) pair,
// whatever its status, or ErrNotFound.
func (p *Postgres) GetAttendee(ctx context.Context, eventID, userID string) (*model.Attendee, error) {
	return scanAttendee(p.q.QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM event_attendees
		 WHERE event_id = $1 AND user_id = $2`, eventID, userID))
}

// CreateAttendee inserts a new registration row.
func (p *Postgres) CreateAttendee(ctx context.Context, a *model.Attendee) error {
	_, err := p.q.Exec(ctx,
		`INSERT INTO event_attendees (`+attendeeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.EventID, a.UserID, a.Status, a.SlotType,
		a.SlotPosition, a.WaitlistPosition, a.RegisteredAt, a.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attendee: %w", err)
	}
	return nil
}

// UpdateAttendee writes all mutable registration fields.
func (p *Postgres) UpdateAttendee(ctx context.Context, a *model.Attendee) error {
	tag, err := p.q.Exec(ctx,
		`UPDATE event_attendees
		 SET status = $2, slot_type = $3, slot_position = $4,
		     waitlist_position = $5, registered_at = $6, assigned_at = $7
		 WHERE id = $1`,
		a.ID, a.Status, a.SlotType, a.SlotPosition,
		a.WaitlistPosition, a.RegisteredAt, a.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("update attendee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEventAttendees returns every registration row of an event, seated
// players first, then alternates by position, then the waitlist in order.
func (p *Postgres) ListEventAttendees(ctx context.Context, eventID string) ([]model.Attendee, error) {
	rows, err := p.q.Query(ctx,
		`SELECT `+attendeeColumns+` FROM event_attendees
		 WHERE event_id = $1
		 ORDER BY slot_type, slot_position NULLS LAST, waitlist_position NULLS LAST, registered_at`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("list event attendees: %w", err)
	}
	return collectAttendees(rows)
}

// ListAttendeesByEventIDs batch-loads registrations across many events.
func (p *Postgres) ListAttendeesByEventIDs(ctx context.Context, eventIDs []string) ([]model.Attendee, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	rows, err := p.q.Query(ctx,
		`SELECT `+attendeeColumns+` FROM event_attendees
		 WHERE event_id = ANY($1)
		 ORDER BY event_id, registered_at`, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("list attendees by event ids: %w", err)
	}
	return collectAttendees(rows)
}

// ListUserAttendance returns the events a user is confirmed on, joined
// with the event's time range for conflict scanning.
func (p *Postgres) ListUserAttendance(ctx context.Context, userID string) ([]model.Attendance, error) {
	rows, err := p.q.Query(ctx,
		`SELECT e.id, e.title, e.start_time, e.end_time, a.status
		 FROM event_attendees a
		 JOIN events e ON e.id = a.event_id
		 WHERE a.user_id = $1 AND a.status = 'confirmed' AND e.status <> 'cancelled'
		 ORDER BY e.start_time`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user attendance: %w", err)
	}
	defer rows.Close()

	var entries []model.Attendance
	for rows.Next() {
		var at model.Attendance
		if err := rows.Scan(&at.EventID, &at.EventTitle, &at.StartTime, &at.EndTime, &at.Status); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		entries = append(entries, at)
	}
	return entries, rows.Err()
}

// CountAttendees counts an event's registrations with the given status.
func (p *Postgres) CountAttendees(ctx context.Context, eventID string, status model.AttendeeStatus) (int, error) {
	var n int
	err := p.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_attendees WHERE event_id = $1 AND status = $2`,
		eventID, status,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attendees: %w", err)
	}
	return n, nil
}

// ListWaitlist returns the event's capacity waitlist ordered by position.
// Seated pod alternates also carry waitlist status, but they wait for a
// player seat rather than a capacity spot, so rows holding a slot are
// excluded here.
func (p *Postgres) ListWaitlist(ctx context.Context, eventID string) ([]model.Attendee, error) {
	rows, err := p.q.Query(ctx,
		`SELECT `+attendeeColumns+` FROM event_attendees
		 WHERE event_id = $1 AND status = 'waitlist' AND slot_type = 'none'
		 ORDER BY waitlist_position ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return collectAttendees(rows)
}

// ListSlotHolders returns the active registrations holding a given slot
// type, ordered by position. Cancelled and declined rows keep their slot
// fields for audit and are deliberately excluded here so a removed
// player's stale position never reads as occupied.
func (p *Postgres) ListSlotHolders(ctx context.Context, eventID string, slot model.SlotType) ([]model.Attendee, error) {
	rows, err := p.q.Query(ctx,
		`SELECT `+attendeeColumns+` FROM event_attendees
		 WHERE event_id = $1 AND slot_type = $2
		   AND status NOT IN ('cancelled', 'declined')
		 ORDER BY slot_position ASC NULLS LAST, registered_at`,
		eventID, slot)
	if err != nil {
		return nil, fmt.Errorf("list slot holders: %w", err)
	}
	return collectAttendees(rows)
}
