// Package repository implements all database queries for the scheduling
// core. It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetgrid/scheduler/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence contract consumed by the service layer.
//
// Atomic runs fn against a transaction-scoped Store; every mutation made
// through that Store commits or rolls back as a unit. Capacity-sensitive
// flows lock the event row first (GetEventForUpdate) so that concurrent
// mutations on the same event serialize.
type Store interface {
	Atomic(ctx context.Context, fn func(Store) error) error

	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	GetEventForUpdate(ctx context.Context, id string) (*model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	SetEventStatus(ctx context.Context, id string, status model.EventStatus) error
	DeleteEvent(ctx context.Context, id string) error
	ListUpcomingEvents(ctx context.Context, from time.Time) ([]model.Event, error)
	ListCreatedEvents(ctx context.Context, creatorID string) ([]model.Event, error)
	ListDraftEventsDue(ctx context.Context, now time.Time) ([]model.Event, error)
	ListActiveEventsEnded(ctx context.Context, now time.Time) ([]model.Event, error)

	GetAttendee(ctx context.Context, eventID, userID string) (*model.Attendee, error)
	CreateAttendee(ctx context.Context, a *model.Attendee) error
	UpdateAttendee(ctx context.Context, a *model.Attendee) error
	ListEventAttendees(ctx context.Context, eventID string) ([]model.Attendee, error)
	ListAttendeesByEventIDs(ctx context.Context, eventIDs []string) ([]model.Attendee, error)
	ListUserAttendance(ctx context.Context, userID string) ([]model.Attendance, error)
	CountAttendees(ctx context.Context, eventID string, status model.AttendeeStatus) (int, error)
	ListWaitlist(ctx context.Context, eventID string) ([]model.Attendee, error)
	ListSlotHolders(ctx context.Context, eventID string, slot model.SlotType) ([]model.Attendee, error)

	GetGameSession(ctx context.Context, eventID string) (*model.GameSession, error)
	CreateGameSession(ctx context.Context, s *model.GameSession) error
	UpdateGameSession(ctx context.Context, s *model.GameSession) error

	AppendStatusHistory(ctx context.Context, h *model.EventStatusChange) error
	ListStatusHistory(ctx context.Context, eventID string) ([]model.EventStatusChange, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting every
// query method run either directly against the pool or inside Atomic.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the pgx-backed Store implementation.
type Postgres struct {
	q    querier
	pool *pgxpool.Pool
}

// NewPostgres constructs a Postgres store on top of a connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{q: pool, pool: pool}
}

// Atomic runs fn inside a single transaction. Nested calls reuse the
// enclosing transaction rather than opening a new one, so service flows
// can compose (a cancellation promoting from the waitlist stays atomic).
func (p *Postgres) Atomic(ctx context.Context, fn func(Store) error) error {
	if p.pool == nil {
		return fn(p)
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&Postgres{q: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
