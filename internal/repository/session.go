package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meetgrid/scheduler/internal/model"
)

// Player positions are stored as a jsonb column; encoding stays confined
// to this file so the rest of the core only sees decoded structures.

// GetGameSession returns the session for an event or ErrNotFound.
func (p *Postgres) GetGameSession(ctx context.Context, eventID string) (*model.GameSession, error) {
	var (
		s   model.GameSession
		raw []byte
	)
	err := p.q.QueryRow(ctx,
		`SELECT id, event_id, status, player_positions, created_at, updated_at
		 FROM game_sessions WHERE event_id = $1`, eventID,
	).Scan(&s.ID, &s.EventID, &s.Status, &raw, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get game session: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.PlayerPositions); err != nil {
			return nil, fmt.Errorf("decode player positions: %w", err)
		}
	}
	return &s, nil
}

// CreateGameSession inserts a session row for an event.
func (p *Postgres) CreateGameSession(ctx context.Context, s *model.GameSession) error {
	raw, err := json.Marshal(s.PlayerPositions)
	if err != nil {
		return fmt.Errorf("encode player positions: %w", err)
	}
	_, err = p.q.Exec(ctx,
		`INSERT INTO game_sessions (id, event_id, status, player_positions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.EventID, s.Status, raw, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game session: %w", err)
	}
	return nil
}

// UpdateGameSession rewrites a session's status and seating snapshot.
func (p *Postgres) UpdateGameSession(ctx context.Context, s *model.GameSession) error {
	raw, err := json.Marshal(s.PlayerPositions)
	if err != nil {
		return fmt.Errorf("encode player positions: %w", err)
	}
	tag, err := p.q.Exec(ctx,
		`UPDATE game_sessions
		 SET status = $2, player_positions = $3, updated_at = $4
		 WHERE id = $1`,
		s.ID, s.Status, raw, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update game session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
