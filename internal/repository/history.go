package repository

import (
	"context"
	"fmt"

	"github.com/meetgrid/scheduler/internal/model"
)

// AppendStatusHistory inserts one history row. The log is append-only;
// there is deliberately no update or delete counterpart.
func (p *Postgres) AppendStatusHistory(ctx context.Context, h *model.EventStatusChange) error {
	_, err := p.q.Exec(ctx,
		`INSERT INTO event_status_history
		   (id, event_id, previous_status, new_status, changed_by, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.ID, h.EventID, h.PreviousStatus, h.NewStatus, h.ChangedBy, h.Reason, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

// ListStatusHistory returns an event's transitions, oldest first.
func (p *Postgres) ListStatusHistory(ctx context.Context, eventID string) ([]model.EventStatusChange, error) {
	rows, err := p.q.Query(ctx,
		`SELECT id, event_id, previous_status, new_status, changed_by, reason, created_at
		 FROM event_status_history
		 WHERE event_id = $1
		 ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	var changes []model.EventStatusChange
	for rows.Next() {
		var h model.EventStatusChange
		if err := rows.Scan(&h.ID, &h.EventID, &h.PreviousStatus, &h.NewStatus,
			&h.ChangedBy, &h.Reason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		changes = append(changes, h)
	}
	return changes, rows.Err()
}
