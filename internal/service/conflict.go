package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/meetgrid/scheduler/internal/metrics"
	"github.com/meetgrid/scheduler/internal/model"
	"github.com/meetgrid/scheduler/internal/repository"
)

// ConflictService scans a proposed time range against existing
// commitments. It holds no locks: the check is advisory and a concurrent
// create slipping past it is an accepted limitation.
type ConflictService struct {
	store   repository.Store
	metrics *metrics.Metrics
	log     *logrus.Logger
}

// NewConflictService constructs a ConflictService.
func NewConflictService(store repository.Store, m *metrics.Metrics, log *logrus.Logger) *ConflictService {
	return &ConflictService{store: store, metrics: m, log: log}
}

// CheckEventConflicts scans the creator's own events and each attendee's
// confirmed attendance for overlaps with the proposed range. Storage
// errors propagate unchanged; a failed scan never reads as "no conflict".
func (s *ConflictService) CheckEventConflicts(ctx context.Context, in model.ConflictCheckInput) (*model.ConflictCheck, error) {
	var conflicts []model.ConflictingEvent
	seen := make(map[string]bool)

	record := func(c model.ConflictingEvent) {
		key := c.EventID + ":" + string(c.ConflictType)
		if !seen[key] {
			seen[key] = true
			conflicts = append(conflicts, c)
		}
	}

	created, err := s.store.ListCreatedEvents(ctx, in.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("list created events: %w", err)
	}
	for _, e := range created {
		if e.ID == in.ExcludeEventID || e.Status == model.EventStatusCancelled {
			continue
		}
		if Overlaps(in.StartTime, in.EndTime, e.StartTime, e.EndTime) {
			record(model.ConflictingEvent{
				EventID:      e.ID,
				Title:        e.Title,
				StartTime:    e.StartTime,
				EndTime:      e.EndTime,
				ConflictType: model.ConflictTypeCreator,
			})
		}
	}

	for _, userID := range in.AttendeeIDs {
		attendance, err := s.store.ListUserAttendance(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list attendance for user %s: %w", userID, err)
		}
		for _, at := range attendance {
			if at.EventID == in.ExcludeEventID {
				continue
			}
			if Overlaps(in.StartTime, in.EndTime, at.StartTime, at.EndTime) {
				record(model.ConflictingEvent{
					EventID:      at.EventID,
					Title:        at.EventTitle,
					StartTime:    at.StartTime,
					EndTime:      at.EndTime,
					ConflictType: model.ConflictTypeAttendee,
				})
			}
		}
	}

	check := &model.ConflictCheck{
		HasConflict:       len(conflicts) > 0,
		ConflictingEvents: conflicts,
	}
	if check.HasConflict {
		check.Message = fmt.Sprintf("scheduling conflict with %d existing event(s)", len(conflicts))
		s.metrics.Conflicts.Inc()
		s.log.WithFields(logrus.Fields{
			"creator_id": in.CreatorID,
			"conflicts":  len(conflicts),
		}).Debug("conflict check found overlaps")
	}
	return check, nil
}

// CheckUserAvailability reports whether a user is free in [start, end),
// scanning them as both creator and attendee.
func (s *ConflictService) CheckUserAvailability(ctx context.Context, userID string, start time.Time, end *time.Time) (bool, error) {
	check, err := s.CheckEventConflicts(ctx, model.ConflictCheckInput{
		StartTime:   start,
		EndTime:     end,
		CreatorID:   userID,
		AttendeeIDs: []string{userID},
	})
	if err != nil {
		return false, err
	}
	return !check.HasConflict, nil
}
