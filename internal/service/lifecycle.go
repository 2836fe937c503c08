package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/meetgrid/scheduler/internal/metrics"
	"github.com/meetgrid/scheduler/internal/model"
	"github.com/meetgrid/scheduler/internal/notify"
	"github.com/meetgrid/scheduler/internal/repository"
)

// validTransitions is the lifecycle table. Completed and cancelled are
// terminal. A self-transition is always allowed and recorded as a no-op
// history entry.
var validTransitions = map[model.EventStatus][]model.EventStatus{
	model.EventStatusDraft:  {model.EventStatusActive, model.EventStatusCancelled},
	model.EventStatusActive: {model.EventStatusCompleted, model.EventStatusCancelled},
}

// LifecycleService enforces the event status state machine and keeps the
// append-only transition history.
type LifecycleService struct {
	store    repository.Store
	notifier notify.Notifier
	dispatch *notify.Dispatcher
	metrics  *metrics.Metrics
	log      *logrus.Logger
}

// NewLifecycleService constructs a LifecycleService.
func NewLifecycleService(store repository.Store, notifier notify.Notifier, dispatch *notify.Dispatcher, m *metrics.Metrics, log *logrus.Logger) *LifecycleService {
	return &LifecycleService{store: store, notifier: notifier, dispatch: dispatch, metrics: m, log: log}
}

// ValidateStatusTransition reports whether current -> next is a legal
// move. An empty current status is treated as draft.
func ValidateStatusTransition(current, next model.EventStatus) error {
	if current == "" {
		current = model.EventStatusDraft
	}
	if current == next {
		return nil
	}
	for _, allowed := range validTransitions[current] {
		if allowed == next {
			return nil
		}
	}
	return &InvalidTransitionError{From: current, To: next}
}

// UpdateStatus transitions an event and appends a history row. A nil
// userID marks a system-triggered transition and bypasses the ownership
// check; otherwise the user must be the event's creator. Confirmed
// attendees are notified best-effort after commit.
func (s *LifecycleService) UpdateStatus(ctx context.Context, eventID string, next model.EventStatus, userID *string, reason string) error {
	var attendeeIDs []string
	var previous model.EventStatus

	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if userID != nil && *userID != event.CreatorID {
			return ErrForbidden
		}
		if err := ValidateStatusTransition(event.Status, next); err != nil {
			return err
		}
		previous = event.Status

		if err := tx.SetEventStatus(ctx, eventID, next); err != nil {
			return err
		}
		if err := tx.AppendStatusHistory(ctx, &model.EventStatusChange{
			ID:             uuid.New().String(),
			EventID:        eventID,
			PreviousStatus: previous,
			NewStatus:      next,
			ChangedBy:      userID,
			Reason:         reason,
			CreatedAt:      time.Now().UTC(),
		}); err != nil {
			return err
		}

		attendees, err := tx.ListEventAttendees(ctx, eventID)
		if err != nil {
			return err
		}
		for _, a := range attendees {
			if a.Status == model.AttendeeStatusConfirmed {
				attendeeIDs = append(attendeeIDs, a.UserID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
	s.log.WithFields(logrus.Fields{
		"event_id": eventID,
		"from":     previous,
		"to":       next,
	}).Info("event status updated")

	if len(attendeeIDs) > 0 && previous != next {
		msg := fmt.Sprintf("event status changed to %s", next)
		s.dispatch.Go("notify-status-change", func(ctx context.Context) error {
			return s.notifier.NotifyUsers(ctx, eventID, attendeeIDs, notify.KindEventStatusChanged, msg)
		})
	}
	return nil
}

// History returns the event's transition log, oldest first.
func (s *LifecycleService) History(ctx context.Context, eventID string) ([]model.EventStatusChange, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListStatusHistory(ctx, eventID)
}

// ProcessExpiredEvents auto-activates draft events whose start time has
// passed and auto-completes active events whose effective end has passed.
// One event's failure is recorded and does not abort the batch.
func (s *LifecycleService) ProcessExpiredEvents(ctx context.Context) (*model.ExpiryResult, error) {
	now := time.Now().UTC()
	result := &model.ExpiryResult{}

	drafts, err := s.store.ListDraftEventsDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list due draft events: %w", err)
	}
	for _, e := range drafts {
		if err := s.UpdateStatus(ctx, e.ID, model.EventStatusActive, nil, "auto-activated at start time"); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("activate %s: %v", e.ID, err))
			continue
		}
		result.Activated++
	}

	ended, err := s.store.ListActiveEventsEnded(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list ended active events: %w", err)
	}
	for _, e := range ended {
		if err := s.UpdateStatus(ctx, e.ID, model.EventStatusCompleted, nil, "auto-completed at end time"); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("complete %s: %v", e.ID, err))
			continue
		}
		result.Completed++
	}

	s.log.WithFields(logrus.Fields{
		"activated": result.Activated,
		"completed": result.Completed,
		"errors":    len(result.Errors),
	}).Info("processed expired events")
	return result, nil
}
