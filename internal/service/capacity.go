package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/meetgrid/scheduler/internal/metrics"
	"github.com/meetgrid/scheduler/internal/model"
	"github.com/meetgrid/scheduler/internal/notify"
	"github.com/meetgrid/scheduler/internal/repository"
)

// CapacityService tracks confirmed versus waitlisted registrations and
// keeps the waitlist order consecutive. Every mutation runs inside one
// transaction with the event row locked, so concurrent registrations on
// the same event serialize and the confirmed count can never exceed the
// cap.
type CapacityService struct {
	store     repository.Store
	reminders notify.ReminderScheduler
	dispatch  *notify.Dispatcher
	metrics   *metrics.Metrics
	log       *logrus.Logger
}

// NewCapacityService constructs a CapacityService.
func NewCapacityService(store repository.Store, reminders notify.ReminderScheduler, dispatch *notify.Dispatcher, m *metrics.Metrics, log *logrus.Logger) *CapacityService {
	return &CapacityService{store: store, reminders: reminders, dispatch: dispatch, metrics: m, log: log}
}

func buildCapacity(e *model.Event, confirmed, waitlisted int) *model.EventCapacity {
	c := &model.EventCapacity{
		EventID:        e.ID,
		MaxAttendees:   e.MaxAttendees,
		ConfirmedCount: confirmed,
		WaitlistCount:  waitlisted,
	}
	if e.MaxAttendees != nil {
		remaining := *e.MaxAttendees - confirmed
		if remaining < 0 {
			remaining = 0
		}
		c.SpotsRemaining = &remaining
		c.IsFull = confirmed >= *e.MaxAttendees
	}
	return c
}

// GetEventCapacity returns a snapshot of the event's registration headroom.
func (s *CapacityService) GetEventCapacity(ctx context.Context, eventID string) (*model.EventCapacity, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	confirmed, err := s.store.CountAttendees(ctx, eventID, model.AttendeeStatusConfirmed)
	if err != nil {
		return nil, err
	}
	waitlist, err := s.store.ListWaitlist(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return buildCapacity(event, confirmed, len(waitlist)), nil
}

// RegisterForEvent registers a user, confirming them if a spot remains or
// appending them to the waitlist otherwise. A cancelled or declined row
// for the same user is reactivated rather than duplicated.
func (s *CapacityService) RegisterForEvent(ctx context.Context, eventID, userID string) (*model.RegistrationResult, error) {
	result := &model.RegistrationResult{}

	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if event.Status == model.EventStatusCancelled || event.Status == model.EventStatusCompleted {
			return ErrRegistrationClosed
		}

		existing, err := tx.GetAttendee(ctx, eventID, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if existing != nil && existing.Active() {
			return ErrAlreadyRegistered
		}

		confirmed, err := tx.CountAttendees(ctx, eventID, model.AttendeeStatusConfirmed)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		attendee := existing
		if attendee == nil {
			attendee = &model.Attendee{
				ID:      uuid.New().String(),
				EventID: eventID,
				UserID:  userID,
			}
		}
		attendee.SlotType = model.SlotTypeNone
		attendee.SlotPosition = nil
		attendee.RegisteredAt = now

		full := event.MaxAttendees != nil && confirmed >= *event.MaxAttendees
		if full {
			waitlist, err := tx.ListWaitlist(ctx, eventID)
			if err != nil {
				return err
			}
			position := len(waitlist) + 1
			attendee.Status = model.AttendeeStatusWaitlist
			attendee.WaitlistPosition = &position
			result.WaitlistPosition = &position
			result.Message = fmt.Sprintf("event is full; added to waitlist at position %d", position)
		} else {
			attendee.Status = model.AttendeeStatusConfirmed
			attendee.WaitlistPosition = nil
			if event.MaxAttendees != nil {
				remaining := *event.MaxAttendees - confirmed - 1
				result.SpotsRemaining = &remaining
			}
			result.Message = "registration confirmed"
		}

		if existing != nil {
			if err := tx.UpdateAttendee(ctx, attendee); err != nil {
				return err
			}
		} else if err := tx.CreateAttendee(ctx, attendee); err != nil {
			return err
		}

		result.Success = true
		result.Status = attendee.Status
		result.Attendee = attendee
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Registrations.WithLabelValues(string(result.Status)).Inc()
	if result.Status == model.AttendeeStatusConfirmed {
		s.dispatch.Go("schedule-reminders", func(ctx context.Context) error {
			return s.reminders.ScheduleReminders(ctx, eventID, []string{userID})
		})
	}
	return result, nil
}

// CancelRegistration marks the user's registration cancelled, re-packs
// the waitlist, and promotes the first waitlisted member when the user
// had held a confirmed spot. Returns the promoted attendee, if any.
func (s *CapacityService) CancelRegistration(ctx context.Context, eventID, userID string) (*model.Attendee, error) {
	var promoted *model.Attendee

	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		attendee, err := tx.GetAttendee(ctx, eventID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotRegistered
			}
			return err
		}
		if !attendee.Active() {
			return ErrNotRegistered
		}

		wasConfirmed := attendee.Status == model.AttendeeStatusConfirmed
		attendee.Status = model.AttendeeStatusCancelled
		attendee.WaitlistPosition = nil
		if err := tx.UpdateAttendee(ctx, attendee); err != nil {
			return err
		}
		if err := s.reorderWaitlist(ctx, tx, eventID); err != nil {
			return err
		}

		if wasConfirmed {
			promoted, err = s.promoteLocked(ctx, tx, event)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch.Go("cancel-reminders", func(ctx context.Context) error {
		return s.reminders.CancelUserReminders(ctx, eventID, userID)
	})
	s.afterPromotion(eventID, promoted)
	return promoted, nil
}

// PromoteFromWaitlist moves the lowest-positioned waitlist member to
// confirmed if a spot is free. Returns nil without error when the event
// is still full or nobody is waiting.
func (s *CapacityService) PromoteFromWaitlist(ctx context.Context, eventID string) (*model.Attendee, error) {
	var promoted *model.Attendee

	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		promoted, err = s.promoteLocked(ctx, tx, event)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterPromotion(eventID, promoted)
	return promoted, nil
}

// DeclineEvent records a terminal "declined" response for a user who has
// never registered.
func (s *CapacityService) DeclineEvent(ctx context.Context, eventID, userID string) error {
	return s.store.Atomic(ctx, func(tx repository.Store) error {
		if _, err := tx.GetEventForUpdate(ctx, eventID); err != nil {
			return err
		}
		existing, err := tx.GetAttendee(ctx, eventID, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if existing != nil {
			return ErrAlreadyRegistered
		}
		return tx.CreateAttendee(ctx, &model.Attendee{
			ID:           uuid.New().String(),
			EventID:      eventID,
			UserID:       userID,
			Status:       model.AttendeeStatusDeclined,
			SlotType:     model.SlotTypeNone,
			RegisteredAt: time.Now().UTC(),
		})
	})
}

// promoteLocked performs the promotion inside an already-open transaction
// holding the event lock. It no-ops when the event is still full or the
// waitlist is empty.
func (s *CapacityService) promoteLocked(ctx context.Context, tx repository.Store, event *model.Event) (*model.Attendee, error) {
	if event.MaxAttendees != nil {
		confirmed, err := tx.CountAttendees(ctx, event.ID, model.AttendeeStatusConfirmed)
		if err != nil {
			return nil, err
		}
		if confirmed >= *event.MaxAttendees {
			return nil, nil
		}
	}

	waitlist, err := tx.ListWaitlist(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if len(waitlist) == 0 {
		return nil, nil
	}

	next := waitlist[0]
	next.Status = model.AttendeeStatusConfirmed
	next.WaitlistPosition = nil
	if err := tx.UpdateAttendee(ctx, &next); err != nil {
		return nil, err
	}
	if err := s.reorderWaitlist(ctx, tx, event.ID); err != nil {
		return nil, err
	}
	return &next, nil
}

// reorderWaitlist re-numbers the waitlist to a consecutive 1..N sequence,
// writing only rows whose position actually changed.
func (s *CapacityService) reorderWaitlist(ctx context.Context, tx repository.Store, eventID string) error {
	waitlist, err := tx.ListWaitlist(ctx, eventID)
	if err != nil {
		return err
	}
	for i := range waitlist {
		want := i + 1
		if waitlist[i].WaitlistPosition != nil && *waitlist[i].WaitlistPosition == want {
			continue
		}
		waitlist[i].WaitlistPosition = &want
		if err := tx.UpdateAttendee(ctx, &waitlist[i]); err != nil {
			return err
		}
	}
	return nil
}

// afterPromotion runs the post-commit side effects of a promotion.
func (s *CapacityService) afterPromotion(eventID string, promoted *model.Attendee) {
	if promoted == nil {
		return
	}
	s.metrics.Promotions.Inc()
	userID := promoted.UserID
	s.dispatch.Go("schedule-reminders", func(ctx context.Context) error {
		return s.reminders.ScheduleReminders(ctx, eventID, []string{userID})
	})
	s.log.WithFields(logrus.Fields{
		"event_id": eventID,
		"user_id":  userID,
	}).Info("promoted from waitlist")
}
