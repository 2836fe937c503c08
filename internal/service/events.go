// Package service implements the scheduling core's business logic:
// conflict detection, capacity and waitlist accounting, game pod seating,
// and the event status lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/meetgrid/scheduler/internal/model"
	"github.com/meetgrid/scheduler/internal/repository"
)

// EventService orchestrates event CRUD. Creation and rescheduling are
// gated by the conflict scan; mutation is restricted to the creator.
type EventService struct {
	store     repository.Store
	conflicts *ConflictService
	validate  *validator.Validate
	log       *logrus.Logger
}

// NewEventService constructs an EventService.
func NewEventService(store repository.Store, conflicts *ConflictService, log *logrus.Logger) *EventService {
	return &EventService{
		store:     store,
		conflicts: conflicts,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       log,
	}
}

// CreateEvent validates the request, scans the creator's and invitees'
// calendars for overlaps, and inserts the event. A found conflict aborts
// with a ConflictError carrying the full conflict list.
func (s *EventService) CreateEvent(ctx context.Context, creatorID string, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.EndTime != nil && !req.EndTime.After(req.StartTime) {
		return nil, fmt.Errorf("end_time must be after start_time")
	}

	attendeeIDs := req.AttendeeIDs
	if len(attendeeIDs) == 0 {
		attendeeIDs = []string{creatorID}
	}
	check, err := s.conflicts.CheckEventConflicts(ctx, model.ConflictCheckInput{
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		CreatorID:   creatorID,
		AttendeeIDs: attendeeIDs,
	})
	if err != nil {
		return nil, err
	}
	if check.HasConflict {
		return nil, &ConflictError{Check: check}
	}

	now := time.Now().UTC()
	event := &model.Event{
		ID:             uuid.New().String(),
		Title:          req.Title,
		Description:    req.Description,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Timezone:       req.Timezone,
		Location:       req.Location,
		CreatorID:      creatorID,
		HostID:         req.HostID,
		EventType:      req.EventType,
		Status:         req.Status,
		MaxAttendees:   req.MaxAttendees,
		PlayerSlots:    req.PlayerSlots,
		AlternateSlots: req.AlternateSlots,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if event.HostID == "" {
		event.HostID = creatorID
	}
	if event.EventType == "" {
		event.EventType = model.EventTypeCommunity
	}
	if event.Status == "" {
		event.Status = model.EventStatusActive
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"creator_id": creatorID,
		"event_type": event.EventType,
	}).Info("event created")
	return event, nil
}

// GetEvent returns a single event by id.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("event id is required")
	}
	return s.store.GetEvent(ctx, id)
}

// ListUpcomingEvents returns non-cancelled events that have not started,
// with registration counts batch-loaded in a single query.
func (s *EventService) ListUpcomingEvents(ctx context.Context) ([]model.EventSummary, error) {
	events, err := s.store.ListUpcomingEvents(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	attendees, err := s.store.ListAttendeesByEventIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	confirmed := make(map[string]int)
	waitlisted := make(map[string]int)
	for _, a := range attendees {
		switch a.Status {
		case model.AttendeeStatusConfirmed:
			confirmed[a.EventID]++
		case model.AttendeeStatusWaitlist:
			waitlisted[a.EventID]++
		}
	}

	summaries := make([]model.EventSummary, len(events))
	for i, e := range events {
		summaries[i] = model.EventSummary{
			Event:          e,
			ConfirmedCount: confirmed[e.ID],
			WaitlistCount:  waitlisted[e.ID],
		}
	}
	return summaries, nil
}

// ListAttendees returns an event's registrations.
func (s *EventService) ListAttendees(ctx context.Context, eventID string) ([]model.Attendee, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListEventAttendees(ctx, eventID)
}

// UpdateEvent applies a partial update. Only the creator may update, and
// a changed time range is re-scanned for conflicts with the event itself
// excluded.
func (s *EventService) UpdateEvent(ctx context.Context, eventID, userID string, req model.UpdateEventRequest) (*model.Event, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != userID {
		return nil, ErrForbidden
	}

	rescheduled := false
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
		rescheduled = true
	}
	if req.EndTime != nil {
		event.EndTime = req.EndTime
		rescheduled = true
	}
	if event.EndTime != nil && !event.EndTime.After(event.StartTime) {
		return nil, fmt.Errorf("end_time must be after start_time")
	}
	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Timezone != nil {
		event.Timezone = *req.Timezone
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.MaxAttendees != nil {
		event.MaxAttendees = req.MaxAttendees
	}

	if rescheduled {
		check, err := s.conflicts.CheckEventConflicts(ctx, model.ConflictCheckInput{
			StartTime:      event.StartTime,
			EndTime:        event.EndTime,
			CreatorID:      event.CreatorID,
			AttendeeIDs:    []string{event.CreatorID},
			ExcludeEventID: event.ID,
		})
		if err != nil {
			return nil, err
		}
		if check.HasConflict {
			return nil, &ConflictError{Check: check}
		}
	}

	event.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// DeleteEvent removes an event. Only the creator may delete.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, userID string) error {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.CreatorID != userID {
		return ErrForbidden
	}
	return s.store.DeleteEvent(ctx, eventID)
}

// IsValidationError reports whether err came from request validation.
func IsValidationError(err error) bool {
	var verr validator.ValidationErrors
	return errors.As(err, &verr)
}
