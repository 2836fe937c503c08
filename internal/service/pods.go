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

// PodService manages fixed-position seating for game pod events: player
// and alternate seats with automatic promotion, position swaps, and the
// downstream game session record. Session bookkeeping is best-effort;
// seat mutations succeed independently of it.
type PodService struct {
	store    repository.Store
	notifier notify.Notifier
	dispatch *notify.Dispatcher
	metrics  *metrics.Metrics
	log      *logrus.Logger
}

// NewPodService constructs a PodService.
func NewPodService(store repository.Store, notifier notify.Notifier, dispatch *notify.Dispatcher, m *metrics.Metrics, log *logrus.Logger) *PodService {
	return &PodService{store: store, notifier: notifier, dispatch: dispatch, metrics: m, log: log}
}

// GetAvailableSlots counts filled seats per slot type.
func (s *PodService) GetAvailableSlots(ctx context.Context, eventID string) (*model.SlotAvailability, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	av := &model.SlotAvailability{EventID: eventID}
	players, err := s.store.ListSlotHolders(ctx, eventID, model.SlotTypePlayer)
	if err != nil {
		return nil, err
	}
	av.Player = model.SlotCount{
		Total:     event.PlayerSlots,
		Filled:    len(players),
		Available: event.PlayerSlots - len(players),
	}

	alternates, err := s.store.ListSlotHolders(ctx, eventID, model.SlotTypeAlternate)
	if err != nil {
		return nil, err
	}
	av.Alternate = model.SlotCount{
		Total:     event.AlternateSlots,
		Filled:    len(alternates),
		Available: event.AlternateSlots - len(alternates),
	}

	spectators, err := s.store.ListSlotHolders(ctx, eventID, model.SlotTypeSpectator)
	if err != nil {
		return nil, err
	}
	av.Spectator.Filled = len(spectators)
	return av, nil
}

// AssignPlayerSlot seats a user as a player. With no explicit position
// the lowest unused seat is taken; an explicit position must be free and
// within [1, playerSlots]. Filling the final seat creates the game
// session and notifies the pod.
func (s *PodService) AssignPlayerSlot(ctx context.Context, eventID, userID string, position *int) (*model.SlotAssignmentResult, error) {
	var (
		attendee   *model.Attendee
		filled     int
		podSize    int
		podUserIDs []string
	)

	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if event.PlayerSlots <= 0 {
			return fmt.Errorf("event %s has no player seating configured", eventID)
		}
		podSize = event.PlayerSlots

		players, err := tx.ListSlotHolders(ctx, eventID, model.SlotTypePlayer)
		if err != nil {
			return err
		}
		if len(players) >= event.PlayerSlots {
			return ErrNoSlotsAvailable
		}

		occupied := make(map[int]bool, len(players))
		for _, p := range players {
			if p.SlotPosition != nil {
				occupied[*p.SlotPosition] = true
			}
			podUserIDs = append(podUserIDs, p.UserID)
		}

		var seat int
		if position != nil {
			if *position < 1 || *position > event.PlayerSlots {
				return ErrInvalidPosition
			}
			if occupied[*position] {
				return ErrPositionOccupied
			}
			seat = *position
		} else {
			for p := 1; p <= event.PlayerSlots; p++ {
				if !occupied[p] {
					seat = p
					break
				}
			}
		}

		attendee, err = s.upsertSeat(ctx, tx, eventID, userID, model.SlotTypePlayer, seat, model.AttendeeStatusConfirmed)
		if err != nil {
			return err
		}
		podUserIDs = append(podUserIDs, userID)
		filled = len(players) + 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SlotAssignments.WithLabelValues(string(model.SlotTypePlayer)).Inc()
	switch {
	case filled == podSize:
		s.dispatch.Go("create-game-session", func(ctx context.Context) error {
			return s.checkAndCreateGameSession(ctx, eventID)
		})
		s.notifyPod(eventID, podUserIDs, notify.KindPodFilled, "all player slots are filled")
	case filled == podSize-1:
		s.notifyPod(eventID, podUserIDs, notify.KindPodAlmostFull, "one player slot remaining")
	}

	return &model.SlotAssignmentResult{
		Success:  true,
		Attendee: attendee,
		Message:  fmt.Sprintf("assigned player slot %d", *attendee.SlotPosition),
	}, nil
}

// AssignAlternateSlot seats a user as an alternate at the lowest free
// position. Alternates hold waitlist status until promoted.
func (s *PodService) AssignAlternateSlot(ctx context.Context, eventID, userID string) (*model.SlotAssignmentResult, error) {
	var attendee *model.Attendee

	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if event.AlternateSlots <= 0 {
			return ErrNoAlternateSlots
		}

		alternates, err := tx.ListSlotHolders(ctx, eventID, model.SlotTypeAlternate)
		if err != nil {
			return err
		}
		if len(alternates) >= event.AlternateSlots {
			return ErrNoAlternateSlots
		}

		occupied := make(map[int]bool, len(alternates))
		for _, a := range alternates {
			if a.SlotPosition != nil {
				occupied[*a.SlotPosition] = true
			}
		}
		var seat int
		for p := 1; p <= event.AlternateSlots; p++ {
			if !occupied[p] {
				seat = p
				break
			}
		}

		attendee, err = s.upsertSeat(ctx, tx, eventID, userID, model.SlotTypeAlternate, seat, model.AttendeeStatusWaitlist)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SlotAssignments.WithLabelValues(string(model.SlotTypeAlternate)).Inc()
	return &model.SlotAssignmentResult{
		Success:  true,
		Attendee: attendee,
		Message:  fmt.Sprintf("assigned alternate slot %d", *attendee.SlotPosition),
	}, nil
}

// PromoteAlternate moves the lowest-positioned alternate into the given
// player position. The target position must be free.
func (s *PodService) PromoteAlternate(ctx context.Context, eventID string, position int) (*model.SlotAssignmentResult, error) {
	var promoted *model.Attendee

	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		p, err := s.promoteAlternateLocked(ctx, tx, event, position)
		if err != nil {
			return err
		}
		promoted = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterSeatChange(eventID)
	return &model.SlotAssignmentResult{
		Success:  true,
		Attendee: promoted,
		Message:  fmt.Sprintf("promoted alternate to player slot %d", position),
	}, nil
}

// SwapPlayerPositions exchanges the seat positions of two players.
func (s *PodService) SwapPlayerPositions(ctx context.Context, eventID, userID1, userID2 string) error {
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		if _, err := tx.GetEventForUpdate(ctx, eventID); err != nil {
			return err
		}

		first, err := s.getSeatedPlayer(ctx, tx, eventID, userID1)
		if err != nil {
			return err
		}
		second, err := s.getSeatedPlayer(ctx, tx, eventID, userID2)
		if err != nil {
			return err
		}

		pos1, pos2 := *first.SlotPosition, *second.SlotPosition

		// Park the first player off-board so the position uniqueness
		// constraint holds at every step of the exchange.
		first.SlotPosition = nil
		if err := tx.UpdateAttendee(ctx, first); err != nil {
			return err
		}
		second.SlotPosition = &pos1
		if err := tx.UpdateAttendee(ctx, second); err != nil {
			return err
		}
		first.SlotPosition = &pos2
		return tx.UpdateAttendee(ctx, first)
	})
	if err != nil {
		return err
	}

	s.afterSeatChange(eventID)
	return nil
}

// RemovePlayerSlot cancels a player's registration and tries to promote
// the first alternate into the vacated position. The cancelled row keeps
// its slot type and position for audit; occupancy checks filter on
// status, so the stale position never reads as taken.
func (s *PodService) RemovePlayerSlot(ctx context.Context, eventID, userID string) error {
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		attendee, err := s.getSeatedPlayer(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		vacated := *attendee.SlotPosition

		attendee.Status = model.AttendeeStatusCancelled
		attendee.WaitlistPosition = nil
		if err := tx.UpdateAttendee(ctx, attendee); err != nil {
			return err
		}

		if _, err := s.promoteAlternateLocked(ctx, tx, event, vacated); err != nil {
			if errors.Is(err, ErrNoAlternates) {
				s.log.WithFields(logrus.Fields{
					"event_id": eventID,
					"position": vacated,
				}).Info("no alternate available for vacated seat")
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterSeatChange(eventID)
	return nil
}

// upsertSeat writes the seat assignment onto the user's registration row,
// reactivating a cancelled or declined row when one exists.
func (s *PodService) upsertSeat(ctx context.Context, tx repository.Store, eventID, userID string, slot model.SlotType, position int, status model.AttendeeStatus) (*model.Attendee, error) {
	now := time.Now().UTC()

	existing, err := tx.GetAttendee(ctx, eventID, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Active() && existing.SlotType == slot {
		return nil, ErrAlreadyRegistered
	}

	attendee := existing
	if attendee == nil {
		attendee = &model.Attendee{
			ID:           uuid.New().String(),
			EventID:      eventID,
			UserID:       userID,
			RegisteredAt: now,
		}
	}
	attendee.Status = status
	attendee.SlotType = slot
	attendee.SlotPosition = &position
	attendee.WaitlistPosition = nil
	attendee.AssignedAt = &now

	if existing != nil {
		if err := tx.UpdateAttendee(ctx, attendee); err != nil {
			return nil, err
		}
	} else if err := tx.CreateAttendee(ctx, attendee); err != nil {
		return nil, err
	}
	return attendee, nil
}

// promoteAlternateLocked reassigns the lowest-positioned alternate to the
// target player position inside an already-open transaction.
func (s *PodService) promoteAlternateLocked(ctx context.Context, tx repository.Store, event *model.Event, position int) (*model.Attendee, error) {
	if position < 1 || position > event.PlayerSlots {
		return nil, ErrInvalidPosition
	}

	players, err := tx.ListSlotHolders(ctx, event.ID, model.SlotTypePlayer)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if p.SlotPosition != nil && *p.SlotPosition == position {
			return nil, ErrPositionOccupied
		}
	}

	alternates, err := tx.ListSlotHolders(ctx, event.ID, model.SlotTypeAlternate)
	if err != nil {
		return nil, err
	}
	if len(alternates) == 0 {
		return nil, ErrNoAlternates
	}

	now := time.Now().UTC()
	promoted := alternates[0]
	promoted.SlotType = model.SlotTypePlayer
	promoted.SlotPosition = &position
	promoted.Status = model.AttendeeStatusConfirmed
	promoted.WaitlistPosition = nil
	promoted.AssignedAt = &now
	if err := tx.UpdateAttendee(ctx, &promoted); err != nil {
		return nil, err
	}
	return &promoted, nil
}

// getSeatedPlayer loads a user's registration and verifies they hold an
// active player seat.
func (s *PodService) getSeatedPlayer(ctx context.Context, tx repository.Store, eventID, userID string) (*model.Attendee, error) {
	attendee, err := tx.GetAttendee(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	if !attendee.Active() || attendee.SlotType != model.SlotTypePlayer || attendee.SlotPosition == nil {
		return nil, ErrNotRegistered
	}
	return attendee, nil
}

// checkAndCreateGameSession creates the downstream game session once all
// player slots fill. Idempotent: an existing session short-circuits.
func (s *PodService) checkAndCreateGameSession(ctx context.Context, eventID string) error {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	players, err := s.store.ListSlotHolders(ctx, eventID, model.SlotTypePlayer)
	if err != nil {
		return err
	}
	if len(players) < event.PlayerSlots {
		return nil
	}

	if _, err := s.store.GetGameSession(ctx, eventID); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	now := time.Now().UTC()
	return s.store.CreateGameSession(ctx, &model.GameSession{
		ID:              uuid.New().String(),
		EventID:         eventID,
		Status:          model.GameSessionWaiting,
		PlayerPositions: seating(players),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// updateGameSession rewrites the session's seating snapshot from the
// current player roster, creating the session if the pod has since
// filled.
func (s *PodService) updateGameSession(ctx context.Context, eventID string) error {
	session, err := s.store.GetGameSession(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.checkAndCreateGameSession(ctx, eventID)
		}
		return err
	}

	players, err := s.store.ListSlotHolders(ctx, eventID, model.SlotTypePlayer)
	if err != nil {
		return err
	}
	session.PlayerPositions = seating(players)
	session.UpdatedAt = time.Now().UTC()
	return s.store.UpdateGameSession(ctx, session)
}

// afterSeatChange dispatches the best-effort session sync that follows
// any committed seat mutation.
func (s *PodService) afterSeatChange(eventID string) {
	s.dispatch.Go("update-game-session", func(ctx context.Context) error {
		return s.updateGameSession(ctx, eventID)
	})
}

// notifyPod dispatches a best-effort notification to the pod's players.
func (s *PodService) notifyPod(eventID string, userIDs []string, kind notify.Kind, message string) {
	ids := append([]string(nil), userIDs...)
	s.dispatch.Go("notify-pod", func(ctx context.Context) error {
		return s.notifier.NotifyUsers(ctx, eventID, ids, kind, message)
	})
}

func seating(players []model.Attendee) []model.PlayerPosition {
	positions := make([]model.PlayerPosition, 0, len(players))
	for _, p := range players {
		if p.SlotPosition == nil {
			continue
		}
		positions = append(positions, model.PlayerPosition{UserID: p.UserID, Position: *p.SlotPosition})
	}
	return positions
}
