package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meetgrid/scheduler/internal/model"
	"github.com/meetgrid/scheduler/internal/repository"
)

// memStore is an in-memory repository.Store used as the storage test
// double. Data methods carry no locking of their own; fakeStore wraps
// Atomic in a mutex so transactional flows serialize the way the
// row-locked Postgres implementation does.
type memStore struct {
	events    map[string]*model.Event
	attendees map[string]*model.Attendee // keyed by row id
	sessions  map[string]*model.GameSession
	history   map[string][]model.EventStatusChange

	listCreatedErr    error // injected ListCreatedEvents failure
	listAttendanceErr error // injected ListUserAttendance failure
}

func newMemStore() *memStore {
	return &memStore{
		events:    make(map[string]*model.Event),
		attendees: make(map[string]*model.Attendee),
		sessions:  make(map[string]*model.GameSession),
		history:   make(map[string][]model.EventStatusChange),
	}
}

// fakeStore adds transaction-level mutual exclusion on top of memStore.
type fakeStore struct {
	mu sync.Mutex
	*memStore
}

func newFakeStore() *fakeStore {
	return &fakeStore{memStore: newMemStore()}
}

func (f *fakeStore) Atomic(_ context.Context, fn func(repository.Store) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f.memStore)
}

func (f *fakeStore) addEvent(e model.Event) *model.Event {
	cp := e
	f.events[e.ID] = &cp
	return &cp
}

// events

func (m *memStore) Atomic(_ context.Context, fn func(repository.Store) error) error {
	return fn(m)
}

func (m *memStore) CreateEvent(_ context.Context, e *model.Event) error {
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m *memStore) GetEvent(_ context.Context, id string) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) GetEventForUpdate(ctx context.Context, id string) (*model.Event, error) {
	return m.GetEvent(ctx, id)
}

func (m *memStore) UpdateEvent(_ context.Context, e *model.Event) error {
	if _, ok := m.events[e.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m *memStore) SetEventStatus(_ context.Context, id string, status model.EventStatus) error {
	e, ok := m.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Status = status
	return nil
}

func (m *memStore) DeleteEvent(_ context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.events, id)
	for rowID, a := range m.attendees {
		if a.EventID == id {
			delete(m.attendees, rowID)
		}
	}
	delete(m.sessions, id)
	delete(m.history, id)
	return nil
}

func (m *memStore) ListUpcomingEvents(_ context.Context, from time.Time) ([]model.Event, error) {
	var out []model.Event
	for _, e := range m.events {
		if !e.StartTime.Before(from) && e.Status != model.EventStatusCancelled {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memStore) ListCreatedEvents(_ context.Context, creatorID string) ([]model.Event, error) {
	if m.listCreatedErr != nil {
		return nil, m.listCreatedErr
	}
	var out []model.Event
	for _, e := range m.events {
		if e.CreatorID == creatorID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memStore) ListDraftEventsDue(_ context.Context, now time.Time) ([]model.Event, error) {
	var out []model.Event
	for _, e := range m.events {
		if e.Status == model.EventStatusDraft && !e.StartTime.After(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memStore) ListActiveEventsEnded(_ context.Context, now time.Time) ([]model.Event, error) {
	var out []model.Event
	for _, e := range m.events {
		if e.Status != model.EventStatusActive {
			continue
		}
		if !effectiveEnd(e.StartTime, e.EndTime).After(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

// attendees

func (m *memStore) GetAttendee(_ context.Context, eventID, userID string) (*model.Attendee, error) {
	for _, a := range m.attendees {
		if a.EventID == eventID && a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) CreateAttendee(_ context.Context, a *model.Attendee) error {
	cp := *a
	m.attendees[a.ID] = &cp
	return nil
}

func (m *memStore) UpdateAttendee(_ context.Context, a *model.Attendee) error {
	if _, ok := m.attendees[a.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *a
	m.attendees[a.ID] = &cp
	return nil
}

func (m *memStore) ListEventAttendees(_ context.Context, eventID string) ([]model.Attendee, error) {
	var out []model.Attendee
	for _, a := range m.attendees {
		if a.EventID == eventID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (m *memStore) ListAttendeesByEventIDs(_ context.Context, eventIDs []string) ([]model.Attendee, error) {
	ids := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		ids[id] = true
	}
	var out []model.Attendee
	for _, a := range m.attendees {
		if ids[a.EventID] {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) ListUserAttendance(_ context.Context, userID string) ([]model.Attendance, error) {
	if m.listAttendanceErr != nil {
		return nil, m.listAttendanceErr
	}
	var out []model.Attendance
	for _, a := range m.attendees {
		if a.UserID != userID || a.Status != model.AttendeeStatusConfirmed {
			continue
		}
		e, ok := m.events[a.EventID]
		if !ok || e.Status == model.EventStatusCancelled {
			continue
		}
		out = append(out, model.Attendance{
			EventID:    e.ID,
			EventTitle: e.Title,
			StartTime:  e.StartTime,
			EndTime:    e.EndTime,
			Status:     a.Status,
		})
	}
	return out, nil
}

func (m *memStore) CountAttendees(_ context.Context, eventID string, status model.AttendeeStatus) (int, error) {
	n := 0
	for _, a := range m.attendees {
		if a.EventID == eventID && a.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListWaitlist(_ context.Context, eventID string) ([]model.Attendee, error) {
	var out []model.Attendee
	for _, a := range m.attendees {
		if a.EventID == eventID && a.Status == model.AttendeeStatusWaitlist && a.SlotType == model.SlotTypeNone {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].WaitlistPosition, out[j].WaitlistPosition
		switch {
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return *pi < *pj
		}
	})
	return out, nil
}

func (m *memStore) ListSlotHolders(_ context.Context, eventID string, slot model.SlotType) ([]model.Attendee, error) {
	var out []model.Attendee
	for _, a := range m.attendees {
		if a.EventID == eventID && a.SlotType == slot && a.Active() {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].SlotPosition, out[j].SlotPosition
		switch {
		case pi == nil && pj == nil:
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return *pi < *pj
		}
	})
	return out, nil
}

// sessions and history

func (m *memStore) GetGameSession(_ context.Context, eventID string) (*model.GameSession, error) {
	s, ok := m.sessions[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) CreateGameSession(_ context.Context, s *model.GameSession) error {
	cp := *s
	m.sessions[s.EventID] = &cp
	return nil
}

func (m *memStore) UpdateGameSession(_ context.Context, s *model.GameSession) error {
	if _, ok := m.sessions[s.EventID]; !ok {
		return repository.ErrNotFound
	}
	cp := *s
	m.sessions[s.EventID] = &cp
	return nil
}

func (m *memStore) AppendStatusHistory(_ context.Context, h *model.EventStatusChange) error {
	m.history[h.EventID] = append(m.history[h.EventID], *h)
	return nil
}

func (m *memStore) ListStatusHistory(_ context.Context, eventID string) ([]model.EventStatusChange, error) {
	return m.history[eventID], nil
}
