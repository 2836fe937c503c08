package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetgrid/scheduler/internal/model"
	"github.com/meetgrid/scheduler/internal/repository"
)

func newEventFixture() (*EventService, *fakeStore) {
	store := newFakeStore()
	conflicts := NewConflictService(store, testMetrics(), testLogger())
	return NewEventService(store, conflicts, testLogger()), store
}

func TestCreateEvent_Defaults(t *testing.T) {
	svc, store := newEventFixture()

	event, err := svc.CreateEvent(context.Background(), "alice", model.CreateEventRequest{
		Title:     "  Casual Meetup  ",
		StartTime: ts(18),
	})
	require.NoError(t, err)
	assert.Equal(t, "Casual Meetup", event.Title)
	assert.Equal(t, "alice", event.CreatorID)
	assert.Equal(t, "alice", event.HostID)
	assert.Equal(t, model.EventTypeCommunity, event.EventType)
	assert.Equal(t, model.EventStatusActive, event.Status)
	assert.Nil(t, event.MaxAttendees)
	assert.True(t, event.Unlimited())

	stored, err := store.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, stored.ID)
}

func TestCreateEvent_Validation(t *testing.T) {
	svc, _ := newEventFixture()

	_, err := svc.CreateEvent(context.Background(), "alice", model.CreateEventRequest{
		StartTime: ts(18),
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err), "missing title")

	_, err = svc.CreateEvent(context.Background(), "alice", model.CreateEventRequest{
		Title: "Past-ended", StartTime: ts(18), EndTime: tsp(17),
	})
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "end_time")

	_, err = svc.CreateEvent(context.Background(), "alice", model.CreateEventRequest{
		Title: "Zero cap", StartTime: ts(18), MaxAttendees: intp(0),
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err), "max_attendees below 1")
}

func TestCreateEvent_CreatorConflictRejected(t *testing.T) {
	svc, store := newEventFixture()
	store.addEvent(model.Event{
		ID: "existing", Title: "Prior Commitment", CreatorID: "alice",
		StartTime: ts(18), EndTime: tsp(20), Status: model.EventStatusActive,
	})

	_, err := svc.CreateEvent(context.Background(), "alice", model.CreateEventRequest{
		Title: "Double Booked", StartTime: ts(19), EndTime: tsp(21),
	})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	require.Len(t, cerr.Check.ConflictingEvents, 1)
	assert.Equal(t, "existing", cerr.Check.ConflictingEvents[0].EventID)
}

func TestCreateEvent_InviteeConflictRejected(t *testing.T) {
	svc, store := newEventFixture()
	store.addEvent(model.Event{
		ID: "existing", CreatorID: "host",
		StartTime: ts(18), EndTime: tsp(20), Status: model.EventStatusActive,
	})
	addAttendee(store, "existing", "bob", model.AttendeeStatusConfirmed)

	_, err := svc.CreateEvent(context.Background(), "alice", model.CreateEventRequest{
		Title: "Overlapping Invite", StartTime: ts(19),
		AttendeeIDs: []string{"bob"},
	})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, model.ConflictTypeAttendee, cerr.Check.ConflictingEvents[0].ConflictType)
}

func TestUpdateEvent(t *testing.T) {
	svc, store := newEventFixture()
	store.addEvent(model.Event{
		ID: "e1", Title: "Original", CreatorID: "alice",
		StartTime: ts(18), EndTime: tsp(20), Status: model.EventStatusActive,
	})

	updated, err := svc.UpdateEvent(context.Background(), "e1", "alice", model.UpdateEventRequest{
		Title:        strp("Renamed"),
		MaxAttendees: intp(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 10, *updated.MaxAttendees)
	assert.Equal(t, ts(18), updated.StartTime, "unset fields stay put")
}

func TestUpdateEvent_OnlyCreator(t *testing.T) {
	svc, store := newEventFixture()
	store.addEvent(model.Event{
		ID: "e1", CreatorID: "alice", StartTime: ts(18),
		Status: model.EventStatusActive,
	})

	_, err := svc.UpdateEvent(context.Background(), "e1", "mallory", model.UpdateEventRequest{
		Title: strp("Hijacked"),
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateEvent_RescheduleChecksConflicts(t *testing.T) {
	svc, store := newEventFixture()
	store.addEvent(model.Event{
		ID: "e1", CreatorID: "alice",
		StartTime: ts(10), EndTime: tsp(12), Status: model.EventStatusActive,
	})
	store.addEvent(model.Event{
		ID: "e2", CreatorID: "alice",
		StartTime: ts(14), EndTime: tsp(16), Status: model.EventStatusActive,
	})

	// Shifting within free time passes; the event never conflicts with itself.
	_, err := svc.UpdateEvent(context.Background(), "e1", "alice", model.UpdateEventRequest{
		StartTime: tsp(11), EndTime: tsp(13),
	})
	require.NoError(t, err)

	// Shifting onto the other event is rejected.
	_, err = svc.UpdateEvent(context.Background(), "e1", "alice", model.UpdateEventRequest{
		StartTime: tsp(15), EndTime: tsp(17),
	})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "e2", cerr.Check.ConflictingEvents[0].EventID)
}

func TestDeleteEvent(t *testing.T) {
	svc, store := newEventFixture()
	store.addEvent(model.Event{
		ID: "e1", CreatorID: "alice", StartTime: ts(18),
		Status: model.EventStatusActive,
	})

	assert.ErrorIs(t, svc.DeleteEvent(context.Background(), "e1", "mallory"), ErrForbidden)
	require.NoError(t, svc.DeleteEvent(context.Background(), "e1", "alice"))

	_, err := store.GetEvent(context.Background(), "e1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteEvent(context.Background(), "e1", "alice"), repository.ErrNotFound)
}

func TestListUpcomingEvents_Counts(t *testing.T) {
	svc, store := newEventFixture()
	soon := time.Now().UTC().Add(time.Hour)
	later := soon.Add(2 * time.Hour)
	store.addEvent(model.Event{
		ID: "e1", CreatorID: "host", StartTime: soon,
		Status: model.EventStatusActive,
	})
	store.addEvent(model.Event{
		ID: "e2", CreatorID: "host", StartTime: later,
		Status: model.EventStatusActive,
	})
	addAttendee(store, "e1", "alice", model.AttendeeStatusConfirmed)
	addAttendee(store, "e1", "bob", model.AttendeeStatusConfirmed)
	addAttendee(store, "e1", "carol", model.AttendeeStatusWaitlist)
	addAttendee(store, "e1", "dave", model.AttendeeStatusCancelled)

	summaries, err := svc.ListUpcomingEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "e1", summaries[0].ID, "ordered by start time")
	assert.Equal(t, 2, summaries[0].ConfirmedCount)
	assert.Equal(t, 1, summaries[0].WaitlistCount)
	assert.Equal(t, 0, summaries[1].ConfirmedCount)
}

func TestListAttendees(t *testing.T) {
	svc, store := newEventFixture()
	store.addEvent(model.Event{
		ID: "e1", CreatorID: "alice", StartTime: ts(18),
		Status: model.EventStatusActive,
	})
	addAttendee(store, "e1", "bob", model.AttendeeStatusConfirmed)
	addAttendee(store, "e1", "carol", model.AttendeeStatusWaitlist)

	attendees, err := svc.ListAttendees(context.Background(), "e1")
	require.NoError(t, err)
	assert.Len(t, attendees, 2)

	_, err = svc.ListAttendees(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
