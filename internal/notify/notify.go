// Package notify holds the contracts for the reminder and notification
// collaborators, plus the dispatcher used to run them as best-effort side
// effects. Delivery itself lives outside this service; the core only
// talks to these interfaces.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Kind classifies an attendee notification.
type Kind string

const (
	KindEventStatusChanged Kind = "event_status_changed"
	KindPodFilled          Kind = "pod_filled"
	KindPodAlmostFull      Kind = "pod_almost_full"
)

// ReminderScheduler schedules and cancels event reminders for users.
// Both operations are best-effort from the caller's point of view.
type ReminderScheduler interface {
	ScheduleReminders(ctx context.Context, eventID string, userIDs []string) error
	CancelUserReminders(ctx context.Context, eventID, userID string) error
}

// Notifier delivers a notification to a set of users.
type Notifier interface {
	NotifyUsers(ctx context.Context, eventID string, userIDs []string, kind Kind, message string) error
}

// LogScheduler is a ReminderScheduler that only records intent. It stands
// in until the reminder pipeline is wired to a delivery backend.
type LogScheduler struct {
	Log *logrus.Logger
}

func (s *LogScheduler) ScheduleReminders(_ context.Context, eventID string, userIDs []string) error {
	s.Log.WithFields(logrus.Fields{
		"event_id": eventID,
		"users":    len(userIDs),
	}).Info("reminders scheduled")
	return nil
}

func (s *LogScheduler) CancelUserReminders(_ context.Context, eventID, userID string) error {
	s.Log.WithFields(logrus.Fields{
		"event_id": eventID,
		"user_id":  userID,
	}).Info("reminders cancelled")
	return nil
}

// LogNotifier is a Notifier that only records intent.
type LogNotifier struct {
	Log *logrus.Logger
}

func (n *LogNotifier) NotifyUsers(_ context.Context, eventID string, userIDs []string, kind Kind, message string) error {
	n.Log.WithFields(logrus.Fields{
		"event_id": eventID,
		"users":    len(userIDs),
		"kind":     kind,
	}).Info(message)
	return nil
}
