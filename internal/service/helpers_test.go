package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/meetgrid/scheduler/internal/metrics"
	"github.com/meetgrid/scheduler/internal/notify"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// fakeReminders records reminder calls for assertions.
type fakeReminders struct {
	mu        sync.Mutex
	scheduled map[string][]string // eventID -> userIDs
	cancelled map[string][]string
	err       error
}

func newFakeReminders() *fakeReminders {
	return &fakeReminders{
		scheduled: make(map[string][]string),
		cancelled: make(map[string][]string),
	}
}

func (f *fakeReminders) ScheduleReminders(_ context.Context, eventID string, userIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.scheduled[eventID] = append(f.scheduled[eventID], userIDs...)
	return nil
}

func (f *fakeReminders) CancelUserReminders(_ context.Context, eventID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.cancelled[eventID] = append(f.cancelled[eventID], userID)
	return nil
}

func (f *fakeReminders) scheduledFor(eventID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	cancelled := make(map[string]bool, len(f.cancelled[eventID]))
	for _, u := range f.cancelled[eventID] {
		cancelled[u] = true
	}
	var out []string
	for _, u := range f.scheduled[eventID] {
		if !cancelled[u] {
			out = append(out, u)
		}
	}
	return out
}

// fakeNotifier records notifications for assertions.
type fakeNotifier struct {
	mu    sync.Mutex
	kinds []notify.Kind
}

func (f *fakeNotifier) NotifyUsers(_ context.Context, _ string, _ []string, kind notify.Kind, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	return nil
}

func (f *fakeNotifier) sent() []notify.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Kind(nil), f.kinds...)
}

func ts(hour int) time.Time {
	return time.Date(2026, time.March, 14, hour, 0, 0, 0, time.UTC)
}

func tsp(hour int) *time.Time {
	t := ts(hour)
	return &t
}

func intp(n int) *int { return &n }

func strp(s string) *string { return &s }
