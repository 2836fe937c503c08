package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Dispatcher runs fire-and-forget side effects (reminder scheduling,
// notifications, session bookkeeping) off the request path. A failed task
// is logged with context and never surfaces to the operation that
// dispatched it.
type Dispatcher struct {
	log     *logrus.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher. Tasks get a detached context
// with a 30 second deadline so a slow collaborator cannot leak goroutines.
func NewDispatcher(log *logrus.Logger) *Dispatcher {
	return &Dispatcher{log: log, timeout: 30 * time.Second}
}

// Go runs fn on its own goroutine. The task name appears in the failure
// log entry.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.WithField("task", name).Errorf("background task panicked: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			d.log.WithError(err).WithField("task", name).Warn("background task failed")
		}
	}()
}

// Wait blocks until all dispatched tasks finish. Called on shutdown and
// by tests that assert on side effects.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
