// Package poller runs cancellable periodic tasks
package poller

import (
	"context"
	"sync"
	"time"
)

// Task is a function scheduled at a fixed interval until stopped
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start runs fn every interval until the task is stopped or parent is cancelled.
// The first run happens after one interval. fn receives a context that is
// cancelled when the task stops.
func Start(parent context.Context, interval time.Duration, fn func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// A tick racing with Stop must not run
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()

	return t
}

// Stop cancels the task and waits for a running tick to return.
// It is safe to call on a nil task and more than once.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.once.Do(t.cancel)
	<-t.done
}

// Done is closed once the task has stopped
func (t *Task) Done() <-chan struct{} {
	return t.done
}
