package httpx

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum interval between consecutive requests.
type Throttle struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewThrottle returns a throttle; an interval <= 0 disables waiting.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval, now: time.Now}
}

// Wait blocks until the next request may be sent or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.interval <= 0 {
		return ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if d := t.last.Add(t.interval).Sub(t.now()); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	t.last = t.now()
	return nil
}
