package schedule

import (
	"context"
	"time"
)

// Every calls fn now and then once per interval until ctx is done. The
// returned channel is closed when the loop has exited.
func Every(ctx context.Context, interval time.Duration, fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return done
}
