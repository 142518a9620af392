package modal

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ephemeralHeartbeatInterval is how often an ephemeral object (Volume,
// Queue, Dict) pings the server to keep itself alive past its owning
// process's lifetime expectations.
const ephemeralHeartbeatInterval = 300 * time.Second

// heartbeatFunc performs one keep-alive ping; failures are logged, not
// fatal, since a single missed beat should not tear down the object.
type heartbeatFunc func(ctx context.Context) error

// ephemeralHandle runs a heartbeatFunc on a fixed interval in the
// background for as long as the handle is alive, and stops cleanly and
// exactly once when Close is called — mirroring the teacher's executor
// job-heartbeat goroutine in agent/internal/executor, generalized from one
// job's liveness ping to any ephemeral server-side object's.
type ephemeralHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// startEphemeralHeartbeat launches the background ping loop. The goroutine
// it starts never blocks process exit: stopping it only requires closing
// the returned handle, and the loop itself never performs any action that
// cannot be interrupted by context cancellation.
func startEphemeralHeartbeat(logger *zap.Logger, name string, beat heartbeatFunc) *ephemeralHandle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &ephemeralHandle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(ephemeralHeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := beat(ctx); err != nil {
					logger.Warn("ephemeral heartbeat failed", zap.String("object", name), zap.Error(err))
				}
			}
		}
	}()

	return h
}

// Close stops the heartbeat loop. Safe to call more than once or
// concurrently; only the first call has any effect.
func (h *ephemeralHandle) Close() {
	h.once.Do(func() {
		h.cancel()
		<-h.done
	})
}
