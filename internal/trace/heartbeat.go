package trace

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits periodic events while a long operation (typically a remote
// load) is in flight. Heartbeats without a following span end point at the
// stage that is stuck.
type Heartbeat struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// StartHeartbeat starts emitting heartbeats every interval until Stop is
// called or ctx is done. It returns nil when tracing is off.
func StartHeartbeat(ctx context.Context, tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Heartbeat{cancel: cancel}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		n := 0
		for {
			select {
			case <-ticker.C:
				n++
				tracer.Emit(&Event{
					Time:   time.Now(),
					Kind:   KindHeartbeat,
					Scope:  ScopeDriver,
					Name:   "heartbeat",
					Detail: fmt.Sprintf("#%d", n),
				})
			case <-ctx.Done():
				return
			}
		}
	}()
	return h
}

// Stop stops the heartbeat and waits for its goroutine to exit.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	h.wg.Wait()
}
