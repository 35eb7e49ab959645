package nodegate

import "context"

// Drain waits for every invocation in flight on this connection to
// complete, or for goCtx to expire, whichever comes first (SPEC_FULL.md
// §3: a supplemental graceful-shutdown feature present in the original
// source as the `unfinishedRequests` bookkeeping, dropped from spec.md's
// distillation but restored here since it is ordinary ambient behavior
// for a connection dispatcher). Callers typically call Drain before Close
// when shutting a listener down cleanly.
func (c *Conn) Drain(goCtx context.Context) error {
	waiter := make(chan struct{})
	select {
	case c.drainSignal <- waiter:
	case <-c.closed:
		return nil
	case <-goCtx.Done():
		return goCtx.Err()
	}

	select {
	case <-waiter:
		return nil
	case <-goCtx.Done():
		return goCtx.Err()
	case <-c.closed:
		return nil
	}
}

// handleDrainRequest runs on the connection's own goroutine.
func (c *Conn) handleDrainRequest(waiter chan struct{}) {
	c.draining = true
	if len(c.unfinished) == 0 {
		close(waiter)
		return
	}
	c.drainWaiters = append(c.drainWaiters, waiter)
}

// releaseDrainWaitersIfEmpty wakes any pending Drain callers once the last
// in-flight invocation on this connection has completed.
func (c *Conn) releaseDrainWaitersIfEmpty() {
	if !c.draining || len(c.unfinished) != 0 {
		return
	}
	for _, w := range c.drainWaiters {
		close(w)
	}
	c.drainWaiters = nil
}
