package nodegate

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// startInvocation implements the entry half of InvocationRunner (spec.md
// §4.D steps 1-5). It launches the handler on its own goroutine, carrying
// ictx on a context.Context published via WithInvocation — the Go analog
// of "publish invocation_ctx as the current context" (spec.md §9). That
// context lives only for the lifetime of this goroutine's call stack, so
// there is nothing to explicitly unpublish and nothing for a later
// invocation on a reused worker to leak into (the task-local requirement,
// satisfied by construction rather than by an explicit clear step).
func (c *Conn) startInvocation(seq uint32, req *Request, ictx *InvocationContext, codec ServiceCodec, handler ServiceHandler, promise *Promise) {
	pending := &PendingInvocation{Seq: seq, Request: req, Ctx: ictx, Codec: codec}
	c.unfinished[seq] = pending

	var timer *time.Timer
	if c.timeoutPolicy != nil {
		if d := c.timeoutPolicy.Timeout(ictx); d > 0 {
			timer = time.NewTimer(d)
		}
	}
	pending.cancelTimeout = func() {
		if timer != nil {
			timer.Stop()
		}
	}

	go runHandler(WithInvocation(context.Background(), ictx), ictx, handler, c.executor, promise, c.logger)
	go c.awaitCompletion(seq, promise, timer)
}

// runHandler calls the service handler inside a trap for any panic or
// returned error, transferring the cause to promise (spec.md §4.D step 2).
func runHandler(goCtx context.Context, ictx *InvocationContext, handler ServiceHandler, exec BlockingExecutor, promise *Promise, logger Logger) {
	defer func() {
		if r := recover(); r != nil {
			if !promise.TryFail(&InternalError{Cause: fmt.Errorf("panic: %v", r)}) {
				logger.Warnf("invocation panicked after its promise had already completed: %v", r)
			}
		}
	}()
	if err := handler.Invoke(goCtx, ictx, exec, promise); err != nil {
		if !promise.TryFail(err) {
			logger.Debugf("invocation returned an error after its promise had already completed: %v", err)
		}
	}
}

// awaitCompletion races the promise against the per-request timeout
// (spec.md §9: "a select-style race between the invocation future and a
// sleep future, whichever completes first wins; cancellation is draining
// the loser") and posts the outcome back to the connection's own
// goroutine, which alone is allowed to mutate Connection State.
func (c *Conn) awaitCompletion(seq uint32, promise *Promise, timer *time.Timer) {
	if timer == nil {
		select {
		case <-promise.Done():
		case <-c.closed:
			return
		}
	} else {
		select {
		case <-promise.Done():
		case <-timer.C:
			// The earlier of a genuine completion and this fire is what
			// sticks; TryFail is a no-op if the promise already resolved.
			promise.TryFail(&RequestTimeoutError{})
		case <-c.closed:
			return
		}
	}

	result, cause := promise.Result()
	select {
	case c.completions <- completion{seq: seq, result: result, cause: cause}:
	case <-c.closed:
	}
}

// handleCompletion implements spec.md §4.D's completion handling, run on
// the connection's own goroutine.
func (c *Conn) handleCompletion(comp completion) {
	pending, ok := c.unfinished[comp.seq]
	if !ok {
		return // connection already shut down and drained c.unfinished
	}
	delete(c.unfinished, comp.seq)
	c.releaseDrainWaitersIfEmpty()
	pending.cancelTimeout()

	defer pending.Request.Payload.Release()

	defer func() {
		if r := recover(); r != nil {
			// spec.md §4.D: "Any exception thrown while handling the
			// invocation result is itself converted into a 500".
			c.respond(pending.Seq, pending.Request, NewErrorResponse(StatusInternalServerError))
		}
	}()

	if comp.cause == nil {
		c.respondSuccess(pending, comp.result)
		return
	}
	c.respondFailure(pending, comp.cause)
}

func (c *Conn) respondSuccess(pending *PendingInvocation, result any) {
	if res, ok := result.(*Response); ok {
		c.respond(pending.Seq, pending.Request, res)
		return
	}

	body, err := pending.Codec.EncodeResponse(pending.Ctx, result)
	if err != nil {
		c.respond(pending.Seq, pending.Request, NewErrorResponse(StatusInternalServerError))
		return
	}
	c.respond(pending.Seq, pending.Request, &Response{
		Status:  StatusOK,
		Headers: make(http.Header),
		Body:    body,
	})
}

func (c *Conn) respondFailure(pending *PendingInvocation, cause error) {
	body, err := pending.Codec.EncodeFailureResponse(pending.Ctx, cause)
	if err != nil {
		c.respond(pending.Seq, pending.Request, NewErrorResponse(StatusInternalServerError))
		return
	}

	status := StatusOK
	if pending.Codec.FailureResponseFailsSession(pending.Ctx) {
		status = ClassifyFailure(cause)
	}
	c.respond(pending.Seq, pending.Request, &Response{
		Status:  status,
		Headers: make(http.Header),
		Body:    body,
	})
}
