package nodegate

import (
	"context"
	"sync"
	"time"
)

// Promise is the Go analog of the teacher's promise+listener pattern
// (spec.md §9): a single-assignment completion cell a service handler
// fulfills asynchronously, possibly from a different goroutine or
// executor, and InvocationRunner selects on via Done().
type Promise struct {
	done   chan struct{}
	once   sync.Once
	result any
	cause  error
}

// NewPromise returns an unresolved Promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Done returns a channel closed once the promise is resolved, for use in a
// select alongside a timeout or a connection-close signal.
func (p *Promise) Done() <-chan struct{} { return p.done }

// IsDone reports whether the promise has already resolved.
func (p *Promise) IsDone() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// TryComplete resolves the promise with a successful result. Returns false
// if the promise was already resolved (spec.md §4.D: "Logging occurs only
// if the promise was already completed").
func (p *Promise) TryComplete(result any) bool {
	resolved := false
	p.once.Do(func() {
		p.result = result
		close(p.done)
		resolved = true
	})
	return resolved
}

// TryFail resolves the promise with a failure cause. Returns false if the
// promise was already resolved; the earlier resolution wins (spec.md §5:
// "if the timeout already fired and transitioned the promise, the
// transition wins").
func (p *Promise) TryFail(cause error) bool {
	resolved := false
	p.once.Do(func() {
		p.cause = cause
		close(p.done)
		resolved = true
	})
	return resolved
}

// Result returns the resolved value and failure cause. Only meaningful
// after Done() has been closed.
func (p *Promise) Result() (result any, cause error) {
	return p.result, p.cause
}

// BlockingExecutor runs CPU-bound or blocking work off the connection's
// I/O goroutine (spec.md §5 "blocking executor"). It is an external
// collaborator; nodegate never schedules work on it itself, only passes it
// through to ServiceHandler.Invoke.
type BlockingExecutor interface {
	Submit(task func())
}

// DecodeKind is the outcome of ServiceCodec.DecodeRequest (spec.md §6:
// "DecodeResult{SUCCESS|FAILURE|NOT_FOUND}").
type DecodeKind int

const (
	DecodeSuccess DecodeKind = iota
	DecodeFailure
	DecodeNotFound
)

// DecodeResult is what a codec hands back after attempting to decode a
// request (spec.md §3 and §6).
type DecodeResult struct {
	Kind DecodeKind

	// Context is set when Kind == DecodeSuccess.
	Context *InvocationContext

	// ErrorResponse is an optional codec-supplied response to send verbatim
	// when Kind == DecodeFailure. spec.md §9 leaves open whether a codec's
	// error response can legitimately be anything other than a full
	// response; DESIGN.md records the decision to accept only *Response
	// here and fall through to a generic 400 for anything else, matching
	// the original source's behavior exactly (it only ever checks for a
	// FullHttpResponse and otherwise releases and falls through).
	ErrorResponse *Response

	// Cause is the decode failure reason, when Kind == DecodeFailure.
	Cause error
}

// InvocationContext is the handle passed to a service handler and codec
// (spec.md §3 "InvocationContext"). It carries the invocation's identity,
// an opaque reference to the owning connection/channel for handlers that
// need it (e.g. to inspect transport metadata), and the promise the
// handler must eventually resolve.
type InvocationContext struct {
	ServiceIdentity string
	Channel         any
	Promise         *Promise

	// SessionProtocol, Hostname, Path, and MappedPath mirror the arguments
	// the dispatcher passed into DecodeRequest, retained here so codecs and
	// handlers don't need to close over them separately.
	SessionProtocol SessionProtocol
	Hostname        string
	Path            string
	MappedPath      string
}

// ServiceCodec marshals between wire bytes and invocation objects for a
// service (spec.md §6). It is an external collaborator.
type ServiceCodec interface {
	// DecodeRequest attempts to turn payload into an InvocationContext.
	// promise is the same Promise the eventual handler invocation will
	// resolve; a codec that fails outright may resolve it itself.
	DecodeRequest(channel any, protocol SessionProtocol, hostname, path, mappedPath string, payload *RefBuffer, req *Request, promise *Promise) DecodeResult

	// EncodeResponse encodes a successful handler result into a response
	// body.
	EncodeResponse(ctx *InvocationContext, result any) ([]byte, error)

	// EncodeFailureResponse encodes a failure cause into a response body.
	EncodeFailureResponse(ctx *InvocationContext, cause error) ([]byte, error)

	// FailureResponseFailsSession reports whether a failure response
	// should be sent with a classified non-200 status (spec.md §4.D) or
	// as a 200 carrying the encoded failure body (some RPC codecs put the
	// error inside an otherwise-200 envelope).
	FailureResponseFailsSession(ctx *InvocationContext) bool
}

// ServiceHandler invokes application logic for a decoded request
// (spec.md §6 "ServiceHandler::invoke"). It may complete promise
// synchronously before returning, or asynchronously from another
// goroutine/executor; InvocationRunner handles both (spec.md §4.D step 5).
//
// goCtx carries ictx as a value (see WithInvocation/InvocationFromContext
// in context.go) — the Go substitute for the original's thread-local
// "current invocation context" publication (spec.md §9, SPEC_FULL.md §4).
// A handler that calls out to other code can thread goCtx through it
// instead of passing ictx explicitly.
type ServiceHandler interface {
	Invoke(goCtx context.Context, ictx *InvocationContext, exec BlockingExecutor, promise *Promise) error
}

// RequestTimeoutPolicy decides the per-request deadline for an invocation
// (spec.md §6). Zero disables the deadline.
type RequestTimeoutPolicy interface {
	Timeout(ctx *InvocationContext) time.Duration
}

// FixedTimeoutPolicy is a RequestTimeoutPolicy that always returns the same
// duration, for tests and simple deployments.
type FixedTimeoutPolicy time.Duration

func (p FixedTimeoutPolicy) Timeout(ctx *InvocationContext) time.Duration { return time.Duration(p) }
