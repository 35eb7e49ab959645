package nodegate

import (
	"context"
	"net/http"
	"sync"
)

// Shared test doubles for the collaborator interfaces nodegate consumes.
// No mocking framework is used, matching the corpus's plain testing.T
// style throughout.

type fakeFraming struct {
	mu      sync.Mutex
	writes  []*Response
	writeCh chan *Response
	flushes int
	closed  bool
	closeCh chan struct{}
	failAll bool
}

func newFakeFraming() *fakeFraming {
	return &fakeFraming{writeCh: make(chan *Response, 32), closeCh: make(chan struct{})}
}

func (f *fakeFraming) Write(res *Response) error {
	f.mu.Lock()
	fail := f.failAll
	if !fail {
		f.writes = append(f.writes, res)
	}
	f.mu.Unlock()
	if fail {
		return errConnReset
	}
	f.writeCh <- res
	return nil
}

func (f *fakeFraming) Flush() error {
	f.mu.Lock()
	f.flushes++
	f.mu.Unlock()
	return nil
}

func (f *fakeFraming) Close() error {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.closeCh)
	}
	f.mu.Unlock()
	return nil
}

func (f *fakeFraming) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

var errConnReset = &fakeTransportError{"connection reset by peer"}

type fakeTransportError struct{ msg string }

func (e *fakeTransportError) Error() string { return e.msg }

type fakeExecutor struct{}

func (fakeExecutor) Submit(task func()) { task() }

// fakeCodec lets each test supply just the DecodeRequest behavior it
// needs; EncodeResponse/EncodeFailureResponse have reasonable defaults.
type fakeCodec struct {
	decode          func(payload *RefBuffer, req *Request, promise *Promise) DecodeResult
	encodeErr       error
	failsSession    bool
	encodeFailureAs func(cause error) []byte
}

func (c *fakeCodec) DecodeRequest(channel any, protocol SessionProtocol, hostname, path, mappedPath string, payload *RefBuffer, req *Request, promise *Promise) DecodeResult {
	return c.decode(payload, req, promise)
}

func (c *fakeCodec) EncodeResponse(ctx *InvocationContext, result any) ([]byte, error) {
	if c.encodeErr != nil {
		return nil, c.encodeErr
	}
	if b, ok := result.([]byte); ok {
		return b, nil
	}
	return []byte("encoded"), nil
}

func (c *fakeCodec) EncodeFailureResponse(ctx *InvocationContext, cause error) ([]byte, error) {
	if c.encodeFailureAs != nil {
		return c.encodeFailureAs(cause), nil
	}
	return []byte(cause.Error()), nil
}

func (c *fakeCodec) FailureResponseFailsSession(ctx *InvocationContext) bool { return c.failsSession }

type fakeHandler struct {
	invoke func(goCtx context.Context, ictx *InvocationContext, exec BlockingExecutor, promise *Promise) error
}

func (h *fakeHandler) Invoke(goCtx context.Context, ictx *InvocationContext, exec BlockingExecutor, promise *Promise) error {
	return h.invoke(goCtx, ictx, exec, promise)
}

// syncService returns a codec+handler pair that decodes successfully and
// completes the promise with body synchronously, before Invoke returns.
func syncService(body []byte) (*fakeCodec, *fakeHandler) {
	codec := &fakeCodec{decode: func(payload *RefBuffer, req *Request, promise *Promise) DecodeResult {
		return DecodeResult{Kind: DecodeSuccess, Context: &InvocationContext{}}
	}}
	handler := &fakeHandler{invoke: func(goCtx context.Context, ictx *InvocationContext, exec BlockingExecutor, promise *Promise) error {
		promise.TryComplete(body)
		return nil
	}}
	return codec, handler
}

// gatedService returns a codec+handler pair whose handler completes only
// once release is sent to or closed, from a background goroutine — lets
// tests control completion order deterministically.
func gatedService(body []byte, release <-chan struct{}) (*fakeCodec, *fakeHandler) {
	codec := &fakeCodec{
		decode: func(payload *RefBuffer, req *Request, promise *Promise) DecodeResult {
			return DecodeResult{Kind: DecodeSuccess, Context: &InvocationContext{}}
		},
		failsSession: true,
	}
	handler := &fakeHandler{invoke: func(goCtx context.Context, ictx *InvocationContext, exec BlockingExecutor, promise *Promise) error {
		go func() {
			<-release
			promise.TryComplete(body)
		}()
		return nil
	}}
	return codec, handler
}

func testRequest(method, uri, host string, keepAlive bool) *Request {
	return &Request{
		Method:    method,
		URI:       uri,
		Host:      host,
		Headers:   make(http.Header),
		KeepAlive: keepAlive,
		Payload:   NewRefBuffer(nil),
	}
}

// newTestConn wires a Conn to a single-route registry at path, with the
// given codec/handler, a fake framing sink, and a background Run loop
// that the caller must eventually stop via the returned cancel func.
func newTestConn(path string, codec ServiceCodec, handler ServiceHandler, cfg Config) (*Conn, *fakeFraming, context.CancelFunc) {
	routes := NewPathMap()
	routes.Handle(path, path, codec, handler)
	registry := NewRegistry()
	registry.SetDefault(routes)

	framing := newFakeFraming()
	c := NewConn(H1C, registry, fakeExecutor{}, FixedTimeoutPolicy(cfg.RequestTimeout), framing, nil, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	return c, framing, cancel
}
