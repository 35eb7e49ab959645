package nodegate

import (
	"context"
	"sync"
)

// Framing is the transport collaborator a Conn writes responses through and
// reads messages from (spec.md §6 "framing layer"). Write is synchronous
// from the connection's own goroutine, matching the teacher's own
// goroutine-per-connection blocking I/O model (web_http1_server.go's
// server1Stream write methods) rather than Netty's listener-callback style;
// that substitution is faithful to spec.md §5's suspension-point #3
// ("awaiting outbound write completions") — blocking a dedicated goroutine
// on I/O is itself "awaiting" it.
type Framing interface {
	Write(res *Response) error
	Flush() error
	Close() error
}

// PendingInvocation tracks one in-flight invocation from dispatch until its
// completion reaches the connection loop (spec.md §3 "PendingInvocation").
type PendingInvocation struct {
	Seq     uint32
	Request *Request
	Ctx     *InvocationContext
	Codec   ServiceCodec

	cancelTimeout func()
}

// completion is what an invocation's background goroutine posts back to the
// connection's own goroutine once the promise resolves (spec.md §9: "a
// channel receiving Completion{seq, Result<Response, Cause>} processed by
// the connection loop").
type completion struct {
	seq    uint32
	result any
	cause  error
}

// Conn is the per-connection state machine: RequestDispatcher (spec.md
// §4.C) plus the Connection State data (spec.md §3) it owns. All mutable
// fields below are touched only from the goroutine running Run — there is
// no lock, by the same reasoning spec.md §5 gives for the original's
// single-threaded executor affinity.
type Conn struct {
	registry      VirtualHostRegistry
	executor      BlockingExecutor
	timeoutPolicy RequestTimeoutPolicy
	framing       Framing
	logger        Logger
	cfg           Config

	msgs         chan Message
	readComplete chan struct{}
	exceptions   chan error
	completions  chan completion

	closeOnce sync.Once
	closed    chan struct{}

	// Connection State (spec.md §3).
	sessionProtocol    SessionProtocol
	useHOLBlocking     bool
	protocolUpgraded   bool
	reqSeq             uint32
	handledLastRequest bool
	lastSeq            uint32 // valid only when handledLastRequest is true
	isReading          bool
	streamsServed      int32

	orderer *ResponseOrderer

	// unfinished supplements the base data model (SPEC_FULL.md §3) to
	// support graceful drain: invocations started but not yet completed.
	unfinished map[uint32]*PendingInvocation

	draining     bool
	drainSignal  chan chan struct{}
	drainWaiters []chan struct{}
}

// NewConn builds a Conn for a freshly accepted connection. initial is the
// connection's starting session protocol (H1, H1C, H2, or H2C — H2/H2C
// connections start with use_hol_blocking already false). If logger is nil
// and cfg.LoggerSign is set, the registered logger for that sign is used;
// otherwise diagnostics are discarded.
func NewConn(initial SessionProtocol, registry VirtualHostRegistry, executor BlockingExecutor, timeoutPolicy RequestTimeoutPolicy, framing Framing, logger Logger, cfg Config) *Conn {
	if logger == nil {
		if cfg.LoggerSign != "" {
			logger = createLogger(cfg.LoggerSign)
		}
		if logger == nil {
			logger = noopLogger{}
		}
	}
	c := &Conn{
		registry:        registry,
		executor:        executor,
		timeoutPolicy:   timeoutPolicy,
		framing:         framing,
		logger:          logger,
		cfg:             cfg,
		sessionProtocol: initial,
		useHOLBlocking:  initial == H1 || initial == H1C,
		msgs:            make(chan Message),
		readComplete:    make(chan struct{}),
		exceptions:      make(chan error, 1),
		completions:     make(chan completion),
		closed:          make(chan struct{}),
		orderer:         NewResponseOrderer(logger),
		unfinished:      make(map[uint32]*PendingInvocation),
		drainSignal:     make(chan chan struct{}),
	}
	return c
}

// OnMessage delivers a decoded message to the connection (spec.md §4.C
// "on_message"). Called from the framing layer's goroutine; blocks until
// Run consumes it or the connection closes.
func (c *Conn) OnMessage(msg Message) {
	select {
	case c.msgs <- msg:
	case <-c.closed:
		if req, ok := msg.(*Request); ok && req.Payload != nil {
			req.Payload.Release()
		}
	}
}

// OnReadComplete signals that the framing layer has no more readable bytes
// for now (spec.md §4.C "on_read_complete").
func (c *Conn) OnReadComplete() {
	select {
	case c.readComplete <- struct{}{}:
	case <-c.closed:
	}
}

// OnException reports a framing-layer error (spec.md §4.C "on_exception").
func (c *Conn) OnException(cause error) {
	select {
	case c.exceptions <- cause:
	case <-c.closed:
	}
}

// Done returns a channel closed once the connection has shut down.
func (c *Conn) Done() <-chan struct{} { return c.closed }

// Run drives the connection's dispatch loop until ctx is cancelled or the
// connection closes on its own (spec.md §5: "each connection is pinned to
// a single I/O executor"; Run's goroutine is that executor). Callers
// arrange for exactly one goroutine to call Run per Conn.
func (c *Conn) Run(ctx context.Context) {
	defer c.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		case msg := <-c.msgs:
			c.isReading = true
			c.handleMessage(msg)
		case <-c.readComplete:
			c.isReading = false
			if err := c.framing.Flush(); err != nil {
				c.handleException(err)
				return
			}
		case cause := <-c.exceptions:
			c.handleException(cause)
			return
		case comp := <-c.completions:
			c.handleCompletion(comp)
		case waiter := <-c.drainSignal:
			c.handleDrainRequest(waiter)
		}
	}
}

// Close tears the connection down, releasing every buffered response and
// cancelling every outstanding invocation timeout (spec.md §5: "Connection
// close cancels all outstanding timeouts and releases all
// pending_responses").
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return c.framing.Close()
}

func (c *Conn) shutdown() {
	c.orderer.Close()
	for seq, pending := range c.unfinished {
		pending.cancelTimeout()
		pending.Request.Payload.Release()
		delete(c.unfinished, seq)
	}
}

func (c *Conn) handleMessage(msg Message) {
	switch m := msg.(type) {
	case *ProtocolSettings:
		c.handleProtocolSettings(m)
	case *Request:
		c.dispatch(m)
	}
}

// handleProtocolSettings implements the H2-upgrade branch of spec.md
// §4.C's message classification.
func (c *Conn) handleProtocolSettings(m *ProtocolSettings) {
	if c.protocolUpgraded {
		c.logger.Warnf("duplicate protocol settings observed on connection already upgraded to %s", c.sessionProtocol)
		return
	}
	upgraded, ok := c.sessionProtocol.upgraded()
	if !ok {
		c.logger.Warnf("protocol settings observed on a connection that cannot upgrade (%s)", c.sessionProtocol)
		return
	}
	c.sessionProtocol = upgraded
	c.useHOLBlocking = false
	c.protocolUpgraded = true
}

func (c *Conn) handleException(cause error) {
	logTransportError(c.logger, cause)
	_ = c.Close()
}
