package nodegate

// ResponseOrderer preserves HTTP/1.1 pipelined response order by buffering
// out-of-order completions (spec.md §4.B). It is only consulted when a
// Conn's useHOLBlocking is true.
//
// Not safe for concurrent use: callers must only invoke Submit from the
// connection's own goroutine, same as every other piece of Conn's
// connection state (spec.md §5).
type ResponseOrderer struct {
	resSeq  uint32
	pending map[uint32]*Response
	logger  Logger
}

// NewResponseOrderer returns an orderer starting at sequence 0.
func NewResponseOrderer(logger Logger) *ResponseOrderer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &ResponseOrderer{pending: make(map[uint32]*Response), logger: logger}
}

// ResSeq returns the sequence number of the oldest request whose response
// has not yet been written.
func (o *ResponseOrderer) ResSeq() uint32 { return o.resSeq }

// Pending returns the number of responses currently buffered awaiting
// earlier ones.
func (o *ResponseOrderer) Pending() int { return len(o.pending) }

// Submit offers (seq, res) to the orderer. If seq is not the next response
// due on the wire, res is buffered and Submit returns nil: the caller must
// stop (spec.md §4.E step 2). Otherwise Submit returns res followed by any
// now-contiguous buffered responses, in ascending sequence order, all of
// which the caller should write immediately.
func (o *ResponseOrderer) Submit(seq uint32, res *Response) []*Response {
	if seq != o.resSeq {
		if old, displaced := o.pending[seq]; displaced {
			// Sequence wraparound: effectively impossible within practical
			// request counts (spec.md §4.B, §8), but handled so a corrupted
			// state never silently loses a response.
			o.logger.Errorf("orphaned pending response at seq=%d (displaced status=%d)", seq, old.Status)
		}
		o.pending[seq] = res
		return nil
	}

	ready := []*Response{res}
	o.resSeq++
	for {
		next, ok := o.pending[o.resSeq]
		if !ok {
			break
		}
		delete(o.pending, o.resSeq)
		ready = append(ready, next)
		o.resSeq++
	}
	return ready
}

// Close releases all buffered responses, e.g. when the connection closes
// with requests still outstanding (spec.md §5: "Connection close cancels
// all outstanding timeouts and releases all pending_responses").
func (o *ResponseOrderer) Close() {
	o.pending = make(map[uint32]*Response)
}
