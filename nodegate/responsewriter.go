package nodegate

import (
	"net/http"
	"strconv"
)

// respond implements the ResponseWriter operation (spec.md §4.E
// "respond(seq, request_ref, response)").
func (c *Conn) respond(seq uint32, req *Request, res *Response) {
	if req.HTTP2StreamID != "" {
		if res.Headers == nil {
			res.Headers = make(http.Header)
		}
		res.Headers.Set("x-http2-stream-id", req.HTTP2StreamID)
	}

	if !c.useHOLBlocking {
		c.writeOne(seq, res)
		c.flushIfIdle()
		return
	}

	ready := c.orderer.Submit(seq, res)
	if ready == nil {
		// Stuck behind an earlier, still-incomplete response; stop here,
		// as spec.md §4.E step 2 requires.
		return
	}
	for i, r := range ready {
		// ready is a contiguous run starting at seq (spec.md §4.B), so the
		// i-th entry belongs to request seq+i.
		if !c.writeOne(seq+uint32(i), r) {
			return // connection closed mid-batch; nothing left to flush
		}
	}
	c.flushIfIdle()
}

// writeOne writes a single response, applying spec.md §4.E step 3's
// keep-alive vs close-on-last-response semantics, keyed on whether seq is
// the specific request that latched handled_last_request — not merely
// whether that latch happens to be set by the time this response reaches
// the wire, which can lag behind an out-of-order completion under HOL
// blocking. Returns false if it closed the connection.
func (c *Conn) writeOne(seq uint32, res *Response) bool {
	if res.Headers == nil {
		res.Headers = make(http.Header)
	}

	if !(c.handledLastRequest && seq == c.lastSeq) {
		res.Headers.Set("Content-Length", strconv.Itoa(len(res.Body)))
		res.Headers.Set("Connection", "keep-alive")
		if err := c.framing.Write(res); err != nil {
			c.handleException(err) // close-on-failure
			return false
		}
		return true
	}

	// Close-on-success: closes after flush regardless of write outcome.
	if err := c.framing.Write(res); err != nil {
		logTransportError(c.logger, err)
	} else if err := c.framing.Flush(); err != nil {
		logTransportError(c.logger, err)
	}
	_ = c.Close()
	return false
}

// flushIfIdle implements spec.md §4.E step 4: flush immediately unless a
// read batch is in progress, in which case on_read_complete does it.
func (c *Conn) flushIfIdle() {
	if c.isReading {
		return
	}
	if err := c.framing.Flush(); err != nil {
		c.handleException(err)
	}
}
