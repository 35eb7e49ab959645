package nodegate

import (
	"net/http"
	"strconv"
	"sync/atomic"

	"golang.org/x/net/http2"
)

// SessionProtocol is the negotiated protocol of a connection (spec.md §3).
// It starts as one of the H1 variants and may upgrade, once, to the matching
// H2 variant.
type SessionProtocol uint8

const (
	H1  SessionProtocol = iota // HTTP/1.1 over TLS
	H1C                        // HTTP/1.1 cleartext
	H2                         // HTTP/2 over TLS
	H2C                        // HTTP/2 cleartext
)

func (p SessionProtocol) String() string {
	switch p {
	case H1:
		return "H1"
	case H1C:
		return "H1C"
	case H2:
		return "H2"
	case H2C:
		return "H2C"
	default:
		return "unknown"
	}
}

// upgraded returns the H2 variant matching p's cleartext/TLS flavor, and
// whether p was an H1 variant at all (spec.md §4.C.1: H1->H2, H1C->H2C).
func (p SessionProtocol) upgraded() (SessionProtocol, bool) {
	switch p {
	case H1:
		return H2, true
	case H1C:
		return H2C, true
	default:
		return p, false
	}
}

// RefBuffer is a reference-counted request payload buffer. Ownership is
// single-owner-at-a-time (spec.md §9: "avoid shared reference counting
// outside the buffer itself"): whichever code path currently owns the
// buffer calls Release exactly once, and Release is itself idempotent so a
// mistaken double-release never corrupts state (spec.md §8).
type RefBuffer struct {
	data     []byte
	released atomic.Bool
}

// NewRefBuffer wraps data as a released-once payload buffer.
func NewRefBuffer(data []byte) *RefBuffer {
	return &RefBuffer{data: data}
}

// Bytes returns the buffer contents. Calling it after Release is a bug in
// the caller; nodegate itself never does so.
func (b *RefBuffer) Bytes() []byte { return b.data }

// Release releases the buffer. Safe to call more than once; only the first
// call has an effect.
func (b *RefBuffer) Release() {
	if b.released.CompareAndSwap(false, true) {
		b.data = nil
	}
}

// Released reports whether Release has already run.
func (b *RefBuffer) Released() bool { return b.released.Load() }

// WeakString returns a zero-copy string view of the buffer, for codecs that
// only need to inspect bytes without retaining them past Release.
func (b *RefBuffer) WeakString() string { return weakString(b.data) }

// Message is a decoded unit the framing layer hands to the dispatcher:
// either a protocol-settings message (H2 upgrade handshake) or a full HTTP
// request (spec.md §4.C). It is a closed interface; nodegate does not
// expect external implementations beyond Request and ProtocolSettings.
type Message interface {
	isMessage()
}

// ProtocolSettings carries the H2 SETTINGS observed during an h2c/H2
// upgrade handshake. Settings uses golang.org/x/net/http2's own Setting
// type rather than a hand-rolled one, since the framing layer producing
// this message is, in practice, built on the same package.
type ProtocolSettings struct {
	Settings []http2.Setting
}

func (*ProtocolSettings) isMessage() {}

// Request is an immutable-after-decode HTTP request (spec.md §3 "Request").
// The framing layer constructs one per inbound request; the dispatcher
// assigns seq and owns Payload's lifecycle from that point on.
type Request struct {
	Method  string
	URI     string // request-target verbatim, e.g. "/a/b?x=1"
	Host    string // raw Host header value, possibly empty
	Headers http.Header

	// KeepAlive is false when this request is the connection's last
	// (explicit "Connection: close", or an HTTP/1.0 request without
	// "Connection: keep-alive").
	KeepAlive bool

	// DecodeFailed marks a request the framing layer delivered anyway
	// despite being unable to fully decode it (spec.md §4.C "Decoder
	// result is failure", distinct from a codec's own DecodeRequest
	// failure later in the pipeline). DecodeCause is the reason.
	DecodeFailed bool
	DecodeCause  error

	// HTTP2StreamID is the value of an inbound x-http2-stream-id header,
	// or "" if the request carried none (spec.md §4.E.1).
	HTTP2StreamID string

	Payload *RefBuffer

	// seq is assigned by the dispatcher (Conn.dispatch), not by the framing
	// layer (spec.md §4.C: "Each request is assigned the current value of
	// req_seq").
	seq uint32
}

func (*Request) isMessage() {}

// Response is a fully-formed HTTP response ready for the wire, or a
// response still awaiting ResponseWriter finalization (status-only,
// Body set, headers not yet stamped with Content-Length/Connection).
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte

	// HTTP2StreamID mirrors the originating request's stream-id header,
	// copied by ResponseWriter (spec.md §4.E.1).
	HTTP2StreamID string
}

// NewErrorResponse builds the literal "<code> <reason-phrase>" error body
// spec.md §4.E mandates for status codes >= 400 with no explicit payload.
func NewErrorResponse(status int) *Response {
	body := constBytes(strconv.Itoa(status) + " " + reasonPhrase(status))
	headers := make(http.Header)
	headers.Set("Content-Type", "text/plain; charset=UTF-8")
	return &Response{Status: status, Headers: headers, Body: body}
}
