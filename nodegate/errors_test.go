package nodegate

import (
	"errors"
	"testing"
)

func TestClassifyFailure(t *testing.T) {
	if got := ClassifyFailure(&RequestTimeoutError{}); got != StatusServiceUnavailable {
		t.Errorf("ClassifyFailure(timeout) = %d, want 503", got)
	}
	if got := ClassifyFailure(errors.New("anything else")); got != StatusInternalServerError {
		t.Errorf("ClassifyFailure(other) = %d, want 500", got)
	}
	if got := ClassifyFailure(nil); got != StatusInternalServerError {
		t.Errorf("ClassifyFailure(nil) = %d, want 500", got)
	}
}

func TestIsBenignConnReset(t *testing.T) {
	benign := []string{
		"connection reset by peer",
		"use of closed network connection",
		"write: broken pipe",
		"Connection reset by PEER",
		"client connection aborted",
	}
	for _, msg := range benign {
		if !IsBenignConnReset(msg) {
			t.Errorf("IsBenignConnReset(%q) = false, want true", msg)
		}
	}

	notBenign := []string{
		"invalid content-length header",
		"tls handshake failure",
		"",
	}
	for _, msg := range notBenign {
		if IsBenignConnReset(msg) {
			t.Errorf("IsBenignConnReset(%q) = true, want false", msg)
		}
	}
}

func TestDecoderFailureUnwrap(t *testing.T) {
	cause := errors.New("bad bytes")
	err := &DecoderFailure{Cause: cause}
	if errors.Unwrap(err) != cause {
		t.Fatal("Unwrap should return the wrapped cause")
	}
	if err.Error() != "decode failure: bad bytes" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestInternalErrorUnwrap(t *testing.T) {
	cause := errors.New("panic: boom")
	err := &InternalError{Cause: cause}
	if errors.Unwrap(err) != cause {
		t.Fatal("Unwrap should return the wrapped cause")
	}
}
