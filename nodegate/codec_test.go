package nodegate

import (
	"errors"
	"testing"
	"time"
)

func TestPromiseTryCompleteOnce(t *testing.T) {
	p := NewPromise()
	if p.IsDone() {
		t.Fatal("new promise should not be done")
	}
	if !p.TryComplete("ok") {
		t.Fatal("first TryComplete should succeed")
	}
	if p.TryComplete("again") {
		t.Fatal("second TryComplete should fail")
	}
	if !p.IsDone() {
		t.Fatal("promise should be done")
	}
	result, cause := p.Result()
	if result != "ok" || cause != nil {
		t.Fatalf("Result() = (%v, %v), want (ok, nil)", result, cause)
	}
}

func TestPromiseTryFailWinsOverLaterComplete(t *testing.T) {
	p := NewPromise()
	cause := errors.New("boom")
	if !p.TryFail(cause) {
		t.Fatal("first TryFail should succeed")
	}
	if p.TryComplete("too late") {
		t.Fatal("TryComplete after TryFail should be a no-op")
	}
	_, gotCause := p.Result()
	if gotCause != cause {
		t.Fatalf("Result() cause = %v, want %v", gotCause, cause)
	}
}

func TestPromiseDoneChannelUnblocks(t *testing.T) {
	p := NewPromise()
	done := make(chan struct{})
	go func() {
		<-p.Done()
		close(done)
	}()
	p.TryComplete(nil)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Done() never unblocked the waiting goroutine")
	}
}
