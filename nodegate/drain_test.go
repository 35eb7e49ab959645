package nodegate

import (
	"context"
	"testing"
	"time"
)

func TestDrainReturnsImmediatelyWithNothingInFlight(t *testing.T) {
	codec, handler := syncService([]byte("x"))
	c, _, cancel := newTestConn("/hello", codec, handler, Config{})
	defer cancel()

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	if err := c.Drain(ctx); err != nil {
		t.Fatalf("Drain() = %v, want nil", err)
	}
}

func TestDrainWaitsForInFlightInvocation(t *testing.T) {
	release := make(chan struct{})
	codec, handler := gatedService([]byte("slow"), release)
	c, framing, cancel := newTestConn("/hello", codec, handler, Config{})
	defer cancel()

	c.OnMessage(testRequest("GET", "/hello", "a", true))

	drainDone := make(chan error, 1)
	go func() {
		ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		drainDone <- c.Drain(ctx)
	}()

	select {
	case err := <-drainDone:
		t.Fatalf("Drain() returned early (err=%v) before the in-flight invocation completed", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	recvResponse(t, framing, time.Second)

	select {
	case err := <-drainDone:
		if err != nil {
			t.Fatalf("Drain() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Drain() never returned after the invocation completed")
	}
}

func TestDrainRespectsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	codec, handler := gatedService([]byte("never"), release)
	c, _, cancel := newTestConn("/hello", codec, handler, Config{})
	defer cancel()

	c.OnMessage(testRequest("GET", "/hello", "a", true))

	ctx, done := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer done()
	if err := c.Drain(ctx); err == nil {
		t.Fatal("Drain() = nil, want a deadline-exceeded error")
	}
}
