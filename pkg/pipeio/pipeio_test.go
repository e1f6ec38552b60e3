package pipeio

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestPipe_BasicBidirectionalCopy(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	left1, left2 := net.Pipe()
	right1, right2 := net.Pipe()

	logFunc := func(err error) {}

	done := make(chan struct{})
	go func() {
		Pipe(ctx, left2, right1, logFunc)
		close(done)
	}()

	// Data written into the left pair comes out of the right pair.
	go left1.Write([]byte("hello across"))

	buf := make([]byte, 64)
	n, err := right2.Read(buf)
	if err != nil {
		t.Fatalf("right2.Read(): %v", err)
	}
	if string(buf[:n]) != "hello across" {
		t.Errorf("right2.Read() = %q, want %q", buf[:n], "hello across")
	}

	// And the reverse direction works too.
	go right2.Write([]byte("hello back"))

	n, err = left1.Read(buf)
	if err != nil {
		t.Fatalf("left1.Read(): %v", err)
	}
	if string(buf[:n]) != "hello back" {
		t.Errorf("left1.Read() = %q, want %q", buf[:n], "hello back")
	}

	// Closing one side ends the relay.
	left1.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Pipe() did not return after stream closed")
	}
}

func TestPipe_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	left1, left2 := net.Pipe()
	right1, right2 := net.Pipe()
	defer left1.Close()
	defer right2.Close()

	done := make(chan struct{})
	go func() {
		Pipe(ctx, left2, right1, func(error) {})
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Pipe() did not return after context cancellation")
	}
}
