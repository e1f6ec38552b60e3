// Package localsock provides one stream-oriented connection abstraction over
// the local IPC primitive of the host: Unix domain sockets on Unix-like
// systems and byte-mode named pipes on Windows.
//
// A resolved name.Name is passed to Listen or Dial; the platform backend is
// selected at build time, and the resulting Listener and Conn behave the same
// on both families. Connections are duplex byte streams with independent
// half-close. Each Listener and Conn exclusively owns one kernel handle and
// releases it exactly once.
//
// All calls in this package block. Nonblocking, readiness-driven operation is
// provided by the async package, which wraps these same types.
package localsock

import (
	"context"
	"fmt"
	"time"

	"crossipc/localsock/pkg/name"
)

// dialRetryInterval paces connect retries while waiting for a listener to
// appear under a deadline.
const dialRetryInterval = 20 * time.Millisecond

// listenerBackend is the OS-specific side of a bound, listening handle.
type listenerBackend interface {
	accept() (connBackend, error)
	close() error
}

// connBackend is the OS-specific side of one connected duplex handle.
// read reports orderly peer shutdown as (0, io.EOF); on a nonblocking handle
// read and write return ErrWouldBlock when nothing is ready.
type connBackend interface {
	read(p []byte) (int, error)
	write(p []byte) (int, error)
	closeRead() error
	closeWrite() error
	close() error
}

// Listen binds the name and starts listening. Bind failures are permanent
// for this listener; construct a new one to retry.
func Listen(n name.Name) (*Listener, error) {
	if n.IsZero() {
		return nil, fmt.Errorf("zero name: %w", ErrInvalidName)
	}

	b, ownsPath, err := listenBackend(n)
	if err != nil {
		return nil, err
	}

	return &Listener{b: b, name: n, ownsPath: ownsPath}, nil
}

// Dial connects to the listener at the name. A zero timeout makes a single
// attempt; a positive timeout keeps retrying while no listener exists yet,
// until one appears or the timeout elapses.
func Dial(n name.Name, timeout time.Duration) (*Conn, error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return DialContext(ctx, n)
}

// DialContext connects to the listener at the name. Without a deadline on
// ctx it makes a single attempt and fails with ErrNotFound if no listener
// exists. With a deadline it waits for a listener to appear, retrying until
// the deadline; the last ErrNotFound is returned if none does.
func DialContext(ctx context.Context, n name.Name) (*Conn, error) {
	if n.IsZero() {
		return nil, fmt.Errorf("zero name: %w", ErrInvalidName)
	}

	_, bounded := ctx.Deadline()
	for {
		b, err := dialBackend(ctx, n)
		if err == nil {
			return newConn(b), nil
		}
		if !bounded || !isRetryableDial(err) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dialing %s: %w", n, err)
		case <-time.After(dialRetryInterval):
		}
	}
}
