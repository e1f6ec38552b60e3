//go:build windows
// +build windows

package async

import (
	"context"
	"fmt"
	"sync/atomic"

	"crossipc/localsock/pkg/localsock"
)

// Conn drives one localsock.Conn through a completion Reactor. The handle
// stays in blocking mode; suspended operations run against it on dedicated
// goroutines.
type Conn struct {
	c *localsock.Conn
	r *Reactor

	rbusy atomic.Bool
	wbusy atomic.Bool
}

// NewConn wraps a connection for completion-driven use on r.
func NewConn(r *Reactor, c *localsock.Conn) (*Conn, error) {
	return &Conn{c: c, r: r}, nil
}

// Read fills p like localsock.Conn.Read but suspends the calling goroutine
// instead of occupying it in the kernel. Cancelling via ctx closes the
// connection, since a blocking pipe read cannot be detached mid-flight.
func (a *Conn) Read(ctx context.Context, p []byte) (int, error) {
	if !a.rbusy.CompareAndSwap(false, true) {
		return 0, fmt.Errorf("read: %w", ErrUsage)
	}
	defer a.rbusy.Store(false)

	ch := a.r.submit(func() ioResult {
		n, err := a.c.Read(p)
		return ioResult{n: n, err: err}
	})

	select {
	case res := <-ch:
		return res.n, res.err
	case <-ctx.Done():
		a.c.Close()
		return 0, fmt.Errorf("read: %w", ctx.Err())
	}
}

// Write sends all of p. Cancelling via ctx closes the connection and
// reports ErrWriteCancelled: part of p may already sit in the pipe, so the
// amount delivered is unknown and the stream must be treated as dead.
func (a *Conn) Write(ctx context.Context, p []byte) (int, error) {
	if !a.wbusy.CompareAndSwap(false, true) {
		return 0, fmt.Errorf("write: %w", ErrUsage)
	}
	defer a.wbusy.Store(false)

	ch := a.r.submit(func() ioResult {
		n, err := a.c.Write(p)
		return ioResult{n: n, err: err}
	})

	select {
	case res := <-ch:
		return res.n, res.err
	case <-ctx.Done():
		a.c.Close()
		return 0, fmt.Errorf("write: %w", ErrWriteCancelled)
	}
}

// CloseRead shuts down the read half.
func (a *Conn) CloseRead() error { return a.c.CloseRead() }

// CloseWrite shuts down the write half.
func (a *Conn) CloseWrite() error { return a.c.CloseWrite() }

// Close releases the connection; a suspended operation completes with
// ErrClosed.
func (a *Conn) Close() error { return a.c.Close() }

// Listener drives a localsock.Listener through a completion Reactor.
type Listener struct {
	l *localsock.Listener
	r *Reactor

	abusy atomic.Bool
}

// NewListener wraps a listener for completion-driven accepting on r.
func NewListener(r *Reactor, l *localsock.Listener) (*Listener, error) {
	return &Listener{l: l, r: r}, nil
}

// acceptResult carries an accepted connection through the dispatch queue.
type acceptResult struct {
	c   *localsock.Conn
	err error
}

// Accept suspends until a peer connects and returns the connection already
// wrapped for the same Reactor. Cancelling via ctx closes the listener,
// since a blocking pipe accept cannot be detached mid-flight.
func (a *Listener) Accept(ctx context.Context) (*Conn, error) {
	if !a.abusy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("accept: %w", ErrUsage)
	}
	defer a.abusy.Store(false)

	ch := make(chan acceptResult, 1)
	go func() {
		c, err := a.l.Accept()
		ch <- acceptResult{c: c, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return NewConn(a.r, res.c)
	case <-ctx.Done():
		a.l.Close()
		if res := <-ch; res.c != nil {
			res.c.Close()
		}
		return nil, fmt.Errorf("accept: %w", ctx.Err())
	}
}

// Close releases the listener; a suspended Accept completes with ErrClosed.
func (a *Listener) Close() error { return a.l.Close() }
