//go:build linux || darwin || freebsd || openbsd
// +build linux darwin freebsd openbsd

package async

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"crossipc/localsock/pkg/localsock"
)

// Conn drives one localsock.Conn through a Reactor. Wrapping flips the
// descriptor to nonblocking; from then on the connection must only be used
// through this adapter.
type Conn struct {
	c  *localsock.Conn
	r  *Reactor
	fd int

	rbusy atomic.Bool
	wbusy atomic.Bool
}

// NewConn wraps a connection for readiness-driven use on r.
func NewConn(r *Reactor, c *localsock.Conn) (*Conn, error) {
	fd, err := c.Fd()
	if err != nil {
		return nil, err
	}
	if err := c.SetNonblock(true); err != nil {
		return nil, fmt.Errorf("switching to nonblocking mode: %w", err)
	}

	return &Conn{c: c, r: r, fd: fd}, nil
}

// Read fills p like localsock.Conn.Read but suspends instead of blocking
// when no data is available. Cancelling via ctx while suspended consumes
// nothing and leaves the connection idle.
func (a *Conn) Read(ctx context.Context, p []byte) (int, error) {
	if !a.rbusy.CompareAndSwap(false, true) {
		return 0, fmt.Errorf("read: %w", ErrUsage)
	}
	defer a.rbusy.Store(false)

	for {
		n, err := a.c.Read(p)
		if !errors.Is(err, localsock.ErrWouldBlock) {
			return n, err
		}
		if werr := a.r.wait(ctx, a.fd, dirRead); werr != nil {
			return 0, fmt.Errorf("read: %w", werr)
		}
	}
}

// Write sends all of p, suspending whenever the kernel buffer is full.
// Cancelling before any byte reached the kernel leaves the connection idle;
// cancelling after a partial write closes the connection and reports
// ErrWriteCancelled, since the amount delivered is unknown to the peer.
func (a *Conn) Write(ctx context.Context, p []byte) (int, error) {
	if !a.wbusy.CompareAndSwap(false, true) {
		return 0, fmt.Errorf("write: %w", ErrUsage)
	}
	defer a.wbusy.Store(false)

	var total int
	for {
		n, err := a.c.Write(p[total:])
		total += n
		if !errors.Is(err, localsock.ErrWouldBlock) {
			return total, err
		}
		if werr := a.r.wait(ctx, a.fd, dirWrite); werr != nil {
			if total > 0 {
				a.c.Close()
				return total, fmt.Errorf("write: %w", ErrWriteCancelled)
			}
			return 0, fmt.Errorf("write: %w", werr)
		}
	}
}

// CloseRead shuts down the read half.
func (a *Conn) CloseRead() error { return a.c.CloseRead() }

// CloseWrite shuts down the write half.
func (a *Conn) CloseWrite() error { return a.c.CloseWrite() }

// Close releases the connection and wakes any suspended operation on it,
// which then fails with ErrClosed.
func (a *Conn) Close() error {
	err := a.c.Close()
	a.r.wakeFd(a.fd)
	return err
}

// Listener drives a localsock.Listener through a Reactor.
type Listener struct {
	l  *localsock.Listener
	r  *Reactor
	fd int

	abusy atomic.Bool
}

// NewListener wraps a listener for readiness-driven accepting on r. The
// listening descriptor is flipped to nonblocking.
func NewListener(r *Reactor, l *localsock.Listener) (*Listener, error) {
	fd, err := l.Fd()
	if err != nil {
		return nil, err
	}
	if err := l.SetNonblock(true); err != nil {
		return nil, fmt.Errorf("switching to nonblocking mode: %w", err)
	}

	return &Listener{l: l, r: r, fd: fd}, nil
}

// Accept suspends until a peer connects and returns the connection already
// wrapped for the same Reactor.
func (a *Listener) Accept(ctx context.Context) (*Conn, error) {
	if !a.abusy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("accept: %w", ErrUsage)
	}
	defer a.abusy.Store(false)

	for {
		c, err := a.l.Accept()
		if err == nil {
			return NewConn(a.r, c)
		}
		if !errors.Is(err, localsock.ErrWouldBlock) {
			return nil, err
		}
		if werr := a.r.wait(ctx, a.fd, dirRead); werr != nil {
			return nil, fmt.Errorf("accept: %w", werr)
		}
	}
}

// Close releases the listener and wakes a suspended Accept, which then
// fails with ErrClosed.
func (a *Listener) Close() error {
	err := a.l.Close()
	a.r.wakeFd(a.fd)
	return err
}
