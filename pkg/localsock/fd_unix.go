//go:build !windows
// +build !windows

package localsock

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Fd returns the connection's file descriptor for readiness registration.
// The caller must not close it; the Conn stays the sole owner.
func (c *Conn) Fd() (int, error) {
	uc, ok := c.b.(*unixConn)
	if !ok {
		return -1, fmt.Errorf("connection has no file descriptor")
	}
	return uc.fd, nil
}

// SetNonblock switches the connection's descriptor between blocking and
// nonblocking mode. The async adapter flips a handle to nonblocking when it
// takes over; the two modes are never mixed on one handle afterwards.
func (c *Conn) SetNonblock(nonblocking bool) error {
	fd, err := c.Fd()
	if err != nil {
		return err
	}
	return unix.SetNonblock(fd, nonblocking)
}

// Fd returns the listener's file descriptor for readiness registration.
func (l *Listener) Fd() (int, error) {
	ul, ok := l.b.(*unixListener)
	if !ok {
		return -1, fmt.Errorf("listener has no file descriptor")
	}
	return ul.fd, nil
}

// SetNonblock switches the listening descriptor between blocking and
// nonblocking mode.
func (l *Listener) SetNonblock(nonblocking bool) error {
	fd, err := l.Fd()
	if err != nil {
		return err
	}
	return unix.SetNonblock(fd, nonblocking)
}
