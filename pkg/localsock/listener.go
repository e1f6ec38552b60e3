package localsock

import (
	"fmt"
	"os"
	"sync"

	"crossipc/localsock/pkg/name"
)

// Listener owns one bound, listening kernel handle for one name. While it
// lives, the name is reserved: a second bind fails with ErrAddressInUse.
type Listener struct {
	b    listenerBackend
	name name.Name

	// ownsPath is true if binding created the backing socket file, in which
	// case Close unlinks it. A pre-existing foreign path is never unlinked.
	ownsPath bool

	mu     sync.Mutex
	closed bool
}

// Name returns the name this listener is bound to.
func (l *Listener) Name() name.Name {
	return l.name
}

// Accept blocks until a peer connects and returns the new connection. It may
// be called repeatedly; the listener's own state is unchanged by accepting.
func (l *Listener) Accept() (*Conn, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, fmt.Errorf("accept on %s: %w", l.name, ErrClosed)
	}
	b := l.b
	l.mu.Unlock()

	cb, err := b.accept()
	if err != nil {
		// The backend fails on a handle a concurrent Close released. Report
		// that as a close, not as an I/O failure. Close does not interrupt
		// an accept already blocked in the kernel; nonblocking accepts are
		// woken by the async adapter's reactor instead.
		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return nil, fmt.Errorf("accept on %s: %w", l.name, ErrClosed)
		}
		return nil, fmt.Errorf("accept on %s: %w", l.name, err)
	}

	return newConn(cb), nil
}

// Close releases the listening handle and, if this listener created the
// backing socket file, unlinks it. Close is idempotent: a second call is a
// no-op, not an error.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	err := l.b.close()
	if l.ownsPath && l.name.Kind() == name.Filesystem {
		if rerr := os.Remove(l.name.String()); rerr != nil && err == nil {
			err = fmt.Errorf("unlinking %s: %w", l.name, rerr)
		}
	}
	return err
}
