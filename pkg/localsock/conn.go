package localsock

import (
	"fmt"
	"sync/atomic"
)

// Conn is one connected, duplex byte stream. The read and write halves shut
// down independently; after Close the connection is inert and all I/O fails
// with ErrClosed. Exactly one Close releases the kernel handle.
type Conn struct {
	b connBackend

	closed    atomic.Bool
	readDown  atomic.Bool
	writeDown atomic.Bool
}

func newConn(b connBackend) *Conn {
	return &Conn{b: b}
}

// Read fills p with up to len(p) bytes from the stream. It returns the
// number of bytes read; orderly end-of-stream is reported as (0, io.EOF).
// A read may return fewer bytes than requested without signaling
// end-of-stream.
func (c *Conn) Read(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, fmt.Errorf("read: %w", ErrClosed)
	}
	if c.readDown.Load() {
		return 0, fmt.Errorf("read on shut down half: %w", ErrClosed)
	}

	return c.b.read(p)
}

// Write sends all of p to the stream, looping over partial kernel writes per
// the io.Writer contract. On a nonblocking handle it may return a partial
// count together with ErrWouldBlock; the async adapter resumes from there.
func (c *Conn) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, fmt.Errorf("write: %w", ErrClosed)
	}
	if c.writeDown.Load() {
		return 0, fmt.Errorf("write on shut down half: %w", ErrClosed)
	}

	var total int
	for total < len(p) {
		n, err := c.b.write(p[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// CloseRead shuts down the read half. The handle itself stays open until
// Close. CloseRead on an already shut down half is a no-op.
func (c *Conn) CloseRead() error {
	if c.closed.Load() {
		return fmt.Errorf("close read: %w", ErrClosed)
	}
	if c.readDown.Swap(true) {
		return nil
	}
	return c.b.closeRead()
}

// CloseWrite shuts down the write half without requiring the peer's
// cooperation: the peer observes end-of-stream on its read half while this
// side may continue reading. CloseWrite on an already shut down half is a
// no-op.
func (c *Conn) CloseWrite() error {
	if c.closed.Load() {
		return fmt.Errorf("close write: %w", ErrClosed)
	}
	if c.writeDown.Swap(true) {
		return nil
	}
	return c.b.closeWrite()
}

// Close releases the kernel handle, implicitly closing both halves. It is
// idempotent; only the first call releases the handle.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.b.close()
}
