//go:build windows
// +build windows

package localsock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/Microsoft/go-winio"
	"golang.org/x/sys/windows"

	"crossipc/localsock/pkg/name"
)

// pipeBufferSize sizes the kernel buffers of each pipe instance.
const pipeBufferSize = 64 * 1024

// listenBackend creates the first instance of a byte-mode named pipe. Byte
// mode is deliberate: message-mode pipes would leak record boundaries into an
// API that promises pure byte-stream semantics. Named pipes live in a private
// kernel namespace, so there is never a filesystem entry to unlink.
func listenBackend(n name.Name) (listenerBackend, bool, error) {
	l, err := winio.ListenPipe(n.String(), &winio.PipeConfig{
		InputBufferSize:  pipeBufferSize,
		OutputBufferSize: pipeBufferSize,
	})
	if err != nil {
		return nil, false, classify(fmt.Sprintf("listen(%s)", n), err)
	}
	return &pipeListener{l: l}, false, nil
}

// dialBackend opens the named pipe by name. go-winio waits out busy pipe
// instances internally until ctx is done.
func dialBackend(ctx context.Context, n name.Name) (connBackend, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dialing %s: %w", n, err)
	}

	c, err := winio.DialPipeContext(ctx, n.String())
	if err != nil {
		return nil, classify(fmt.Sprintf("connect(%s)", n), err)
	}
	return &pipeConn{c: c}, nil
}

type pipeListener struct {
	l net.Listener
}

func (l *pipeListener) accept() (connBackend, error) {
	c, err := l.l.Accept()
	if err != nil {
		return nil, classify("accept", err)
	}
	return &pipeConn{c: c}, nil
}

func (l *pipeListener) close() error {
	return l.l.Close()
}

type pipeConn struct {
	c net.Conn
}

func (c *pipeConn) read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := c.c.Read(p)
	if err != nil {
		// go-winio reports a peer that closed its handle as EOF, matching
		// the socket backend's zero-length-read convention.
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		return n, classify("read", err)
	}
	return n, nil
}

func (c *pipeConn) write(p []byte) (int, error) {
	n, err := c.c.Write(p)
	if err != nil {
		return n, classify("write", err)
	}
	return n, nil
}

// closeRead has no kernel equivalent on byte-mode named pipes; the portable
// layer rejects reads on the shut down half locally.
func (c *pipeConn) closeRead() error {
	return nil
}

// closeWrite has no kernel equivalent on byte-mode named pipes. The peer
// observes end-of-stream when the handle is fully closed; until then the
// portable layer rejects writes on the shut down half locally.
func (c *pipeConn) closeWrite() error {
	return nil
}

func (c *pipeConn) close() error {
	return c.c.Close()
}

// classify maps Windows pipe errors onto the package's error taxonomy,
// keeping the OS error attached for diagnostics.
func classify(op string, err error) error {
	var sentinel error
	switch {
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		// Creating the first instance of an existing pipe name is refused;
		// this is the named-pipe shape of an address collision.
		sentinel = ErrAddressInUse
	case errors.Is(err, windows.ERROR_FILE_NOT_FOUND), errors.Is(err, os.ErrNotExist):
		sentinel = ErrNotFound
	case errors.Is(err, windows.ERROR_BROKEN_PIPE), errors.Is(err, windows.ERROR_NO_DATA),
		errors.Is(err, windows.ERROR_PIPE_NOT_CONNECTED):
		sentinel = ErrConnectionReset
	case errors.Is(err, winio.ErrFileClosed), errors.Is(err, winio.ErrPipeListenerClosed),
		errors.Is(err, net.ErrClosed):
		sentinel = ErrClosed
	case errors.Is(err, winio.ErrTimeout):
		sentinel = ErrNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, sentinel, err)
}
