//go:build !windows
// +build !windows

package localsock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"

	"crossipc/localsock/pkg/name"
)

// listenBacklog bounds the kernel queue of not-yet-accepted connections.
const listenBacklog = 128

// listenBackend binds a SOCK_STREAM AF_UNIX socket to the resolved address
// and starts listening. The second return is true if binding created a
// socket file that Close must unlink.
func listenBackend(n name.Name) (listenerBackend, bool, error) {
	if n.Kind() == name.Filesystem {
		if err := reclaimStalePath(n.String()); err != nil {
			return nil, false, err
		}
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, false, classify(fmt.Sprintf("socket(%s)", n), err)
	}
	unix.CloseOnExec(fd)

	sa := &unix.SockaddrUnix{Name: n.String()}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, false, classify(fmt.Sprintf("bind(%s)", n), err)
	}
	ownsPath := n.Kind() == name.Filesystem

	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		if ownsPath {
			os.Remove(n.String())
		}
		return nil, false, classify(fmt.Sprintf("listen(%s)", n), err)
	}

	return &unixListener{fd: fd}, ownsPath, nil
}

// reclaimStalePath deals with a pre-existing entry at a filesystem socket
// path. A live listener answers a probe connect and the bind fails with
// ErrAddressInUse; a dead socket file is unlinked so the bind can reuse the
// path. Anything else at the path is left alone and reported as in use.
func reclaimStalePath(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		return nil // nothing there, bind will create it
	}
	if fi.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("bind(%s): path occupied by non-socket file: %w", path, ErrAddressInUse)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return classify(fmt.Sprintf("socket(%s)", path), err)
	}
	defer unix.Close(fd)

	err = retryIntr(func() error {
		return unix.Connect(fd, &unix.SockaddrUnix{Name: path})
	})
	if err == nil {
		return fmt.Errorf("bind(%s): %w", path, ErrAddressInUse)
	}
	if errors.Is(err, unix.ECONNREFUSED) {
		if rerr := os.Remove(path); rerr != nil {
			return fmt.Errorf("removing stale socket %s: %w", path, rerr)
		}
		return nil
	}
	return fmt.Errorf("bind(%s): %w", path, ErrAddressInUse)
}

// dialBackend connects to the listener at the resolved address. It makes a
// single attempt; retry-until-deadline lives in DialContext.
func dialBackend(ctx context.Context, n name.Name) (connBackend, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dialing %s: %w", n, err)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, classify(fmt.Sprintf("socket(%s)", n), err)
	}
	unix.CloseOnExec(fd)

	err = retryIntr(func() error {
		return unix.Connect(fd, &unix.SockaddrUnix{Name: n.String()})
	})
	if err != nil {
		unix.Close(fd)
		return nil, classify(fmt.Sprintf("connect(%s)", n), err)
	}

	return &unixConn{fd: fd}, nil
}

type unixListener struct {
	fd int
}

func (l *unixListener) accept() (connBackend, error) {
	for {
		nfd, _, err := unix.Accept(l.fd)
		switch {
		case err == nil:
			unix.CloseOnExec(nfd)
			return &unixConn{fd: nfd}, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return nil, ErrWouldBlock
		default:
			return nil, classify("accept", err)
		}
	}
}

func (l *unixListener) close() error {
	return unix.Close(l.fd)
}

type unixConn struct {
	fd int
}

func (c *unixConn) read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(c.fd, p)
		switch {
		case err == nil && n == 0:
			return 0, io.EOF
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, ErrWouldBlock
		default:
			return 0, classify("read", err)
		}
	}
}

func (c *unixConn) write(p []byte) (int, error) {
	for {
		n, err := unix.Write(c.fd, p)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, ErrWouldBlock
		default:
			return 0, classify("write", err)
		}
	}
}

func (c *unixConn) closeRead() error {
	if err := unix.Shutdown(c.fd, unix.SHUT_RD); err != nil {
		return classify("shutdown(read)", err)
	}
	return nil
}

func (c *unixConn) closeWrite() error {
	if err := unix.Shutdown(c.fd, unix.SHUT_WR); err != nil {
		return classify("shutdown(write)", err)
	}
	return nil
}

func (c *unixConn) close() error {
	return unix.Close(c.fd)
}

// retryIntr repeats a syscall interrupted by a signal.
func retryIntr(fn func() error) error {
	for {
		err := fn()
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

// classify maps an errno onto the package's error taxonomy, keeping the OS
// error attached for diagnostics. Unrecognized errors pass through wrapped.
func classify(op string, err error) error {
	var sentinel error
	switch {
	case errors.Is(err, unix.EADDRINUSE):
		sentinel = ErrAddressInUse
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ECONNREFUSED):
		sentinel = ErrNotFound
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		sentinel = ErrPermissionDenied
	case errors.Is(err, unix.ECONNRESET), errors.Is(err, unix.EPIPE):
		sentinel = ErrConnectionReset
	case errors.Is(err, unix.EBADF):
		sentinel = ErrClosed
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, sentinel, err)
}
