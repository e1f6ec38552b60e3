package localsock

import (
	"errors"

	"crossipc/localsock/pkg/name"
)

// Sentinel errors returned by listeners and connections. Backend failures are
// classified into these and wrapped with call context; uncategorized OS
// failures are surfaced with their original error code attached.
var (
	// ErrInvalidName mirrors name.ErrInvalidName for callers that only
	// import this package.
	ErrInvalidName = name.ErrInvalidName

	// ErrUnsupportedNamespace mirrors name.ErrUnsupportedNamespace.
	ErrUnsupportedNamespace = name.ErrUnsupportedNamespace

	// ErrAddressInUse indicates a bind to a name held by a live listener.
	ErrAddressInUse = errors.New("address already in use")

	// ErrNotFound indicates a connect to a name with no listener behind it.
	ErrNotFound = errors.New("no listener at address")

	// ErrPermissionDenied indicates the OS rejected access to the address.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConnectionReset indicates the peer vanished mid-transfer.
	ErrConnectionReset = errors.New("connection reset by peer")

	// ErrClosed indicates an operation on a closed listener or connection,
	// or on a connection half that was already shut down.
	ErrClosed = errors.New("use of closed resource")

	// ErrWouldBlock is returned by backend calls on a nonblocking handle
	// that has nothing ready. It never surfaces through the blocking API;
	// the async adapter converts it into a suspension.
	ErrWouldBlock = errors.New("operation would block")
)

// isRetryableDial reports whether a dial failure may resolve itself once a
// listener appears.
func isRetryableDial(err error) bool {
	return errors.Is(err, ErrNotFound)
}
