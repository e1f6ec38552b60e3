// Package fifo wraps named FIFO special files. A FIFO is the filesystem
// sibling of an unnamed pipe: once both ends are open, each behaves like one
// half of a local socket connection. The package creates and removes the
// filesystem entry on behalf of the caller; data transfer is plain file I/O.
//
// FIFOs exist only on Unix-like systems.
package fifo

import "errors"

// ErrUnsupported indicates the host has no FIFO support.
var ErrUnsupported = errors.New("FIFO files are not supported on this platform")
