// Package async drives localsock listeners and connections without blocking
// the calling goroutine on the kernel. A Reactor supplies readiness
// notifications; wrapped operations either complete immediately or park on a
// notification and retry exactly once per wake, so many handles can share a
// small number of goroutines.
//
// On Unix-like systems the Reactor is a readiness poller (epoll on Linux,
// kqueue on the BSDs and macOS) over nonblocking descriptors. Windows named
// pipes expose no readiness model, so there the Reactor dispatches
// completions of operations driven on the blocking handle.
//
// At most one operation may be in flight per direction per handle; a second
// concurrent read, write, or accept fails immediately with ErrUsage instead
// of silently interleaving. Cancelling a suspended operation leaves the
// handle either fully idle or closed, never mid-operation.
package async

import "errors"

// ErrUsage indicates two concurrent operations on the same direction of one
// handle. This is a caller bug, reported immediately.
var ErrUsage = errors.New("concurrent operation on the same handle direction")

// ErrWriteCancelled indicates a write cancelled after part of it may have
// reached the kernel. The amount written is unknown, so the connection is
// closed and must be treated as dead.
var ErrWriteCancelled = errors.New("write cancelled with unknown progress; connection closed")

// ErrReactorClosed indicates an operation suspended on a Reactor that was
// shut down before the operation could complete.
var ErrReactorClosed = errors.New("reactor closed")
