// Package unnamed provides anonymous pipe pairs: two pre-connected
// unidirectional handles with no name in any namespace. An unnamed pipe is a
// local socket connection missing one half; typical use is handing one end
// to a child process.
package unnamed

import (
	"fmt"
	"io"
	"os"
)

// Pair creates an unnamed pipe and returns its two ends. Bytes written to w
// appear on r in order; closing w makes r observe end-of-stream after the
// buffered bytes drain. Each end owns its kernel handle and must be closed
// by its holder.
func Pair() (r io.ReadCloser, w io.WriteCloser, err error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("os.Pipe(): %w", err)
	}
	return pr, pw, nil
}

// Files creates an unnamed pipe and returns its ends as files, for callers
// that need to pass an end to a child process via os/exec.
func Files() (r *os.File, w *os.File, err error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("os.Pipe(): %w", err)
	}
	return pr, pw, nil
}
