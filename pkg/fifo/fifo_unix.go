//go:build !windows
// +build !windows

package fifo

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Create makes a FIFO special file at path. The entry persists until
// Remove; opening it does not consume it.
func Create(path string, mode os.FileMode) error {
	if err := unix.Mkfifo(path, uint32(mode.Perm())); err != nil {
		return fmt.Errorf("mkfifo(%s): %w", path, err)
	}
	return nil
}

// Remove unlinks the FIFO entry at path. Ends already open keep working.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing FIFO %s: %w", path, err)
	}
	return nil
}

// OpenReader opens the read end. The call blocks until a writer opens the
// other end, per FIFO semantics.
func OpenReader(path string) (io.ReadCloser, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening FIFO %s for reading: %w", path, err)
	}
	return f, nil
}

// OpenWriter opens the write end. The call blocks until a reader opens the
// other end, per FIFO semantics.
func OpenWriter(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening FIFO %s for writing: %w", path, err)
	}
	return f, nil
}
