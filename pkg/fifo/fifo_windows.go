//go:build windows
// +build windows

package fifo

import (
	"io"
	"os"
)

// Create fails with ErrUnsupported: Windows has no FIFO special files.
func Create(path string, mode os.FileMode) error {
	return ErrUnsupported
}

// Remove fails with ErrUnsupported.
func Remove(path string) error {
	return ErrUnsupported
}

// OpenReader fails with ErrUnsupported.
func OpenReader(path string) (io.ReadCloser, error) {
	return nil, ErrUnsupported
}

// OpenWriter fails with ErrUnsupported.
func OpenWriter(path string) (io.WriteCloser, error) {
	return nil, ErrUnsupported
}
