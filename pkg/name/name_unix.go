//go:build !windows
// +build !windows

package name

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// maxSockPath is the longest socket path the kernel accepts in
// sockaddr_un.sun_path, minus the terminating NUL.
const maxSockPath = 107

func resolveFilesystem(raw string) (Name, error) {
	p := filepath.Clean(raw)
	// The socket layer reads a leading @ as the abstract-namespace marker.
	// Anchor such paths so they stay on the filesystem.
	if strings.HasPrefix(p, "@") {
		p = "./" + p
	}
	if len(p) > maxSockPath {
		return Name{}, fmt.Errorf("socket path %q exceeds %d bytes: %w", p, maxSockPath, ErrInvalidName)
	}

	return Name{kind: Filesystem, resolved: p}, nil
}

// resolveNamespaced encodes an abstract-namespace identifier. The resolved
// form carries a leading @, which the socket layer translates into the
// leading NUL the kernel expects. Only Linux has an abstract namespace.
func resolveNamespaced(raw string) (Name, error) {
	if runtime.GOOS != "linux" {
		return Name{}, fmt.Errorf("abstract socket namespace on %s: %w", runtime.GOOS, ErrUnsupportedNamespace)
	}

	id := strings.TrimPrefix(raw, "@")
	if id == "" {
		return Name{}, fmt.Errorf("empty abstract identifier: %w", ErrInvalidName)
	}
	if strings.ContainsAny(id, "/@") {
		return Name{}, fmt.Errorf("abstract identifier %q contains reserved characters: %w", id, ErrInvalidName)
	}
	if len(id) > maxSockPath {
		return Name{}, fmt.Errorf("abstract identifier %q exceeds %d bytes: %w", id, maxSockPath, ErrInvalidName)
	}

	return Name{kind: Namespaced, resolved: "@" + id}, nil
}
