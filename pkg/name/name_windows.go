//go:build windows
// +build windows

package name

import (
	"fmt"
	"strings"
)

// pipePrefix is the root of the private named pipe namespace.
const pipePrefix = `\\.\pipe\`

// maxPipeName bounds the name portion after the pipe prefix. The kernel
// limit is 256 characters for each pipe path component.
const maxPipeName = 246

func resolveFilesystem(raw string) (Name, error) {
	p := strings.ReplaceAll(raw, "/", `\`)

	// A path already inside the pipe namespace maps onto itself.
	if strings.HasPrefix(strings.ToLower(p), strings.ToLower(pipePrefix)) {
		p = p[len(pipePrefix):]
	}

	p = cleanPipeName(p)
	if p == "" {
		return Name{}, fmt.Errorf("path %q resolves to an empty pipe name: %w", raw, ErrInvalidName)
	}
	if len(p) > maxPipeName {
		return Name{}, fmt.Errorf("pipe name %q exceeds %d characters: %w", p, maxPipeName, ErrInvalidName)
	}

	return Name{kind: Filesystem, resolved: pipePrefix + p}, nil
}

func resolveNamespaced(raw string) (Name, error) {
	if strings.ContainsAny(raw, `\/`) {
		return Name{}, fmt.Errorf("pipe identifier %q contains path separators: %w", raw, ErrInvalidName)
	}
	if len(raw) > maxPipeName {
		return Name{}, fmt.Errorf("pipe identifier %q exceeds %d characters: %w", raw, maxPipeName, ErrInvalidName)
	}

	return Name{kind: Namespaced, resolved: pipePrefix + raw}, nil
}

// cleanPipeName normalizes a backslash-separated name: drive letters and
// empty or dot components are dropped so that equivalent inputs resolve to
// the same pipe path.
func cleanPipeName(p string) string {
	if len(p) >= 2 && p[1] == ':' {
		p = p[2:]
	}

	parts := strings.Split(p, `\`)
	kept := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, `\`)
}
