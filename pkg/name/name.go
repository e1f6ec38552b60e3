// Package name resolves portable local socket names into the addressable
// form of the host operating system.
//
// A name has one of two namespace kinds. Filesystem names live on the file
// hierarchy: they address Unix domain sockets directly and are mapped into
// the private pipe namespace on Windows. Namespaced names live in an
// OS-private namespace with no backing filesystem entry: the abstract socket
// namespace on Linux and the native pipe namespace on Windows.
//
// Resolution is pure validation and encoding. A Name carries no OS resource
// and is consumed by localsock.Listen and localsock.Dial.
package name

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidName indicates a name that is empty or malformed for its kind.
var ErrInvalidName = errors.New("invalid name")

// ErrUnsupportedNamespace indicates that the requested namespace kind has no
// backend on this host.
var ErrUnsupportedNamespace = errors.New("unsupported namespace")

// Kind selects the namespace a name addresses.
type Kind int

const (
	// Filesystem names are paths on the file hierarchy.
	Filesystem Kind = iota
	// Namespaced names are identifiers in an OS-private namespace.
	Namespaced
)

func (k Kind) String() string {
	switch k {
	case Filesystem:
		return "filesystem"
	case Namespaced:
		return "namespaced"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Name is a validated, resolved local socket address. The kind is fixed at
// construction and determines which backend accepts the name. Names are
// immutable values; equivalent inputs resolve to equal Names.
type Name struct {
	kind     Kind
	resolved string
}

// Kind reports the namespace kind fixed at construction.
func (n Name) Kind() Kind { return n.kind }

// String returns the resolved OS-specific address. On Unix this is a socket
// path, or an @-prefixed abstract identifier; on Windows it is a path under
// the private pipe namespace.
func (n Name) String() string { return n.resolved }

// IsZero reports whether n is the zero Name, which no backend accepts.
func (n Name) IsZero() bool { return n.resolved == "" }

// Resolve validates raw for the given kind and encodes it into the host's
// addressable form. It fails with ErrInvalidName for malformed input and
// ErrUnsupportedNamespace when the kind has no backend on this host.
func Resolve(raw string, kind Kind) (Name, error) {
	if raw == "" {
		return Name{}, fmt.Errorf("empty name: %w", ErrInvalidName)
	}
	if strings.ContainsRune(raw, 0) {
		return Name{}, fmt.Errorf("name contains NUL byte: %w", ErrInvalidName)
	}

	switch kind {
	case Filesystem:
		return resolveFilesystem(raw)
	case Namespaced:
		return resolveNamespaced(raw)
	default:
		return Name{}, fmt.Errorf("unknown namespace kind %d: %w", int(kind), ErrInvalidName)
	}
}
