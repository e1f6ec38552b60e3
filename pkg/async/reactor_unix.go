//go:build linux || darwin || freebsd || openbsd
// +build linux darwin freebsd openbsd

package async

// direction selects which half of a handle a readiness registration covers.
type direction int

const (
	dirRead direction = iota
	dirWrite
)
