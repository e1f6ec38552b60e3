// Package config holds the CLI configuration and its validation.
package config

import (
	"fmt"
	"time"

	"crossipc/localsock/pkg/log"
	"crossipc/localsock/pkg/name"
)

// Shared is the configuration common to listen and connect.
type Shared struct {
	// Name is the portable socket name, interpreted per Namespaced.
	Name string

	// Namespaced selects the OS-private namespace instead of a
	// filesystem path.
	Namespaced bool

	// Timeout bounds how long connect waits for a listener to appear.
	// Zero means a single attempt.
	Timeout time.Duration

	// LogFile, if set, receives a copy of all relayed traffic.
	LogFile string

	Verbose bool

	Logger *log.Logger
}

// Validate reports all configuration errors at once.
func (c *Shared) Validate() []error {
	var errs []error

	if _, err := c.Resolve(); err != nil {
		errs = append(errs, fmt.Errorf("'--name' is invalid: %s", err))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("'--timeout' must not be negative"))
	}

	return errs
}

// Resolve maps the configured name onto the host's addressable form.
func (c *Shared) Resolve() (name.Name, error) {
	kind := name.Filesystem
	if c.Namespaced {
		kind = name.Namespaced
	}
	return name.Resolve(c.Name, kind)
}
