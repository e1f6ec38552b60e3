// Package pipeio relays data between two streams until either side ends.
// The CLI uses it to splice a local socket connection onto stdio.
package pipeio

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Pipe copies bytes in both directions between rwc1 and rwc2. It returns
// when either direction ends or ctx is cancelled; both streams are closed
// exactly once on the way out. Copy errors are reported through logfunc.
func Pipe(ctx context.Context, rwc1 io.ReadWriteCloser, rwc2 io.ReadWriteCloser, logfunc func(error)) {
	var wg sync.WaitGroup
	var o sync.Once

	shutdown := func() {
		rwc1.Close()
		rwc2.Close()

		wg.Done()
	}
	wg.Add(1)

	stop := context.AfterFunc(ctx, func() {
		o.Do(shutdown)
	})
	defer stop()

	go func() {
		if _, err := io.Copy(rwc1, rwc2); err != nil {
			logfunc(fmt.Errorf("io.Copy(rwc1, rwc2): %s", err))
		}

		o.Do(shutdown)
	}()

	go func() {
		if _, err := io.Copy(rwc2, rwc1); err != nil {
			logfunc(fmt.Errorf("io.Copy(rwc2, rwc1): %s", err))
		}

		o.Do(shutdown)
	}()

	wg.Wait()
}
