package async

import (
	"context"
	"fmt"

	"crossipc/localsock/pkg/localsock"
	"crossipc/localsock/pkg/name"
)

// DialContext establishes a connection without blocking the caller's
// goroutine beyond ctx: the blocking dial runs on its own goroutine and the
// result is wrapped for r. If ctx is cancelled first, a connection that
// still materializes is closed immediately, so cancellation never leaks a
// handle. A deadline on ctx bounds the wait for a listener to appear.
func DialContext(ctx context.Context, r *Reactor, n name.Name) (*Conn, error) {
	type result struct {
		c   *localsock.Conn
		err error
	}

	ch := make(chan result, 1)
	go func() {
		c, err := localsock.DialContext(ctx, n)
		ch <- result{c: c, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		a, err := NewConn(r, res.c)
		if err != nil {
			res.c.Close()
			return nil, err
		}
		return a, nil
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.c != nil {
				res.c.Close()
			}
		}()
		return nil, fmt.Errorf("dialing %s: %w", n, ctx.Err())
	}
}
