//go:build windows
// +build windows

package async

import (
	"sync"

	"github.com/eapache/queue"
)

// Named pipes expose no readiness notification, so the Windows Reactor is
// completion-driven: each suspended operation runs on the blocking handle in
// its own goroutine and the result is handed to the dispatch loop, which
// delivers completions to waiters strictly in finish order.

type ioResult struct {
	n   int
	err error
}

type completion struct {
	ch  chan ioResult
	res ioResult
}

// Reactor dispatches operation completions for wrapped handles.
type Reactor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	q      *queue.Queue
	closed bool
	done   chan struct{}
}

// New creates a Reactor and starts its dispatch loop.
func New() (*Reactor, error) {
	r := &Reactor{
		q:    queue.New(),
		done: make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	go r.loop()
	return r, nil
}

// Close drains queued completions and stops the dispatch loop. Operations
// still running against their handles deliver directly to their waiters
// afterwards, so nothing is lost. Close is idempotent.
func (r *Reactor) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.cond.Signal()
	r.mu.Unlock()

	<-r.done
	return nil
}

// submit runs op on its own goroutine and returns the channel its
// completion will be delivered on.
func (r *Reactor) submit(op func() ioResult) chan ioResult {
	ch := make(chan ioResult, 1)
	go func() {
		res := op()

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			ch <- res
			return
		}
		r.q.Add(completion{ch: ch, res: res})
		r.cond.Signal()
		r.mu.Unlock()
	}()
	return ch
}

func (r *Reactor) loop() {
	defer close(r.done)

	r.mu.Lock()
	for {
		for r.q.Length() == 0 && !r.closed {
			r.cond.Wait()
		}
		if r.q.Length() == 0 && r.closed {
			r.mu.Unlock()
			return
		}

		c := r.q.Remove().(completion)
		r.mu.Unlock()
		c.ch <- c.res
		r.mu.Lock()
	}
}
