//go:build darwin || freebsd || openbsd
// +build darwin freebsd openbsd

package async

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

type waiterKey struct {
	fd  int
	dir direction
}

// Reactor multiplexes readiness notifications for nonblocking descriptors
// over one kqueue. Registrations are one-shot per direction; a self-pipe
// interrupts the wait loop on Close.
type Reactor struct {
	kq    int
	wakeR int
	wakeW int

	mu      sync.Mutex
	waiters map[waiterKey]chan struct{}
	closed  bool

	closing chan struct{}
	done    chan struct{}
}

// New creates a Reactor and starts its wait loop.
func New() (*Reactor, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue: %w", err)
	}
	unix.CloseOnExec(kq)

	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		unix.Close(kq)
		return nil, fmt.Errorf("pipe: %w", err)
	}
	unix.SetNonblock(p[0], true)
	unix.SetNonblock(p[1], true)

	var ev unix.Kevent_t
	unix.SetKevent(&ev, p[0], unix.EVFILT_READ, unix.EV_ADD)
	if _, err := unix.Kevent(kq, []unix.Kevent_t{ev}, nil, nil); err != nil {
		unix.Close(kq)
		unix.Close(p[0])
		unix.Close(p[1])
		return nil, fmt.Errorf("kevent(wake pipe): %w", err)
	}

	r := &Reactor{
		kq:      kq,
		wakeR:   p[0],
		wakeW:   p[1],
		waiters: make(map[waiterKey]chan struct{}),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go r.loop()
	return r, nil
}

// Close stops the wait loop and wakes every suspended operation with
// ErrReactorClosed. It is idempotent.
func (r *Reactor) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	unix.Write(r.wakeW, []byte{0})
	<-r.done

	unix.Close(r.kq)
	unix.Close(r.wakeR)
	unix.Close(r.wakeW)
	return nil
}

// wait arms one-shot readiness interest for one direction of fd and parks
// until the loop signals, ctx is done, or the reactor closes.
func (r *Reactor) wait(ctx context.Context, fd int, dir direction) error {
	ch, err := r.arm(fd, dir)
	if err != nil {
		return err
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		r.disarm(fd, dir)
		return ctx.Err()
	case <-r.closing:
		r.disarm(fd, dir)
		return ErrReactorClosed
	}
}

func (r *Reactor) arm(fd int, dir direction) (chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrReactorClosed
	}

	key := waiterKey{fd: fd, dir: dir}
	if _, exists := r.waiters[key]; exists {
		return nil, ErrUsage
	}

	var ev unix.Kevent_t
	unix.SetKevent(&ev, fd, filterFor(dir), unix.EV_ADD|unix.EV_ONESHOT)
	if _, err := unix.Kevent(r.kq, []unix.Kevent_t{ev}, nil, nil); err != nil {
		return nil, fmt.Errorf("registering fd %d: %w", fd, err)
	}

	ch := make(chan struct{}, 1)
	r.waiters[key] = ch
	return ch, nil
}

func (r *Reactor) disarm(fd int, dir direction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := waiterKey{fd: fd, dir: dir}
	if _, exists := r.waiters[key]; !exists {
		return
	}
	delete(r.waiters, key)

	var ev unix.Kevent_t
	unix.SetKevent(&ev, fd, filterFor(dir), unix.EV_DELETE)
	unix.Kevent(r.kq, []unix.Kevent_t{ev}, nil, nil) // may already have fired
}

// wakeFd signals every waiter of fd. Called when the handle is closed out
// from under a suspended operation, which would otherwise never wake: the
// kernel drops closed descriptors from the interest set silently. The
// retried call observes the closed state and fails with ErrClosed.
func (r *Reactor) wakeFd(fd int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dir := range []direction{dirRead, dirWrite} {
		key := waiterKey{fd: fd, dir: dir}
		if ch, ok := r.waiters[key]; ok {
			ch <- struct{}{}
			delete(r.waiters, key)
		}
	}
}

func (r *Reactor) loop() {
	defer close(r.done)

	events := make([]unix.Kevent_t, 64)
	for {
		n, err := unix.Kevent(r.kq, nil, events, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			close(r.closing)
			return
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Ident)

			if fd == r.wakeR {
				var buf [8]byte
				unix.Read(r.wakeR, buf[:])
				r.mu.Lock()
				closed := r.closed
				r.mu.Unlock()
				if closed {
					close(r.closing)
					return
				}
				continue
			}

			dir := dirRead
			if int32(ev.Filter) == unix.EVFILT_WRITE {
				dir = dirWrite
			}

			r.mu.Lock()
			key := waiterKey{fd: fd, dir: dir}
			if ch, ok := r.waiters[key]; ok {
				ch <- struct{}{}
				delete(r.waiters, key)
			}
			r.mu.Unlock()
		}
	}
}

func filterFor(dir direction) int {
	if dir == dirWrite {
		return unix.EVFILT_WRITE
	}
	return unix.EVFILT_READ
}
