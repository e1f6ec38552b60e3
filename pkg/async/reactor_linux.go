//go:build linux
// +build linux

package async

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// fdInterest tracks the waiter channels of one registered descriptor. A nil
// slot means no waiter for that direction.
type fdInterest struct {
	read  chan struct{}
	write chan struct{}
}

// Reactor multiplexes readiness notifications for nonblocking descriptors
// over one epoll instance. One background goroutine runs the wait loop; a
// self-pipe interrupts it on Close.
type Reactor struct {
	epfd  int
	wakeR int
	wakeW int

	mu       sync.Mutex
	interest map[int]*fdInterest
	closed   bool

	closing chan struct{}
	done    chan struct{}
}

// New creates a Reactor and starts its wait loop.
func New() (*Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("pipe2: %w", err)
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(p[0])}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, p[0], &ev); err != nil {
		unix.Close(epfd)
		unix.Close(p[0])
		unix.Close(p[1])
		return nil, fmt.Errorf("epoll_ctl(wake pipe): %w", err)
	}

	r := &Reactor{
		epfd:     epfd,
		wakeR:    p[0],
		wakeW:    p[1],
		interest: make(map[int]*fdInterest),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
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

	unix.Close(r.epfd)
	unix.Close(r.wakeR)
	unix.Close(r.wakeW)
	return nil
}

// wait arms readiness interest for one direction of fd and parks until the
// loop signals, ctx is done, or the reactor closes. On a non-nil return the
// interest has been deregistered and the handle is idle.
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

	in, registered := r.interest[fd]
	if !registered {
		in = &fdInterest{}
		r.interest[fd] = in
	}

	ch := make(chan struct{}, 1)
	switch dir {
	case dirRead:
		if in.read != nil {
			return nil, ErrUsage
		}
		in.read = ch
	case dirWrite:
		if in.write != nil {
			return nil, ErrUsage
		}
		in.write = ch
	}

	if err := r.updateLocked(fd, in, registered); err != nil {
		if dir == dirRead {
			in.read = nil
		} else {
			in.write = nil
		}
		if !registered {
			delete(r.interest, fd)
		}
		return nil, fmt.Errorf("registering fd %d: %w", fd, err)
	}
	return ch, nil
}

func (r *Reactor) disarm(fd int, dir direction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.interest[fd]
	if !ok {
		return
	}
	if dir == dirRead {
		in.read = nil
	} else {
		in.write = nil
	}
	r.updateLocked(fd, in, true)
}

// updateLocked reconciles the epoll registration of fd with its current
// waiter set: add, modify, or delete depending on what remains armed.
func (r *Reactor) updateLocked(fd int, in *fdInterest, registered bool) error {
	var events uint32
	if in.read != nil {
		events |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if in.write != nil {
		events |= unix.EPOLLOUT
	}

	if events == 0 {
		delete(r.interest, fd)
		if registered {
			unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		}
		return nil
	}

	op := unix.EPOLL_CTL_MOD
	if !registered {
		op = unix.EPOLL_CTL_ADD
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, op, fd, &ev)
}

// wakeFd signals every waiter of fd. Called when the handle is closed out
// from under a suspended operation, which would otherwise never wake: the
// kernel drops closed descriptors from the interest set silently. The
// retried call observes the closed state and fails with ErrClosed.
func (r *Reactor) wakeFd(fd int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.interest[fd]
	if !ok {
		return
	}
	if in.read != nil {
		in.read <- struct{}{}
		in.read = nil
	}
	if in.write != nil {
		in.write <- struct{}{}
		in.write = nil
	}
	r.updateLocked(fd, in, true)
}

func (r *Reactor) loop() {
	defer close(r.done)

	events := make([]unix.EpollEvent, 64)
	for {
		n, err := unix.EpollWait(r.epfd, events, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			close(r.closing)
			return
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Fd)

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

			r.dispatch(fd, ev.Events)
		}
	}
}

// dispatch signals the waiters a readiness event unblocks and drops their
// interest. Error and hangup conditions wake both directions so the retried
// call can observe the failure.
func (r *Reactor) dispatch(fd int, events uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.interest[fd]
	if !ok {
		return
	}

	fail := events&(unix.EPOLLERR|unix.EPOLLHUP) != 0
	if in.read != nil && (fail || events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0) {
		in.read <- struct{}{}
		in.read = nil
	}
	if in.write != nil && (fail || events&unix.EPOLLOUT != 0) {
		in.write <- struct{}{}
		in.write = nil
	}

	r.updateLocked(fd, in, true)
}
