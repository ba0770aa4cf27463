// Package supervisor runs recognition and dispatch for one utterance at a
// time on a background worker.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"sori/segment"
)

var (
	ErrBusy   = errors.New("still processing previous request")
	ErrClosed = errors.New("supervisor closed")
)

// Handler processes one utterance. It runs on the worker goroutine and may
// block on network calls; ctx carries the per-task timeout.
type Handler func(ctx context.Context, u *segment.Utterance) error

// ErrorFunc is told about every handler failure, including recovered panics.
type ErrorFunc func(u *segment.Utterance, err error)

type Options struct {
	Timeout time.Duration // per-task deadline; zero means none
	OnError ErrorFunc
	// OnIdle runs after the processing flag clears.
	OnIdle func()
}

// Supervisor owns the processing flag. Submit sets it and hands the utterance
// over a single-slot channel; the worker clears it when the task ends, on
// every exit path.
type Supervisor struct {
	handler Handler
	opts    Options

	busy atomic.Bool
	slot chan *segment.Utterance
	quit chan struct{}
	done chan struct{}

	mu     sync.Mutex // orders Submit against Close
	closed bool
}

func New(handler Handler, opts Options) *Supervisor {
	s := &Supervisor{
		handler: handler,
		opts:    opts,
		slot:    make(chan *segment.Utterance, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s
}

// Busy reports whether an utterance is in flight.
func (s *Supervisor) Busy() bool { return s.busy.Load() }

// Submit schedules u and returns immediately. It fails with ErrBusy while
// another utterance is in flight and ErrClosed after Close.
func (s *Supervisor) Submit(u *segment.Utterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	select {
	case s.slot <- u:
		return nil
	default:
		// unreachable while the flag guards the slot
		s.busy.Store(false)
		return ErrBusy
	}
}

// Close stops accepting work and waits for the in-flight task, if any, to
// finish or hit its own timeout.
func (s *Supervisor) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.quit)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *Supervisor) loop() {
	defer close(s.done)
	for {
		select {
		case u := <-s.slot:
			s.run(u)
		case <-s.quit:
			// a Submit accepted before Close may still be in the slot
			select {
			case u := <-s.slot:
				s.run(u)
			default:
			}
			return
		}
	}
}

func (s *Supervisor) run(u *segment.Utterance) {
	defer func() {
		s.busy.Store(false)
		if s.opts.OnIdle != nil {
			s.opts.OnIdle()
		}
	}()

	ctx := context.Background()
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	if err := s.call(ctx, u); err != nil && s.opts.OnError != nil {
		s.opts.OnError(u, err)
	}
}

func (s *Supervisor) call(ctx context.Context, u *segment.Utterance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return s.handler(ctx, u)
}
