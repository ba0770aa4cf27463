package trigger

import (
	"context"
	"sync"
)

type Signal int

const (
	SignalStart Signal = iota + 1
	SignalStop
	SignalBusy
)

func (s Signal) String() string {
	switch s {
	case SignalStart:
		return "start"
	case SignalStop:
		return "stop"
	case SignalBusy:
		return "busy"
	}
	return "none"
}

// Controller is the push-to-talk state machine. Idle moves to Recording on a
// matching press while not busy and back on release of the same trigger.
type Controller struct {
	cfg  Config
	busy func() bool

	mu        sync.Mutex
	held      map[string]bool
	recording bool

	signals chan Signal
}

// NewController builds a controller for cfg. busy reports whether the
// processing flag is set.
func NewController(cfg Config, busy func() bool) *Controller {
	if busy == nil {
		busy = func() bool { return false }
	}
	return &Controller{
		cfg:     cfg,
		busy:    busy,
		held:    make(map[string]bool),
		signals: make(chan Signal, 16),
	}
}

func (c *Controller) Config() Config { return c.cfg }

func (c *Controller) Signals() <-chan Signal { return c.signals }

func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Handle applies one event and returns the resulting signal, if any.
func (c *Controller) Handle(ev Event) (Signal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.Kind == EventKey {
		if _, ok := ModifierOf(ev.Key); ok {
			if ev.Pressed {
				c.held[ev.Key] = true
			} else {
				delete(c.held, ev.Key)
			}
		}
	}

	if !c.isTarget(ev) {
		return 0, false
	}

	if !ev.Pressed {
		if !c.recording {
			return 0, false
		}
		c.recording = false
		return SignalStop, true
	}

	if c.recording {
		return 0, false
	}
	if c.cfg.Kind == KindKey && !ev.Matched && !c.modifiersMatch() {
		return 0, false
	}
	if c.busy() {
		return SignalBusy, true
	}
	c.recording = true
	return SignalStart, true
}

// Reset forgets held modifiers and returns to idle without a signal.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.held)
	c.recording = false
}

func (c *Controller) isTarget(ev Event) bool {
	switch c.cfg.Kind {
	case KindPointer:
		return ev.Kind == EventButton && ev.Button == c.cfg.Button
	case KindKey:
		return ev.Kind == EventKey && keyMatches(c.cfg.Key, ev.Key)
	}
	return false
}

func (c *Controller) heldModifiers() Modifier {
	var m Modifier
	for k := range c.held {
		// a modifier used as the trigger key is not part of the combination
		if c.cfg.Kind == KindKey && keyMatches(c.cfg.Key, k) {
			continue
		}
		mod, _ := ModifierOf(k)
		m |= mod
	}
	return m
}

func (c *Controller) modifiersMatch() bool {
	held, want := c.heldModifiers(), c.cfg.Modifiers
	if c.cfg.AliasCtrlCmd {
		held, want = foldCtrlCmd(held), foldCtrlCmd(want)
	}
	return held == want
}

func foldCtrlCmd(m Modifier) Modifier {
	if m.Has(ModCmd) {
		m = m&^ModCmd | ModCtrl
	}
	return m
}

// Run feeds events from src through Handle and publishes signals until ctx
// is done or the source closes. Signals are delivered in order.
func (c *Controller) Run(ctx context.Context, src Source) error {
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			sig, ok := c.Handle(ev)
			if !ok {
				continue
			}
			select {
			case c.signals <- sig:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
