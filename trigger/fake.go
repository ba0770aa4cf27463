package trigger

import "context"

// FakeSource is a Source driven by the test harness.
type FakeSource struct {
	events chan Event
}

func NewFakeSource() *FakeSource {
	return &FakeSource{events: make(chan Event, 16)}
}

func (f *FakeSource) Start(context.Context) error { return nil }
func (f *FakeSource) Events() <-chan Event        { return f.events }
func (f *FakeSource) Close()                      {}

// Press simulates pressing the configured trigger, holding its modifiers.
func (f *FakeSource) Press(cfg Config) {
	if cfg.Kind == KindPointer {
		f.events <- Event{Kind: EventButton, Button: cfg.Button, Pressed: true}
		return
	}
	f.events <- Event{Kind: EventKey, Key: cfg.Key, Pressed: true, Matched: true}
}

func (f *FakeSource) Release(cfg Config) {
	if cfg.Kind == KindPointer {
		f.events <- Event{Kind: EventButton, Button: cfg.Button}
		return
	}
	f.events <- Event{Kind: EventKey, Key: cfg.Key, Matched: true}
}

// Send injects a raw event.
func (f *FakeSource) Send(ev Event) { f.events <- ev }
