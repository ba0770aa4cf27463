package trigger

import "context"

type EventKind int

const (
	EventKey EventKind = iota
	EventButton
)

// Event is one raw press or release from an input device.
type Event struct {
	Kind    EventKind
	Key     string // canonical key name for EventKey
	Button  Button // logical button for EventButton
	Pressed bool
	// Matched marks key events whose modifier combination was already
	// checked by the OS, as with registered global hotkeys.
	Matched bool
}

// Source delivers input events until ctx is cancelled or Close is called.
type Source interface {
	// Start begins listening. Errors here are startup errors: missing
	// permissions, no devices, or a trigger the platform cannot register.
	Start(ctx context.Context) error
	Events() <-chan Event
	Close()
}
