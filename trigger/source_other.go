//go:build darwin || windows

package trigger

import (
	"context"
	"fmt"
	"sync"

	hook "github.com/robotn/gohook"
	"golang.design/x/hotkey"
)

// gohook reports a held button as MouseHold and its release as MouseDown.
const (
	hookButtonMiddle = 3
	hookButtonX1     = 4
	hookButtonX2     = 5
)

// NewSource returns the platform event source for cfg: a registered global
// hotkey for key triggers, a pointer hook for mouse buttons.
func NewSource(cfg Config) Source {
	if cfg.Kind == KindPointer {
		return &pointerSource{events: make(chan Event, 16)}
	}
	return &hotkeySource{cfg: cfg, events: make(chan Event, 16)}
}

type hotkeySource struct {
	cfg    Config
	hk     *hotkey.Hotkey
	events chan Event
	stop   chan struct{}
	once   sync.Once
}

func (h *hotkeySource) Start(ctx context.Context) error {
	if _, ok := ModifierOf(h.cfg.Key); ok {
		return fmt.Errorf("%w: modifier keys as trigger need linux evdev", ErrUnknownKey)
	}
	key, ok := hotkeyKeys[h.cfg.Key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, h.cfg.Key)
	}
	h.hk = hotkey.New(hotkeyModifiers(h.cfg.Modifiers), key)
	if err := h.hk.Register(); err != nil {
		return fmt.Errorf("registering %s: %w", h.cfg.Name(), err)
	}

	h.stop = make(chan struct{})
	go func() {
		for {
			select {
			case <-h.stop:
				return
			case <-ctx.Done():
				h.Close()
				return
			case <-h.hk.Keydown():
				h.send(true)
			case <-h.hk.Keyup():
				h.send(false)
			}
		}
	}()
	return nil
}

func (h *hotkeySource) send(pressed bool) {
	select {
	case h.events <- Event{Kind: EventKey, Key: h.cfg.Key, Pressed: pressed, Matched: true}:
	case <-h.stop:
	}
}

func (h *hotkeySource) Events() <-chan Event { return h.events }

func (h *hotkeySource) Close() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		if h.hk != nil {
			_ = h.hk.Unregister()
		}
	})
}

type pointerSource struct {
	events chan Event
	stop   chan struct{}
	once   sync.Once
}

func (p *pointerSource) Start(ctx context.Context) error {
	p.stop = make(chan struct{})
	evChan := hook.Start()
	go func() {
		defer hook.End()
		for {
			select {
			case <-p.stop:
				return
			case <-ctx.Done():
				p.Close()
				return
			case ev, ok := <-evChan:
				if !ok {
					return
				}
				out, ok := decodeHookEvent(ev)
				if !ok {
					continue
				}
				select {
				case p.events <- out:
				case <-p.stop:
					return
				}
			}
		}
	}()
	return nil
}

func decodeHookEvent(ev hook.Event) (Event, bool) {
	var pressed bool
	switch ev.Kind {
	case hook.MouseHold:
		pressed = true
	case hook.MouseDown:
		pressed = false
	default:
		return Event{}, false
	}
	var b Button
	switch ev.Button {
	case hookButtonMiddle:
		b = ButtonMiddle
	case hookButtonX1, hookButtonX2:
		b = ButtonSide
	default:
		return Event{}, false
	}
	return Event{Kind: EventButton, Button: b, Pressed: pressed}, true
}

func (p *pointerSource) Events() <-chan Event { return p.events }

func (p *pointerSource) Close() {
	p.once.Do(func() {
		if p.stop != nil {
			close(p.stop)
		}
	})
}

var hotkeyKeys = map[string]hotkey.Key{
	"space": hotkey.KeySpace, "enter": hotkey.KeyReturn, "tab": hotkey.KeyTab,
	"esc": hotkey.KeyEscape, "backspace": hotkey.KeyDelete,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3, "4": hotkey.Key4,
	"5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7, "8": hotkey.Key8, "9": hotkey.Key9,
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD, "e": hotkey.KeyE,
	"f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH, "i": hotkey.KeyI, "j": hotkey.KeyJ,
	"k": hotkey.KeyK, "l": hotkey.KeyL, "m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO,
	"p": hotkey.KeyP, "q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX, "y": hotkey.KeyY,
	"z": hotkey.KeyZ,
}

// Diagnose reports whether the trigger can be registered.
func Diagnose(cfg Config) (string, error) {
	if cfg.Kind == KindPointer {
		return fmt.Sprintf("pointer hook available (%s)", cfg.Name()), nil
	}
	if _, ok := ModifierOf(cfg.Key); ok {
		return "", fmt.Errorf("modifier-only trigger %s is only supported on linux", cfg.Name())
	}
	return fmt.Sprintf("hotkey support available (%s)", cfg.Name()), nil
}
