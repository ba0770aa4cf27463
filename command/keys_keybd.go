//go:build darwin || linux || windows

package command

import (
	"fmt"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

type keybdKeyboard struct {
	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
	mu   sync.Mutex
}

// NewKeyboard returns the keybd_event-backed keyboard. The virtual device is
// created on first use.
func NewKeyboard() Keyboard { return &keybdKeyboard{} }

func (k *keybdKeyboard) init() error {
	k.once.Do(func() {
		k.kb, k.err = keybd_event.NewKeyBonding()
		if k.err == nil && bondingWarmup > 0 {
			// the new uinput device must be picked up before it can type
			time.Sleep(bondingWarmup)
		}
	})
	return k.err
}

func (k *keybdKeyboard) Tap(c Chord) error {
	code, ok := keyCode(normalizeKey(c.Key))
	if !ok {
		return fmt.Errorf("%w: key %q", ErrUnsupported, c.Key)
	}
	if err := k.init(); err != nil {
		return fmt.Errorf("keyboard: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.kb.Clear()
	k.kb.SetKeys(code)
	k.kb.HasCTRL(c.Mods&ModCtrl != 0)
	k.kb.HasALT(c.Mods&ModAlt != 0)
	k.kb.HasSHIFT(c.Mods&ModShift != 0)
	k.kb.HasSuper(c.Mods&ModSuper != 0)
	return k.kb.Launching()
}
