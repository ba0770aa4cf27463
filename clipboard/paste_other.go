//go:build !linux

package clipboard

import (
	"runtime"
	"sync"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbMu   sync.Mutex
	kbOnce sync.Once
	kbErr  error
)

// Init creates the OS key event binding.
func Init() error {
	kbOnce.Do(func() { kb, kbErr = keybd_event.NewKeyBonding() })
	return kbErr
}

// press sends one key, with Cmd on darwin or Ctrl elsewhere when cmd is set.
func press(key int, shift, cmd bool) error {
	if err := Init(); err != nil {
		return err
	}
	kbMu.Lock()
	defer kbMu.Unlock()
	kb.Clear()
	kb.SetKeys(key)
	kb.HasSHIFT(shift)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(cmd)
	} else {
		kb.HasCTRL(cmd)
	}
	return kb.Launching()
}

// Paste sends Cmd+V on darwin and Ctrl+V elsewhere.
func Paste() error { return press(keybd_event.VK_V, false, true) }

var letterKeys = [26]int{
	keybd_event.VK_A, keybd_event.VK_B, keybd_event.VK_C, keybd_event.VK_D,
	keybd_event.VK_E, keybd_event.VK_F, keybd_event.VK_G, keybd_event.VK_H,
	keybd_event.VK_I, keybd_event.VK_J, keybd_event.VK_K, keybd_event.VK_L,
	keybd_event.VK_M, keybd_event.VK_N, keybd_event.VK_O, keybd_event.VK_P,
	keybd_event.VK_Q, keybd_event.VK_R, keybd_event.VK_S, keybd_event.VK_T,
	keybd_event.VK_U, keybd_event.VK_V, keybd_event.VK_W, keybd_event.VK_X,
	keybd_event.VK_Y, keybd_event.VK_Z,
}

var digitKeys = [10]int{
	keybd_event.VK_0, keybd_event.VK_1, keybd_event.VK_2, keybd_event.VK_3,
	keybd_event.VK_4, keybd_event.VK_5, keybd_event.VK_6, keybd_event.VK_7,
	keybd_event.VK_8, keybd_event.VK_9,
}

// typeKeys types letters, digits and spaces; anything else is skipped.
func typeKeys(text string) error {
	for i := 0; i < len(text); i++ {
		c := text[i]
		var err error
		switch {
		case c >= 'a' && c <= 'z':
			err = press(letterKeys[c-'a'], false, false)
		case c >= 'A' && c <= 'Z':
			err = press(letterKeys[c-'A'], true, false)
		case c >= '0' && c <= '9':
			err = press(digitKeys[c-'0'], false, false)
		case c == ' ':
			err = press(keybd_event.VK_SPACE, false, false)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func fallbackTyper() func(string) error { return typeKeys }

// Verify checks that the key event binding can be created.
func Verify() (string, error) {
	if err := Init(); err != nil {
		return "", err
	}
	chord := "Ctrl+V"
	if runtime.GOOS == "darwin" {
		chord = "Cmd+V"
	}
	return "keyboard event binding OK (" + chord + ")", nil
}
