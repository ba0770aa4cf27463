//go:build linux

package clipboard

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// linux/uinput.h and linux/input-event-codes.h
const (
	uiSetEvbit  = 0x40045564
	uiSetKeybit = 0x40045565
	uiDevCreate = 0x5501

	evSyn = 0x00
	evKey = 0x01

	keyLeftCtrl  = 29
	keyLeftShift = 42
	keyV         = 47
)

const (
	keyboardName = "sori-keyboard"
	eventSize    = 24 // struct input_event on 64-bit
	modifierGap  = 5 * time.Millisecond
)

// uinputSetup mirrors struct uinput_user_dev.
type uinputSetup struct {
	Name             [80]byte
	Bustype, Vendor  uint16
	Product, Version uint16
	FFEffectsMax     uint32
	Absmax, Absmin   [64]int32
	Absfuzz, Absflat [64]int32
}

// keyboard is a virtual uinput keyboard. Events are written as whole
// reports: one or more key transitions followed by a sync.
type keyboard struct {
	mu  sync.Mutex
	fd  int
	buf bytes.Buffer
}

var (
	kbd     *keyboard
	kbdOnce sync.Once
	kbdErr  error
)

// Init creates the virtual keyboard used for paste chords and typed
// fallback text. It needs write access to /dev/uinput.
func Init() error {
	kbdOnce.Do(func() { kbd, kbdErr = openKeyboard() })
	return kbdErr
}

func openKeyboard() (*keyboard, error) {
	var fd int
	var err error
	for _, path := range []string{"/dev/uinput", "/dev/input/uinput"} {
		fd, err = unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err == nil || !errors.Is(err, unix.ENOENT) {
			break
		}
	}
	switch {
	case errors.Is(err, unix.ENOENT):
		return nil, errors.New("uinput device not found, try: sudo modprobe uinput")
	case err != nil:
		return nil, fmt.Errorf("opening uinput: %w", err)
	}
	if err := register(fd); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("creating virtual keyboard: %w", err)
	}
	// the compositor needs a moment to pick the new device up
	time.Sleep(200 * time.Millisecond)
	return &keyboard{fd: fd}, nil
}

func register(fd int) error {
	for _, ev := range []int{evKey, evSyn} {
		if err := unix.IoctlSetInt(fd, uiSetEvbit, ev); err != nil {
			return err
		}
	}
	// the full standard key range, so udev classifies the device as a keyboard
	for code := 0; code < 256; code++ {
		if err := unix.IoctlSetInt(fd, uiSetKeybit, code); err != nil {
			return err
		}
	}
	setup := uinputSetup{Bustype: 0x03, Vendor: 0x1234, Product: 0x5679, Version: 1}
	copy(setup.Name[:], keyboardName)
	var b bytes.Buffer
	if err := binary.Write(&b, binary.NativeEndian, &setup); err != nil {
		return err
	}
	if _, err := unix.Write(fd, b.Bytes()); err != nil {
		return err
	}
	return unix.IoctlSetInt(fd, uiDevCreate, 0)
}

// report writes key transitions and a trailing sync in one write.
func (k *keyboard) report(down bool, codes ...uint16) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var value int32
	if down {
		value = 1
	}
	k.buf.Reset()
	var ev [eventSize]byte
	put := func(typ, code uint16, value int32) {
		clear(ev[:16]) // timestamp is filled in by the kernel
		binary.NativeEndian.PutUint16(ev[16:], typ)
		binary.NativeEndian.PutUint16(ev[18:], code)
		binary.NativeEndian.PutUint32(ev[20:], uint32(value))
		k.buf.Write(ev[:])
	}
	for _, c := range codes {
		put(evKey, c, value)
	}
	put(evSyn, 0, 0)
	_, err := unix.Write(k.fd, k.buf.Bytes())
	return err
}

// chord holds mods, taps code, then lets the mods go in reverse order.
func (k *keyboard) chord(code uint16, mods ...uint16) error {
	for _, m := range mods {
		if err := k.report(true, m); err != nil {
			return err
		}
		time.Sleep(modifierGap)
	}
	if err := k.report(true, code); err != nil {
		return err
	}
	time.Sleep(modifierGap)
	if err := k.report(false, code); err != nil {
		return err
	}
	for i := len(mods) - 1; i >= 0; i-- {
		time.Sleep(modifierGap)
		if err := k.report(false, mods[i]); err != nil {
			return err
		}
	}
	return nil
}

// Paste sends Ctrl+V through the virtual keyboard.
func Paste() error {
	if err := Init(); err != nil {
		return err
	}
	return kbd.chord(keyV, keyLeftCtrl)
}

// Verify sends Ctrl+V and reads it back from the virtual keyboard's evdev
// node to confirm the kernel delivered it.
func Verify() (string, error) {
	if err := Init(); err != nil {
		return "", fmt.Errorf("uinput init: %w", err)
	}
	node, err := evdevNode(keyboardName)
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(node, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", node, err)
	}
	defer f.Close()

	if err := Paste(); err != nil {
		return "", fmt.Errorf("sending paste chord: %w", err)
	}
	seen, err := readKeys(f, 500*time.Millisecond)
	if err != nil {
		return "", err
	}
	if !seen[keyLeftCtrl] || !seen[keyV] {
		return "", fmt.Errorf("missing events (ctrl=%v, v=%v)", seen[keyLeftCtrl], seen[keyV])
	}
	return "Ctrl+V keystroke verified via " + node, nil
}

// readKeys collects the key codes in the events readable from f before the
// timeout.
func readKeys(f *os.File, timeout time.Duration) (map[uint16]bool, error) {
	if err := f.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	buf := make([]byte, eventSize*32)
	n, err := f.Read(buf)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return nil, errors.New("timed out waiting for keystroke events")
	}
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	seen := make(map[uint16]bool)
	for ev := buf[:n-n%eventSize]; len(ev) > 0; ev = ev[eventSize:] {
		if binary.NativeEndian.Uint16(ev[16:]) == evKey {
			seen[binary.NativeEndian.Uint16(ev[18:])] = true
		}
	}
	return seen, nil
}

func evdevNode(name string) (string, error) {
	matches, err := filepath.Glob("/sys/class/input/event*/device/name")
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil || strings.TrimSpace(string(data)) != name {
			continue
		}
		event := filepath.Base(filepath.Dir(filepath.Dir(m)))
		return filepath.Join("/dev/input", event), nil
	}
	return "", fmt.Errorf("%s evdev device not found", name)
}
