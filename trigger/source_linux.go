//go:build linux

package trigger

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
)

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

var evdevKeys = map[uint16]string{
	1: "esc", 14: "backspace", 15: "tab", 28: "enter", 57: "space",
	29: "ctrl_l", 97: "ctrl_r", 42: "shift_l", 54: "shift_r",
	56: "alt_l", 100: "alt_r", 125: "cmd_l", 126: "cmd_r",
	59: "f1", 60: "f2", 61: "f3", 62: "f4", 63: "f5", 64: "f6",
	65: "f7", 66: "f8", 67: "f9", 68: "f10", 87: "f11", 88: "f12",
	2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",
}

var evdevButtons = map[uint16]Button{
	0x112: ButtonMiddle,
	0x113: ButtonSide, // BTN_SIDE
	0x114: ButtonSide, // BTN_EXTRA
	0x115: ButtonSide, // BTN_FORWARD
	0x116: ButtonSide, // BTN_BACK
}

// evdevSource reads /dev/input directly. The user must be in the 'input'
// group.
type evdevSource struct {
	events chan Event
	files  []*os.File
	stop   chan struct{}
	once   sync.Once
}

// NewSource returns the platform event source for cfg.
func NewSource(_ Config) Source {
	return &evdevSource{events: make(chan Event, 64)}
}

func (s *evdevSource) Start(ctx context.Context) error {
	devices, err := findInputDevices()
	if err != nil {
		return fmt.Errorf("finding input devices: %w", err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("no input devices found (is user in 'input' group?)")
	}

	s.stop = make(chan struct{})
	for _, path := range devices {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		s.files = append(s.files, f)
		go s.readEvents(f)
	}
	if len(s.files) == 0 {
		return fmt.Errorf("could not open any input device (run: sudo usermod -aG input $USER, then re-login)")
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.stop:
		}
	}()
	return nil
}

func (s *evdevSource) Events() <-chan Event { return s.events }

func (s *evdevSource) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			ev, ok := decodeEvent(evType, evCode, evValue)
			if !ok {
				continue
			}
			select {
			case s.events <- ev:
			case <-s.stop:
				return
			}
		}
	}
}

// decodeEvent maps one input_event to a trigger event. Autorepeat and
// unknown codes are dropped.
func decodeEvent(typ, code uint16, value int32) (Event, bool) {
	if typ != evKey || (value != keyPress && value != keyRelease) {
		return Event{}, false
	}
	pressed := value == keyPress
	if b, ok := evdevButtons[code]; ok {
		return Event{Kind: EventButton, Button: b, Pressed: pressed}, true
	}
	if k, ok := evdevKeys[code]; ok {
		return Event{Kind: EventKey, Key: k, Pressed: pressed}, true
	}
	return Event{}, false
}

func (s *evdevSource) Close() {
	s.once.Do(func() {
		if s.stop != nil {
			close(s.stop)
		}
		for _, f := range s.files {
			f.Close()
		}
	})
}

func findInputDevices() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var devices []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if hasKeys(e.Name()) {
			devices = append(devices, filepath.Join("/dev/input", e.Name()))
		}
	}
	return devices, nil
}

// hasKeys reports whether the device advertises any EV_KEY code. Keyboards
// and mice both do; touchpads without buttons and sensors do not.
func hasKeys(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	return strings.Trim(string(data), "0 \n") != ""
}

// Diagnose checks evdev access and returns a status message.
func Diagnose(_ Config) (string, error) {
	devices, err := findInputDevices()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(devices) == 0 {
		return "", fmt.Errorf("no input devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range devices {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d input device(s) but cannot open any (run: sudo usermod -aG input $USER)", len(devices))
	}
	return fmt.Sprintf("%d input device(s) found, opened %s", len(devices), opened), nil
}
