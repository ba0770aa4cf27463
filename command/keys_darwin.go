package command

import "time"

const bondingWarmup = time.Duration(0)

// macOS virtual keycodes (Carbon kVK_*).
var keyCodes = map[string]int{
	"a": 0x00, "s": 0x01, "d": 0x02, "f": 0x03, "h": 0x04, "g": 0x05, "z": 0x06,
	"x": 0x07, "c": 0x08, "v": 0x09, "b": 0x0B, "q": 0x0C, "w": 0x0D, "e": 0x0E,
	"r": 0x0F, "y": 0x10, "t": 0x11, "o": 0x1F, "u": 0x20, "i": 0x22, "p": 0x23,
	"l": 0x25, "j": 0x26, "k": 0x28, "n": 0x2D, "m": 0x2E,
	"1": 0x12, "2": 0x13, "3": 0x14, "4": 0x15, "6": 0x16, "5": 0x17,
	"9": 0x19, "7": 0x1A, "8": 0x1C, "0": 0x1D,
	"enter":     0x24,
	"tab":       0x30,
	"space":     0x31,
	"backspace": 0x33,
	"esc":       0x35,
	"delete":    0x75,
	"home":      0x73,
	"pageup":    0x74,
	"end":       0x77,
	"pagedown":  0x79,
	"left":      0x7B,
	"right":     0x7C,
	"down":      0x7D,
	"up":        0x7E,
	"`":         0x32,
	"[":         0x21,
	"]":         0x1E,
}

func keyCode(name string) (int, bool) {
	c, ok := keyCodes[name]
	return c, ok
}
