package command

import "time"

// uinput devices created by keybd_event are ignored by the session until it
// has seen them for a moment.
const bondingWarmup = 2 * time.Second

// evdev key codes from linux/input-event-codes.h.
var keyCodes = map[string]int{
	"esc": 1, "1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"backspace": 14, "tab": 15,
	"q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"[": 26, "]": 27, "enter": 28,
	"a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36, "k": 37, "l": 38,
	"`": 41,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50,
	"space": 57,
	"f4": 62, "f11": 87,
	"home": 102, "up": 103, "pageup": 104, "left": 105, "right": 106,
	"end": 107, "down": 108, "pagedown": 109, "delete": 111,
	"print": 99, "super": 125,
}

func keyCode(name string) (int, bool) {
	c, ok := keyCodes[name]
	return c, ok
}
