package trigger

import (
	"fmt"
	"strings"
)

// Key names are lowercase: "a".."z", "0".."9", "f1".."f12", "space",
// "enter", "tab", "esc", "backspace", and the modifier keys "ctrl", "alt",
// "shift", "cmd" with optional "_l" or "_r" side suffix.

var namedKeys = map[string]string{
	"space":     "Space",
	"enter":     "Enter",
	"return":    "Enter",
	"tab":       "Tab",
	"esc":       "Esc",
	"escape":    "Esc",
	"backspace": "Backspace",
}

var modifierKeys = map[string]Modifier{
	"ctrl": ModCtrl, "ctrl_l": ModCtrl, "ctrl_r": ModCtrl,
	"alt": ModAlt, "alt_l": ModAlt, "alt_r": ModAlt,
	"shift": ModShift, "shift_l": ModShift, "shift_r": ModShift,
	"cmd": ModCmd, "cmd_l": ModCmd, "cmd_r": ModCmd,
}

// ParseKey returns the canonical name for a trigger key.
func ParseKey(name string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(name))
	switch k {
	case "return":
		k = "enter"
	case "escape":
		k = "esc"
	}
	if _, ok := namedKeys[k]; ok {
		return k, nil
	}
	if _, ok := modifierKeys[k]; ok {
		return k, nil
	}
	if len(k) == 1 && (k[0] >= 'a' && k[0] <= 'z' || k[0] >= '0' && k[0] <= '9') {
		return k, nil
	}
	if isFunctionKey(k) {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, name)
}

func isFunctionKey(k string) bool {
	var n int
	if _, err := fmt.Sscanf(k, "f%d", &n); err != nil {
		return false
	}
	return n >= 1 && n <= 12 && k == fmt.Sprintf("f%d", n)
}

// ModifierOf reports the modifier a key name stands for, if any.
func ModifierOf(key string) (Modifier, bool) {
	m, ok := modifierKeys[key]
	return m, ok
}

// keyMatches reports whether an event key satisfies the configured key. A
// side-less modifier accepts either side.
func keyMatches(configured, got string) bool {
	if configured == got {
		return true
	}
	if m, ok := modifierKeys[configured]; ok && !strings.Contains(configured, "_") {
		gm, gok := modifierKeys[got]
		return gok && gm == m
	}
	return false
}

func keyDisplay(k string) string {
	if d, ok := namedKeys[k]; ok {
		return d
	}
	if m, ok := modifierKeys[k]; ok {
		d := modifierDisplay[m]
		switch {
		case strings.HasSuffix(k, "_l"):
			d = "Left " + d
		case strings.HasSuffix(k, "_r"):
			d = "Right " + d
		}
		return d
	}
	return strings.ToUpper(k)
}
