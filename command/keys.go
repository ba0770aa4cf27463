package command

import "strings"

type Mod uint8

const (
	ModCtrl Mod = 1 << iota
	ModAlt
	ModShift
	ModSuper // Cmd on macOS, Win/Super elsewhere
)

// Chord is a key with held modifiers.
type Chord struct {
	Key  string
	Mods Mod
}

func (c Chord) String() string {
	var parts []string
	for _, m := range []struct {
		mod  Mod
		name string
	}{{ModCtrl, "ctrl"}, {ModAlt, "alt"}, {ModShift, "shift"}, {ModSuper, "super"}} {
		if c.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Keyboard sends synthetic key chords.
type Keyboard interface {
	Tap(c Chord) error
}

// keyAliases maps spoken or legacy names onto the key names the keycode
// tables use.
var keyAliases = map[string]string{
	"return": "enter",
	"escape": "esc",
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	if a, ok := keyAliases[k]; ok {
		return a
	}
	return k
}
