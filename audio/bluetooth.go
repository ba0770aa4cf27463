package audio

import (
	"strings"
	"unicode"
)

// Words that mark a Bluetooth input on their own, including the PulseAudio
// bluez source prefix and the Windows hands-free profile name.
var btWords = map[string]bool{
	"bt":        true,
	"bluetooth": true,
	"bluez":     true,
	"airpods":   true,
	"hands":     true, // "Hands-Free AG Audio"
}

// Product families sold mainly as wireless headsets.
var btProducts = []string{
	"beats", "bose", "wh-1000", "wf-1000", "jabra", "powerbeats",
	"jbl", "sennheiser momentum", "plantronics", "tozo", "soundcore",
	"skullcandy", "lg tone", "qcy", "britz", "buds",
}

// IsBluetooth guesses from a device name whether it is a Bluetooth headset.
// Those capture through the narrowband hands-free profile, which hurts
// recognition, so the device picker and device line flag them.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if btWords[w] {
			return true
		}
	}
	for _, p := range btProducts {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
