//go:build linux

package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeEvent(t *testing.T) {
	ev, ok := decodeEvent(evKey, 57, keyPress)
	assert.True(t, ok)
	assert.Equal(t, Event{Kind: EventKey, Key: "space", Pressed: true}, ev)

	ev, ok = decodeEvent(evKey, 0x116, keyRelease)
	assert.True(t, ok)
	assert.Equal(t, Event{Kind: EventButton, Button: ButtonSide}, ev)

	_, ok = decodeEvent(evKey, 57, 2)
	assert.False(t, ok, "autorepeat")
	_, ok = decodeEvent(2, 0, 1)
	assert.False(t, ok, "relative motion")
	_, ok = decodeEvent(evKey, 0x110, keyPress)
	assert.False(t, ok, "left button")
}
