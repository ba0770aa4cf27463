package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	calls   []string
	outputs map[string]string
	fail    map[string]bool
}

func (r *scriptedRunner) run(_ context.Context, name string, args ...string) (string, error) {
	call := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, call)
	if r.fail[name] {
		return "", errors.New(name + ": not found")
	}
	return r.outputs[call], nil
}

func newScripted() (*scriptedRunner, *tapRecorder, *Native) {
	r := &scriptedRunner{outputs: map[string]string{}, fail: map[string]bool{}}
	kb := &tapRecorder{}
	return r, kb, NewNative(WithRunner(r.run), WithKeyboard(kb))
}

func TestLinuxToolCommands(t *testing.T) {
	cases := []struct {
		action Action
		want   string
	}{
		{Action{Kind: VolumeUp, Amount: 10}, "pactl set-sink-volume @DEFAULT_SINK@ +10%"},
		{Action{Kind: VolumeDown, Amount: 10}, "pactl set-sink-volume @DEFAULT_SINK@ -10%"},
		{Action{Kind: Mute}, "pactl set-sink-mute @DEFAULT_SINK@ 1"},
		{Action{Kind: Unmute}, "pactl set-sink-mute @DEFAULT_SINK@ 0"},
		{Action{Kind: BrightnessDown}, "brightnessctl set 10%-"},
		{Action{Kind: MouseRightClick}, "xdotool click 3"},
		{Action{Kind: MouseDoubleClick}, "xdotool click --repeat 2 1"},
		{Action{Kind: ScrollDown, Amount: 5}, "xdotool click --repeat 5 5"},
		{Action{Kind: MouseMove, DX: -100}, "xdotool mousemove_relative -- -100 0"},
		{Action{Kind: LockScreen}, "loginctl lock-session"},
		{Action{Kind: MediaNext}, "playerctl next"},
	}
	for _, tc := range cases {
		t.Run(tc.action.String(), func(t *testing.T) {
			r, _, n := newScripted()
			require.NoError(t, n.Execute(context.Background(), tc.action))
			assert.Equal(t, []string{tc.want}, r.calls)
		})
	}
}

func TestLinuxOpenAppFallsBack(t *testing.T) {
	r, _, n := newScripted()
	r.fail["gtk-launch"] = true

	require.NoError(t, n.Execute(context.Background(), Open("Firefox")))
	assert.Equal(t, []string{"gtk-launch firefox", "setsid -f firefox"}, r.calls)
}

func TestLinuxMouseCenter(t *testing.T) {
	r, _, n := newScripted()
	r.outputs["xdotool getdisplaygeometry"] = "1920 1080"

	require.NoError(t, n.Execute(context.Background(), Action{Kind: MouseCenter}))
	assert.Equal(t, []string{"xdotool getdisplaygeometry", "xdotool mousemove 960 540"}, r.calls)
}

func TestLinuxTabsRequireTabbedApp(t *testing.T) {
	r, kb, n := newScripted()
	r.outputs["xdotool getactivewindow getwindowclassname"] = "Gnome-calculator"

	err := n.Execute(context.Background(), Action{Kind: TabNew})
	assert.ErrorIs(t, err, ErrTabsUnavailable)
	assert.Empty(t, kb.taps)

	r.outputs["xdotool getactivewindow getwindowclassname"] = "firefox"
	require.NoError(t, n.Execute(context.Background(), Action{Kind: TabNew}))
	assert.Equal(t, []Chord{{Key: "t", Mods: ModCtrl}}, kb.taps)
}

func TestLinuxWindowChords(t *testing.T) {
	r, kb, n := newScripted()
	require.NoError(t, n.Execute(context.Background(), Action{Kind: WindowClose}))
	require.NoError(t, n.Execute(context.Background(), Action{Kind: WindowMinimize}))

	assert.Equal(t, []Chord{{Key: "f4", Mods: ModAlt}}, kb.taps)
	assert.Equal(t, []string{"xdotool getactivewindow windowminimize"}, r.calls)
}

func TestLinuxToolFailure(t *testing.T) {
	r, _, n := newScripted()
	r.fail["playerctl"] = true
	assert.Error(t, n.Execute(context.Background(), Action{Kind: MediaPlayPause}))
}
