package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

var chords = map[Kind]Chord{
	WindowMinimize:    {Key: "m", Mods: ModSuper},
	WindowFullscreen:  {Key: "f", Mods: ModSuper | ModCtrl},
	WindowClose:       {Key: "w", Mods: ModSuper},
	WindowLeft:        {Key: "left", Mods: ModCtrl | ModAlt},
	WindowRight:       {Key: "right", Mods: ModCtrl | ModAlt},
	WindowNext:        {Key: "`", Mods: ModSuper},
	WindowPrev:        {Key: "`", Mods: ModSuper | ModShift},
	LockScreen:        {Key: "q", Mods: ModSuper | ModCtrl},
	Screenshot:        {Key: "4", Mods: ModSuper | ModShift},
	TabNew:            {Key: "t", Mods: ModSuper},
	TabClose:          {Key: "w", Mods: ModSuper},
	TabNext:           {Key: "]", Mods: ModSuper | ModShift},
	TabPrev:           {Key: "[", Mods: ModSuper | ModShift},
	SelectAll:         {Key: "a", Mods: ModSuper},
	Copy:              {Key: "c", Mods: ModSuper},
	Paste:             {Key: "v", Mods: ModSuper},
	Cut:               {Key: "x", Mods: ModSuper},
	Undo:              {Key: "z", Mods: ModSuper},
	Redo:              {Key: "z", Mods: ModSuper | ModShift},
	Save:              {Key: "s", Mods: ModSuper},
	Find:              {Key: "f", Mods: ModSuper},
	SwitchApp:         {Key: "tab", Mods: ModSuper},
	SwitchInputSource: {Key: "space", Mods: ModCtrl},
	Spotlight:         {Key: "space", Mods: ModSuper},
}

const maximizeScript = `tell application "System Events"
	tell (first process whose frontmost is true)
		try
			click button 2 of window 1
		end try
	end tell
end tell`

func (n *Native) osascript(ctx context.Context, script string) error {
	_, err := n.run(ctx, "osascript", "-e", script)
	return err
}

func (n *Native) frontmostApp(ctx context.Context) (string, error) {
	return n.run(ctx, "osascript", "-e",
		`tell application "System Events" to get name of first process whose frontmost is true`)
}

func quoteAS(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func (n *Native) platform(ctx context.Context, a Action) error {
	switch a.Kind {
	case OpenApp:
		return n.osascript(ctx, "tell application "+quoteAS(a.App)+" to activate")
	case VolumeUp:
		return n.osascript(ctx, fmt.Sprintf("set volume output volume ((output volume of (get volume settings)) + %d)", a.Amount))
	case VolumeDown:
		return n.osascript(ctx, fmt.Sprintf("set volume output volume ((output volume of (get volume settings)) - %d)", a.Amount))
	case Mute:
		return n.osascript(ctx, "set volume output muted true")
	case Unmute:
		return n.osascript(ctx, "set volume output muted false")
	case BrightnessUp:
		return n.osascript(ctx, `tell application "System Events" to key code 144`)
	case BrightnessDown:
		return n.osascript(ctx, `tell application "System Events" to key code 145`)
	case WindowMaximize:
		return n.osascript(ctx, maximizeScript)
	case Sleep:
		return n.osascript(ctx, `tell application "System Events" to sleep`)
	case MediaPlayPause:
		return n.osascript(ctx, `tell application "Music" to playpause`)
	case MediaNext:
		return n.osascript(ctx, `tell application "Music" to next track`)
	case MediaPrev:
		return n.osascript(ctx, `tell application "Music" to previous track`)
	case MouseClick:
		return n.cliclick(ctx, "c:.")
	case MouseRightClick:
		return n.cliclick(ctx, "rc:.")
	case MouseDoubleClick:
		return n.cliclick(ctx, "dc:.")
	case MouseMove:
		return n.cliclick(ctx, "m:"+signed(a.DX)+","+signed(a.DY))
	case MouseCenter:
		bounds, err := n.run(ctx, "osascript", "-e", `tell application "Finder" to get bounds of window of desktop`)
		if err != nil {
			return err
		}
		w, h, err := parseBounds(bounds)
		if err != nil {
			return err
		}
		return n.cliclick(ctx, fmt.Sprintf("m:%d,%d", w/2, h/2))
	}
	return fmt.Errorf("%w: %s", ErrUnsupported, a)
}

// cliclick drives the pointer; it is a separate install (brew install cliclick).
func (n *Native) cliclick(ctx context.Context, cmd string) error {
	if _, err := n.run(ctx, "cliclick", cmd); err != nil {
		return fmt.Errorf("%w: pointer control needs cliclick: %v", ErrUnsupported, err)
	}
	return nil
}

func signed(v int) string {
	if v >= 0 {
		return "+" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

// parseBounds reads "x1, y1, x2, y2" as printed by osascript.
func parseBounds(s string) (w, h int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, fmt.Errorf("unexpected desktop bounds %q", s)
	}
	var v [4]int
	for i, p := range parts {
		if v[i], err = strconv.Atoi(strings.TrimSpace(p)); err != nil {
			return 0, 0, fmt.Errorf("unexpected desktop bounds %q", s)
		}
	}
	return v[2] - v[0], v[3] - v[1], nil
}
