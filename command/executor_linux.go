package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

var chords = map[Kind]Chord{
	WindowFullscreen:  {Key: "f11"},
	WindowClose:       {Key: "f4", Mods: ModAlt},
	WindowMaximize:    {Key: "up", Mods: ModSuper},
	WindowLeft:        {Key: "left", Mods: ModSuper},
	WindowRight:       {Key: "right", Mods: ModSuper},
	WindowNext:        {Key: "tab", Mods: ModAlt},
	WindowPrev:        {Key: "tab", Mods: ModAlt | ModShift},
	Screenshot:        {Key: "print"},
	TabNew:            {Key: "t", Mods: ModCtrl},
	TabClose:          {Key: "w", Mods: ModCtrl},
	TabNext:           {Key: "tab", Mods: ModCtrl},
	TabPrev:           {Key: "tab", Mods: ModCtrl | ModShift},
	SelectAll:         {Key: "a", Mods: ModCtrl},
	Copy:              {Key: "c", Mods: ModCtrl},
	Paste:             {Key: "v", Mods: ModCtrl},
	Cut:               {Key: "x", Mods: ModCtrl},
	Undo:              {Key: "z", Mods: ModCtrl},
	Redo:              {Key: "z", Mods: ModCtrl | ModShift},
	Save:              {Key: "s", Mods: ModCtrl},
	Find:              {Key: "f", Mods: ModCtrl},
	SwitchApp:         {Key: "tab", Mods: ModAlt},
	SwitchInputSource: {Key: "space", Mods: ModSuper},
	Spotlight:         {Key: "super"},
}

func (n *Native) frontmostApp(ctx context.Context) (string, error) {
	return n.run(ctx, "xdotool", "getactivewindow", "getwindowclassname")
}

func (n *Native) platform(ctx context.Context, a Action) error {
	var err error
	switch a.Kind {
	case OpenApp:
		name := strings.ToLower(strings.TrimSpace(a.App))
		if _, err = n.run(ctx, "gtk-launch", name); err != nil {
			_, err = n.run(ctx, "setsid", "-f", name)
		}
	case VolumeUp:
		_, err = n.run(ctx, "pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("+%d%%", a.Amount))
	case VolumeDown:
		_, err = n.run(ctx, "pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("-%d%%", a.Amount))
	case Mute:
		_, err = n.run(ctx, "pactl", "set-sink-mute", "@DEFAULT_SINK@", "1")
	case Unmute:
		_, err = n.run(ctx, "pactl", "set-sink-mute", "@DEFAULT_SINK@", "0")
	case BrightnessUp:
		_, err = n.run(ctx, "brightnessctl", "set", "+10%")
	case BrightnessDown:
		_, err = n.run(ctx, "brightnessctl", "set", "10%-")
	case WindowMinimize:
		_, err = n.run(ctx, "xdotool", "getactivewindow", "windowminimize")
	case LockScreen:
		_, err = n.run(ctx, "loginctl", "lock-session")
	case Sleep:
		_, err = n.run(ctx, "systemctl", "suspend")
	case MediaPlayPause:
		_, err = n.run(ctx, "playerctl", "play-pause")
	case MediaNext:
		_, err = n.run(ctx, "playerctl", "next")
	case MediaPrev:
		_, err = n.run(ctx, "playerctl", "previous")
	case MouseClick:
		_, err = n.run(ctx, "xdotool", "click", "1")
	case MouseRightClick:
		_, err = n.run(ctx, "xdotool", "click", "3")
	case MouseDoubleClick:
		_, err = n.run(ctx, "xdotool", "click", "--repeat", "2", "1")
	case ScrollUp:
		_, err = n.run(ctx, "xdotool", "click", "--repeat", strconv.Itoa(a.Amount), "4")
	case ScrollDown:
		_, err = n.run(ctx, "xdotool", "click", "--repeat", strconv.Itoa(a.Amount), "5")
	case MouseMove:
		_, err = n.run(ctx, "xdotool", "mousemove_relative", "--", strconv.Itoa(a.DX), strconv.Itoa(a.DY))
	case MouseCenter:
		var geom string
		if geom, err = n.run(ctx, "xdotool", "getdisplaygeometry"); err != nil {
			break
		}
		var w, h int
		if _, err = fmt.Sscanf(geom, "%d %d", &w, &h); err != nil {
			err = fmt.Errorf("unexpected display geometry %q", geom)
			break
		}
		_, err = n.run(ctx, "xdotool", "mousemove", strconv.Itoa(w/2), strconv.Itoa(h/2))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, a)
	}
	return err
}
