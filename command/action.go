// Package command executes native desktop actions: launching apps, volume
// and brightness, window and tab management, pointer control and key chords.
package command

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupported     = errors.New("action not supported on this platform")
	ErrTabsUnavailable = errors.New("frontmost app has no tabs")
)

type Kind int

const (
	KindNone Kind = iota
	OpenApp
	VolumeUp
	VolumeDown
	Mute
	Unmute
	BrightnessUp
	BrightnessDown
	WindowMinimize
	WindowMaximize
	WindowFullscreen
	WindowClose
	WindowLeft
	WindowRight
	WindowNext
	WindowPrev
	MouseClick
	MouseRightClick
	MouseDoubleClick
	ScrollUp
	ScrollDown
	MouseMove
	MouseCenter
	LockScreen
	Screenshot
	Sleep
	MediaPlayPause
	MediaNext
	MediaPrev
	TabNew
	TabClose
	TabNext
	TabPrev
	SelectAll
	Copy
	Paste
	Cut
	Undo
	Redo
	Save
	Find
	SwitchApp
	SwitchInputSource
	Spotlight
	KeyPress
	TypeText
)

var kindNames = map[Kind]string{
	OpenApp:           "open_app",
	VolumeUp:          "volume_up",
	VolumeDown:        "volume_down",
	Mute:              "mute",
	Unmute:            "unmute",
	BrightnessUp:      "brightness_up",
	BrightnessDown:    "brightness_down",
	WindowMinimize:    "window_minimize",
	WindowMaximize:    "window_maximize",
	WindowFullscreen:  "window_fullscreen",
	WindowClose:       "window_close",
	WindowLeft:        "window_left",
	WindowRight:       "window_right",
	WindowNext:        "window_next",
	WindowPrev:        "window_prev",
	MouseClick:        "mouse_click",
	MouseRightClick:   "mouse_right_click",
	MouseDoubleClick:  "mouse_double_click",
	ScrollUp:          "scroll_up",
	ScrollDown:        "scroll_down",
	MouseMove:         "mouse_move",
	MouseCenter:       "mouse_center",
	LockScreen:        "lock_screen",
	Screenshot:        "screenshot",
	Sleep:             "sleep",
	MediaPlayPause:    "media_play_pause",
	MediaNext:         "media_next",
	MediaPrev:         "media_prev",
	TabNew:            "tab_new",
	TabClose:          "tab_close",
	TabNext:           "tab_next",
	TabPrev:           "tab_prev",
	SelectAll:         "select_all",
	Copy:              "copy",
	Paste:             "paste",
	Cut:               "cut",
	Undo:              "undo",
	Redo:              "redo",
	Save:              "save",
	Find:              "find",
	SwitchApp:         "switch_app",
	SwitchInputSource: "switch_input_source",
	Spotlight:         "spotlight",
	KeyPress:          "key_press",
	TypeText:          "type_text",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "none"
}

// Action is one native action with its parameters. Unused fields are zero.
type Action struct {
	Kind   Kind
	App    string // OpenApp
	Amount int    // volume percent, scroll lines
	DX, DY int    // MouseMove
	Key    string // KeyPress
	Text   string // TypeText
}

func (a Action) String() string {
	switch a.Kind {
	case OpenApp:
		return fmt.Sprintf("open_app(%s)", a.App)
	case VolumeUp, VolumeDown, ScrollUp, ScrollDown:
		return fmt.Sprintf("%s(%d)", a.Kind, a.Amount)
	case MouseMove:
		return fmt.Sprintf("mouse_move(%d,%d)", a.DX, a.DY)
	case KeyPress:
		return fmt.Sprintf("key_press(%s)", a.Key)
	case TypeText:
		return fmt.Sprintf("type_text(%q)", a.Text)
	}
	return a.Kind.String()
}

// Press is a KeyPress action for a named key.
func Press(key string) Action { return Action{Kind: KeyPress, Key: key} }

// Open is an OpenApp action.
func Open(app string) Action { return Action{Kind: OpenApp, App: app} }

func isTabAction(k Kind) bool {
	return k == TabNew || k == TabClose || k == TabNext || k == TabPrev
}
