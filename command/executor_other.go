//go:build !darwin && !linux

package command

import (
	"context"
	"fmt"
)

var chords = map[Kind]Chord{
	WindowClose: {Key: "f4", Mods: ModAlt},
	WindowNext:  {Key: "tab", Mods: ModAlt},
	WindowPrev:  {Key: "tab", Mods: ModAlt | ModShift},
	TabNew:      {Key: "t", Mods: ModCtrl},
	TabClose:    {Key: "w", Mods: ModCtrl},
	TabNext:     {Key: "tab", Mods: ModCtrl},
	TabPrev:     {Key: "tab", Mods: ModCtrl | ModShift},
	SelectAll:   {Key: "a", Mods: ModCtrl},
	Copy:        {Key: "c", Mods: ModCtrl},
	Paste:       {Key: "v", Mods: ModCtrl},
	Cut:         {Key: "x", Mods: ModCtrl},
	Undo:        {Key: "z", Mods: ModCtrl},
	Redo:        {Key: "y", Mods: ModCtrl},
	Save:        {Key: "s", Mods: ModCtrl},
	Find:        {Key: "f", Mods: ModCtrl},
	SwitchApp:   {Key: "tab", Mods: ModAlt},
}

// frontmostApp is unknown here, so tab chords are sent unconditionally.
func (n *Native) frontmostApp(context.Context) (string, error) { return "code", nil }

func (n *Native) platform(_ context.Context, a Action) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, a)
}
