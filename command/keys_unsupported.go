//go:build !darwin && !linux && !windows

package command

type nullKeyboard struct{}

func NewKeyboard() Keyboard { return nullKeyboard{} }

func (nullKeyboard) Tap(Chord) error { return ErrUnsupported }
