// Package trigger turns raw keyboard and pointer events into push-to-talk
// start and stop signals.
package trigger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKey      = errors.New("unknown trigger key")
	ErrUnknownButton   = errors.New("unknown mouse button")
	ErrUnknownModifier = errors.New("unknown modifier")
	ErrUnknownType     = errors.New("unknown trigger type")
)

type Kind int

const (
	KindPointer Kind = iota
	KindKey
)

type Button int

const (
	ButtonNone Button = iota
	ButtonSide
	ButtonMiddle
	ButtonOther
)

func (b Button) String() string {
	switch b {
	case ButtonSide:
		return "side"
	case ButtonMiddle:
		return "middle"
	case ButtonOther:
		return "other"
	}
	return "none"
}

// buttonAliases maps platform names for the same physical button onto one
// logical button.
var buttonAliases = map[string]Button{
	"side":    ButtonSide,
	"x1":      ButtonSide,
	"x2":      ButtonSide,
	"button8": ButtonSide,
	"button9": ButtonSide,
	"extra":   ButtonSide,
	"back":    ButtonSide,
	"forward": ButtonSide,
	"middle":  ButtonMiddle,
	"wheel":   ButtonMiddle,
}

func ParseButton(name string) (Button, error) {
	if b, ok := buttonAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return b, nil
	}
	return ButtonNone, fmt.Errorf("%w: %q", ErrUnknownButton, name)
}

type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
	ModCmd
)

var modifierOrder = []Modifier{ModCtrl, ModAlt, ModShift, ModCmd}

var modifierNames = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"cmd":     ModCmd,
	"command": ModCmd,
	"super":   ModCmd,
	"win":     ModCmd,
	"meta":    ModCmd,
}

func ParseModifier(name string) (Modifier, error) {
	if m, ok := modifierNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModifier, name)
}

func (m Modifier) Has(o Modifier) bool { return m&o == o }

func (m Modifier) String() string {
	var parts []string
	for _, o := range modifierOrder {
		if m.Has(o) {
			parts = append(parts, modifierDisplay[o])
		}
	}
	return strings.Join(parts, "+")
}

var modifierDisplay = map[Modifier]string{
	ModCtrl:  "Ctrl",
	ModAlt:   "Alt",
	ModShift: "Shift",
	ModCmd:   "Cmd",
}

// Spec is the trigger as written in the configuration file.
type Spec struct {
	Type         string   `mapstructure:"type" yaml:"type"`
	Button       string   `mapstructure:"button" yaml:"button,omitempty"`
	Key          string   `mapstructure:"key" yaml:"key,omitempty"`
	Modifiers    []string `mapstructure:"modifiers" yaml:"modifiers,omitempty"`
	AliasCtrlCmd bool     `mapstructure:"alias_ctrl_cmd" yaml:"alias_ctrl_cmd,omitempty"`
}

func DefaultSpec() Spec {
	return Spec{Type: "mouse", Button: "side"}
}

// Config is a validated trigger. It is immutable once parsed.
type Config struct {
	Kind      Kind
	Button    Button
	Key       string
	Modifiers Modifier
	// AliasCtrlCmd treats Ctrl and Cmd as the same modifier when matching.
	AliasCtrlCmd bool
}

// Parse validates s. Every name is checked here so a bad configuration fails
// before any listener starts.
func Parse(s Spec) (Config, error) {
	switch strings.ToLower(s.Type) {
	case "", "mouse", "pointer":
		name := s.Button
		if name == "" {
			name = "side"
		}
		b, err := ParseButton(name)
		if err != nil {
			return Config{}, err
		}
		return Config{Kind: KindPointer, Button: b}, nil

	case "keyboard", "key":
		name := s.Key
		if name == "" {
			name = "space"
		}
		key, err := ParseKey(name)
		if err != nil {
			return Config{}, err
		}
		c := Config{Kind: KindKey, Key: key, AliasCtrlCmd: s.AliasCtrlCmd}
		for _, n := range s.Modifiers {
			m, err := ParseModifier(n)
			if err != nil {
				return Config{}, err
			}
			c.Modifiers |= m
		}
		return c, nil
	}
	return Config{}, fmt.Errorf("%w: %q", ErrUnknownType, s.Type)
}

// Name renders the trigger for status lines, e.g. "Ctrl+F5".
func (c Config) Name() string {
	if c.Kind == KindPointer {
		switch c.Button {
		case ButtonSide:
			return "mouse side button"
		case ButtonMiddle:
			return "mouse middle button"
		}
		return "mouse " + c.Button.String()
	}
	key := keyDisplay(c.Key)
	if c.Modifiers == 0 {
		return key
	}
	return c.Modifiers.String() + "+" + key
}

// Spec converts c back to its configuration form.
func (c Config) Spec() Spec {
	if c.Kind == KindPointer {
		return Spec{Type: "mouse", Button: c.Button.String()}
	}
	s := Spec{Type: "keyboard", Key: c.Key, AliasCtrlCmd: c.AliasCtrlCmd}
	for _, o := range modifierOrder {
		if c.Modifiers.Has(o) {
			s.Modifiers = append(s.Modifiers, strings.ToLower(modifierDisplay[o]))
		}
	}
	return s
}
