// Package dispatch decides what an utterance means: an enter key press, a
// table command, an application launch, or text to type.
package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"sori/command"
)

type Kind int

const (
	KindNone Kind = iota
	KindEnter
	KindCommand
	KindOpenApp
	KindTyped
)

func (k Kind) String() string {
	switch k {
	case KindEnter:
		return "enter"
	case KindCommand:
		return "command"
	case KindOpenApp:
		return "open_app"
	case KindTyped:
		return "typed"
	}
	return "none"
}

// OpenAppMode controls the "<name> 열어" fallback that launches arbitrary
// applications by spoken name.
type OpenAppMode int

const (
	OpenAppLoose OpenAppMode = iota
	OpenAppWhitelist
	OpenAppOff
)

func ParseOpenAppMode(s string) (OpenAppMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "loose":
		return OpenAppLoose, nil
	case "whitelist":
		return OpenAppWhitelist, nil
	case "off":
		return OpenAppOff, nil
	}
	return 0, fmt.Errorf("unknown open_app mode %q (want loose, whitelist or off)", s)
}

func (m OpenAppMode) String() string {
	switch m {
	case OpenAppWhitelist:
		return "whitelist"
	case OpenAppOff:
		return "off"
	}
	return "loose"
}

// Styler rewrites text before it is typed. It returns its input on failure.
type Styler interface {
	Transform(ctx context.Context, text string) string
}

// Injector types text into the focused application.
type Injector interface {
	Inject(ctx context.Context, text string) error
}

// Result describes what Dispatch did with one utterance.
type Result struct {
	Text        string // as recognized
	Transformed string // text actually typed, KindTyped only
	Action      command.Action
	Kind        Kind
	Err         error
}

// Changed reports whether the style transform altered the typed text.
func (r Result) Changed() bool {
	return r.Kind == KindTyped && r.Transformed != r.Text
}

const (
	enterWord      = "엔터"
	enterMaxRunes  = 10
	defaultEnterAt = 100 * time.Millisecond
)

var openAppPattern = regexp.MustCompile(`(.+?)\s*(열어|실행|켜)`)

type Options struct {
	Table     Table
	OpenApp   OpenAppMode
	Whitelist []string
	// EnterDelay separates the injected text from the trailing enter key.
	EnterDelay time.Duration
}

type Dispatcher struct {
	table      Table
	exec       command.Executor
	inject     Injector
	style      Styler
	openApp    OpenAppMode
	whitelist  map[string]string
	enterDelay time.Duration
}

func New(exec command.Executor, inject Injector, style Styler, opts Options) *Dispatcher {
	d := &Dispatcher{
		table:      opts.Table,
		exec:       exec,
		inject:     inject,
		style:      style,
		openApp:    opts.OpenApp,
		whitelist:  make(map[string]string, len(opts.Whitelist)),
		enterDelay: opts.EnterDelay,
	}
	if d.table == nil {
		d.table = DefaultTable
	}
	if d.enterDelay == 0 {
		d.enterDelay = defaultEnterAt
	}
	for _, name := range opts.Whitelist {
		d.whitelist[Normalize(name)] = strings.TrimSpace(name)
	}
	return d
}

// Dispatch applies the first rule that claims text: the enter escape, a table
// command, an application launch, or typing. A matched command is never also
// typed, even when it fails.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) Result {
	res := Result{Text: text}
	norm := Normalize(text)
	if norm == "" {
		return res
	}

	if strings.Contains(norm, enterWord) && runeLen(norm) < enterMaxRunes {
		res.Kind = KindEnter
		res.Action = command.Press("enter")
		res.Err = d.exec.Execute(ctx, res.Action)
		return res
	}

	if e, ok := d.table.Match(norm); ok {
		res.Kind = KindCommand
		res.Action = e.Action
		res.Err = d.exec.Execute(ctx, e.Action)
		return res
	}

	if app, ok := d.appName(norm); ok {
		res.Kind = KindOpenApp
		res.Action = command.Open(app)
		res.Err = d.exec.Execute(ctx, res.Action)
		return res
	}

	res.Kind = KindTyped
	res.Transformed = text
	if d.style != nil {
		res.Transformed = d.style.Transform(ctx, text)
	}
	res.Action = command.Action{Kind: command.TypeText, Text: res.Transformed}
	if err := d.inject.Inject(ctx, res.Transformed); err != nil {
		res.Err = fmt.Errorf("inject: %w", err)
		return res
	}

	select {
	case <-ctx.Done():
		res.Err = ctx.Err()
		return res
	case <-time.After(d.enterDelay):
	}
	if err := d.exec.Execute(ctx, command.Press("enter")); err != nil {
		res.Err = fmt.Errorf("enter: %w", err)
	}
	return res
}

func (d *Dispatcher) appName(norm string) (string, bool) {
	if d.openApp == OpenAppOff {
		return "", false
	}
	m := openAppPattern.FindStringSubmatch(norm)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return "", false
	}
	if d.openApp == OpenAppWhitelist {
		app, ok := d.whitelist[name]
		return app, ok
	}
	return name, true
}
