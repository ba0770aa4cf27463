package command

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Executor performs native actions. Implementations only report success or
// failure; nothing else of the outcome is consumed.
type Executor interface {
	Execute(ctx context.Context, a Action) error
}

// Runner runs a host tool and returns its trimmed standard output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

const toolTimeout = 10 * time.Second

// ExecRunner runs tools through os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Typer injects text into the focused application.
type Typer interface {
	Inject(ctx context.Context, text string) error
}

type Option func(*Native)

func WithRunner(r Runner) Option { return func(n *Native) { n.run = r } }

func WithKeyboard(k Keyboard) Option { return func(n *Native) { n.keys = k } }

func WithTyper(t Typer) Option { return func(n *Native) { n.typer = t } }

// Native executes actions with host tools and synthetic key events.
type Native struct {
	run   Runner
	keys  Keyboard
	typer Typer
}

func NewNative(opts ...Option) *Native {
	n := &Native{run: ExecRunner}
	for _, o := range opts {
		o(n)
	}
	if n.keys == nil {
		n.keys = NewKeyboard()
	}
	return n
}

func (n *Native) Execute(ctx context.Context, a Action) error {
	switch a.Kind {
	case KeyPress:
		return n.keys.Tap(Chord{Key: a.Key})
	case TypeText:
		if n.typer == nil {
			return fmt.Errorf("%w: no text injector", ErrUnsupported)
		}
		return n.typer.Inject(ctx, a.Text)
	}

	if isTabAction(a.Kind) {
		app, err := n.frontmostApp(ctx)
		if err != nil {
			return fmt.Errorf("frontmost app: %w", err)
		}
		if !TabCapable(app) {
			return fmt.Errorf("%w: %s", ErrTabsUnavailable, app)
		}
	}

	if c, ok := chords[a.Kind]; ok {
		return n.keys.Tap(c)
	}
	return n.platform(ctx, a)
}

var tabApps = []string{
	"safari", "google chrome", "firefox", "arc", "edge", "brave",
	"finder", "terminal", "iterm", "visual studio code", "code",
}

// TabCapable reports whether app, as named by the window system, supports
// tabs.
func TabCapable(app string) bool {
	app = strings.ToLower(app)
	for _, t := range tabApps {
		if strings.Contains(app, t) {
			return true
		}
	}
	return false
}
