package clipboard

import (
	"context"
	"fmt"
	"time"
	"unicode"
)

const (
	defaultSettle       = 100 * time.Millisecond
	defaultRestoreDelay = 200 * time.Millisecond
)

type Option func(*Injector)

// WithDelays sets the wait after pasting and the extra wait before the old
// clipboard is put back.
func WithDelays(settle, restore time.Duration) Option {
	return func(in *Injector) {
		in.settle = settle
		in.restoreDelay = restore
	}
}

// WithFallback sets a keystroke typer used for ASCII text when the clipboard
// cannot be written.
func WithFallback(typeText func(string) error) Option {
	return func(in *Injector) { in.fallback = typeText }
}

// Injector types text by pasting it. The previous clipboard content is saved
// first and restored on every return path.
type Injector struct {
	board        Board
	paste        func() error
	fallback     func(string) error
	settle       time.Duration
	restoreDelay time.Duration
}

// NewInjector uses paste to send the platform paste chord.
func NewInjector(board Board, paste func() error, opts ...Option) *Injector {
	in := &Injector{
		board:        board,
		paste:        paste,
		settle:       defaultSettle,
		restoreDelay: defaultRestoreDelay,
	}
	for _, o := range opts {
		o(in)
	}
	return in
}

// NewSystemInjector injects through the OS clipboard and paste chord.
func NewSystemInjector(opts ...Option) *Injector {
	opts = append([]Option{WithFallback(fallbackTyper())}, opts...)
	return NewInjector(System{}, Paste, opts...)
}

func (in *Injector) Inject(ctx context.Context, text string) (err error) {
	if text == "" {
		return nil
	}

	prev, readErr := in.board.Read()
	if readErr == nil {
		defer func() {
			// the target app reads the clipboard asynchronously after the chord
			sleep(ctx, in.restoreDelay)
			if rerr := in.board.Write(prev); rerr != nil && err == nil {
				err = fmt.Errorf("restoring clipboard: %w", rerr)
			}
		}()
	}

	if err := in.board.Write(text); err != nil {
		if in.fallback != nil && isASCII(text) {
			return in.fallback(text)
		}
		return fmt.Errorf("copying text: %w", err)
	}
	if err := in.paste(); err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	sleep(ctx, in.settle)
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
