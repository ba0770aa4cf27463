// Package clipboard injects text into the focused application by pasting it
// through the system clipboard.
package clipboard

import (
	"sync"

	cb "github.com/atotto/clipboard"
)

// Board is a text clipboard.
type Board interface {
	Read() (string, error)
	Write(text string) error
}

// System is the OS clipboard.
type System struct{}

func (System) Read() (string, error) { return cb.ReadAll() }

func (System) Write(text string) error { return cb.WriteAll(text) }

// Unsupported reports whether no clipboard utility is available, as on a
// linux box without xclip, xsel or wl-clipboard.
func Unsupported() bool { return cb.Unsupported }

// MemoryBoard is an in-process clipboard for tests and dry runs.
type MemoryBoard struct {
	mu      sync.Mutex
	text    string
	writes  []string
	ReadErr error
}

func NewMemoryBoard(initial string) *MemoryBoard {
	return &MemoryBoard{text: initial}
}

func (m *MemoryBoard) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return "", m.ReadErr
	}
	return m.text, nil
}

func (m *MemoryBoard) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.writes = append(m.writes, text)
	return nil
}

// Writes returns every value written so far, in order.
func (m *MemoryBoard) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}
