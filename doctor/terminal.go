package doctor

import (
	"os"

	"golang.org/x/term"
)

// terminalGuard remembers the stdin terminal mode so it can be put back
// after the trigger check, whose key grab may leave the terminal raw.
type terminalGuard struct {
	fd    int
	state *term.State
}

func guardTerminal(f *os.File) *terminalGuard {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	st, err := term.GetState(fd)
	if err != nil {
		return nil
	}
	return &terminalGuard{fd: fd, state: st}
}

func (g *terminalGuard) restore() {
	if g != nil {
		term.Restore(g.fd, g.state)
	}
}
