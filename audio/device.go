package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrSelectionCancelled is returned when the user aborts the device picker.
var ErrSelectionCancelled = errors.New("device selection cancelled")

// SelectDevice presents an interactive device picker on the terminal. With a
// single device it returns that device without prompting.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, errors.New("no capture devices found")
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	p := &picker{devices: devices}
	idx, err := p.run(os.Stdin, os.Stdout)
	if err != nil {
		return nil, err
	}
	return &devices[idx], nil
}

// DescribeDevice renders a device line with a warning tag for Bluetooth
// headsets, whose capture profile degrades recognition.
func DescribeDevice(d DeviceInfo) string {
	if IsBluetooth(d.Name) {
		return d.Name + " \x1b[33m[⚠ Lower audio quality]\x1b[0m"
	}
	return d.Name
}

type picker struct {
	devices []DeviceInfo
	cursor  int
}

func (p *picker) render(w io.Writer) {
	fmt.Fprint(w, "\r\x1b[J")
	fmt.Fprint(w, "Select input device (↑/↓, Enter to confirm):\r\n\r\n")
	for i, d := range p.devices {
		if i == p.cursor {
			fmt.Fprintf(w, "  \x1b[1;36m▶ %s\x1b[0m\r\n", DescribeDevice(d))
		} else {
			fmt.Fprintf(w, "    %s\r\n", DescribeDevice(d))
		}
	}
}

// key applies one terminal read to the cursor. It reports whether the
// selection is confirmed or cancelled.
func (p *picker) key(b []byte) (done, cancel bool) {
	switch {
	case len(b) == 1:
		switch b[0] {
		case '\r', '\n':
			return true, false
		case 3, 'q':
			return false, true
		case 'j':
			p.move(1)
		case 'k':
			p.move(-1)
		}
	case len(b) == 3 && b[0] == 0x1b && b[1] == '[':
		switch b[2] {
		case 'A':
			p.move(-1)
		case 'B':
			p.move(1)
		}
	}
	return false, false
}

func (p *picker) move(delta int) {
	p.cursor = min(max(p.cursor+delta, 0), len(p.devices)-1)
}

func (p *picker) run(r io.Reader, w io.Writer) (int, error) {
	p.render(w)
	buf := make([]byte, 3)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return 0, fmt.Errorf("reading input: %w", err)
		}
		done, cancel := p.key(buf[:n])
		if cancel {
			fmt.Fprint(w, "\r\n")
			return 0, ErrSelectionCancelled
		}
		if done {
			fmt.Fprint(w, "\r\n")
			return p.cursor, nil
		}
		fmt.Fprintf(w, "\x1b[%dA", len(p.devices)+2)
		p.render(w)
	}
}
