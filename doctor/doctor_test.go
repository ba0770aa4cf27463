package doctor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sori/clipboard"
	"sori/config"
)

func newTestDoctor(input string) (*Doctor, *bytes.Buffer) {
	var out bytes.Buffer
	return New(config.Default(), strings.NewReader(input), &out), &out
}

func TestRunChecksCountsFailures(t *testing.T) {
	d, out := newTestDoctor("")
	var ran []string
	mk := func(name, msg string, err error) check {
		return check{name, func(context.Context) (string, error) {
			ran = append(ran, name)
			return msg, err
		}}
	}
	failed := d.runChecks(context.Background(), []check{
		mk("a", "ok", nil),
		mk("b", "", errors.New("broken")),
		mk("c", "not needed", errSkipped),
		mk("d", "ok", nil),
	})
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if len(ran) != 4 {
		t.Errorf("ran %v, want all four checks", ran)
	}
	got := out.String()
	for _, want := range []string{"[2/4] b", "FAIL: broken", "SKIP: not needed", "Some checks failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunChecksStopsWhenCancelled(t *testing.T) {
	d, out := newTestDoctor("")
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	checks := []check{
		{"first", func(context.Context) (string, error) { calls++; cancel(); return "ok", nil }},
		{"second", func(context.Context) (string, error) { calls++; return "ok", nil }},
		{"third", func(context.Context) (string, error) { calls++; return "ok", nil }},
	}
	if failed := d.runChecks(ctx, checks); failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !strings.Contains(out.String(), "Interrupted") {
		t.Error("missing interrupt notice")
	}
}

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	}
	for input, want := range cases {
		d, _ := newTestDoctor(input)
		if got := d.confirm("ok?"); got != want {
			t.Errorf("confirm(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestRoundTripRestoresClipboard(t *testing.T) {
	board := clipboard.NewMemoryBoard("before")
	msg, err := roundTrip(context.Background(), board, "probe")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "verified") {
		t.Errorf("msg = %q", msg)
	}
	if got, _ := board.Read(); got != "before" {
		t.Errorf("clipboard = %q, want restored", got)
	}
}

func TestRoundTripReadError(t *testing.T) {
	board := clipboard.NewMemoryBoard("")
	board.ReadErr = errors.New("no display")
	if _, err := roundTrip(context.Background(), board, "probe"); err == nil {
		t.Fatal("expected error")
	}
}

func TestConfigCheck(t *testing.T) {
	d, _ := newTestDoctor("")
	if _, err := d.checkConfig(context.Background()); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
	d.cfg.Transcribe.Provider = "whisper.cpp"
	if _, err := d.checkConfig(context.Background()); err == nil {
		t.Error("unknown provider accepted")
	}
}

func TestTranscriptionSkippedWithoutRecording(t *testing.T) {
	d, _ := newTestDoctor("")
	if _, err := d.checkTranscription(context.Background()); !errors.Is(err, errSkipped) {
		t.Errorf("err = %v, want errSkipped", err)
	}
}

func TestStylistSkippedWhenDisabled(t *testing.T) {
	d, _ := newTestDoctor("")
	d.cfg.Style.Provider = "none"
	if _, err := d.checkStylist(context.Background()); !errors.Is(err, errSkipped) {
		t.Errorf("err = %v, want errSkipped", err)
	}
}

func TestHistoryCheck(t *testing.T) {
	d, _ := newTestDoctor("")
	d.cfg.History.Path = t.TempDir() + "/history.db"
	msg, err := d.checkHistory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "history.db") {
		t.Errorf("msg = %q", msg)
	}
}

func TestTerminalGuardIgnoresNonTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	g := guardTerminal(f)
	if g != nil {
		t.Fatalf("guard for a regular file: %+v", g)
	}
	g.restore()
}
