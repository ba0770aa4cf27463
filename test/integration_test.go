//go:build integration

package test_test

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sori/clipboard"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("SORI_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "SORI_TEST_BIN not set; build sori and point SORI_TEST_BIN at it")
		os.Exit(1)
	}

	if err := os.MkdirAll("data", 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create data dir: %v\n", err)
		os.Exit(1)
	}
	generated := map[string]func() error{
		"silence.wav": func() error { return generateWAV(filepath.Join("data", "silence.wav"), 16000, 1.0, 0, 0) },
		// a second of tone followed by two of silence, for continuous mode
		"tone.wav": func() error { return generateWAV(filepath.Join("data", "tone.wav"), 16000, 3.0, 440, 0.3) },
	}
	for name, gen := range generated {
		if err := gen(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate %s: %v\n", name, err)
			os.Exit(1)
		}
	}
	code := m.Run()
	for name := range generated {
		os.Remove(filepath.Join("data", name))
	}
	os.Exit(code)
}

// generateWAV writes 16-bit mono PCM. A non-zero freq plays a sine for the
// first second only.
func generateWAV(path string, sampleRate int, durationS, freq, amp float64) error {
	const headerSize = 44
	numSamples := int(float64(sampleRate) * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i := 0; i < numSamples && freq > 0 && i < sampleRate; i++ {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		binary.LittleEndian.PutUint16(buf[headerSize+i*2:], uint16(int16(v*32767)))
	}
	return os.WriteFile(path, buf, 0644)
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

func runSori(t *testing.T, stdin string, args ...string) (logDir string) {
	t.Helper()
	logDir = t.TempDir()
	cmdArgs := append([]string{"--logpath", logDir, "test"}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(),
		"XDG_CONFIG_HOME="+t.TempDir(),
		"SORI_STYLE_PROVIDER=none",
		"SORI_HISTORY_ENABLED=false",
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("sori exited with error: %v\noutput: %s", err, out)
	}
	return logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func requireTranscription(t *testing.T, logDir string) string {
	t.Helper()
	text := readLog(t, logDir, "transcribe_log.txt")
	if strings.TrimSpace(text) == "" {
		t.Fatal("transcribe_log.txt is empty, expected transcribed words")
	}
	return text
}

func requireKey(t *testing.T, env string) {
	t.Helper()
	if os.Getenv(env) == "" {
		t.Skip(env + " not set")
	}
}

func requireSpeech(t *testing.T) string {
	t.Helper()
	path := filepath.Join("data", "short.wav")
	if _, err := os.Stat(path); err != nil {
		t.Skip("data/short.wav not present")
	}
	return path
}

// --- Offline tests ---

func TestFakeEnterCommand(t *testing.T) {
	logDir := runSori(t, cmds("PRESS", "SLEEP 500", "RELEASE", "WAIT", "QUIT"),
		"--fake", "엔터", "data/silence.wav")
	if got := strings.TrimSpace(readLog(t, logDir, "transcribe_log.txt")); !strings.Contains(got, "엔터") {
		t.Errorf("transcribe log = %q", got)
	}
	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "kind=enter") {
		t.Errorf("expected an enter dispatch in diagnostics:\n%s", diag)
	}
}

func TestFakeTypedText(t *testing.T) {
	logDir := runSori(t, cmds("PRESS", "SLEEP 500", "RELEASE", "WAIT", "QUIT"),
		"--fake", "안녕하세요", "data/silence.wav")
	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "dry_run_type: 안녕하세요") {
		t.Errorf("expected typed text in diagnostics:\n%s", diag)
	}
}

func TestTooShortPress(t *testing.T) {
	logDir := runSori(t, cmds("PRESS", "RELEASE", "WAIT", "QUIT"),
		"--fake", "안녕하세요", "--realtime", "data/silence.wav")
	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "too_short") {
		t.Errorf("expected too_short in diagnostics:\n%s", diag)
	}
	if strings.Contains(diag, "kind=typed") {
		t.Error("a too-short press was dispatched")
	}
}

func TestContinuousSegments(t *testing.T) {
	logDir := runSori(t, cmds("WAIT", "QUIT"),
		"--mode", "continuous", "--fake", "다음 줄", "--realtime", "data/tone.wav")
	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "mode=continuous") {
		t.Errorf("expected a continuous utterance in diagnostics:\n%s", diag)
	}
	if !strings.Contains(diag, "dispatch") {
		t.Error("expected a dispatch entry")
	}
}

// --- Provider tests ---

func TestGroqWords(t *testing.T) {
	requireKey(t, "GROQ_API_KEY")
	wav := requireSpeech(t)
	logDir := runSori(t, cmds("PRESS", "WAIT_AUDIO_DONE", "RELEASE", "WAIT", "QUIT"), "--provider", "groq", wav)
	requireTranscription(t, logDir)
}

func TestGroqConnReuse(t *testing.T) {
	requireKey(t, "GROQ_API_KEY")
	wav := requireSpeech(t)
	logDir := runSori(t, cmds("PRESS", "SLEEP 500", "RELEASE", "WAIT", "PRESS", "SLEEP 500", "RELEASE", "WAIT", "QUIT"),
		"--provider", "groq", wav)
	diag := readLog(t, logDir, "diagnostics_log.txt")
	if strings.Count(diag, "transcription") < 2 {
		t.Error("expected 2 transcription entries in diagnostics")
	}
	if !strings.Contains(diag, "conn=reused") {
		t.Error("expected conn=reused in diagnostics")
	}
}

func TestSilenceSkipsUpload(t *testing.T) {
	requireKey(t, "GROQ_API_KEY")
	logDir := runSori(t, cmds("PRESS", "SLEEP 500", "RELEASE", "WAIT", "QUIT"), "--provider", "groq", "data/silence.wav")
	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "no_speech") {
		t.Error("expected no_speech for silent audio")
	}
}

func TestOpenAIWords(t *testing.T) {
	requireKey(t, "OPENAI_API_KEY")
	wav := requireSpeech(t)
	logDir := runSori(t, cmds("PRESS", "WAIT_AUDIO_DONE", "RELEASE", "WAIT", "QUIT"), "--provider", "openai", wav)
	requireTranscription(t, logDir)
}

func TestDeepgramWords(t *testing.T) {
	requireKey(t, "DEEPGRAM_API_KEY")
	wav := requireSpeech(t)
	logDir := runSori(t, cmds("PRESS", "WAIT_AUDIO_DONE", "RELEASE", "WAIT", "QUIT"), "--provider", "deepgram", wav)
	requireTranscription(t, logDir)
	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "provider=deepgram") {
		t.Error("expected deepgram metrics in diagnostics")
	}
}

// --- Clipboard tests ---

func TestClipboardRestore(t *testing.T) {
	var board clipboard.System
	sentinel := fmt.Sprintf("sori-test-sentinel-%d", time.Now().UnixNano())
	if err := board.Write(sentinel); err != nil {
		t.Skip("clipboard not available")
	}

	_ = runSori(t, cmds("PRESS", "SLEEP 500", "RELEASE", "WAIT", "SLEEP 1200", "QUIT"),
		"--fake", "안녕하세요", "--paste", "data/silence.wav")

	clip, err := board.Read()
	if err != nil {
		t.Skip("clipboard not available")
	}
	if strings.TrimSpace(clip) != sentinel {
		t.Errorf("clipboard not restored: got %q, want %q", strings.TrimSpace(clip), sentinel)
	}
}
