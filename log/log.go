// Package log writes the diagnostics log and the transcript log. Every
// function is safe to call before Init and after Close; the calls are then
// dropped.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for diagnostics_log.txt.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

var (
	diag atomic.Pointer[zerolog.Logger]
	nop  = zerolog.Nop()

	mu         sync.Mutex // guards the files below
	rotator    *lumberjack.Logger
	transcript *os.File
	pid        = os.Getpid()
)

func logger() *zerolog.Logger {
	if l := diag.Load(); l != nil {
		return l
	}
	return &nop
}

// Init opens both logs in the directory set by SetDir.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, "transcribe_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	transcript = f
	rotator = &lumberjack.Logger{
		Filename:   filepath.Join(dir, "diagnostics_log.txt"),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}

	l := zerolog.New(zerolog.ConsoleWriter{
		Out:        rotator,
		TimeFormat: time.DateTime,
		NoColor:    true,
	}).With().Timestamp().Int("pid", pid).Logger()
	diag.Store(&l)
	l.Info().Str("dir", dir).Msg("log_open")
	return nil
}

func Close() {
	diag.Store(nil)
	mu.Lock()
	defer mu.Unlock()
	if rotator != nil {
		rotator.Close()
		rotator = nil
	}
	if transcript != nil {
		transcript.Close()
		transcript = nil
	}
}

func Info(msg string)                   { logger().Info().Msg(msg) }
func Infof(format string, args ...any)  { logger().Info().Msgf(format, args...) }
func Warn(msg string)                   { logger().Warn().Msg(msg) }
func Warnf(format string, args ...any)  { logger().Warn().Msgf(format, args...) }
func Error(msg string)                  { logger().Error().Msg(msg) }
func Errorf(format string, args ...any) { logger().Error().Msgf(format, args...) }

// TranscriptionText appends one recognized text to transcribe_log.txt as
// "time\t[pid]\ttext".
func TranscriptionText(text string) {
	mu.Lock()
	defer mu.Unlock()
	if transcript == nil {
		return
	}
	fmt.Fprintf(transcript, "%s\t[%d]\t%s\n", time.Now().Format(time.DateTime), pid, text)
}
