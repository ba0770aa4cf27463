package transcriber

import (
	"context"
	"fmt"
	"sync"
)

// Fake returns canned text without touching the network.
type Fake struct {
	text string
	err  error

	mu    sync.Mutex
	calls int
	langs []string
}

func NewFake(text string, err error) *Fake {
	return &Fake{text: text, err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(ctx context.Context, samples []float32, sampleRate int, lang string) (Result, error) {
	f.mu.Lock()
	f.calls++
	f.langs = append(f.langs, lang)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if f.err != nil {
		return Result{}, fmt.Errorf("fake transcriber error: %w", f.err)
	}
	r := Result{
		Text:     f.text,
		NoSpeech: f.text == "",
		Stats: &Stats{
			AudioLengthS: float64(len(samples)) / float64(max(sampleRate, 1)),
			TotalTimeMs:  10,
		},
		Metrics: []string{"total: 10ms (fake)"},
	}
	r.captureMemStats()
	return r, nil
}

// Calls reports how many times Transcribe ran.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
