package transcriber

import (
	"context"
)

const (
	openAIURL   = "https://api.openai.com/v1/audio/transcriptions"
	openAIModel = "whisper-1"

	groqURL   = "https://api.groq.com/openai/v1/audio/transcriptions"
	groqModel = "whisper-large-v3-turbo"
)

var (
	remainingRequests = []string{"x-ratelimit-remaining-requests"}
	limitRequests     = []string{"x-ratelimit-limit-requests"}
)

// Whisper talks to an OpenAI-compatible audio/transcriptions endpoint.
// OpenAI answers plain json; Groq is asked for verbose_json so segment
// probabilities come back too.
type Whisper struct {
	baseTranscriber
	name           string
	model          string
	responseFormat string
}

func NewOpenAI(apiKey, format string) *Whisper {
	return &Whisper{
		baseTranscriber: newBase(openAIURL, apiKey, format),
		name:            "openai",
		model:           openAIModel,
		responseFormat:  "json",
	}
}

func NewGroq(apiKey, format string) *Whisper {
	return &Whisper{
		baseTranscriber: newBase(groqURL, apiKey, format),
		name:            "groq",
		model:           groqModel,
		responseFormat:  "verbose_json",
	}
}

func (w *Whisper) Name() string { return w.name }

func (w *Whisper) Transcribe(ctx context.Context, samples []float32, sampleRate int, lang string) (Result, error) {
	return upload(ctx, w.format, samples, sampleRate, lang, w.post)
}

// whisperSegment mirrors Segment field for field so it converts directly.
type whisperSegment struct {
	Text             string  `json:"text"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	AvgLogProb       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	Temperature      float64 `json:"temperature"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
}

// whisperResponse covers both json and verbose_json; the plain format
// leaves everything but Text empty.
type whisperResponse struct {
	Text     string           `json:"text"`
	Duration float64          `json:"duration"`
	Segments []whisperSegment `json:"segments"`
}

func (w *Whisper) post(ctx context.Context, audio []byte, ext, _, lang string) (*response, error) {
	rep, err := w.postMultipart(ctx, audio, ext, [][2]string{
		{"model", w.model},
		{"response_format", w.responseFormat},
		{"language", lang},
	})
	if err != nil {
		return nil, err
	}
	var wr whisperResponse
	if err := rep.decode(w.name, &wr); err != nil {
		return nil, err
	}

	out := &response{
		Text:      wr.Text,
		Metrics:   &rep.net,
		RateLimit: rep.rateLimit(remainingRequests, limitRequests),
		Duration:  wr.Duration,
	}
	if len(wr.Segments) == 0 {
		return out, nil
	}
	var logProbSum float64
	for _, s := range wr.Segments {
		out.NoSpeechProb = max(out.NoSpeechProb, s.NoSpeechProb)
		logProbSum += s.AvgLogProb
		out.Segments = append(out.Segments, Segment(s))
	}
	out.AvgLogProb = logProbSum / float64(len(wr.Segments))
	return out, nil
}
