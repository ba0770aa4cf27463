package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

type Segment struct {
	Text             string
	NoSpeechProb     float64
	AvgLogProb       float64
	CompressionRatio float64
	Temperature      float64
	Start            float64
	End              float64
}

// response is what one provider call returns before upload stats are added.
type response struct {
	Text         string
	Metrics      *NetworkMetrics
	RateLimit    string
	Confidence   float64
	NoSpeechProb float64
	AvgLogProb   float64
	Duration     float64
	Segments     []Segment
}

type Stats struct {
	AudioLengthS     float64
	RawSizeKB        float64
	CompressedSizeKB float64
	CompressionPct   float64
	EncodeTimeMs     float64
	DNSTimeMs        float64
	TLSTimeMs        float64
	TTFBMs           float64
	TotalTimeMs      float64
	ConnReused       bool
	TLSProtocol      string
	Confidence       float64
}

// Result is a finished transcription. Empty Text with NoSpeech set is a
// normal outcome, not an error.
type Result struct {
	Text          string
	NoSpeech      bool
	RateLimit     string // "remaining/limit" or empty
	Segments      []Segment
	MemoryAllocMB float64
	MemoryPeakMB  float64
	Stats         *Stats   // nil when no request was made
	Metrics       []string // pre-formatted lines for the TUI
}

type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, samples []float32, sampleRate int, lang string) (Result, error)
}

// poster performs one upload of encoded audio.
type poster func(ctx context.Context, audio []byte, ext, contentType, lang string) (*response, error)

type baseTranscriber struct {
	client *httpClient
	apiURL string
	apiKey string
	format string
}

func newBase(apiURL, apiKey, format string) baseTranscriber {
	return baseTranscriber{client: newHTTPClient(), apiURL: apiURL, apiKey: apiKey, format: format}
}

// Warm opens a connection ahead of the first upload.
func (b *baseTranscriber) Warm() {
	go b.client.warm(context.Background(), b.apiURL)
}

// postMultipart sends an OpenAI-compatible audio/transcriptions request.
func (b *baseTranscriber) postMultipart(ctx context.Context, audio []byte, ext string, fields [][2]string) (*reply, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+ext)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f[1] != "" {
			writer.WriteField(f[0], f[1])
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return b.client.do(req)
}

// New picks a provider by name. The API key comes from the provider's
// environment variable.
func New(provider, format string, getenv func(string) string) (Transcriber, error) {
	switch strings.ToLower(provider) {
	case "", "openai":
		key := getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("set OPENAI_API_KEY environment variable")
		}
		return NewOpenAI(key, format), nil
	case "groq":
		key := getenv("GROQ_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("set GROQ_API_KEY environment variable")
		}
		return NewGroq(key, format), nil
	case "deepgram":
		key := getenv("DEEPGRAM_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("set DEEPGRAM_API_KEY environment variable")
		}
		return NewDeepgram(key, format), nil
	}
	return nil, fmt.Errorf("unknown transcription provider %q (want openai, groq or deepgram)", provider)
}
