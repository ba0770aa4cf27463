package transcriber

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

const deepgramURL = "https://api.deepgram.com/v1/listen"

var (
	deepgramRemaining = []string{"x-dg-ratelimit-remaining", "x-ratelimit-remaining", "ratelimit-remaining"}
	deepgramLimit     = []string{"x-dg-ratelimit-limit", "x-ratelimit-limit", "ratelimit-limit"}
)

// Deepgram uploads the whole utterance to the pre-recorded endpoint as a
// raw body rather than a multipart form.
type Deepgram struct {
	baseTranscriber
}

func NewDeepgram(apiKey, format string) *Deepgram {
	return &Deepgram{newBase(deepgramURL, apiKey, format)}
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) Transcribe(ctx context.Context, samples []float32, sampleRate int, lang string) (Result, error) {
	return upload(ctx, d.format, samples, sampleRate, lang, d.post)
}

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) post(ctx context.Context, audio []byte, _, contentType, lang string) (*response, error) {
	q := url.Values{"model": {"nova-3"}, "smart_format": {"true"}}
	if lang != "" {
		q.Set("language", lang)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+"?"+q.Encode(), bytes.NewReader(audio))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", contentType)

	rep, err := d.client.do(req)
	if err != nil {
		return nil, err
	}
	var dr deepgramResponse
	if err := rep.decode("deepgram", &dr); err != nil {
		return nil, err
	}

	out := &response{
		Metrics:   &rep.net,
		RateLimit: rep.rateLimit(deepgramRemaining, deepgramLimit),
		Duration:  dr.Metadata.Duration,
	}
	if ch := dr.Results.Channels; len(ch) > 0 && len(ch[0].Alternatives) > 0 {
		out.Text = ch[0].Alternatives[0].Transcript
		out.Confidence = ch[0].Alternatives[0].Confidence
	}
	return out, nil
}
