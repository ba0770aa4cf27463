package transcriber

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNetworkMetricsSum(t *testing.T) {
	m := &NetworkMetrics{
		ConnWait:   10 * time.Millisecond,
		DNS:        20 * time.Millisecond,
		TCP:        30 * time.Millisecond,
		TLS:        40 * time.Millisecond,
		ReqHeaders: 5 * time.Millisecond,
		ReqBody:    15 * time.Millisecond,
		TTFB:       50 * time.Millisecond,
		Download:   25 * time.Millisecond,
	}
	got := m.Sum()
	want := 195 * time.Millisecond
	if got != want {
		t.Errorf("Sum() = %v, want %v", got, want)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	h := http.Header{}
	h.Set("X-Rate-Limit", "100")

	if got := firstNonEmpty(h, "X-Missing", "X-Rate-Limit"); got != "100" {
		t.Errorf("got %q, want %q", got, "100")
	}
	if got := firstNonEmpty(h, "X-A", "X-B"); got != "?" {
		t.Errorf("got %q, want %q", got, "?")
	}
}

func tone(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(0.3 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	return s
}

func TestSilent(t *testing.T) {
	if !Silent(make([]float32, 16000), 16000) {
		t.Error("zeros should be silent")
	}
	if !Silent(nil, 16000) {
		t.Error("empty input should be silent")
	}
	s := make([]float32, 16000)
	copy(s[8000:], tone(1600))
	if Silent(s, 16000) {
		t.Error("a 100ms tone should not be silent")
	}
}

func TestSilentAudioSkipsUpload(t *testing.T) {
	called := false
	post := func(context.Context, []byte, string, string, string) (*response, error) {
		called = true
		return &response{}, nil
	}
	r, err := upload(context.Background(), "wav", make([]float32, 16000), 16000, "ko", post)
	if err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("silent audio was uploaded")
	}
	if !r.NoSpeech || r.Text != "" || r.Stats != nil {
		t.Errorf("got %+v, want empty no-speech result", r)
	}
}

func TestUploadStats(t *testing.T) {
	post := func(_ context.Context, audio []byte, ext, contentType, lang string) (*response, error) {
		if ext != "flac" || contentType != "audio/flac" {
			t.Errorf("ext=%q contentType=%q", ext, contentType)
		}
		if lang != "ko" {
			t.Errorf("lang = %q", lang)
		}
		if string(audio[:4]) != "fLaC" {
			t.Error("upload is not flac")
		}
		return &response{
			Text:       "  안녕하세요 ",
			Metrics:    &NetworkMetrics{TTFB: 10 * time.Millisecond},
			Confidence: 0.9,
		}, nil
	}
	r, err := upload(context.Background(), "flac", tone(16000), 16000, "ko", post)
	if err != nil {
		t.Fatal(err)
	}
	if r.Text != "안녕하세요" || r.NoSpeech {
		t.Errorf("Text = %q NoSpeech = %v", r.Text, r.NoSpeech)
	}
	if r.Stats == nil || r.Stats.AudioLengthS != 1 {
		t.Fatalf("Stats = %+v", r.Stats)
	}
	if r.Stats.TTFBMs != 10 {
		t.Errorf("TTFBMs = %v", r.Stats.TTFBMs)
	}
	if len(r.Metrics) == 0 || !strings.HasPrefix(r.Metrics[len(r.Metrics)-1], "confidence:") {
		t.Errorf("Metrics = %v", r.Metrics)
	}
}

func TestUploadPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	post := func(context.Context, []byte, string, string, string) (*response, error) { return nil, boom }
	if _, err := upload(context.Background(), "wav", tone(1600), 16000, "", post); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestUploadUnknownFormat(t *testing.T) {
	post := func(context.Context, []byte, string, string, string) (*response, error) { return &response{}, nil }
	if _, err := upload(context.Background(), "ogg", tone(1600), 16000, "", post); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestOpenAIRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("language"); got != "ko" {
			t.Errorf("language = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "audio.wav" || string(data[:4]) != "RIFF" {
			t.Errorf("file = %s %q", hdr.Filename, data[:4])
		}
		w.Header().Set("x-ratelimit-remaining-requests", "99")
		w.Header().Set("x-ratelimit-limit-requests", "100")
		io.WriteString(w, `{"text":"볼륨 올려"}`)
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", "wav")
	o.apiURL = srv.URL
	r, err := o.Transcribe(context.Background(), tone(8000), 16000, "ko")
	if err != nil {
		t.Fatal(err)
	}
	if r.Text != "볼륨 올려" {
		t.Errorf("Text = %q", r.Text)
	}
	if r.RateLimit != "99/100" {
		t.Errorf("RateLimit = %q", r.RateLimit)
	}
}

func TestGroqVerboseJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		if _, ok := r.MultipartForm.Value["language"]; ok {
			t.Error("empty language should not be sent")
		}
		io.WriteString(w, `{"text":"hi","duration":0.5,"segments":[
			{"text":"hi","no_speech_prob":0.1,"avg_logprob":-0.2},
			{"text":"","no_speech_prob":0.4,"avg_logprob":-0.4}]}`)
	}))
	defer srv.Close()

	g := NewGroq("gsk", "flac")
	g.apiURL = srv.URL
	r, err := g.Transcribe(context.Background(), tone(8000), 16000, "")
	if err != nil {
		t.Fatal(err)
	}
	if r.Text != "hi" || len(r.Segments) != 2 {
		t.Errorf("got %+v", r)
	}
}

func TestProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, "slow down")
	}))
	defer srv.Close()

	g := NewGroq("gsk", "wav")
	g.apiURL = srv.URL
	_, err := g.Transcribe(context.Background(), tone(8000), 16000, "ko")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusTooManyRequests || apiErr.Body != "slow down" || !apiErr.Temporary() {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "groq: HTTP 429") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestAPIErrorTemporary(t *testing.T) {
	for status, want := range map[int]bool{400: false, 401: false, 429: true, 500: true, 503: true} {
		if got := (&APIError{Status: status}).Temporary(); got != want {
			t.Errorf("Temporary(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>")
	}))
	defer srv.Close()

	o := NewOpenAI("sk", "wav")
	o.apiURL = srv.URL
	_, err := o.Transcribe(context.Background(), tone(8000), 16000, "ko")
	if err == nil || !strings.Contains(err.Error(), "openai: decoding response") {
		t.Errorf("err = %v", err)
	}
}

func TestDeepgramRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("language"); got != "ko" {
			t.Errorf("language = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "audio/wav" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Token dg" {
			t.Errorf("Authorization = %q", got)
		}
		io.WriteString(w, `{"metadata":{"duration":0.5},"results":{"channels":[{"alternatives":[{"transcript":"재생","confidence":0.97}]}]}}`)
	}))
	defer srv.Close()

	d := NewDeepgram("dg", "wav")
	d.apiURL = srv.URL
	r, err := d.Transcribe(context.Background(), tone(8000), 16000, "ko")
	if err != nil {
		t.Fatal(err)
	}
	if r.Text != "재생" || r.Stats.Confidence != 0.97 {
		t.Errorf("got text %q confidence %v", r.Text, r.Stats.Confidence)
	}
}

func TestNew(t *testing.T) {
	env := map[string]string{"GROQ_API_KEY": "g"}
	getenv := func(k string) string { return env[k] }

	tr, err := New("groq", "wav", getenv)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Name() != "groq" {
		t.Errorf("Name = %q", tr.Name())
	}
	if _, err := New("openai", "wav", getenv); err == nil {
		t.Error("expected missing key error")
	}
	if _, err := New("whisper.cpp", "wav", getenv); err == nil {
		t.Error("expected unknown provider error")
	}
}

func TestFake(t *testing.T) {
	f := NewFake("안녕", nil)
	r, err := f.Transcribe(context.Background(), make([]float32, 16000), 16000, "ko")
	if err != nil {
		t.Fatal(err)
	}
	if r.Text != "안녕" || r.Stats.AudioLengthS != 1 || f.Calls() != 1 {
		t.Errorf("got %+v calls=%d", r, f.Calls())
	}

	f = NewFake("", errors.New("down"))
	if _, err := f.Transcribe(context.Background(), nil, 16000, ""); err == nil {
		t.Error("expected error")
	}
}
