package stylist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	aoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	calls  int
	out    string
	err    error
	system string
	temp   float64
	lastIn string
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, system, text string, temperature float64) (string, error) {
	f.calls++
	f.system, f.temp, f.lastIn = system, temperature, text
	return f.out, f.err
}

func TestParseStyle(t *testing.T) {
	for _, st := range Styles {
		got, err := ParseStyle(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
		assert.NotEqual(t, string(st), st.DisplayName())
	}
	got, err := ParseStyle(" Formal ")
	require.NoError(t, err)
	assert.Equal(t, Formal, got)

	got, err = ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, Normal, got)

	_, err = ParseStyle("pirate")
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	system, temp := Normal.Prompt()
	assert.Equal(t, spellingPrompt, system)
	assert.InDelta(t, 0.1, temp, 1e-9)

	system, temp = Casual.Prompt()
	assert.Contains(t, system, "반말")
	assert.Contains(t, system, "말투만 바꿔줘")
	assert.InDelta(t, 0.2, temp, 1e-9)
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "안녕", stripQuotes(`"안녕"`))
	assert.Equal(t, "안녕", stripQuotes(`'안녕'`))
	assert.Equal(t, "안녕", stripQuotes(` "'안녕'" `))
	assert.Equal(t, `"`, stripQuotes(`"`))
	assert.Equal(t, `"안녕`, stripQuotes(`"안녕`))
}

func TestTransformIdentityWithoutCompleter(t *testing.T) {
	s, err := New(nil, Cute, 8)
	require.NoError(t, err)
	assert.False(t, s.Enabled())
	assert.Equal(t, "그대로", s.Transform(context.Background(), "그대로"))
}

func TestTransformStripsAndCaches(t *testing.T) {
	f := &fakeCompleter{out: `"안녕하십니까"`}
	s, err := New(f, Formal, 8)
	require.NoError(t, err)

	assert.Equal(t, "안녕하십니까", s.Transform(context.Background(), "안녕"))
	assert.Equal(t, "안녕하십니까", s.Transform(context.Background(), "안녕"))
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, "안녕", f.lastIn)

	// a different style is a different cache entry
	s.SetStyle(Casual)
	s.Transform(context.Background(), "안녕")
	assert.Equal(t, 2, f.calls)
	assert.Contains(t, f.system, "반말")
}

func TestTransformFailureReturnsInput(t *testing.T) {
	f := &fakeCompleter{err: errors.New("rate limited")}
	s, err := New(f, Normal, 0)
	require.NoError(t, err)
	assert.Equal(t, "원문", s.Transform(context.Background(), "원문"))

	f.err = nil
	f.out = "   "
	assert.Equal(t, "원문", s.Transform(context.Background(), "원문"))
}

func TestOpenAICompleter(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"수정됨"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	out, err := c.Complete(context.Background(), "sys", "text", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "수정됨", out)
	assert.Equal(t, "gpt-4o-mini", req["model"])
	assert.EqualValues(t, 500, req["max_tokens"])
	assert.Len(t, req["messages"], 2)
}

func TestAnthropicCompleter(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5",
			"content":[{"type":"text","text":"다정하게"}],"stop_reason":"end_turn",
			"usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer srv.Close()

	c := NewAnthropic("test-key", "", aoption.WithBaseURL(srv.URL), aoption.WithMaxRetries(0))
	out, err := c.Complete(context.Background(), "sys", "text", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "다정하게", out)
	assert.Equal(t, DefaultAnthropicModel, req["model"])
}

func TestCompleterServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOpenAI("k", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	_, err := c.Complete(context.Background(), "s", "t", 0.1)
	assert.Error(t, err)
}

func TestNewCompleter(t *testing.T) {
	env := map[string]string{"OPENAI_API_KEY": "k"}
	getenv := func(k string) string { return env[k] }

	c, err := NewCompleter("none", "", getenv)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewCompleter("openai", "", getenv)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", c.Name())

	_, err = NewCompleter("anthropic", "", getenv)
	assert.Error(t, err)

	_, err = NewCompleter("gemini", "", getenv)
	assert.Error(t, err)
}
