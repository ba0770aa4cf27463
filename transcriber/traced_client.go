package transcriber

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"
)

// maxReplyBytes caps how much of a provider answer is read. Transcripts of
// a single utterance are a few kilobytes.
const maxReplyBytes = 1 << 20

// httpClient keeps provider connections pooled between utterances and
// times every phase of a request.
type httpClient struct {
	hc *http.Client
}

func newHTTPClient() *httpClient {
	return &httpClient{hc: &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     2 * time.Minute,
			ForceAttemptHTTP2:   true,
		},
	}}
}

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Body)
}

// Temporary reports whether the same request may succeed later.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// reply is a fully read response with its timings.
type reply struct {
	status int
	header http.Header
	body   []byte
	net    NetworkMetrics
}

func (r *reply) decode(provider string, v any) error {
	if r.status/100 != 2 {
		return &APIError{Provider: provider, Status: r.status, Body: strings.TrimSpace(string(r.body))}
	}
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("%s: decoding response: %w", provider, err)
	}
	return nil
}

// rateLimit renders "remaining/limit" from the first header present in each
// list.
func (r *reply) rateLimit(remaining, limit []string) string {
	return firstNonEmpty(r.header, remaining...) + "/" + firstNonEmpty(r.header, limit...)
}

func (c *httpClient) do(req *http.Request) (*reply, error) {
	r := &reply{}
	m := &r.net
	var getConn, gotConn, dnsStart, dialStart, tlsStart, wroteHeaders, wroteRequest, firstByte time.Time

	trace := &httptrace.ClientTrace{
		GetConn: func(string) { getConn = time.Now() },
		GotConn: func(info httptrace.GotConnInfo) {
			gotConn = time.Now()
			m.ConnWait = gotConn.Sub(getConn)
			m.ConnReused = info.Reused
		},
		DNSStart:          func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone:           func(httptrace.DNSDoneInfo) { m.DNS = time.Since(dnsStart) },
		ConnectStart:      func(string, string) { dialStart = time.Now() },
		ConnectDone:       func(string, string, error) { m.TCP = time.Since(dialStart) },
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone:  func(tls.ConnectionState, error) { m.TLS = time.Since(tlsStart) },
		WroteHeaders: func() {
			wroteHeaders = time.Now()
			m.ReqHeaders = wroteHeaders.Sub(gotConn)
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			wroteRequest = time.Now()
			m.ReqBody = wroteRequest.Sub(wroteHeaders)
		},
		GotFirstResponseByte: func() {
			firstByte = time.Now()
			m.TTFB = firstByte.Sub(wroteRequest)
		},
	}

	start := time.Now()
	resp, err := c.hc.Do(req.WithContext(httptrace.WithClientTrace(req.Context(), trace)))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if r.body, err = io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes)); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	r.status = resp.StatusCode
	r.header = resp.Header
	if resp.TLS != nil {
		m.TLSProtocol = resp.TLS.NegotiatedProtocol
	}
	m.Download = time.Since(firstByte)
	m.Total = time.Since(start)
	return r, nil
}

// warm dials url so the first upload finds a pooled connection. Failures
// are ignored; the upload dials again.
func (c *httpClient) warm(ctx context.Context, url string) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
