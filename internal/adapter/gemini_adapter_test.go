package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hpn/hpn-chat-agent/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newGeminiServer serves status and body for every request and records the
// decoded request body.
func newGeminiServer(t *testing.T, status int, body string, got *GeminiRequest, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGemini(t *testing.T, baseURL string, opts ...GeminiAdapterOption) *GeminiAdapter {
	t.Helper()
	opts = append([]GeminiAdapterOption{
		WithGeminiBaseURL(baseURL),
		WithGeminiLogger(discardLogger()),
	}, opts...)
	g, err := NewGeminiAdapter("test-api-key", opts...)
	if err != nil {
		t.Fatalf("NewGeminiAdapter() error = %v", err)
	}
	return g
}

func TestNewGeminiAdapter_EmptyKey(t *testing.T) {
	var hits int32
	srv := newGeminiServer(t, http.StatusOK, `{}`, nil, &hits)

	g, err := NewGeminiAdapter("", WithGeminiBaseURL(srv.URL), WithGeminiLogger(discardLogger()))
	if err == nil {
		t.Fatal("NewGeminiAdapter(\"\") error = nil, want configuration error")
	}
	if g != nil {
		t.Errorf("NewGeminiAdapter(\"\") adapter = %v, want nil", g)
	}
	if !errors.Is(err, domain.ErrConfiguration) || !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("error %v does not match ErrConfiguration and ErrMissingAPIKey", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("provider received %d requests, want 0", hits)
	}
}

func TestGeminiAdapter_buildRequest(t *testing.T) {
	g := newTestGemini(t, DefaultGeminiBaseURL)

	for _, msg := range []string{"Hello", "multi\nline message", "  spaced  ", "ünïcødé ✓"} {
		t.Run(msg, func(t *testing.T) {
			req := g.buildRequest(msg)
			if len(req.Contents) != 1 {
				t.Fatalf("len(Contents) = %d, want 1", len(req.Contents))
			}
			if req.Contents[0].Role != "user" {
				t.Errorf("Contents[0].Role = %s, want user", req.Contents[0].Role)
			}
			if len(req.Contents[0].Parts) != 1 {
				t.Fatalf("len(Parts) = %d, want 1", len(req.Contents[0].Parts))
			}
			if req.Contents[0].Parts[0].Text != msg {
				t.Errorf("Parts[0].Text = %q, want %q", req.Contents[0].Parts[0].Text, msg)
			}
			if len(req.SafetySettings) != 1 || req.SafetySettings[0].Threshold != "BLOCK_NONE" {
				t.Errorf("SafetySettings = %+v, want default", req.SafetySettings)
			}
		})
	}
}

func TestGeminiAdapter_GetResponse(t *testing.T) {
	var gotPath, gotKey, gotMethod string
	var got GeminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hi there"}],"role":"model"},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	g := newTestGemini(t, srv.URL+"/")

	resp, err := g.GetResponse(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("GetResponse() error = %v", err)
	}
	if resp != "Hi there" {
		t.Errorf("GetResponse() = %q, want 'Hi there'", resp)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotPath != "/v1beta/models/gemini-pro:generateContent" {
		t.Errorf("path = %s, want /v1beta/models/gemini-pro:generateContent", gotPath)
	}
	if gotKey != "test-api-key" {
		t.Errorf("key query = %s, want test-api-key", gotKey)
	}
	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 1 || got.Contents[0].Parts[0].Text != "Hello" {
		t.Errorf("request body = %+v, want one content with one 'Hello' part", got)
	}
}

func TestGeminiAdapter_GetResponse_Placeholder(t *testing.T) {
	bodies := map[string]string{
		"empty candidates":     `{"candidates": []}`,
		"no candidates":        `{}`,
		"empty parts":          `{"candidates":[{"content":{"parts":[]}}]}`,
		"no content":           `{"candidates":[{"finishReason":"SAFETY"}]}`,
		"non-text part":        `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png"}}]}}]}`,
		"null text":            `{"candidates":[{"content":{"parts":[{"text":null}]}}]}`,
		"numeric text":         `{"candidates":[{"content":{"parts":[{"text":42}]}}]}`,
		"candidates not array": `{"candidates":"unexpected"}`,
		"top-level array":      `[]`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := newGeminiServer(t, http.StatusOK, body, nil, nil)
			g := newTestGemini(t, srv.URL)

			resp, err := g.GetResponse(context.Background(), "Hello")
			if err != nil {
				t.Fatalf("GetResponse() error = %v, want nil", err)
			}
			if resp != domain.NoResponsePlaceholder {
				t.Errorf("GetResponse() = %q, want %q", resp, domain.NoResponsePlaceholder)
			}
		})
	}
}

func TestGeminiAdapter_GetResponse_EmptyTextIsKept(t *testing.T) {
	srv := newGeminiServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`, nil, nil)
	g := newTestGemini(t, srv.URL)

	resp, err := g.GetResponse(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("GetResponse() error = %v", err)
	}
	if resp != "" {
		t.Errorf("GetResponse() = %q, want empty string", resp)
	}
}

func TestGeminiAdapter_GetResponse_StatusError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`},
		{"bad request", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`},
		{"server error", http.StatusInternalServerError, `internal`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newGeminiServer(t, tt.status, tt.body, nil, nil)
			g := newTestGemini(t, srv.URL)

			_, err := g.GetResponse(context.Background(), "Hello")
			if err == nil {
				t.Fatal("GetResponse() error = nil, want provider error")
			}
			if !errors.Is(err, domain.ErrTransport) {
				t.Errorf("errors.Is(err, ErrTransport) = false for %v", err)
			}

			var perr *domain.ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("error type = %T, want *domain.ProviderError", err)
			}
			if perr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", perr.StatusCode, tt.status)
			}
			if perr.Body != tt.body {
				t.Errorf("Body = %q, want %q", perr.Body, tt.body)
			}
		})
	}
}

func TestGeminiAdapter_GetResponse_MalformedBody(t *testing.T) {
	srv := newGeminiServer(t, http.StatusOK, `<html>not json</html>`, nil, nil)
	g := newTestGemini(t, srv.URL)

	_, err := g.GetResponse(context.Background(), "Hello")
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("GetResponse() error = %v, want ErrMalformedResponse", err)
	}
}

func TestGeminiAdapter_GetResponse_Cancellation(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	defer srv.Close()
	defer close(done)

	g := newTestGemini(t, srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.GetResponse(ctx, "Hello")
	if err == nil {
		t.Fatal("GetResponse() error = nil, want cancellation error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("errors.Is(err, DeadlineExceeded) = false for %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("GetResponse() took %v, cancellation was not propagated", time.Since(start))
	}
	if strings.Contains(err.Error(), "test-api-key") {
		t.Errorf("error %q leaks the API key", err.Error())
	}
}

func TestGeminiAdapter_SafetySettingsOption(t *testing.T) {
	var got GeminiRequest
	srv := newGeminiServer(t, http.StatusOK, `{}`, &got, nil)
	g := newTestGemini(t, srv.URL,
		WithGeminiModel("gemini-1.5-flash"),
		WithSafetySettings(nil),
	)

	if _, err := g.GetResponse(context.Background(), "Hello"); err != nil {
		t.Fatalf("GetResponse() error = %v", err)
	}
	if len(got.SafetySettings) != 0 {
		t.Errorf("SafetySettings = %+v, want none", got.SafetySettings)
	}
	if g.model != "gemini-1.5-flash" {
		t.Errorf("model = %s, want gemini-1.5-flash", g.model)
	}
}

func TestGeminiAdapter_Name(t *testing.T) {
	g := newTestGemini(t, DefaultGeminiBaseURL)

	if g.Name() != "gemini" {
		t.Errorf("Name() = %s, want gemini", g.Name())
	}
}

func TestNewGeminiAdapter_Options(t *testing.T) {
	customURL := "https://custom.api.google.com"
	g := newTestGemini(t, customURL+"/", WithGeminiTimeout(5*time.Second))

	if g.baseURL != customURL {
		t.Errorf("baseURL = %s, want %s", g.baseURL, customURL)
	}
	if g.httpClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", g.httpClient.Timeout)
	}
	if g.model != domain.DefaultGeminiModel {
		t.Errorf("model = %s, want %s", g.model, domain.DefaultGeminiModel)
	}
}

func TestNewGeminiAdapter_TimeoutKeepsSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: 30 * time.Second}
	g := newTestGemini(t, DefaultGeminiBaseURL,
		WithGeminiHTTPClient(shared),
		WithGeminiTimeout(time.Second),
	)

	if g.httpClient.Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s", g.httpClient.Timeout)
	}
	if shared.Timeout != 30*time.Second {
		t.Errorf("shared client Timeout = %v, want it left at 30s", shared.Timeout)
	}
}

func TestExcerpt(t *testing.T) {
	short := "hello"
	if excerpt(short) != short {
		t.Errorf("excerpt(%q) = %q", short, excerpt(short))
	}

	long := strings.Repeat("é", maxLoggedMessage+10)
	got := excerpt(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt(long) = %q, want ... suffix", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != maxLoggedMessage {
		t.Errorf("excerpt kept %d runes, want %d", n, maxLoggedMessage)
	}
}
