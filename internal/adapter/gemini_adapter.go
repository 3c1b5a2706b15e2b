package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hpn/hpn-chat-agent/internal/domain"
	"github.com/tidwall/gjson"
)

const (
	// DefaultGeminiBaseURL is the default Gemini API host.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

	// geminiTextPath locates the reply text in a generateContent response.
	geminiTextPath = "candidates.0.content.parts.0.text"
)

// GeminiAdapter implements AIProvider for the Google Gemini generateContent API.
type GeminiAdapter struct {
	apiKey         string
	model          string
	baseURL        string
	safetySettings []GeminiSafetySetting
	httpClient     *http.Client
	logger         *slog.Logger
}

// GeminiAdapterOption is a functional option for configuring GeminiAdapter.
type GeminiAdapterOption func(*GeminiAdapter)

// WithGeminiBaseURL sets a custom base URL for the Gemini API.
func WithGeminiBaseURL(u string) GeminiAdapterOption {
	return func(g *GeminiAdapter) {
		if u != "" {
			g.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithGeminiModel sets the model name used in the request path.
func WithGeminiModel(model string) GeminiAdapterOption {
	return func(g *GeminiAdapter) {
		if model != "" {
			g.model = model
		}
	}
}

// WithSafetySettings replaces the safety settings sent with every request.
// An empty slice omits them from the request.
func WithSafetySettings(settings []GeminiSafetySetting) GeminiAdapterOption {
	return func(g *GeminiAdapter) {
		g.safetySettings = settings
	}
}

// WithGeminiHTTPClient sets a custom HTTP client.
func WithGeminiHTTPClient(client *http.Client) GeminiAdapterOption {
	return func(g *GeminiAdapter) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithGeminiTimeout sets the HTTP client timeout. It applies to a copy, so a
// client passed to WithGeminiHTTPClient is never modified.
func WithGeminiTimeout(timeout time.Duration) GeminiAdapterOption {
	return func(g *GeminiAdapter) {
		c := *g.httpClient
		c.Timeout = timeout
		g.httpClient = &c
	}
}

// WithGeminiLogger sets a custom logger.
func WithGeminiLogger(logger *slog.Logger) GeminiAdapterOption {
	return func(g *GeminiAdapter) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGeminiAdapter creates a new GeminiAdapter with the given API key.
// It fails with ErrMissingAPIKey before any request can be made if apiKey is empty.
func NewGeminiAdapter(apiKey string, opts ...GeminiAdapterOption) (*GeminiAdapter, error) {
	g := &GeminiAdapter{
		apiKey:         apiKey,
		model:          domain.DefaultGeminiModel,
		baseURL:        DefaultGeminiBaseURL,
		safetySettings: DefaultGeminiSafetySettings,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	if apiKey == "" {
		g.logger.Error("gemini API key is missing or empty")
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	g.logger.Info("gemini adapter initialized", slog.String("model", g.model))

	return g, nil
}

// Name returns the provider identifier.
func (g *GeminiAdapter) Name() string {
	return string(domain.ProviderGemini)
}

// GetResponse sends message as a single user turn and returns the first
// candidate's text, or domain.NoResponsePlaceholder when the response has none.
func (g *GeminiAdapter) GetResponse(ctx context.Context, message string) (string, error) {
	g.logger.Info("received message for gemini",
		slog.String("model", g.model),
		slog.String("message", excerpt(message)),
	)

	body, err := json.Marshal(g.buildRequest(message))
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		err = &domain.ProviderError{Provider: g.Name(), Err: stripURL(err)}
		g.logger.Error("error calling gemini API", slog.String("error", err.Error()))
		return "", err
	}
	defer resp.Body.Close()

	// Read body first so it can be logged on non-success responses
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		err = &domain.ProviderError{Provider: g.Name(), StatusCode: resp.StatusCode, Err: stripURL(err)}
		g.logger.Error("error reading gemini response", slog.String("error", err.Error()))
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Error("gemini API returned non-success status",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(respBody)),
		)
		return "", &domain.ProviderError{
			Provider:   g.Name(),
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	text, err := extractGeminiText(respBody)
	if err != nil {
		g.logger.Error("gemini API returned unreadable body",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(respBody)),
		)
		return "", err
	}

	g.logger.Info("gemini API call successful", slog.String("response", excerpt(text)))
	return text, nil
}

// buildRequest wraps message in a single user content block.
func (g *GeminiAdapter) buildRequest(message string) GeminiRequest {
	return GeminiRequest{
		Contents: []GeminiContent{
			{
				Role:  "user",
				Parts: []GeminiPart{{Text: message}},
			},
		},
		SafetySettings: g.safetySettings,
	}
}

// endpoint builds the generateContent URL for the configured model and key.
func (g *GeminiAdapter) endpoint() string {
	return fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s",
		g.baseURL, GeminiAPIVersion, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
}

// extractGeminiText reads candidates[0].content.parts[0].text. Only a body
// that is not JSON at all is an error; any other shape falls back to the
// placeholder.
func extractGeminiText(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("gemini: %w: body is not valid JSON", domain.ErrMalformedResponse)
	}

	text := gjson.GetBytes(body, geminiTextPath)
	if text.Type != gjson.String {
		return domain.NoResponsePlaceholder, nil
	}
	return text.Str, nil
}

// stripURL drops the request URL from transport errors; it carries the API key.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
