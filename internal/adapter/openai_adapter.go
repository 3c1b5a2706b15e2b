package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hpn/hpn-chat-agent/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// SystemPrompt precedes every user message sent to OpenAI.
	SystemPrompt = "You are a helpful AI assistant."
)

// chatCompleter is the part of *openai.Client the adapter uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIAdapter implements AIProvider for OpenAI-compatible chat completion APIs,
// including Azure OpenAI deployments.
type OpenAIAdapter struct {
	client     chatCompleter
	deployment string
	logger     *slog.Logger
}

type openAIOptions struct {
	deployment    string
	baseURL       string
	azureEndpoint string
	httpClient    *http.Client
	logger        *slog.Logger
}

// OpenAIAdapterOption is a functional option for configuring OpenAIAdapter.
type OpenAIAdapterOption func(*openAIOptions)

// WithDeploymentName sets the model or Azure deployment that serves requests.
func WithDeploymentName(name string) OpenAIAdapterOption {
	return func(o *openAIOptions) {
		if name != "" {
			o.deployment = name
		}
	}
}

// WithOpenAIBaseURL points the adapter at an OpenAI-compatible endpoint.
func WithOpenAIBaseURL(u string) OpenAIAdapterOption {
	return func(o *openAIOptions) {
		o.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithAzureEndpoint switches the adapter to Azure OpenAI. The deployment
// name is sent verbatim.
func WithAzureEndpoint(endpoint string) OpenAIAdapterOption {
	return func(o *openAIOptions) {
		o.azureEndpoint = endpoint
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIAdapterOption {
	return func(o *openAIOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithOpenAILogger sets a custom logger.
func WithOpenAILogger(logger *slog.Logger) OpenAIAdapterOption {
	return func(o *openAIOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOpenAIAdapter creates a new OpenAIAdapter with the given API key.
// It fails with ErrMissingAPIKey before any request can be made if apiKey is empty.
func NewOpenAIAdapter(apiKey string, opts ...OpenAIAdapterOption) (*OpenAIAdapter, error) {
	o := &openAIOptions{
		deployment: domain.DefaultDeploymentName,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if apiKey == "" {
		o.logger.Error("openai API key is missing or empty")
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}

	var clientCfg openai.ClientConfig
	if o.azureEndpoint != "" {
		clientCfg = openai.DefaultAzureConfig(apiKey, o.azureEndpoint)
		clientCfg.AzureModelMapperFunc = func(model string) string { return model }
	} else {
		clientCfg = openai.DefaultConfig(apiKey)
		if o.baseURL != "" {
			clientCfg.BaseURL = o.baseURL
		}
	}
	clientCfg.HTTPClient = o.httpClient

	o.logger.Info("openai adapter initialized",
		slog.String("deployment", o.deployment),
		slog.Bool("azure", o.azureEndpoint != ""),
	)

	return &OpenAIAdapter{
		client:     openai.NewClientWithConfig(clientCfg),
		deployment: o.deployment,
		logger:     o.logger,
	}, nil
}

// Name returns the provider identifier.
func (a *OpenAIAdapter) Name() string {
	return string(domain.ProviderOpenAI)
}

// GetResponse sends the system prompt and message as a two-message exchange
// and returns the first choice's content. An empty choice list yields
// domain.NoResponsePlaceholder.
func (a *OpenAIAdapter) GetResponse(ctx context.Context, message string) (string, error) {
	a.logger.Info("received message for openai",
		slog.String("deployment", a.deployment),
		slog.String("message", excerpt(message)),
	)

	resp, err := a.client.CreateChatCompletion(ctx, a.buildRequest(message))
	if err != nil {
		if isDecodeError(err) {
			a.logger.Error("openai API returned a malformed body", slog.String("error", err.Error()))
			return "", fmt.Errorf("openai: %w: %v", domain.ErrMalformedResponse, err)
		}
		perr := a.toProviderError(err)
		a.logger.Error("error calling openai API",
			slog.Int("status", perr.StatusCode),
			slog.String("error", perr.Error()),
		)
		return "", perr
	}

	if len(resp.Choices) == 0 {
		a.logger.Warn("openai API returned no choices")
		return domain.NoResponsePlaceholder, nil
	}

	content := resp.Choices[0].Message.Content
	a.logger.Info("openai API call successful", slog.String("response", excerpt(content)))
	return content, nil
}

// buildRequest creates the chat completion request for a single user message.
func (a *OpenAIAdapter) buildRequest(message string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: a.deployment,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	}
}

// isDecodeError reports whether err comes from decoding a 2xx body. Status
// errors also unwrap to JSON errors when the error body is not JSON, and a
// dropped connection surfaces as a *url.Error wrapping io.EOF, so both are
// excluded first.
func isDecodeError(err error) bool {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var urlErr *url.Error
	if errors.As(err, &apiErr) || errors.As(err, &reqErr) || errors.As(err, &urlErr) {
		return false
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF)
}

// toProviderError keeps the status code and response body of SDK errors.
func (a *OpenAIAdapter) toProviderError(err error) *domain.ProviderError {
	perr := &domain.ProviderError{Provider: a.Name(), Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		perr.StatusCode = apiErr.HTTPStatusCode
		perr.Body = apiErr.Message
	case errors.As(err, &reqErr):
		perr.StatusCode = reqErr.HTTPStatusCode
		perr.Body = string(reqErr.Body)
		if perr.Body == "" && reqErr.Err != nil {
			perr.Body = reqErr.Err.Error()
		}
	}
	return perr
}
