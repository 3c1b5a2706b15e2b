package adapter

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hpn/hpn-chat-agent/internal/config"
	"github.com/hpn/hpn-chat-agent/internal/domain"
)

// NewFromConfig binds the capability to the adapter named by cfg.Default.
// It is called once at startup; the returned provider is immutable and safe
// for concurrent use. Every error it returns matches domain.ErrConfiguration.
func NewFromConfig(cfg config.AIProviderConfig, logger *slog.Logger) (AIProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, ok := domain.ParseProviderType(cfg.Default)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported chat provider %q", domain.ErrConfiguration, cfg.Default)
	}

	// One client per process; connection pooling is shared by all requests.
	httpClient := &http.Client{Timeout: cfg.RequestTimeout()}

	switch provider {
	case domain.ProviderGemini:
		g, err := NewGeminiAdapter(cfg.Gemini.APIKey,
			WithGeminiModel(cfg.Gemini.ModelName),
			WithGeminiBaseURL(cfg.Gemini.BaseURL),
			WithSafetySettings(toGeminiSafetySettings(cfg.Gemini.SafetySettings)),
			WithGeminiHTTPClient(httpClient),
			WithGeminiLogger(logger.With(slog.String("provider", string(provider)))),
		)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		a, err := NewOpenAIAdapter(cfg.OpenAI.APIKey,
			WithDeploymentName(cfg.OpenAI.DeploymentName),
			WithOpenAIBaseURL(cfg.OpenAI.BaseURL),
			WithAzureEndpoint(cfg.OpenAI.AzureEndpoint),
			WithOpenAIHTTPClient(httpClient),
			WithOpenAILogger(logger.With(slog.String("provider", string(provider)))),
		)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

func toGeminiSafetySettings(settings []config.SafetySetting) []GeminiSafetySetting {
	out := make([]GeminiSafetySetting, 0, len(settings))
	for _, s := range settings {
		out = append(out, GeminiSafetySetting{Category: s.Category, Threshold: s.Threshold})
	}
	return out
}
