package config

import (
	"fmt"
	"time"

	"github.com/hpn/hpn-chat-agent/internal/domain"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// AIProvider selects and configures the chat provider.
	AIProvider AIProviderConfig `json:"ai_provider" mapstructure:"ai_provider"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// AIProviderConfig holds the provider selection and per-provider settings.
// Only the section named by Default has to be complete.
type AIProviderConfig struct {
	// Default is the provider name bound at startup ("openai" or "gemini").
	Default string `json:"default" mapstructure:"default"`

	// RequestTimeoutSeconds bounds each outbound provider call. Zero disables the timeout.
	RequestTimeoutSeconds int `json:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`

	OpenAI OpenAIConfig `json:"openai" mapstructure:"openai"`
	Gemini GeminiConfig `json:"gemini" mapstructure:"gemini"`
}

// OpenAIConfig configures the OpenAI-compatible adapter.
type OpenAIConfig struct {
	APIKey         string `json:"-" mapstructure:"api_key"`
	DeploymentName string `json:"deployment_name" mapstructure:"deployment_name"`
	BaseURL        string `json:"base_url" mapstructure:"base_url"`

	// AzureEndpoint switches the adapter to Azure OpenAI when set.
	AzureEndpoint string `json:"azure_endpoint" mapstructure:"azure_endpoint"`
}

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	APIKey         string          `json:"-" mapstructure:"api_key"`
	ModelName      string          `json:"model_name" mapstructure:"model_name"`
	BaseURL        string          `json:"base_url" mapstructure:"base_url"`
	SafetySettings []SafetySetting `json:"safety_settings" mapstructure:"safety_settings"`
}

// SafetySetting is one Gemini content filter threshold.
type SafetySetting struct {
	Category  string `json:"category" mapstructure:"category"`
	Threshold string `json:"threshold" mapstructure:"threshold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`
}

// Provider returns the selected provider, or an InvalidValueError when the
// configured name is not supported.
func (c *AIProviderConfig) Provider() (domain.ProviderType, error) {
	p, ok := domain.ParseProviderType(c.Default)
	if !ok {
		allowed := make([]string, len(domain.SupportedProviders))
		for i, sp := range domain.SupportedProviders {
			allowed[i] = string(sp)
		}
		return "", &InvalidValueError{Key: "ai_provider.default", Value: c.Default, AllowedValues: allowed}
	}
	return p, nil
}

// RequestTimeout returns the outbound call timeout as a duration.
func (c *AIProviderConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate validates the configuration and returns an error if required fields are missing.
func (c *Configuration) Validate() error {
	var validationErrors []string

	// Validate server configuration
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	// Validate provider selection; only the selected provider's section matters
	provider, err := c.AIProvider.Provider()
	if err != nil {
		validationErrors = append(validationErrors, err.Error())
	}

	switch provider {
	case domain.ProviderOpenAI:
		if c.AIProvider.OpenAI.APIKey == "" {
			validationErrors = append(validationErrors, (&MissingKeyError{Key: "ai_provider.openai.api_key"}).Error())
		}
		if c.AIProvider.OpenAI.DeploymentName == "" {
			validationErrors = append(validationErrors, "ai_provider.openai.deployment_name is required")
		}
	case domain.ProviderGemini:
		if c.AIProvider.Gemini.APIKey == "" {
			validationErrors = append(validationErrors, (&MissingKeyError{Key: "ai_provider.gemini.api_key"}).Error())
		}
		if c.AIProvider.Gemini.ModelName == "" {
			validationErrors = append(validationErrors, "ai_provider.gemini.model_name is required")
		}
	}

	if c.AIProvider.RequestTimeoutSeconds < 0 {
		validationErrors = append(validationErrors, "ai_provider.request_timeout_seconds cannot be negative")
	}

	// Validate logging configuration
	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "text" {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.format '%s' is invalid, must be one of: json, text",
			c.Logging.Format,
		))
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
