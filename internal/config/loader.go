package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hpn/hpn-chat-agent/internal/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "CHAT_AGENT"

	// EnvConfigPath names an explicit configuration file.
	EnvConfigPath = "CHAT_AGENT_CONFIG"
)

// legacyEnvBindings maps configuration keys to the bare environment variable
// names the service has always accepted. They are consulted alongside the
// CHAT_AGENT_ prefixed names.
var legacyEnvBindings = map[string][]string{
	"ai_provider.default":                {"CHATPROVIDER", "AIPROVIDER__DEFAULT"},
	"ai_provider.openai.api_key":         {"OPENAI__APIKEY", "AIPROVIDER__OPENAI__APIKEY"},
	"ai_provider.openai.deployment_name": {"OPENAI__DEPLOYMENTNAME", "AIPROVIDER__OPENAI__DEPLOYMENTNAME"},
	"ai_provider.openai.azure_endpoint":  {"OPENAI__AZUREENDPOINT"},
	"ai_provider.gemini.api_key":         {"GEMINI__APIKEY", "AIPROVIDER__GEMINI__APIKEY"},
	"ai_provider.gemini.model_name":      {"GEMINI__MODELNAME", "AIPROVIDER__GEMINI__MODELNAME"},
}

// LoadOption adjusts the configuration after every source has been read.
type LoadOption func(*viper.Viper)

// WithProvider forces the provider selection, overriding file and environment.
func WithProvider(name string) LoadOption {
	return func(v *viper.Viper) {
		v.Set("ai_provider.default", name)
	}
}

// Load reads the configuration once and validates it.
// Priority order (highest to lowest):
// 1. Environment variables (CHAT_AGENT_ prefixed or the legacy bare names)
// 2. .env file in the working directory (never overrides the real environment)
// 3. config.yaml, from configPath, $CHAT_AGENT_CONFIG or the search paths
// 4. Default values
func Load(configPath string, opts ...LoadOption) (*Configuration, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, &ConfigError{Op: "dotenv", Err: err}
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure Viper
	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}

	// Add config search paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/chat-agent")
		v.AddConfigPath("$HOME/.chat-agent")
	}

	// Enable environment variable override
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnvBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, &ConfigError{Op: "bind_env", Err: fmt.Errorf("failed to bind %s: %w", key, err)}
		}
	}

	// Read configuration file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found is OK, env and defaults are enough
			fmt.Fprintf(os.Stderr, "[CONFIG] Config file not found, using environment variables only\n")
		} else {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
	}

	for _, opt := range opts {
		opt(v)
	}

	// Unmarshal configuration
	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}

	cfg.AIProvider.Default = strings.ToLower(strings.TrimSpace(cfg.AIProvider.Default))

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	// Provider defaults
	v.SetDefault("ai_provider.default", "openai")
	v.SetDefault("ai_provider.request_timeout_seconds", 30)
	v.SetDefault("ai_provider.openai.api_key", "")
	v.SetDefault("ai_provider.openai.deployment_name", domain.DefaultDeploymentName)
	v.SetDefault("ai_provider.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai_provider.openai.azure_endpoint", "")
	v.SetDefault("ai_provider.gemini.api_key", "")
	v.SetDefault("ai_provider.gemini.model_name", domain.DefaultGeminiModel)
	v.SetDefault("ai_provider.gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("ai_provider.gemini.safety_settings", []map[string]interface{}{
		{"category": "HARM_CATEGORY_HARASSMENT", "threshold": "BLOCK_NONE"},
	})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// loadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
