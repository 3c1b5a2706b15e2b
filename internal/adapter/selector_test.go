package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hpn/hpn-chat-agent/internal/config"
	"github.com/hpn/hpn-chat-agent/internal/domain"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.AIProviderConfig
		wantName string
		wantErr  bool
	}{
		{
			name:     "openai",
			cfg:      config.AIProviderConfig{Default: "openai", OpenAI: config.OpenAIConfig{APIKey: "sk-test"}},
			wantName: "openai",
		},
		{
			name:     "gemini case-insensitive",
			cfg:      config.AIProviderConfig{Default: "GeMiNi", Gemini: config.GeminiConfig{APIKey: "AIza-test"}},
			wantName: "gemini",
		},
		{
			name:    "unknown provider",
			cfg:     config.AIProviderConfig{Default: "bard", OpenAI: config.OpenAIConfig{APIKey: "sk-test"}},
			wantErr: true,
		},
		{
			name:    "empty provider",
			cfg:     config.AIProviderConfig{OpenAI: config.OpenAIConfig{APIKey: "sk-test"}},
			wantErr: true,
		},
		{
			name:    "openai missing key",
			cfg:     config.AIProviderConfig{Default: "openai", Gemini: config.GeminiConfig{APIKey: "AIza-test"}},
			wantErr: true,
		},
		{
			name:    "gemini missing key",
			cfg:     config.AIProviderConfig{Default: "gemini", OpenAI: config.OpenAIConfig{APIKey: "sk-test"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewFromConfig(tt.cfg, discardLogger())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewFromConfig() error = nil, want configuration error")
				}
				if !errors.Is(err, domain.ErrConfiguration) {
					t.Errorf("errors.Is(err, ErrConfiguration) = false for %v", err)
				}
				if p != nil {
					t.Errorf("NewFromConfig() provider = %v, want nil", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFromConfig() error = %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", p.Name(), tt.wantName)
			}
		})
	}
}

func TestNewFromConfig_GeminiSettingsReachWire(t *testing.T) {
	var got GeminiRequest
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hi there"}]}}]}`))
	}))
	defer srv.Close()

	p, err := NewFromConfig(config.AIProviderConfig{
		Default:               "gemini",
		RequestTimeoutSeconds: 5,
		Gemini: config.GeminiConfig{
			APIKey:    "AIza-test",
			ModelName: "gemini-1.5-flash",
			BaseURL:   srv.URL,
			SafetySettings: []config.SafetySetting{
				{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
			},
		},
	}, discardLogger())
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}

	resp, err := p.GetResponse(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("GetResponse() error = %v", err)
	}
	if resp != "Hi there" {
		t.Errorf("GetResponse() = %q, want 'Hi there'", resp)
	}
	if gotPath != "/v1beta/models/gemini-1.5-flash:generateContent" {
		t.Errorf("path = %s, want configured model", gotPath)
	}
	if len(got.SafetySettings) != 1 || got.SafetySettings[0].Category != "HARM_CATEGORY_HATE_SPEECH" {
		t.Errorf("SafetySettings = %+v, want configured setting", got.SafetySettings)
	}

	g, ok := p.(*GeminiAdapter)
	if !ok {
		t.Fatalf("provider type = %T, want *GeminiAdapter", p)
	}
	if g.httpClient.Timeout.Seconds() != 5 {
		t.Errorf("Timeout = %v, want 5s", g.httpClient.Timeout)
	}
}
