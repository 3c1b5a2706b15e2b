// Package domain contains the core business entities and value objects.
// These types are framework-agnostic and describe the chat capability every
// provider adapter implements.
package domain

import (
	"context"
	"strings"
)

// NoResponsePlaceholder is returned when a provider answers successfully but
// the reply carries no extractable text.
const NoResponsePlaceholder = "No response generated"

const (
	// DefaultDeploymentName is the OpenAI model used when none is configured.
	DefaultDeploymentName = "gpt-3.5-turbo"

	// DefaultGeminiModel is the Gemini model used when none is configured.
	DefaultGeminiModel = "gemini-pro"
)

// ProviderType identifies a supported chat provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
)

// SupportedProviders lists every provider the selector can bind to.
var SupportedProviders = []ProviderType{ProviderOpenAI, ProviderGemini}

// ParseProviderType resolves a provider name case-insensitively.
// Surrounding whitespace is ignored.
func ParseProviderType(name string) (ProviderType, bool) {
	normalized := ProviderType(strings.ToLower(strings.TrimSpace(name)))
	for _, p := range SupportedProviders {
		if p == normalized {
			return p, true
		}
	}
	return "", false
}

// ChatService is the capability callers depend on: send one user message,
// receive the generated reply.
type ChatService interface {
	// GetResponse sends message to the provider and returns its reply.
	// Cancelling ctx aborts the outbound call.
	GetResponse(ctx context.Context, message string) (string, error)
}
