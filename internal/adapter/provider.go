// Package adapter provides implementations for external AI provider integrations.
// It uses the Adapter pattern to hide each provider's wire protocol behind
// domain.ChatService.
package adapter

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/hpn/hpn-chat-agent/internal/domain"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// maxLoggedMessage caps how much of a message is written to the log.
	maxLoggedMessage = 200
)

// ErrMissingAPIKey is returned by adapter constructors when no key is configured.
var ErrMissingAPIKey = fmt.Errorf("%w: API key is not configured", domain.ErrConfiguration)

// AIProvider defines the interface for AI provider adapters.
// All provider implementations must satisfy this interface.
type AIProvider interface {
	domain.ChatService

	// Name returns the provider's identifier string.
	Name() string
}

// excerpt shortens s for log output without splitting a rune.
func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= maxLoggedMessage {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLoggedMessage]) + "..."
}
