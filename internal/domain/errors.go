package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks failures that must abort startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransport marks per-request failures talking to a provider.
	ErrTransport = errors.New("transport error")

	// ErrMalformedResponse marks a success response whose body is not valid JSON.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// ProviderError describes a failed call to a remote provider.
// StatusCode is zero when the request never produced an HTTP response.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API returned %d", e.Provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s request failed", e.Provider)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is reports every ProviderError as a transport failure.
func (e *ProviderError) Is(target error) bool {
	return target == ErrTransport
}
