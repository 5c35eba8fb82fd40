// Package llm talks to generative-text providers. Every provider exposes the
// same Generate capability so call sites can swap, chain, and retry them.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Request is a single prompt sent to a provider.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// Structured asks the provider for a JSON object response.
	Structured bool
}

// Response carries the raw provider text and its accounting.
type Response struct {
	Text       string
	Model      string
	Provider   string
	TokensUsed int
}

// Generator is the generative-text capability used by the pipeline.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// ErrEmptyResponse is returned when a provider answers without content.
var ErrEmptyResponse = errors.New("llm: empty response")

// ProviderError describes a failed provider call.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PublicReason summarizes the failure by status class only.
func (e *ProviderError) PublicReason() string {
	switch {
	case e.StatusCode == 0:
		return "provider unreachable"
	case e.StatusCode == http.StatusTooManyRequests:
		return "provider rate limited (status 429)"
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return fmt.Sprintf("provider rejected credentials (status %d)", e.StatusCode)
	case e.StatusCode >= 500:
		return fmt.Sprintf("provider unavailable (status %d)", e.StatusCode)
	default:
		return fmt.Sprintf("provider rejected the request (status %d)", e.StatusCode)
	}
}

// Retryable reports whether repeating the call may succeed.
func (e *ProviderError) Retryable() bool {
	if e.StatusCode == 0 {
		return !errors.Is(e.Err, context.Canceled)
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
