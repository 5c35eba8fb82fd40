package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/FizzSlash/AIdesign/internal/infra"
	"github.com/FizzSlash/AIdesign/internal/infra/credentials"
	"github.com/FizzSlash/AIdesign/internal/providers/llm"
)

type keyResolver interface {
	Resolve(ctx context.Context, provider, explicit string) (string, error)
}

// buildGenerator puts the configured provider first and the other one, when
// a key exists for it, behind it as fallback.
func buildGenerator(ctx context.Context, cfg *infra.Config, keys keyResolver, logger zerolog.Logger) (llm.Generator, error) {
	httpClient := &http.Client{Timeout: cfg.LLMTimeout}
	log := logger.With().Str("component", "llm").Logger()

	build := func(provider string) (llm.Generator, error) {
		switch provider {
		case credentials.ProviderOpenAI:
			key, err := keys.Resolve(ctx, provider, cfg.OpenAIAPIKey)
			if err != nil || key == "" {
				return nil, err
			}
			return llm.NewOpenAIClient(llm.OpenAIOptions{
				APIKey:       key,
				Model:        cfg.OpenAIModel,
				BaseURL:      cfg.OpenAIBaseURL,
				Organization: cfg.OpenAIOrg,
				HTTPClient:   httpClient,
				OnWarning: func(reason, detail string) {
					log.Warn().Str("reason", reason).Str("detail", detail).Msg("llm: openai model adjusted")
				},
			})
		case credentials.ProviderGemini:
			key, err := keys.Resolve(ctx, provider, cfg.GeminiAPIKey)
			if err != nil || key == "" {
				return nil, err
			}
			return llm.NewGeminiClient(llm.GeminiOptions{
				APIKey:     key,
				Model:      cfg.GeminiModel,
				BaseURL:    cfg.GeminiBaseURL,
				HTTPClient: httpClient,
			})
		}
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	if !cfg.HasLLMKey() {
		log.Info().Msg("llm: no key in environment, using stored credentials")
	}

	order := []string{cfg.LLMProvider}
	for _, p := range credentials.Providers {
		if p != cfg.LLMProvider {
			order = append(order, p)
		}
	}
	var generators []llm.Generator
	for _, provider := range order {
		g, err := build(provider)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", provider, err)
		}
		if g == nil {
			continue
		}
		generators = append(generators, g)
		log.Info().Str("provider", provider).Int("position", len(generators)).Msg("llm: provider configured")
	}
	if len(generators) == 0 {
		return nil, errors.New("no generation provider key configured; set OPENAI_API_KEY or GEMINI_API_KEY")
	}
	return llm.NewChain(func(index int, err error) {
		log.Warn().Err(err).Int("failed_index", index).Msg("llm: falling back to next provider")
	}, generators...), nil
}

func retryPolicy(cfg *infra.Config) llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxAttempts:       cfg.RetryMaxAttempts,
		InitialBackoff:    cfg.RetryInitialBackoff,
		MaxBackoff:        cfg.RetryMaxBackoff,
		BackoffMultiplier: cfg.RetryMultiplier,
		JitterFraction:    cfg.RetryJitter,
	}
}
