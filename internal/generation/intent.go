// Package generation turns briefs into structured campaign intent and copy
// using a generative-text provider. Every response is validated against a
// JSON schema before it leaves the package.
package generation

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/providers/llm"
)

const (
	StageIntent      = "intent"
	StageHero        = "hero"
	StageProductCopy = "product_copy"

	MaxBriefLength = 1000

	intentTemperature = 0.3
	intentMaxTokens   = 800
)

// IntentOptions carries caller overrides for the analysis.
type IntentOptions struct {
	CampaignType domain.CampaignType
	Tone         domain.Tone
	Locale       string
}

type IntentAnalyzer struct {
	caller
}

func NewIntentAnalyzer(gen llm.Generator, policy llm.RetryPolicy, logger zerolog.Logger) *IntentAnalyzer {
	return &IntentAnalyzer{caller: caller{gen: gen, policy: policy, logger: logger.With().Str("component", "intent").Logger()}}
}

// Analyze interprets brief in the context of brand. The returned intent always
// carries enum values from the closed sets in domain.
func (a *IntentAnalyzer) Analyze(ctx context.Context, brief string, brand *domain.BrandProfile, opts IntentOptions) (*domain.CampaignIntent, domain.UsageRecord, error) {
	brief = strings.TrimSpace(brief)
	if brief == "" || utf8.RuneCountInString(brief) > MaxBriefLength {
		verr := &domain.ValidationError{}
		verr.Add("brief", "must be between 1 and 1000 characters")
		return nil, domain.UsageRecord{}, verr
	}
	req := llm.Request{
		System:      jsonOnlySystemPrompt,
		Prompt:      buildIntentPrompt(brief, brand, opts),
		Temperature: intentTemperature,
		MaxTokens:   intentMaxTokens,
		Structured:  true,
	}
	var intent domain.CampaignIntent
	usage, err := a.call(ctx, StageIntent, req, func(text string) error {
		decoded, err := decodeStructured[domain.CampaignIntent](intentSchema, text)
		if err != nil {
			return err
		}
		decoded.SuggestedSubjectLines = compactStrings(decoded.SuggestedSubjectLines)
		if len(decoded.SuggestedSubjectLines) == 0 {
			return errBlankSubjectLines
		}
		intent = decoded
		return nil
	})
	if err != nil {
		return nil, usage, err
	}
	if opts.CampaignType.Valid() {
		intent.CampaignType = opts.CampaignType
	}
	if opts.Tone.Valid() {
		intent.Tone = opts.Tone
	}
	intent.KeyProducts = normalizeKeywords(intent.KeyProducts)
	return &intent, usage, nil
}

func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		lower := strings.ToLower(kw)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		result = append(result, kw)
	}
	return result
}

func compactStrings(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
