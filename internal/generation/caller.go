package generation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/providers/llm"
)

const jsonOnlySystemPrompt = "You are a JSON-only response bot. Always respond with valid JSON and nothing else."

// caller runs one provider call site under the retry policy. Unparsable
// answers are retried like transient provider failures.
type caller struct {
	gen    llm.Generator
	policy llm.RetryPolicy
	logger zerolog.Logger
}

// call returns the usage of every provider answer it received, including
// answers that were discarded and calls that ended in an error. Callers
// record it either way so spent tokens stay visible on failed jobs.
func (c caller) call(ctx context.Context, stage string, req llm.Request, parse func(text string) error) (domain.UsageRecord, error) {
	usage := domain.UsageRecord{Stage: stage}
	start := time.Now()
	err := c.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		resp, err := c.gen.Generate(ctx, req)
		if err != nil {
			c.logger.Warn().Err(err).Str("stage", stage).Int("attempt", attempt).Msg("generation: provider call failed")
			return err
		}
		usage.Tokens += resp.TokensUsed
		usage.Model = resp.Model
		if err := parse(resp.Text); err != nil {
			c.logger.Warn().Err(err).Str("stage", stage).Int("attempt", attempt).Msg("generation: unusable response")
			return err
		}
		return nil
	})
	if err != nil {
		return usage, domain.NewUpstreamError(stage, err)
	}
	c.logger.Debug().
		Str("stage", stage).
		Str("model", usage.Model).
		Int("tokens", usage.Tokens).
		Dur("elapsed", time.Since(start)).
		Msg("generation: call completed")
	return usage, nil
}
