package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/providers/llm"
)

const (
	copyTemperature      = 0.7
	heroMaxTokens        = 500
	productCopyMaxTokens = 1500
	defaultCTA           = "Shop Now"
)

// CopyOptions tunes generated copy.
type CopyOptions struct {
	Length domain.CopyLength
	Locale string
	// StoreURL is used when the model leaves the hero link empty.
	StoreURL string
}

// Copywriter generates hero and per-product copy.
type Copywriter struct {
	caller
}

func NewCopywriter(gen llm.Generator, policy llm.RetryPolicy, logger zerolog.Logger) *Copywriter {
	return &Copywriter{caller: caller{gen: gen, policy: policy, logger: logger.With().Str("component", "copywriter").Logger()}}
}

// Generate runs hero and product copy concurrently. onUsage is invoked once
// per sub-call that completes, even when the sibling fails.
func (c *Copywriter) Generate(ctx context.Context, intent *domain.CampaignIntent, brand *domain.BrandProfile, products []domain.SelectedProduct, opts CopyOptions, onUsage func(domain.UsageRecord)) (*domain.GeneratedCopy, error) {
	out := &domain.GeneratedCopy{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hero, usage, err := c.Hero(gctx, intent, brand, opts)
		if err != nil {
			return err
		}
		report(onUsage, usage)
		out.Hero = *hero
		return nil
	})
	g.Go(func() error {
		items, usage, err := c.ProductCopy(gctx, intent, brand, products, opts)
		if err != nil {
			return err
		}
		report(onUsage, usage)
		out.Products = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func report(onUsage func(domain.UsageRecord), usage domain.UsageRecord) {
	if onUsage != nil && usage.Tokens > 0 {
		onUsage(usage)
	}
}

// Hero writes the headline block of the campaign.
func (c *Copywriter) Hero(ctx context.Context, intent *domain.CampaignIntent, brand *domain.BrandProfile, opts CopyOptions) (*domain.HeroCopy, domain.UsageRecord, error) {
	req := llm.Request{
		System:      jsonOnlySystemPrompt,
		Prompt:      buildHeroPrompt(intent, brand, opts),
		Temperature: copyTemperature,
		MaxTokens:   heroMaxTokens,
		Structured:  true,
	}
	var hero domain.HeroCopy
	usage, err := c.call(ctx, StageHero, req, func(text string) error {
		decoded, err := decodeStructured[domain.HeroCopy](heroSchema, text)
		if err != nil {
			return err
		}
		decoded.Headline = strings.TrimSpace(decoded.Headline)
		decoded.CTAText = strings.TrimSpace(decoded.CTAText)
		if decoded.Headline == "" || decoded.CTAText == "" {
			return errBlankHero
		}
		hero = decoded
		return nil
	})
	if err != nil {
		return nil, usage, err
	}
	if !isLink(hero.CTALink) {
		hero.CTALink = opts.StoreURL
	}
	return &hero, usage, nil
}

// ProductCopy writes one entry per product, preserving title and order. No
// provider call is made for an empty product list.
func (c *Copywriter) ProductCopy(ctx context.Context, intent *domain.CampaignIntent, brand *domain.BrandProfile, products []domain.SelectedProduct, opts CopyOptions) ([]domain.ProductCopy, domain.UsageRecord, error) {
	if len(products) == 0 {
		return []domain.ProductCopy{}, domain.UsageRecord{Stage: StageProductCopy}, nil
	}
	req := llm.Request{
		System:      jsonOnlySystemPrompt,
		Prompt:      buildProductCopyPrompt(intent, brand, products, opts),
		Temperature: copyTemperature,
		MaxTokens:   productCopyMaxTokens,
		Structured:  true,
	}
	_, maxWords := opts.Length.WordRange()
	var bound []domain.ProductCopy
	usage, err := c.call(ctx, StageProductCopy, req, func(text string) error {
		decoded, err := decodeStructured[productCopyPayload](productCopySchema, text)
		if err != nil {
			return err
		}
		items, err := bindProductCopy(products, decoded.Products, maxWords)
		if err != nil {
			return err
		}
		bound = items
		return nil
	})
	if err != nil {
		return nil, usage, err
	}
	return bound, usage, nil
}

type productCopyPayload struct {
	Products []domain.ProductCopy `json:"products"`
}

// bindProductCopy pairs generated entries with products, first by exact
// name and then by position among the unclaimed entries. The catalog title
// always wins.
func bindProductCopy(products []domain.SelectedProduct, generated []domain.ProductCopy, maxWords int) ([]domain.ProductCopy, error) {
	byName := make(map[string]int, len(generated))
	for i, g := range generated {
		key := strings.ToLower(strings.TrimSpace(g.Name))
		if _, dup := byName[key]; !dup {
			byName[key] = i
		}
	}
	claimed := make([]int, len(products))
	used := make(map[int]bool, len(generated))
	for i, p := range products {
		claimed[i] = -1
		if idx, ok := byName[strings.ToLower(strings.TrimSpace(p.Title))]; ok && !used[idx] {
			claimed[i] = idx
			used[idx] = true
		}
	}
	for i := range products {
		if claimed[i] >= 0 {
			continue
		}
		idx := nextUnclaimed(i, len(generated), used)
		if idx < 0 {
			return nil, fmt.Errorf("missing copy for product %q", products[i].Title)
		}
		claimed[i] = idx
		used[idx] = true
	}
	out := make([]domain.ProductCopy, len(products))
	for i, p := range products {
		entry := generated[claimed[i]]
		out[i] = domain.ProductCopy{
			Name:        p.Title,
			Description: truncateWords(strings.TrimSpace(entry.Description), maxWords),
			CTAText:     coalesce(entry.CTAText, defaultCTA),
		}
	}
	return out, nil
}

// nextUnclaimed prefers the entry at the same position, then the first free one.
func nextUnclaimed(pos, n int, used map[int]bool) int {
	if pos < n && !used[pos] {
		return pos
	}
	for i := 0; i < n; i++ {
		if !used[i] {
			return i
		}
	}
	return -1
}

func truncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if maxWords <= 0 || len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.TrimRight(strings.Join(words[:maxWords], " "), ",;:") + "..."
}

func isLink(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
