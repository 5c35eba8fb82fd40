// Package catalog chooses the products and images that appear in a campaign.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/FizzSlash/AIdesign/internal/domain"
)

const (
	DefaultMaxProducts      = 6
	DefaultImagesPerProduct = 2
)

type Options struct {
	MaxProducts      int
	ImagesPerProduct int
}

// Selector implements the tiered product selection.
type Selector struct {
	catalog domain.CatalogProvider
	opts    Options
	logger  zerolog.Logger
}

func NewSelector(catalog domain.CatalogProvider, opts Options, logger zerolog.Logger) *Selector {
	if opts.MaxProducts <= 0 {
		opts.MaxProducts = DefaultMaxProducts
	}
	if opts.ImagesPerProduct <= 0 {
		opts.ImagesPerProduct = DefaultImagesPerProduct
	}
	return &Selector{catalog: catalog, opts: opts, logger: logger.With().Str("component", "selector").Logger()}
}

// MaxProducts returns the configured cap.
func (s *Selector) MaxProducts() int { return s.opts.MaxProducts }

// Select returns at most MaxProducts items for the campaign. Explicit ids
// bypass matching; otherwise keyword matches are topped up with any in-stock,
// image-bearing items. An empty result is valid.
func (s *Selector) Select(ctx context.Context, ownerID string, intent *domain.CampaignIntent, explicitIDs []string, style domain.ImageStyle) ([]domain.SelectedProduct, error) {
	var chosen []domain.Product
	var err error
	if len(explicitIDs) > 0 {
		chosen, err = s.explicit(ctx, ownerID, explicitIDs)
	} else {
		chosen, err = s.matched(ctx, ownerID, intent)
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.SelectedProduct, 0, len(chosen))
	for _, p := range chosen {
		out = append(out, s.toSelected(p, style))
	}
	s.logger.Debug().Str("owner_id", ownerID).Int("selected", len(out)).Msg("selector: products chosen")
	return out, nil
}

func (s *Selector) explicit(ctx context.Context, ownerID string, ids []string) ([]domain.Product, error) {
	found, err := s.catalog.Query(ctx, ownerID, domain.CatalogFilter{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("catalog: explicit products: %w", err)
	}
	byID := make(map[string]domain.Product, len(found))
	for _, p := range found {
		if p.Published {
			byID[p.ID] = p
		}
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			s.logger.Debug().Str("product_id", id).Msg("selector: explicit product unavailable")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, p)
		if len(out) == s.opts.MaxProducts {
			break
		}
	}
	return out, nil
}

func (s *Selector) matched(ctx context.Context, ownerID string, intent *domain.CampaignIntent) ([]domain.Product, error) {
	var out []domain.Product
	seen := make(map[string]struct{})
	var keywords []string
	if intent != nil {
		keywords = intent.KeyProducts
	}
	if len(keywords) > 0 {
		filter := domain.CatalogFilter{Keywords: keywords}
		found, err := s.catalog.Query(ctx, ownerID, filter)
		if err != nil {
			return nil, fmt.Errorf("catalog: keyword match: %w", err)
		}
		out = takeRanked(out, found, seen, s.opts.MaxProducts, filter.Matches)
	}
	if len(out) >= s.opts.MaxProducts {
		return out, nil
	}
	filter := domain.CatalogFilter{InStockOnly: true, RequireImages: true, ExcludeIDs: keys(seen)}
	fill, err := s.catalog.Query(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("catalog: fill: %w", err)
	}
	return takeRanked(out, fill, seen, s.opts.MaxProducts, filter.Matches), nil
}

// takeRanked appends eligible candidates to out in rank order until limit.
func takeRanked(out, candidates []domain.Product, seen map[string]struct{}, limit int, eligible func(domain.Product) bool) []domain.Product {
	ranked := make([]domain.Product, 0, len(candidates))
	for _, p := range candidates {
		if eligible(p) {
			ranked = append(ranked, p)
		}
	}
	Rank(ranked)
	for _, p := range ranked {
		if len(out) >= limit {
			break
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Rank orders products by inventory, then most recently updated, then id.
func Rank(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.Inventory != b.Inventory {
			return a.Inventory > b.Inventory
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Selector) toSelected(p domain.Product, style domain.ImageStyle) domain.SelectedProduct {
	images := append([]domain.Image(nil), p.Images...)
	sort.SliceStable(images, func(i, j int) bool { return images[i].Position < images[j].Position })
	picked := PickImages(images, style, s.opts.ImagesPerProduct)
	sp := domain.SelectedProduct{
		ID:             p.ID,
		Title:          strings.TrimSpace(p.Title),
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		AllImages:      images,
		SelectedImages: picked,
		Description:    p.Description,
		URL:            p.URL,
	}
	if sp.AllImages == nil {
		sp.AllImages = []domain.Image{}
	}
	if len(picked) > 0 {
		primary := picked[0]
		sp.PrimaryImage = &primary
	}
	return sp
}
