package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FizzSlash/AIdesign/internal/domain"
)

type memoryCatalog struct {
	products []domain.Product
	queries  []domain.CatalogFilter
	err      error
}

func (m *memoryCatalog) Query(_ context.Context, _ string, f domain.CatalogFilter) ([]domain.Product, error) {
	m.queries = append(m.queries, f)
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Product
	for _, p := range m.products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func product(id, title string, inventory int, images ...string) domain.Product {
	p := domain.Product{
		ID:    id,
		Title: title,
		// keyword matching ignores titles
		Description: "A lovely " + strings.ToLower(title),
		Price:       49.5,
		Inventory:   inventory,
		Published:   true,
		UpdatedAt:   baseTime,
	}
	for i, alt := range images {
		p.Images = append(p.Images, domain.Image{
			ID:       fmt.Sprintf("%s-img-%d", id, i),
			URL:      fmt.Sprintf("https://cdn.example.com/%s/%d.jpg", id, i),
			AltText:  alt,
			Position: i,
		})
	}
	return p
}

func newTestSelector(products ...domain.Product) (*Selector, *memoryCatalog) {
	cat := &memoryCatalog{products: products}
	return NewSelector(cat, Options{}, zerolog.Nop()), cat
}

func ids(selected []domain.SelectedProduct) []string {
	out := make([]string, len(selected))
	for i, s := range selected {
		out[i] = s.ID
	}
	return out
}

func TestSelectKeywordMatchesRankedFirst(t *testing.T) {
	sel, _ := newTestSelector(
		product("p1", "Floral Sundress", 5, "front"),
		product("p2", "Linen Midi Dress", 20, "front"),
		product("p3", "Canvas Tote", 50, "front"),
		product("p4", "Wool Scarf", 0, "front"),
	)
	intent := &domain.CampaignIntent{KeyProducts: []string{"dress"}}

	got, err := sel.Select(context.Background(), "owner-1", intent, nil, domain.ImageStyleFront)
	require.NoError(t, err)
	// matches by inventory desc, then in-stock fill; p4 is out of stock
	assert.Equal(t, []string{"p2", "p1", "p3"}, ids(got))
}

func TestSelectKeywordTierIgnoresStock(t *testing.T) {
	sel, _ := newTestSelector(
		product("p1", "Summer Dress", 0),
		product("p2", "Beach Hat", 3, "front"),
	)
	got, err := sel.Select(context.Background(), "owner-1", &domain.CampaignIntent{KeyProducts: []string{"dress"}}, nil, domain.ImageStyleFront)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids(got))
	assert.Nil(t, got[0].PrimaryImage)
	assert.Empty(t, got[0].SelectedImages)
}

func TestSelectExplicitIDsKeepOrderWithoutFill(t *testing.T) {
	hidden := product("p3", "Hidden Draft", 9, "front")
	hidden.Published = false
	sel, cat := newTestSelector(
		product("p1", "One", 1, "front"),
		product("p2", "Two", 2, "front"),
		hidden,
		product("p4", "Four", 4, "front"),
	)

	got, err := sel.Select(context.Background(), "owner-1", nil, []string{"p2", "missing", "p3", "p1", "p2"}, domain.ImageStyleFront)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, ids(got))
	require.Len(t, cat.queries, 1)
}

func TestSelectEmptyCatalogIsNotAnError(t *testing.T) {
	sel, _ := newTestSelector()
	got, err := sel.Select(context.Background(), "owner-1", &domain.CampaignIntent{}, nil, domain.ImageStyleFront)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelectPropagatesCatalogErrors(t *testing.T) {
	sel, cat := newTestSelector()
	cat.err = errors.New("db down")
	_, err := sel.Select(context.Background(), "owner-1", &domain.CampaignIntent{KeyProducts: []string{"x"}}, nil, domain.ImageStyleFront)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestSelectFillExcludesMatchedIDs(t *testing.T) {
	sel, cat := newTestSelector(
		product("p1", "Red Dress", 3, "front"),
		product("p2", "Blue Shirt", 1, "front"),
	)
	_, err := sel.Select(context.Background(), "owner-1", &domain.CampaignIntent{KeyProducts: []string{"dress"}}, nil, domain.ImageStyleFront)
	require.NoError(t, err)
	require.Len(t, cat.queries, 2)
	assert.Equal(t, []string{"p1"}, cat.queries[1].ExcludeIDs)
	assert.True(t, cat.queries[1].InStockOnly)
	assert.True(t, cat.queries[1].RequireImages)
}

func TestRankTieBreaksOnRecency(t *testing.T) {
	older := product("a", "A", 5)
	newer := product("b", "B", 5)
	newer.UpdatedAt = baseTime.Add(time.Hour)
	list := []domain.Product{older, newer}
	Rank(list)
	assert.Equal(t, "b", list[0].ID)
}

func TestPickImages(t *testing.T) {
	images := product("p", "P", 1, "front view", "Lifestyle shot on the beach", "back view").Images

	tests := []struct {
		name  string
		style domain.ImageStyle
		want  []string
	}{
		{"front", domain.ImageStyleFront, []string{"p-img-0"}},
		{"lifestyle", domain.ImageStyleLifestyle, []string{"p-img-1"}},
		{"styled", domain.ImageStyleStyled, []string{"p-img-1"}},
		{"multi", domain.ImageStyleMulti, []string{"p-img-0", "p-img-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickImages(images, tt.style, 2)
			var gotIDs []string
			for _, img := range got {
				gotIDs = append(gotIDs, img.ID)
			}
			assert.Equal(t, tt.want, gotIDs)
		})
	}

	plain := product("q", "Q", 1, "front", "back").Images
	assert.Equal(t, "q-img-0", PickImages(plain, domain.ImageStyleLifestyle, 2)[0].ID)
	assert.Empty(t, PickImages(nil, domain.ImageStyleMulti, 2))
}

func TestHeroImagePrefersLifestyle(t *testing.T) {
	sel, _ := newTestSelector(product("p1", "Dress", 3, "front", "lifestyle model"))
	got, err := sel.Select(context.Background(), "o", &domain.CampaignIntent{}, nil, domain.ImageStyleFront)
	require.NoError(t, err)

	hero := HeroImage(got)
	require.NotNil(t, hero)
	assert.Equal(t, "p1-img-1", hero.ID)
	assert.Nil(t, HeroImage(nil))
}

func TestSelectNeverExceedsCap(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("selection is capped and duplicate free", prop.ForAll(
		func(inventories []int, max int) bool {
			var products []domain.Product
			for i, inv := range inventories {
				products = append(products, product(fmt.Sprintf("p%d", i), fmt.Sprintf("Dress %d", i), inv, "front"))
			}
			sel := NewSelector(&memoryCatalog{products: products}, Options{MaxProducts: max}, zerolog.Nop())
			got, err := sel.Select(context.Background(), "o", &domain.CampaignIntent{KeyProducts: []string{"dress"}}, nil, domain.ImageStyleMulti)
			if err != nil || len(got) > max {
				return false
			}
			seen := map[string]bool{}
			for _, g := range got {
				if seen[g.ID] {
					return false
				}
				seen[g.ID] = true
			}
			return len(got) == min(max, len(products))
		},
		gen.SliceOf(gen.IntRange(0, 30)),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
