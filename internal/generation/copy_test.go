package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/providers/llm"
)

const validHero = `{"headline":"Sun's out, dresses on","subheadline":"Take 30% off every summer dress this weekend only","ctaText":"Shop the Sale","ctaLink":"placeholder_url","suggestedImageDescription":"Model in a flowing dress on a beach"}`

func testIntent() *domain.CampaignIntent {
	return &domain.CampaignIntent{
		CampaignType:          domain.CampaignPromotional,
		Urgency:               domain.UrgencyHigh,
		Tone:                  domain.TonePlayful,
		KeyProducts:           []string{"dress"},
		SuggestedSubjectLines: []string{"Sale"},
	}
}

func products(titles ...string) []domain.SelectedProduct {
	out := make([]domain.SelectedProduct, len(titles))
	for i, title := range titles {
		out[i] = domain.SelectedProduct{ID: fmt.Sprintf("p%d", i+1), Title: title, Price: 49.5}
	}
	return out
}

func TestHeroFallsBackToStoreURL(t *testing.T) {
	gen := newScripted().on(heroMarker, validHero)
	writer := NewCopywriter(gen, testPolicy(1), zerolog.Nop())

	hero, usage, err := writer.Hero(context.Background(), testIntent(), testBrand(), CopyOptions{StoreURL: "https://shop.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Shop the Sale", hero.CTAText)
	assert.Equal(t, "https://shop.example.com", hero.CTALink)
	assert.Equal(t, StageHero, usage.Stage)
}

func TestHeroRejectsBlankHeadlineOrCTA(t *testing.T) {
	for name, answer := range map[string]string{
		"blank headline": strings.Replace(validHero, `"Sun's out, dresses on"`, `"   "`, 1),
		"blank cta":      strings.Replace(validHero, `"Shop the Sale"`, `" \t "`, 1),
	} {
		t.Run(name, func(t *testing.T) {
			gen := newScripted().on(heroMarker, answer)
			writer := NewCopywriter(gen, testPolicy(1), zerolog.Nop())

			hero, _, err := writer.Hero(context.Background(), testIntent(), testBrand(), CopyOptions{})
			assert.ErrorIs(t, err, domain.ErrUpstreamGeneration)
			assert.Nil(t, hero)
		})
	}
}

func TestHeroTrimsAcceptedText(t *testing.T) {
	padded := strings.Replace(validHero, `"Shop the Sale"`, `"  Shop the Sale  "`, 1)
	gen := newScripted().on(heroMarker, padded)
	writer := NewCopywriter(gen, testPolicy(1), zerolog.Nop())

	hero, _, err := writer.Hero(context.Background(), testIntent(), testBrand(), CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Shop the Sale", hero.CTAText)
}

func TestProductCopyEmptyListSkipsProvider(t *testing.T) {
	gen := newScripted()
	writer := NewCopywriter(gen, testPolicy(1), zerolog.Nop())

	items, usage, err := writer.ProductCopy(context.Background(), testIntent(), testBrand(), nil, CopyOptions{})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Zero(t, usage.Tokens)
	assert.Zero(t, gen.count(productMarker))
}

func TestProductCopyPreservesTitlesAndOrder(t *testing.T) {
	answer := `{"products":[
		{"name":"linen midi dress","description":"Breezy linen that keeps you cool from brunch to sunset.","ctaText":"Grab It"},
		{"name":"Totally Renamed Wrap Dress","description":"A flattering wrap silhouette with a playful print.","ctaText":""},
		{"name":"Floral Sundress","description":"Bright florals made for long summer days.","ctaText":"Shop Now"}
	]}`
	gen := newScripted().on(productMarker, answer)
	writer := NewCopywriter(gen, testPolicy(1), zerolog.Nop())

	selected := products("Floral Sundress", "Linen Midi Dress", "Wrap Dress")
	items, _, err := writer.ProductCopy(context.Background(), testIntent(), testBrand(), selected, CopyOptions{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Floral Sundress", items[0].Name)
	assert.Equal(t, "Bright florals made for long summer days.", items[0].Description)
	assert.Equal(t, "Linen Midi Dress", items[1].Name)
	assert.Equal(t, "Grab It", items[1].CTAText)
	assert.Equal(t, "Wrap Dress", items[2].Name)
	assert.Equal(t, "A flattering wrap silhouette with a playful print.", items[2].Description)
	assert.Equal(t, defaultCTA, items[2].CTAText)
}

func TestProductCopyMissingEntryFails(t *testing.T) {
	answer := `{"products":[{"name":"Only One","description":"Just one description here."}]}`
	gen := newScripted().on(productMarker, answer)
	writer := NewCopywriter(gen, testPolicy(2), zerolog.Nop())

	_, _, err := writer.ProductCopy(context.Background(), testIntent(), testBrand(), products("A", "B"), CopyOptions{})
	assert.ErrorIs(t, err, domain.ErrUpstreamGeneration)
	assert.Equal(t, 2, gen.count(productMarker))
}

func TestProductCopyTruncatesToStyle(t *testing.T) {
	long := strings.Repeat("word ", 60)
	answer := fmt.Sprintf(`{"products":[{"name":"A","description":%q}]}`, long)
	gen := newScripted().on(productMarker, answer)
	writer := NewCopywriter(gen, testPolicy(1), zerolog.Nop())

	items, _, err := writer.ProductCopy(context.Background(), testIntent(), testBrand(), products("A"), CopyOptions{Length: domain.CopyShort})
	require.NoError(t, err)
	_, maxWords := domain.CopyShort.WordRange()
	assert.Len(t, strings.Fields(items[0].Description), maxWords)
	assert.True(t, strings.HasSuffix(items[0].Description, "..."))
}

func TestGenerateRunsBothAndReportsUsage(t *testing.T) {
	answer := `{"products":[{"name":"A","description":"Nice."},{"name":"B","description":"Also nice."}]}`
	gen := newScripted().on(heroMarker, validHero).on(productMarker, answer)
	writer := NewCopywriter(gen, testPolicy(1), zerolog.Nop())

	var mu sync.Mutex
	var stages []string
	out, err := writer.Generate(context.Background(), testIntent(), testBrand(), products("A", "B"), CopyOptions{}, func(u domain.UsageRecord) {
		mu.Lock()
		defer mu.Unlock()
		stages = append(stages, u.Stage)
	})
	require.NoError(t, err)
	assert.Equal(t, "Sun's out, dresses on", out.Hero.Headline)
	assert.Len(t, out.Products, 2)
	assert.ElementsMatch(t, []string{StageHero, StageProductCopy}, stages)
}

func TestGenerateFailsWhenOneSideFails(t *testing.T) {
	gen := newScripted().
		on(heroMarker, validHero).
		fail(productMarker, &llm.ProviderError{Provider: "openai", StatusCode: 400, Err: errors.New("rejected")})
	writer := NewCopywriter(gen, testPolicy(1), zerolog.Nop())

	var recorded []domain.UsageRecord
	var mu sync.Mutex
	_, err := writer.Generate(context.Background(), testIntent(), testBrand(), products("A"), CopyOptions{}, func(u domain.UsageRecord) {
		mu.Lock()
		defer mu.Unlock()
		recorded = append(recorded, u)
	})
	require.Error(t, err)
	var up *domain.UpstreamGenerationError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, StageProductCopy, up.Stage)
	for _, u := range recorded {
		assert.Equal(t, StageHero, u.Stage)
	}
}

func TestBindProductCopyKeepsTitleOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("bound copy mirrors product titles and order", prop.ForAll(
		func(titles []string, reverse bool) bool {
			selected := products(titles...)
			generated := make([]domain.ProductCopy, len(titles))
			for i, title := range titles {
				generated[i] = domain.ProductCopy{Name: strings.ToUpper(title), Description: "desc " + title}
			}
			if reverse {
				for i, j := 0, len(generated)-1; i < j; i, j = i+1, j-1 {
					generated[i], generated[j] = generated[j], generated[i]
				}
			}
			bound, err := bindProductCopy(selected, generated, 25)
			if err != nil || len(bound) != len(selected) {
				return false
			}
			for i := range bound {
				if bound[i].Name != selected[i].Title {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(6, gen.AlphaString()),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
