package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/FizzSlash/AIdesign/internal/domain"
)

// languageName renders a locale tag as an English language name for prompts.
// Unknown or empty tags fall back to English.
func languageName(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		return "English"
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return "English"
}

func brandName(b *domain.BrandProfile) string {
	if b == nil || strings.TrimSpace(b.Name) == "" {
		return "Unknown"
	}
	return b.Name
}

func brandVoice(b *domain.BrandProfile) string {
	if b == nil || strings.TrimSpace(b.Voice) == "" {
		return "professional"
	}
	return b.Voice
}

func enumList[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, "|")
}

func buildIntentPrompt(brief string, brand *domain.BrandProfile, opts IntentOptions) string {
	sb := &strings.Builder{}
	sb.WriteString("You are an email marketing strategist. Analyze this campaign brief and extract key information.\n\n")
	fmt.Fprintf(sb, "Brand Context:\n- Brand Name: %s\n- Brand Voice: %s\n", brandName(brand), brandVoice(brand))
	if brand != nil && len(brand.Values) > 0 {
		fmt.Fprintf(sb, "- Brand Values: %s\n", strings.Join(brand.Values, ", "))
	}
	fmt.Fprintf(sb, "\nCampaign Brief:\n%q\n\n", brief)
	if opts.CampaignType != "" {
		fmt.Fprintf(sb, "The campaign type is fixed by the requester: %s.\n", opts.CampaignType)
	}
	if opts.Tone != "" {
		fmt.Fprintf(sb, "The tone is fixed by the requester: %s.\n", opts.Tone)
	}
	fmt.Fprintf(sb, "Write subject lines and preview text in %s.\n\n", languageName(opts.Locale))
	sb.WriteString("Return ONLY a JSON object with these exact fields:\n")
	fmt.Fprintf(sb, `{
  "campaignType": "(%s)",
  "primaryAction": "(drive_sales|build_awareness|educate|nurture)",
  "targetAudience": "(new_customers|existing_customers|vip|lapsed)",
  "urgency": "(%s)",
  "keyProducts": ["product categories or names mentioned or implied by the brief"],
  "tone": "(%s)",
  "suggestedSubjectLines": ["3 subject line options"],
  "previewText": "suggested preview text",
  "estimatedSections": ["hero", "product_grid", "cta", "footer"]
}`, enumList(domain.CampaignTypes), enumList(domain.Urgencies), enumList(domain.Tones))
	return sb.String()
}

func buildHeroPrompt(intent *domain.CampaignIntent, brand *domain.BrandProfile, opts CopyOptions) string {
	sb := &strings.Builder{}
	sb.WriteString("Generate the hero section for an email campaign.\n\n")
	fmt.Fprintf(sb, "Brand Profile:\n- Name: %s\n- Voice: %s\n- Tone for this campaign: %s\n\n", brandName(brand), brandVoice(brand), intent.Tone)
	fmt.Fprintf(sb, "Campaign Intent:\n- Type: %s\n- Primary Action: %s\n- Target Audience: %s\n- Urgency: %s\n\n",
		intent.CampaignType, intent.PrimaryAction, intent.TargetAudience, intent.Urgency)
	fmt.Fprintf(sb, "Write in %s.\n", languageName(opts.Locale))
	sb.WriteString(`Generate:
1. Main headline (40-60 characters, attention-grabbing)
2. Subheadline (60-90 characters, provide context)
3. Primary CTA text (2-4 words, action-oriented)
4. CTA link (use the store URL if known, otherwise an empty string)
5. Suggested image description

Return ONLY valid JSON with these exact fields:
{"headline": "string", "subheadline": "string", "ctaText": "string", "ctaLink": "string", "suggestedImageDescription": "string"}`)
	return sb.String()
}

type promptProduct struct {
	Name        string `json:"name"`
	Description string `json:"currentDescription"`
}

func buildProductCopyPrompt(intent *domain.CampaignIntent, brand *domain.BrandProfile, products []domain.SelectedProduct, opts CopyOptions) string {
	minWords, maxWords := opts.Length.WordRange()
	items := make([]promptProduct, len(products))
	for i, p := range products {
		items[i] = promptProduct{Name: p.Title, Description: coalesce(p.Description, "No description")}
	}
	listing, _ := json.MarshalIndent(items, "", "  ")

	sb := &strings.Builder{}
	sb.WriteString("You are an expert email copywriter. Enhance these product descriptions for an email campaign.\n\n")
	fmt.Fprintf(sb, "Brand Voice: %s\nCampaign Type: %s\nTone: %s\n\n", brandVoice(brand), intent.CampaignType, intent.Tone)
	fmt.Fprintf(sb, "Products, in order:\n%s\n\n", listing)
	fmt.Fprintf(sb, `For each product above, in the same order, write:
- A compelling %d-%d word description that highlights benefits
- An action-oriented CTA (2-4 words)
- Keep the EXACT product name
- Never mention a price
Write in %s.

Return ONLY valid JSON:
{"products": [{"name": "EXACT product name from above", "description": "Benefit-focused description", "ctaText": "Shop Now"}]}`,
		minWords, maxWords, languageName(opts.Locale))
	return sb.String()
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
