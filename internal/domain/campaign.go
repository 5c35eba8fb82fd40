package domain

import (
	"strings"
	"time"
)

// CampaignType classifies the marketing goal of a brief.
type CampaignType string

const (
	CampaignPromotional   CampaignType = "promotional"
	CampaignProductLaunch CampaignType = "product_launch"
	CampaignNewsletter    CampaignType = "newsletter"
	CampaignAbandonedCart CampaignType = "abandoned_cart"
	CampaignSeasonal      CampaignType = "seasonal"
)

var CampaignTypes = []CampaignType{
	CampaignPromotional, CampaignProductLaunch, CampaignNewsletter, CampaignAbandonedCart, CampaignSeasonal,
}

func (c CampaignType) Valid() bool {
	for _, v := range CampaignTypes {
		if c == v {
			return true
		}
	}
	return false
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh}

type Tone string

const (
	ToneLuxury       Tone = "luxury"
	ToneCasual       Tone = "casual"
	TonePlayful      Tone = "playful"
	ToneProfessional Tone = "professional"
	ToneUrgent       Tone = "urgent"
)

var Tones = []Tone{ToneLuxury, ToneCasual, TonePlayful, ToneProfessional, ToneUrgent}

func (t Tone) Valid() bool {
	for _, v := range Tones {
		if t == v {
			return true
		}
	}
	return false
}

// FooterVariant selects one of the fixed footer layouts.
type FooterVariant string

const (
	FooterMinimal    FooterVariant = "minimal"
	FooterNavigation FooterVariant = "navigation"
	FooterSocial     FooterVariant = "social"
)

var footerAliases = map[string]FooterVariant{
	"":                  FooterMinimal,
	"minimal":           FooterMinimal,
	"minimal-links":     FooterMinimal,
	"navigation":        FooterNavigation,
	"category-grid":     FooterNavigation,
	"social":            FooterSocial,
	"social-engagement": FooterSocial,
}

// ParseFooterVariant resolves a user-chosen layout identifier.
func ParseFooterVariant(raw string) (FooterVariant, bool) {
	v, ok := footerAliases[strings.ToLower(strings.TrimSpace(raw))]
	return v, ok
}

// ImageStyle picks which product images represent an item.
type ImageStyle string

const (
	ImageStyleFront     ImageStyle = "front"
	ImageStyleStyled    ImageStyle = "styled"
	ImageStyleLifestyle ImageStyle = "lifestyle"
	ImageStyleMulti     ImageStyle = "multi"
)

func (s ImageStyle) Valid() bool {
	switch s {
	case ImageStyleFront, ImageStyleStyled, ImageStyleLifestyle, ImageStyleMulti:
		return true
	}
	return false
}

// CopyLength bounds generated product descriptions.
type CopyLength string

const (
	CopyShort  CopyLength = "short"
	CopyMedium CopyLength = "medium"
	CopyLong   CopyLength = "long"
)

// WordRange returns the inclusive word bounds for the length style.
func (c CopyLength) WordRange() (int, int) {
	switch c {
	case CopyShort:
		return 8, 15
	case CopyLong:
		return 25, 40
	default:
		return 15, 25
	}
}

func (c CopyLength) Valid() bool {
	return c == CopyShort || c == CopyMedium || c == CopyLong
}

// CampaignIntent is the structured interpretation of a brief.
type CampaignIntent struct {
	CampaignType          CampaignType `json:"campaignType"`
	PrimaryAction         string       `json:"primaryAction"`
	TargetAudience        string       `json:"targetAudience"`
	Urgency               Urgency      `json:"urgency"`
	KeyProducts           []string     `json:"keyProducts"`
	Tone                  Tone         `json:"tone"`
	SuggestedSubjectLines []string     `json:"suggestedSubjectLines"`
	PreviewText           string       `json:"previewText"`
	EstimatedSections     []string     `json:"estimatedSections"`
}

// Image is one catalog image.
type Image struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	AltText  string `json:"altText,omitempty"`
	Position int    `json:"position"`
}

// Product is a catalog record as returned by the catalog provider.
type Product struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Tags           []string  `json:"tags"`
	Price          float64   `json:"price"`
	CompareAtPrice *float64  `json:"compareAtPrice,omitempty"`
	Inventory      int       `json:"inventory"`
	Published      bool      `json:"published"`
	URL            string    `json:"url,omitempty"`
	Images         []Image   `json:"images"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SelectedProduct is a catalog item chosen for one campaign.
type SelectedProduct struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Price          float64  `json:"price"`
	CompareAtPrice *float64 `json:"compareAtPrice,omitempty"`
	PrimaryImage   *Image   `json:"primaryImage"`
	AllImages      []Image  `json:"allImages"`
	SelectedImages []Image  `json:"selectedImages"`
	Description    string   `json:"description"`
	URL            string   `json:"url,omitempty"`
}

type HeroCopy struct {
	Headline                  string `json:"headline"`
	Subheadline               string `json:"subheadline"`
	CTAText                   string `json:"ctaText"`
	CTALink                   string `json:"ctaLink"`
	SuggestedImageDescription string `json:"suggestedImageDescription"`
}

type ProductCopy struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CTAText     string `json:"ctaText"`
}

// GeneratedCopy binds AI-authored content to the hero and selected products.
type GeneratedCopy struct {
	Hero     HeroCopy      `json:"hero"`
	Products []ProductCopy `json:"products"`
}

// BrandProfile is the visual and voice configuration of an owner.
type BrandProfile struct {
	OwnerID        string            `json:"ownerId"`
	Name           string            `json:"name"`
	Voice          string            `json:"voice"`
	Values         []string          `json:"values"`
	LogoURL        string            `json:"logoUrl,omitempty"`
	WebsiteURL     string            `json:"websiteUrl,omitempty"`
	PrimaryColor   string            `json:"primaryColor"`
	SecondaryColor string            `json:"secondaryColor"`
	AccentColor    string            `json:"accentColor"`
	HeadingFont    string            `json:"headingFont"`
	BodyFont       string            `json:"bodyFont"`
	SocialLinks    map[string]string `json:"socialLinks,omitempty"`
}

// CatalogFilter narrows a catalog query.
type CatalogFilter struct {
	IDs           []string
	Keywords      []string
	InStockOnly   bool
	RequireImages bool
	ExcludeIDs    []string
	Limit         int
}

// Matches reports whether p satisfies every constraint in the filter.
// Unpublished items never match. Keywords match case-insensitively against
// category, tags and description; any single keyword is enough.
func (f CatalogFilter) Matches(p Product) bool {
	if !p.Published {
		return false
	}
	if len(f.IDs) > 0 && !containsString(f.IDs, p.ID) {
		return false
	}
	if containsString(f.ExcludeIDs, p.ID) {
		return false
	}
	if f.InStockOnly && p.Inventory <= 0 {
		return false
	}
	if f.RequireImages && len(p.Images) == 0 {
		return false
	}
	if len(f.Keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(strings.Join(append([]string{p.Category, p.Description}, p.Tags...), " "))
	for _, kw := range f.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// ArtifactStatus tracks the downstream state of an artifact.
type ArtifactStatus string

const (
	ArtifactDraft          ArtifactStatus = "draft"
	ArtifactSentDownstream ArtifactStatus = "sent_downstream"
)

type ImageRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Artifact is the finished output of one successful job.
type Artifact struct {
	ID                string          `json:"id"`
	OwnerID           string          `json:"ownerId"`
	JobID             string          `json:"jobId"`
	CampaignType      CampaignType    `json:"campaignType"`
	SubjectLine       string          `json:"subjectLine"`
	PreviewText       string          `json:"previewText"`
	LayoutDescription []byte          `json:"layoutDescription"`
	RenderedMarkup    string          `json:"renderedMarkup"`
	ImagesUsed        []ImageRef      `json:"imagesUsed"`
	Intent            *CampaignIntent `json:"intent,omitempty"`
	Copy              *GeneratedCopy  `json:"copy,omitempty"`
	TokensUsed        int             `json:"tokensUsed"`
	CostEstimate      float64         `json:"costEstimate"`
	ModelUsed         string          `json:"modelUsed"`
	GenerationTimeMs  int64           `json:"generationTimeMs"`
	Warnings          []string        `json:"warnings"`
	StorageKey        string          `json:"storageKey,omitempty"`
	Status            ArtifactStatus  `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// ArtifactFilter narrows artifact listings.
type ArtifactFilter struct {
	Status       ArtifactStatus
	CampaignType CampaignType
	Limit        int
	Offset       int
}
