package layout

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/FizzSlash/AIdesign/internal/catalog"
	"github.com/FizzSlash/AIdesign/internal/domain"
)

const (
	defaultPrimary    = "#000000"
	defaultSecondary  = "#666666"
	defaultAccent     = "#CC0000"
	defaultBackground = "#F7F7F7"
	defaultFont       = "Helvetica, Arial, sans-serif"
	defaultCTA        = "Shop Now"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

// Input is everything the assembler needs for one campaign.
type Input struct {
	Brand    *domain.BrandProfile
	Intent   *domain.CampaignIntent
	Copy     *domain.GeneratedCopy
	Products []domain.SelectedProduct
	Footer   domain.FooterVariant
	Locale   string
}

type Assembler struct {
	now func() time.Time
}

func NewAssembler(now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{now: now}
}

// Assemble builds the layout document. Copy and products must line up one to
// one, by position and by name.
func (a *Assembler) Assemble(in Input) (*Document, error) {
	if in.Intent == nil || in.Copy == nil {
		return nil, fmt.Errorf("layout: intent and copy are required")
	}
	if len(in.Copy.Products) != len(in.Products) {
		return nil, fmt.Errorf("layout: %d product copy entries for %d products", len(in.Copy.Products), len(in.Products))
	}
	for i, p := range in.Products {
		if in.Copy.Products[i].Name != p.Title {
			return nil, fmt.Errorf("layout: copy entry %d is for %q, expected %q", i, in.Copy.Products[i].Name, p.Title)
		}
	}

	brand := in.Brand
	if brand == nil {
		brand = &domain.BrandProfile{}
	}
	subject := ""
	if len(in.Intent.SuggestedSubjectLines) > 0 {
		subject = in.Intent.SuggestedSubjectLines[0]
	}

	doc := &Document{
		Head: Head{
			Title:          subject,
			PreviewText:    in.Intent.PreviewText,
			PrimaryColor:   color(brand.PrimaryColor, defaultPrimary),
			SecondaryColor: color(brand.SecondaryColor, defaultSecondary),
			AccentColor:    color(brand.AccentColor, defaultAccent),
			Background:     defaultBackground,
			HeadingFont:    font(brand.HeadingFont),
			BodyFont:       font(brand.BodyFont),
		},
		Header: &Header{
			BrandName:  coalesce(brand.Name, "Your Brand"),
			LogoURL:    strings.TrimSpace(brand.LogoURL),
			WebsiteURL: strings.TrimSpace(brand.WebsiteURL),
		},
		Hero: Hero{
			Image:       catalog.HeroImage(in.Products),
			Headline:    in.Copy.Hero.Headline,
			Subheadline: in.Copy.Hero.Subheadline,
			CTAText:     coalesce(in.Copy.Hero.CTAText, defaultCTA),
			CTALink:     coalesce(in.Copy.Hero.CTALink, brand.WebsiteURL, "#"),
		},
		Rows:   []Row{},
		Footer: buildFooter(in.Footer, brand, a.now().Year()),
	}
	if len(in.Products) > 0 {
		doc.ProductsHeading = productsHeading(in.Intent.CampaignType)
	}

	printer := message.NewPrinter(localeTag(in.Locale))
	for start := 0; start < len(in.Products); start += ColumnsPerRow {
		row := Row{Cells: make([]Cell, 0, ColumnsPerRow)}
		for i := start; i < start+ColumnsPerRow; i++ {
			if i >= len(in.Products) {
				row.Cells = append(row.Cells, Cell{Empty: true})
				continue
			}
			row.Cells = append(row.Cells, productCell(printer, in.Products[i], in.Copy.Products[i], brand.WebsiteURL))
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}

func productsHeading(t domain.CampaignType) string {
	if t == domain.CampaignPromotional {
		return "Featured Products"
	}
	return "Shop The Collection"
}

func productCell(p *message.Printer, product domain.SelectedProduct, pc domain.ProductCopy, storeURL string) Cell {
	cell := Cell{
		ProductID:   product.ID,
		Name:        product.Title,
		Description: pc.Description,
		Price:       formatPrice(p, product.Price),
		Image:       product.PrimaryImage,
		CTAText:     coalesce(pc.CTAText, defaultCTA),
		URL:         coalesce(product.URL, storeURL, "#"),
	}
	if product.CompareAtPrice != nil && *product.CompareAtPrice > product.Price {
		cell.CompareAtPrice = formatPrice(p, *product.CompareAtPrice)
	}
	return cell
}

func formatPrice(p *message.Printer, v float64) string {
	return p.Sprintf("$%.2f", v)
}

func localeTag(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	return tag
}

func color(v, fallback string) string {
	v = strings.TrimSpace(v)
	if hexColor.MatchString(v) {
		return v
	}
	return fallback
}

var fontChars = regexp.MustCompile(`^[A-Za-z0-9 ,\-]+$`)

func font(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || !fontChars.MatchString(v) {
		return defaultFont
	}
	if !strings.Contains(v, ",") {
		v += ", " + defaultFont
	}
	return v
}

func coalesce(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
