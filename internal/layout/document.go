// Package layout turns generated copy and selected products into a typed
// layout document and compiles that document into email markup.
package layout

import (
	"encoding/json"

	"github.com/FizzSlash/AIdesign/internal/domain"
)

// ColumnsPerRow is the fixed width of the product grid.
const ColumnsPerRow = 2

// Document is the intermediate description persisted as layoutDescription.
type Document struct {
	Head            Head    `json:"head"`
	Header          *Header `json:"header,omitempty"`
	Hero            Hero    `json:"hero"`
	ProductsHeading string  `json:"productsHeading,omitempty"`
	Rows            []Row   `json:"rows"`
	Footer          Footer  `json:"footer"`
}

type Head struct {
	Title          string `json:"title"`
	PreviewText    string `json:"previewText"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
	Background     string `json:"background"`
	HeadingFont    string `json:"headingFont"`
	BodyFont       string `json:"bodyFont"`
}

type Header struct {
	BrandName  string `json:"brandName"`
	LogoURL    string `json:"logoUrl,omitempty"`
	WebsiteURL string `json:"websiteUrl,omitempty"`
}

type Hero struct {
	Image       *domain.Image `json:"image,omitempty"`
	Headline    string        `json:"headline"`
	Subheadline string        `json:"subheadline"`
	CTAText     string        `json:"ctaText"`
	CTALink     string        `json:"ctaLink"`
}

// Row holds up to ColumnsPerRow cells. An odd final row carries an empty cell.
type Row struct {
	Cells []Cell `json:"cells"`
}

type Cell struct {
	Empty          bool          `json:"empty,omitempty"`
	ProductID      string        `json:"productId,omitempty"`
	Name           string        `json:"name,omitempty"`
	Description    string        `json:"description,omitempty"`
	Price          string        `json:"price,omitempty"`
	CompareAtPrice string        `json:"compareAtPrice,omitempty"`
	Image          *domain.Image `json:"image,omitempty"`
	CTAText        string        `json:"ctaText,omitempty"`
	URL            string        `json:"url,omitempty"`
}

type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type Footer struct {
	Variant     domain.FooterVariant `json:"variant"`
	Heading     string               `json:"heading,omitempty"`
	Links       []Link               `json:"links"`
	Social      []Link               `json:"social,omitempty"`
	Engagement  string               `json:"engagement,omitempty"`
	Unsubscribe string               `json:"unsubscribe"`
	Copyright   string               `json:"copyright"`
}

// JSON encodes the document for storage.
func (d *Document) JSON() ([]byte, error) {
	return json.Marshal(d)
}

// ImagesUsed lists every image the document references, deduplicated.
func (d *Document) ImagesUsed() []domain.ImageRef {
	seen := map[string]struct{}{}
	out := []domain.ImageRef{}
	add := func(img *domain.Image) {
		if img == nil || img.URL == "" {
			return
		}
		key := img.ID + "|" + img.URL
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, domain.ImageRef{ID: img.ID, URL: img.URL})
	}
	add(d.Hero.Image)
	for _, row := range d.Rows {
		for i := range row.Cells {
			add(row.Cells[i].Image)
		}
	}
	return out
}
