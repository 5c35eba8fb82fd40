package layout

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog"

	"github.com/FizzSlash/AIdesign/internal/domain"
)

// DefaultSizeLimit is the size above which common mail clients clip a message.
const DefaultSizeLimit = 102000

//go:embed email.html.tmpl
var emailTemplate string

var funcs = template.FuncMap{
	"pairs": pairs,
	"upper": strings.ToUpper,
}

// the unsubscribe merge tag uses {{ }} so the template needs other delimiters
var compiled = template.Must(template.New("email").Delims("[[", "]]").Funcs(funcs).Parse(emailTemplate))

// Result is the compiled markup plus non-fatal findings.
type Result struct {
	HTML     string
	Size     int
	Warnings []string
}

type Renderer struct {
	sizeLimit int
	logger    zerolog.Logger
}

func NewRenderer(sizeLimit int, logger zerolog.Logger) *Renderer {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	return &Renderer{sizeLimit: sizeLimit, logger: logger.With().Str("component", "renderer").Logger()}
}

// Render validates doc, compiles it and checks the output. Only template
// execution failures are errors; everything else becomes a warning.
func (r *Renderer) Render(doc *Document, locale string) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("layout: nil document")
	}
	warnings := Validate(doc)

	var buf bytes.Buffer
	data := struct {
		Doc            *Document
		Lang           string
		UnsubscribeTag string
	}{Doc: doc, Lang: localeTag(locale).String(), UnsubscribeTag: UnsubscribeTag}
	if err := compiled.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("layout: render: %w", err)
	}
	html := buf.String()
	warnings = append(warnings, r.check(html)...)

	for _, w := range warnings {
		r.logger.Warn().Str("warning", w).Msg("renderer: markup warning")
	}
	return &Result{HTML: html, Size: len(html), Warnings: warnings}, nil
}

// Validate performs soft structural checks on a document.
func Validate(doc *Document) []string {
	var out []string
	if doc.Header == nil || (strings.TrimSpace(doc.Header.BrandName) == "" && doc.Header.LogoURL == "") {
		out = append(out, "layout is missing a header")
	}
	if strings.TrimSpace(doc.Hero.Headline) == "" {
		out = append(out, "hero headline is empty")
	}
	for i, row := range doc.Rows {
		if len(row.Cells) > ColumnsPerRow {
			out = append(out, fmt.Sprintf("product row %d has %d cells, expected at most %d", i+1, len(row.Cells), ColumnsPerRow))
		}
	}
	switch doc.Footer.Variant {
	case domain.FooterMinimal, domain.FooterNavigation, domain.FooterSocial:
	default:
		out = append(out, fmt.Sprintf("unknown footer variant %q, using minimal", doc.Footer.Variant))
	}
	return out
}

func (r *Renderer) check(html string) []string {
	var out []string
	head := strings.ToLower(html[:min(len(html), 256)])
	if !strings.HasPrefix(strings.TrimSpace(head), "<!doctype html") {
		out = append(out, "rendered markup has no DOCTYPE")
	}
	if !strings.Contains(strings.ToLower(html), `name="viewport"`) {
		out = append(out, "rendered markup has no viewport meta tag")
	}
	if len(html) > r.sizeLimit {
		out = append(out, fmt.Sprintf("rendered markup is %d bytes, exceeds clipping threshold of %d bytes", len(html), r.sizeLimit))
	}
	return out
}

func pairs(links []Link) [][]Link {
	var out [][]Link
	for i := 0; i < len(links); i += ColumnsPerRow {
		out = append(out, links[i:min(i+ColumnsPerRow, len(links))])
	}
	return out
}
