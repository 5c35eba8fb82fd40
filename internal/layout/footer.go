package layout

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FizzSlash/AIdesign/internal/domain"
)

// UnsubscribeTag is left for the delivery platform to substitute.
const UnsubscribeTag = "{{unsubscribe_link}}"

var titleCaser = cases.Title(language.English)

func buildFooter(variant domain.FooterVariant, brand *domain.BrandProfile, year int) Footer {
	base := strings.TrimRight(coalesce(brand.WebsiteURL, "#"), "/")
	page := func(path string) string {
		if base == "#" {
			return "#"
		}
		return base + path
	}
	f := Footer{
		Variant:     variant,
		Unsubscribe: UnsubscribeTag,
		Copyright:   fmt.Sprintf("© %d %s. All rights reserved.", year, coalesce(brand.Name, "Company")),
	}

	switch variant {
	case domain.FooterNavigation:
		f.Heading = "Shop by Category"
		for _, c := range []struct{ name, path string }{
			{"new arrivals", "/collections/new"},
			{"best sellers", "/collections/best-sellers"},
			{"sale", "/collections/sale"},
			{"collections", "/collections"},
		} {
			f.Links = append(f.Links, Link{Text: titleCaser.String(c.name), URL: page(c.path)})
		}
	case domain.FooterSocial:
		f.Links = []Link{
			{Text: "Join Our Community", URL: page("/pages/community")},
			{Text: "Refer A Friend", URL: page("/pages/refer")},
			{Text: "Exclusive Offers", URL: page("/pages/offers")},
		}
		f.Social = socialLinks(brand.SocialLinks)
		f.Engagement = "Tag us in your photos for a chance to be featured."
	default:
		// unknown ids fall back to minimal links but stay visible to validation
		if variant == "" {
			f.Variant = domain.FooterMinimal
		}
		f.Links = []Link{
			{Text: "Shop", URL: page("")},
			{Text: "About", URL: page("/pages/about")},
			{Text: "Contact", URL: page("/pages/contact")},
		}
	}
	return f
}

var socialNetworks = []string{"instagram", "facebook", "twitter"}

// socialLinks lists the well-known networks first, then any others by name.
func socialLinks(configured map[string]string) []Link {
	byName := make(map[string]string, len(configured))
	for k, v := range configured {
		if v = strings.TrimSpace(v); v != "" {
			byName[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	var out []Link
	for _, network := range socialNetworks {
		if url, ok := byName[network]; ok {
			out = append(out, Link{Text: titleCaser.String(network), URL: url})
			delete(byName, network)
		}
	}
	rest := make([]string, 0, len(byName))
	for k := range byName {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, Link{Text: titleCaser.String(k), URL: byName[k]})
	}
	return out
}
