package catalog

import (
	"strings"

	"github.com/FizzSlash/AIdesign/internal/domain"
)

var styledHints = []string{"lifestyle", "styled"}

// PickImages applies the image-style policy to an ordered image list.
func PickImages(images []domain.Image, style domain.ImageStyle, perProduct int) []domain.Image {
	if len(images) == 0 {
		return []domain.Image{}
	}
	switch style {
	case domain.ImageStyleStyled, domain.ImageStyleLifestyle:
		for _, img := range images {
			if altContains(img, styledHints...) {
				return []domain.Image{img}
			}
		}
		return []domain.Image{images[0]}
	case domain.ImageStyleMulti:
		if perProduct <= 0 {
			perProduct = DefaultImagesPerProduct
		}
		if perProduct > len(images) {
			perProduct = len(images)
		}
		return append([]domain.Image(nil), images[:perProduct]...)
	default:
		return []domain.Image{images[0]}
	}
}

// HeroImage prefers a lifestyle shot of the first product, else its first image.
func HeroImage(products []domain.SelectedProduct) *domain.Image {
	if len(products) == 0 {
		return nil
	}
	first := products[0]
	for _, img := range first.AllImages {
		if altContains(img, "lifestyle") {
			hero := img
			return &hero
		}
	}
	if len(first.AllImages) > 0 {
		hero := first.AllImages[0]
		return &hero
	}
	if first.PrimaryImage != nil {
		hero := *first.PrimaryImage
		return &hero
	}
	return nil
}

func altContains(img domain.Image, hints ...string) bool {
	alt := strings.ToLower(img.AltText)
	for _, h := range hints {
		if strings.Contains(alt, h) {
			return true
		}
	}
	return false
}
