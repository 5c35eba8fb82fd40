package jobs

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/FizzSlash/AIdesign/internal/domain"
)

const (
	MinBriefLength    = 10
	MaxBriefLength    = 1000
	MaxTargetProducts = 20
)

// Normalize validates a creation request and returns its canonical form.
// Every failing field is reported at once.
func Normalize(req domain.CreateRequest) (domain.CreateRequest, error) {
	verr := &domain.ValidationError{}
	out := req

	out.Brief = strings.TrimSpace(req.Brief)
	switch n := utf8.RuneCountInString(out.Brief); {
	case n == 0:
		verr.Add("brief", "is required")
	case n < MinBriefLength:
		verr.Add("brief", fmt.Sprintf("must be at least %d characters", MinBriefLength))
	case n > MaxBriefLength:
		verr.Add("brief", fmt.Sprintf("must be at most %d characters", MaxBriefLength))
	}

	out.CampaignType = domain.CampaignType(strings.TrimSpace(string(req.CampaignType)))
	if out.CampaignType != "" && !out.CampaignType.Valid() {
		verr.Add("campaignType", "must be one of "+joinEnum(domain.CampaignTypes))
	}

	out.Tone = domain.Tone(strings.TrimSpace(string(req.Tone)))
	if out.Tone != "" && !out.Tone.Valid() {
		verr.Add("tone", "must be one of "+joinEnum(domain.Tones))
	}

	if len(req.TargetProducts) > MaxTargetProducts {
		verr.Add("targetProducts", fmt.Sprintf("must contain at most %d ids", MaxTargetProducts))
	}
	out.TargetProducts = nil
	for _, id := range req.TargetProducts {
		id = strings.TrimSpace(id)
		if id == "" {
			verr.Add("targetProducts", "must not contain blank ids")
			break
		}
		out.TargetProducts = append(out.TargetProducts, id)
	}

	footer, ok := domain.ParseFooterVariant(string(req.LayoutPreference))
	if !ok {
		verr.Add("layoutPreference", "must be one of minimal, navigation, social")
	}
	out.LayoutPreference = footer

	out.ImageStyle = domain.ImageStyle(strings.TrimSpace(string(req.ImageStyle)))
	if out.ImageStyle == "" {
		out.ImageStyle = domain.ImageStyleFront
	} else if !out.ImageStyle.Valid() {
		verr.Add("imageStyle", "must be one of front, styled, lifestyle, multi")
	}

	out.CopyLength = domain.CopyLength(strings.TrimSpace(string(req.CopyLength)))
	if out.CopyLength == "" {
		out.CopyLength = domain.CopyMedium
	} else if !out.CopyLength.Valid() {
		verr.Add("copyLength", "must be one of short, medium, long")
	}

	out.Locale = strings.TrimSpace(req.Locale)

	if err := verr.OrNil(); err != nil {
		return domain.CreateRequest{}, err
	}
	return out, nil
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
