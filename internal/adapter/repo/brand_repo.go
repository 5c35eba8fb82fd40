package repo

import (
	"context"
	"fmt"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/infra"
	"github.com/FizzSlash/AIdesign/internal/sqlinline"
)

// BrandRepositoryPG implements domain.BrandProvider.
type BrandRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewBrandRepository(sql infra.SQLExecutor) *BrandRepositoryPG {
	return &BrandRepositoryPG{sql: sql}
}

func (r *BrandRepositoryPG) Profile(ctx context.Context, ownerID string) (*domain.BrandProfile, error) {
	var (
		b      domain.BrandProfile
		social []byte
	)
	err := r.sql.QueryRow(ctx, sqlinline.QSelectBrandProfile, ownerID).Scan(
		&b.OwnerID,
		&b.Name,
		&b.Voice,
		&b.Values,
		&b.LogoURL,
		&b.WebsiteURL,
		&b.PrimaryColor,
		&b.SecondaryColor,
		&b.AccentColor,
		&b.HeadingFont,
		&b.BodyFont,
		&social,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo: select brand profile: %w", err)
	}
	if err := decodeJSON(social, &b.SocialLinks); err != nil {
		return nil, err
	}
	return &b, nil
}
