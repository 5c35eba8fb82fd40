package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/infra"
	"github.com/FizzSlash/AIdesign/internal/sqlinline"
)

const defaultCatalogLimit = 200

// CatalogRepositoryPG implements domain.CatalogProvider over products and
// product_images.
type CatalogRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewCatalogRepository(sql infra.SQLExecutor) *CatalogRepositoryPG {
	return &CatalogRepositoryPG{sql: sql}
}

func (r *CatalogRepositoryPG) Query(ctx context.Context, ownerID string, f domain.CatalogFilter) ([]domain.Product, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultCatalogLimit
	}
	rows, err := r.sql.Query(ctx, sqlinline.QQueryProducts,
		ownerID,
		nonNil(f.IDs),
		likePatterns(f.Keywords),
		f.InStockOnly,
		f.RequireImages,
		nonNil(f.ExcludeIDs),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("repo: query products: %w", err)
	}
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		var (
			p      domain.Product
			images []byte
		)
		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.Category,
			&p.Tags,
			&p.Price,
			&p.CompareAtPrice,
			&p.Inventory,
			&p.Published,
			&p.URL,
			&p.UpdatedAt,
			&images,
		); err != nil {
			return nil, fmt.Errorf("repo: scan product: %w", err)
		}
		if err := decodeJSON(images, &p.Images); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: query products: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePatterns turns keywords into escaped substring ILIKE patterns.
func likePatterns(keywords []string) []string {
	out := []string{}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		out = append(out, "%"+likeEscaper.Replace(kw)+"%")
	}
	return out
}
