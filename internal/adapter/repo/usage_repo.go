package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/FizzSlash/AIdesign/internal/infra"
	"github.com/FizzSlash/AIdesign/internal/sqlinline"
)

// UsageRepositoryPG implements domain.UsageLogger on usage_logs.
type UsageRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewUsageRepository(sql infra.SQLExecutor) *UsageRepositoryPG {
	return &UsageRepositoryPG{sql: sql}
}

func (r *UsageRepositoryPG) LogUsage(ctx context.Context, ownerID, action string, tokens int, cost float64, meta map[string]any) error {
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("repo: encode usage metadata: %w", err)
	}
	if _, err := r.sql.Exec(ctx, sqlinline.QInsertUsageLog, ownerID, action, tokens, cost, raw); err != nil {
		return fmt.Errorf("repo: insert usage log: %w", err)
	}
	return nil
}
