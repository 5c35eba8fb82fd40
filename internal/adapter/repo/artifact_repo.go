package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/infra"
	"github.com/FizzSlash/AIdesign/internal/sqlinline"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ArtifactRepositoryPG implements domain.ArtifactStore.
type ArtifactRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewArtifactRepository(sql infra.SQLExecutor) *ArtifactRepositoryPG {
	return &ArtifactRepositoryPG{sql: sql}
}

func (r *ArtifactRepositoryPG) GetArtifact(ctx context.Context, ownerID, artifactID string) (*domain.Artifact, error) {
	if !isUUID(artifactID) {
		return nil, domain.ErrNotFound
	}
	var (
		a                                  domain.Artifact
		campaignType, status               string
		images, intent, copyJSON, warnings []byte
	)
	err := r.sql.QueryRow(ctx, sqlinline.QSelectCampaignArtifact, ownerID, artifactID).Scan(
		&a.ID,
		&a.OwnerID,
		&a.JobID,
		&campaignType,
		&a.SubjectLine,
		&a.PreviewText,
		&a.LayoutDescription,
		&a.RenderedMarkup,
		&images,
		&intent,
		&copyJSON,
		&a.TokensUsed,
		&a.CostEstimate,
		&a.ModelUsed,
		&a.GenerationTimeMs,
		&warnings,
		&a.StorageKey,
		&status,
		&a.CreatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo: select artifact: %w", err)
	}
	a.CampaignType = domain.CampaignType(campaignType)
	a.Status = domain.ArtifactStatus(status)
	if err := decodeJSON(images, &a.ImagesUsed); err != nil {
		return nil, err
	}
	if err := decodeJSON(warnings, &a.Warnings); err != nil {
		return nil, err
	}
	if len(intent) > 0 && string(intent) != "null" {
		a.Intent = &domain.CampaignIntent{}
		if err := decodeJSON(intent, a.Intent); err != nil {
			return nil, err
		}
	}
	if len(copyJSON) > 0 && string(copyJSON) != "null" {
		a.Copy = &domain.GeneratedCopy{}
		if err := decodeJSON(copyJSON, a.Copy); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// ListArtifacts returns summaries without markup or layout, newest first.
func (r *ArtifactRepositoryPG) ListArtifacts(ctx context.Context, ownerID string, f domain.ArtifactFilter) ([]domain.Artifact, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := max(f.Offset, 0)

	rows, err := r.sql.Query(ctx, sqlinline.QListCampaignArtifacts, ownerID, string(f.Status), string(f.CampaignType), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repo: list artifacts: %w", err)
	}
	defer rows.Close()

	out := []domain.Artifact{}
	for rows.Next() {
		var (
			a                    domain.Artifact
			campaignType, status string
			images, warnings     []byte
		)
		if err := rows.Scan(
			&a.ID,
			&a.OwnerID,
			&a.JobID,
			&campaignType,
			&a.SubjectLine,
			&a.PreviewText,
			&images,
			&a.TokensUsed,
			&a.CostEstimate,
			&a.ModelUsed,
			&a.GenerationTimeMs,
			&warnings,
			&a.StorageKey,
			&status,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("repo: scan artifact: %w", err)
		}
		a.CampaignType = domain.CampaignType(campaignType)
		a.Status = domain.ArtifactStatus(status)
		if err := decodeJSON(images, &a.ImagesUsed); err != nil {
			return nil, err
		}
		if err := decodeJSON(warnings, &a.Warnings); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: list artifacts: %w", err)
	}
	return out, nil
}

func decodeJSON(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("repo: decode json column: %w", err)
	}
	return nil
}

// isUUID keeps malformed ids from reaching a ::uuid cast.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
