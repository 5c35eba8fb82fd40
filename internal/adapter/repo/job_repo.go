package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/infra"
	"github.com/FizzSlash/AIdesign/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobStore on campaign_jobs.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// CreateJob inserts a pending job and fills in CreatedAt.
func (r *JobRepositoryPG) CreateJob(ctx context.Context, job *domain.Job) error {
	input, err := job.Input.MarshalInput()
	if err != nil {
		return fmt.Errorf("repo: encode job input: %w", err)
	}
	var created time.Time
	if err := r.sql.QueryRow(ctx, sqlinline.QInsertCampaignJob,
		job.ID,
		job.OwnerID,
		string(job.Type),
		job.CurrentStep,
		input,
	).Scan(&created); err != nil {
		return fmt.Errorf("repo: insert job: %w", err)
	}
	job.Status = domain.JobStatusPending
	job.CreatedAt = created
	job.UpdatedAt = created
	return nil
}

// GetJob returns the job when it exists and belongs to ownerID.
func (r *JobRepositoryPG) GetJob(ctx context.Context, ownerID, jobID string) (*domain.Job, error) {
	if !isUUID(jobID) {
		return nil, domain.ErrNotFound
	}
	var (
		job             domain.Job
		jobType, status string
		input, output   []byte
		usage           []byte
	)
	err := r.sql.QueryRow(ctx, sqlinline.QSelectCampaignJob, ownerID, jobID).Scan(
		&job.ID,
		&job.OwnerID,
		&jobType,
		&status,
		&job.Progress,
		&job.CurrentStep,
		&input,
		&output,
		&job.ErrorMessage,
		&usage,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo: select job: %w", err)
	}
	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	if len(input) > 0 {
		if err := json.Unmarshal(input, &job.Input); err != nil {
			return nil, fmt.Errorf("repo: decode job input: %w", err)
		}
	}
	if len(output) > 0 {
		job.Output = &domain.JobOutput{}
		if err := json.Unmarshal(output, job.Output); err != nil {
			return nil, fmt.Errorf("repo: decode job output: %w", err)
		}
	}
	if len(usage) > 0 {
		if err := json.Unmarshal(usage, &job.Usage); err != nil {
			return nil, fmt.Errorf("repo: decode job usage: %w", err)
		}
	}
	return &job, nil
}

func (r *JobRepositoryPG) MarkProcessing(ctx context.Context, jobID string, progress int, step string) error {
	return r.transition(ctx, "mark processing", sqlinline.QMarkCampaignJobProcessing, jobID, progress, step)
}

func (r *JobRepositoryPG) UpdateProgress(ctx context.Context, jobID string, progress int, step string) error {
	return r.transition(ctx, "update progress", sqlinline.QUpdateCampaignJobProgress, jobID, progress, step)
}

// RecordUsage appends one sub-call record to the job's usage list.
func (r *JobRepositoryPG) RecordUsage(ctx context.Context, jobID string, usage domain.UsageRecord) error {
	raw, err := json.Marshal(usage)
	if err != nil {
		return err
	}
	return r.transition(ctx, "record usage", sqlinline.QAppendCampaignJobUsage, jobID, raw)
}

func (r *JobRepositoryPG) FailJob(ctx context.Context, jobID string, message string) error {
	return r.transition(ctx, "fail job", sqlinline.QFailCampaignJob, jobID, message)
}

// CompleteJob stores the artifact and completes the job atomically. A job
// that is already terminal yields domain.ErrJobTerminal and no artifact.
func (r *JobRepositoryPG) CompleteJob(ctx context.Context, jobID string, a *domain.Artifact) error {
	args, err := artifactArgs(jobID, a)
	if err != nil {
		return err
	}
	var created time.Time
	if err := r.sql.QueryRow(ctx, sqlinline.QCompleteCampaignJob, args...).Scan(&created); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrJobTerminal
		}
		return fmt.Errorf("repo: complete job: %w", err)
	}
	a.CreatedAt = created
	return nil
}

// FailStaleJobs fails every non-terminal job idle for longer than the window.
func (r *JobRepositoryPG) FailStaleJobs(ctx context.Context, olderThanSeconds int, message string) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QFailStaleCampaignJobs, olderThanSeconds, message)
	if err != nil {
		return 0, fmt.Errorf("repo: fail stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *JobRepositoryPG) transition(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.sql.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("repo: %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobTerminal
	}
	return nil
}

func artifactArgs(jobID string, a *domain.Artifact) ([]any, error) {
	if a == nil {
		return nil, fmt.Errorf("repo: artifact is required")
	}
	images, err := json.Marshal(nonNil(a.ImagesUsed))
	if err != nil {
		return nil, err
	}
	warnings, err := json.Marshal(nonNil(a.Warnings))
	if err != nil {
		return nil, err
	}
	intent, err := json.Marshal(a.Intent)
	if err != nil {
		return nil, err
	}
	copyJSON, err := json.Marshal(a.Copy)
	if err != nil {
		return nil, err
	}
	layout := a.LayoutDescription
	if len(layout) == 0 {
		layout = []byte("{}")
	}
	return []any{
		jobID,
		a.ID,
		a.TokensUsed,
		string(a.CampaignType),
		a.SubjectLine,
		a.PreviewText,
		layout,
		a.RenderedMarkup,
		images,
		intent,
		copyJSON,
		a.CostEstimate,
		a.ModelUsed,
		a.GenerationTimeMs,
		warnings,
		a.StorageKey,
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
