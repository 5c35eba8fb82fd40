package domain

import "context"

// JobStore persists campaign jobs. Transition methods only touch non-terminal
// rows, so a finished job is never mutated again.
type JobStore interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, ownerID, jobID string) (*Job, error)
	MarkProcessing(ctx context.Context, jobID string, progress int, step string) error
	UpdateProgress(ctx context.Context, jobID string, progress int, step string) error
	RecordUsage(ctx context.Context, jobID string, usage UsageRecord) error
	CompleteJob(ctx context.Context, jobID string, artifact *Artifact) error
	FailJob(ctx context.Context, jobID string, message string) error
	FailStaleJobs(ctx context.Context, olderThanSeconds int, message string) (int64, error)
}

// ArtifactStore reads finished artifacts.
type ArtifactStore interface {
	GetArtifact(ctx context.Context, ownerID, artifactID string) (*Artifact, error)
	ListArtifacts(ctx context.Context, ownerID string, filter ArtifactFilter) ([]Artifact, error)
}

// UsageLogger records billable generation usage.
type UsageLogger interface {
	LogUsage(ctx context.Context, ownerID, action string, tokens int, cost float64, meta map[string]any) error
}

// BrandProvider supplies brand profiles.
type BrandProvider interface {
	Profile(ctx context.Context, ownerID string) (*BrandProfile, error)
}

// CatalogProvider answers read-only product queries.
type CatalogProvider interface {
	Query(ctx context.Context, ownerID string, filter CatalogFilter) ([]Product, error)
}
