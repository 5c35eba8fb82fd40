// Package jobs runs campaign generation as tracked background jobs and
// reports their progress.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/generation"
	"github.com/FizzSlash/AIdesign/internal/infra"
	"github.com/FizzSlash/AIdesign/internal/layout"
)

// Analyzer interprets a brief.
type Analyzer interface {
	Analyze(ctx context.Context, brief string, brand *domain.BrandProfile, opts generation.IntentOptions) (*domain.CampaignIntent, domain.UsageRecord, error)
}

// Copywriter produces hero and product copy.
type Copywriter interface {
	Generate(ctx context.Context, intent *domain.CampaignIntent, brand *domain.BrandProfile, products []domain.SelectedProduct, opts generation.CopyOptions, onUsage func(domain.UsageRecord)) (*domain.GeneratedCopy, error)
}

// Selector picks catalog products for an intent.
type Selector interface {
	Select(ctx context.Context, ownerID string, intent *domain.CampaignIntent, explicitIDs []string, style domain.ImageStyle) ([]domain.SelectedProduct, error)
}

type Assembler interface {
	Assemble(in layout.Input) (*layout.Document, error)
}

type Renderer interface {
	Render(doc *layout.Document, locale string) (*layout.Result, error)
}

// Exporter keeps a copy of the rendered markup outside the database.
type Exporter interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Deps wires the orchestrator. Exporter, Usage, Metrics and Tracer are optional.
type Deps struct {
	Store      domain.JobStore
	Artifacts  domain.ArtifactStore
	Brands     domain.BrandProvider
	Selector   Selector
	Analyzer   Analyzer
	Copywriter Copywriter
	Assembler  Assembler
	Renderer   Renderer
	Exporter   Exporter
	Usage      domain.UsageLogger
	Metrics    *infra.Metrics
	Tracer     trace.Tracer
	Logger     zerolog.Logger
	Now        func() time.Time
	NewID      func() string
}

// Orchestrator owns the lifecycle of every job it starts.
type Orchestrator struct {
	deps   Deps
	base   context.Context
	stop   context.CancelFunc
	tasks  *taskGroup
	logger zerolog.Logger
}

func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("jobs: store is required")
	case deps.Brands == nil:
		return nil, errors.New("jobs: brand provider is required")
	case deps.Selector == nil:
		return nil, errors.New("jobs: selector is required")
	case deps.Analyzer == nil || deps.Copywriter == nil:
		return nil, errors.New("jobs: analyzer and copywriter are required")
	case deps.Assembler == nil || deps.Renderer == nil:
		return nil, errors.New("jobs: assembler and renderer are required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(infra.TracerName)
	}
	base, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		deps:   deps,
		base:   base,
		stop:   stop,
		tasks:  newTaskGroup(),
		logger: deps.Logger.With().Str("component", "jobs").Logger(),
	}, nil
}

// Create validates the request, stores a pending job and starts it in the
// background. It never waits for the pipeline.
func (o *Orchestrator) Create(ctx context.Context, ownerID string, req domain.CreateRequest) (string, error) {
	return o.create(ctx, ownerID, req, "api")
}

func (o *Orchestrator) create(ctx context.Context, ownerID string, req domain.CreateRequest, origin string) (string, error) {
	if ownerID == "" {
		return "", domain.ErrUnauthorized
	}
	normalized, err := Normalize(req)
	if err != nil {
		return "", err
	}
	job := &domain.Job{
		ID:          o.deps.NewID(),
		OwnerID:     ownerID,
		Type:        domain.JobTypeCampaignGeneration,
		Status:      domain.JobStatusPending,
		CurrentStep: StepQueued,
		Input:       normalized,
	}
	if err := o.deps.Store.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("jobs: create: %w", err)
	}
	o.deps.Metrics.JobCreated(origin)

	if err := o.tasks.start(o.base, job.ID, func(taskCtx context.Context) { o.execute(taskCtx, job) }); err != nil {
		o.finishFailed(ctx, job.ID, domain.ErrInterrupted.Error(), o.logger)
		return "", err
	}
	o.logger.Info().Str("job_id", job.ID).Str("owner_id", ownerID).Str("origin", origin).Msg("jobs: job queued")
	return job.ID, nil
}

// Status returns the job without side effects.
func (o *Orchestrator) Status(ctx context.Context, ownerID, jobID string) (*domain.Job, error) {
	return o.deps.Store.GetJob(ctx, ownerID, jobID)
}

// Cancel stops a running job. The job fails with "job cancelled". A job that
// already finished yields domain.ErrJobTerminal.
func (o *Orchestrator) Cancel(ctx context.Context, ownerID, jobID string) error {
	job, err := o.deps.Store.GetJob(ctx, ownerID, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return domain.ErrJobTerminal
	}
	if o.tasks.cancel(jobID, domain.ErrCancelled) {
		o.logger.Info().Str("job_id", jobID).Msg("jobs: cancellation requested")
		return nil
	}
	// not running in this process, typically left over from a restart
	if err := o.deps.Store.FailJob(ctx, jobID, domain.ErrCancelled.Error()); err != nil {
		return err
	}
	return nil
}

// Regenerate starts a new job from the input of the job that produced the
// artifact.
func (o *Orchestrator) Regenerate(ctx context.Context, ownerID, artifactID string) (string, error) {
	if o.deps.Artifacts == nil {
		return "", errors.New("jobs: artifact store is not configured")
	}
	artifact, err := o.deps.Artifacts.GetArtifact(ctx, ownerID, artifactID)
	if err != nil {
		return "", err
	}
	source, err := o.deps.Store.GetJob(ctx, ownerID, artifact.JobID)
	if err != nil {
		return "", fmt.Errorf("jobs: load source job: %w", err)
	}
	return o.create(ctx, ownerID, source.Input, "regenerate")
}

// Running reports how many jobs this process is executing.
func (o *Orchestrator) Running() int {
	return o.tasks.running()
}

// Shutdown cancels in-flight jobs, which fail as interrupted, and waits for
// them until ctx expires.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.tasks.close(domain.ErrInterrupted)
	err := o.tasks.wait(ctx)
	o.stop()
	return err
}

// SweepStale fails jobs that stopped making progress, for example after a crash.
func (o *Orchestrator) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := o.deps.Store.FailStaleJobs(ctx, int(olderThan.Seconds()), domain.ErrInterrupted.Error())
	if err != nil {
		return 0, err
	}
	o.deps.Metrics.StaleJobsFailed(n)
	if n > 0 {
		o.logger.Warn().Int64("jobs", n).Dur("older_than", olderThan).Msg("jobs: stale jobs interrupted")
	}
	return n, nil
}

// finishFailed records a terminal failure even when the job context is gone.
func (o *Orchestrator) finishFailed(ctx context.Context, jobID, message string, logger zerolog.Logger) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := o.deps.Store.FailJob(writeCtx, jobID, message); err != nil && !errors.Is(err, domain.ErrJobTerminal) {
		logger.Error().Err(err).Msg("jobs: failed to record failure")
	}
}
