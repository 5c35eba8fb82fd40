package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/generation"
	"github.com/FizzSlash/AIdesign/internal/layout"
	"github.com/FizzSlash/AIdesign/internal/providers/llm"
)

// Progress checkpoints reported while a job runs.
const (
	StepQueued    = "Queued"
	StepBrand     = "Loading brand profile"
	StepIntent    = "Analyzing campaign intent"
	StepSelect    = "Selecting products"
	StepCopy      = "Generating content sections"
	StepAssemble  = "Assembling email"
	StepRender    = "Rendering"
	StepCompleted = "Completed"
)

// BrandMissingMessage is stored on jobs whose owner has no brand profile.
const BrandMissingMessage = "Brand profile not found. Please complete brand setup first."

// UsageActionCampaign labels usage_logs rows written for finished campaigns.
const UsageActionCampaign = "campaign_generated"

// errJobGone stops a run whose row became terminal underneath it.
var errJobGone = errors.New("job no longer active")

type run struct {
	o       *Orchestrator
	job     *domain.Job
	logger  zerolog.Logger
	started time.Time

	mu    sync.Mutex
	usage []domain.UsageRecord
}

func (o *Orchestrator) execute(ctx context.Context, job *domain.Job) {
	r := &run{
		o:       o,
		job:     job,
		logger:  o.logger.With().Str("job_id", job.ID).Str("owner_id", job.OwnerID).Logger(),
		started: o.deps.Now(),
	}
	o.deps.Metrics.JobStarted()

	ctx, span := o.deps.Tracer.Start(ctx, "campaign.job")
	span.SetAttributes(attribute.String("job.id", job.ID), attribute.String("job.owner", job.OwnerID))
	defer span.End()

	artifact, err := r.pipeline(ctx)
	elapsed := o.deps.Now().Sub(r.started)
	if err == nil {
		o.deps.Metrics.JobFinished(string(domain.JobStatusCompleted), elapsed)
		r.logger.Info().Str("artifact_id", artifact.ID).Int("tokens", artifact.TokensUsed).Dur("elapsed", elapsed).Msg("jobs: job completed")
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.deps.Metrics.JobFinished(string(domain.JobStatusFailed), elapsed)
	if errors.Is(err, errJobGone) {
		r.logger.Warn().Msg("jobs: job finished elsewhere, stopping")
		return
	}
	if ctx.Err() != nil {
		if cause := context.Cause(ctx); cause != nil {
			err = cause
		}
	}
	message := domain.PublicMessage(err)
	r.logger.Error().Err(err).Str("message", message).Msg("jobs: job failed")
	o.finishFailed(ctx, job.ID, message, r.logger)
}

func (r *run) pipeline(ctx context.Context) (*domain.Artifact, error) {
	req := r.job.Input
	deps := r.o.deps

	if err := r.checkpoint(ctx, 10, StepBrand); err != nil {
		return nil, err
	}
	var brand *domain.BrandProfile
	if err := r.stage(ctx, "brand", func(ctx context.Context) error {
		var err error
		brand, err = deps.Brands.Profile(ctx, r.job.OwnerID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && brand == nil) {
			return &domain.PreconditionError{Message: BrandMissingMessage}
		}
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.checkpoint(ctx, 20, StepIntent); err != nil {
		return nil, err
	}
	var intent *domain.CampaignIntent
	if err := r.stage(ctx, generation.StageIntent, func(ctx context.Context) error {
		var (
			usage domain.UsageRecord
			err   error
		)
		intent, usage, err = deps.Analyzer.Analyze(ctx, req.Brief, brand, generation.IntentOptions{
			CampaignType: req.CampaignType,
			Tone:         req.Tone,
			Locale:       req.Locale,
		})
		r.recordUsage(ctx, usage)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.checkpoint(ctx, 40, StepSelect); err != nil {
		return nil, err
	}
	var products []domain.SelectedProduct
	if err := r.stage(ctx, "select", func(ctx context.Context) error {
		var err error
		products, err = deps.Selector.Select(ctx, r.job.OwnerID, intent, req.TargetProducts, req.ImageStyle)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.checkpoint(ctx, 55, StepCopy); err != nil {
		return nil, err
	}
	var content *domain.GeneratedCopy
	if err := r.stage(ctx, "copy", func(ctx context.Context) error {
		var err error
		content, err = deps.Copywriter.Generate(ctx, intent, brand, products, generation.CopyOptions{
			Length:   req.CopyLength,
			Locale:   req.Locale,
			StoreURL: brand.WebsiteURL,
		}, func(u domain.UsageRecord) { r.recordUsage(ctx, u) })
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.checkpoint(ctx, 75, StepAssemble); err != nil {
		return nil, err
	}
	var doc *layout.Document
	if err := r.stage(ctx, "assemble", func(context.Context) error {
		var err error
		doc, err = deps.Assembler.Assemble(layout.Input{
			Brand:    brand,
			Intent:   intent,
			Copy:     content,
			Products: products,
			Footer:   req.LayoutPreference,
			Locale:   req.Locale,
		})
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.checkpoint(ctx, 90, StepRender); err != nil {
		return nil, err
	}
	artifactID := deps.NewID()
	var (
		rendered   *layout.Result
		storageKey string
	)
	if err := r.stage(ctx, "render", func(ctx context.Context) error {
		var err error
		rendered, err = deps.Renderer.Render(doc, req.Locale)
		if err != nil {
			return err
		}
		storageKey = r.export(ctx, artifactID, rendered.HTML)
		return nil
	}); err != nil {
		return nil, err
	}
	deps.Metrics.RenderWarnings(len(rendered.Warnings))

	layoutJSON, err := doc.JSON()
	if err != nil {
		return nil, fmt.Errorf("jobs: encode layout: %w", err)
	}
	usage := r.usageSnapshot()
	tokens, cost, model := summarize(usage)
	artifact := &domain.Artifact{
		ID:                artifactID,
		OwnerID:           r.job.OwnerID,
		JobID:             r.job.ID,
		CampaignType:      intent.CampaignType,
		SubjectLine:       firstOf(intent.SuggestedSubjectLines),
		PreviewText:       intent.PreviewText,
		LayoutDescription: layoutJSON,
		RenderedMarkup:    rendered.HTML,
		ImagesUsed:        doc.ImagesUsed(),
		Intent:            intent,
		Copy:              content,
		TokensUsed:        tokens,
		CostEstimate:      cost,
		ModelUsed:         model,
		GenerationTimeMs:  deps.Now().Sub(r.started).Milliseconds(),
		Warnings:          rendered.Warnings,
		StorageKey:        storageKey,
		Status:            domain.ArtifactDraft,
	}

	if err := deps.Store.CompleteJob(ctx, r.job.ID, artifact); err != nil {
		if errors.Is(err, domain.ErrJobTerminal) {
			return nil, errJobGone
		}
		return nil, fmt.Errorf("jobs: complete: %w", err)
	}
	r.logUsage(ctx, artifact)
	return artifact, nil
}

// checkpoint advances progress. Progress never moves backwards in storage.
func (r *run) checkpoint(ctx context.Context, progress int, step string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	if progress == 10 {
		err = r.o.deps.Store.MarkProcessing(ctx, r.job.ID, progress, step)
	} else {
		err = r.o.deps.Store.UpdateProgress(ctx, r.job.ID, progress, step)
	}
	if errors.Is(err, domain.ErrJobTerminal) {
		return errJobGone
	}
	if err != nil {
		return fmt.Errorf("jobs: progress %d: %w", progress, err)
	}
	r.logger.Debug().Int("progress", progress).Str("step", step).Msg("jobs: checkpoint")
	return nil
}

// stage runs fn inside a span and records its duration.
func (r *run) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := r.o.deps.Tracer.Start(ctx, "campaign.stage."+name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	r.o.deps.Metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// recordUsage keeps token accounting for every completed sub-call, including
// calls whose stage later fails. Safe for concurrent use.
func (r *run) recordUsage(ctx context.Context, u domain.UsageRecord) {
	if u.Tokens <= 0 {
		return
	}
	r.mu.Lock()
	r.usage = append(r.usage, u)
	r.mu.Unlock()
	r.o.deps.Metrics.AddTokens(u.Stage, u.Model, u.Tokens)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.o.deps.Store.RecordUsage(writeCtx, r.job.ID, u); err != nil && !errors.Is(err, domain.ErrJobTerminal) {
		r.logger.Warn().Err(err).Str("stage", u.Stage).Msg("jobs: failed to record usage")
	}
}

func (r *run) usageSnapshot() []domain.UsageRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.UsageRecord(nil), r.usage...)
}

// export writes the markup to the configured exporter. Failures are logged only.
func (r *run) export(ctx context.Context, artifactID, html string) string {
	if r.o.deps.Exporter == nil {
		return ""
	}
	key := fmt.Sprintf("%s/%s.html", r.job.OwnerID, artifactID)
	stored, err := r.o.deps.Exporter.Write(ctx, key, []byte(html))
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("jobs: markup export failed")
		return ""
	}
	return stored
}

func (r *run) logUsage(ctx context.Context, a *domain.Artifact) {
	if r.o.deps.Usage == nil {
		return
	}
	meta := map[string]any{
		"jobId":        r.job.ID,
		"artifactId":   a.ID,
		"campaignType": a.CampaignType,
		"model":        a.ModelUsed,
	}
	if err := r.o.deps.Usage.LogUsage(context.WithoutCancel(ctx), r.job.OwnerID, UsageActionCampaign, a.TokensUsed, a.CostEstimate, meta); err != nil {
		r.logger.Warn().Err(err).Msg("jobs: failed to write usage log")
	}
}

// summarize totals tokens and cost and lists the distinct models used.
func summarize(usage []domain.UsageRecord) (int, float64, string) {
	var (
		tokens int
		cost   float64
		models []string
	)
	seen := map[string]bool{}
	for _, u := range usage {
		tokens += u.Tokens
		cost += llm.EstimateCost(u.Model, u.Tokens)
		if u.Model != "" && !seen[u.Model] {
			seen[u.Model] = true
			models = append(models, u.Model)
		}
	}
	return tokens, cost, strings.Join(models, ",")
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
