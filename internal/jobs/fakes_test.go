package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/FizzSlash/AIdesign/internal/catalog"
	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/generation"
	"github.com/FizzSlash/AIdesign/internal/layout"
	"github.com/FizzSlash/AIdesign/internal/providers/llm"
)

// memStore is an in-memory JobStore and ArtifactStore with the same
// terminal guards as the SQL implementation.
type memStore struct {
	mu        sync.Mutex
	jobs      map[string]*domain.Job
	artifacts map[string]*domain.Artifact
	history   map[string][]int
	now       func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		jobs:      map[string]*domain.Job{},
		artifacts: map[string]*domain.Artifact{},
		history:   map[string][]int{},
		now:       time.Now,
	}
}

func (s *memStore) CreateJob(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	cp.Status = domain.JobStatusPending
	cp.CreatedAt = s.now()
	cp.UpdatedAt = cp.CreatedAt
	s.jobs[job.ID] = &cp
	job.CreatedAt = cp.CreatedAt
	return nil
}

func (s *memStore) GetJob(_ context.Context, ownerID, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := *job
	cp.Usage = append([]domain.UsageRecord(nil), job.Usage...)
	return &cp, nil
}

func (s *memStore) active(jobID string) (*domain.Job, error) {
	job, ok := s.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return nil, domain.ErrJobTerminal
	}
	return job, nil
}

func (s *memStore) advance(job *domain.Job, progress int, step string) {
	job.Progress = max(job.Progress, progress)
	job.CurrentStep = step
	job.UpdatedAt = s.now()
	s.history[job.ID] = append(s.history[job.ID], job.Progress)
}

func (s *memStore) MarkProcessing(_ context.Context, jobID string, progress int, step string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.active(jobID)
	if err != nil {
		return err
	}
	job.Status = domain.JobStatusProcessing
	if job.StartedAt == nil {
		now := s.now()
		job.StartedAt = &now
	}
	s.advance(job, progress, step)
	return nil
}

func (s *memStore) UpdateProgress(_ context.Context, jobID string, progress int, step string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.active(jobID)
	if err != nil {
		return err
	}
	s.advance(job, progress, step)
	return nil
}

func (s *memStore) RecordUsage(_ context.Context, jobID string, usage domain.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.active(jobID)
	if err != nil {
		return err
	}
	job.Usage = append(job.Usage, usage)
	return nil
}

func (s *memStore) CompleteJob(_ context.Context, jobID string, a *domain.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.active(jobID)
	if err != nil {
		return err
	}
	now := s.now()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	job.Output = &domain.JobOutput{ArtifactID: a.ID, TokensUsed: a.TokensUsed}
	s.advance(job, 100, StepCompleted)
	a.CreatedAt = now
	cp := *a
	s.artifacts[a.ID] = &cp
	return nil
}

func (s *memStore) FailJob(_ context.Context, jobID string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.active(jobID)
	if err != nil {
		return err
	}
	now := s.now()
	job.Status = domain.JobStatusFailed
	job.ErrorMessage = message
	job.CompletedAt = &now
	job.UpdatedAt = now
	return nil
}

func (s *memStore) FailStaleJobs(_ context.Context, olderThanSeconds int, message string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-time.Duration(olderThanSeconds) * time.Second)
	var n int64
	for _, job := range s.jobs {
		if !job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			job.Status = domain.JobStatusFailed
			job.ErrorMessage = message
			n++
		}
	}
	return n, nil
}

func (s *memStore) GetArtifact(_ context.Context, ownerID, artifactID string) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[artifactID]
	if !ok || a.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) ListArtifacts(_ context.Context, ownerID string, _ domain.ArtifactFilter) ([]domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Artifact
	for _, a := range s.artifacts {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memStore) artifactCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.artifacts)
}

func (s *memStore) progressHistory(jobID string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.history[jobID]...)
}

type memBrands map[string]*domain.BrandProfile

func (m memBrands) Profile(_ context.Context, ownerID string) (*domain.BrandProfile, error) {
	if b, ok := m[ownerID]; ok {
		return b, nil
	}
	return nil, domain.ErrNotFound
}

type memCatalog struct {
	products []domain.Product
	err      error
}

func (m *memCatalog) Query(_ context.Context, _ string, f domain.CatalogFilter) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Product
	for _, p := range m.products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeAnalyzer returns a fixed intent, or blocks until cancelled when block is set.
type fakeAnalyzer struct {
	intent  domain.CampaignIntent
	err     error
	block   bool
	entered chan struct{}
	once    sync.Once
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, brief string, _ *domain.BrandProfile, opts generation.IntentOptions) (*domain.CampaignIntent, domain.UsageRecord, error) {
	usage := domain.UsageRecord{Stage: generation.StageIntent, Model: "gpt-4-turbo", Tokens: 100}
	if f.entered != nil {
		f.once.Do(func() { close(f.entered) })
	}
	if f.block {
		<-ctx.Done()
		return nil, domain.UsageRecord{}, domain.NewUpstreamError(generation.StageIntent, ctx.Err())
	}
	if f.err != nil {
		return nil, usage, domain.NewUpstreamError(generation.StageIntent, f.err)
	}
	intent := f.intent
	if opts.CampaignType != "" {
		intent.CampaignType = opts.CampaignType
	}
	return &intent, usage, nil
}

// fakeCopywriter honours the name and order contract of the real one.
type fakeCopywriter struct {
	descriptionSize int
	productErr      error
}

func (f *fakeCopywriter) Generate(_ context.Context, _ *domain.CampaignIntent, _ *domain.BrandProfile, products []domain.SelectedProduct, _ generation.CopyOptions, onUsage func(domain.UsageRecord)) (*domain.GeneratedCopy, error) {
	onUsage(domain.UsageRecord{Stage: generation.StageHero, Model: "gpt-4-turbo", Tokens: 150})
	if f.productErr != nil {
		return nil, domain.NewUpstreamError(generation.StageProductCopy, f.productErr)
	}
	out := &domain.GeneratedCopy{
		Hero: domain.HeroCopy{
			Headline:    "Summer Dress Sale",
			Subheadline: "30% off this weekend only",
			CTAText:     "Shop the sale",
			CTALink:     "https://acme.example.com/sale",
		},
		Products: []domain.ProductCopy{},
	}
	desc := "Light and easy for warm days."
	if f.descriptionSize > 0 {
		desc = strings.Repeat("a", f.descriptionSize)
	}
	for _, p := range products {
		out.Products = append(out.Products, domain.ProductCopy{Name: p.Title, Description: desc, CTAText: "Shop now"})
	}
	if len(products) > 0 {
		onUsage(domain.UsageRecord{Stage: generation.StageProductCopy, Model: "gpt-4-turbo", Tokens: 250})
	}
	return out, nil
}

type fakeExporter struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeExporter) Write(_ context.Context, key string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "campaigns/" + key, nil
}

type fakeUsage struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeUsage) LogUsage(context.Context, string, string, int, float64, map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeUsage) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const owner = "owner-1"

func dressCatalog(n int) *memCatalog {
	cat := &memCatalog{}
	for i := 0; i < n; i++ {
		cat.products = append(cat.products, domain.Product{
			ID:          fmt.Sprintf("dress-%d", i),
			Title:       fmt.Sprintf("Summer Dress %d", i),
			Description: "A breezy dress",
			Category:    "Dresses",
			Price:       49 + float64(i),
			Inventory:   10 + i,
			Published:   true,
			UpdatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Images: []domain.Image{{
				ID:  fmt.Sprintf("dress-%d-img", i),
				URL: fmt.Sprintf("https://cdn.example.com/dress-%d.jpg", i),
			}},
		})
	}
	return cat
}

func promoIntent() domain.CampaignIntent {
	return domain.CampaignIntent{
		CampaignType:          domain.CampaignPromotional,
		PrimaryAction:         "Shop the sale",
		TargetAudience:        "Returning customers",
		Urgency:               domain.UrgencyHigh,
		KeyProducts:           []string{"dress"},
		Tone:                  domain.ToneCasual,
		SuggestedSubjectLines: []string{"30% off summer dresses"},
		PreviewText:           "This weekend only",
	}
}

type harness struct {
	orch     *Orchestrator
	store    *memStore
	analyzer *fakeAnalyzer
	copy     *fakeCopywriter
	exporter *fakeExporter
	usage    *fakeUsage
}

func newHarness(t *testing.T, cat *memCatalog, sizeLimit int) *harness {
	t.Helper()
	h := &harness{
		store:    newMemStore(),
		analyzer: &fakeAnalyzer{intent: promoIntent()},
		copy:     &fakeCopywriter{},
		exporter: &fakeExporter{},
		usage:    &fakeUsage{},
	}
	orch, err := New(Deps{
		Store:      h.store,
		Artifacts:  h.store,
		Brands:     memBrands{owner: {OwnerID: owner, Name: "Acme", WebsiteURL: "https://acme.example.com"}},
		Selector:   catalog.NewSelector(cat, catalog.Options{}, zerolog.Nop()),
		Analyzer:   h.analyzer,
		Copywriter: h.copy,
		Assembler:  layout.NewAssembler(nil),
		Renderer:   layout.NewRenderer(sizeLimit, zerolog.Nop()),
		Exporter:   h.exporter,
		Usage:      h.usage,
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = orch.Shutdown(ctx)
	})
	h.orch = orch
	return h
}

// waitTerminal polls Status until the job finishes, checking that progress
// never decreases between reads.
func waitTerminal(t *testing.T, o *Orchestrator, ownerID, jobID string) *domain.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	last := -1
	for time.Now().Before(deadline) {
		job, err := o.Status(context.Background(), ownerID, jobID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if job.Progress < last {
			t.Fatalf("progress went backwards: %d after %d", job.Progress, last)
		}
		last = job.Progress
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", jobID)
	return nil
}

// errProvider carries a raw provider body that must never reach job status.
var errProvider = &llm.ProviderError{
	Provider:   llm.ProviderOpenAI,
	StatusCode: 401,
	Err:        errors.New(`{"error":{"message":"Incorrect API key provided: sk-proj-abc***xyz","type":"invalid_request_error"}}`),
}
