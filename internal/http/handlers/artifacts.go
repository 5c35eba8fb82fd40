package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/storage"
)

type artifactResponse struct {
	ID                string                 `json:"id"`
	JobID             string                 `json:"jobId"`
	CampaignType      domain.CampaignType    `json:"campaignType"`
	SubjectLine       string                 `json:"subjectLine"`
	PreviewText       string                 `json:"previewText"`
	LayoutDescription json.RawMessage        `json:"layoutDescription"`
	RenderedMarkup    string                 `json:"renderedMarkup,omitempty"`
	ImagesUsed        []domain.ImageRef      `json:"imagesUsed"`
	Intent            *domain.CampaignIntent `json:"intent,omitempty"`
	Copy              *domain.GeneratedCopy  `json:"copy,omitempty"`
	TokensUsed        int                    `json:"tokensUsed"`
	CostEstimate      float64                `json:"costEstimate"`
	ModelUsed         string                 `json:"modelUsed"`
	GenerationTimeMs  int64                  `json:"generationTimeMs"`
	Warnings          []string               `json:"warnings"`
	StorageKey        string                 `json:"storageKey,omitempty"`
	Status            domain.ArtifactStatus  `json:"status"`
	CreatedAt         time.Time              `json:"createdAt"`
}

func (a *App) GetArtifact(w http.ResponseWriter, r *http.Request) {
	artifact, err := a.Artifacts.GetArtifact(r.Context(), a.owner(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toArtifact(artifact, true))
}

// ListArtifacts omits rendered markup; clients fetch it per artifact.
func (a *App) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseArtifactFilter(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items, err := a.Artifacts.ListArtifacts(r.Context(), a.owner(r), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]artifactResponse, 0, len(items))
	for i := range items {
		out = append(out, toArtifact(&items[i], false))
	}
	a.json(w, http.StatusOK, map[string]any{"items": out, "limit": filter.Limit, "offset": filter.Offset})
}

// ArtifactHTML serves the rendered markup, falling back to the exported copy.
func (a *App) ArtifactHTML(w http.ResponseWriter, r *http.Request) {
	artifact, err := a.Artifacts.GetArtifact(r.Context(), a.owner(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	markup := []byte(artifact.RenderedMarkup)
	if len(markup) == 0 && artifact.StorageKey != "" && a.Markup != nil {
		if markup, err = a.Markup.Read(r.Context(), artifact.StorageKey); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				err = domain.ErrNotFound
			}
			a.fail(w, r, err)
			return
		}
	}
	if len(markup) == 0 {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(markup)
}

func (a *App) RegenerateArtifact(w http.ResponseWriter, r *http.Request) {
	jobID, err := a.Jobs.Regenerate(r.Context(), a.owner(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/campaigns/jobs/"+jobID)
	a.json(w, http.StatusAccepted, jobCreatedResponse{JobID: jobID, Status: domain.JobStatusPending})
}

func parseArtifactFilter(r *http.Request) (domain.ArtifactFilter, error) {
	q := r.URL.Query()
	verr := &domain.ValidationError{}
	filter := domain.ArtifactFilter{
		Status:       domain.ArtifactStatus(q.Get("status")),
		CampaignType: domain.CampaignType(q.Get("campaignType")),
		Limit:        20,
	}
	switch filter.Status {
	case "", domain.ArtifactDraft, domain.ArtifactSentDownstream:
	default:
		verr.Add("status", "must be draft or sent_downstream")
	}
	if filter.CampaignType != "" && !filter.CampaignType.Valid() {
		verr.Add("campaignType", "unknown campaign type")
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			verr.Add("limit", "must be between 1 and 100")
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			verr.Add("offset", "must be a non-negative integer")
		}
		filter.Offset = n
	}
	if err := verr.OrNil(); err != nil {
		return domain.ArtifactFilter{}, err
	}
	return filter, nil
}

func toArtifact(a *domain.Artifact, withMarkup bool) artifactResponse {
	out := artifactResponse{
		ID:                a.ID,
		JobID:             a.JobID,
		CampaignType:      a.CampaignType,
		SubjectLine:       a.SubjectLine,
		PreviewText:       a.PreviewText,
		LayoutDescription: json.RawMessage(a.LayoutDescription),
		ImagesUsed:        a.ImagesUsed,
		Intent:            a.Intent,
		Copy:              a.Copy,
		TokensUsed:        a.TokensUsed,
		CostEstimate:      a.CostEstimate,
		ModelUsed:         a.ModelUsed,
		GenerationTimeMs:  a.GenerationTimeMs,
		Warnings:          a.Warnings,
		StorageKey:        a.StorageKey,
		Status:            a.Status,
		CreatedAt:         a.CreatedAt,
	}
	if withMarkup {
		out.RenderedMarkup = a.RenderedMarkup
	}
	if !json.Valid(out.LayoutDescription) {
		out.LayoutDescription = json.RawMessage("null")
	}
	if out.ImagesUsed == nil {
		out.ImagesUsed = []domain.ImageRef{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return out
}
