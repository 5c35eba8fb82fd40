package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/middleware"
)

type createCampaignRequest struct {
	Brief            string   `json:"brief"`
	CampaignType     string   `json:"campaignType"`
	TargetProducts   []string `json:"targetProducts"`
	Tone             string   `json:"tone"`
	LayoutPreference string   `json:"layoutPreference"`
	ImageStyle       string   `json:"imageStyle"`
	CopyLength       string   `json:"copyLength"`
	Locale           string   `json:"locale"`
}

type jobCreatedResponse struct {
	JobID  string           `json:"jobId"`
	Status domain.JobStatus `json:"status"`
}

type jobStatusResponse struct {
	JobID       string           `json:"jobId"`
	Status      domain.JobStatus `json:"status"`
	Progress    int              `json:"progress"`
	CurrentStep string           `json:"currentStep"`
	Error       string           `json:"error,omitempty"`
	ArtifactID  string           `json:"artifactId,omitempty"`
	TokensUsed  int              `json:"tokensUsed"`
	CreatedAt   time.Time        `json:"createdAt"`
	StartedAt   *time.Time       `json:"startedAt,omitempty"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// CreateCampaignJob queues a generation job and answers before it runs.
func (a *App) CreateCampaignJob(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if !a.decode(w, r, &req) {
		return
	}
	locale := req.Locale
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}
	jobID, err := a.Jobs.Create(r.Context(), a.owner(r), domain.CreateRequest{
		Brief:            req.Brief,
		CampaignType:     domain.CampaignType(req.CampaignType),
		Tone:             domain.Tone(req.Tone),
		TargetProducts:   req.TargetProducts,
		LayoutPreference: domain.FooterVariant(req.LayoutPreference),
		ImageStyle:       domain.ImageStyle(req.ImageStyle),
		CopyLength:       domain.CopyLength(req.CopyLength),
		Locale:           locale,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/campaigns/jobs/"+jobID)
	a.json(w, http.StatusAccepted, jobCreatedResponse{JobID: jobID, Status: domain.JobStatusPending})
}

func (a *App) CampaignJobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.Status(r.Context(), a.owner(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toJobStatus(job))
}

func (a *App) CancelCampaignJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Jobs.Cancel(r.Context(), a.owner(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]string{"jobId": id, "status": "cancelling"})
}

func toJobStatus(job *domain.Job) jobStatusResponse {
	out := jobStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Error:       job.ErrorMessage,
		TokensUsed:  job.TokensUsed(),
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
	if job.Output != nil {
		out.ArtifactID = job.Output.ArtifactID
	}
	return out
}
