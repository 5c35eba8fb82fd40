// Package handlers exposes the campaign job API over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/jobs"
	"github.com/FizzSlash/AIdesign/internal/middleware"
)

const maxBodyBytes = 64 << 10

// JobService is the part of the orchestrator the API calls.
type JobService interface {
	Create(ctx context.Context, ownerID string, req domain.CreateRequest) (string, error)
	Status(ctx context.Context, ownerID, jobID string) (*domain.Job, error)
	Cancel(ctx context.Context, ownerID, jobID string) error
	Regenerate(ctx context.Context, ownerID, artifactID string) (string, error)
	Running() int
}

// MarkupReader loads exported markup by storage key.
type MarkupReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

type App struct {
	Jobs      JobService
	Artifacts domain.ArtifactStore
	Markup    MarkupReader
	Ping      func(ctx context.Context) error
	Logger    zerolog.Logger
}

type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// fail maps domain errors onto HTTP responses. Unknown errors are logged
// and reported without detail.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		a.json(w, http.StatusBadRequest, map[string]errorBody{"error": {
			Code:    "validation_error",
			Message: "request validation failed",
			Fields:  verr.Fields,
		}})
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing owner context")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrJobTerminal):
		a.error(w, http.StatusConflict, "job_terminal", "job already finished")
	case errors.Is(err, jobs.ErrShuttingDown):
		a.error(w, http.StatusServiceUnavailable, "shutting_down", "service is shutting down")
	default:
		a.logger(r).Error().Err(err).Str("path", r.URL.Path).Msg("http: request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

func (a *App) owner(r *http.Request) string {
	return middleware.OwnerIDFromContext(r.Context())
}

func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}
