package handlers

import (
	"context"
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if a.Jobs != nil {
		body["runningJobs"] = a.Jobs.Running()
	}
	if a.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Ping(ctx); err != nil {
			a.logger(r).Warn().Err(err).Msg("http: health check failed")
			body["status"] = "degraded"
			body["database"] = "unreachable"
			a.json(w, http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "ok"
	}
	a.json(w, http.StatusOK, body)
}
