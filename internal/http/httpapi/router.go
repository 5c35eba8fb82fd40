package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/FizzSlash/AIdesign/internal/http/handlers"
	"github.com/FizzSlash/AIdesign/internal/infra"
	"github.com/FizzSlash/AIdesign/internal/middleware"
)

type Options struct {
	Logger          zerolog.Logger
	Metrics         *infra.Metrics
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	DefaultLocale   string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.Metrics(opts.Metrics),
		cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Locale", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Location", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	if opts.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	// one bucket per owner shared by every route that starts a job
	limit := middleware.RateLimit(opts.RateLimitPerMin, 0)

	r.Route("/v1/campaigns", func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Route("/jobs", func(r chi.Router) {
			r.With(limit).Post("/", app.CreateCampaignJob)
			r.Get("/{id}", app.CampaignJobStatus)
			r.Post("/{id}/cancel", app.CancelCampaignJob)
		})

		r.Route("/artifacts", func(r chi.Router) {
			r.Get("/", app.ListArtifacts)
			r.Get("/{id}", app.GetArtifact)
			r.Get("/{id}/html", app.ArtifactHTML)
			r.With(limit).Post("/{id}/regenerate", app.RegenerateArtifact)
		})
	})

	return r
}
