package rest

import (
	"net/http"
	"time"

	"github.com/baechuer/club-service/internal/metrics"
	"github.com/baechuer/club-service/internal/security"
	"github.com/baechuer/club-service/internal/transport/rest/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

type RateLimit struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

type RouterDeps struct {
	Handler  *Handler
	Verifier security.AccessTokenVerifier
	// Limiter is optional; without it the limit is kept in process.
	Limiter   Limiter
	RateLimit RateLimit
	// Healthz reports readiness; nil means always healthy.
	Healthz func() map[string]any
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Handler == nil {
		panic("rest.NewRouter: nil handler")
	}
	if d.Verifier == nil {
		panic("rest.NewRouter: nil verifier")
	}

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(HTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(SecurityHeaders)

	if d.RateLimit.Enabled {
		if d.Limiter != nil {
			r.Use(RateLimitMiddleware(d.Limiter, d.RateLimit.Limit, d.RateLimit.Window))
		} else {
			r.Use(httprate.LimitByIP(d.RateLimit.Limit, d.RateLimit.Window))
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if d.Healthz != nil {
			body = d.Healthz()
		}
		response.JSON(w, http.StatusOK, body)
	})
	r.Handle("/metrics", metrics.Handler())

	h := d.Handler
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(d.Verifier))

		r.Get("/events", h.ListEvents)
		r.Get("/events/{eventID}", h.GetEvent)
		r.Post("/events/{eventID}/registrations", h.Register)
		r.Delete("/events/{eventID}/registrations", h.Unregister)

		r.Get("/catalog", h.ListCatalog)
		r.Get("/catalog/{itemID}", h.GetItem)
		r.Get("/bgg/search", h.SearchBGG)

		r.Group(func(r chi.Router) {
			r.Use(RequireOrganizer)

			r.Post("/events", h.CreateEvent)
			r.Post("/events/promotions", h.Promote)

			r.Post("/catalog", h.AddItem)
			r.Post("/catalog/{itemID}/attachments", h.Attach)
			r.Delete("/catalog/{itemID}/base", h.Detach)

			r.Post("/bgg/import", h.ImportBGG)
		})
	})

	return r
}
