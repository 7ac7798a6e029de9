package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/luxequeer/deployer/internal/api/handlers"
	mw "github.com/luxequeer/deployer/internal/api/middleware"
)

// Dependencies wires the router. Deployments and Content are nil when no database
// is configured; their routes are then not mounted.
type Dependencies struct {
	HMACSecret  []byte
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Deployments *handlers.DeploymentsHandler
	Content     *handlers.ContentHandler
	Preview     *handlers.PreviewHandler
	Metrics     http.Handler
	RateLimiter *mw.RateLimiter
	// CORSOrigins lists the browser origins allowed to call the API. Empty allows all.
	CORSOrigins []string
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS(dep.CORSOrigins))
	if dep.RateLimiter != nil {
		r.Use(dep.RateLimiter.Middleware)
	}
	r.Use(chimid.Compress(5))

	hh := dep.Health
	if hh == nil {
		hh = handlers.NewHealthHandler(nil)
	}
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)
	if dep.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", dep.Metrics)
	}

	if dep.Preview != nil {
		r.Get("/preview", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/preview/", http.StatusMovedPermanently)
		})
		r.Get("/preview/*", dep.Preview.Serve)
	}

	r.Route("/api/v1", func(api chi.Router) {
		if dep.Auth != nil {
			api.Post("/auth/login", dep.Auth.Login)
		}

		if dep.Content != nil {
			api.Get("/content/blue-lipstick-edit", dep.Content.LatestEdit)
			api.Get("/content/octavia-gallery", dep.Content.Gallery)
		}

		api.Group(func(protected chi.Router) {
			protected.Use(mw.Auth(dep.HMACSecret))

			if dep.Content != nil {
				protected.Post("/content/octavia-gallery", dep.Content.SaveGallery)
			}
			if dep.Deployments != nil {
				protected.Route("/deployments", func(dr chi.Router) {
					dr.Get("/", dep.Deployments.List)
					dr.Post("/", dep.Deployments.Create)
					dr.Get("/{id}", dep.Deployments.Get)
					dr.Get("/{id}/logs", dep.Deployments.Logs)
					dr.Post("/{id}/cancel", dep.Deployments.Cancel)
				})
			}
		})
	})

	return r
}
