package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"welfare-app-go/internal/config"
	"welfare-app-go/internal/metrics"
	"welfare-app-go/internal/ratelimit"
	"welfare-app-go/internal/storage"
	"welfare-app-go/internal/transport/httpserver/handler"
	"welfare-app-go/internal/transport/httpserver/middleware"
	"welfare-app-go/pkg/logger"
)

type Deps struct {
	Handlers *handler.Handlers
	Tokens   middleware.TokenParser
	Limiter  ratelimit.Limiter
	Metrics  *metrics.Metrics
	// UploadDir is served under /uploads when files are stored locally.
	UploadDir string
}

func NewRouter(cfg config.Config, deps Deps, log logger.Logger) http.Handler {
	h := deps.Handlers
	auth := middleware.NewAuth(deps.Tokens, log)

	var observer middleware.HTTPObserver
	var limited middleware.RateLimitRecorder
	if deps.Metrics != nil {
		observer = deps.Metrics
		limited = deps.Metrics
	}
	limit := func(scope string) func(http.Handler) http.Handler {
		if deps.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RateLimit(deps.Limiter, scope, cfg.RateLimit.AuthLimit, cfg.RateLimit.AuthWindow, limited, log)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Observe(log, observer))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.NewCORS(cfg.CORSOrigins))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	if deps.UploadDir != "" {
		files := http.StripPrefix(storage.LocalPrefix, http.FileServer(http.Dir(deps.UploadDir)))
		r.Method(http.MethodGet, storage.LocalPrefix+"*", files)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Common.Health)
		r.Get("/health/ready", h.Common.Ready)

		r.Route("/admin", func(r chi.Router) {
			r.With(limit("admin_login")).Post("/login", h.Admin.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth.Require)
				r.Use(middleware.RequireAdmin)

				r.Get("/notifications", h.Admin.ListNotifications)
				r.Post("/notifications/{id}/retry", h.Admin.RetryNotification)
			})
		})

		r.Route("/{category}", func(r chi.Router) {
			r.Use(middleware.Category)

			r.With(limit("register")).Post("/register", h.Members.Register)
			r.With(limit("login")).Post("/login", h.Members.Login)
			r.Get("/", h.Members.List)
			r.With(auth.Require, middleware.RequireAdmin).Get("/export", h.Members.Export)

			r.With(auth.Require).Get("/{id}", h.Members.Get)
			r.With(auth.Optional).Patch("/{id}/approve", h.Members.Approve)
			r.With(auth.Optional).Post("/{id}/deceased", h.Members.MarkDeceased)
			r.With(auth.Require).Patch("/{id}/profile", h.Members.Update)
			r.With(auth.Require).Patch("/{id}", h.Members.Update)
		})
	})

	return r
}
