package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FACorreiaa/expense-tracker/internal/domain/auth/claims"
	"github.com/FACorreiaa/expense-tracker/pkg/httpx"
	"github.com/FACorreiaa/expense-tracker/pkg/interceptors"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router builds the HTTP route table.
func (d *Dependencies) Router() http.Handler {
	return d.routes(d.DB, d.TokenManager)
}

func (d *Dependencies) routes(health HealthChecker, tokens interceptors.TokenParser) http.Handler {
	cfg := d.Config
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(interceptors.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(interceptors.Tracing(cfg.Observability.ServiceName))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(interceptors.CORS(cfg.Server.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := health.Health(ctx); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.MetricsRegistry != nil && cfg.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(d.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Middleware)
		}
		r.Route("/auth", d.AuthHandler.Routes)

		r.Group(func(r chi.Router) {
			r.Use(interceptors.Authenticate(tokens, d.Logger))

			r.Route("/user", d.UserHandler.Routes)
			r.Route("/expenses", func(r chi.Router) {
				d.ExpenseHandler.Routes(r)
				d.ReportsHandler.Routes(r)
			})
			r.Route("/recurring-expenses", d.ExpenseHandler.RecurringRoutes)
			r.Route("/admin", func(r chi.Router) {
				r.Use(interceptors.RequireRole(claims.RoleAdmin))
				d.AdminHandler.Routes(r)
			})
		})
	})
	return r
}
