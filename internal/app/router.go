package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vickyyylii/pixel-haven/internal/auth"
	"github.com/vickyyylii/pixel-haven/internal/catalog/products"
	"github.com/vickyyylii/pixel-haven/internal/catalog/suppliers"
	"github.com/vickyyylii/pixel-haven/internal/dashboard"
	"github.com/vickyyylii/pixel-haven/internal/directory/customers"
	"github.com/vickyyylii/pixel-haven/internal/directory/employees"
	"github.com/vickyyylii/pixel-haven/internal/jobs"
	"github.com/vickyyylii/pixel-haven/internal/observability"
	"github.com/vickyyylii/pixel-haven/internal/orders"
	"github.com/vickyyylii/pixel-haven/internal/platform/httpx"
	"github.com/vickyyylii/pixel-haven/internal/shared"
)

// RouterParams collects everything the HTTP router needs.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Pool           *pgxpool.Pool
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler      *auth.Handler
	ProductHandler   *products.Handler
	SupplierHandler  *suppliers.Handler
	CustomerHandler  *customers.Handler
	EmployeeHandler  *employees.Handler
	OrderHandler     *orders.Handler
	DashboardHandler *dashboard.Handler
}

// NewRouter assembles the full route tree. Everything except login,
// health, and metrics sits behind an authenticated session.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         p.Logger,
		Config:         p.Config,
		SessionManager: p.SessionManager,
		CSRFManager:    p.CSRFManager,
		Metrics:        p.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := p.Pool.Ping(req.Context()); err != nil {
			httpx.Problem(w, http.StatusServiceUnavailable, "Unhealthy", "database unreachable")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/jobs/health", func(w http.ResponseWriter, req *http.Request) {
		if err := jobs.Health(p.Config.RedisAddr); err != nil {
			httpx.Problem(w, http.StatusServiceUnavailable, "Unhealthy", "job queue unreachable")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/auth", p.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Route("/catalog", func(r chi.Router) {
			r.Route("/products", p.ProductHandler.MountRoutes)
			r.Route("/suppliers", p.SupplierHandler.MountRoutes)
		})
		r.Route("/directory", func(r chi.Router) {
			r.Route("/customers", p.CustomerHandler.MountRoutes)
			r.Route("/employees", p.EmployeeHandler.MountRoutes)
		})
		r.Route("/orders", p.OrderHandler.MountRoutes)
		r.Route("/dashboard", p.DashboardHandler.MountRoutes)
	})

	return r
}
