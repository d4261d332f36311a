/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus counters by route pattern
  5. CORS:       Cross-origin requests for the dashboard client

ROUTE GROUPS:
  /api/companies/*      Companies and everything they own
  /api/departments/*    Department by id
  /api/carbon/*         Region defaults
  /api/demo/seed        Demo data (dev only)
  /metrics              Prometheus
  /healthz              Liveness

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultCORSOrigins are the dashboard dev servers.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// NewRouter creates a new router with all routes configured. Empty
// corsOrigins falls back to DefaultCORSOrigins.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	if len(corsOrigins) == 0 {
		corsOrigins = DefaultCORSOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Healthz)
	r.Method("GET", "/metrics", h.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/companies", func(r chi.Router) {
			r.Get("/", h.ListCompanies)
			r.Post("/", h.CreateCompany)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCompany)
				r.Put("/", h.UpdateCompany)
				r.Delete("/", h.DeleteCompany)

				r.Get("/departments", h.ListDepartments)
				r.Post("/departments", h.CreateDepartment)

				// Energy ledger
				r.Route("/energy", func(r chi.Router) {
					r.Get("/", h.ListEnergy)
					r.Post("/", h.CreateEnergy)
					r.Post("/csv", h.ImportEnergyCSV)
					r.Get("/trends", h.GetTrends)
				})

				// Dashboard
				r.Route("/dashboard", func(r chi.Router) {
					r.Get("/", h.GetDashboard)
					r.Get("/kpis", h.GetKPIs)
					r.Get("/departments", h.GetDepartmentBreakdown)
					r.Get("/regions", h.GetRegionBreakdown)
				})

				// Carbon overrides
				r.Get("/carbon/config", h.ListCarbonConfigs)
				r.Post("/carbon/config", h.SetCarbonConfig)
				r.Get("/carbon/intensity/{region}", h.GetEffectiveIntensity)

				// What-if simulations
				r.Route("/simulate", func(r chi.Router) {
					r.Post("/growth", h.SimulateGrowth)
					r.Post("/region", h.SimulateRegion)
					r.Post("/efficiency", h.SimulateEfficiency)
					r.Get("/scenarios", h.ListScenarios)
					r.Post("/scenarios", h.SaveScenario)
				})

				// Analytics
				r.Route("/analytics", func(r chi.Router) {
					r.Get("/trends", h.GetTrends)
					r.Get("/forecast", h.GetForecast)
					r.Get("/comparison", h.GetDepartmentBreakdown)
					r.Get("/yoy", h.GetYearOverYear)
				})

				// Alerts
				r.Get("/alerts", h.ListAlerts)
				r.Get("/alerts/thresholds", h.ListThresholds)
				r.Post("/alerts/thresholds", h.ConfigureThreshold)
				r.Get("/insights", h.ListInsights)
			})
		})

		r.Route("/departments/{id}", func(r chi.Router) {
			r.Get("/", h.GetDepartment)
			r.Put("/", h.UpdateDepartment)
			r.Delete("/", h.DeleteDepartment)
		})

		r.Get("/carbon/intensities", h.ListIntensities)
		r.Post("/demo/seed", h.LoadDemo)
	})

	return r
}
