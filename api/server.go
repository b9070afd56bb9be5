/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (zap, carries the request id)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus counters and latency per route pattern
  5. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/v1/housing-units/*  Units, their rents and leases
  /api/v1/persons/*        Persons
  /api/v1/leases/*         Lease lifecycle, tenants, adjustments, alerts
  /api/v1/scenarios/*      Demo scenarios
  /health                  Liveness
  /metrics                 Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/jtbgroup/immocare-sub000/logging"
	"github.com/jtbgroup/immocare-sub000/metrics"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *zap.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts Options) *chi.Mux {
	log := opts.Logger
	if log == nil {
		log = h.Log
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Housing units, with their rent history and leases
		r.Route("/housing-units", func(r chi.Router) {
			r.Get("/", h.ListHousingUnits)
			r.Post("/", h.CreateHousingUnit)
			r.Route("/{unitId}", func(r chi.Router) {
				r.Get("/", h.GetHousingUnit)
				r.Get("/leases", h.ListUnitLeases)

				r.Route("/rents", func(r chi.Router) {
					r.Get("/", h.ListRents)
					r.Post("/", h.AddRent)
					r.Get("/current", h.GetCurrentRent)
				r.Get("/at", h.GetRentAt)
					r.Put("/{rentId}", h.UpdateRent)
					r.Delete("/{rentId}", h.DeleteRent)
				})
			})
		})

		// Person routes
		r.Route("/persons", func(r chi.Router) {
			r.Get("/", h.ListPersons)
			r.Post("/", h.CreatePerson)
		})

		// Lease routes
		r.Route("/leases", func(r chi.Router) {
			r.Post("/", h.CreateLease)
			r.Get("/alerts", h.ListAlerts)
			r.Get("/alerts/export", h.ExportAlerts)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetLease)
				r.Put("/", h.UpdateLease)
				r.Patch("/status", h.ChangeLeaseStatus)
				r.Post("/tenants", h.AddLeaseTenant)
				r.Delete("/tenants/{personId}", h.RemoveLeaseTenant)
				r.Get("/rent-adjustments", h.ListAdjustments)
				r.Post("/rent-adjustments", h.AdjustRent)
			})
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
