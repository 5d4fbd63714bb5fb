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
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/employees/*      Directory lookups and eligibility
  /api/applications/*   Application lifecycle, plan, and planning content
  /api/date-changes/*   Date-change decisions
  /api/options          Sabbatical option catalog
  /api/seed             Demo data loader (dev only)

SECURITY NOTE:
  Caller identity is the X-Actor-Email header, expected to be set by the
  SSO proxy in front of the service. No authentication happens here.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, seeder *Seeder) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", actorHeader},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/{email}", h.GetEmployee)
			r.Get("/{email}/eligibility", h.GetEligibility)
		})

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", h.ListApplications)
			r.Post("/", h.CreateApplication)
			r.Get("/{id}", h.GetApplication)
			r.Delete("/{id}", h.DeleteApplication)
			r.Get("/{id}/access", h.GetAccess)
			r.Get("/{id}/conflicts", h.ListSiteConflicts)
			r.Post("/{id}/status", h.TransitionStatus)

			r.Get("/{id}/plan", h.GetPlanView)
			r.Post("/{id}/plan/submit", h.SubmitPlan)
			r.Post("/{id}/plan/decision", h.RecordPlanDecision)

			r.Post("/{id}/checklist", h.AddChecklistItem)
			r.Put("/{id}/checklist/{itemID}", h.SetChecklistItem)
			r.Post("/{id}/coverage", h.AddCoverage)
			r.Post("/{id}/links", h.AddPlanLink)
			r.Post("/{id}/messages", h.PostMessage)

			r.Get("/{id}/date-changes", h.ListDateChanges)
			r.Post("/{id}/date-changes", h.RequestDateChange)
		})

		r.Route("/date-changes", func(r chi.Router) {
			r.Post("/{id}/decision", h.DecideDateChange)
		})

		r.Get("/options", h.ListOptions)

		if seeder != nil {
			r.Post("/seed", seeder.Load)
		}
	})

	return r
}
