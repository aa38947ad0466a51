/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the launcher frontend

ROUTE GROUPS:
  /api/tasks/*         Task management + completion
  /api/balance         Balance summary
  /api/tiers           Rank ladder
  /api/transactions/*  Point history
  /api/apps/*          Gated app catalog
  /api/settings/*      User settings
  /api/gate/*          Gate session lifecycle
  /api/admin/*         Dev/demo operations

SECURITY NOTE:
  No authentication middleware. The server fronts a single-user
  launcher on a trusted network.

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
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Task routes
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.ListTasks)
			r.Post("/", h.CreateTask)
			r.Get("/{id}", h.GetTask)
			r.Put("/{id}", h.UpdateTask)
			r.Delete("/{id}", h.DeleteTask)
			r.Post("/{id}/complete", h.CompleteTask)
			r.Post("/{id}/uncomplete", h.UncompleteTask)
		})

		// Balance routes
		r.Get("/balance", h.GetBalance)
		r.Get("/tiers", h.ListTiers)

		// Transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Get("/daily", h.ListDailySummaries)
		})

		// App catalog routes
		r.Route("/apps", func(r chi.Router) {
			r.Get("/", h.ListApps)
			r.Post("/", h.CreateApp)
			r.Get("/{id}", h.GetApp)
			r.Put("/{id}", h.UpdateApp)
			r.Delete("/{id}", h.DeleteApp)
		})

		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.UpdateSettings)
			r.Post("/reset", h.ResetSettings)
		})

		// Gate session routes
		r.Route("/gate/sessions", func(r chi.Router) {
			r.Post("/", h.OpenGateSession)
			r.Get("/{id}", h.GetGateSession)
			r.Post("/{id}/select", h.SelectGateApp)
			r.Post("/{id}/confirm", h.ConfirmGateApp)
			r.Post("/{id}/cancel", h.CancelGateApp)
			r.Delete("/{id}", h.CloseGateSession)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/reset", h.ResetLedger)
		})
	})

	return r
}
