// Package router sets up all HTTP routes and middleware chains for the
// category console. It organizes routes into auth, admin and API groups
// with appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"catadmin/internal/handlers"
	"catadmin/internal/middleware"
	"catadmin/internal/session"
	"catadmin/web"
)

// Deps carries everything the router wires into its routes.
type Deps struct {
	Sessions *session.Store
	Admin    *handlers.Admin
	Auth     *handlers.Auth
	API      *handlers.API

	// Metrics serves /metrics. Nil disables the endpoint.
	Metrics http.Handler
	// AuthLimiter throttles login, sign-up and 2FA submissions. Nil
	// disables throttling.
	AuthLimiter *middleware.RateLimiter
	// SecureCookies marks the CSRF cookie Secure.
	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	// Health check: no auth, no CSRF.
	r.Get("/health", healthHandler)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	staticFS, _ := fs.Sub(web.StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
	})

	limit := func(next http.Handler) http.Handler { return next }
	if d.AuthLimiter != nil {
		limit = d.AuthLimiter.Middleware
	}

	// Admin routes: CSRF everywhere, auth for everything but the entry pages.
	r.Route("/admin", func(r chi.Router) {
		r.Use(chimw.RequestSize(handlers.MaxFormBytes))
		r.Use(middleware.NewCSRF(d.SecureCookies))
		r.Use(middleware.NoStore)

		// Auth pages, accessible without a session.
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Get("/login", d.Auth.LoginPage)
			r.Post("/login", d.Auth.LoginSubmit)
			r.Get("/signup", d.Auth.SignupPage)
			r.Post("/signup", d.Auth.SignupSubmit)
		})
		r.Post("/logout", d.Auth.Logout)

		// 2FA: requires a session but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(limit)
			r.Get("/2fa/setup", d.Auth.TwoFASetupPage)
			r.Post("/2fa/setup", d.Auth.TwoFAVerifySubmit)
			r.Get("/2fa/verify", d.Auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", d.Auth.TwoFAVerifySubmit)
		})

		// Authenticated + 2FA-verified admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/", d.Admin.Dashboard)
			r.Get("/dashboard", d.Admin.Dashboard)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", d.Admin.CategoriesList)
				r.Get("/new", d.Admin.CategoryNew)
				r.Get("/slug", d.Admin.SlugPreview)
				r.Post("/", d.Admin.CategoryCreate)
				r.Get("/{id}", d.Admin.CategoryEdit)
				r.Get("/{id}/edit", d.Admin.CategoryEdit)
				r.Post("/{id}", d.Admin.CategoryUpdate)
				r.Put("/{id}", d.Admin.CategoryUpdate)
				r.Delete("/{id}", d.Admin.CategoryDelete)
				r.Post("/{id}/delete", d.Admin.CategoryDelete)
				r.Post("/{id}/status", d.Admin.CategoryStatus)
			})
		})
	})

	// Read-only JSON API for signed-in operators.
	r.Route("/api/categories", func(r chi.Router) {
		r.Use(middleware.RequireAPIAuth)
		r.Use(middleware.NoStore)
		r.Get("/", d.API.List)
		r.Get("/featured", d.API.Featured)
		r.Get("/active", d.API.Active)
		r.Get("/top-level", d.API.TopLevel)
		r.Get("/tree", d.API.Tree)
		r.Get("/{id}", d.API.Get)
		r.Get("/{id}/children", d.API.Children)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
