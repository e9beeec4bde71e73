package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/minewatch/minewatch-api/internal/domain/auth"
	"github.com/minewatch/minewatch-api/internal/domain/report"
	"github.com/minewatch/minewatch-api/internal/middleware"
	"github.com/minewatch/minewatch-api/internal/pkg/jwt"
	pkgresponse "github.com/minewatch/minewatch-api/internal/pkg/response"
)

const apiVersion = "1.0.0"

type routerDeps struct {
	allowedOrigins []string
	jwt            *jwt.Service
	auth           *auth.Handler
	reports        *report.Handler
	// uploadDir is served under /uploads when photos are stored on local disk
	uploadDir string
}

func newRouter(d routerDeps) http.Handler {
	authMiddleware := middleware.Auth(d.jwt)
	optionalAuth := middleware.OptionalAuth(d.jwt)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(d.allowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.NotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.MethodNotAllowed(w)
	})

	// WebSocket endpoint (before Compress)
	r.Get("/api/v1/reports/feed", d.reports.Feed)

	// Compress for everything else
	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{
				"status":  "ok",
				"version": apiVersion,
			})
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
				pkgresponse.OK(w, map[string]string{"message": "pong"})
			})

			r.Mount("/auth", d.auth.Routes(authMiddleware))
			r.Mount("/reports", d.reports.Routes(optionalAuth, authMiddleware))
			r.Post("/locate", d.reports.Locate)
		})

		if d.uploadDir != "" {
			r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.uploadDir))))
		}
	})

	return r
}
