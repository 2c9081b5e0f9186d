// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annotato/annotato/internal/auth"
	custommw "github.com/annotato/annotato/internal/middleware"
)

// NewRouter builds the HTTP route tree.
//
// The websocket route skips the metrics middleware: its response wrapper
// does not implement http.Hijacker, which the upgrade needs.
func NewRouter(h *Handler, authmw *auth.Middleware) http.Handler {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommw.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(custommw.PrometheusMetrics).Group(func(r chi.Router) {
			r.Get("/health", h.Health)

			// Public endpoints; login gets its own tight rate limit.
			r.Post("/users", h.Register)
			r.With(httprate.LimitByIP(h.cfg.Security.LoginRateLimitPerMinute, time.Minute)).
				Post("/auth/login", h.Login)

			// Authenticated data endpoints.
			r.Group(func(r chi.Router) {
				r.Use(httprate.LimitByIP(h.cfg.Security.RateLimitPerMinute, time.Minute))
				r.Use(authmw.Authenticate)

				r.Get("/user", h.CurrentUser)

				r.Get("/projects", h.ListProjects)
				r.Post("/projects", h.CreateProject)
				r.Get("/projects/{projectID}", h.GetProject)

				r.Post("/projects/{projectID}/files", h.UploadFile)
				r.Get("/files/{fileID}", h.DownloadFile)
				r.Delete("/files/{fileID}", h.DeleteFile)

				r.Get("/projects/{projectID}/annotations", h.ListAnnotations)
				r.Post("/projects/{projectID}/annotations", h.CreateAnnotation)
				r.Put("/annotations/{annotationID}", h.UpdateAnnotation)
				r.Delete("/annotations/{annotationID}", h.DeleteAnnotation)
			})
		})

		// Live channel: authenticated, no metrics wrapper.
		r.With(authmw.Authenticate).Get("/projects/{projectID}/ws", h.Live)
	})

	return r
}
