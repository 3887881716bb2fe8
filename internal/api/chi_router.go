// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router binds a Handler to its routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil middleware factory uses the defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogging())
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	// OAuth endpoints
	r.Route("/auth/fitbit", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Use(PrometheusMetrics)
		r.Get("/", router.handler.FitbitAuthStart)
		r.Get("/callback", router.handler.FitbitAuthCallback)
	})

	// Health endpoints
	r.Route("/api/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Ingestion endpoints
	r.Route("/api/fitbit", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Get("/profile", router.handler.Profile)
		r.Get("/sleep", router.handler.Sleep)
		r.Post("/sleep", router.handler.Sleep)
		r.Get("/heart", router.handler.Heart)
		r.Post("/heart", router.handler.Heart)
		r.Get("/request/{category}", router.handler.RequestPreview)
	})

	r.Route("/api/events", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)
		r.Get("/", router.handler.Events)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
