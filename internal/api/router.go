package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each backend probe on /api/health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus exposition
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// No auth required
		r.Get("/status", s.handleStatus)
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware(false))

			r.Get("/metrics", s.handleMetrics)

			r.Route("/lights", func(r chi.Router) {
				r.Get("/", s.handleListLights)
				r.Get("/{id}", s.handleGetLight)
				r.Put("/{id}/state", s.handleSetLightState)
			})

			r.Route("/plugs", func(r chi.Router) {
				r.Get("/", s.handleListPlugs)
				r.Get("/{id}", s.handleGetPlug)
				r.Put("/{id}/state", s.handleSetPlugState)
			})

			r.Route("/hue", func(r chi.Router) {
				r.Put("/config/add", s.handleAddBridge)
				r.Delete("/config/{bridgeId}", s.handleDeleteBridge)
				r.Get("/init/{bridgeId}", s.handlePairBridge)
				r.Get("/bridges", s.handleListBridges)
				r.Get("/scenes/{bridgeId}", s.handleListScenes)
				r.Put("/scenes/{bridgeId}/{groupId}/{sceneId}", s.handleActivateScene)
			})
		})

		// Streams also accept ?token= since browsers cannot set headers there
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware(true))
			r.Get("/sse", s.handleSSE)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleStatus is a liveness probe.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "OK",
		"version": s.version,
	})
}

// handleHealth probes the database and the optional MQTT and InfluxDB
// backends. Only a database failure makes the service unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "unavailable"}
	if s.db != nil {
		checks["database"] = probe(r.Context(), s.db)
	}
	if s.mqtt != nil {
		checks["mqtt"] = probe(r.Context(), s.mqtt)
	}
	if s.influx != nil {
		checks["influxdb"] = probe(r.Context(), s.influx)
	}

	status, code := "ok", http.StatusOK
	if checks["database"] != "ok" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	} else {
		for _, v := range checks {
			if v != "ok" {
				status = "degraded"
			}
		}
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}

func probe(ctx context.Context, hc HealthChecker) string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := hc.HealthCheck(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
