// Package routes registers all HTTP routes for the API.
// Routes are organized by domain for maintainability.
package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	infrahttp "github.com/codegate/api/internal/infra/http"
	"github.com/codegate/api/internal/infra/http/handler"
)

// Router is an alias to the http package's Router interface.
type Router = infrahttp.Router

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health        *handler.HealthHandler
	Scan          *handler.ScanHandler
	Vulnerability *handler.VulnerabilityHandler
	Radar         *handler.RadarHandler
	Governance    *handler.GovernanceHandler
}

// Register wires all routes onto the router.
func Register(router Router, h Handlers) {
	registerHealthRoutes(router, h.Health)

	router.Group("/api/v1", func(r Router) {
		registerScanRoutes(r, h.Scan, h.Vulnerability)
		registerTrustRoutes(r, h.Radar, h.Governance)
		r.GET("/validators/shannon/health", h.Health.ValidatorHealth)
	})
}

// registerHealthRoutes registers health check endpoints.
func registerHealthRoutes(router Router, h *handler.HealthHandler) {
	router.GET("/healthz", h.Health)
	router.GET("/readyz", h.Ready)
	router.GET("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
}

// registerScanRoutes registers scan submission, retrieval and finding
// endpoints.
func registerScanRoutes(router Router, scans *handler.ScanHandler, findings *handler.VulnerabilityHandler) {
	router.Group("/scans", func(r Router) {
		r.POST("/", scans.Submit)
		r.GET("/queue", scans.QueueStatus)
		r.GET("/{id}", scans.Get)
	})

	router.Group("/repositories/{id}", func(r Router) {
		r.GET("/scans", scans.ListByRepository)
		r.GET("/findings", findings.ListByRepository)
	})

	router.POST("/findings/{id}/dismiss", findings.Dismiss)
}

// registerTrustRoutes registers radar, domain score, permission and
// merge-gate endpoints.
func registerTrustRoutes(router Router, radar *handler.RadarHandler, governance *handler.GovernanceHandler) {
	router.Group("/users/{id}", func(r Router) {
		r.GET("/radar", radar.Get)
		r.GET("/radar/history", radar.History)
		r.GET("/scores", radar.DomainScores)
		r.GET("/permissions", governance.GetPermissions)
	})

	router.POST("/merge-gate/evaluate", governance.EvaluateMergeGate)

	// Internal event ingress from the score-producing services.
	router.POST("/internal/events/domain-scores-updated", radar.DomainScoresUpdated)
}
