package handler

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Pinger interface for health check dependencies.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ValidatorProbe reports the exploit validator's availability.
type ValidatorProbe interface {
	Enabled() bool
	HealthCheck(ctx context.Context) bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db      Pinger
	redis   Pinger
	exploit ValidatorProbe
}

// HealthHandlerOption configures the health handler.
type HealthHandlerOption func(*HealthHandler)

// WithDatabase adds database health check.
func WithDatabase(db Pinger) HealthHandlerOption {
	return func(h *HealthHandler) {
		h.db = db
	}
}

// WithRedis adds Redis health check.
func WithRedis(redis Pinger) HealthHandlerOption {
	return func(h *HealthHandler) {
		h.redis = redis
	}
}

// WithExploitValidator adds the exploit validator probe.
// The validator is informational only: an unhealthy validator never
// makes the service not ready.
func WithExploitValidator(probe ValidatorProbe) HealthHandlerOption {
	return func(h *HealthHandler) {
		h.exploit = probe
	}
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(opts ...HealthHandlerOption) *HealthHandler {
	h := &HealthHandler{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles the /healthz endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status           string                 `json:"status"`
	Timestamp        time.Time              `json:"timestamp"`
	Checks           map[string]CheckResult `json:"checks,omitempty"`
	ExploitValidator *ValidatorStatus       `json:"exploit_validator,omitempty"`
}

// CheckResult represents a single health check result.
type CheckResult struct {
	Status   string `json:"status"`
	Duration string `json:"duration,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ValidatorStatus reports the exploit validator availability.
type ValidatorStatus struct {
	Enabled bool `json:"enabled"`
	Healthy bool `json:"healthy"`
}

// Ready handles the /readyz endpoint (readiness probe).
// Checks all hard dependencies and returns 503 if any are unhealthy.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckResult)
	allHealthy := true

	var wg sync.WaitGroup
	var mu sync.Mutex

	check := func(name string, pinger Pinger) {
		defer wg.Done()
		result := h.checkDependency(ctx, pinger)
		mu.Lock()
		checks[name] = result
		if result.Status != "ok" {
			allHealthy = false
		}
		mu.Unlock()
	}

	if h.db != nil {
		wg.Add(1)
		go check("database", h.db)
	}
	if h.redis != nil {
		wg.Add(1)
		go check("redis", h.redis)
	}

	var validatorStatus *ValidatorStatus
	if h.exploit != nil {
		validatorStatus = &ValidatorStatus{Enabled: h.exploit.Enabled()}
		if validatorStatus.Enabled {
			validatorStatus.Healthy = h.exploit.HealthCheck(ctx)
		}
	}

	wg.Wait()

	status := "ready"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, ReadyResponse{
		Status:           status,
		Timestamp:        time.Now().UTC(),
		Checks:           checks,
		ExploitValidator: validatorStatus,
	})
}

// ValidatorHealth handles GET /api/v1/validators/shannon/health.
// Always 200: validator availability is informational and never gates
// the service itself.
func (h *HealthHandler) ValidatorHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := ValidatorStatus{}
	if h.exploit != nil {
		status.Enabled = h.exploit.Enabled()
		if status.Enabled {
			status.Healthy = h.exploit.HealthCheck(ctx)
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// checkDependency pings a dependency and returns the result.
func (h *HealthHandler) checkDependency(ctx context.Context, pinger Pinger) CheckResult {
	start := time.Now()
	err := pinger.Ping(ctx)
	duration := time.Since(start)

	if err != nil {
		return CheckResult{
			Status:   "error",
			Duration: duration.String(),
			Error:    err.Error(),
		}
	}

	return CheckResult{
		Status:   "ok",
		Duration: duration.String(),
	}
}
