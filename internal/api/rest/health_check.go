package rest

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// HealthStatus is the outcome of a health check.
type HealthStatus string

const (
	HealthStatusPass HealthStatus = "pass"
	HealthStatusFail HealthStatus = "fail"
)

// HealthChecker checks the health of one dependency.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to the HealthChecker interface.
type CheckerFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (c CheckerFunc) Name() string                    { return c.CheckName }
func (c CheckerFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

// HealthCheckResult is one dependency's readiness report.
type HealthCheckResult struct {
	Status HealthStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// HealthResponse is the readiness endpoint body.
type HealthResponse struct {
	Status        string                       `json:"status"`
	ModelLoaded   bool                         `json:"model_loaded"`
	Version       string                       `json:"version,omitempty"`
	UptimeSeconds float64                      `json:"uptime_seconds"`
	Checks        map[string]HealthCheckResult `json:"checks,omitempty"`
}

// HealthService runs dependency checks for the health endpoints. The
// model checker gates readiness: without a loaded model the service
// cannot score and must report unhealthy.
type HealthService struct {
	checkers    []HealthChecker
	modelLoaded func() bool
	version     string
	timeout     time.Duration
	startTime   time.Time
}

// NewHealthService creates a health service. modelLoaded reports
// whether the scoring model is available.
func NewHealthService(version string, modelLoaded func() bool) *HealthService {
	return &HealthService{
		modelLoaded: modelLoaded,
		version:     version,
		timeout:     5 * time.Second,
		startTime:   time.Now(),
	}
}

// RegisterChecker adds a dependency checker.
func (h *HealthService) RegisterChecker(checker HealthChecker) {
	h.checkers = append(h.checkers, checker)
}

// LivenessHandler reports that the process is up.
func (h *HealthService) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:        "alive",
			ModelLoaded:   h.modelLoaded(),
			Version:       h.version,
			UptimeSeconds: time.Since(h.startTime).Seconds(),
		})
	}
}

// ReadinessHandler runs all checks and reports 503 when any fail or
// the model is not loaded.
func (h *HealthService) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		checks := make(map[string]HealthCheckResult, len(h.checkers))
		healthy := true

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		wg.Add(len(h.checkers))
		for _, checker := range h.checkers {
			go func(c HealthChecker) {
				defer wg.Done()

				result := HealthCheckResult{Status: HealthStatusPass}
				if err := c.Check(ctx); err != nil {
					result = HealthCheckResult{Status: HealthStatusFail, Error: err.Error()}
				}

				mu.Lock()
				checks[c.Name()] = result
				if result.Status == HealthStatusFail {
					healthy = false
				}
				mu.Unlock()
			}(checker)
		}
		wg.Wait()

		modelLoaded := h.modelLoaded()
		if !modelLoaded {
			healthy = false
		}

		response := HealthResponse{
			Status:        "healthy",
			ModelLoaded:   modelLoaded,
			Version:       h.version,
			UptimeSeconds: time.Since(h.startTime).Seconds(),
			Checks:        checks,
		}

		status := http.StatusOK
		if !healthy {
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, response)
	}
}
