// Package health exposes liveness and readiness probes. Liveness is
// unconditional; readiness runs the registered dependency checks.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/trackivity/web-bff/internal/http/response"
)

type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Result struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type Runner struct {
	checks  []Check
	timeout time.Duration
}

func NewRunner(timeout time.Duration, checks ...Check) *Runner {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Runner{checks: checks, timeout: timeout}
}

func (r *Runner) Run(ctx context.Context) ([]Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results := make([]Result, 0, len(r.checks))
	healthy := true
	for _, check := range r.checks {
		res := Result{Name: check.Name, Healthy: true}
		if err := check.Probe(ctx); err != nil {
			res.Healthy = false
			res.Error = err.Error()
			healthy = false
		}
		results = append(results, res)
	}
	return results, healthy
}

func (r *Runner) Live(w http.ResponseWriter, req *http.Request) {
	response.JSON(w, req, http.StatusOK, map[string]any{"status": "ok"})
}

func (r *Runner) Ready(w http.ResponseWriter, req *http.Request) {
	results, healthy := r.Run(req.Context())
	if !healthy {
		response.Error(w, req, http.StatusServiceUnavailable, "UPSTREAM_ERROR", "dependencies not ready", map[string]any{"checks": results})
		return
	}
	response.JSON(w, req, http.StatusOK, map[string]any{"checks": results})
}

// DatabaseCheck pings the activity database. A nil db means the legacy
// endpoints are disabled, which is a healthy configuration.
func DatabaseCheck(db *gorm.DB) Check {
	return Check{Name: "database", Probe: func(ctx context.Context) error {
		if db == nil {
			return nil
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("database handle: %w", err)
		}
		return sqlDB.PingContext(ctx)
	}}
}

// BackendCheck verifies the upstream origin answers HTTP at all; any status
// counts as reachable.
func BackendCheck(baseURL string, client *http.Client) Check {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return Check{Name: "backend", Probe: func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
		if err != nil {
			return fmt.Errorf("build backend probe: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("backend unreachable: %w", err)
		}
		_ = resp.Body.Close()
		return nil
	}}
}
