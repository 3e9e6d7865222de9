package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Build-time variables injected via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

var startedAt = time.Now()

// HealthResponse is the liveness body.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ReadinessResponse is the readiness body, one entry per check.
type ReadinessResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// CheckResult is the result of a single readiness check.
type CheckResult struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Detail    string `json:"detail,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthChecker can verify its own health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DatasetStatus reports whether a comparison is published and which one.
type DatasetStatus interface {
	Loaded() bool
	Checksum() string
}

// ReadinessChecks lists what /ui/ready inspects. Dataset is required; a nil
// Dataset reports not ready. Sessions and Watcher are skipped when nil.
type ReadinessChecks struct {
	Dataset  DatasetStatus
	Sessions HealthChecker
	Watcher  HealthChecker
}

const checkTimeout = 2 * time.Second

// HandleHealth returns the liveness handler.
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeHealthJSON(w, http.StatusOK, HealthResponse{
			Status:        "ok",
			Version:       Version,
			Commit:        Commit,
			UptimeSeconds: int64(time.Since(startedAt).Seconds()),
		})
	}
}

// HandleReady returns the readiness handler. The service is ready once a
// dataset is published and every configured checker passes.
func HandleReady(checks ReadinessChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := map[string]CheckResult{"dataset": checkDataset(checks.Dataset)}

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for name, checker := range map[string]HealthChecker{
			"sessions": checks.Sessions,
			"watcher":  checks.Watcher,
		} {
			if checker == nil {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				res := runCheck(r.Context(), checker)
				mu.Lock()
				results[name] = res
				mu.Unlock()
			}()
		}
		wg.Wait()

		resp := ReadinessResponse{Status: "ready", Checks: results}
		status := http.StatusOK
		for _, res := range results {
			if res.Status != "ok" {
				resp.Status = "not_ready"
				status = http.StatusServiceUnavailable
				break
			}
		}
		writeHealthJSON(w, status, resp)
	}
}

func checkDataset(ds DatasetStatus) CheckResult {
	if ds == nil || !ds.Loaded() {
		return CheckResult{Status: "error", Error: "no dataset loaded"}
	}
	return CheckResult{Status: "ok", Detail: ds.Checksum()}
}

// runCheck executes a health check with a per-check timeout.
func runCheck(parent context.Context, checker HealthChecker) CheckResult {
	ctx, cancel := context.WithTimeout(parent, checkTimeout)
	defer cancel()

	start := time.Now()
	err := checker.HealthCheck(ctx)
	res := CheckResult{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		res.Status = "error"
		res.Error = err.Error()
	}
	return res
}

func writeHealthJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
