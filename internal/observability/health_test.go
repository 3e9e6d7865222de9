package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeDataset struct {
	loaded   bool
	checksum string
}

func (f fakeDataset) Loaded() bool     { return f.loaded }
func (f fakeDataset) Checksum() string { return f.checksum }

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func healthy() HealthChecker { return checkerFunc(func(context.Context) error { return nil }) }

func failing(msg string) HealthChecker {
	return checkerFunc(func(context.Context) error { return errors.New(msg) })
}

func serveReady(t *testing.T, checks ReadinessChecks) (int, ReadinessResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	HandleReady(checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ui/ready", nil))

	var resp ReadinessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return rec.Code, resp
}

func TestHandleHealth(t *testing.T) {
	origVersion, origCommit := Version, Commit
	Version, Commit = "1.2.3", "abc1234"
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	rec := httptest.NewRecorder()
	HandleHealth().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ui/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "1.2.3" || resp.Commit != "abc1234" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.UptimeSeconds < 0 {
		t.Errorf("uptime = %d, want >= 0", resp.UptimeSeconds)
	}
}

func TestHandleReady(t *testing.T) {
	tests := []struct {
		name       string
		checks     ReadinessChecks
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "dataset only",
			checks:     ReadinessChecks{Dataset: fakeDataset{loaded: true, checksum: "abc"}},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"dataset": "ok"},
		},
		{
			name:       "nil dataset",
			checks:     ReadinessChecks{},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"dataset": "error"},
		},
		{
			name:       "dataset not loaded",
			checks:     ReadinessChecks{Dataset: fakeDataset{}, Sessions: healthy()},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"dataset": "error", "sessions": "ok"},
		},
		{
			name: "all healthy",
			checks: ReadinessChecks{
				Dataset:  fakeDataset{loaded: true},
				Sessions: healthy(),
				Watcher:  healthy(),
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"dataset": "ok", "sessions": "ok", "watcher": "ok"},
		},
		{
			name: "sessions full",
			checks: ReadinessChecks{
				Dataset:  fakeDataset{loaded: true},
				Sessions: failing("session store full (10/10)"),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"dataset": "ok", "sessions": "error"},
		},
		{
			name: "last reload failed",
			checks: ReadinessChecks{
				Dataset: fakeDataset{loaded: true},
				Watcher: failing("parsing data.json"),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"dataset": "ok", "watcher": "error"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := serveReady(t, tt.checks)
			if code != tt.wantStatus {
				t.Errorf("status = %d, want %d", code, tt.wantStatus)
			}
			wantOverall := "ready"
			if tt.wantStatus != http.StatusOK {
				wantOverall = "not_ready"
			}
			if resp.Status != wantOverall {
				t.Errorf("overall = %q, want %q", resp.Status, wantOverall)
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Errorf("checks = %v, want %v", resp.Checks, tt.wantChecks)
			}
			for name, want := range tt.wantChecks {
				if got := resp.Checks[name].Status; got != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestHandleReady_reportsChecksumAndErrors(t *testing.T) {
	_, resp := serveReady(t, ReadinessChecks{
		Dataset: fakeDataset{loaded: true, checksum: "deadbeef"},
		Watcher: failing("parsing data.json: unexpected EOF"),
	})

	if got := resp.Checks["dataset"].Detail; got != "deadbeef" {
		t.Errorf("dataset detail = %q, want deadbeef", got)
	}
	if got := resp.Checks["watcher"].Error; got != "parsing data.json: unexpected EOF" {
		t.Errorf("watcher error = %q", got)
	}
}

func TestRunCheck_timeout(t *testing.T) {
	checker := checkerFunc(func(ctx context.Context) error {
		dl, ok := ctx.Deadline()
		if !ok {
			return errors.New("no deadline")
		}
		if d := dl.Sub(startedAt); d <= 0 {
			return errors.New("deadline in the past")
		}
		return nil
	})

	if res := runCheck(context.Background(), checker); res.Status != "ok" {
		t.Errorf("status = %q, error = %q", res.Status, res.Error)
	}
}
