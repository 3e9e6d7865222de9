// Package integration provides a reusable test harness for end-to-end
// testing of the comparison service. It writes a comparison to a temporary
// directory and serves it over a real HTTP server with hot reload enabled.
package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pitabwire/ucomparison/internal/config"
	"github.com/pitabwire/ucomparison/internal/definition"
	"github.com/pitabwire/ucomparison/internal/observability"
	"github.com/pitabwire/ucomparison/internal/session"
	"github.com/pitabwire/ucomparison/internal/transport"
	"github.com/pitabwire/ucomparison/internal/watcher"
	"github.com/pitabwire/ucomparison/model"
)

// DefaultComparison is the configuration written when no override is set.
const DefaultComparison = `title: Databases
criteria:
  - id:
      name: Name
  - License:
      andSearch: false
  - Written in:
      andSearch: false
`

// DefaultData is the data file written when no override is set.
const DefaultData = `[
  {"tag": "Postgres - https://postgresql.org", "descr": "Relational",
   "License": {"plain": "", "childs": {"0": [[{"content": "PostgreSQL", "plain": "PostgreSQL\n", "plainChilds": "", "childs": []}]]}},
   "Written in": {"plain": "", "childs": {"0": [[{"content": "C", "plain": "C\n", "plainChilds": "", "childs": []}]]}}},
  {"tag": "CockroachDB - https://cockroachlabs.com", "descr": "Distributed",
   "License": {"plain": "", "childs": {"0": [[{"content": "BSL", "plain": "BSL\n", "plainChilds": "", "childs": []}]]}},
   "Written in": {"plain": "", "childs": {"0": [[{"content": "Go", "plain": "Go\n", "plainChilds": "", "childs": []}]]}}}
]
`

// TestHarness is a fully wired service instance backed by files in a
// temporary directory.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server
	dir    string

	Registry *definition.Registry
	Sessions *session.Store
	Watcher  *watcher.Watcher
	Metrics  *observability.Metrics
	Gatherer *prometheus.Registry
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	comparison string
	data       string
	rateLimit  config.RateLimitConfig
}

// WithComparison overrides the comparison.yml contents.
func WithComparison(yml string) HarnessOption {
	return func(c *harnessConfig) { c.comparison = yml }
}

// WithData overrides the data.json contents.
func WithData(data string) HarnessOption {
	return func(c *harnessConfig) { c.data = data }
}

// WithRateLimit enables per-client action rate limiting.
func WithRateLimit(rps float64, burst int) HarnessOption {
	return func(c *harnessConfig) {
		c.rateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: rps, Burst: burst, ClientTTL: time.Minute}
	}
}

// NewTestHarness writes the comparison files, loads them, starts the file
// watcher and an HTTP server. Everything is torn down when the test ends.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{comparison: DefaultComparison, data: DefaultData}
	for _, opt := range opts {
		opt(hc)
	}

	h := &TestHarness{t: t, dir: t.TempDir()}
	h.WriteFile("comparison.yml", hc.comparison)
	h.WriteFile("data.json", hc.data)

	cfg := config.Defaults()
	cfg.Comparison.ConfigFile = h.path("comparison.yml")
	cfg.Comparison.DataFile = h.path("data.json")
	cfg.Comparison.DescriptionFile = ""
	cfg.RateLimit = hc.rateLimit

	logger := zap.NewNop()
	h.Gatherer = prometheus.NewRegistry()
	h.Metrics = observability.InitMetrics(h.Gatherer)

	h.Registry = definition.NewRegistry(nil)
	h.Sessions = session.NewStore(cfg.Session, logger, session.WithMetrics(h.Metrics))
	h.Watcher = watcher.New(definition.NewLoader(), definition.Source{
		ConfigFile: cfg.Comparison.ConfigFile,
		DataFile:   cfg.Comparison.DataFile,
	}, h.Registry, logger,
		watcher.WithMetrics(h.Metrics),
		watcher.WithDebounce(20*time.Millisecond),
		watcher.WithPublisher(func(ctx context.Context, ds *model.Dataset) {
			h.Sessions.Broadcast(ctx, ds)
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := h.Watcher.Reload(ctx); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	if err := h.Watcher.Start(ctx); err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:         cfg,
		Logger:         logger,
		Registry:       h.Registry,
		Sessions:       h.Sessions,
		Metrics:        h.Metrics,
		MetricsHandler: observability.HandlerFor(h.Gatherer),
		RateLimiter:    transport.NewRateLimiter(cfg.RateLimit, logger, h.Metrics),
		Readiness: observability.ReadinessChecks{
			Sessions: h.Sessions,
			Watcher:  h.Watcher,
		},
	})

	h.server = httptest.NewServer(router)
	t.Cleanup(h.server.Close)
	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// WriteFile replaces one of the comparison files.
func (h *TestHarness) WriteFile(name, content string) {
	h.t.Helper()
	if err := os.WriteFile(h.path(name), []byte(content), 0o644); err != nil {
		h.t.Fatalf("write %s: %v", name, err)
	}
}

func (h *TestHarness) path(name string) string {
	return filepath.Join(h.dir, name)
}

// --- HTTP client helpers ---

// GET performs a GET request.
func (h *TestHarness) GET(path string) *http.Response {
	h.t.Helper()
	return h.doRequest("GET", path, nil)
}

// POST performs a POST request with a JSON body; a nil body sends none.
func (h *TestHarness) POST(path string, body any) *http.Response {
	h.t.Helper()
	return h.doRequest("POST", path, body)
}

// DELETE performs a DELETE request.
func (h *TestHarness) DELETE(path string) *http.Response {
	h.t.Helper()
	return h.doRequest("DELETE", path, nil)
}

func (h *TestHarness) doRequest(method, path string, body any) *http.Response {
	h.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, h.server.URL+path, bodyReader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// CreateSession opens a session with the given query and returns its view.
func (h *TestHarness) CreateSession(query string) model.ViewDescriptor {
	h.t.Helper()
	path := "/ui/sessions"
	if query != "" {
		path += "?" + query
	}
	var v model.ViewDescriptor
	h.AssertJSON(h.t, h.POST(path, nil), http.StatusCreated, &v)
	return v
}

// Dispatch sends one action to a session and returns the new view.
func (h *TestHarness) Dispatch(sessionID string, kind string, payload any) model.ViewDescriptor {
	h.t.Helper()
	var v model.ViewDescriptor
	resp := h.POST("/ui/sessions/"+sessionID+"/actions", map[string]any{"kind": kind, "payload": payload})
	h.AssertJSON(h.t, resp, http.StatusOK, &v)
	return v
}

// ParseJSON reads the response body and unmarshals it into the target.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		h.t.Fatalf("unmarshal response body: %v\nbody: %s", err, string(data))
	}
}

// AssertStatus checks that the response has the expected status code.
func (h *TestHarness) AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Errorf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
}

// AssertJSON checks that the response has the expected status and parses the body.
func (h *TestHarness) AssertJSON(t *testing.T, resp *http.Response, expected int, target any) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
	h.ParseJSON(resp, target)
}

// RowNames lists the entity names of a view's rows in order.
func RowNames(v model.ViewDescriptor) []string {
	names := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		names[i] = r.Name
	}
	return names
}
