package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pitabwire/ucomparison/internal/config"
	"github.com/pitabwire/ucomparison/internal/observability"
	"github.com/pitabwire/ucomparison/internal/state"
	"github.com/pitabwire/ucomparison/model"
)

func boolPtr(b bool) *bool { return &b }

func labels(names ...string) model.LabelSet {
	ls := make([]model.Label, len(names))
	for i, n := range names {
		ls[i] = model.Label{Name: n}
	}
	return model.NewLabelSet(ls...)
}

func testDataset() *model.Dataset {
	cfg := model.DefaultConfiguration()
	cfg.Title = "Languages"
	cfg.Criteria = model.NewCriteriaSet(
		model.NewCriteria("id", model.CriteriaOptions{}),
		model.NewCriteria("lang", model.CriteriaOptions{AndSearch: boolPtr(false)}),
	)
	return &model.Dataset{
		Configuration: cfg,
		Checksum:      "abc",
		Entities: []model.Entity{
			{Name: "Alpha", Cells: map[string]model.CellValue{"id": labels("Alpha"), "lang": labels("Go")}},
			{Name: "Beta", Cells: map[string]model.CellValue{"id": labels("Beta"), "lang": labels("Rust")}},
			{Name: "Gamma", Cells: map[string]model.CellValue{"id": labels("Gamma"), "lang": labels("C")}},
		},
	}
}

func testConfig() config.SessionConfig {
	return config.SessionConfig{TTL: time.Minute, SweepInterval: time.Second, MaxSessions: 10}
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	var env *model.ErrorEnvelope
	if !errors.As(err, &env) {
		t.Fatalf("error type = %T, want *model.ErrorEnvelope", err)
	}
	return env.Code
}

// --- Create ---

func TestStore_Create(t *testing.T) {
	store := NewStore(testConfig(), nil)

	snap, err := store.Create(context.Background(), testDataset(), "")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if snap.ID == "" {
		t.Error("session ID should be set")
	}
	if snap.Version != 1 {
		t.Errorf("Version = %d, want 1", snap.Version)
	}
	if !snap.State.Loaded() {
		t.Error("state should be loaded")
	}
	if len(snap.State.RowIndexes) != 3 {
		t.Errorf("rows = %d, want 3", len(snap.State.RowIndexes))
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestStore_Create_appliesRoute(t *testing.T) {
	store := NewStore(testConfig(), nil)

	snap, err := store.Create(context.Background(), testDataset(), "search=lang:Rust&order=-id")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got := snap.State.RowIndexes; len(got) != 1 || got[0] != 1 {
		t.Errorf("RowIndexes = %v, want [1]", got)
	}
	if got := snap.State.CurrentOrder; len(got) != 1 || got[0] != "-id" {
		t.Errorf("CurrentOrder = %v, want [-id]", got)
	}
}

func TestStore_Create_noDataset(t *testing.T) {
	store := NewStore(testConfig(), nil)

	_, err := store.Create(context.Background(), nil, "")
	if code := errorCode(t, err); code != model.ErrDataNotLoaded {
		t.Errorf("code = %s, want %s", code, model.ErrDataNotLoaded)
	}
}

func TestStore_Create_limit(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.InitMetrics(reg)
	cfg := testConfig()
	cfg.MaxSessions = 2
	store := NewStore(cfg, nil, WithMetrics(metrics))

	for i := 0; i < 2; i++ {
		if _, err := store.Create(context.Background(), testDataset(), ""); err != nil {
			t.Fatalf("Create %d error: %v", i, err)
		}
	}
	_, err := store.Create(context.Background(), testDataset(), "")
	if code := errorCode(t, err); code != model.ErrSessionLimit {
		t.Errorf("code = %s, want %s", code, model.ErrSessionLimit)
	}
	if err := store.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck should fail at capacity")
	}
	if got := testutil.ToFloat64(metrics.SessionsRejectedTotal); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.SessionsActive); got != 2 {
		t.Errorf("active = %v, want 2", got)
	}
}

// --- Get ---

func TestStore_Get_notFound(t *testing.T) {
	store := NewStore(testConfig(), nil)

	_, err := store.Get(context.Background(), "missing")
	if code := errorCode(t, err); code != model.ErrSessionNotFound {
		t.Errorf("code = %s, want %s", code, model.ErrSessionNotFound)
	}
}

func TestSnapshot_View(t *testing.T) {
	store := NewStore(testConfig(), nil)
	snap, _ := store.Create(context.Background(), testDataset(), "")

	v := snap.View()
	if v.SessionID != snap.ID {
		t.Errorf("SessionID = %q, want %q", v.SessionID, snap.ID)
	}
	if v.Title != "Languages" {
		t.Errorf("Title = %q, want Languages", v.Title)
	}
	if len(v.Rows) != 3 {
		t.Errorf("rows = %d, want 3", len(v.Rows))
	}
}

// --- Dispatch ---

func TestStore_Dispatch(t *testing.T) {
	store := NewStore(testConfig(), nil)
	ctx := context.Background()
	created, _ := store.Create(ctx, testDataset(), "")

	snap, err := store.Dispatch(ctx, created.ID, state.SearchUpdated{Search: map[string][]string{"lang": {"Go"}}})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if snap.Version != 2 {
		t.Errorf("Version = %d, want 2", snap.Version)
	}
	if !snap.State.Changed {
		t.Error("Changed should be true after narrowing the rows")
	}
	if len(snap.State.RowIndexes) != 1 {
		t.Errorf("rows = %d, want 1", len(snap.State.RowIndexes))
	}

	// The earlier snapshot is untouched.
	if len(created.State.RowIndexes) != 3 {
		t.Errorf("original snapshot rows = %d, want 3", len(created.State.RowIndexes))
	}

	got, _ := store.Get(ctx, created.ID)
	if got.Version != 2 || got.State != snap.State {
		t.Error("Get should return the latest snapshot")
	}
}

func TestStore_Dispatch_notFound(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.InitMetrics(reg)
	store := NewStore(testConfig(), nil, WithMetrics(metrics))

	_, err := store.Dispatch(context.Background(), "missing", state.OrderChanged{})
	if code := errorCode(t, err); code != model.ErrSessionNotFound {
		t.Errorf("code = %s, want %s", code, model.ErrSessionNotFound)
	}
	if got := testutil.ToFloat64(metrics.ActionsTotal.WithLabelValues("ORDER_CHANGED", "error")); got != 1 {
		t.Errorf("error actions = %v, want 1", got)
	}
}

func TestStore_Dispatch_serialized(t *testing.T) {
	store := NewStore(testConfig(), nil)
	ctx := context.Background()
	created, _ := store.Create(ctx, testDataset(), "")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Dispatch(ctx, created.ID, state.OrderChanged{ColumnIndex: 0})
		}()
	}
	wg.Wait()

	snap, _ := store.Get(ctx, created.ID)
	if snap.Version != n+1 {
		t.Errorf("Version = %d, want %d", snap.Version, n+1)
	}
	// From the default +id, an even number of clicks ends ascending.
	if got := snap.State.CurrentOrder; len(got) != 1 || got[0] != "+id" {
		t.Errorf("CurrentOrder = %v, want [+id]", got)
	}
}

// --- Delete ---

func TestStore_Delete(t *testing.T) {
	store := NewStore(testConfig(), nil)
	ctx := context.Background()
	created, _ := store.Create(ctx, testDataset(), "")

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
	err := store.Delete(ctx, created.ID)
	if code := errorCode(t, err); code != model.ErrSessionNotFound {
		t.Errorf("code = %s, want %s", code, model.ErrSessionNotFound)
	}
}

// --- Broadcast ---

func TestStore_Broadcast(t *testing.T) {
	store := NewStore(testConfig(), nil)
	ctx := context.Background()
	created, _ := store.Create(ctx, testDataset(), "search=lang:Go")

	next := testDataset()
	next.Entities = append(next.Entities, model.Entity{
		Name:  "Delta",
		Cells: map[string]model.CellValue{"id": labels("Delta"), "lang": labels("Go")},
	})

	if n := store.Broadcast(ctx, next); n != 1 {
		t.Errorf("Broadcast() = %d, want 1", n)
	}

	snap, _ := store.Get(ctx, created.ID)
	if snap.State.Dataset != next {
		t.Error("session should hold the new dataset")
	}
	// The search survives the reload.
	if got := snap.State.RowIndexes; len(got) != 2 || got[0] != 0 || got[1] != 3 {
		t.Errorf("RowIndexes = %v, want [0 3]", got)
	}
}

// --- Sweep ---

func TestStore_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := prometheus.NewRegistry()
	metrics := observability.InitMetrics(reg)
	store := NewStore(testConfig(), nil, WithClock(clock), WithMetrics(metrics))
	ctx := context.Background()

	old, _ := store.Create(ctx, testDataset(), "")
	now = now.Add(45 * time.Second)
	fresh, _ := store.Create(ctx, testDataset(), "")

	now = now.Add(30 * time.Second)
	if n := store.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if _, err := store.Get(ctx, old.ID); err == nil {
		t.Error("old session should be expired")
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
	if got := testutil.ToFloat64(metrics.SessionsExpiredTotal); got != 1 {
		t.Errorf("expired = %v, want 1", got)
	}
}

func TestStore_Sweep_getRefreshesTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(testConfig(), nil, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	created, _ := store.Create(ctx, testDataset(), "")
	now = now.Add(50 * time.Second)
	_, _ = store.Get(ctx, created.ID)
	now = now.Add(50 * time.Second)

	if n := store.Sweep(); n != 0 {
		t.Errorf("Sweep() = %d, want 0", n)
	}
}

func TestStore_Run_stopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.SweepInterval = time.Millisecond
	store := NewStore(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStore_HealthCheck(t *testing.T) {
	store := NewStore(testConfig(), nil)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck error: %v", err)
	}
}
