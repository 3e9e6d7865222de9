// Package watcher reloads the comparison files when they change on disk and
// publishes the new dataset.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pitabwire/ucomparison/internal/definition"
	"github.com/pitabwire/ucomparison/internal/observability"
	"github.com/pitabwire/ucomparison/model"
)

const defaultDebounce = 250 * time.Millisecond

// PublishFunc receives every newly published dataset.
type PublishFunc func(ctx context.Context, ds *model.Dataset)

// Option configures a Watcher.
type Option func(*Watcher)

// WithMetrics records reload outcomes and dataset size.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// WithPublisher registers a function called after each successful reload.
func WithPublisher(fn PublishFunc) Option {
	return func(w *Watcher) { w.publish = fn }
}

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher loads the comparison files into a registry, once on demand and
// again whenever one of them changes.
type Watcher struct {
	loader   *definition.Loader
	source   definition.Source
	registry *definition.Registry
	logger   *zap.Logger
	metrics  *observability.Metrics
	publish  PublishFunc
	debounce time.Duration

	reloadMu sync.Mutex

	mu      sync.Mutex
	lastErr error
	running bool
}

// New creates a watcher for the files in src.
func New(loader *definition.Loader, src definition.Source, registry *definition.Registry, logger *zap.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		loader:   loader,
		source:   src,
		registry: registry,
		logger:   logger,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Reload loads the files and publishes the result. A failed load keeps the
// previous dataset in place. A load whose checksum matches the published
// dataset is not published again.
func (w *Watcher) Reload(ctx context.Context) error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	ctx, span := observability.StartSpan(ctx, "dataset.reload")
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	ds, err := w.loader.Load(ctx, w.source)
	w.setLastErr(err)
	if err != nil {
		w.recordReload("failure")
		w.logger.Error("dataset load failed",
			zap.String("config_file", w.source.ConfigFile),
			zap.String("data_file", w.source.DataFile),
			zap.Error(err),
		)
		return fmt.Errorf("reloading dataset: %w", err)
	}

	span.SetAttributes(observability.DatasetAttributes(ds)...)

	if w.registry.Loaded() && w.registry.Checksum() == ds.Checksum {
		w.recordReload("unchanged")
		w.logger.Debug("dataset unchanged", zap.String("checksum", ds.Checksum))
		return nil
	}

	version := w.registry.Replace(ds)
	w.recordReload("success")
	if w.metrics != nil {
		w.metrics.SetDatasetSize(len(ds.Entities), ds.Criteria().Len())
	}
	w.logger.Info("dataset published",
		zap.Int64("version", version),
		zap.String("checksum", ds.Checksum),
		zap.Int("entities", len(ds.Entities)),
		zap.Int("criteria", ds.Criteria().Len()),
	)

	if w.publish != nil {
		w.publish(ctx, ds)
	}
	return nil
}

// Start watches the source files until ctx is cancelled. It returns once
// the watch is established. The containing directories are watched since
// editors commonly replace files instead of writing them in place.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	tracked := w.trackedFiles()
	dirs := make(map[string]struct{})
	for path := range tracked {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	w.logger.Info("watching comparison files", zap.Int("files", len(tracked)), zap.Int("directories", len(dirs)))
	go w.processEvents(ctx, fsw, tracked)
	return nil
}

// processEvents batches change events and reloads once writes settle.
func (w *Watcher) processEvents(ctx context.Context, fsw *fsnotify.Watcher, tracked map[string]struct{}) {
	defer func() {
		fsw.Close()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if _, ok := tracked[filepath.Clean(event.Name)]; !ok {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("comparison file changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			_ = w.Reload(ctx)
		}
	}
}

// HealthCheck reports the error of the most recent reload, if any.
func (w *Watcher) HealthCheck(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lastErr != nil {
		return fmt.Errorf("last reload failed: %w", w.lastErr)
	}
	return nil
}

// Running reports whether the file watch is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) trackedFiles() map[string]struct{} {
	files := make(map[string]struct{})
	for _, path := range []string{w.source.ConfigFile, w.source.DataFile, w.source.DescriptionFile} {
		if path == "" {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		files[filepath.Clean(path)] = struct{}{}
	}
	return files
}

func (w *Watcher) setLastErr(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

func (w *Watcher) recordReload(status string) {
	if w.metrics != nil {
		w.metrics.RecordDatasetReload(status)
	}
}
