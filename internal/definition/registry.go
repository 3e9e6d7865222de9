package definition

import (
	"sync/atomic"

	"github.com/pitabwire/ucomparison/model"
)

// Registry holds the currently published dataset. Readers never block; a
// reload swaps the whole snapshot.
type Registry struct {
	snap    atomic.Pointer[model.Dataset]
	version atomic.Int64
}

// NewRegistry creates a Registry. ds may be nil when nothing is loaded yet.
func NewRegistry(ds *model.Dataset) *Registry {
	r := &Registry{}
	if ds != nil {
		r.Replace(ds)
	}
	return r
}

// Replace atomically publishes ds and returns the new version number.
func (r *Registry) Replace(ds *model.Dataset) int64 {
	r.snap.Store(ds)
	return r.version.Add(1)
}

// Current returns the published dataset, or nil before the first load.
func (r *Registry) Current() *model.Dataset {
	return r.snap.Load()
}

// Loaded reports whether a dataset has been published.
func (r *Registry) Loaded() bool {
	return r.snap.Load() != nil
}

// Version counts successful publications.
func (r *Registry) Version() int64 {
	return r.version.Load()
}

// Checksum returns the checksum of the published dataset.
func (r *Registry) Checksum() string {
	if ds := r.snap.Load(); ds != nil {
		return ds.Checksum
	}
	return ""
}
