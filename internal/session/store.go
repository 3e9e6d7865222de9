// Package session keeps one reducer state per client. Dispatches on a
// session are serialized; snapshots handed out are never modified.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pitabwire/ucomparison/internal/config"
	"github.com/pitabwire/ucomparison/internal/observability"
	"github.com/pitabwire/ucomparison/internal/state"
	"github.com/pitabwire/ucomparison/model"
)

// Snapshot is a consistent read of one session.
type Snapshot struct {
	ID        string
	Version   int64
	State     *state.State
	CreatedAt time.Time
	LastSeen  time.Time
}

// View returns the client descriptor of the snapshot.
func (s Snapshot) View() model.ViewDescriptor {
	v := state.View(s.State)
	v.SessionID = s.ID
	return v
}

type session struct {
	id        string
	createdAt time.Time

	mu       sync.Mutex
	state    *state.State
	version  int64
	lastSeen time.Time
}

func (s *session) snapshot() Snapshot {
	return Snapshot{
		ID:        s.id,
		Version:   s.version,
		State:     s.state,
		CreatedAt: s.createdAt,
		LastSeen:  s.lastSeen,
	}
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records session and action metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides the time source. For testing.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is an in-memory session store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session

	ttl         time.Duration
	sweepEvery  time.Duration
	maxSessions int

	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore(cfg config.SessionConfig, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		sessions:    make(map[string]*session),
		ttl:         cfg.TTL,
		sweepEvery:  cfg.SweepInterval,
		maxSessions: cfg.MaxSessions,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a session on ds and applies the route in rawQuery. The
// dataset is delivered before the route so requested columns apply at once.
func (s *Store) Create(ctx context.Context, ds *model.Dataset, rawQuery string) (Snapshot, error) {
	ctx, span := observability.StartSpan(ctx, "session.create")
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	if ds == nil {
		err = model.NewDataNotLoadedError()
		return Snapshot{}, err
	}

	st := state.Reduce(state.New(), state.DataLoaded{Dataset: ds})
	st = state.Reduce(st, state.RouteChanged{QueryParams: state.QueryParams(rawQuery)})

	now := s.now()
	sess := &session{
		id:        uuid.NewString(),
		createdAt: now,
		state:     st,
		version:   1,
		lastSeen:  now,
	}

	s.mu.Lock()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordSessionRejected()
		}
		err = model.NewSessionLimitError()
		return Snapshot{}, err
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSessionCreated()
	}
	span.SetAttributes(observability.AttrSessionID.String(sess.id))
	observability.RequestLogger(ctx, s.logger).Info("session created",
		zap.String("session_id", sess.id),
		zap.Int("visible_rows", len(st.RowIndexes)),
	)
	return sess.snapshot(), nil
}

// Get returns the current snapshot of a session and refreshes its TTL.
func (s *Store) Get(_ context.Context, id string) (Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	return sess.snapshot(), nil
}

// Dispatch applies action to a session. Concurrent dispatches on the same
// session run one at a time in arrival order.
func (s *Store) Dispatch(ctx context.Context, id string, action state.Action) (Snapshot, error) {
	kind := string(action.Kind())
	ctx, span := observability.StartSpan(ctx, "session.dispatch",
		observability.AttrSessionID.String(id),
		observability.AttrAction.String(kind),
	)
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	sess, err := s.lookup(id)
	if err != nil {
		s.recordAction(kind, "error", 0, 0)
		return Snapshot{}, err
	}

	sess.mu.Lock()
	start := time.Now()
	next := state.Reduce(sess.state, action)
	elapsed := time.Since(start)
	sess.state = next
	sess.version++
	sess.lastSeen = s.now()
	snap := sess.snapshot()
	sess.mu.Unlock()

	s.recordAction(kind, "ok", elapsed, len(next.RowIndexes))
	span.SetAttributes(observability.AttrVisibleRows.Int(len(next.RowIndexes)))
	observability.RequestLogger(ctx, s.logger).Debug("action dispatched",
		zap.String("session_id", id),
		zap.String("action", kind),
		zap.Bool("changed", next.Changed),
		zap.String("query", state.Encode(next)),
	)
	return snap, nil
}

// Delete drops a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return model.NewSessionNotFoundError(id)
	}
	if s.metrics != nil {
		s.metrics.RecordSessionRemoved()
	}
	observability.RequestLogger(ctx, s.logger).Info("session deleted", zap.String("session_id", id))
	return nil
}

// Broadcast delivers a newly loaded dataset to every session. It returns the
// number of sessions updated.
func (s *Store) Broadcast(ctx context.Context, ds *model.Dataset) int {
	_, span := observability.StartSpan(ctx, "session.broadcast")
	defer span.End()

	s.mu.RLock()
	all := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	action := state.DataLoaded{Dataset: ds}
	for _, sess := range all {
		sess.mu.Lock()
		sess.state = state.Reduce(sess.state, action)
		sess.version++
		sess.mu.Unlock()
	}

	span.SetAttributes(append(observability.DatasetAttributes(ds),
		observability.AttrSessions.Int(len(all)))...)
	s.logger.Info("dataset delivered to sessions",
		zap.Int("sessions", len(all)),
		zap.String("checksum", ds.Checksum),
	)
	return len(all)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if len(expired) > 0 {
		if s.metrics != nil {
			s.metrics.RecordSessionsExpired(len(expired))
		}
		s.logger.Info("expired sessions removed", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps expired sessions until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	if s.sweepEvery <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// HealthCheck fails when the store is at capacity.
func (s *Store) HealthCheck(_ context.Context) error {
	n := s.Len()
	if s.maxSessions > 0 && n >= s.maxSessions {
		return fmt.Errorf("session store full (%d/%d)", n, s.maxSessions)
	}
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) lookup(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, model.NewSessionNotFoundError(id)
	}
	return sess, nil
}

func (s *Store) recordAction(kind, status string, d time.Duration, rows int) {
	if s.metrics != nil {
		s.metrics.RecordAction(kind, status, d, rows)
	}
}
