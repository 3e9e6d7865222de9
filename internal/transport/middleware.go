package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pitabwire/ucomparison/internal/config"
	"github.com/pitabwire/ucomparison/internal/observability"
	"github.com/pitabwire/ucomparison/model"
)

// HeaderRequestID carries the request correlation ID in both directions.
const HeaderRequestID = "X-Request-Id"

// Recovery catches panics in downstream handlers, logs them, and returns
// a 500 JSON error response.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					observability.RequestLogger(r.Context(), logger).Error("panic recovered",
						zap.Any("error", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"),
					)
					WriteRequestError(w, r, model.NewInternalError())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS returns middleware that handles Cross-Origin Resource Sharing based
// on the provided configuration.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		origins[o] = true
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := fmt.Sprintf("%d", cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (origins[origin] || origins["*"]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.Header().Set("Access-Control-Expose-Headers", HeaderRequestID)
				w.Header().Set("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID reads X-Request-Id from the request header or generates a new
// one, then stores a model.RequestContext in the context and sets the
// response header. Trace and span IDs are taken from the active span.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		rctx := &model.RequestContext{
			RequestID:  id,
			ClientAddr: ClientAddr(r),
			TraceID:    observability.TraceIDFromContext(r.Context()),
			SpanID:     observability.SpanIDFromContext(r.Context()),
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(model.WithRequestContext(r.Context(), rctx)))
	})
}

// SecurityHeaders sets standard security response headers on all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// HandlerTimeout returns middleware that sets a context deadline on requests.
func HandlerTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogging logs each request with method, path, status, and duration.
// Server errors log at error level and client errors at warn.
func RequestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			log := observability.RequestLogger(r.Context(), logger)
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case ww.status >= 500:
				log.Error("request", fields...)
			case ww.status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
		})
	}
}

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	clients map[string]*rateLimitClient
	now     func() time.Time
}

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter builds a limiter from cfg. It returns nil when rate
// limiting is disabled; a nil limiter's middleware passes every request.
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger, metrics *observability.Metrics) *RateLimiter {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		ttl:     cfg.ClientTTL,
		logger:  logger,
		metrics: metrics,
		clients: make(map[string]*rateLimitClient),
		now:     time.Now,
	}
}

// Allow reports whether a request from addr may proceed.
func (l *RateLimiter) Allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[addr]
	if !ok {
		c = &rateLimitClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[addr] = c
	}
	c.lastSeen = l.now()
	return c.limiter.Allow()
}

// Middleware rejects requests over the client's rate with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := ClientAddr(r)
		if !l.Allow(addr) {
			if l.metrics != nil {
				l.metrics.RecordRateLimited()
			}
			observability.RequestLogger(r.Context(), l.logger).Warn("rate limited", zap.String("client", addr))
			w.Header().Set("Retry-After", "1")
			WriteRequestError(w, r, model.NewRateLimitedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup forgets clients idle for longer than the client TTL.
func (l *RateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	cutoff := l.now().Add(-l.ttl)
	for addr, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, addr)
			removed++
		}
	}
	return removed
}

// Run cleans up idle clients until ctx is cancelled.
func (l *RateLimiter) Run(ctx context.Context) {
	if l == nil || l.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// ClientAddr identifies the client: the first X-Forwarded-For hop, then
// X-Real-Ip, then the connection's remote host.
func ClientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// --- helpers ---

// statusWriter wraps http.ResponseWriter to capture the written status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}
