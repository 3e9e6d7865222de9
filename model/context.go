package model

import (
	"context"
)

// RequestContext carries correlation and tracing information for the lifetime
// of one HTTP request. Middleware fills it in stages; handlers read it.
type RequestContext struct {
	RequestID  string
	SessionID  string
	ClientAddr string
	TraceID    string
	SpanID     string
}

type contextKey struct{}

// WithRequestContext attaches a RequestContext to the given context.
func WithRequestContext(ctx context.Context, rctx *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rctx)
}

// RequestContextFrom extracts the RequestContext from the context, or returns nil
// if not present.
func RequestContextFrom(ctx context.Context) *RequestContext {
	rctx, _ := ctx.Value(contextKey{}).(*RequestContext)
	return rctx
}

// TraceIDFrom returns the trace ID of the request, or "".
func TraceIDFrom(ctx context.Context) string {
	if rctx := RequestContextFrom(ctx); rctx != nil {
		return rctx.TraceID
	}
	return ""
}
