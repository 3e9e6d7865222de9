package observability

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pitabwire/ucomparison/internal/config"
	"github.com/pitabwire/ucomparison/model"
)

type loggerKey struct{}

// NewLogger builds the service logger. The json format writes one object per
// line to stdout; console is meant for a terminal.
//
// Level conventions:
//   - error: dataset load failures, panics, 5xx responses
//   - warn:  4xx responses, rejected reloads, rate limited clients
//   - info:  requests, session lifecycle, dataset reloads
//   - debug: dispatched actions and the resulting query
func NewLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	enc := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	encoding := "json"
	if cfg.LogFormat == "console" {
		encoding = "console"
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeDuration = zapcore.StringDurationEncoder
	}

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}.Build(zap.Fields(zap.String("service", "ucomparison"), zap.String("version", Version)))
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom returns the context logger, then fallback, then a no-op logger.
func LoggerFrom(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}

// RequestLogger returns LoggerFrom enriched with the request's correlation
// fields: request, session, client and trace.
func RequestLogger(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	logger := LoggerFrom(ctx, fallback)

	rctx := model.RequestContextFrom(ctx)
	if rctx == nil {
		return logger
	}
	return logger.With(RequestFields(rctx)...)
}

// RequestFields lists the non-empty correlation fields of rctx.
func RequestFields(rctx *model.RequestContext) []zap.Field {
	fields := []zap.Field{zap.String("request_id", rctx.RequestID)}
	if rctx.SessionID != "" {
		fields = append(fields, zap.String("session_id", rctx.SessionID))
	}
	if rctx.ClientAddr != "" {
		fields = append(fields, zap.String("client", rctx.ClientAddr))
	}
	if rctx.TraceID != "" {
		fields = append(fields, zap.String("trace_id", rctx.TraceID))
	}
	return fields
}
