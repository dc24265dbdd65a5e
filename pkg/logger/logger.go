// Package logger builds the zap logger used across the planner and carries
// per-request fields through a context.Context.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
)

// Config holds the logger settings; it is filled from config.LoggerConfig.
type Config struct {
	Level    string
	Encoding string
	// Output is "stdout" (default) or "stderr".
	Output  string
	Service string
}

// New builds a zap.Logger. An unknown level falls back to info, an unknown
// encoding to JSON.
func New(cfg Config) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Encoding) {
	case "console":
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	var sink zapcore.WriteSyncer
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		sink = zapcore.Lock(os.Stdout)
	case "stderr":
		sink = zapcore.Lock(os.Stderr)
	default:
		return nil, fmt.Errorf("unsupported log output %q", cfg.Output)
	}

	log := zap.New(zapcore.NewCore(encoder, sink, level), zap.AddCaller())
	if cfg.Service != "" {
		log = log.With(zap.String("service", cfg.Service))
	}
	return log, nil
}

// ContextWithRequestID attaches a request ID to the provided context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	reqID, _ := ctx.Value(requestIDKey).(string)
	return reqID
}

// ContextWithUserID attaches the authenticated user to the provided context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// WithRequestID enriches base with the request and user IDs stored in ctx.
func WithRequestID(ctx context.Context, base *zap.Logger) *zap.Logger {
	if ctx == nil || base == nil {
		return base
	}
	fields := make([]zap.Field, 0, 2)
	if reqID, ok := ctx.Value(requestIDKey).(string); ok && reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}
	if userID, ok := ctx.Value(userIDKey).(string); ok && userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
