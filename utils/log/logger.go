package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	remoteIPKey  ctxKey = "remote_ip"
	connIDKey    ctxKey = "conn_id"
)

var logger *zap.Logger

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

// Replace swaps the package logger and returns a func restoring the old one.
func Replace(l *zap.Logger) func() {
	prev := logger
	logger = l
	return func() { logger = prev }
}

func Sync() error {
	return logger.Sync()
}

func WithRequest(ctx context.Context, requestID, remoteIP string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return context.WithValue(ctx, remoteIPKey, remoteIP)
}

func WithConn(ctx context.Context, connID string) context.Context {
	return context.WithValue(ctx, connIDKey, connID)
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v, ok := ctx.Value(remoteIPKey).(string); ok && v != "" {
		fields = append(fields, zap.String("remote_ip", v))
	}
	if v, ok := ctx.Value(connIDKey).(string); ok && v != "" {
		fields = append(fields, zap.String("conn_id", v))
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}
