package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base   *zap.SugaredLogger
	helper *zap.SugaredLogger
)

type ctxKey struct{}

func init() {
	SetupLogger("info")
}

// SetupLogger builds the JSON production logger at the given level.
func SetupLogger(level string) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	SetLogger(logger)
}

// SetLogger installs logger as the process logger.
func SetLogger(logger *zap.Logger) {
	base = logger.Sugar()
	helper = logger.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

func SyncLogger() {
	_ = base.Sync()
}

// WithLogger returns a context whose logger carries the extra fields.
func WithLogger(ctx context.Context, fields ...interface{}) context.Context {
	return context.WithValue(ctx, ctxKey{}, RequestLogger(ctx).With(fields...))
}

// RequestLogger returns the logger stored by WithLogger or the process logger.
func RequestLogger(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
			return logger
		}
	}
	return base
}

func LogDebug(format string, v ...interface{}) {
	helper.Debugf(format, v...)
}

func LogInfo(format string, v ...interface{}) {
	helper.Infof(format, v...)
}

func LogError(format string, v ...interface{}) {
	helper.Errorf(format, v...)
}

func LogWarning(format string, v ...interface{}) {
	helper.Warnf(format, v...)
}

func TimeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	LogDebug("%s levou %s", name, elapsed)
}
