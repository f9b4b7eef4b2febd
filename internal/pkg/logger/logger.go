package logger

import (
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a configuration string to a zap level, defaulting to
// info for unknown input.
func ParseLevel(levelStr string) zapcore.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewZapLogger builds the process logger. Production mode emits JSON to
// stdout; development mode uses the console encoder for one-shot tooling.
func NewZapLogger(levelStr string, development bool) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(levelStr))
	return cfg.Build()
}

// InitSlogBridge routes the global slog logger through the given zap
// logger so that library code using log/slog shares one sink.
func InitSlogBridge(l *zap.Logger) {
	handler := zapslog.NewHandler(l.Core())
	slog.SetDefault(slog.New(handler))
}
