package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/animus-coder/autosolve/internal/config"
)

// NewLogger builds a zap logger based on level/format/output settings.
// Logs go to stderr unless a file is configured, so stdout stays reserved
// for the streamed model output and test verdicts.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.Set(strings.ToLower(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zcfg zap.Config
	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	switch format {
	case "json":
		zcfg = zap.NewProductionConfig()
	default:
		format = "console"
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	zcfg.Level = zap.NewAtomicLevelAt(zapLevel)
	zcfg.Encoding = format
	zcfg.DisableStacktrace = zapLevel > zapcore.DebugLevel

	out := "stderr"
	if strings.TrimSpace(cfg.File) != "" {
		out = cfg.File
	}
	zcfg.OutputPaths = []string{out}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	return zcfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
