package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once  sync.Once
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
)

// Logger returns the process-wide sugared logger, creating it on first use.
func Logger() *zap.SugaredLogger {
	once.Do(func() {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

		cfg := zap.NewDevelopmentConfig()
		cfg.Level = level
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

		l, err := cfg.Build()
		if err != nil {
			l = zap.NewNop()
		}
		sugar = l.Sugar()
	})
	return sugar
}

// SetVerbose switches the shared logger to debug level.
func SetVerbose(verbose bool) {
	Logger()
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}
