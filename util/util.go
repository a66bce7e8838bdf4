package util

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerLock sync.RWMutex
)

// Logger returns the shared logger.
//
// It is a no-op logger until SetLogger is called.
func Logger() *zap.Logger {
	loggerLock.RLock()
	l := logger
	loggerLock.RUnlock()
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// SetLogger replaces the shared logger.
func SetLogger(l *zap.Logger) {
	loggerLock.Lock()
	logger = l
	loggerLock.Unlock()
}

// NewLogger makes a logger at the given level ("debug", "info",
// "warn", "error").  Development loggers are human-readable;
// production ones are JSON.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	return cfg.Build()
}
