// Package log holds the process-wide zap logger.
package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// L returns the current logger. It is a no-op logger until SetDebug or Set is called.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Set replaces the process-wide logger
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// SetDebug installs a development logger writing to stderr when enabled
func SetDebug(enabled bool) error {
	if !enabled {
		Set(nil)
		return nil
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	Set(l)
	return nil
}
