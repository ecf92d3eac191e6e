package recipecost

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// SetLogger replaces the package logger; nil restores the no-op logger. It is
// safe to call while other goroutines are logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

func Logger() *zap.Logger {
	return logger.Load()
}
