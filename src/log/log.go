// Package log is the process-wide structured logger, a logr front end over zap.
package log

import (
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const rootName = "ragcompare"

var (
	current atomic.Pointer[logr.Logger]
	flushFn atomic.Pointer[func() error]
)

func init() {
	if err := Setup(true); err != nil {
		panic(err)
	}
}

// Setup replaces the global logger. Production mode writes JSON at info level and drops
// Debug (V(1)) output. Debug mode writes console lines with V(1) and V(2) enabled.
func Setup(debug bool) error {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-2))
	}
	cfg.DisableStacktrace = !debug

	zapLog, err := cfg.Build()
	if err != nil {
		return err
	}
	flush := zapLog.Sync
	flushFn.Store(&flush)
	SetLogger(zapr.NewLogger(zapLog).WithName(rootName))
	return nil
}

// SetLogger sets the global logger
func SetLogger(l logr.Logger) {
	current.Store(&l)
}

// Sync flushes buffered output of a zap logger installed by Setup.
func Sync() error {
	if fn := flushFn.Load(); fn != nil {
		return (*fn)()
	}
	return nil
}

func logger() logr.Logger {
	return *current.Load()
}

func Info(msg string, keysAndValues ...interface{}) {
	logger().Info(msg, keysAndValues...)
}

// Debug logs at V(1), hidden unless debug logging is on.
func Debug(msg string, keysAndValues ...interface{}) {
	logger().V(1).Info(msg, keysAndValues...)
}

func Error(err error, msg string, keysAndValues ...interface{}) {
	logger().Error(err, msg, keysAndValues...)
}

// WithName returns a child logger for one component, e.g. "watermill".
func WithName(name string) logr.Logger {
	return logger().WithName(name)
}
