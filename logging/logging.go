// Package logging provides the structured logger used throughout the cei-agent
// module. It is a trimmed adaptation of go.viam.com/rdk/logging: a thin
// interface over zap.SugaredLogger, without that package's net-appender and
// proto-conversion machinery, which serve rdk's distributed robot management
// and have no counterpart in a single-process planning core.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the logging surface used by every package in this module. It
// intentionally mirrors the subset of go.viam.com/rdk/logging.Logger that the
// agent actually calls.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// With returns a Logger with the given structured fields attached to
	// every subsequent entry.
	With(keysAndValues ...interface{}) Logger

	// Sublogger returns a Logger namespaced under name, following the
	// teacher's resource.Config.Name / logger.Sublogger convention.
	Sublogger(name string) Logger

	Sync() error
}

type zapLogger struct {
	sugar *zap.SugaredLogger
	name  string
}

// New constructs a production Logger: JSON-encoded, info level and above.
func New(name string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// zap.NewProductionConfig().Build() only fails on a malformed
		// config, which cannot happen with the defaults used above.
		panic(err)
	}
	return &zapLogger{sugar: z.Sugar().Named(name), name: name}
}

// NewTestLogger returns a Logger that writes to the test's own log output,
// matching the teacher's logging.NewTestLogger(t) / golog.NewTestLogger(t)
// used throughout its test suite.
func NewTestLogger(tb testing.TB) Logger {
	z := zaptest.NewLogger(tb).Sugar()
	return &zapLogger{sugar: z, name: "test"}
}

func (l *zapLogger) Debugf(template string, args ...interface{}) { l.sugar.Debugf(template, args...) }
func (l *zapLogger) Infof(template string, args ...interface{})  { l.sugar.Infof(template, args...) }
func (l *zapLogger) Warnf(template string, args ...interface{})  { l.sugar.Warnf(template, args...) }
func (l *zapLogger) Errorf(template string, args ...interface{}) { l.sugar.Errorf(template, args...) }

func (l *zapLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *zapLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *zapLogger) With(keysAndValues ...interface{}) Logger {
	return &zapLogger{sugar: l.sugar.With(keysAndValues...), name: l.name}
}

func (l *zapLogger) Sublogger(name string) Logger {
	return &zapLogger{sugar: l.sugar.Named(name), name: l.name + "." + name}
}

func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}
