// Package logging provides a small leveled facade over zap, filtered by a
// 0..3 verbosity knob.
//
// The shape mirrors the flog-style facade seen in other line-oriented
// network daemons in this corpus (amir0241-paqet's server package): a
// handful of Fooformat-like methods that a caller reaches for without
// thinking about the backing library. Here the backing library is zap
// instead of a bespoke writer — the direct-zap-usage pattern (a struct
// holding a *zap.Logger and logging with it) is grounded on
// edirooss-zmux-server's datastore package, which imports zap itself and
// logs through it rather than picking it up as someone else's transitive
// dependency.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the 0..3 verbosity knob.
//
//	0 — errors only
//	1 — + eviction/flush summaries
//	2 — + memory usage and item counts
//	3 — + per-command tracing
type Level int

const (
	LevelError Level = 0
	LevelInfo  Level = 1
	LevelUsage Level = 2
	LevelTrace Level = 3
)

// Logger filters structured log calls by the configured verbosity before
// forwarding them to zap's SugaredLogger.
type Logger struct {
	sugar     *zap.SugaredLogger
	verbosity Level
}

// New builds a Logger writing informational lines to stdout and errors to
// stderr.
func New(verbosity Level) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	stdout := zapcore.Lock(zapcore.AddSync(os.Stdout))
	stderr := zapcore.Lock(zapcore.AddSync(os.Stderr))

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, stdout, levelEnabler(func(l zapcore.Level) bool {
			return l < zapcore.ErrorLevel
		})),
		zapcore.NewCore(encoder, stderr, levelEnabler(func(l zapcore.Level) bool {
			return l >= zapcore.ErrorLevel
		})),
	)

	return &Logger{
		sugar:     zap.New(core).Sugar(),
		verbosity: verbosity,
	}
}

type levelEnabler func(zapcore.Level) bool

func (f levelEnabler) Enabled(l zapcore.Level) bool { return f(l) }

// Errorf always logs: errors are never filtered by verbosity.
func (l *Logger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Infof logs at verbosity >= LevelInfo.
func (l *Logger) Infof(format string, args ...any) {
	if l.verbosity >= LevelInfo {
		l.sugar.Infof(format, args...)
	}
}

// Usagef logs at verbosity >= LevelUsage (memory usage, item counts).
func (l *Logger) Usagef(format string, args ...any) {
	if l.verbosity >= LevelUsage {
		l.sugar.Infof(format, args...)
	}
}

// Tracef logs at verbosity >= LevelTrace (per-command tracing).
func (l *Logger) Tracef(format string, args ...any) {
	if l.verbosity >= LevelTrace {
		l.sugar.Debugf(format, args...)
	}
}

// Sync flushes any buffered log entries; call during shutdown.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
