// Package logging wraps zap with patchkeeper's process-scoped logger setup:
// always console output, optionally teed to a JSON log file under the
// configured data directory.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field re-exports the zap constructors callers need so nothing outside this
// package has to import zap directly.
type Field = zap.Field

var (
	String = zap.String
	Int    = zap.Int
	Int64  = zap.Int64
	Bool   = zap.Bool
	Err    = zap.Error
	Any    = zap.Any
)

// Config controls where and how verbosely patchkeeper logs.
type Config struct {
	// LogDir, if non-empty, also writes JSON logs to <LogDir>/patchkeeper.log.
	LogDir string
	Debug  bool
}

// Logger wraps zap.Logger with the subset of methods patchkeeper uses.
type Logger struct {
	zap *zap.Logger
}

// New builds a Logger per cfg. Console output always uses a human-readable
// encoder; file output (when LogDir is set) is JSON for later inspection.
func New(cfg Config) (*Logger, error) {
	consoleLevel := zapcore.InfoLevel
	if cfg.Debug {
		consoleLevel = zapcore.DebugLevel
	}

	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(consoleEncoderConfig)
	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), consoleLevel)

	core := zapcore.Core(consoleCore)

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, err
		}
		fileEncoderConfig := zap.NewProductionEncoderConfig()
		fileEncoderConfig.TimeKey = "timestamp"
		fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		fileEncoder := zapcore.NewJSONEncoder(fileEncoderConfig)

		logPath := filepath.Join(cfg.LogDir, "patchkeeper.log")
		file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		fileCore := zapcore.NewCore(fileEncoder, zapcore.AddSync(file), zapcore.DebugLevel)
		core = zapcore.NewTee(consoleCore, fileCore)
	}

	zl := zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{zap: zl}, nil
}

// Nop returns a logger that discards everything, for use in tests.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.zap.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.zap.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.zap.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.zap.Error(msg, fields...) }

// Named returns a child logger scoped to the given component name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{zap: l.zap.Named(name)}
}

// Sync flushes buffered log entries. Errors from syncing stderr are expected
// on some platforms and are intentionally ignored by callers.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}
