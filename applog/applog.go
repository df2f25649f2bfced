// Package applog provides general-purpose application logging.
//
// Logs are written as JSON lines to ~/.paierp/logs/app.log (and ai.log for
// AI provider traffic). Before Init is called every helper is a no-op, so
// packages can log unconditionally. The TUI never logs to the terminal.
package applog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu       sync.RWMutex
	logger   = zap.NewNop()
	aiLogger = zap.NewNop()
)

// Options controls where and how much is logged.
type Options struct {
	Dir     string // defaults to ~/.paierp/logs
	Level   string // debug, info, warn, error
	Console bool   // also write to stderr (serve mode)
}

// DefaultDir returns ~/.paierp/logs.
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "paierp", "logs")
	}
	return filepath.Join(homeDir, ".paierp", "logs")
}

// Init builds the application and AI loggers.
func Init(opts Options) error {
	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}

	app, err := build(level, filepath.Join(dir, "app.log"), opts.Console)
	if err != nil {
		return err
	}
	ai, err := build(level, filepath.Join(dir, "ai.log"), false)
	if err != nil {
		return err
	}

	SetLogger(app, ai.Named("ai"))
	return nil
}

func build(level zap.AtomicLevel, path string, console bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	if console {
		cfg.OutputPaths = append(cfg.OutputPaths, "stderr")
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger %s: %w", path, err)
	}
	return l, nil
}

// SetLogger swaps the loggers in use. A nil ai logger reuses app.
func SetLogger(app, ai *zap.Logger) {
	if app == nil {
		app = zap.NewNop()
	}
	if ai == nil {
		ai = app.Named("ai")
	}
	mu.Lock()
	logger, aiLogger = app, ai
	mu.Unlock()
}

// L returns the application logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// AI returns the AI interaction logger.
func AI() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return aiLogger
}

// Info logs a general info message.
func Info(format string, args ...interface{}) {
	L().Info(fmt.Sprintf(format, args...))
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	L().Error(fmt.Sprintf(format, args...))
}

// Event logs a message tagged with a category.
func Event(category string, format string, args ...interface{}) {
	L().Info(fmt.Sprintf(format, args...), zap.String("category", category))
}

// AIRequest logs an outbound AI request with its input details.
func AIRequest(operation, provider string, details map[string]string) {
	fields := []zap.Field{
		zap.String("op", operation),
		zap.String("provider", provider),
	}
	for k, v := range details {
		fields = append(fields, zap.String(k, v))
	}
	AI().Info("request", fields...)
}

// AIResponse logs the outcome of an AI request.
func AIResponse(operation, provider, response string, err error, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("op", operation),
		zap.String("provider", provider),
		zap.Duration("elapsed", elapsed),
		zap.String("response", response),
	}
	if err != nil {
		AI().Error("response", append(fields, zap.Error(err))...)
		return
	}
	AI().Info("response", fields...)
}

// Close flushes both loggers.
func Close() {
	_ = L().Sync()
	_ = AI().Sync()
}
