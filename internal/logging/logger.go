// Package logging builds the zap logger from configuration and hands out
// named loggers per category, so each subsystem's lines can be told apart.
package logging

import (
	"fmt"
	"sync"

	"bloodage/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryCSV     Category = "csv"     // Bloodwork parsing, row issues
	CategoryURLs    Category = "urls"    // URL generation
	CategoryBrowser Category = "browser" // Browser automation, extraction
	CategoryRender  Category = "render"  // Chart rendering
	CategoryRecord  Category = "record"  // Manual recording
)

var (
	base      = zap.NewNop()
	loggers   = make(map[Category]*zap.Logger)
	loggersMu sync.RWMutex
)

// New builds a logger from cfg. verbose forces debug level.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	if cfg.Format == "json" {
		zc.Encoding = "json"
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	zc.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zc.OutputPaths = append(zc.OutputPaths, cfg.File)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Init installs logger as the parent of every category logger.
func Init(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loggersMu.Lock()
	defer loggersMu.Unlock()
	base = logger
	loggers = make(map[Category]*zap.Logger)
}

// Get returns the named logger for category.
func Get(category Category) *zap.Logger {
	loggersMu.RLock()
	l, ok := loggers[category]
	loggersMu.RUnlock()
	if ok {
		return l
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l = base.Named(string(category))
	loggers[category] = l
	return l
}

// Convenience accessors.

func CSV() *zap.Logger     { return Get(CategoryCSV) }
func URLs() *zap.Logger    { return Get(CategoryURLs) }
func Browser() *zap.Logger { return Get(CategoryBrowser) }
func Render() *zap.Logger  { return Get(CategoryRender) }
func Record() *zap.Logger  { return Get(CategoryRecord) }
