// Package logging provides config-driven categorized logging for procagent.
// Every category shares one zap core; the category is attached as a field so a
// single log stream can be filtered per subsystem.
// Until Initialize is called every logger is a no-op.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Boot/initialization
	CategoryAgent     Category = "agent"     // Agent controllers (select, synthesize)
	CategoryBrain     Category = "brain"     // Reasoning backend calls
	CategoryCognition Category = "cognition" // Extraction of decisions from brain replies
	CategoryCatalog   Category = "catalog"   // Catalog and node-code registry
	CategoryProcess   Category = "process"   // Process registry, hydration, validation
	CategoryEngine    Category = "engine"    // Process execution
	CategoryJournal   Category = "journal"   // Invocation journal
	CategoryAPI       Category = "api"       // HTTP mission API
)

// Options mirrors config.LoggingConfig to avoid circular imports.
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	File       string          // empty means stderr
	Categories map[string]bool // nil enables all categories
}

// Logger is a category-scoped logger with printf-style helpers.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu         sync.RWMutex
	base       = zap.NewNop()
	categories map[string]bool
	loggers    = make(map[Category]*Logger)
)

// Initialize builds the shared zap logger. It may be called again to
// reconfigure; previously returned loggers keep their old core.
func Initialize(opts Options) error {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(normalizeLevel(opts.Level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var cfg zap.Config
	if strings.EqualFold(opts.Format, "json") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	if opts.File != "" {
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
	} else {
		cfg.OutputPaths = []string{"stderr"}
	}

	built, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	install(built, opts.Categories)
	Get(CategoryBoot).Debug("logging initialized: level=%s format=%s", level.String(), opts.Format)
	return nil
}

// UseLogger installs an existing zap logger, typically zaptest's in tests.
func UseLogger(l *zap.Logger) {
	install(l, nil)
}

func install(l *zap.Logger, cats map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	categories = cats
	loggers = make(map[Category]*Logger)
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return "info"
	case "warning":
		return "warn"
	default:
		return strings.ToLower(strings.TrimSpace(level))
	}
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{
		category: category,
		sugar:    base.With(zap.String("cat", string(category))).Sugar(),
	}
	loggers[category] = l
	return l
}

// Sync flushes buffered entries. Call at shutdown.
func Sync() {
	mu.RLock()
	l := base
	mu.RUnlock()
	_ = l.Sync()
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With returns a logger carrying additional structured key/value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Event writes a structured entry at info level. Fields are alternating keys and values.
func (l *Logger) Event(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// DebugEvent writes a structured entry at debug level.
func (l *Logger) DebugEvent(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// WithRequestID creates a request-scoped logger for correlating one invocation.
func WithRequestID(category Category, requestID string) *Logger {
	return Get(category).With("req", requestID)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootError logs an error to the boot category
func BootError(format string, args ...interface{}) {
	Get(CategoryBoot).Error(format, args...)
}

// Agent logs to the agent category
func Agent(format string, args ...interface{}) {
	Get(CategoryAgent).Info(format, args...)
}

// AgentDebug logs debug to the agent category
func AgentDebug(format string, args ...interface{}) {
	Get(CategoryAgent).Debug(format, args...)
}

// Brain logs to the brain category
func Brain(format string, args ...interface{}) {
	Get(CategoryBrain).Info(format, args...)
}

// BrainDebug logs debug to the brain category
func BrainDebug(format string, args ...interface{}) {
	Get(CategoryBrain).Debug(format, args...)
}

// BrainError logs an error to the brain category
func BrainError(format string, args ...interface{}) {
	Get(CategoryBrain).Error(format, args...)
}

// Process logs to the process category
func Process(format string, args ...interface{}) {
	Get(CategoryProcess).Info(format, args...)
}

// ProcessWarn logs a warning to the process category
func ProcessWarn(format string, args ...interface{}) {
	Get(CategoryProcess).Warn(format, args...)
}

// EngineDebug logs debug to the engine category
func EngineDebug(format string, args ...interface{}) {
	Get(CategoryEngine).Debug(format, args...)
}

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration. Lap splits the measurement the way
// a stopwatch does: each lap returns the time since the previous lap.
type Timer struct {
	category Category
	op       string
	start    time.Time
	last     time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	now := time.Now()
	return &Timer{category: category, op: operation, start: now, last: now}
}

// Lap returns the time elapsed since the previous lap (or the start).
func (t *Timer) Lap() time.Duration {
	now := time.Now()
	d := now.Sub(t.last)
	t.last = now
	return d
}

// Elapsed returns the total time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop ends the timer and logs the duration at debug level
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
