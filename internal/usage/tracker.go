// Package usage accounts for the tokens spent on brain calls.
package usage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"procagent/internal/logging"
)

const autoSaveDelay = 5 * time.Second

type trackerKey struct{}
type operationKey struct{}

// Tracker aggregates usage events and persists them to a JSON file.
type Tracker struct {
	mu            sync.Mutex
	data          Data
	filePath      string
	autoSaveDelay time.Duration
	autoSaveTimer *time.Timer
	closed        bool
}

// NewTracker creates a tracker persisting to path. Existing data at path is loaded.
func NewTracker(path string) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create usage dir: %w", err)
	}
	t := &Tracker{
		filePath:      path,
		autoSaveDelay: autoSaveDelay,
		data:          Data{Version: "1.0", Aggregate: newStats()},
	}
	if err := t.Load(); err != nil {
		logging.Get(logging.CategoryBrain).Warn("usage file %s unreadable, starting empty: %v", path, err)
		t.data = Data{Version: "1.0", Aggregate: newStats()}
	}
	return t, nil
}

func newStats() Stats {
	return Stats{
		ByProvider:  make(map[string]TokenCounts),
		ByModel:     make(map[string]TokenCounts),
		ByOperation: make(map[string]TokenCounts),
	}
}

// Load reads the usage data from disk. A missing file is not an error.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &t.data); err != nil {
		return err
	}

	agg := &t.data.Aggregate
	if agg.ByProvider == nil {
		agg.ByProvider = make(map[string]TokenCounts)
	}
	if agg.ByModel == nil {
		agg.ByModel = make(map[string]TokenCounts)
	}
	if agg.ByOperation == nil {
		agg.ByOperation = make(map[string]TokenCounts)
	}
	return nil
}

// Save writes the usage data to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0644)
}

// Record adds one event to the aggregates and schedules a save.
func (t *Tracker) Record(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	agg := &t.data.Aggregate
	agg.Calls++
	agg.Total.Add(e.InputTokens, e.OutputTokens)
	addToMap(agg.ByProvider, e.Provider, e.InputTokens, e.OutputTokens)
	addToMap(agg.ByModel, e.Model, e.InputTokens, e.OutputTokens)
	addToMap(agg.ByOperation, e.Operation, e.InputTokens, e.OutputTokens)

	// Debounced auto-save
	if t.autoSaveTimer == nil && !t.closed {
		t.autoSaveTimer = time.AfterFunc(t.autoSaveDelay, t.autoSave)
	}
}

func (t *Tracker) autoSave() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.autoSaveTimer = nil
	if err := t.saveLocked(); err != nil {
		logging.Get(logging.CategoryBrain).Warn("usage autosave failed: %v", err)
	}
}

// Close cancels a pending autosave and writes the final state.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.autoSaveTimer != nil {
		t.autoSaveTimer.Stop()
		t.autoSaveTimer = nil
	}
	return t.saveLocked()
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByProvider = copyTokenCountsMap(stats.ByProvider)
	stats.ByModel = copyTokenCountsMap(stats.ByModel)
	stats.ByOperation = copyTokenCountsMap(stats.ByOperation)
	return stats
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output int) {
	if key == "" {
		key = "unknown"
	}
	entry := m[key]
	entry.Add(input, output)
	m[key] = entry
}

// Context Helpers

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// FromContext retrieves the tracker from the context.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}

// WithOperation labels brain calls made with ctx.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey{}, operation)
}

// Track records a brain call against the tracker carried by ctx, if any.
func Track(ctx context.Context, provider, model string, input, output int) {
	t := FromContext(ctx)
	if t == nil {
		return
	}
	op, _ := ctx.Value(operationKey{}).(string)
	t.Record(Event{
		Timestamp:    time.Now(),
		Model:        model,
		Provider:     provider,
		InputTokens:  input,
		OutputTokens: output,
		Operation:    op,
	})
}
