package client

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// TokenUsage represents token consumption and cost.
type TokenUsage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost_usd"`
}

func (u *TokenUsage) add(inputTokens, outputTokens int, cost float64) {
	u.InputTokens += inputTokens
	u.OutputTokens += outputTokens
	u.TotalTokens += inputTokens + outputTokens
	u.Cost += cost
}

// WorkerUsage is the usage attributed to one crew role.
type WorkerUsage struct {
	Worker      string     `json:"worker"`
	Usage       TokenUsage `json:"usage"`
	CallCount   int        `json:"call_count"`
	LastUpdated time.Time  `json:"last_updated"`
}

// UsageTracker aggregates usage across every worker. It is safe for
// concurrent use.
type UsageTracker struct {
	mu           sync.RWMutex
	total        TokenUsage
	workers      map[string]*WorkerUsage
	sessionStart time.Time
}

func NewUsageTracker() *UsageTracker {
	return &UsageTracker{
		workers:      make(map[string]*WorkerUsage),
		sessionStart: time.Now(),
	}
}

// RecordUsage adds one call to worker's and the session's totals. Calls made
// outside a worker are recorded under "unattributed".
func (t *UsageTracker) RecordUsage(worker string, inputTokens, outputTokens int, cost float64) {
	if worker == "" {
		worker = "unattributed"
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.workers[worker]
	if w == nil {
		w = &WorkerUsage{Worker: worker}
		t.workers[worker] = w
	}
	w.Usage.add(inputTokens, outputTokens, cost)
	w.CallCount++
	w.LastUpdated = time.Now()

	t.total.add(inputTokens, outputTokens, cost)
}

// Total returns the session totals.
func (t *UsageTracker) Total() TokenUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.total
}

// Worker returns the usage of a single worker.
func (t *UsageTracker) Worker(name string) TokenUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if w, ok := t.workers[name]; ok {
		return w.Usage
	}
	return TokenUsage{}
}

// Workers returns a copy of every worker's usage sorted by name.
func (t *UsageTracker) Workers() []WorkerUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]WorkerUsage, 0, len(t.workers))
	for _, w := range t.workers {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Worker < out[j].Worker })
	return out
}

// SessionDuration returns how long the tracker has been running.
func (t *UsageTracker) SessionDuration() time.Duration {
	return time.Since(t.sessionStart)
}

type usageSnapshot struct {
	Total        TokenUsage    `json:"total_usage"`
	Workers      []WorkerUsage `json:"worker_usage"`
	SessionStart time.Time     `json:"session_start"`
}

// SaveFile writes the tracker as indented JSON to path.
func (t *UsageTracker) SaveFile(path string) error {
	snapshot := usageSnapshot{
		Total:        t.Total(),
		Workers:      t.Workers(),
		SessionStart: t.sessionStart,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal usage data: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
