package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestUsageTracker_RecordUsage(t *testing.T) {
	tracker := NewUsageTracker()
	tracker.RecordUsage("Scriitor", 100, 50, 0.01)
	tracker.RecordUsage("Scriitor", 10, 5, 0.001)
	tracker.RecordUsage("", 1, 1, 0)

	w := tracker.Worker("Scriitor")
	if w.InputTokens != 110 || w.OutputTokens != 55 || w.TotalTokens != 165 {
		t.Errorf("unexpected worker usage %+v", w)
	}
	if tracker.Total().TotalTokens != 167 {
		t.Errorf("expected 167 total tokens, got %d", tracker.Total().TotalTokens)
	}

	workers := tracker.Workers()
	if len(workers) != 2 || workers[0].Worker != "Scriitor" || workers[1].Worker != "unattributed" {
		t.Fatalf("unexpected workers %+v", workers)
	}
	if workers[0].CallCount != 2 {
		t.Errorf("expected 2 calls, got %d", workers[0].CallCount)
	}
}

func TestUsageTracker_Concurrent(t *testing.T) {
	tracker := NewUsageTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordUsage("Analist", 1, 1, 0)
		}()
	}
	wg.Wait()

	if got := tracker.Total().TotalTokens; got != 100 {
		t.Errorf("expected 100 tokens, got %d", got)
	}
}

func TestUsageTracker_SaveFile(t *testing.T) {
	tracker := NewUsageTracker()
	tracker.RecordUsage("Manager", 3, 4, 0.5)

	path := filepath.Join(t.TempDir(), "usage.json")
	if err := tracker.SaveFile(path); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading usage file: %v", err)
	}
	var snapshot usageSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		t.Fatalf("invalid usage file: %v", err)
	}
	if snapshot.Total.TotalTokens != 7 || len(snapshot.Workers) != 1 || snapshot.Workers[0].Worker != "Manager" {
		t.Errorf("unexpected snapshot %+v", snapshot)
	}
}
