package metrics

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"

	"meal-planner/internal/database"
	"meal-planner/internal/llm"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(database.Schema()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewStore(db)
	s.now = func() time.Time { return now }
	return s
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	if err := s.RecordMeta(llm.AgentMeta{AgentName: "clipper", Usage: llm.TokenUsage{PromptTokens: 10, CompletionTokens: 5, Model: "m"}}); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}
	if err := s.RecordMeta(llm.AgentMeta{AgentName: "clipper"}); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}
	metrics := []ExecutionMetric{
		{AgentName: "clipper", Model: "m", PromptTokens: 1, CompletionTokens: 2, Timestamp: now.Add(-time.Hour)},
		{AgentName: "clipper", Model: "m", PromptTokens: 100, Timestamp: now.Add(-48 * time.Hour)},
	}
	for _, m := range metrics {
		if err := s.Record(m); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	t.Run("DailyUsage", func(t *testing.T) {
		got, err := s.GetDailyUsage(ctx, 7)
		if err != nil {
			t.Fatalf("GetDailyUsage failed: %v", err)
		}
		want := []DailyUsage{
			{Date: "2026-03-10", TotalPrompt: 11, TotalCompletion: 7, TotalExecution: 2},
			{Date: "2026-03-08", TotalPrompt: 100, TotalCompletion: 0, TotalExecution: 1},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Usage mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		n, err := s.Cleanup(ctx, 1)
		if err != nil {
			t.Fatalf("Cleanup failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 deleted record, got %d", n)
		}
		got, _ := s.GetDailyUsage(ctx, 7)
		if len(got) != 1 {
			t.Errorf("Expected one remaining day, got %+v", got)
		}
	})
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "state.json"), make([]byte, 2048), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	missing := filepath.Join(dir, "missing")

	h := GetSysHealth(dir, missing)
	if h.DiskUsage[dir] != "2.0 KB" {
		t.Errorf("Expected 2.0 KB for %s, got %q", dir, h.DiskUsage[dir])
	}
	if h.DiskUsage[missing] != "0 B" {
		t.Errorf("Expected 0 B for a missing path, got %q", h.DiskUsage[missing])
	}
	if h.Goroutines == 0 {
		t.Error("Expected a goroutine count")
	}
}
