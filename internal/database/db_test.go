package database

import (
	"path/filepath"
	"testing"
)

func TestNewDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "planner.db")

	db, err := NewDB(dbPath, nil)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"meals", "weekly_meal_plans", "pantry_items", "family_members", "shopping_items", "execution_metrics"} {
		var name string
		err := db.SQL.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}

	t.Run("Idempotent", func(t *testing.T) {
		if err := RunMigrations(dbPath); err != nil {
			t.Fatalf("Expected re-running migrations to be a no-op, got %v", err)
		}
	})
}
