package shopping

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssignmentStore(t *testing.T) {
	a := NewAssignmentStore()

	a.Set("Eggs", "Farmers Market")
	a.Set("milk", "Costco")
	a.Set("bread", "")
	a.Set("flour", Unassigned)

	t.Run("Get", func(t *testing.T) {
		store, ok := a.Get("  EGGS ")
		if !ok || store != "Farmers Market" {
			t.Errorf("Get(eggs) = %q, %v; want Farmers Market, true", store, ok)
		}
		if _, ok := a.Get("bread"); ok {
			t.Error("Expected empty store to be ignored")
		}
		if _, ok := a.Get("flour"); ok {
			t.Error("Expected Unassigned store to be ignored")
		}
	})

	t.Run("OverwriteKeepsPosition", func(t *testing.T) {
		a.Set("eggs", "Aldi")
		want := [][2]string{{"eggs", "Aldi"}, {"milk", "Costco"}}
		if diff := cmp.Diff(want, a.Pairs()); diff != "" {
			t.Errorf("Pairs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		data, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(data) != `[["eggs","Aldi"],["milk","Costco"]]` {
			t.Errorf("Unexpected encoding: %s", data)
		}

		decoded := NewAssignmentStore()
		if err := json.Unmarshal(data, decoded); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if diff := cmp.Diff(a.Pairs(), decoded.Pairs()); diff != "" {
			t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ReplaceStore", func(t *testing.T) {
		c := a.Clone()
		c.ReplaceStore("Costco", "")
		if _, ok := c.Get("milk"); ok {
			t.Error("Expected milk to be cleared")
		}
		if _, ok := a.Get("milk"); !ok {
			t.Error("Expected Clone to be independent")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		a.Clear("EGGS")
		if _, ok := a.Get("eggs"); ok {
			t.Error("Expected eggs to be cleared")
		}
		if a.Len() != 1 {
			t.Errorf("Expected 1 entry, got %d", a.Len())
		}
	})
}
