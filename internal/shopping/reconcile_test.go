package shopping

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestReconcile(t *testing.T) {
	derived := []ShoppingItem{
		{ID: "meal-a-eggs", Name: "eggs", Quantity: "3", Category: CategoryDairy, Store: Unassigned, Meal: "Breakfast"},
		{ID: "meal-a-milk", Name: "milk", Quantity: "1", Category: CategoryDairy, Store: Unassigned, Meal: "Breakfast"},
		{ID: "meal-b-rice", Name: "rice", Quantity: "2", Category: CategoryGrains, Store: Unassigned, Meal: "Dinner"},
	}

	t.Run("AssignmentsApplyToDerived", func(t *testing.T) {
		a := NewAssignmentStore()
		a.Set("Eggs", "Farmers Market")
		res := Reconcile(ReconcileInput{Derived: derived, Assignments: a})
		eggs := find(t, res.Items, "meal-a-eggs")
		if eggs.Store != "Farmers Market" {
			t.Errorf("Expected eggs at Farmers Market, got %q", eggs.Store)
		}
	})

	t.Run("OverrideWinsAndOrphansReported", func(t *testing.T) {
		a := NewAssignmentStore()
		a.Set("rice", "Aldi")
		res := Reconcile(ReconcileInput{
			Derived: derived,
			Overrides: map[string]Override{
				"meal-b-rice":  {Quantity: strPtr("5"), Store: strPtr("Costco"), UpdatedAt: 7},
				"meal-z-gone":  {Quantity: strPtr("1")},
				"meal-a-bacon": {Category: strPtr(CategoryMeat)},
			},
			Assignments: a,
		})
		rice := find(t, res.Items, "meal-b-rice")
		if rice.Quantity != "5" || rice.Store != "Costco" || rice.UpdatedAt != 7 {
			t.Errorf("Expected override to win, got %+v", rice)
		}
		if diff := cmp.Diff([]string{"meal-a-bacon", "meal-z-gone"}, res.Orphaned); diff != "" {
			t.Errorf("Orphaned mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("CheckedOverrideHidesLine", func(t *testing.T) {
		res := Reconcile(ReconcileInput{
			Derived:   derived,
			Overrides: map[string]Override{"meal-a-milk": {Checked: boolPtr(true)}},
		})
		if hasID(res.Items, "meal-a-milk") {
			t.Error("Expected checked override to hide milk")
		}
	})

	t.Run("ArchiveExcludesByNameAndMeal", func(t *testing.T) {
		res := Reconcile(ReconcileInput{
			Derived: derived,
			Archive: []ShoppingItem{
				{ID: "meal-a-milk", Name: "Milk", Meal: "breakfast", Checked: true},
				{ID: "meal-x-rice", Name: "rice", Meal: "Lunch", Checked: true},
			},
		})
		if hasID(res.Items, "meal-a-milk") {
			t.Error("Expected archived milk to stay out of the list")
		}
		if !hasID(res.Items, "meal-b-rice") {
			t.Error("Expected rice for another meal to stay in the list")
		}
	})

	t.Run("ManualFoldedIntoDerivedLine", func(t *testing.T) {
		manual := []ShoppingItem{
			{ID: "manual-1", Name: "Rice", Quantity: "1", IsManual: true, UpdatedAt: 3},
			{ID: "manual-2", Name: "paper towels", IsManual: true},
		}
		res := Reconcile(ReconcileInput{Derived: derived, Manual: manual})
		rice := find(t, res.Items, "meal-b-rice")
		if rice.Quantity != "3" {
			t.Errorf("Expected merged quantity 3, got %q", rice.Quantity)
		}
		if hasID(res.Items, "manual-1") {
			t.Error("Expected the folded manual item to be hidden")
		}
		towels := find(t, res.Items, "manual-2")
		if towels.Category != CategoryOther || towels.Store != Unassigned {
			t.Errorf("Expected defaults on the manual item, got %+v", towels)
		}
		if diff := cmp.Diff(map[string][]string{"meal-b-rice": {"manual-1"}}, res.Folded); diff != "" {
			t.Errorf("Folded mismatch (-want +got):\n%s", diff)
		}

		// Without the derived line the manual item stands on its own.
		res = Reconcile(ReconcileInput{Derived: derived[:2], Manual: manual})
		if got := find(t, res.Items, "manual-1"); got.Quantity != "1" {
			t.Errorf("Expected manual rice with quantity 1, got %+v", got)
		}
	})

	t.Run("DuplicateIDsLastUpdateWins", func(t *testing.T) {
		manual := []ShoppingItem{
			{ID: "manual-1", Name: "soap", Quantity: "1", UpdatedAt: 5},
			{ID: "manual-1", Name: "soap", Quantity: "2", UpdatedAt: 9},
			{ID: "manual-1", Name: "soap", Quantity: "3", UpdatedAt: 1},
		}
		res := Reconcile(ReconcileInput{Derived: derived, Manual: manual})
		seen := make(map[string]bool)
		for _, item := range res.Items {
			if seen[item.ID] {
				t.Fatalf("Duplicate id %q in working list", item.ID)
			}
			seen[item.ID] = true
		}
		if got := find(t, res.Items, "manual-1"); got.Quantity != "2" {
			t.Errorf("Expected the newest duplicate to win, got %+v", got)
		}
	})

	t.Run("MalformedInputGetsDefaults", func(t *testing.T) {
		res := Reconcile(ReconcileInput{Derived: []ShoppingItem{{ID: "meal-q-thing", Name: " thing "}}})
		want := []ShoppingItem{{ID: "meal-q-thing", Name: "thing", Category: CategoryOther, Store: Unassigned}}
		if diff := cmp.Diff(want, res.Items); diff != "" {
			t.Errorf("Defaults mismatch (-want +got):\n%s", diff)
		}
	})
}

func find(t *testing.T, items []ShoppingItem, id string) ShoppingItem {
	t.Helper()
	for _, item := range items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("Item %q not found in %+v", id, items)
	return ShoppingItem{}
}

func hasID(items []ShoppingItem, id string) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}
