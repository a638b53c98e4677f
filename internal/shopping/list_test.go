package shopping

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"meal-planner/internal/planner"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestList(t *testing.T) (*List, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	l := NewList(nil, []string{"Aldi", "Costco"}, 10*time.Second)
	l.now = clock.Now
	return l, clock
}

func breakfast() []planner.Meal {
	return []planner.Meal{
		{ID: "m1", Day: "Monday", Title: "Breakfast", Ingredients: []string{"1 cup milk", "6 eggs"}},
		{ID: "m2", Day: "Tuesday", Title: "Dinner", Ingredients: []string{"2 cups rice"}},
	}
}

func names(items []ShoppingItem) []string {
	var out []string
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}

func TestListSetMeals(t *testing.T) {
	l, _ := newTestList(t)

	var changes int
	l.OnChange(func() { changes++ })

	if !l.SetMeals(breakfast()) {
		t.Fatal("Expected first SetMeals to report a change")
	}
	if l.SetMeals(breakfast()) {
		t.Error("Expected identical meals to be skipped")
	}
	if changes != 1 {
		t.Errorf("Expected 1 change notification, got %d", changes)
	}

	want := []string{"milk", "eggs", "rice"}
	if diff := cmp.Diff(want, names(l.Items())); diff != "" {
		t.Errorf("Items mismatch (-want +got):\n%s", diff)
	}

	l.SetPantry([]string{"Rice"})
	if diff := cmp.Diff([]string{"milk", "eggs"}, names(l.Items())); diff != "" {
		t.Errorf("Items after pantry mismatch (-want +got):\n%s", diff)
	}
}

func TestListStoreAssignmentSurvivesRederive(t *testing.T) {
	l, _ := newTestList(t)
	l.SetMeals(breakfast())

	if _, err := l.UpdateItem("meal-m1-eggs", ItemPatch{Store: strPtr("Farmers Market")}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	// Eggs move to a different meal, so the line gets a new id.
	meals := breakfast()
	meals[0].Ingredients = []string{"1 cup milk"}
	meals = append(meals, planner.Meal{ID: "m3", Day: "Friday", Title: "Frittata", Ingredients: []string{"8 eggs"}})
	l.SetMeals(meals)

	eggs, ok := l.Item("meal-m3-eggs")
	if !ok {
		t.Fatalf("Expected a new eggs line, got %+v", l.Items())
	}
	if eggs.Store != "Farmers Market" {
		t.Errorf("Expected store Farmers Market, got %q", eggs.Store)
	}
	if diff := cmp.Diff([]string{"Aldi", "Costco", "Farmers Market"}, l.Stores()); diff != "" {
		t.Errorf("Stores mismatch (-want +got):\n%s", diff)
	}

	// Setting the store back to Unassigned forgets the choice.
	if _, err := l.UpdateItem("meal-m3-eggs", ItemPatch{Store: strPtr(Unassigned)}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if _, ok := l.Assignments().Get("eggs"); ok {
		t.Error("Expected the assignment to be cleared")
	}
}

func TestListOverridesOrphanedOnIngredientChange(t *testing.T) {
	l, _ := newTestList(t)
	l.SetMeals(breakfast())

	if _, err := l.UpdateItem("meal-m1-milk", ItemPatch{Quantity: strPtr("2 gallons")}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if milk, _ := l.Item("meal-m1-milk"); milk.Quantity != "2 gallons" {
		t.Errorf("Expected overridden quantity, got %q", milk.Quantity)
	}
	if _, err := l.UpdateItem("meal-m1-milk", ItemPatch{Name: strPtr("oat milk")}); err == nil {
		t.Error("Expected renaming a derived line to fail")
	}

	meals := breakfast()
	meals[0].Ingredients = []string{"1 cup oat milk", "6 eggs"}
	l.SetMeals(meals)
	meals[0].Ingredients = []string{"1 cup milk", "6 eggs"}
	l.SetMeals(meals)

	if milk, _ := l.Item("meal-m1-milk"); milk.Quantity != "1" {
		t.Errorf("Expected the orphaned override to be dropped, got %q", milk.Quantity)
	}
	if len(l.Snapshot().Overrides) != 0 {
		t.Errorf("Expected no overrides left, got %+v", l.Snapshot().Overrides)
	}
}

func TestListCheckAndArchive(t *testing.T) {
	l, _ := newTestList(t)
	l.SetMeals(breakfast())

	if err := l.CheckItem("meal-m1-milk"); err != nil {
		t.Fatalf("CheckItem failed: %v", err)
	}
	if _, ok := l.Item("meal-m1-milk"); ok {
		t.Fatal("Expected milk to leave the working list")
	}
	archive := l.Archive()
	if len(archive) != 1 || !archive[0].Checked {
		t.Fatalf("Expected milk in the archive, got %+v", archive)
	}

	t.Run("StaysArchivedAfterRederive", func(t *testing.T) {
		meals := breakfast()
		meals[1].Ingredients = append(meals[1].Ingredients, "1 onion")
		l.SetMeals(meals)
		if _, ok := l.Item("meal-m1-milk"); ok {
			t.Error("Expected archived milk not to come back")
		}
	})

	t.Run("CheckUnknown", func(t *testing.T) {
		if err := l.CheckItem("nope"); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("Expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("Restore", func(t *testing.T) {
		if err := l.RestoreItem("meal-m1-milk"); err != nil {
			t.Fatalf("RestoreItem failed: %v", err)
		}
		if _, ok := l.Item("meal-m1-milk"); !ok {
			t.Error("Expected milk back in the working list")
		}
		if len(l.Archive()) != 0 {
			t.Errorf("Expected an empty archive, got %+v", l.Archive())
		}
	})

	t.Run("ClearArchive", func(t *testing.T) {
		if err := l.CheckItem("meal-m1-eggs"); err != nil {
			t.Fatalf("CheckItem failed: %v", err)
		}
		l.ClearArchive()
		if _, ok := l.Item("meal-m1-eggs"); !ok {
			t.Error("Expected eggs back after clearing the archive")
		}
	})
}

func TestListManualItems(t *testing.T) {
	l, _ := newTestList(t)
	l.SetMeals(breakfast())

	t.Run("EmptyName", func(t *testing.T) {
		if _, err := l.AddItem(NewItem{Name: "  "}); err == nil {
			t.Error("Expected an error for an empty name")
		}
	})

	towels, err := l.AddItem(NewItem{Name: "Paper  towels", Store: "Costco"})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if towels.Name != "Paper towels" || towels.Category != CategoryOther || !towels.IsManual {
		t.Errorf("Unexpected manual item: %+v", towels)
	}

	t.Run("SurvivesMealChanges", func(t *testing.T) {
		l.SetMeals(nil)
		if diff := cmp.Diff([]string{"Paper towels"}, names(l.Items())); diff != "" {
			t.Errorf("Items mismatch (-want +got):\n%s", diff)
		}
		l.SetMeals(breakfast())
	})

	t.Run("UsesRememberedStore", func(t *testing.T) {
		item, err := l.AddItem(NewItem{Name: "paper towels"})
		if err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
		if item.Store != "Costco" {
			t.Errorf("Expected remembered store Costco, got %q", item.Store)
		}
		if err := l.DeleteItem(item.ID); err != nil {
			t.Fatalf("DeleteItem failed: %v", err)
		}
		if len(l.Archive()) != 0 {
			t.Error("Expected deleting a manual item not to archive it")
		}
	})

	t.Run("FoldsIntoDerivedLine", func(t *testing.T) {
		extra, err := l.AddItem(NewItem{Name: "rice", Quantity: "1"})
		if err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
		rice, _ := l.Item("meal-m2-rice")
		if rice.Quantity != "3" {
			t.Errorf("Expected merged quantity 3, got %q", rice.Quantity)
		}
		if _, ok := l.Item(extra.ID); ok {
			t.Error("Expected the manual rice to be folded away")
		}

		// Checking the line takes the folded manual item with it.
		if err := l.CheckItem("meal-m2-rice"); err != nil {
			t.Fatalf("CheckItem failed: %v", err)
		}
		for _, m := range l.Snapshot().Manual {
			if m.ID == extra.ID {
				t.Error("Expected the folded manual item to be archived with its line")
			}
		}
	})

	t.Run("AddingClearsArchive", func(t *testing.T) {
		if _, err := l.AddItem(NewItem{Name: "Rice"}); err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
		if _, ok := l.Item("meal-m2-rice"); !ok {
			t.Error("Expected re-adding rice to bring the derived line back")
		}
	})

	t.Run("UpdateManual", func(t *testing.T) {
		updated, err := l.UpdateItem(towels.ID, ItemPatch{Name: strPtr("kitchen roll"), Department: strPtr("Household")})
		if err != nil {
			t.Fatalf("UpdateItem failed: %v", err)
		}
		if updated.Name != "kitchen roll" || updated.Department != "Household" {
			t.Errorf("Unexpected update result: %+v", updated)
		}
		if _, err := l.UpdateItem("manual-missing", ItemPatch{}); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("Expected ErrItemNotFound, got %v", err)
		}
	})
}

func TestListDeleteDerivedArchives(t *testing.T) {
	l, _ := newTestList(t)
	l.SetMeals(breakfast())

	if err := l.DeleteItem("meal-m1-eggs"); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if _, ok := l.Item("meal-m1-eggs"); ok {
		t.Error("Expected eggs to be gone")
	}
	if len(l.Archive()) != 1 {
		t.Errorf("Expected the derived line in the archive, got %+v", l.Archive())
	}
}

func TestListCarryForward(t *testing.T) {
	l, _ := newTestList(t)
	l.SetMeals(breakfast())

	coffee, _ := l.AddItem(NewItem{Name: "coffee", Recurring: true})
	soap, _ := l.AddItem(NewItem{Name: "soap"})
	if _, err := l.UpdateItem("meal-m1-milk", ItemPatch{Recurring: boolPtr(true)}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	for _, id := range []string{coffee.ID, soap.ID, "meal-m1-milk"} {
		if err := l.CheckItem(id); err != nil {
			t.Fatalf("CheckItem(%s) failed: %v", id, err)
		}
	}

	if n := l.CarryForward(); n != 2 {
		t.Errorf("Expected 2 items carried forward, got %d", n)
	}
	if len(l.Archive()) != 0 {
		t.Errorf("Expected the archive to be cleared, got %+v", l.Archive())
	}

	got := make(map[string]bool)
	for _, item := range l.Items() {
		got[item.Name] = true
		if item.Checked {
			t.Errorf("Expected %q to be unchecked", item.Name)
		}
	}
	if !got["coffee"] || !got["milk"] || got["soap"] {
		t.Errorf("Unexpected items after carry forward: %v", got)
	}
}

func TestListRemoveStore(t *testing.T) {
	l, _ := newTestList(t)
	l.SetMeals(breakfast())

	item, _ := l.AddItem(NewItem{Name: "soap", Store: "Costco"})
	if _, err := l.UpdateItem("meal-m1-eggs", ItemPatch{Store: strPtr("Costco")}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	if !l.RemoveStore("Costco") {
		t.Fatal("Expected RemoveStore to succeed")
	}
	if l.RemoveStore("Costco") {
		t.Error("Expected removing a missing store to report false")
	}
	for _, id := range []string{item.ID, "meal-m1-eggs"} {
		got, _ := l.Item(id)
		if got.Store != Unassigned {
			t.Errorf("Expected %s to be Unassigned, got %q", id, got.Store)
		}
	}
	if diff := cmp.Diff([]string{"Aldi"}, l.Stores()); diff != "" {
		t.Errorf("Stores mismatch (-want +got):\n%s", diff)
	}
	if l.AddStore("aldi") {
		t.Error("Expected store names to be unique regardless of case")
	}
}

func TestListApplyRemoteChecked(t *testing.T) {
	l, clock := newTestList(t)
	l.SetMeals(breakfast())

	soap, _ := l.AddItem(NewItem{Name: "soap"})

	t.Run("StaleUpdateIgnored", func(t *testing.T) {
		if l.ApplyRemoteChecked(soap.ID, true, soap.UpdatedAt-1) {
			t.Error("Expected an older remote update to be ignored")
		}
		if _, ok := l.Item(soap.ID); !ok {
			t.Error("Expected soap to stay in the list")
		}
	})

	remoteStamp := clock.Now().Add(time.Minute).UnixMilli()
	t.Run("NewerCheckArchives", func(t *testing.T) {
		if !l.ApplyRemoteChecked(soap.ID, true, remoteStamp) {
			t.Fatal("Expected the remote check to apply")
		}
		if _, ok := l.Item(soap.ID); ok {
			t.Error("Expected soap to move to the archive")
		}
	})

	t.Run("NewerUncheckRestores", func(t *testing.T) {
		if !l.ApplyRemoteChecked(soap.ID, false, remoteStamp+1) {
			t.Fatal("Expected the remote uncheck to apply")
		}
		if _, ok := l.Item(soap.ID); !ok {
			t.Error("Expected soap back in the list")
		}
	})

	t.Run("LocalStampsStayAhead", func(t *testing.T) {
		item, _ := l.AddItem(NewItem{Name: "bleach"})
		if item.UpdatedAt <= remoteStamp+1 {
			t.Errorf("Expected local stamps after %d, got %d", remoteStamp+1, item.UpdatedAt)
		}
	})
}

func TestListPendingOverlay(t *testing.T) {
	l, clock := newTestList(t)
	l.SetMeals(breakfast())

	l.MarkPending("meal-m1-milk", Override{Checked: boolPtr(true)})
	if hasID(l.Items(), "meal-m1-milk") {
		t.Fatal("Expected the pending check to hide milk")
	}
	if state, _ := l.PendingState("meal-m1-milk"); state != PendingActive {
		t.Errorf("Expected pending, got %v", state)
	}

	t.Run("Expires", func(t *testing.T) {
		clock.t = clock.t.Add(11 * time.Second)
		expired := l.ExpirePending()
		if len(expired) != 1 {
			t.Fatalf("Expected one expired overlay, got %v", expired)
		}
		if !hasID(l.Items(), "meal-m1-milk") {
			t.Error("Expected milk to reappear once the overlay expired")
		}
	})

	t.Run("ConfirmedByRemote", func(t *testing.T) {
		l.MarkPending("meal-m1-eggs", Override{Checked: boolPtr(true)})
		l.ApplyRemoteChecked("meal-m1-eggs", true, clock.Now().UnixMilli())
		if hasID(l.Items(), "meal-m1-eggs") {
			t.Error("Expected eggs to be archived")
		}
		if _, ok := l.PendingState("meal-m1-eggs"); ok {
			t.Error("Expected the confirmed overlay to be forgotten")
		}
	})
}

func TestListStamps(t *testing.T) {
	l, _ := newTestList(t)
	var last int64
	for i := 0; i < 5; i++ {
		item, err := l.AddItem(NewItem{Name: "thing"})
		if err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
		if item.UpdatedAt <= last {
			t.Fatalf("Expected strictly increasing stamps, got %d after %d", item.UpdatedAt, last)
		}
		last = item.UpdatedAt
	}
}

func TestListSnapshotRestore(t *testing.T) {
	l, _ := newTestList(t)
	l.SetMeals(breakfast())
	l.AddStore("Farmers Market")
	if _, err := l.UpdateItem("meal-m1-eggs", ItemPatch{Store: strPtr("Farmers Market"), Quantity: strPtr("12")}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if _, err := l.AddItem(NewItem{Name: "soap", Recurring: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if err := l.CheckItem("meal-m1-milk"); err != nil {
		t.Fatalf("CheckItem failed: %v", err)
	}
	state := l.Snapshot()

	t.Run("FullState", func(t *testing.T) {
		r, _ := newTestList(t)
		r.SetMeals(breakfast())
		r.Restore(state)
		if diff := cmp.Diff(l.Items(), r.Items()); diff != "" {
			t.Errorf("Items mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(l.Archive(), r.Archive()); diff != "" {
			t.Errorf("Archive mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(l.Stores(), r.Stores()); diff != "" {
			t.Errorf("Stores mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ItemsOnlySeedsOverrides", func(t *testing.T) {
		r, _ := newTestList(t)
		r.SetMeals(breakfast())
		r.Restore(State{Items: state.Items, Archive: state.Archive})

		eggs, ok := r.Item("meal-m1-eggs")
		if !ok {
			t.Fatal("Expected eggs in the restored list")
		}
		if eggs.Quantity != "12" || eggs.Store != "Farmers Market" {
			t.Errorf("Expected hand edits to be recovered, got %+v", eggs)
		}
		if !hasID(r.Items(), state.Manual[0].ID) {
			t.Error("Expected the manual item to be recovered from the working list")
		}
	})
}
