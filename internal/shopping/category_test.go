package shopping

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCategorize(t *testing.T) {
	tests := map[string]string{
		"rice":           CategoryGrains,
		"Milk":           CategoryDairy,
		"eggs":           CategoryDairy,
		"chicken breast": CategoryMeat,
		"chicken broth":  CategoryPantry,
		"bell pepper":    CategoryProduce,
		"black pepper":   CategorySpices,
		"frozen peas":    CategoryFrozen,
		"olive oil":      CategoryPantry,
		"cumin":          CategorySpices,
		"tortillas":      CategoryGrains,
		"paper towels":   CategoryOther,
		"":               CategoryOther,
	}
	for name, want := range tests {
		if got := Categorize(name); got != want {
			t.Errorf("Categorize(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSortItems(t *testing.T) {
	items := []ShoppingItem{
		{ID: "1", Store: Unassigned, Category: CategoryProduce},
		{ID: "2", Store: "Costco", Category: CategoryGrains},
		{ID: "3", Store: "aldi", Category: CategoryGrains},
		{ID: "4", Store: "aldi", Category: CategoryDairy},
		{ID: "5", Store: "aldi", Department: "Bakery", Category: CategoryOther},
		{ID: "6", Store: "aldi", Category: "snacks"},
		{ID: "7", Store: "aldi", Category: "beverages"},
		{ID: "8", Store: "aldi", Category: CategoryOther},
		{ID: "9", Store: "aldi", Category: CategoryDairy},
	}

	SortItems(items)

	var got []string
	for _, item := range items {
		got = append(got, item.ID)
	}
	want := []string{"5", "4", "9", "3", "8", "7", "6", "2", "1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortItems order mismatch (-want +got):\n%s", diff)
	}
}
