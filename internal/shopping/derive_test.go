package shopping

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"meal-planner/internal/planner"
)

func testMeals() []planner.Meal {
	return []planner.Meal{
		{ID: "a", Day: "Monday", Title: "MealA", Ingredients: []string{"2 cups rice", "1 tsp salt", "3 eggs"}},
		{ID: "b", Day: "Tuesday", Title: "MealB", Ingredients: []string{"1 cup rice", "1 lb chicken breast"}},
		{ID: "c", Title: "Unplanned", Ingredients: []string{"1 avocado"}},
	}
}

func TestDerive(t *testing.T) {
	got := Derive(testMeals(), []string{"Salt"})
	want := []ShoppingItem{
		{ID: "meal-a-eggs", Name: "eggs", Quantity: "3", Category: CategoryDairy, Store: Unassigned, Meal: "MealA"},
		{ID: "meal-b-chicken-breast", Name: "chicken breast", Quantity: "1", Category: CategoryMeat, Store: Unassigned, Meal: "MealB"},
		{ID: "meal-a-rice", Name: "rice", Quantity: "3", Category: CategoryGrains, Store: Unassigned, Meal: "MealA, MealB"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Derive mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveIsIdempotent(t *testing.T) {
	first := Derive(testMeals(), nil)
	second := Derive(testMeals(), nil)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Derive is not idempotent (-first +second):\n%s", diff)
	}
}

func TestDerivePantryExclusion(t *testing.T) {
	meals := []planner.Meal{{ID: "a", Day: "Monday", Title: "Salad", Ingredients: []string{
		"1 tsp salt",
		"2 tbsp oil",
		"1 cup olive oil",
		"1 head lettuce",
	}}}

	tests := []struct {
		name   string
		pantry []string
		want   []string
	}{
		{"NameEqualsEntry", []string{"salt"}, []string{"lettuce", "oil", "olive oil"}},
		{"NameInsideEntry", []string{"Olive Oil"}, []string{"lettuce", "salt"}},
		{"EntryInsideName", []string{"oil"}, []string{"lettuce", "salt"}},
		{"BlankEntryIgnored", []string{"  "}, []string{"lettuce", "oil", "olive oil", "salt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, item := range Derive(meals, tt.pantry) {
				got = append(got, item.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Derive names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeriveSameMealTitleOnce(t *testing.T) {
	meals := []planner.Meal{{ID: "a", Day: "Monday", Title: "Stew", Ingredients: []string{"1 onion", "2 onion, sliced"}}}
	got := Derive(meals, nil)
	if len(got) != 1 {
		t.Fatalf("Expected one merged line, got %+v", got)
	}
	if got[0].Meal != "Stew" || got[0].Quantity != "3" {
		t.Errorf("Expected meal 'Stew' and quantity '3', got %q and %q", got[0].Meal, got[0].Quantity)
	}
}

func TestMealsKey(t *testing.T) {
	meals := testMeals()
	reversed := []planner.Meal{meals[2], meals[1], meals[0]}
	if MealsKey(meals) != MealsKey(reversed) {
		t.Error("Expected meal order not to affect the key")
	}

	changed := testMeals()
	changed[2].Day = "Friday"
	if MealsKey(meals) == MealsKey(changed) {
		t.Error("Expected a day change to change the key")
	}

	notes := testMeals()
	notes[0].Notes = "spicy"
	if MealsKey(meals) != MealsKey(notes) {
		t.Error("Expected notes not to affect the key")
	}
}

func TestDeriveNonLatinNames(t *testing.T) {
	meals := []planner.Meal{{ID: "m1", Day: "Monday", Title: "Борщ", Ingredients: []string{"2 моркови", "1 лук", "3 картофеля"}}}

	items := Derive(meals, nil)
	if len(items) != 3 {
		t.Fatalf("Expected 3 lines, got %+v", items)
	}
	seen := make(map[string]string)
	for _, item := range items {
		if other, dup := seen[item.ID]; dup {
			t.Errorf("%q and %q share id %q", other, item.Name, item.ID)
		}
		seen[item.ID] = item.Name
	}

	l := NewList(nil, nil, 0)
	l.SetMeals(meals)
	if got := len(l.Items()); got != 3 {
		t.Errorf("Expected 3 working lines, got %d", got)
	}
}

func TestDerivedID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"eggs", "meal-m1-eggs"},
		{"Chicken  Breast", "meal-m1-chicken-breast"},
		{"морковь", "meal-m1-морковь"},
		{"豆腐", "meal-m1-豆腐"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivedID("m1", tt.name); got != tt.want {
				t.Errorf("DerivedID(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}

	distinct := []string{"olive oil", "olive-oil", "olive/oil", "!!!", "???", "½"}
	seen := make(map[string]string)
	for _, name := range distinct {
		id := DerivedID("m1", name)
		if other, dup := seen[id]; dup {
			t.Errorf("%q and %q share id %q", other, name, id)
		}
		seen[id] = name
		if id != DerivedID("m1", name) {
			t.Errorf("Expected id of %q to be stable", name)
		}
	}
}

func TestDeriveSumsAmountsWithoutUnits(t *testing.T) {
	meals := []planner.Meal{
		{ID: "a", Day: "Monday", Title: "Pilaf", Ingredients: []string{"2 cups rice"}},
		{ID: "b", Day: "Tuesday", Title: "Sushi", Ingredients: []string{"200 g rice"}},
	}
	got := Derive(meals, nil)
	if len(got) != 1 || got[0].Quantity != "202" {
		t.Errorf("Expected one rice line with quantity 202, got %+v", got)
	}
}
