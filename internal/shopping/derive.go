package shopping

import (
	"sort"
	"strings"

	"meal-planner/internal/planner"
)

// Derive turns the ingredients of the active meals into shopping lines.
// Lines with the same cleaned name are merged: quantities are combined with
// MergeQuantity and meal titles are joined. An ingredient is skipped when its
// name contains a pantry entry or is contained in one. Derive has no side
// effects and its result is sorted with SortItems.
func Derive(meals []planner.Meal, pantry []string) []ShoppingItem {
	stock := make([]string, 0, len(pantry))
	for _, p := range pantry {
		if key := NormalizeName(p); key != "" {
			stock = append(stock, key)
		}
	}

	var items []ShoppingItem
	index := make(map[string]int)
	for _, meal := range planner.ActiveMeals(meals) {
		for _, raw := range meal.Ingredients {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			name, quantity := ParseIngredient(raw)
			key := NormalizeName(name)
			if inPantry(key, stock) {
				continue
			}

			if i, ok := index[key]; ok {
				items[i].Quantity = MergeQuantity(items[i].Quantity, quantity)
				items[i].Meal = joinMeals(items[i].Meal, meal.Title)
				continue
			}

			index[key] = len(items)
			items = append(items, ShoppingItem{
				ID:       DerivedID(meal.ID, name),
				Name:     name,
				Quantity: quantity,
				Category: Categorize(name),
				Store:    Unassigned,
				Meal:     strings.TrimSpace(meal.Title),
			})
		}
	}

	SortItems(items)
	return items
}

// inPantry matches in both directions: "olive oil" is covered by a pantry
// entry "oil" and "oil" is covered by "olive oil". This over-matches, a pantry
// "oil" also drops "broiler chicken"; it is kept as plain substring matching.
func inPantry(name string, stock []string) bool {
	for _, p := range stock {
		if strings.Contains(name, p) || strings.Contains(p, name) {
			return true
		}
	}
	return false
}

// joinMeals appends title to a comma-separated list of meal titles unless it
// is already there.
func joinMeals(meals, title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return meals
	}
	if meals == "" {
		return title
	}
	for _, m := range strings.Split(meals, ",") {
		if strings.EqualFold(strings.TrimSpace(m), title) {
			return meals
		}
	}
	return meals + ", " + title
}

// MealsKey summarises the parts of the meals that affect derivation so that
// callers can skip recomputing when nothing relevant changed.
func MealsKey(meals []planner.Meal) string {
	parts := make([]string, 0, len(meals))
	for _, m := range meals {
		parts = append(parts, m.ID+"|"+m.Title+"|"+m.Day+"|"+strings.Join(m.Ingredients, "\x1f"))
	}
	sort.Strings(parts)
	return strings.Join(parts, "\x1e")
}
