package main

import (
	"testing"

	"meal-planner/internal/shopping"
)

func TestFormatList(t *testing.T) {
	items := []shopping.ShoppingItem{
		{Name: "rice", Quantity: "2", Category: "grains", Store: shopping.Unassigned, Meal: "Curry"},
		{Name: "coffee", Category: "beverages", Store: "Aldi"},
	}

	want := "Aldi\n  - coffee\n\nUnassigned\n  - rice (2) [Curry]\n"
	if got := formatList(items); got != want {
		t.Errorf("formatList() = %q, want %q", got, want)
	}
	if got := formatList(nil); got != "Nothing to buy.\n" {
		t.Errorf("formatList(nil) = %q", got)
	}
}
