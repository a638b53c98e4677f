package planner

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"Monday", time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"Sunday", time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"AcrossMonth", time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC), time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StartOfWeek(tt.in); !got.Equal(tt.want) {
				t.Errorf("StartOfWeek(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	next := GetNextMonday(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	if want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("GetNextMonday = %v, want %v", next, want)
	}
}

func TestApplyPlan(t *testing.T) {
	live := []Meal{
		{ID: "m1", Day: "Tuesday", Title: "Tacos"},
		{ID: "m2", Day: "Wednesday", Title: "Soup"},
		{ID: "m3", Title: "Curry"},
	}
	plan := WeeklyMealPlan{Meals: []Meal{
		{ID: "m3", Day: "Monday", Title: "Curry"},
		{ID: "m9", Day: "Friday", Title: "Pizza"},
	}}

	got := ApplyPlan(live, plan)
	want := []Meal{
		{ID: "m1", Day: "", Title: "Tacos"},
		{ID: "m2", Day: "", Title: "Soup"},
		{ID: "m3", Day: "Monday", Title: "Curry"},
		{ID: "m9", Day: "Friday", Title: "Pizza"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ApplyPlan mismatch (-want +got):\n%s", diff)
	}

	// The live collection must not be mutated.
	if live[0].Day != "Tuesday" {
		t.Errorf("ApplyPlan mutated its input: %+v", live[0])
	}
}

func TestNewWeeklyMealPlanSnapshots(t *testing.T) {
	live := []Meal{{ID: "m1", Day: "Monday", Ingredients: []string{"rice"}}}
	plan := NewWeeklyMealPlan("w", time.Now(), live)

	live[0].Ingredients[0] = "changed"
	if plan.Meals[0].Ingredients[0] != "rice" {
		t.Errorf("Expected snapshot to be independent of the live meals, got %v", plan.Meals[0].Ingredients)
	}
}
