package planner

import "time"

// Days lists the week days in planning order.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeeklyMealPlan is a snapshot of the meals that had a day assigned when the
// user saved the plan. It is never modified after it is saved.
type WeeklyMealPlan struct {
	ID        int64     `json:"id,omitempty"`
	Name      string    `json:"name"`
	WeekStart time.Time `json:"week_start"`
	Meals     []Meal    `json:"meals"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWeeklyMealPlan snapshots the active meals of the live collection.
func NewWeeklyMealPlan(name string, weekStart time.Time, meals []Meal) WeeklyMealPlan {
	active := ActiveMeals(meals)
	snapshot := make([]Meal, len(active))
	for i, m := range active {
		snapshot[i] = cloneMeal(m)
	}
	return WeeklyMealPlan{
		Name:      name,
		WeekStart: StartOfWeek(weekStart),
		Meals:     snapshot,
	}
}

// ApplyPlan returns the live collection with its day assignments replaced by
// the plan's: meals in the plan get the plan's day, every other meal is
// unassigned, and plan meals missing from the collection are appended.
func ApplyPlan(live []Meal, plan WeeklyMealPlan) []Meal {
	planned := make(map[string]Meal, len(plan.Meals))
	for _, m := range plan.Meals {
		planned[m.ID] = m
	}

	result := make([]Meal, 0, len(live)+len(plan.Meals))
	seen := make(map[string]struct{}, len(live))
	for _, m := range live {
		m = cloneMeal(m)
		if p, ok := planned[m.ID]; ok {
			m.Day = p.Day
		} else {
			m.Day = ""
		}
		seen[m.ID] = struct{}{}
		result = append(result, m)
	}

	for _, m := range plan.Meals {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		result = append(result, cloneMeal(m))
	}
	return result
}

// StartOfWeek returns the Monday (00:00 UTC) of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GetNextMonday returns the start of the week following t.
func GetNextMonday(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 7)
}

func cloneMeal(m Meal) Meal {
	m.Ingredients = append([]string(nil), m.Ingredients...)
	m.DietaryPreferences = append([]string(nil), m.DietaryPreferences...)
	if m.LastUsed != nil {
		t := *m.LastUsed
		m.LastUsed = &t
	}
	return m
}
