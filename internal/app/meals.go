package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meal-planner/internal/clipper"
	"meal-planner/internal/household"
	"meal-planner/internal/notice"
	"meal-planner/internal/planner"
)

// ErrInvalidInput wraps validation failures of user input.
var ErrInvalidInput = errors.New("invalid input")

// ImportFailedNotice is posted when a recipe page yields no ingredients.
const ImportFailedNotice = "Couldn't read the ingredients from that page. The meal was added; add ingredients manually."

// Meals returns the meal collection.
func (a *App) Meals(ctx context.Context) ([]planner.Meal, error) {
	return a.meals.List(ctx, a.householdID)
}

// SaveMeal creates or replaces a meal and re-derives the shopping list.
func (a *App) SaveMeal(ctx context.Context, meal planner.Meal) (planner.Meal, error) {
	meal.Title = strings.TrimSpace(meal.Title)
	if meal.Title == "" {
		return planner.Meal{}, fmt.Errorf("%w: meal title is required", ErrInvalidInput)
	}
	if meal.Day != "" && !validDay(meal.Day) {
		return planner.Meal{}, fmt.Errorf("%w: unknown day %q", ErrInvalidInput, meal.Day)
	}
	if meal.ID == "" {
		meal.ID = uuid.NewString()
	}
	if err := a.meals.Save(ctx, a.householdID, meal); err != nil {
		return planner.Meal{}, err
	}
	if err := a.refreshMeals(ctx); err != nil {
		return planner.Meal{}, err
	}
	return meal, nil
}

// DeleteMeal removes a meal and its contribution to the shopping list.
func (a *App) DeleteMeal(ctx context.Context, id string) error {
	if err := a.meals.Delete(ctx, a.householdID, id); err != nil {
		return err
	}
	return a.refreshMeals(ctx)
}

func (a *App) refreshMeals(ctx context.Context) error {
	meals, err := a.meals.List(ctx, a.householdID)
	if err != nil {
		return fmt.Errorf("failed to load meals: %w", err)
	}
	if a.list.SetMeals(meals) {
		a.logger.Debug("shopping list re-derived", zap.Int("meals", len(meals)))
	}
	return nil
}

func validDay(day string) bool {
	for _, d := range planner.Days {
		if d == day {
			return true
		}
	}
	return false
}

// ImportRecipe creates an unscheduled meal from a recipe page. When no
// ingredients can be read the meal is still created, without ingredients,
// and a notice asks the user to fill them in.
func (a *App) ImportRecipe(ctx context.Context, rawURL string) (planner.Meal, error) {
	if a.fetcher == nil {
		return planner.Meal{}, fmt.Errorf("recipe import is not configured")
	}

	meal := planner.Meal{RecipeURL: strings.TrimSpace(rawURL), Title: placeholderTitle(rawURL)}
	res, err := a.fetcher.FetchIngredients(ctx, rawURL)
	switch {
	case errors.Is(err, clipper.ErrBlockedURL):
		return planner.Meal{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case err != nil:
		a.logger.Warn("recipe import failed", zap.String("url", rawURL), zap.Error(err))
		a.notices.Post(notice.Error, ImportFailedNotice)
	default:
		if res.Title != "" {
			meal.Title = res.Title
		}
		meal.Ingredients = res.Ingredients
		a.notices.Post(notice.Info, fmt.Sprintf("Imported %d ingredients from %s.", len(res.Ingredients), meal.Title))
	}
	return a.SaveMeal(ctx, meal)
}

func placeholderTitle(rawURL string) string {
	if u, err := url.Parse(strings.TrimSpace(rawURL)); err == nil && u.Hostname() != "" {
		return "Recipe from " + strings.TrimPrefix(u.Hostname(), "www.")
	}
	return "Imported recipe"
}

// Pantry returns the pantry entries.
func (a *App) Pantry(ctx context.Context) ([]string, error) {
	return a.pantry.List(ctx, a.householdID)
}

// AddPantryItem adds an entry and hides matching meal ingredients. It
// reports false when the entry already existed.
func (a *App) AddPantryItem(ctx context.Context, name string) (bool, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return false, fmt.Errorf("%w: pantry item name is required", ErrInvalidInput)
	}
	added, err := a.pantry.Add(ctx, a.householdID, name)
	if err != nil {
		return false, err
	}
	return added, a.refreshPantry(ctx)
}

// RemovePantryItem removes an entry.
func (a *App) RemovePantryItem(ctx context.Context, name string) error {
	if err := a.pantry.Remove(ctx, a.householdID, name); err != nil {
		return err
	}
	return a.refreshPantry(ctx)
}

func (a *App) refreshPantry(ctx context.Context) error {
	pantry, err := a.pantry.List(ctx, a.householdID)
	if err != nil {
		return fmt.Errorf("failed to load pantry: %w", err)
	}
	a.list.SetPantry(pantry)
	return nil
}

// SavePlan snapshots the currently scheduled meals as a weekly plan.
func (a *App) SavePlan(ctx context.Context, name string, weekStart time.Time) (planner.WeeklyMealPlan, error) {
	meals, err := a.meals.List(ctx, a.householdID)
	if err != nil {
		return planner.WeeklyMealPlan{}, fmt.Errorf("failed to load meals: %w", err)
	}
	if weekStart.IsZero() {
		weekStart = planner.GetNextMonday(time.Now())
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Week of " + planner.StartOfWeek(weekStart).Format("2006-01-02")
	}
	plan := planner.NewWeeklyMealPlan(name, weekStart, meals)
	if len(plan.Meals) == 0 {
		return planner.WeeklyMealPlan{}, fmt.Errorf("%w: no meals are scheduled", ErrInvalidInput)
	}
	return a.plans.Save(ctx, a.householdID, plan)
}

// Plans returns the most recent saved plans.
func (a *App) Plans(ctx context.Context, limit int) ([]planner.WeeklyMealPlan, error) {
	return a.plans.ListRecentByUserID(ctx, a.householdID, limit)
}

// DeletePlan removes a saved plan.
func (a *App) DeletePlan(ctx context.Context, id int64) error {
	return a.plans.Delete(ctx, a.householdID, id)
}

// LoadPlan replaces the current day assignments with the plan's and
// re-derives the shopping list.
func (a *App) LoadPlan(ctx context.Context, id int64) ([]planner.Meal, error) {
	plan, err := a.plans.Get(ctx, a.householdID, id)
	if err != nil {
		return nil, err
	}
	live, err := a.meals.List(ctx, a.householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meals: %w", err)
	}
	meals := planner.ApplyPlan(live, *plan)
	if err := a.meals.ReplaceAll(ctx, a.householdID, meals); err != nil {
		return nil, err
	}
	if err := a.refreshMeals(ctx); err != nil {
		return nil, err
	}
	a.notices.Post(notice.Info, fmt.Sprintf("Loaded plan %q.", plan.Name))
	return meals, nil
}

// FamilyMembers returns the household members.
func (a *App) FamilyMembers(ctx context.Context) ([]household.FamilyMember, error) {
	return a.family.List(ctx, a.householdID)
}

// SaveFamilyMember creates or updates a member.
func (a *App) SaveFamilyMember(ctx context.Context, member household.FamilyMember) (household.FamilyMember, error) {
	member.Name = strings.TrimSpace(member.Name)
	if member.Name == "" {
		return household.FamilyMember{}, fmt.Errorf("%w: member name is required", ErrInvalidInput)
	}
	return a.family.Save(ctx, a.householdID, member)
}

// DeleteFamilyMember removes a member.
func (a *App) DeleteFamilyMember(ctx context.Context, id int64) error {
	return a.family.Delete(ctx, a.householdID, id)
}

// DietaryPreferences returns the union of the members' preferences.
func (a *App) DietaryPreferences(ctx context.Context) ([]string, error) {
	members, err := a.family.List(ctx, a.householdID)
	if err != nil {
		return nil, err
	}
	return household.DietaryPreferences(members), nil
}
