package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meal-planner/internal/planner/plan_db"
)

// ErrMealNotFound is returned when a meal id is unknown.
var ErrMealNotFound = errors.New("meal not found")

// Meal is a dish in the household's collection. A meal with a non-empty Day
// is active and contributes its ingredients to the shopping list.
type Meal struct {
	ID                 string     `json:"id"`
	Day                string     `json:"day"`
	Title              string     `json:"title"`
	RecipeURL          string     `json:"recipe_url,omitempty"`
	Ingredients        []string   `json:"ingredients"`
	DietaryPreferences []string   `json:"dietary_preferences,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	Rating             int        `json:"rating,omitempty"`
	LastUsed           *time.Time `json:"last_used,omitempty"`
}

// Active reports whether the meal is assigned to a day.
func (m Meal) Active() bool {
	return m.Day != ""
}

// ActiveMeals filters meals down to the ones assigned to a day.
func ActiveMeals(meals []Meal) []Meal {
	var active []Meal
	for _, m := range meals {
		if m.Active() {
			active = append(active, m)
		}
	}
	return active
}

// MealRepository is a database-backed repository for the meal collection.
type MealRepository struct {
	queries *plan_db.Queries
	db      *sql.DB
}

// NewMealRepository creates a new MealRepository.
func NewMealRepository(d *sql.DB) *MealRepository {
	return &MealRepository{
		queries: plan_db.New(d),
		db:      d,
	}
}

// Save inserts or updates a meal.
func (r *MealRepository) Save(ctx context.Context, userID string, meal Meal) error {
	if meal.ID == "" {
		return fmt.Errorf("meal id is required")
	}

	data, err := json.Marshal(meal)
	if err != nil {
		return fmt.Errorf("failed to marshal meal: %w", err)
	}

	return r.queries.UpsertMeal(ctx, plan_db.UpsertMealParams{
		ID:        meal.ID,
		UserID:    userID,
		Data:      string(data),
		UpdatedAt: time.Now().UnixMilli(),
	})
}

// Get retrieves a meal by id.
func (r *MealRepository) Get(ctx context.Context, userID, id string) (*Meal, error) {
	row, err := r.queries.GetMeal(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMealNotFound
		}
		return nil, fmt.Errorf("failed to get meal %s: %w", id, err)
	}

	var meal Meal
	if err := json.Unmarshal([]byte(row.Data), &meal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal %s: %w", id, err)
	}
	return &meal, nil
}

// List returns the user's whole meal collection.
func (r *MealRepository) List(ctx context.Context, userID string) ([]Meal, error) {
	rows, err := r.queries.ListMeals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}

	meals := make([]Meal, 0, len(rows))
	for _, row := range rows {
		var meal Meal
		if err := json.Unmarshal([]byte(row.Data), &meal); err != nil {
			// Skip corrupted rows rather than failing the whole collection.
			continue
		}
		meals = append(meals, meal)
	}
	return meals, nil
}

// Delete removes a meal.
func (r *MealRepository) Delete(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteMeal(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal %s: %w", id, err)
	}
	if n == 0 {
		return ErrMealNotFound
	}
	return nil
}

// ReplaceAll stores meals as the user's full collection inside one
// transaction. Used when a saved plan is loaded.
func (r *MealRepository) ReplaceAll(ctx context.Context, userID string, meals []Meal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	now := time.Now().UnixMilli()
	for _, meal := range meals {
		data, err := json.Marshal(meal)
		if err != nil {
			return fmt.Errorf("failed to marshal meal %s: %w", meal.ID, err)
		}
		if err := q.UpsertMeal(ctx, plan_db.UpsertMealParams{
			ID:        meal.ID,
			UserID:    userID,
			Data:      string(data),
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("failed to save meal %s: %w", meal.ID, err)
		}
	}

	return tx.Commit()
}
