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

// ErrPlanNotFound is returned when a saved plan id is unknown.
var ErrPlanNotFound = errors.New("meal plan not found")

// PlanRepository is a database-backed repository for saved weekly plans.
type PlanRepository struct {
	queries *plan_db.Queries
	db      *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{
		queries: plan_db.New(d),
		db:      d,
	}
}

// Save inserts a new weekly plan and returns it with its id and creation time set.
func (r *PlanRepository) Save(ctx context.Context, userID string, plan WeeklyMealPlan) (WeeklyMealPlan, error) {
	planData, err := json.Marshal(plan.Meals)
	if err != nil {
		return WeeklyMealPlan{}, fmt.Errorf("failed to marshal plan meals: %w", err)
	}

	createdAt := time.Now().UTC()
	id, err := r.queries.InsertMealPlan(ctx, plan_db.InsertMealPlanParams{
		UserID:    userID,
		Name:      plan.Name,
		WeekStart: plan.WeekStart.UnixMilli(),
		PlanData:  string(planData),
		CreatedAt: createdAt.UnixMilli(),
	})
	if err != nil {
		return WeeklyMealPlan{}, fmt.Errorf("failed to insert meal plan: %w", err)
	}

	plan.ID = id
	plan.CreatedAt = createdAt
	return plan, nil
}

// Get retrieves a saved plan by id.
func (r *PlanRepository) Get(ctx context.Context, userID string, id int64) (*WeeklyMealPlan, error) {
	row, err := r.queries.GetMealPlan(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get meal plan %d: %w", id, err)
	}

	plan, err := fromRow(row)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListRecentByUserID retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]WeeklyMealPlan, error) {
	rows, err := r.queries.ListRecentMealPlansByUserID(ctx, plan_db.ListRecentMealPlansByUserIDParams{
		UserID: userID,
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}

	plans := make([]WeeklyMealPlan, 0, len(rows))
	for _, row := range rows {
		plan, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// Delete removes a saved plan.
func (r *PlanRepository) Delete(ctx context.Context, userID string, id int64) error {
	n, err := r.queries.DeleteMealPlan(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal plan %d: %w", id, err)
	}
	if n == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func fromRow(row plan_db.WeeklyMealPlan) (WeeklyMealPlan, error) {
	var meals []Meal
	if err := json.Unmarshal([]byte(row.PlanData), &meals); err != nil {
		return WeeklyMealPlan{}, fmt.Errorf("failed to unmarshal plan %d: %w", row.ID, err)
	}
	return WeeklyMealPlan{
		ID:        row.ID,
		Name:      row.Name,
		WeekStart: time.UnixMilli(row.WeekStart).UTC(),
		Meals:     meals,
		CreatedAt: time.UnixMilli(row.CreatedAt).UTC(),
	}, nil
}
