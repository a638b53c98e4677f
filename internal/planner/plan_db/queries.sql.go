package plan_db

import (
	"context"
)

const upsertMeal = `
INSERT INTO meals (id, user_id, data, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    user_id = excluded.user_id,
    data = excluded.data,
    updated_at = excluded.updated_at
`

type UpsertMealParams struct {
	ID        string
	UserID    string
	Data      string
	UpdatedAt int64
}

func (q *Queries) UpsertMeal(ctx context.Context, arg UpsertMealParams) error {
	_, err := q.db.ExecContext(ctx, upsertMeal, arg.ID, arg.UserID, arg.Data, arg.UpdatedAt)
	return err
}

const getMeal = `
SELECT id, user_id, data, updated_at FROM meals WHERE user_id = ? AND id = ?
`

func (q *Queries) GetMeal(ctx context.Context, userID, id string) (Meal, error) {
	row := q.db.QueryRowContext(ctx, getMeal, userID, id)
	var i Meal
	err := row.Scan(&i.ID, &i.UserID, &i.Data, &i.UpdatedAt)
	return i, err
}

const listMeals = `
SELECT id, user_id, data, updated_at FROM meals WHERE user_id = ? ORDER BY id
`

func (q *Queries) ListMeals(ctx context.Context, userID string) ([]Meal, error) {
	rows, err := q.db.QueryContext(ctx, listMeals, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Meal
	for rows.Next() {
		var i Meal
		if err := rows.Scan(&i.ID, &i.UserID, &i.Data, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteMeal = `
DELETE FROM meals WHERE user_id = ? AND id = ?
`

func (q *Queries) DeleteMeal(ctx context.Context, userID, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMeal, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertMealPlan = `
INSERT INTO weekly_meal_plans (user_id, name, week_start, plan_data, created_at)
VALUES (?, ?, ?, ?, ?)
`

type InsertMealPlanParams struct {
	UserID    string
	Name      string
	WeekStart int64
	PlanData  string
	CreatedAt int64
}

func (q *Queries) InsertMealPlan(ctx context.Context, arg InsertMealPlanParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertMealPlan,
		arg.UserID,
		arg.Name,
		arg.WeekStart,
		arg.PlanData,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getMealPlan = `
SELECT id, user_id, name, week_start, plan_data, created_at
FROM weekly_meal_plans WHERE user_id = ? AND id = ?
`

func (q *Queries) GetMealPlan(ctx context.Context, userID string, id int64) (WeeklyMealPlan, error) {
	row := q.db.QueryRowContext(ctx, getMealPlan, userID, id)
	var i WeeklyMealPlan
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.WeekStart, &i.PlanData, &i.CreatedAt)
	return i, err
}

const listRecentMealPlansByUserID = `
SELECT id, user_id, name, week_start, plan_data, created_at
FROM weekly_meal_plans WHERE user_id = ?
ORDER BY week_start DESC, id DESC
LIMIT ?
`

type ListRecentMealPlansByUserIDParams struct {
	UserID string
	Limit  int64
}

func (q *Queries) ListRecentMealPlansByUserID(ctx context.Context, arg ListRecentMealPlansByUserIDParams) ([]WeeklyMealPlan, error) {
	rows, err := q.db.QueryContext(ctx, listRecentMealPlansByUserID, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WeeklyMealPlan
	for rows.Next() {
		var i WeeklyMealPlan
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.WeekStart, &i.PlanData, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteMealPlan = `
DELETE FROM weekly_meal_plans WHERE user_id = ? AND id = ?
`

func (q *Queries) DeleteMealPlan(ctx context.Context, userID string, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMealPlan, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
