package plan_db

type Meal struct {
	ID        string
	UserID    string
	Data      string
	UpdatedAt int64
}

type WeeklyMealPlan struct {
	ID        int64
	UserID    string
	Name      string
	WeekStart int64
	PlanData  string
	CreatedAt int64
}
