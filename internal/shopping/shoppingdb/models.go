package shoppingdb

import "database/sql"

type ShoppingItem struct {
	ID         string
	UserID     string
	Name       string
	Quantity   string
	Category   string
	Store      string
	Department sql.NullString
	Meal       sql.NullString
	Checked    int64
	IsManual   int64
	CreatedAt  int64
	UpdatedAt  int64
}
