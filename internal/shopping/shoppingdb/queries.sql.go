package shoppingdb

import (
	"context"
	"database/sql"
	"strings"
)

const upsertShoppingItem = `
INSERT INTO shopping_items (
    id, user_id, name, quantity, category, store, department, meal,
    checked, is_manual, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    quantity = excluded.quantity,
    category = excluded.category,
    store = excluded.store,
    department = excluded.department,
    meal = excluded.meal,
    checked = excluded.checked,
    is_manual = excluded.is_manual,
    updated_at = excluded.updated_at
WHERE shopping_items.user_id = excluded.user_id
`

type UpsertShoppingItemParams struct {
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

func (q *Queries) UpsertShoppingItem(ctx context.Context, arg UpsertShoppingItemParams) error {
	_, err := q.db.ExecContext(ctx, upsertShoppingItem,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Quantity,
		arg.Category,
		arg.Store,
		arg.Department,
		arg.Meal,
		arg.Checked,
		arg.IsManual,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const listShoppingItems = `
SELECT id, user_id, name, quantity, category, store, department, meal,
       checked, is_manual, created_at, updated_at
FROM shopping_items
WHERE user_id = ?
ORDER BY created_at, id
`

func (q *Queries) ListShoppingItems(ctx context.Context, userID string) ([]ShoppingItem, error) {
	rows, err := q.db.QueryContext(ctx, listShoppingItems, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ShoppingItem
	for rows.Next() {
		var i ShoppingItem
		if err := scanShoppingItem(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getShoppingItem = `
SELECT id, user_id, name, quantity, category, store, department, meal,
       checked, is_manual, created_at, updated_at
FROM shopping_items
WHERE user_id = ? AND id = ?
`

func (q *Queries) GetShoppingItem(ctx context.Context, userID, id string) (ShoppingItem, error) {
	row := q.db.QueryRowContext(ctx, getShoppingItem, userID, id)
	var i ShoppingItem
	err := scanShoppingItem(row, &i)
	return i, err
}

const setShoppingItemChecked = `
UPDATE shopping_items SET checked = ?, updated_at = ?
WHERE user_id = ? AND id = ?
`

type SetShoppingItemCheckedParams struct {
	Checked   int64
	UpdatedAt int64
	UserID    string
	ID        string
}

func (q *Queries) SetShoppingItemChecked(ctx context.Context, arg SetShoppingItemCheckedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setShoppingItemChecked, arg.Checked, arg.UpdatedAt, arg.UserID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteShoppingItemsForUser = `
DELETE FROM shopping_items WHERE user_id = ?
`

func (q *Queries) DeleteShoppingItemsForUser(ctx context.Context, userID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteShoppingItemsForUser, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteShoppingItemsNotIn = `
DELETE FROM shopping_items WHERE user_id = ? AND id NOT IN (/*SLICE:ids*/?)
`

func (q *Queries) DeleteShoppingItemsNotIn(ctx context.Context, userID string, ids []string) (int64, error) {
	query := deleteShoppingItemsNotIn
	var queryParams []interface{}
	queryParams = append(queryParams, userID)
	if len(ids) > 0 {
		for _, v := range ids {
			queryParams = append(queryParams, v)
		}
		query = strings.Replace(query, "/*SLICE:ids*/?", strings.Repeat(",?", len(ids))[1:], 1)
	} else {
		query = strings.Replace(query, "/*SLICE:ids*/?", "NULL", 1)
	}
	result, err := q.db.ExecContext(ctx, query, queryParams...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanShoppingItem(s scanner, i *ShoppingItem) error {
	return s.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Quantity,
		&i.Category,
		&i.Store,
		&i.Department,
		&i.Meal,
		&i.Checked,
		&i.IsManual,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
}
