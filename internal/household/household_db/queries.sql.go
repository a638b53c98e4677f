package household_db

import (
	"context"
)

const insertPantryItem = `
INSERT INTO pantry_items (user_id, name, name_key, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, name_key) DO NOTHING
`

type InsertPantryItemParams struct {
	UserID    string
	Name      string
	NameKey   string
	CreatedAt int64
}

func (q *Queries) InsertPantryItem(ctx context.Context, arg InsertPantryItemParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertPantryItem, arg.UserID, arg.Name, arg.NameKey, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listPantryItems = `
SELECT user_id, name, name_key, created_at FROM pantry_items
WHERE user_id = ?
ORDER BY created_at, name_key
`

func (q *Queries) ListPantryItems(ctx context.Context, userID string) ([]PantryItem, error) {
	rows, err := q.db.QueryContext(ctx, listPantryItems, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PantryItem
	for rows.Next() {
		var i PantryItem
		if err := rows.Scan(&i.UserID, &i.Name, &i.NameKey, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deletePantryItem = `
DELETE FROM pantry_items WHERE user_id = ? AND name_key = ?
`

func (q *Queries) DeletePantryItem(ctx context.Context, userID, nameKey string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePantryItem, userID, nameKey)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertFamilyMember = `
INSERT INTO family_members (user_id, name, dietary_preferences, created_at)
VALUES (?, ?, ?, ?)
`

type InsertFamilyMemberParams struct {
	UserID             string
	Name               string
	DietaryPreferences string
	CreatedAt          int64
}

func (q *Queries) InsertFamilyMember(ctx context.Context, arg InsertFamilyMemberParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertFamilyMember, arg.UserID, arg.Name, arg.DietaryPreferences, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const updateFamilyMember = `
UPDATE family_members SET name = ?, dietary_preferences = ?
WHERE user_id = ? AND id = ?
`

type UpdateFamilyMemberParams struct {
	Name               string
	DietaryPreferences string
	UserID             string
	ID                 int64
}

func (q *Queries) UpdateFamilyMember(ctx context.Context, arg UpdateFamilyMemberParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateFamilyMember, arg.Name, arg.DietaryPreferences, arg.UserID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listFamilyMembers = `
SELECT id, user_id, name, dietary_preferences, created_at FROM family_members
WHERE user_id = ?
ORDER BY id
`

func (q *Queries) ListFamilyMembers(ctx context.Context, userID string) ([]FamilyMember, error) {
	rows, err := q.db.QueryContext(ctx, listFamilyMembers, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FamilyMember
	for rows.Next() {
		var i FamilyMember
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.DietaryPreferences, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteFamilyMember = `
DELETE FROM family_members WHERE user_id = ? AND id = ?
`

func (q *Queries) DeleteFamilyMember(ctx context.Context, userID string, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteFamilyMember, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
