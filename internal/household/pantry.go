package household

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/household/household_db"
)

// ErrPantryItemNotFound is returned when removing an item that is not in the pantry.
var ErrPantryItemNotFound = errors.New("pantry item not found")

// PantryRepository stores the free-text list of things already at home.
// Names are unique per user, compared case-insensitively.
type PantryRepository struct {
	queries *household_db.Queries
	db      *sql.DB
}

// NewPantryRepository creates a new PantryRepository.
func NewPantryRepository(d *sql.DB) *PantryRepository {
	return &PantryRepository{
		queries: household_db.New(d),
		db:      d,
	}
}

// List returns the pantry entries in the order they were added.
func (r *PantryRepository) List(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.queries.ListPantryItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry items: %w", err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names, nil
}

// Add stores name in the pantry. It reports false when an entry with the
// same name already exists.
func (r *PantryRepository) Add(ctx context.Context, userID, name string) (bool, error) {
	name = strings.TrimSpace(name)
	key := nameKey(name)
	if key == "" {
		return false, fmt.Errorf("pantry item name is required")
	}

	n, err := r.queries.InsertPantryItem(ctx, household_db.InsertPantryItemParams{
		UserID:    userID,
		Name:      name,
		NameKey:   key,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to add pantry item %q: %w", name, err)
	}
	return n > 0, nil
}

// Remove deletes name from the pantry.
func (r *PantryRepository) Remove(ctx context.Context, userID, name string) error {
	n, err := r.queries.DeletePantryItem(ctx, userID, nameKey(name))
	if err != nil {
		return fmt.Errorf("failed to remove pantry item %q: %w", name, err)
	}
	if n == 0 {
		return ErrPantryItemNotFound
	}
	return nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
