package shopping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"meal-planner/internal/shopping/shoppingdb"
)

// RemoteItem is a shopping item row as the remote store keeps it. IDs are
// uuids; see the sync layer for how local ids map onto them.
type RemoteItem struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	Category   string `json:"category"`
	Store      string `json:"store"`
	Department string `json:"department,omitempty"`
	Meal       string `json:"meal,omitempty"`
	Checked    bool   `json:"checked"`
	IsManual   bool   `json:"is_manual"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

// ChangeUpdate is the only change type published today. Inserts and
// deletes are picked up by the next full load.
const ChangeUpdate = "UPDATE"

// RowChange is a realtime notification about one row.
type RowChange struct {
	Type string
	Row  RemoteItem
}

// Repository is the remote item store: a per-user table of shopping rows
// with a change feed for checked-flag updates.
type Repository struct {
	queries *shoppingdb.Queries
	db      *sql.DB
	logger  *zap.Logger

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan RowChange
}

// NewRepository creates a new shopping item repository.
func NewRepository(d *sql.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		queries: shoppingdb.New(d),
		db:      d,
		logger:  logger,
		subs:    make(map[string]map[int]chan RowChange),
	}
}

// UpsertItems inserts or updates rows by id inside one transaction. Rows
// owned by another user are left untouched.
func (r *Repository) UpsertItems(ctx context.Context, userID string, items []RemoteItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, item := range items {
		if err := q.UpsertShoppingItem(ctx, toParams(userID, item)); err != nil {
			return fmt.Errorf("failed to upsert shopping item %s: %w", item.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit shopping items: %w", err)
	}
	return nil
}

// DeleteItemsNotIn removes the user's rows whose id is not in keep. An empty
// keep removes every row of the user.
func (r *Repository) DeleteItemsNotIn(ctx context.Context, userID string, keep []string) (int64, error) {
	var (
		n   int64
		err error
	)
	if len(keep) == 0 {
		n, err = r.queries.DeleteShoppingItemsForUser(ctx, userID)
	} else {
		n, err = r.queries.DeleteShoppingItemsNotIn(ctx, userID, keep)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale shopping items: %w", err)
	}
	return n, nil
}

// ListItems returns every row of the user.
func (r *Repository) ListItems(ctx context.Context, userID string) ([]RemoteItem, error) {
	rows, err := r.queries.ListShoppingItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping items: %w", err)
	}
	items := make([]RemoteItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromDB(row))
	}
	return items, nil
}

// SetChecked updates the checked flag of one row and publishes the change
// to the user's subscribers.
func (r *Repository) SetChecked(ctx context.Context, userID, id string, checked bool, updatedAt int64) error {
	n, err := r.queries.SetShoppingItemChecked(ctx, shoppingdb.SetShoppingItemCheckedParams{
		Checked:   boolToInt(checked),
		UpdatedAt: updatedAt,
		UserID:    userID,
		ID:        id,
	})
	if err != nil {
		return fmt.Errorf("failed to update shopping item %s: %w", id, err)
	}
	if n == 0 {
		return ErrItemNotFound
	}

	row, err := r.queries.GetShoppingItem(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to read shopping item %s: %w", id, err)
	}
	r.publish(userID, RowChange{Type: ChangeUpdate, Row: fromDB(row)})
	return nil
}

// Subscribe returns the change feed for userID. The returned function
// unsubscribes and closes the channel.
func (r *Repository) Subscribe(userID string) (<-chan RowChange, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan RowChange, 64)
	id := r.nextID
	r.nextID++
	if r.subs[userID] == nil {
		r.subs[userID] = make(map[int]chan RowChange)
	}
	r.subs[userID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs[userID], id)
			if len(r.subs[userID]) == 0 {
				delete(r.subs, userID)
			}
			close(ch)
		})
	}
}

// publish never blocks; a subscriber that falls behind misses changes and
// catches up on its next full load.
func (r *Repository) publish(userID string, change RowChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs[userID] {
		select {
		case ch <- change:
		default:
			r.logger.Warn("dropping shopping item change for slow subscriber",
				zap.String("user_id", userID),
				zap.String("item_id", change.Row.ID))
		}
	}
}

func toParams(userID string, item RemoteItem) shoppingdb.UpsertShoppingItemParams {
	return shoppingdb.UpsertShoppingItemParams{
		ID:         item.ID,
		UserID:     userID,
		Name:       item.Name,
		Quantity:   item.Quantity,
		Category:   item.Category,
		Store:      item.Store,
		Department: nullString(item.Department),
		Meal:       nullString(item.Meal),
		Checked:    boolToInt(item.Checked),
		IsManual:   boolToInt(item.IsManual),
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

func fromDB(row shoppingdb.ShoppingItem) RemoteItem {
	return RemoteItem{
		ID:         row.ID,
		UserID:     row.UserID,
		Name:       row.Name,
		Quantity:   row.Quantity,
		Category:   row.Category,
		Store:      row.Store,
		Department: row.Department.String,
		Meal:       row.Meal.String,
		Checked:    row.Checked != 0,
		IsManual:   row.IsManual != 0,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
