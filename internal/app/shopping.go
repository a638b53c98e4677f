package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/notice"
	"meal-planner/internal/shopping"
)

// ShoppingView is everything a client needs to render the shopping list.
type ShoppingView struct {
	Items      []shopping.ShoppingItem `json:"items"`
	Archive    []shopping.ShoppingItem `json:"archive"`
	Stores     []string                `json:"stores"`
	Categories []string                `json:"categories"`
}

// ShoppingList returns the working list, sorted by category, with the
// archive and the available stores.
func (a *App) ShoppingList() ShoppingView {
	items := a.list.Items()
	shopping.SortItems(items)
	return ShoppingView{
		Items:      items,
		Archive:    a.list.Archive(),
		Stores:     a.list.Stores(),
		Categories: a.Categories(),
	}
}

// Categories returns the built-in categories followed by the configured
// custom ones.
func (a *App) Categories() []string {
	categories := append([]string(nil), shopping.Categories...)
	seen := make(map[string]struct{})
	for _, c := range a.cfg.CustomCategories {
		c = strings.ToLower(strings.TrimSpace(c))
		if _, dup := seen[c]; dup || c == "" || shopping.CategoryIndex(c) < len(shopping.Categories) {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}
	return categories
}

// AddItem adds a manual item.
func (a *App) AddItem(in shopping.NewItem) (shopping.ShoppingItem, error) {
	item, err := a.list.AddItem(in)
	if err != nil {
		return shopping.ShoppingItem{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return item, nil
}

// UpdateItem edits a working line.
func (a *App) UpdateItem(id string, patch shopping.ItemPatch) (shopping.ShoppingItem, error) {
	item, err := a.list.UpdateItem(id, patch)
	if err != nil && !errors.Is(err, shopping.ErrItemNotFound) {
		return shopping.ShoppingItem{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return item, err
}

// CheckItem moves a working line to the archive.
func (a *App) CheckItem(id string) error {
	return a.list.CheckItem(id)
}

// RestoreItem moves an archived item back to the working list.
func (a *App) RestoreItem(id string) error {
	return a.list.RestoreItem(id)
}

// DeleteItem removes a working line.
func (a *App) DeleteItem(id string) error {
	return a.list.DeleteItem(id)
}

// ClearArchive empties the archive.
func (a *App) ClearArchive() {
	a.list.ClearArchive()
}

// CarryForward starts a new shopping trip and returns how many recurring
// items came back.
func (a *App) CarryForward() int {
	n := a.list.CarryForward()
	if n > 0 {
		a.notices.Post(notice.Info, fmt.Sprintf("Carried %d recurring items forward.", n))
	}
	return n
}

// AddStore makes a store available.
func (a *App) AddStore(name string) bool {
	return a.list.AddStore(name)
}

// RemoveStore drops a store; its items become Unassigned.
func (a *App) RemoveStore(name string) bool {
	return a.list.RemoveStore(name)
}

// CheckItemRemote checks an item through the remote store, the way a second
// device does. The line is hidden at once by a pending overlay; the realtime
// feed then archives it. Without a remote session, or for an item that was
// never pushed, the item is checked locally.
func (a *App) CheckItemRemote(ctx context.Context, id string) error {
	item, ok := a.list.Item(id)
	if !ok {
		return shopping.ErrItemNotFound
	}
	remoteID, pushed := a.syncer.RemoteID(id)
	if a.cfg.UserID == "" || !pushed {
		return a.list.CheckItem(id)
	}

	checked := true
	a.list.MarkPending(id, shopping.Override{Checked: &checked})

	stamp := time.Now().UnixMilli()
	if stamp <= item.UpdatedAt {
		stamp = item.UpdatedAt + 1
	}
	err := a.remote.SetChecked(ctx, a.cfg.UserID, remoteID, true, stamp)
	switch {
	case errors.Is(err, shopping.ErrItemNotFound):
		a.list.ConfirmPending(id)
		return a.list.CheckItem(id)
	case err != nil:
		a.logger.Error("remote check failed", zap.String("item_id", id), zap.Error(err))
		a.notices.Post(notice.Error, "Couldn't check that item off on the server. It will reappear shortly; try again.")
		return err
	}
	return nil
}
