package shopping

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/planner"
)

// NewItem is a manually entered grocery.
type NewItem struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	Category   string `json:"category"`
	Store      string `json:"store"`
	Department string `json:"department"`
	Recurring  bool   `json:"recurring"`
}

// ItemPatch is a partial edit of a line. Nil fields are left unchanged.
type ItemPatch struct {
	Name       *string `json:"name,omitempty"`
	Quantity   *string `json:"quantity,omitempty"`
	Category   *string `json:"category,omitempty"`
	Store      *string `json:"store,omitempty"`
	Department *string `json:"department,omitempty"`
	Recurring  *bool   `json:"recurring,omitempty"`
}

// List is the single writer of the shopping list. It keeps the inputs of
// Reconcile and recomputes the working list after every change. All methods
// are safe for concurrent use; change listeners run after the lock is
// released.
type List struct {
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
	stamp  int64

	meals       []planner.Meal
	mealsKey    string
	mealsSet    bool
	pantry      []string
	derived     []ShoppingItem
	manual      []ShoppingItem
	overrides   map[string]Override
	archive     []ShoppingItem
	assignments *AssignmentStore
	stores      []string
	pending     *PendingOverlays

	items  []ShoppingItem
	folded map[string][]string

	listeners []func()
}

// NewList creates an empty list offering the given stores.
func NewList(logger *zap.Logger, stores []string, pendingTTL time.Duration) *List {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &List{
		logger:      logger,
		now:         time.Now,
		overrides:   make(map[string]Override),
		assignments: NewAssignmentStore(),
		pending:     NewPendingOverlays(pendingTTL),
		folded:      make(map[string][]string),
	}
	for _, s := range stores {
		l.addStore(s)
	}
	return l
}

// OnChange registers fn to be called after every change to the list.
func (l *List) OnChange(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// mutate runs fn under the lock. When fn reports a change the working list
// is recomputed and the listeners are notified.
func (l *List) mutate(fn func() (bool, error)) error {
	l.mu.Lock()
	changed, err := fn()
	if changed {
		l.recompute()
	}
	listeners := append([]func(){}, l.listeners...)
	l.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn()
		}
	}
	return err
}

// nextStamp issues strictly increasing millisecond stamps.
func (l *List) nextStamp() int64 {
	now := l.now().UnixMilli()
	if now <= l.stamp {
		now = l.stamp + 1
	}
	l.stamp = now
	return now
}

func (l *List) observeStamp(ts int64) {
	if ts > l.stamp {
		l.stamp = ts
	}
}

func (l *List) recompute() {
	res := Reconcile(ReconcileInput{
		Derived:     l.derived,
		Manual:      l.manual,
		Overrides:   l.overrides,
		Archive:     l.archive,
		Assignments: l.assignments,
	})
	// Overrides can only be judged orphaned once meals are known.
	if l.mealsSet {
		for _, id := range res.Orphaned {
			l.logger.Debug("dropping orphaned override", zap.String("item_id", id))
			delete(l.overrides, id)
		}
	}
	l.items = res.Items
	l.folded = res.Folded
}

func (l *List) rederive() {
	l.derived = Derive(l.meals, l.pantry)
}

// SetMeals replaces the meal collection. Nothing is recomputed when no
// meal's id, title, day or ingredients changed.
func (l *List) SetMeals(meals []planner.Meal) bool {
	var changed bool
	_ = l.mutate(func() (bool, error) {
		key := MealsKey(meals)
		if l.mealsSet && key == l.mealsKey {
			return false, nil
		}
		l.meals = append([]planner.Meal(nil), meals...)
		l.mealsKey = key
		l.mealsSet = true
		l.rederive()
		changed = true
		return true, nil
	})
	return changed
}

// SetPantry replaces the pantry entries used to filter derived lines.
func (l *List) SetPantry(pantry []string) {
	_ = l.mutate(func() (bool, error) {
		l.pantry = append([]string(nil), pantry...)
		l.rederive()
		return true, nil
	})
}

// AddItem adds a manual item. Archive entries with the same name are
// cleared so the item shows up again.
func (l *List) AddItem(in NewItem) (ShoppingItem, error) {
	var added ShoppingItem
	err := l.mutate(func() (bool, error) {
		name := strings.Join(strings.Fields(in.Name), " ")
		if name == "" {
			return false, fmt.Errorf("item name is required")
		}

		item := ShoppingItem{
			ID:         NewManualID(),
			Name:       name,
			Quantity:   strings.TrimSpace(in.Quantity),
			Category:   strings.TrimSpace(in.Category),
			Store:      strings.TrimSpace(in.Store),
			Department: strings.TrimSpace(in.Department),
			Recurring:  in.Recurring,
			IsManual:   true,
			UpdatedAt:  l.nextStamp(),
		}
		if item.Category == "" {
			item.Category = Categorize(name)
		}
		if item.Store == "" || item.Store == Unassigned {
			if store, ok := l.assignments.Get(name); ok {
				item.Store = store
			} else {
				item.Store = Unassigned
			}
		} else {
			l.assignments.Set(name, item.Store)
			l.addStore(item.Store)
		}

		key := NormalizeName(name)
		l.archive = removeWhere(l.archive, func(a ShoppingItem) bool {
			return NormalizeName(a.Name) == key
		})

		l.manual = append(l.manual, item)
		added = item
		return true, nil
	})
	return added, err
}

// UpdateItem edits a working line. Manual items are edited in place; derived
// lines record an override so the edit survives re-derivation. A store edit
// is remembered for the item name.
func (l *List) UpdateItem(id string, patch ItemPatch) (ShoppingItem, error) {
	var updated ShoppingItem
	err := l.mutate(func() (bool, error) {
		stamp := l.nextStamp()

		if i := indexOf(l.manual, id); i >= 0 {
			item := l.manual[i]
			if patch.Name != nil {
				name := strings.Join(strings.Fields(*patch.Name), " ")
				if name == "" {
					return false, fmt.Errorf("item name is required")
				}
				item.Name = name
			}
			if patch.Quantity != nil {
				item.Quantity = strings.TrimSpace(*patch.Quantity)
			}
			if patch.Category != nil {
				item.Category = strings.TrimSpace(*patch.Category)
			}
			if patch.Store != nil {
				item.Store = l.recordStore(item.Name, *patch.Store)
			}
			if patch.Department != nil {
				item.Department = strings.TrimSpace(*patch.Department)
			}
			if patch.Recurring != nil {
				item.Recurring = *patch.Recurring
			}
			item.UpdatedAt = stamp
			l.manual[i] = withDefaults(item)
			updated = l.manual[i]
			return true, nil
		}

		i := indexOf(l.derived, id)
		if i < 0 {
			return false, ErrItemNotFound
		}
		if patch.Name != nil && NormalizeName(*patch.Name) != NormalizeName(l.derived[i].Name) {
			return false, fmt.Errorf("meal ingredients cannot be renamed, edit the meal instead")
		}

		o := l.overrides[id]
		if patch.Quantity != nil {
			q := strings.TrimSpace(*patch.Quantity)
			o.Quantity = &q
		}
		if patch.Category != nil {
			c := strings.TrimSpace(*patch.Category)
			o.Category = &c
		}
		if patch.Store != nil {
			s := l.recordStore(l.derived[i].Name, *patch.Store)
			o.Store = &s
		}
		if patch.Department != nil {
			d := strings.TrimSpace(*patch.Department)
			o.Department = &d
		}
		if patch.Recurring != nil {
			r := *patch.Recurring
			o.Recurring = &r
		}
		o.UpdatedAt = stamp
		l.overrides[id] = o

		updated = withDefaults(o.apply(l.derived[i]))
		if store, ok := l.assignments.Get(updated.Name); ok && o.Store == nil {
			updated.Store = store
		}
		return true, nil
	})
	return updated, err
}

// recordStore updates the assignment for name and returns the store to put
// on the line.
func (l *List) recordStore(name, store string) string {
	store = strings.TrimSpace(store)
	if store == "" || store == Unassigned {
		l.assignments.Clear(name)
		return Unassigned
	}
	l.assignments.Set(name, store)
	l.addStore(store)
	return store
}

// CheckItem marks a working line as done and moves it to the archive. Manual
// items folded into the line go with it.
func (l *List) CheckItem(id string) error {
	return l.mutate(func() (bool, error) {
		if !l.archiveLine(id, l.nextStamp()) {
			return false, ErrItemNotFound
		}
		return true, nil
	})
}

func (l *List) archiveLine(id string, stamp int64) bool {
	i := indexOf(l.items, id)
	if i < 0 {
		return false
	}
	item := l.items[i]
	item.Checked = true
	item.UpdatedAt = stamp
	l.archive = append(l.archive, item)

	gone := map[string]struct{}{id: {}}
	for _, folded := range l.folded[id] {
		gone[folded] = struct{}{}
	}
	l.manual = removeWhere(l.manual, func(m ShoppingItem) bool {
		_, ok := gone[m.ID]
		return ok
	})
	return true
}

// RestoreItem moves an archived item back into the working list.
func (l *List) RestoreItem(id string) error {
	return l.mutate(func() (bool, error) {
		if !l.restoreLine(id, l.nextStamp()) {
			return false, ErrItemNotFound
		}
		return true, nil
	})
}

func (l *List) restoreLine(id string, stamp int64) bool {
	i := indexOf(l.archive, id)
	if i < 0 {
		return false
	}
	item := l.archive[i]
	l.archive = append(l.archive[:i:i], l.archive[i+1:]...)

	if o, ok := l.overrides[id]; ok && o.Checked != nil {
		o.Checked = nil
		o.UpdatedAt = stamp
		l.overrides[id] = o
	}
	if indexOf(l.derived, id) >= 0 {
		return true
	}

	// Manual items, and derived lines whose meal is gone, come back as
	// manual items.
	item.Checked = false
	item.IsManual = true
	item.UpdatedAt = stamp
	if !strings.HasPrefix(item.ID, manualPrefix) {
		item.ID = NewManualID()
		item.Meal = ""
	}
	l.manual = append(l.manual, item)
	return true
}

// DeleteItem removes a working line. Manual items are dropped. Derived lines
// are archived, otherwise the next derivation would bring them back.
func (l *List) DeleteItem(id string) error {
	return l.mutate(func() (bool, error) {
		if i := indexOf(l.manual, id); i >= 0 {
			l.manual = append(l.manual[:i:i], l.manual[i+1:]...)
			return true, nil
		}
		if !l.archiveLine(id, l.nextStamp()) {
			return false, ErrItemNotFound
		}
		return true, nil
	})
}

// ClearArchive empties the archive. Derived lines that were archived come
// back on the next recompute.
func (l *List) ClearArchive() {
	_ = l.mutate(func() (bool, error) {
		l.archive = nil
		return true, nil
	})
}

// CarryForward starts a new shopping trip: recurring archived items return
// as unchecked manual items and the rest of the archive is cleared. It
// returns the number of items carried forward.
func (l *List) CarryForward() int {
	var n int
	_ = l.mutate(func() (bool, error) {
		for _, a := range l.archive {
			if !a.Recurring {
				continue
			}
			item := a
			item.Checked = false
			item.IsManual = true
			item.Meal = ""
			item.UpdatedAt = l.nextStamp()
			if !strings.HasPrefix(item.ID, manualPrefix) {
				item.ID = NewManualID()
			}
			l.manual = append(l.manual, item)
			n++
		}
		l.archive = nil
		return true, nil
	})
	return n
}

// AddStore makes a store available. It reports false for duplicates.
func (l *List) AddStore(name string) bool {
	var added bool
	_ = l.mutate(func() (bool, error) {
		added = l.addStore(name)
		return added, nil
	})
	return added
}

func (l *List) addStore(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == Unassigned {
		return false
	}
	for _, s := range l.stores {
		if strings.EqualFold(s, name) {
			return false
		}
	}
	l.stores = append(l.stores, name)
	return true
}

// RemoveStore drops a store. Everything placed in it becomes Unassigned.
func (l *List) RemoveStore(name string) bool {
	var removed bool
	_ = l.mutate(func() (bool, error) {
		name = strings.TrimSpace(name)
		for i, s := range l.stores {
			if s == name {
				l.stores = append(l.stores[:i:i], l.stores[i+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			return false, nil
		}

		l.assignments.ReplaceStore(name, "")
		unassign := func(items []ShoppingItem) {
			for i := range items {
				if items[i].Store == name {
					items[i].Store = Unassigned
				}
			}
		}
		unassign(l.manual)
		unassign(l.archive)
		for id, o := range l.overrides {
			if o.Store != nil && *o.Store == name {
				o.Store = nil
				l.overrides[id] = o
			}
		}
		return true, nil
	})
	return removed
}

// Items returns the current working list with pending overlays applied. It
// is the accessor handed to anything that renders or exports the list.
func (l *List) Items() []ShoppingItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := append([]ShoppingItem(nil), l.items...)
	return l.pending.Apply(items, l.now())
}

// Item returns one working line.
func (l *List) Item(id string) (ShoppingItem, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := indexOf(l.items, id); i >= 0 {
		return l.items[i], true
	}
	return ShoppingItem{}, false
}

// Archive returns the archived items, most recent last.
func (l *List) Archive() []ShoppingItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ShoppingItem(nil), l.archive...)
}

// Stores returns the available stores.
func (l *List) Stores() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.stores...)
}

// Assignments returns a copy of the store assignments.
func (l *List) Assignments() *AssignmentStore {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.assignments.Clone()
}

// MarkPending lays patch over id until it is confirmed or expires.
func (l *List) MarkPending(id string, patch Override) {
	_ = l.mutate(func() (bool, error) {
		l.pending.Add(id, patch, l.now())
		return true, nil
	})
}

// ConfirmPending resolves the overlay for id.
func (l *List) ConfirmPending(id string) bool {
	var ok bool
	_ = l.mutate(func() (bool, error) {
		ok = l.pending.Confirm(id)
		return ok, nil
	})
	return ok
}

// ExpirePending resolves overlays past their deadline and returns their ids.
func (l *List) ExpirePending() []string {
	var expired []string
	_ = l.mutate(func() (bool, error) {
		expired = l.pending.Expire(l.now())
		l.pending.Forget()
		return len(expired) > 0, nil
	})
	return expired
}

// PendingState reports the overlay state for id.
func (l *List) PendingState(id string) (PendingState, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending.State(id)
}

// ApplyRemoteChecked applies a checked flag written elsewhere. The change is
// ignored unless updatedAt is newer than the local copy. Checking moves the
// line to the archive and unchecking restores it. A pending overlay for the
// item is confirmed either way.
func (l *List) ApplyRemoteChecked(id string, checked bool, updatedAt int64) bool {
	var applied bool
	_ = l.mutate(func() (bool, error) {
		confirmed := l.pending.Confirm(id)
		l.pending.Forget()

		if checked {
			if i := indexOf(l.items, id); i >= 0 && updatedAt > l.items[i].UpdatedAt {
				l.observeStamp(updatedAt)
				applied = l.archiveLine(id, updatedAt)
			}
		} else {
			if i := indexOf(l.archive, id); i >= 0 && updatedAt > l.archive[i].UpdatedAt {
				l.observeStamp(updatedAt)
				applied = l.restoreLine(id, updatedAt)
			}
		}
		return applied || confirmed, nil
	})
	return applied
}

func indexOf(items []ShoppingItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func removeWhere(items []ShoppingItem, drop func(ShoppingItem) bool) []ShoppingItem {
	out := items[:0]
	for _, item := range items {
		if !drop(item) {
			out = append(out, item)
		}
	}
	return out
}
