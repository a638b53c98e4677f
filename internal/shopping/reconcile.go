package shopping

import "sort"

// Override is the durable record of a hand edit to a meal-derived line. Nil
// fields leave the derived value alone.
type Override struct {
	Quantity   *string `json:"quantity,omitempty"`
	Category   *string `json:"category,omitempty"`
	Store      *string `json:"store,omitempty"`
	Department *string `json:"department,omitempty"`
	Recurring  *bool   `json:"recurring,omitempty"`
	Checked    *bool   `json:"checked,omitempty"`
	UpdatedAt  int64   `json:"updated_at"`
}

func (o Override) apply(item ShoppingItem) ShoppingItem {
	if o.Quantity != nil {
		item.Quantity = *o.Quantity
	}
	if o.Category != nil && *o.Category != "" {
		item.Category = *o.Category
	}
	if o.Store != nil {
		item.Store = *o.Store
	}
	if o.Department != nil {
		item.Department = *o.Department
	}
	if o.Recurring != nil {
		item.Recurring = *o.Recurring
	}
	if o.UpdatedAt > item.UpdatedAt {
		item.UpdatedAt = o.UpdatedAt
	}
	return item
}

func (o Override) hides() bool {
	return o.Checked != nil && *o.Checked
}

// ReconcileInput is everything the working list is built from.
type ReconcileInput struct {
	Derived     []ShoppingItem
	Manual      []ShoppingItem
	Overrides   map[string]Override
	Archive     []ShoppingItem
	Assignments *AssignmentStore
}

// ReconcileResult is the working list plus bookkeeping for the caller.
type ReconcileResult struct {
	Items []ShoppingItem
	// Orphaned lists override ids that no derived line carries any more.
	Orphaned []string
	// Folded maps a visible line id to the manual item ids merged into it.
	Folded map[string][]string
}

// Reconcile merges derived lines, manual items, overrides and the archive
// into the working list. It never fails: missing fields get defaults and
// duplicate ids keep the entry with the newest UpdatedAt.
func Reconcile(in ReconcileInput) ReconcileResult {
	archived := make(map[archiveKey]struct{}, len(in.Archive))
	for _, a := range in.Archive {
		archived[keyOf(a)] = struct{}{}
	}

	result := ReconcileResult{Folded: make(map[string][]string)}

	derived := latestByID(in.Derived)
	derivedIDs := make(map[string]struct{}, len(derived))
	for _, d := range derived {
		derivedIDs[d.ID] = struct{}{}
	}
	for id := range in.Overrides {
		if _, ok := derivedIDs[id]; !ok {
			result.Orphaned = append(result.Orphaned, id)
		}
	}
	sort.Strings(result.Orphaned)

	var items []ShoppingItem
	byName := make(map[string]int)
	for _, d := range derived {
		d = withDefaults(d)
		d.Checked = false
		if in.Assignments != nil {
			if store, ok := in.Assignments.Get(d.Name); ok {
				d.Store = store
			}
		}
		if o, ok := in.Overrides[d.ID]; ok {
			if o.hides() {
				continue
			}
			d = withDefaults(o.apply(d))
		}
		if _, ok := archived[keyOf(d)]; ok {
			continue
		}
		byName[NormalizeName(d.Name)] = len(items)
		items = append(items, d)
	}

	for _, m := range latestByID(in.Manual) {
		if m.Checked {
			continue
		}
		m = withDefaults(m)
		m.IsManual = true
		if _, ok := archived[keyOf(m)]; ok {
			continue
		}
		key := NormalizeName(m.Name)
		if i, ok := byName[key]; ok {
			host := &items[i]
			host.Quantity = MergeQuantity(host.Quantity, m.Quantity)
			if m.UpdatedAt > host.UpdatedAt {
				host.UpdatedAt = m.UpdatedAt
			}
			result.Folded[host.ID] = append(result.Folded[host.ID], m.ID)
			continue
		}
		byName[key] = len(items)
		items = append(items, m)
	}

	SortItems(items)
	result.Items = items
	return result
}

// latestByID drops duplicate ids, keeping the entry with the largest
// UpdatedAt (the first one on ties) at the position of the first occurrence.
func latestByID(items []ShoppingItem) []ShoppingItem {
	out := make([]ShoppingItem, 0, len(items))
	pos := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := pos[item.ID]; ok {
			if item.UpdatedAt > out[i].UpdatedAt {
				out[i] = item
			}
			continue
		}
		pos[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}
