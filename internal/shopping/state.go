package shopping

// State is everything needed to rebuild a List besides the meals and the
// pantry, which live in their own repositories.
type State struct {
	Stores      []string            `json:"stores"`
	Archive     []ShoppingItem      `json:"archive"`
	Manual      []ShoppingItem      `json:"manual"`
	Items       []ShoppingItem      `json:"items"`
	Assignments *AssignmentStore    `json:"assignments"`
	Overrides   map[string]Override `json:"overrides"`
}

// MaxUpdatedAt returns the newest stamp anywhere in the state.
func (s State) MaxUpdatedAt() int64 {
	var latest int64
	for _, group := range [][]ShoppingItem{s.Items, s.Manual, s.Archive} {
		for _, item := range group {
			if item.UpdatedAt > latest {
				latest = item.UpdatedAt
			}
		}
	}
	for _, o := range s.Overrides {
		if o.UpdatedAt > latest {
			latest = o.UpdatedAt
		}
	}
	return latest
}

// Empty reports whether the state holds no items at all.
func (s State) Empty() bool {
	return len(s.Items) == 0 && len(s.Manual) == 0 && len(s.Archive) == 0
}

// Snapshot copies the current state of the list.
func (l *List) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	overrides := make(map[string]Override, len(l.overrides))
	for id, o := range l.overrides {
		overrides[id] = o
	}
	return State{
		Stores:      append([]string(nil), l.stores...),
		Archive:     append([]ShoppingItem(nil), l.archive...),
		Manual:      append([]ShoppingItem(nil), l.manual...),
		Items:       append([]ShoppingItem(nil), l.items...),
		Assignments: l.assignments.Clone(),
		Overrides:   overrides,
	}
}

// Restore replaces the list state with s. Missing parts keep their current
// value. When s carries a working list but no overrides, hand edits are
// recovered by matching its derived lines by name against a fresh
// derivation. Manual items found only in the working list are taken as
// manual items.
func (l *List) Restore(s State) {
	_ = l.mutate(func() (bool, error) {
		if len(s.Stores) > 0 {
			l.stores = nil
			for _, name := range s.Stores {
				l.addStore(name)
			}
		}
		if s.Assignments != nil {
			l.assignments = s.Assignments.Clone()
		}
		l.archive = append([]ShoppingItem(nil), s.Archive...)

		manual := append([]ShoppingItem(nil), s.Manual...)
		if len(manual) == 0 {
			for _, item := range s.Items {
				if item.IsManual {
					manual = append(manual, item)
				}
			}
		}
		l.manual = manual

		l.overrides = make(map[string]Override, len(s.Overrides))
		for id, o := range s.Overrides {
			l.overrides[id] = o
		}
		if len(s.Overrides) == 0 {
			l.seedOverrides(s.Items)
		}

		l.observeStamp(s.MaxUpdatedAt())
		return true, nil
	})
}

// seedOverrides records the difference between each saved derived line and
// the fresh line with the same name as an override.
func (l *List) seedOverrides(saved []ShoppingItem) {
	byName := make(map[string]ShoppingItem, len(saved))
	for _, item := range saved {
		if item.IsManual {
			continue
		}
		byName[NormalizeName(item.Name)] = item
	}
	if len(byName) == 0 {
		return
	}
	// A saved quantity already includes folded manual items.
	folded := make(map[string]struct{}, len(l.manual))
	for _, m := range l.manual {
		folded[NormalizeName(m.Name)] = struct{}{}
	}

	for _, d := range l.derived {
		s, ok := byName[NormalizeName(d.Name)]
		if !ok {
			continue
		}
		var o Override
		var edited bool
		if _, ok := folded[NormalizeName(d.Name)]; !ok && s.Quantity != d.Quantity {
			q := s.Quantity
			o.Quantity = &q
			edited = true
		}
		if s.Category != "" && s.Category != d.Category {
			c := s.Category
			o.Category = &c
			edited = true
		}
		if s.Store != "" && s.Store != Unassigned {
			if current, ok := l.assignments.Get(d.Name); !ok || current != s.Store {
				st := s.Store
				o.Store = &st
				edited = true
			}
		}
		if s.Department != "" {
			dep := s.Department
			o.Department = &dep
			edited = true
		}
		if s.Recurring {
			r := true
			o.Recurring = &r
			edited = true
		}
		if edited {
			o.UpdatedAt = s.UpdatedAt
			l.overrides[d.ID] = o
		}
	}
}
