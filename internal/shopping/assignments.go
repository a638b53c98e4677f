package shopping

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AssignmentStore remembers which store the user picked for an item name so
// the choice survives re-deriving the list. Entries keep insertion order.
type AssignmentStore struct {
	keys   []string
	stores map[string]string
}

// NewAssignmentStore creates an empty AssignmentStore.
func NewAssignmentStore() *AssignmentStore {
	return &AssignmentStore{stores: make(map[string]string)}
}

// Set records store for name. Empty and Unassigned stores are ignored; use
// Clear to forget a name.
func (a *AssignmentStore) Set(name, store string) {
	store = strings.TrimSpace(store)
	key := NormalizeName(name)
	if key == "" || store == "" || store == Unassigned {
		return
	}
	if a.stores == nil {
		a.stores = make(map[string]string)
	}
	if _, ok := a.stores[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.stores[key] = store
}

// Clear forgets the store for name.
func (a *AssignmentStore) Clear(name string) {
	key := NormalizeName(name)
	if _, ok := a.stores[key]; !ok {
		return
	}
	delete(a.stores, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

// Get returns the store recorded for name.
func (a *AssignmentStore) Get(name string) (string, bool) {
	store, ok := a.stores[NormalizeName(name)]
	return store, ok
}

// Len returns the number of recorded names.
func (a *AssignmentStore) Len() int {
	return len(a.keys)
}

// Pairs returns the (name, store) pairs in insertion order.
func (a *AssignmentStore) Pairs() [][2]string {
	pairs := make([][2]string, 0, len(a.keys))
	for _, k := range a.keys {
		pairs = append(pairs, [2]string{k, a.stores[k]})
	}
	return pairs
}

// ReplaceStore moves every name assigned to from over to to. An empty or
// Unassigned to clears those names.
func (a *AssignmentStore) ReplaceStore(from, to string) {
	for _, k := range append([]string(nil), a.keys...) {
		if a.stores[k] != from {
			continue
		}
		if to == "" || to == Unassigned {
			a.Clear(k)
		} else {
			a.stores[k] = to
		}
	}
}

// Clone returns an independent copy.
func (a *AssignmentStore) Clone() *AssignmentStore {
	c := NewAssignmentStore()
	for _, p := range a.Pairs() {
		c.Set(p[0], p[1])
	}
	return c
}

// MarshalJSON encodes the store as an ordered list of [name, store] pairs.
func (a *AssignmentStore) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Pairs())
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (a *AssignmentStore) UnmarshalJSON(data []byte) error {
	var pairs [][2]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("failed to decode store assignments: %w", err)
	}
	a.keys = nil
	a.stores = make(map[string]string, len(pairs))
	for _, p := range pairs {
		a.Set(p[0], p[1])
	}
	return nil
}
