package shopping

import "time"

// PendingState is the lifecycle of an optimistic edit.
type PendingState int

const (
	PendingActive PendingState = iota
	PendingConfirmed
	PendingExpired
)

func (s PendingState) String() string {
	switch s {
	case PendingActive:
		return "pending"
	case PendingConfirmed:
		return "confirmed"
	case PendingExpired:
		return "expired"
	default:
		return "unknown"
	}
}

type pendingEntry struct {
	patch   Override
	expires time.Time
	state   PendingState
}

// PendingOverlays holds edits that are shown before the remote store has
// acknowledged them. Each overlay is pending until it is confirmed or its
// deadline passes, whichever comes first. PendingOverlays is not safe for
// concurrent use; List guards it.
type PendingOverlays struct {
	ttl     time.Duration
	entries map[string]*pendingEntry
}

// NewPendingOverlays creates overlays that expire after ttl.
func NewPendingOverlays(ttl time.Duration) *PendingOverlays {
	return &PendingOverlays{
		ttl:     ttl,
		entries: make(map[string]*pendingEntry),
	}
}

// Add registers patch for id, replacing any earlier overlay.
func (p *PendingOverlays) Add(id string, patch Override, now time.Time) {
	p.entries[id] = &pendingEntry{patch: patch, expires: now.Add(p.ttl), state: PendingActive}
}

// Confirm marks the overlay for id as confirmed. It reports false when no
// pending overlay exists.
func (p *PendingOverlays) Confirm(id string) bool {
	e, ok := p.entries[id]
	if !ok || e.state != PendingActive {
		return false
	}
	e.state = PendingConfirmed
	return true
}

// Expire moves every pending overlay whose deadline has passed to expired
// and returns their ids.
func (p *PendingOverlays) Expire(now time.Time) []string {
	var expired []string
	for id, e := range p.entries {
		if e.state == PendingActive && !now.Before(e.expires) {
			e.state = PendingExpired
			expired = append(expired, id)
		}
	}
	return expired
}

// State reports the lifecycle state of the overlay for id.
func (p *PendingOverlays) State(id string) (PendingState, bool) {
	e, ok := p.entries[id]
	if !ok {
		return 0, false
	}
	return e.state, true
}

// Forget drops every overlay that is no longer pending.
func (p *PendingOverlays) Forget() {
	for id, e := range p.entries {
		if e.state != PendingActive {
			delete(p.entries, id)
		}
	}
}

// Apply returns items with the live overlays laid over them. An overlay that
// checks an item hides it.
func (p *PendingOverlays) Apply(items []ShoppingItem, now time.Time) []ShoppingItem {
	if len(p.entries) == 0 {
		return items
	}
	out := make([]ShoppingItem, 0, len(items))
	for _, item := range items {
		e, ok := p.entries[item.ID]
		if !ok || e.state != PendingActive || !now.Before(e.expires) {
			out = append(out, item)
			continue
		}
		if e.patch.hides() {
			continue
		}
		out = append(out, e.patch.apply(item))
	}
	return out
}
