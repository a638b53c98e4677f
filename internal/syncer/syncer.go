package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meal-planner/internal/notice"
	"meal-planner/internal/shopping"
)

// Keys under which the list is kept in local storage.
const (
	KeyStores      = "shopping.stores"
	KeyArchive     = "shopping.archive"
	KeyManual      = "shopping.manual"
	KeyItems       = "shopping.items"
	KeyAssignments = "shopping.assignments"
	KeyOverrides   = "shopping.overrides"
)

// FailureNotice is what the user sees when any sync step fails.
const FailureNotice = "Sync failed. Your changes are kept on this device and will sync again after your next edit."

// remoteNamespace scopes the uuids derived from local item ids.
var remoteNamespace = uuid.MustParse("5b0f7a3c-2f4e-4d9a-9f55-8c1e6f0a7d21")

// LocalStore is durable key/value storage on this device.
type LocalStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, data []byte) error
}

// RemoteStore is the per-user item table shared between devices.
type RemoteStore interface {
	UpsertItems(ctx context.Context, userID string, items []shopping.RemoteItem) error
	DeleteItemsNotIn(ctx context.Context, userID string, keep []string) (int64, error)
	ListItems(ctx context.Context, userID string) ([]shopping.RemoteItem, error)
	Subscribe(userID string) (<-chan shopping.RowChange, func())
}

// Notifier receives user-facing notices.
type Notifier interface {
	Post(level notice.Level, message string)
}

// Syncer keeps a shopping list durable. Every change to the list schedules a
// debounced write of the latest state to local storage and, when a user
// session exists, to the remote store. Failures are logged and reported as a
// notice; they never reach the code that edited the list.
type Syncer struct {
	list     *shopping.List
	local    LocalStore
	remote   RemoteStore
	notices  Notifier
	logger   *zap.Logger
	debounce time.Duration

	mu       sync.Mutex
	userID   string
	timer    *time.Timer
	closed   bool
	stopFeed func()
	toLocal  map[string]string
	toRemote map[string]string

	// writeMu keeps snapshot and local write together so local storage
	// never goes back to an older state.
	writeMu sync.Mutex

	inFlight  atomic.Bool
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Syncer for list and subscribes it to the list's changes.
// remote and notices may be nil.
func New(list *shopping.List, local LocalStore, remote RemoteStore, notices Notifier, logger *zap.Logger, debounce time.Duration) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = time.Second
	}
	s := &Syncer{
		list:     list,
		local:    local,
		remote:   remote,
		notices:  notices,
		logger:   logger,
		debounce: debounce,
		toLocal:  make(map[string]string),
		toRemote: make(map[string]string),
		done:     make(chan struct{}),
	}
	list.OnChange(s.Schedule)
	return s
}

// SetUser starts (or with an empty id ends) the remote session.
func (s *Syncer) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

func (s *Syncer) session() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.userID != "" && s.remote != nil
}

// LoadLocal restores the list from local storage. Missing keys leave the
// corresponding part of the list empty.
func (s *Syncer) LoadLocal() error {
	var state shopping.State
	parts := []struct {
		key  string
		dest any
	}{
		{KeyStores, &state.Stores},
		{KeyArchive, &state.Archive},
		{KeyManual, &state.Manual},
		{KeyItems, &state.Items},
		{KeyAssignments, &state.Assignments},
		{KeyOverrides, &state.Overrides},
	}

	var errs []error
	for _, p := range parts {
		data, ok, err := s.local.Get(p.key)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read %s: %w", p.key, err))
			continue
		}
		if !ok {
			continue
		}
		if err := json.Unmarshal(data, p.dest); err != nil {
			errs = append(errs, fmt.Errorf("failed to decode %s: %w", p.key, err))
		}
	}

	s.list.Restore(state)
	s.logger.Info("shopping list loaded from local storage",
		zap.Int("items", len(state.Items)),
		zap.Int("archived", len(state.Archive)))
	return errors.Join(errs...)
}

// Schedule arranges a Flush after the debounce interval. Calls within the
// interval push the deadline back, so only the latest state is written.
func (s *Syncer) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

func (s *Syncer) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = s.Flush(ctx)
}

// Flush writes the current state to local storage and pushes it to the
// remote store. Errors are reported and also returned.
func (s *Syncer) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	state := s.list.Snapshot()
	err := s.writeLocal(state)
	s.writeMu.Unlock()
	if err != nil {
		s.report("write local", err)
		return err
	}
	if err := s.push(ctx, state); err != nil {
		s.report("push remote", err)
		return err
	}
	return nil
}

func (s *Syncer) writeLocal(state shopping.State) error {
	parts := []struct {
		key   string
		value any
	}{
		{KeyStores, state.Stores},
		{KeyArchive, state.Archive},
		{KeyManual, state.Manual},
		{KeyItems, state.Items},
		{KeyAssignments, state.Assignments},
		{KeyOverrides, state.Overrides},
	}
	for _, p := range parts {
		data, err := json.Marshal(p.value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", p.key, err)
		}
		if err := s.local.Set(p.key, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.key, err)
		}
	}
	return nil
}

// push upserts every row and then deletes the user's rows that are gone
// locally. A push that starts while another is running is skipped; the next
// change schedules a new one.
func (s *Syncer) push(ctx context.Context, state shopping.State) error {
	userID, ok := s.session()
	if !ok {
		return nil
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("remote sync already running, skipping")
		return nil
	}
	defer s.inFlight.Store(false)

	rows := s.rows(userID, state)
	if err := s.remote.UpsertItems(ctx, userID, rows); err != nil {
		return err
	}
	keep := make([]string, 0, len(rows))
	for _, r := range rows {
		keep = append(keep, r.ID)
	}
	deleted, err := s.remote.DeleteItemsNotIn(ctx, userID, keep)
	if err != nil {
		return err
	}
	s.logger.Debug("shopping list pushed",
		zap.String("user_id", userID),
		zap.Int("rows", len(rows)),
		zap.Int64("deleted", deleted))
	return nil
}

// rows flattens the state into remote rows: working derived lines, manual
// items (folded ones included) and archived items.
func (s *Syncer) rows(userID string, state shopping.State) []shopping.RemoteItem {
	now := time.Now().UnixMilli()
	used := make(map[string]struct{})
	seen := make(map[string]struct{})
	var rows []shopping.RemoteItem

	add := func(item shopping.ShoppingItem, checked bool) {
		id := s.remoteID(userID, item.ID)
		_, again := seen[item.ID]
		if _, dup := used[id]; dup {
			// The same local id can be both archived and back in the working
			// list. The later row gets its own stable id in a separate space.
			kind := "dup"
			if checked {
				kind = "archive"
			}
			id = uuid.NewSHA1(remoteNamespace, []byte(userID+":"+kind+":"+item.ID)).String()
			if _, dup := used[id]; dup {
				id = uuid.NewString()
			}
		}
		used[id] = struct{}{}
		seen[item.ID] = struct{}{}
		if again {
			s.rememberLocal(id, item.ID)
		} else {
			s.remember(id, item.ID)
		}

		updated := item.UpdatedAt
		if updated == 0 {
			updated = now
		}
		rows = append(rows, shopping.RemoteItem{
			ID:         id,
			UserID:     userID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Category:   item.Category,
			Store:      item.Store,
			Department: item.Department,
			Meal:       item.Meal,
			Checked:    checked,
			IsManual:   item.IsManual,
			CreatedAt:  updated,
			UpdatedAt:  item.UpdatedAt,
		})
	}

	for _, item := range state.Items {
		if !item.IsManual {
			add(item, false)
		}
	}
	for _, item := range state.Manual {
		add(item, false)
	}
	for _, item := range state.Archive {
		add(item, true)
	}
	return rows
}

// remoteID maps a local id onto the uuid the remote table requires. Manual
// ids already embed one; every other id is hashed with the user id so all
// devices agree on it.
func (s *Syncer) remoteID(userID, localID string) string {
	if rest, ok := strings.CutPrefix(localID, "manual-"); ok {
		if id, err := uuid.Parse(rest); err == nil {
			return id.String()
		}
	}
	if id, err := uuid.Parse(localID); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(remoteNamespace, []byte(userID+":"+localID)).String()
}

func (s *Syncer) remember(remoteID, localID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toLocal[remoteID] = localID
	s.toRemote[localID] = remoteID
}

// rememberLocal maps a remote row back to its local id without making it the
// row checks for that id are sent to.
func (s *Syncer) rememberLocal(remoteID, localID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toLocal[remoteID] = localID
}

// RemoteID returns the remote row id last used for a local item id.
func (s *Syncer) RemoteID(localID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.toRemote[localID]
	return id, ok
}

// prime records the remote ids of every local item so rows written by other
// devices map back onto the same local ids.
func (s *Syncer) prime(userID string, state shopping.State) {
	s.rows(userID, state)
}

func (s *Syncer) localID(row shopping.RemoteItem) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.toLocal[row.ID]; ok {
		return id
	}
	if row.IsManual {
		return "manual-" + row.ID
	}
	return row.ID
}

// Load reconciles the local list with the remote store for the current
// user. The side with the newest stamp wins as a whole. On a tie, or when
// the remote store is empty, the local list wins and is pushed.
func (s *Syncer) Load(ctx context.Context) error {
	userID, ok := s.session()
	if !ok {
		return nil
	}

	rows, err := s.remote.ListItems(ctx, userID)
	if err != nil {
		err = fmt.Errorf("failed to load remote items: %w", err)
		s.report("load remote", err)
		return err
	}

	local := s.list.Snapshot()
	s.prime(userID, local)
	remote := s.stateFromRows(rows)
	localMax, remoteMax := local.MaxUpdatedAt(), remote.MaxUpdatedAt()

	if len(rows) > 0 && remoteMax > localMax {
		s.logger.Info("remote shopping list is newer, replacing local copy",
			zap.Int64("local_updated_at", localMax),
			zap.Int64("remote_updated_at", remoteMax))
		s.list.Restore(remote)
		return nil
	}

	if err := s.push(ctx, local); err != nil {
		s.report("push remote", err)
		return err
	}
	return nil
}

func (s *Syncer) stateFromRows(rows []shopping.RemoteItem) shopping.State {
	var state shopping.State
	for _, row := range rows {
		item := shopping.ShoppingItem{
			ID:         s.localID(row),
			Name:       row.Name,
			Quantity:   row.Quantity,
			Category:   row.Category,
			Store:      row.Store,
			Department: row.Department,
			Meal:       row.Meal,
			Checked:    row.Checked,
			IsManual:   row.IsManual,
			UpdatedAt:  row.UpdatedAt,
		}
		switch {
		case row.Checked:
			state.Archive = append(state.Archive, item)
		case row.IsManual:
			state.Manual = append(state.Manual, item)
			state.Items = append(state.Items, item)
		default:
			state.Items = append(state.Items, item)
		}
	}
	return state
}

// Start subscribes to remote changes for the current user and expires
// pending overlays until ctx is done or the Syncer is closed.
func (s *Syncer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	var changes <-chan shopping.RowChange
	if s.userID != "" && s.remote != nil {
		var cancel func()
		changes, cancel = s.remote.Subscribe(s.userID)
		s.stopFeed = cancel
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.unsubscribe()
				return
			case <-s.done:
				return
			case <-ticker.C:
				if expired := s.list.ExpirePending(); len(expired) > 0 {
					s.logger.Debug("pending edits expired", zap.Strings("item_ids", expired))
				}
			case change, ok := <-changes:
				if !ok {
					return
				}
				s.apply(change)
			}
		}
	}()
}

func (s *Syncer) apply(change shopping.RowChange) {
	if change.Type != shopping.ChangeUpdate {
		return
	}
	id := s.localID(change.Row)
	if s.list.ApplyRemoteChecked(id, change.Row.Checked, change.Row.UpdatedAt) {
		s.logger.Debug("applied remote change",
			zap.String("item_id", id),
			zap.Bool("checked", change.Row.Checked))
	}
}

func (s *Syncer) unsubscribe() {
	s.mu.Lock()
	stop := s.stopFeed
	s.stopFeed = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Close stops scheduling new writes, ends the change subscription and waits
// for running work. It does not flush; a Flush after Close writes the final
// state with no other write running.
func (s *Syncer) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.closeOnce.Do(func() { close(s.done) })
	s.unsubscribe()
	s.wg.Wait()
}

func (s *Syncer) report(op string, err error) {
	s.logger.Error("sync failed", zap.String("op", op), zap.Error(err))
	if s.notices != nil {
		s.notices.Post(notice.Error, FailureNotice)
	}
}
