// Package app holds the todo collection and the rules for changing it.
package app

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todomvc/logging"
	"todomvc/model"
	"todomvc/store"
)

// TodoStore owns the canonical todo collection and the active filter.
// Every state change is written through to the adapter. It is not safe for
// concurrent use; callers funnel all access through one goroutine.
type TodoStore struct {
	adapter store.Adapter
	logger  *log.Logger
	newID   func() string

	order  []string
	items  map[string]model.TodoItem
	filter model.Filter

	saveErr error
}

const maxIDAttempts = 8

// Option configures a TodoStore.
type Option func(*TodoStore)

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *TodoStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *TodoStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithFilter sets the initial filter.
func WithFilter(f model.Filter) Option {
	return func(s *TodoStore) {
		s.filter = model.ParseFilter(string(f))
	}
}

// NewTodoStore hydrates a store from adapter. Load failures leave the
// collection empty; they are logged, not returned.
func NewTodoStore(adapter store.Adapter, opts ...Option) *TodoStore {
	s := &TodoStore{
		adapter: adapter,
		logger:  logging.Discard(),
		newID:   uuid.NewString,
		items:   map[string]model.TodoItem{},
		filter:  model.FilterAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	order, items, err := s.load()
	if err != nil {
		s.logger.Warn("stored todos unreadable, starting empty", "err", err)
	}
	s.order, s.items = order, items
	return s
}

// Add appends a new incomplete todo. Blank content is ignored.
func (s *TodoStore) Add(content string) (model.TodoItem, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.TodoItem{}, false
	}
	id := s.uniqueID()
	item := model.TodoItem{ID: id, Content: content}
	s.order = append(s.order, id)
	s.items[id] = item
	s.logger.Debug("todo added", "id", id)
	s.persist()
	return item, true
}

// Update replaces the content of id and leaves edit mode.
func (s *TodoStore) Update(id, content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}
	return s.mutate(id, func(t *model.TodoItem) {
		t.Content = content
		t.Editing = false
	})
}

// Delete removes id.
func (s *TodoStore) Delete(id string) bool {
	if !s.has(id) {
		return false
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.logger.Debug("todo deleted", "id", id)
	s.persist()
	return true
}

// ToggleComplete flips the completion flag of id.
func (s *TodoStore) ToggleComplete(id string) bool {
	return s.mutate(id, func(t *model.TodoItem) {
		t.Complete = !t.Complete
	})
}

// SetEditing puts id into edit mode.
func (s *TodoStore) SetEditing(id string) bool {
	return s.mutate(id, func(t *model.TodoItem) {
		t.Editing = true
	})
}

// CancelEditing leaves edit mode without changing content.
func (s *TodoStore) CancelEditing(id string) bool {
	return s.mutate(id, func(t *model.TodoItem) {
		t.Editing = false
	})
}

// ToggleAll completes every todo if any is still active,
// otherwise marks every todo active again.
func (s *TodoStore) ToggleAll() {
	if len(s.order) == 0 {
		return
	}
	hasIncomplete := false
	for _, id := range s.order {
		if !s.items[id].Complete {
			hasIncomplete = true
			break
		}
	}
	for _, id := range s.order {
		item := s.items[id]
		item.Complete = hasIncomplete
		s.items[id] = item
	}
	s.persist()
}

// ClearCompleted removes all completed todos and returns how many were removed.
func (s *TodoStore) ClearCompleted() int {
	kept := make([]string, 0, len(s.order))
	removed := 0
	for _, id := range s.order {
		if s.items[id].Complete {
			delete(s.items, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	if removed == 0 {
		return 0
	}
	s.order = kept
	s.logger.Debug("completed todos cleared", "count", removed)
	s.persist()
	return removed
}

// SetFilter applies an externally supplied filter value.
// Unrecognized input selects All.
func (s *TodoStore) SetFilter(raw string) model.Filter {
	s.filter = model.ParseFilter(raw)
	return s.filter
}

// Filter returns the active filter.
func (s *TodoStore) Filter() model.Filter {
	return s.filter
}

// Reload re-reads the adapter, replacing the collection without writing back.
// It reports whether anything visible changed. A read failure other than a
// corrupt payload keeps the current collection.
func (s *TodoStore) Reload() bool {
	order, items, err := s.load()
	if err != nil {
		if !errors.Is(err, store.ErrCorrupt) {
			s.logger.Warn("reloading todos failed, keeping current list", "err", err)
			return false
		}
		s.logger.Warn("stored todos unreadable, starting empty", "err", err)
	}
	if sameSnapshot(s.order, s.items, order, items) {
		return false
	}
	s.order, s.items = order, items
	s.logger.Debug("todos reloaded from storage", "count", len(order))
	return true
}

// SaveErr returns the error from the most recent write, if it failed.
func (s *TodoStore) SaveErr() error {
	return s.saveErr
}

// Get returns the todo with the given id.
func (s *TodoStore) Get(id string) (model.TodoItem, bool) {
	item, ok := s.items[id]
	return item, ok
}

// Len returns the number of todos.
func (s *TodoStore) Len() int {
	return len(s.order)
}

// AllItems returns every todo in insertion order.
func (s *TodoStore) AllItems() []model.TodoItem {
	return s.collect(model.FilterAll)
}

// ActiveItems returns todos that are not complete.
func (s *TodoStore) ActiveItems() []model.TodoItem {
	return s.collect(model.FilterActive)
}

// CompletedItems returns todos that are complete.
func (s *TodoStore) CompletedItems() []model.TodoItem {
	return s.collect(model.FilterCompleted)
}

// FilteredItems returns the todos visible under the active filter.
func (s *TodoStore) FilteredItems() []model.TodoItem {
	return s.collect(s.filter)
}

func (s *TodoStore) collect(f model.Filter) []model.TodoItem {
	out := make([]model.TodoItem, 0, len(s.order))
	for _, id := range s.order {
		item := s.items[id]
		if f.Matches(item.Complete) {
			out = append(out, item)
		}
	}
	return out
}

// uniqueID asks the configured generator for a fresh id a bounded number of
// times, then falls back to random UUIDs.
func (s *TodoStore) uniqueID() string {
	for i := 0; i < maxIDAttempts; i++ {
		if id := s.newID(); id != "" && !s.has(id) {
			return id
		}
	}
	id := uuid.NewString()
	for s.has(id) {
		id = uuid.NewString()
	}
	return id
}

func (s *TodoStore) has(id string) bool {
	_, ok := s.items[id]
	return ok
}

func (s *TodoStore) mutate(id string, fn func(*model.TodoItem)) bool {
	item, ok := s.items[id]
	if !ok {
		return false
	}
	fn(&item)
	s.items[id] = item
	s.persist()
	return true
}

func (s *TodoStore) persist() {
	if s.adapter == nil {
		return
	}
	s.saveErr = s.adapter.Save(s.AllItems())
	if s.saveErr != nil {
		s.logger.Error("saving todos failed", "err", s.saveErr)
	}
}

// load reads and normalizes the stored snapshot. On error it returns an
// empty collection along with the error.
func (s *TodoStore) load() ([]string, map[string]model.TodoItem, error) {
	order := []string{}
	items := map[string]model.TodoItem{}
	if s.adapter == nil {
		return order, items, nil
	}

	loaded, err := s.adapter.Load()
	if err != nil {
		return order, items, err
	}
	for _, item := range loaded {
		item.Content = strings.TrimSpace(item.Content)
		if item.ID == "" || item.Content == "" {
			continue
		}
		item.Editing = false
		if _, seen := items[item.ID]; !seen {
			order = append(order, item.ID)
		}
		items[item.ID] = item
	}
	return order, items, nil
}

func sameSnapshot(aOrder []string, a map[string]model.TodoItem, bOrder []string, b map[string]model.TodoItem) bool {
	if len(aOrder) != len(bOrder) {
		return false
	}
	for i := range aOrder {
		if aOrder[i] != bOrder[i] {
			return false
		}
		x, y := a[aOrder[i]], b[bOrder[i]]
		if x.Content != y.Content || x.Complete != y.Complete {
			return false
		}
	}
	return true
}
