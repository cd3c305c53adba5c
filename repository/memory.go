package repository

import (
	"context"
	"sort"
	"sync"

	"lifeloop/model"
)

// In-memory stores back STORE_DRIVER=memory and the test suites. They copy
// items on every read and write so callers never share state with the store.

type memTxKey struct{}

type memTx struct {
	writes map[string]*model.RecurringItem
}

type MemoryItemsRepo struct {
	mu    sync.RWMutex
	items map[string]*model.RecurringItem
}

func NewMemoryItemsRepo() *MemoryItemsRepo {
	return &MemoryItemsRepo{items: make(map[string]*model.RecurringItem)}
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

func (r *MemoryItemsRepo) LoadDue(ctx context.Context, frequency model.Frequency) ([]*model.RecurringItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []*model.RecurringItem
	for _, item := range r.items {
		if item.Frequency != frequency {
			continue
		}
		if item.Completed || item.ActiveStreak() > 0 || (item.Habit != nil && item.Habit.AmountDone > 0) {
			due = append(due, item.Clone())
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ItemID < due[j].ItemID })
	return due, nil
}

func (r *MemoryItemsRepo) FindByID(ctx context.Context, id string) (*model.RecurringItem, error) {
	if tx := txFrom(ctx); tx != nil {
		if item, ok := tx.writes[id]; ok {
			return item.Clone(), nil
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, model.NotFound(id)
	}
	return item.Clone(), nil
}

func (r *MemoryItemsRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.RecurringItem, error) {
	items := make([]*model.RecurringItem, 0, len(ids))
	for _, id := range ids {
		item, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *MemoryItemsRepo) Save(ctx context.Context, item *model.RecurringItem) error {
	if item == nil || item.ItemID == "" {
		return model.NewError(model.KindValidation, model.ReasonInvalidItem, "", "item ID is required")
	}
	if tx := txFrom(ctx); tx != nil {
		tx.writes[item.ItemID] = item.Clone()
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ItemID] = item.Clone()
	return nil
}

func (r *MemoryItemsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return model.NotFound(id)
	}
	delete(r.items, id)
	return nil
}

// WithTransaction stages every Save made through ctx and applies them together
// once fn succeeds. Nested calls join the outer transaction.
func (r *MemoryItemsRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	tx := &memTx{writes: make(map[string]*model.RecurringItem)}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range tx.writes {
		r.items[id] = item
	}
	return nil
}

type MemoryAnalyticsRepo struct {
	mu   sync.RWMutex
	docs map[string]*model.AnalyticsDocument
}

func NewMemoryAnalyticsRepo() *MemoryAnalyticsRepo {
	return &MemoryAnalyticsRepo{docs: make(map[string]*model.AnalyticsDocument)}
}

// Load returns nil, nil when the user has no document yet.
func (r *MemoryAnalyticsRepo) Load(ctx context.Context, userID string) (*model.AnalyticsDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[userID]
	if !ok {
		return nil, nil
	}
	return doc.Clone(), nil
}

func (r *MemoryAnalyticsRepo) Save(ctx context.Context, doc *model.AnalyticsDocument) error {
	if doc == nil || doc.UserID == "" {
		return model.NewError(model.KindValidation, "", "", "analytics document needs a user ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.UserID] = doc.Clone()
	return nil
}

func (r *MemoryAnalyticsRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *MemoryAnalyticsRepo) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, userID)
	return nil
}

type MemoryEventLog struct {
	mu     sync.RWMutex
	events []model.Event
	seen   map[string]bool
}

func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{seen: make(map[string]bool)}
}

// Append ignores events whose ID is already logged.
func (l *MemoryEventLog) Append(ctx context.Context, events ...model.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ev := range events {
		if l.seen[ev.EventID] {
			continue
		}
		l.seen[ev.EventID] = true
		l.events = append(l.events, ev)
	}
	return nil
}

func (l *MemoryEventLog) ListByUser(ctx context.Context, userID string) ([]model.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []model.Event
	for _, ev := range l.events {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (l *MemoryEventLog) DeleteByUser(ctx context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.events[:0]
	for _, ev := range l.events {
		if ev.UserID == userID {
			delete(l.seen, ev.EventID)
			continue
		}
		kept = append(kept, ev)
	}
	l.events = kept
	return nil
}
