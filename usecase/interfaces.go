package usecase

import (
	"context"

	"lifeloop/model"
)

// ItemStore persists recurring items. WithTransaction must make every Save
// issued through the ctx it passes to fn commit together or not at all.
type ItemStore interface {
	LoadDue(ctx context.Context, frequency model.Frequency) ([]*model.RecurringItem, error)
	FindByID(ctx context.Context, id string) (*model.RecurringItem, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.RecurringItem, error)
	Save(ctx context.Context, item *model.RecurringItem) error
	Delete(ctx context.Context, id string) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AnalyticsStore persists one analytics document per user. Load returns
// nil, nil for a user without a document.
type AnalyticsStore interface {
	Load(ctx context.Context, userID string) (*model.AnalyticsDocument, error)
	Save(ctx context.Context, doc *model.AnalyticsDocument) error
	ListUserIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, userID string) error
}

type EventLog interface {
	Append(ctx context.Context, events ...model.Event) error
	ListByUser(ctx context.Context, userID string) ([]model.Event, error)
	DeleteByUser(ctx context.Context, userID string) error
}

// Locker hands out mutually exclusive holds on a key. The release func must
// be called exactly once the critical section ends.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// DocumentCache is an optional read cache in front of AnalyticsStore.
type DocumentCache interface {
	Get(ctx context.Context, userID string) (*model.AnalyticsDocument, error)
	Set(ctx context.Context, doc *model.AnalyticsDocument) error
	Invalidate(ctx context.Context, userID string) error
}

// EventRecorder receives the events produced by completions and resets.
type EventRecorder interface {
	Record(ctx context.Context, events ...model.Event) error
}

func itemLockKey(id string) string      { return "item:" + id }
func analyticsLockKey(id string) string { return "analytics:" + id }
