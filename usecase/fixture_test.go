package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"lifeloop/model"
	"lifeloop/period"
	"lifeloop/repository"
	"lifeloop/services"
	"lifeloop/usecase"
	"lifeloop/utils"
)

// Monday 2026-10-19, 09:00 UTC
var monday = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

const testUser = "user-1"

type testEngine struct {
	items      *repository.MemoryItemsRepo
	docs       *repository.MemoryAnalyticsRepo
	events     *repository.MemoryEventLog
	clock      *utils.FixedTime
	periods    *period.Classifier
	completion *usecase.CompletionService
	reset      *usecase.ResetService
	analytics  *usecase.AnalyticsService
}

func newTestEngine(t *testing.T) *testEngine {
	return newTestEngineWith(t, nil)
}

// newTestEngineWith lets a test wrap the item store, e.g. to inject failures.
func newTestEngineWith(t *testing.T, wrap func(*repository.MemoryItemsRepo) usecase.ItemStore) *testEngine {
	t.Helper()

	e := &testEngine{
		items:   repository.NewMemoryItemsRepo(),
		docs:    repository.NewMemoryAnalyticsRepo(),
		events:  repository.NewMemoryEventLog(),
		clock:   utils.NewFixedTime(monday),
		periods: period.NewClassifier(time.UTC),
	}

	var store usecase.ItemStore = e.items
	if wrap != nil {
		store = wrap(e.items)
	}

	locker := services.NewKeyedMutex()
	opts := usecase.BatchOptions{Workers: 4, ItemTimeout: time.Second}
	e.analytics = usecase.NewAnalyticsService(e.docs, e.events, locker, nil, e.clock, e.periods, opts)
	e.completion = usecase.NewCompletionService(store, locker, e.analytics, e.clock, e.periods)
	e.reset = usecase.NewResetService(store, locker, e.analytics, e.clock, e.periods, opts)
	return e
}

func (e *testEngine) put(t *testing.T, item *model.RecurringItem) {
	t.Helper()
	if item.UserID == "" {
		item.UserID = testUser
	}
	if item.Title == "" {
		item.Title = item.ItemID
	}
	if err := e.items.Save(context.Background(), item); err != nil {
		t.Fatalf("failed to seed item %s: %v", item.ItemID, err)
	}
}

func (e *testEngine) get(t *testing.T, id string) *model.RecurringItem {
	t.Helper()
	item, err := e.items.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to load item %s: %v", id, err)
	}
	return item
}

func (e *testEngine) doc(t *testing.T, userID string) *model.AnalyticsDocument {
	t.Helper()
	doc, err := e.docs.Load(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to load analytics: %v", err)
	}
	if doc == nil {
		t.Fatalf("no analytics document for %s", userID)
	}
	return doc
}

func task(id string, f model.Frequency) *model.RecurringItem {
	return &model.RecurringItem{ItemID: id, Kind: model.KindTask, Frequency: f, CreatedAt: monday}
}

func habit(id string, f model.Frequency, target int) *model.RecurringItem {
	return &model.RecurringItem{
		ItemID:    id,
		Kind:      model.KindHabit,
		Frequency: f,
		Habit:     &model.HabitPayload{AmountRequired: target},
		CreatedAt: monday,
	}
}

func routine(id string, f model.Frequency, taskIDs, habitIDs []string) *model.RecurringItem {
	return &model.RecurringItem{
		ItemID:    id,
		Kind:      model.KindRoutine,
		Frequency: f,
		Routine:   &model.RoutinePayload{TaskIDs: taskIDs, HabitIDs: habitIDs},
		CreatedAt: monday,
	}
}

func at(t time.Time) *time.Time { return &t }

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

// failingStore fails every Save of one item.
type failingStore struct {
	*repository.MemoryItemsRepo
	failOn string
}

var errDiskFull = errors.New("disk full")

func (f *failingStore) Save(ctx context.Context, item *model.RecurringItem) error {
	if item.ItemID == f.failOn {
		return errDiskFull
	}
	return f.MemoryItemsRepo.Save(ctx, item)
}

func failingOn(id string) func(*repository.MemoryItemsRepo) usecase.ItemStore {
	return func(r *repository.MemoryItemsRepo) usecase.ItemStore {
		return &failingStore{MemoryItemsRepo: r, failOn: id}
	}
}
