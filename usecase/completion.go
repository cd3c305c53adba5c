package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"lifeloop/model"
	"lifeloop/period"
	"lifeloop/utils"
)

// CompletionService records user completions against recurring items.
type CompletionService struct {
	Items    ItemStore
	Locker   Locker
	Recorder EventRecorder
	Clock    utils.Clock
	rules    *rules
}

func NewCompletionService(items ItemStore, locker Locker, recorder EventRecorder, clock utils.Clock, periods *period.Classifier) *CompletionService {
	return &CompletionService{
		Items:    items,
		Locker:   locker,
		Recorder: recorder,
		Clock:    clock,
		rules:    newRules(periods),
	}
}

// loadOwned reads id and checks it belongs to userID.
func loadOwned(ctx context.Context, items ItemStore, id, userID string) (*model.RecurringItem, error) {
	item, err := items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		utils.TrackError("authorization", "not_owner")
		return nil, model.NewError(model.KindUnauthorized, model.ReasonAlreadyOwnedByOther, id, "item belongs to another user")
	}
	if err := utils.ValidateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// lockKeys acquires the item locks for ids in sorted order so that two
// callers locking overlapping sets cannot deadlock.
func lockKeys(ctx context.Context, locker Locker, ids []string) (func(), error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var releases []func()
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for i, id := range sorted {
		if i > 0 && sorted[i-1] == id {
			continue
		}
		release, err := locker.Acquire(ctx, itemLockKey(id))
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

func (s *CompletionService) record(ctx context.Context, events []model.Event) {
	if len(events) == 0 || s.Recorder == nil {
		return
	}
	// The item change is already committed; analytics can be rebuilt from
	// the event log, so a failure here is reported but not returned.
	if err := s.Recorder.Record(ctx, events...); err != nil {
		log.Printf("Failed to record %d events: %v", len(events), err)
		utils.TrackError("analytics", "record_failed")
	}
}

func appendEvent(events []model.Event, ev *model.Event) []model.Event {
	if ev == nil {
		return events
	}
	return append(events, *ev)
}

// CompleteNow records one completion of itemID. Routines complete their
// linked items as well (see CompleteRoutine).
func (s *CompletionService) CompleteNow(ctx context.Context, itemID, userID string) (*model.RecurringItem, error) {
	peek, err := loadOwned(ctx, s.Items, itemID, userID)
	if err != nil {
		return nil, err
	}
	if peek.Kind == model.KindRoutine {
		return s.CompleteRoutine(ctx, itemID, userID)
	}

	release, err := s.Locker.Acquire(ctx, itemLockKey(itemID))
	if err != nil {
		return nil, err
	}
	defer release()

	item, err := loadOwned(ctx, s.Items, itemID, userID)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	var events []model.Event

	rolled, err := s.rules.rollOver(item, now)
	if err != nil {
		return nil, err
	}
	events = appendEvent(events, rolled)

	completed, err := s.rules.complete(item, now)
	if err != nil {
		return nil, err
	}
	events = appendEvent(events, completed)

	action := "complete"
	switch {
	case completed == nil && item.Habit != nil:
		action = "progress"
	case completed == nil:
		action = "noop"
	}

	if rolled != nil || item.Habit != nil || completed != nil {
		if err := s.Items.Save(ctx, item); err != nil {
			return nil, err
		}
	}
	utils.TrackCompletion(string(item.Kind), action)
	s.record(ctx, events)
	return item, nil
}

// UncompleteNow reverses one completion made in the current period.
func (s *CompletionService) UncompleteNow(ctx context.Context, itemID, userID string) (*model.RecurringItem, error) {
	release, err := s.Locker.Acquire(ctx, itemLockKey(itemID))
	if err != nil {
		return nil, err
	}
	defer release()

	item, err := loadOwned(ctx, s.Items, itemID, userID)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	var events []model.Event

	rolled, err := s.rules.rollOver(item, now)
	if err != nil {
		return nil, err
	}
	events = appendEvent(events, rolled)

	uncompleted, err := s.rules.uncomplete(item, now)
	if err != nil {
		utils.TrackCompletion(string(item.Kind), "rejected")
		return nil, err
	}
	events = appendEvent(events, uncompleted)

	if err := s.Items.Save(ctx, item); err != nil {
		return nil, err
	}
	utils.TrackCompletion(string(item.Kind), "uncomplete")
	s.record(ctx, events)
	return item, nil
}

// CompleteRoutine completes a routine together with every task and habit it
// links, in one transaction: either all of them are saved or none is.
func (s *CompletionService) CompleteRoutine(ctx context.Context, routineID, userID string) (*model.RecurringItem, error) {
	peek, err := loadOwned(ctx, s.Items, routineID, userID)
	if err != nil {
		return nil, err
	}
	if peek.Kind != model.KindRoutine {
		return nil, model.NewError(model.KindValidation, model.ReasonInvalidItem, routineID, "item is not a routine")
	}

	release, err := s.Locker.Acquire(ctx, itemLockKey(routineID))
	if err != nil {
		return nil, err
	}
	defer release()

	// Linked IDs can change between the peek and the lock; read them again
	routine, err := loadOwned(ctx, s.Items, routineID, userID)
	if err != nil {
		return nil, err
	}
	childIDs := linkedChildren(routine)
	releaseChildren, err := lockKeys(ctx, s.Locker, childIDs)
	if err != nil {
		return nil, err
	}
	defer releaseChildren()

	now := s.Clock.Now()
	var events []model.Event
	var saved *model.RecurringItem

	err = s.Items.WithTransaction(ctx, func(txCtx context.Context) error {
		events = events[:0]

		routine, err := loadOwned(txCtx, s.Items, routineID, userID)
		if err != nil {
			return err
		}
		children, err := s.Items.FindByIDs(txCtx, childIDs)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewError(model.KindValidation, model.ReasonRoutineLinkUnavailable, routineID,
					"routine links a missing item: %v", err)
			}
			return err
		}

		for _, child := range children {
			if child.UserID != userID {
				return model.NewError(model.KindUnauthorized, model.ReasonAlreadyOwnedByOther, child.ItemID,
					"linked item belongs to another user")
			}
			if err := utils.ValidateItem(child); err != nil {
				return err
			}
			rolled, err := s.rules.rollOver(child, now)
			if err != nil {
				return err
			}
			filled, err := s.rules.fill(child, now)
			if err != nil {
				return err
			}
			if err := s.Items.Save(txCtx, child); err != nil {
				return fmt.Errorf("save linked item %s: %w", child.ItemID, err)
			}
			events = appendEvent(appendEvent(events, rolled), filled)
		}

		rolled, err := s.rules.rollOver(routine, now)
		if err != nil {
			return err
		}
		completed, err := s.rules.fill(routine, now)
		if err != nil {
			return err
		}
		if err := s.Items.Save(txCtx, routine); err != nil {
			return err
		}
		events = appendEvent(appendEvent(events, rolled), completed)
		saved = routine
		return nil
	})
	if err != nil {
		utils.TrackError("completion", "routine_failed")
		return nil, err
	}

	utils.TrackCompletion(string(model.KindRoutine), "complete")
	s.record(ctx, events)
	return saved, nil
}

// DeleteItem removes an owned item and drops it from the owner's analytics.
func (s *CompletionService) DeleteItem(ctx context.Context, itemID, userID string) error {
	release, err := s.Locker.Acquire(ctx, itemLockKey(itemID))
	if err != nil {
		return err
	}
	defer release()

	item, err := s.Items.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return model.NewError(model.KindUnauthorized, model.ReasonAlreadyOwnedByOther, itemID, "item belongs to another user")
	}
	if err := s.Items.Delete(ctx, itemID); err != nil {
		return err
	}
	s.record(ctx, []model.Event{model.NewDeletionEvent(item, s.Clock.Now())})
	return nil
}

// linkedChildren lists a routine's linked IDs without duplicates or the
// routine itself.
func linkedChildren(routine *model.RecurringItem) []string {
	seen := map[string]bool{routine.ItemID: true}
	var ids []string
	for _, id := range routine.LinkedIDs() {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
