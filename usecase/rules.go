package usecase

import (
	"time"

	"lifeloop/model"
	"lifeloop/period"
	"lifeloop/streak"
)

// rules applies the item state machine on top of the streak ledger. Every
// method mutates item in place and returns the event describing the change,
// or nil when nothing changed.
type rules struct {
	periods *period.Classifier
	ledger  *streak.Ledger
}

func newRules(periods *period.Classifier) *rules {
	return &rules{periods: periods, ledger: streak.NewLedger(periods)}
}

// rollOver brings item up to the period containing now: completion and
// habit progress from a finished period are cleared and the streak is either
// kept (previous period satisfied) or broken. Running it twice in the same
// period changes nothing the second time.
func (r *rules) rollOver(item *model.RecurringItem, now time.Time) (*model.Event, error) {
	if !item.Frequency.Recurs() {
		return nil, nil
	}

	changed := false
	if r.periods.IsPriorPeriod(item.Frequency, item.ActivityAt(), now) {
		if item.Completed {
			item.Completed = false
			changed = true
		}
		if item.Habit != nil && item.Habit.AmountDone > 0 {
			item.Habit.AmountDone = 0
			changed = true
		}
		// undo history only; not persisted unless something else changes
		item.PrevCompletedAt = nil
	}
	if item.Completed {
		// completed in the current period
		return nil, nil
	}

	counters, broken, err := r.ledger.ApplyReset(item.Streaks, item.Frequency, item.LastCompletedAt, now)
	if err != nil {
		return nil, withEntity(err, item.ItemID)
	}
	if counters != item.Streaks {
		item.Streaks = counters
		changed = true
	}
	if !changed {
		return nil, nil
	}

	item.UpdatedAt = now
	ev := model.NewResetEvent(item, broken, now)
	return &ev, nil
}

// markCompleted moves an uncompleted item into the completed state.
func (r *rules) markCompleted(item *model.RecurringItem, now time.Time) (*model.Event, error) {
	counters, err := r.ledger.ApplyCompletion(item.Streaks, item.Frequency, item.LastCompletedAt, now)
	if err != nil {
		return nil, withEntity(err, item.ItemID)
	}
	item.Streaks = counters
	item.PrevCompletedAt = item.LastCompletedAt
	completedAt := now
	item.LastCompletedAt = &completedAt
	item.Completed = true
	item.UpdatedAt = now

	ev := model.NewCompletionEvent(item, now)
	return &ev, nil
}

// markUncompleted reverses markCompleted within the same period.
func (r *rules) markUncompleted(item *model.RecurringItem, now time.Time) (*model.Event, error) {
	counters, err := r.ledger.ApplyUncomplete(item.Streaks, item.Frequency, item.LastCompletedAt, now)
	if err != nil {
		return nil, withEntity(err, item.ItemID)
	}
	undone := item.LastCompletedAt
	item.Streaks = counters
	item.LastCompletedAt = item.PrevCompletedAt
	item.PrevCompletedAt = nil
	item.Completed = false
	item.UpdatedAt = now

	ev := model.NewUncompletionEvent(item, undone, now)
	return &ev, nil
}

// complete records one unit of work: a habit gains one amount and completes
// on reaching its target, a task completes unless it already is.
func (r *rules) complete(item *model.RecurringItem, now time.Time) (*model.Event, error) {
	if item.Habit != nil {
		item.Habit.AmountDone++
		progressAt := now
		item.LastProgressAt = &progressAt
		item.UpdatedAt = now
		if item.Completed || item.Habit.AmountDone < item.Target() {
			return nil, nil
		}
		return r.markCompleted(item, now)
	}
	if item.Completed {
		return nil, nil
	}
	return r.markCompleted(item, now)
}

// fill satisfies the item's whole period at once, as a routine does for the
// habits it links.
func (r *rules) fill(item *model.RecurringItem, now time.Time) (*model.Event, error) {
	if item.Habit != nil && item.Habit.AmountDone < item.Target() {
		item.Habit.AmountDone = item.Target()
		progressAt := now
		item.LastProgressAt = &progressAt
		item.UpdatedAt = now
	}
	if item.Completed {
		return nil, nil
	}
	return r.markCompleted(item, now)
}

// uncomplete removes one unit of work. It fails with NOTHING_TO_UNDO when the
// item has no progress in the current period.
func (r *rules) uncomplete(item *model.RecurringItem, now time.Time) (*model.Event, error) {
	if item.Habit != nil {
		if item.Habit.AmountDone <= 0 {
			return nil, nothingToUndo(item.ItemID)
		}
		item.Habit.AmountDone--
		progressAt := now
		item.LastProgressAt = &progressAt
		item.UpdatedAt = now
		if !item.Completed || item.Habit.AmountDone >= item.Target() {
			return nil, nil
		}
		return r.markUncompleted(item, now)
	}
	if !item.Completed {
		return nil, nothingToUndo(item.ItemID)
	}
	return r.markUncompleted(item, now)
}

func nothingToUndo(id string) error {
	return model.NewError(model.KindInvalidStateTransition, model.ReasonNothingToUndo, id, "nothing to undo")
}

// withEntity tags an engine error with the item it concerns.
func withEntity(err error, id string) error {
	if e, ok := err.(*model.Error); ok && e.EntityID == "" {
		c := *e
		c.EntityID = id
		return &c
	}
	return err
}
