package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lifeloop/model"
	"lifeloop/period"
	"lifeloop/utils"

	"github.com/prometheus/client_golang/prometheus"
)

// ResetService runs the scheduled rollover sweeps, one per frequency tier.
type ResetService struct {
	Items    ItemStore
	Locker   Locker
	Recorder EventRecorder
	Clock    utils.Clock
	Options  BatchOptions
	rules    *rules
}

func NewResetService(items ItemStore, locker Locker, recorder EventRecorder, clock utils.Clock, periods *period.Classifier, opts BatchOptions) *ResetService {
	return &ResetService{
		Items:    items,
		Locker:   locker,
		Recorder: recorder,
		Clock:    clock,
		Options:  opts,
		rules:    newRules(periods),
	}
}

func (s *ResetService) ResetDaily(ctx context.Context) (*Summary, error) {
	return s.Sweep(ctx, model.FrequencyDaily)
}

func (s *ResetService) ResetWeekly(ctx context.Context) (*Summary, error) {
	return s.Sweep(ctx, model.FrequencyWeekly)
}

func (s *ResetService) ResetMonthly(ctx context.Context) (*Summary, error) {
	return s.Sweep(ctx, model.FrequencyMonthly)
}

// Sweep rolls every due item of frequency over to the current period. Items
// already rolled (or completed in the current period) are left alone, so a
// repeated trigger is harmless.
func (s *ResetService) Sweep(ctx context.Context, frequency model.Frequency) (*Summary, error) {
	if !frequency.Recurs() {
		return nil, model.NewError(model.KindValidation, model.ReasonUnknownFrequency, "", "%q items are never reset", frequency)
	}
	label := strings.ToLower(string(frequency))
	timer := prometheus.NewTimer(utils.SweepDuration.WithLabelValues(label))
	defer timer.ObserveDuration()

	items, err := s.Items.LoadDue(ctx, frequency)
	if err != nil {
		utils.TrackError("sweep", "load_due_failed")
		return nil, fmt.Errorf("load %s items: %w", label, err)
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ItemID)
	}

	// One instant for the whole sweep keeps every item on the same period
	now := s.Clock.Now()
	summary, err := runBatch(ctx, "reset_"+label, ids, s.Options, func(ctx context.Context, id string) (bool, error) {
		changed, err := s.resetOne(ctx, id, now)
		switch {
		case err != nil:
			utils.TrackSweepItem(label, "failed")
		case changed:
			utils.TrackSweepItem(label, "reset")
		default:
			utils.TrackSweepItem(label, "skipped")
		}
		return changed, err
	})
	return summary, err
}

// resetOne rolls one item over under its lock. A routine takes its linked
// items along in the same transaction, each judged by its own frequency.
func (s *ResetService) resetOne(ctx context.Context, id string, now time.Time) (bool, error) {
	release, err := s.Locker.Acquire(ctx, itemLockKey(id))
	if err != nil {
		return false, err
	}
	defer release()

	item, err := s.Items.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		// deleted since LoadDue
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var childIDs []string
	if item.Kind == model.KindRoutine {
		childIDs = linkedChildren(item)
		releaseChildren, err := lockKeys(ctx, s.Locker, childIDs)
		if err != nil {
			return false, err
		}
		defer releaseChildren()
	}

	var events []model.Event
	err = s.Items.WithTransaction(ctx, func(txCtx context.Context) error {
		events = events[:0]

		item, err := s.Items.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := utils.ValidateItem(item); err != nil {
			return err
		}
		ev, err := s.rules.rollOver(item, now)
		if err != nil {
			return err
		}
		if ev == nil {
			return nil
		}
		if err := s.Items.Save(txCtx, item); err != nil {
			return err
		}
		events = append(events, *ev)

		for _, childID := range childIDs {
			child, err := s.Items.FindByID(txCtx, childID)
			if errors.Is(err, model.ErrNotFound) {
				log.Printf("Routine %s links missing item %s, skipping", id, childID)
				continue
			}
			if err != nil {
				return err
			}
			childEv, err := s.rules.rollOver(child, now)
			if err != nil {
				return err
			}
			if childEv == nil {
				continue
			}
			if err := s.Items.Save(txCtx, child); err != nil {
				return fmt.Errorf("save linked item %s: %w", childID, err)
			}
			events = append(events, *childEv)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		return false, nil
	}

	if s.Recorder != nil {
		if err := s.Recorder.Record(ctx, events...); err != nil {
			log.Printf("Failed to record reset events for %s: %v", id, err)
			utils.TrackError("analytics", "record_failed")
		}
	}
	return true, nil
}
