package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"lifeloop/analytics"
	"lifeloop/model"
	"lifeloop/period"
	"lifeloop/utils"
)

// AnalyticsService keeps each user's analytics document in step with the
// event log. All writes to one user's document go through the user's lock.
type AnalyticsService struct {
	Store      AnalyticsStore
	Events     EventLog
	Locker     Locker
	Cache      DocumentCache
	Clock      utils.Clock
	Options    BatchOptions
	aggregator *analytics.Aggregator
}

func NewAnalyticsService(store AnalyticsStore, events EventLog, locker Locker, cache DocumentCache, clock utils.Clock, periods *period.Classifier, opts BatchOptions) *AnalyticsService {
	return &AnalyticsService{
		Store:      store,
		Events:     events,
		Locker:     locker,
		Cache:      cache,
		Clock:      clock,
		Options:    opts,
		aggregator: analytics.NewAggregator(periods),
	}
}

// Record appends events to the log, then folds them into their owners'
// documents in the order given.
func (s *AnalyticsService) Record(ctx context.Context, events ...model.Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := s.Events.Append(ctx, events...); err != nil {
		return fmt.Errorf("append events: %w", err)
	}

	var users []string
	byUser := make(map[string][]model.Event)
	for _, ev := range events {
		if _, ok := byUser[ev.UserID]; !ok {
			users = append(users, ev.UserID)
		}
		byUser[ev.UserID] = append(byUser[ev.UserID], ev)
	}

	for _, userID := range users {
		err := s.withUser(ctx, userID, func(doc *model.AnalyticsDocument) (*model.AnalyticsDocument, bool, error) {
			for _, ev := range byUser[userID] {
				doc = s.aggregator.Fold(doc, ev)
				utils.TrackFold(string(ev.Type))
			}
			return doc, true, nil
		})
		if err != nil {
			return fmt.Errorf("fold events for %s: %w", userID, err)
		}
	}
	return nil
}

// withUser runs fn on the user's stored document (nil when absent) under the
// user's lock and saves the result when fn reports a change.
func (s *AnalyticsService) withUser(ctx context.Context, userID string, fn func(doc *model.AnalyticsDocument) (*model.AnalyticsDocument, bool, error)) error {
	release, err := s.Locker.Acquire(ctx, analyticsLockKey(userID))
	if err != nil {
		return err
	}
	defer release()

	doc, err := s.Store.Load(ctx, userID)
	if err != nil {
		return err
	}
	doc, changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	if err := s.Store.Save(ctx, doc); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *AnalyticsService) invalidate(ctx context.Context, userID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, userID); err != nil {
		log.Printf("Failed to invalidate analytics cache for %s: %v", userID, err)
		utils.TrackError("cache", "invalidate_failed")
	}
}

// Get returns the user's document as of now: rolling buckets of finished
// periods read as empty even before the roll trigger has run.
func (s *AnalyticsService) Get(ctx context.Context, userID string) (*model.AnalyticsDocument, error) {
	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx, userID)
		if err != nil {
			log.Printf("Analytics cache read failed for %s: %v", userID, err)
		} else if cached != nil {
			return s.currentView(cached), nil
		}
	}

	doc, err := s.Store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, model.NewError(model.KindNotFound, "", userID, "no analytics for user")
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, doc); err != nil {
			log.Printf("Analytics cache write failed for %s: %v", userID, err)
		}
	}
	return s.currentView(doc), nil
}

func (s *AnalyticsService) currentView(doc *model.AnalyticsDocument) *model.AnalyticsDocument {
	view := doc.Clone()
	now := s.Clock.Now()
	for _, g := range []period.Granularity{period.Day, period.Week, period.Month, period.Year} {
		s.aggregator.Roll(view, g, now)
	}
	return view
}

// Rebuild replaces the user's document with one derived from the event log.
func (s *AnalyticsService) Rebuild(ctx context.Context, userID string) (*model.AnalyticsDocument, error) {
	var rebuilt *model.AnalyticsDocument
	err := s.withUser(ctx, userID, func(_ *model.AnalyticsDocument) (*model.AnalyticsDocument, bool, error) {
		events, err := s.Events.ListByUser(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		rebuilt = s.aggregator.Rebuild(userID, events)
		return rebuilt, true, nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Rebuilt analytics for %s", userID)
	return rebuilt, nil
}

// InitForUser creates the empty document for a new user. An existing
// document is left untouched.
func (s *AnalyticsService) InitForUser(ctx context.Context, userID string) error {
	if userID == "" {
		return model.NewError(model.KindValidation, "", "", "user ID is required")
	}
	return s.withUser(ctx, userID, func(doc *model.AnalyticsDocument) (*model.AnalyticsDocument, bool, error) {
		if doc != nil {
			return doc, false, nil
		}
		return model.NewAnalyticsDocument(userID), true, nil
	})
}

// DeleteForUser drops the user's document and event log.
func (s *AnalyticsService) DeleteForUser(ctx context.Context, userID string) error {
	release, err := s.Locker.Acquire(ctx, analyticsLockKey(userID))
	if err != nil {
		return err
	}
	defer release()

	if err := s.Store.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.Events.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *AnalyticsService) ResetDailyAnalytics(ctx context.Context) (*Summary, error) {
	return s.RollAll(ctx, period.Day)
}

func (s *AnalyticsService) ResetWeeklyAnalytics(ctx context.Context) (*Summary, error) {
	return s.RollAll(ctx, period.Week)
}

func (s *AnalyticsService) ResetMonthlyAnalytics(ctx context.Context) (*Summary, error) {
	return s.RollAll(ctx, period.Month)
}

func (s *AnalyticsService) ResetYearlyAnalytics(ctx context.Context) (*Summary, error) {
	return s.RollAll(ctx, period.Year)
}

// RollAll moves every user's g rolling counters to the current period.
func (s *AnalyticsService) RollAll(ctx context.Context, g period.Granularity) (*Summary, error) {
	userIDs, err := s.Store.ListUserIDs(ctx)
	if err != nil {
		utils.TrackError("analytics", "list_users_failed")
		return nil, fmt.Errorf("list analytics users: %w", err)
	}

	now := s.Clock.Now()
	job := "analytics_" + strings.ToLower(string(g))
	return runBatch(ctx, job, userIDs, s.Options, func(ctx context.Context, userID string) (bool, error) {
		rolled := false
		err := s.withUser(ctx, userID, func(doc *model.AnalyticsDocument) (*model.AnalyticsDocument, bool, error) {
			if doc == nil {
				return nil, false, nil
			}
			rolled = s.aggregator.Roll(doc, g, now)
			return doc, rolled, nil
		})
		return rolled, err
	})
}
