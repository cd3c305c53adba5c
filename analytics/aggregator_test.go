package analytics

import (
	"reflect"
	"testing"
	"time"

	"lifeloop/model"
	"lifeloop/period"
)

var day0 = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

func newTestAggregator() *Aggregator {
	return NewAggregator(period.NewClassifier(time.UTC))
}

func event(t model.EventType, id string, kind model.Kind, f model.Frequency, streak int, at time.Time) model.Event {
	return model.Event{
		EventID:    id + "-" + string(t) + "-" + at.Format(time.RFC3339Nano),
		Type:       t,
		UserID:     "user-1",
		ItemID:     id,
		Kind:       kind,
		Title:      "title " + id,
		Frequency:  f,
		Streak:     streak,
		OccurredAt: at,
	}
}

func withCategory(ev model.Event, cat string) model.Event {
	ev.CategoryID = cat
	return ev
}

func TestFold_SameDayCompletions(t *testing.T) {
	a := newTestAggregator()
	doc := model.NewAnalyticsDocument("user-1")

	a.Fold(doc, event(model.EventCompletion, "h1", model.KindHabit, model.FrequencyDaily, 1, day0))
	a.Fold(doc, event(model.EventCompletion, "h2", model.KindHabit, model.FrequencyDaily, 3, day0.Add(time.Hour)))
	a.Fold(doc, event(model.EventCompletion, "t1", model.KindTask, model.FrequencyDaily, 1, day0.Add(2*time.Hour)))

	daily := doc.Completions.Daily
	if daily.Habits != 2 || daily.Tasks != 1 || daily.Routines != 0 || daily.Total != 3 {
		t.Errorf("Unexpected daily counters: %+v", daily)
	}
	if daily.Period != "2026-10-19" {
		t.Errorf("Expected daily period 2026-10-19, got %s", daily.Period)
	}

	bucket := doc.Streaks.History["2026"]["10"]["19"]
	if bucket == nil {
		t.Fatal("Expected history bucket for 2026-10-19")
	}
	if len(bucket.Habits) != 2 {
		t.Errorf("Expected 2 habit entries, got %d", len(bucket.Habits))
	}
	if len(bucket.Tasks) != 1 || !bucket.Tasks[0].Completed {
		t.Errorf("Expected one completed task entry, got %+v", bucket.Tasks)
	}
	if !doc.LastUpdated.Equal(day0.Add(2 * time.Hour)) {
		t.Errorf("Expected lastUpdated to be the last event time, got %v", doc.LastUpdated)
	}
	if len(doc.Streaks.Current.Habits) != 2 || doc.Streaks.Current.Habits[1].Streak != 3 {
		t.Errorf("Unexpected current habit streaks: %+v", doc.Streaks.Current.Habits)
	}
}

func TestFold_HabitHistoryCountsRepeatCompletions(t *testing.T) {
	a := newTestAggregator()
	doc := model.NewAnalyticsDocument("user-1")

	a.Fold(doc, event(model.EventCompletion, "h1", model.KindHabit, model.FrequencyDaily, 1, day0))
	a.Fold(doc, event(model.EventUncompletion, "h1", model.KindHabit, model.FrequencyDaily, 0, day0.Add(time.Minute)))
	a.Fold(doc, event(model.EventCompletion, "h1", model.KindHabit, model.FrequencyDaily, 1, day0.Add(2*time.Minute)))

	entries := doc.Streaks.History["2026"]["10"]["19"].Habits
	if len(entries) != 1 || entries[0].Completed != 1 {
		t.Errorf("Expected a single entry with count 1, got %+v", entries)
	}
	if doc.Completions.Daily.Habits != 1 || doc.Completions.Daily.Total != 1 {
		t.Errorf("Expected uncompletion to cancel one completion, got %+v", doc.Completions.Daily)
	}
}

func TestFold_LongestStreakNeverDecreases(t *testing.T) {
	a := newTestAggregator()
	doc := model.NewAnalyticsDocument("user-1")

	events := []model.Event{
		event(model.EventCompletion, "h1", model.KindHabit, model.FrequencyDaily, 4, day0),
		event(model.EventCompletion, "h2", model.KindHabit, model.FrequencyDaily, 2, day0.Add(time.Hour)),
		event(model.EventUncompletion, "h1", model.KindHabit, model.FrequencyDaily, 3, day0.Add(2*time.Hour)),
		func() model.Event {
			e := event(model.EventReset, "h1", model.KindHabit, model.FrequencyDaily, 0, day0.AddDate(0, 0, 2))
			e.BrokenStreak = true
			return e
		}(),
		event(model.EventCompletion, "h2", model.KindHabit, model.FrequencyDaily, 3, day0.AddDate(0, 0, 2)),
	}

	prev := 0
	for _, ev := range events {
		a.Fold(doc, ev)
		got := doc.Streaks.Longest.Daily
		if got == nil {
			t.Fatal("Expected a daily longest streak")
		}
		if got.Streak < prev {
			t.Fatalf("Longest streak decreased from %d to %d after %s", prev, got.Streak, ev.Type)
		}
		prev = got.Streak
	}

	if doc.Streaks.Longest.Daily.ID != "h1" || doc.Streaks.Longest.Daily.Streak != 4 {
		t.Errorf("Expected h1 with 4 to stay longest, got %+v", doc.Streaks.Longest.Daily)
	}
	if doc.Streaks.Current.Habits[0].Streak != 0 {
		t.Errorf("Expected broken streak to show 0, got %d", doc.Streaks.Current.Habits[0].Streak)
	}
}

func TestFold_LongestPerTier(t *testing.T) {
	a := newTestAggregator()
	doc := model.NewAnalyticsDocument("user-1")

	a.Fold(doc, event(model.EventCompletion, "w1", model.KindRoutine, model.FrequencyWeekly, 6, day0))
	a.Fold(doc, event(model.EventCompletion, "o1", model.KindTask, model.FrequencyOnce, 0, day0))

	if doc.Streaks.Longest.Weekly == nil || doc.Streaks.Longest.Weekly.Streak != 6 || doc.Streaks.Longest.Weekly.Type != model.FrequencyWeekly {
		t.Errorf("Unexpected weekly longest: %+v", doc.Streaks.Longest.Weekly)
	}
	if doc.Streaks.Longest.Daily != nil || doc.Streaks.Longest.Monthly != nil {
		t.Error("Expected other tiers to stay empty")
	}
}

func TestFold_DeletionRecomputesLongest(t *testing.T) {
	a := newTestAggregator()
	doc := model.NewAnalyticsDocument("user-1")

	a.Fold(doc, event(model.EventCompletion, "h1", model.KindHabit, model.FrequencyDaily, 9, day0))
	a.Fold(doc, event(model.EventCompletion, "t1", model.KindTask, model.FrequencyDaily, 5, day0))
	a.Fold(doc, event(model.EventDeletion, "h1", model.KindHabit, model.FrequencyDaily, 9, day0.Add(time.Hour)))

	if len(doc.Streaks.Current.Habits) != 0 {
		t.Errorf("Expected deleted habit to leave current streaks, got %+v", doc.Streaks.Current.Habits)
	}
	if doc.Streaks.Longest.Daily == nil || doc.Streaks.Longest.Daily.ID != "t1" {
		t.Errorf("Expected t1 to become longest, got %+v", doc.Streaks.Longest.Daily)
	}
}

func TestFold_FavoriteCategoryStableTies(t *testing.T) {
	a := newTestAggregator()
	doc := model.NewAnalyticsDocument("user-1")

	a.Fold(doc, withCategory(event(model.EventCompletion, "t1", model.KindTask, model.FrequencyDaily, 1, day0), "work"))
	a.Fold(doc, withCategory(event(model.EventCompletion, "t2", model.KindTask, model.FrequencyDaily, 1, day0), "health"))

	if doc.Categories.Favorite == nil || doc.Categories.Favorite.ID != "work" {
		t.Fatalf("Expected first-seen category to win a tie, got %+v", doc.Categories.Favorite)
	}

	a.Fold(doc, withCategory(event(model.EventCompletion, "h1", model.KindHabit, model.FrequencyDaily, 1, day0), "health"))
	if doc.Categories.Favorite.ID != "health" || doc.Categories.Favorite.Count != 2 {
		t.Errorf("Expected health to lead with 2, got %+v", doc.Categories.Favorite)
	}
	if doc.Categories.Usage["work"] != 1 || doc.Categories.Usage["health"] != 2 {
		t.Errorf("Unexpected usage: %v", doc.Categories.Usage)
	}
}

func TestFold_MostAndLeastCompleted(t *testing.T) {
	a := newTestAggregator()
	doc := model.NewAnalyticsDocument("user-1")

	for i, id := range []string{"b", "a", "c", "c", "b"} {
		a.Fold(doc, event(model.EventCompletion, id, model.KindTask, model.FrequencyDaily, 1, day0.Add(time.Duration(i)*time.Minute)))
	}

	weekly := doc.Completions.Weekly
	if weekly.MostCompleted == nil || weekly.MostCompleted.ID != "b" || weekly.MostCompleted.Count != 2 {
		t.Errorf("Expected b (earliest id among ties) as most completed, got %+v", weekly.MostCompleted)
	}
	if weekly.LeastCompleted == nil || weekly.LeastCompleted.ID != "a" {
		t.Errorf("Expected a as least completed, got %+v", weekly.LeastCompleted)
	}
	if doc.Completions.Monthly.MostCompleted == nil {
		t.Error("Expected monthly pointers to be maintained")
	}
	if doc.Completions.Daily.MostCompleted != nil {
		t.Error("Expected daily bucket to carry no pointers")
	}
}

func TestFold_RollingBucketsAdvance(t *testing.T) {
	a := newTestAggregator()
	doc := model.NewAnalyticsDocument("user-1")

	a.Fold(doc, event(model.EventCompletion, "t1", model.KindTask, model.FrequencyDaily, 1, day0))
	a.Fold(doc, event(model.EventCompletion, "t1", model.KindTask, model.FrequencyDaily, 2, day0.AddDate(0, 0, 1)))

	if doc.Completions.Daily.Total != 1 || doc.Completions.Daily.Period != "2026-10-20" {
		t.Errorf("Expected daily bucket to roll to the next day, got %+v", doc.Completions.Daily)
	}
	if doc.Completions.Weekly.Total != 2 || doc.Completions.Yearly.Total != 2 {
		t.Errorf("Expected weekly and yearly to keep accumulating, got %d and %d", doc.Completions.Weekly.Total, doc.Completions.Yearly.Total)
	}

	// A late event for an older day must not land in the newer bucket.
	a.Fold(doc, event(model.EventCompletion, "t2", model.KindTask, model.FrequencyDaily, 1, day0.Add(time.Hour)))
	if doc.Completions.Daily.Total != 1 {
		t.Errorf("Expected late event to skip the daily bucket, got %d", doc.Completions.Daily.Total)
	}
}

func TestRoll(t *testing.T) {
	a := newTestAggregator()
	doc := model.NewAnalyticsDocument("user-1")
	a.Fold(doc, event(model.EventCompletion, "t1", model.KindTask, model.FrequencyDaily, 1, day0))

	if a.Roll(doc, period.Day, day0.Add(time.Hour)) {
		t.Error("Expected no roll inside the same day")
	}
	if !a.Roll(doc, period.Month, day0.AddDate(0, 1, 0)) {
		t.Fatal("Expected monthly bucket to roll")
	}
	if doc.Completions.Monthly.Total != 0 || doc.Completions.Monthly.Period != "2026-11" {
		t.Errorf("Unexpected monthly bucket after roll: %+v", doc.Completions.Monthly)
	}
	if doc.Completions.Daily.Total != 1 {
		t.Error("Expected rolling one granularity to leave the others alone")
	}
}

func TestRebuild_MatchesIncrementalFold(t *testing.T) {
	a := newTestAggregator()

	reset := event(model.EventReset, "h1", model.KindHabit, model.FrequencyDaily, 0, day0.AddDate(0, 0, 3))
	reset.BrokenStreak = true

	events := []model.Event{
		withCategory(event(model.EventCompletion, "h1", model.KindHabit, model.FrequencyDaily, 1, day0), "health"),
		withCategory(event(model.EventCompletion, "t1", model.KindTask, model.FrequencyWeekly, 1, day0.Add(time.Hour)), "work"),
		withCategory(event(model.EventUncompletion, "t1", model.KindTask, model.FrequencyWeekly, 0, day0.Add(2*time.Hour)), "work"),
		withCategory(event(model.EventCompletion, "h1", model.KindHabit, model.FrequencyDaily, 2, day0.AddDate(0, 0, 1)), "health"),
		event(model.EventCompletion, "r1", model.KindRoutine, model.FrequencyMonthly, 1, day0.AddDate(0, 0, 2)),
		reset,
		event(model.EventDeletion, "r1", model.KindRoutine, model.FrequencyMonthly, 1, day0.AddDate(0, 0, 4)),
	}

	incremental := model.NewAnalyticsDocument("user-1")
	for _, ev := range events {
		a.Fold(incremental, ev)
	}

	other := event(model.EventCompletion, "x", model.KindTask, model.FrequencyDaily, 1, day0)
	other.UserID = "user-2"

	// Replay in a shuffled order; Rebuild sorts by time.
	shuffled := []model.Event{events[6], events[2], other, events[0], events[5], events[1], events[4], events[3]}
	rebuilt := a.Rebuild("user-1", shuffled)

	if !reflect.DeepEqual(incremental, rebuilt) {
		t.Errorf("Rebuilt document differs from incremental fold\nincremental: %+v\nrebuilt: %+v", incremental, rebuilt)
	}

	again := a.Rebuild("user-1", shuffled)
	if !reflect.DeepEqual(rebuilt, again) {
		t.Error("Expected rebuild to be deterministic")
	}
}

func TestFold_UncompletionTakesBackFromCompletionDay(t *testing.T) {
	a := newTestAggregator()
	doc := model.NewAnalyticsDocument("user-1")

	tuesday := day0.AddDate(0, 0, 1)
	a.Fold(doc, event(model.EventCompletion, "w1", model.KindTask, model.FrequencyWeekly, 1, day0))
	a.Fold(doc, event(model.EventCompletion, "d1", model.KindTask, model.FrequencyDaily, 1, tuesday))

	undo := event(model.EventUncompletion, "w1", model.KindTask, model.FrequencyWeekly, 0, tuesday.Add(time.Hour))
	undo.CompletedAt = &day0
	a.Fold(doc, undo)

	daily := doc.Completions.Daily
	if daily.Period != "2026-10-20" || daily.Tasks != 1 || daily.Total != 1 {
		t.Errorf("Expected Tuesday's daily bucket untouched, got %+v", daily)
	}
	if doc.Completions.Weekly.Total != 1 {
		t.Errorf("Expected weekly total 1, got %d", doc.Completions.Weekly.Total)
	}

	monday := doc.Streaks.History["2026"]["10"]["19"]
	if monday == nil || len(monday.Tasks) != 1 || monday.Tasks[0].Completed {
		t.Errorf("Expected Monday's w1 entry to be uncompleted, got %+v", monday)
	}
	for _, entry := range doc.Streaks.History["2026"]["10"]["20"].Tasks {
		if entry.ID == "w1" {
			t.Errorf("Expected no w1 entry on Tuesday, got %+v", entry)
		}
	}
}

func TestRebuild_SameInstantUsesSeq(t *testing.T) {
	a := newTestAggregator()

	reset := event(model.EventReset, "h1", model.KindHabit, model.FrequencyDaily, 0, day0)
	reset.BrokenStreak = true
	reset.Seq = 1
	completion := event(model.EventCompletion, "h1", model.KindHabit, model.FrequencyDaily, 1, day0)
	completion.Seq = 2

	doc := a.Rebuild("user-1", []model.Event{completion, reset})

	current := doc.Streaks.Current.Habits
	if len(current) != 1 || current[0].Streak != 1 {
		t.Errorf("Expected current streak 1 after reset then completion, got %+v", current)
	}
}
