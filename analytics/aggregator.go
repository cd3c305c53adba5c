// Package analytics folds completion, uncompletion, reset and deletion events
// into a user's AnalyticsDocument.
//
// Folding is a pure function of the document and the event: the event's own
// timestamp (for an uncompletion, the undone completion's) decides which
// day/week/month/year buckets it lands in, so
// replaying the event log (Rebuild) reproduces the stored document. Callers
// are responsible for serializing folds per user.
package analytics

import (
	"sort"
	"time"

	"lifeloop/model"
	"lifeloop/period"
)

type Aggregator struct {
	periods *period.Classifier
}

func NewAggregator(periods *period.Classifier) *Aggregator {
	return &Aggregator{periods: periods}
}

// Fold merges ev into doc and returns doc.
func (a *Aggregator) Fold(doc *model.AnalyticsDocument, ev model.Event) *model.AnalyticsDocument {
	if doc == nil {
		doc = model.NewAnalyticsDocument(ev.UserID)
	}
	normalize(doc)

	switch ev.Type {
	case model.EventCompletion:
		a.foldCompletion(doc, ev)
	case model.EventUncompletion:
		a.foldUncompletion(doc, ev)
	case model.EventReset:
		upsertCurrent(doc, ev)
	case model.EventDeletion:
		foldDeletion(doc, ev)
	}

	if ev.OccurredAt.After(doc.LastUpdated) {
		doc.LastUpdated = ev.OccurredAt
	}
	return doc
}

func (a *Aggregator) foldCompletion(doc *model.AnalyticsDocument, ev model.Event) {
	for _, b := range a.buckets(doc) {
		key := a.periods.Key(b.granularity, ev.OccurredAt).Label
		if !advance(b.rolling, key) {
			continue
		}
		*b.rolling.Counter(ev.Kind)++
		b.rolling.Total++
		if b.perEntity {
			addEntityCount(b.rolling, ev, 1)
		}
	}

	day := a.day(doc, ev.OccurredAt)
	switch ev.Kind {
	case model.KindHabit:
		day.Habits = bumpCount(day.Habits, ev, 1)
	case model.KindRoutine:
		day.Routines = bumpCount(day.Routines, ev, 1)
	default:
		day.Tasks = setTask(day.Tasks, ev, true)
	}

	if ev.CategoryID != "" {
		if _, seen := doc.Categories.Usage[ev.CategoryID]; !seen {
			doc.Categories.Order = append(doc.Categories.Order, ev.CategoryID)
		}
		doc.Categories.Usage[ev.CategoryID]++
		recomputeFavorite(&doc.Categories)
	}

	upsertCurrent(doc, ev)

	if slot := doc.Streaks.Longest.Tier(ev.Frequency); slot != nil && ev.Streak > 0 {
		if *slot == nil || ev.Streak > (*slot).Streak {
			*slot = &model.LongestStreak{
				ID:     ev.ItemID,
				Title:  ev.Title,
				Streak: ev.Streak,
				Type:   ev.Frequency,
				Kind:   ev.Kind,
			}
		}
	}
}

// foldUncompletion takes back what the matching completion added, from the
// buckets and history day of that completion. Longest streaks are all-time
// records and are left alone.
func (a *Aggregator) foldUncompletion(doc *model.AnalyticsDocument, ev model.Event) {
	at := ev.OccurredAt
	if ev.CompletedAt != nil {
		at = *ev.CompletedAt
	}

	for _, b := range a.buckets(doc) {
		key := a.periods.Key(b.granularity, at).Label
		if b.rolling.Period != key {
			continue
		}
		decrement(b.rolling.Counter(ev.Kind))
		decrement(&b.rolling.Total)
		if b.perEntity {
			addEntityCount(b.rolling, ev, -1)
		}
	}

	day := a.day(doc, at)
	switch ev.Kind {
	case model.KindHabit:
		day.Habits = bumpCount(day.Habits, ev, -1)
	case model.KindRoutine:
		day.Routines = bumpCount(day.Routines, ev, -1)
	default:
		day.Tasks = setTask(day.Tasks, ev, false)
	}

	if n, ok := doc.Categories.Usage[ev.CategoryID]; ok && ev.CategoryID != "" {
		if n > 0 {
			doc.Categories.Usage[ev.CategoryID] = n - 1
		}
		recomputeFavorite(&doc.Categories)
	}

	upsertCurrent(doc, ev)
}

func foldDeletion(doc *model.AnalyticsDocument, ev model.Event) {
	list := doc.Streaks.Current.List(ev.Kind)
	kept := (*list)[:0]
	for _, e := range *list {
		if e.ID != ev.ItemID {
			kept = append(kept, e)
		}
	}
	*list = kept

	for _, f := range []model.Frequency{model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly} {
		slot := doc.Streaks.Longest.Tier(f)
		if *slot != nil && (*slot).ID == ev.ItemID {
			*slot = longestAmongCurrent(doc, f)
		}
	}
}

// day returns the history bucket of at's calendar day, creating it on first
// use.
func (a *Aggregator) day(doc *model.AnalyticsDocument, at time.Time) *model.DayHistory {
	t := at.In(a.periods.Location())
	y, m, d := t.Format("2006"), t.Format("01"), t.Format("02")

	months, ok := doc.Streaks.History[y]
	if !ok {
		months = map[string]map[string]*model.DayHistory{}
		doc.Streaks.History[y] = months
	}
	days, ok := months[m]
	if !ok {
		days = map[string]*model.DayHistory{}
		months[m] = days
	}
	day, ok := days[d]
	if !ok {
		day = &model.DayHistory{
			Habits:   []model.HabitHistoryEntry{},
			Tasks:    []model.TaskHistoryEntry{},
			Routines: []model.HabitHistoryEntry{},
		}
		days[d] = day
	}
	return day
}

func bumpCount(entries []model.HabitHistoryEntry, ev model.Event, delta int) []model.HabitHistoryEntry {
	for i := range entries {
		if entries[i].ID == ev.ItemID {
			entries[i].Completed += delta
			if entries[i].Completed < 0 {
				entries[i].Completed = 0
			}
			entries[i].Title = ev.Title
			return entries
		}
	}
	if delta <= 0 {
		return entries
	}
	return append(entries, model.HabitHistoryEntry{ID: ev.ItemID, Title: ev.Title, Completed: delta})
}

func setTask(entries []model.TaskHistoryEntry, ev model.Event, done bool) []model.TaskHistoryEntry {
	for i := range entries {
		if entries[i].ID == ev.ItemID {
			entries[i].Completed = done
			entries[i].Title = ev.Title
			return entries
		}
	}
	if !done {
		return entries
	}
	return append(entries, model.TaskHistoryEntry{ID: ev.ItemID, Title: ev.Title, Completed: true})
}

func upsertCurrent(doc *model.AnalyticsDocument, ev model.Event) {
	list := doc.Streaks.Current.List(ev.Kind)
	for i := range *list {
		if (*list)[i].ID == ev.ItemID {
			(*list)[i].Streak = ev.Streak
			(*list)[i].Title = ev.Title
			(*list)[i].Frequency = ev.Frequency
			return
		}
	}
	*list = append(*list, model.StreakEntry{
		ID:        ev.ItemID,
		Title:     ev.Title,
		Streak:    ev.Streak,
		Frequency: ev.Frequency,
	})
	sort.SliceStable(*list, func(i, j int) bool { return (*list)[i].ID < (*list)[j].ID })
}

func decrement(n *int) {
	if *n > 0 {
		*n--
	}
}

// normalize fills the nil maps and slices a decoded document may carry.
func normalize(doc *model.AnalyticsDocument) {
	if doc.Streaks.History == nil {
		doc.Streaks.History = map[string]map[string]map[string]*model.DayHistory{}
	}
	if doc.Streaks.Current.Habits == nil {
		doc.Streaks.Current.Habits = []model.StreakEntry{}
	}
	if doc.Streaks.Current.Tasks == nil {
		doc.Streaks.Current.Tasks = []model.StreakEntry{}
	}
	if doc.Streaks.Current.Routines == nil {
		doc.Streaks.Current.Routines = []model.StreakEntry{}
	}
	if doc.Categories.Usage == nil {
		doc.Categories.Usage = map[string]int{}
	}
	if doc.Categories.Order == nil {
		doc.Categories.Order = []string{}
	}
}
