package analytics

import (
	"sort"
	"time"

	"lifeloop/model"
	"lifeloop/period"
)

type bucket struct {
	granularity period.Granularity
	rolling     *model.RollingCompletions
	perEntity   bool
}

func (a *Aggregator) buckets(doc *model.AnalyticsDocument) []bucket {
	c := &doc.Completions
	return []bucket{
		{period.Day, &c.Daily, false},
		{period.Week, &c.Weekly, true},
		{period.Month, &c.Monthly, true},
		{period.Year, &c.Yearly, false},
	}
}

// advance moves r to the bucket labelled key. It reports false when key is
// older than r's bucket, in which case the event no longer counts.
func advance(r *model.RollingCompletions, key string) bool {
	switch {
	case r.Period == key:
		return true
	case r.Period == "" || r.Period < key:
		*r = model.RollingCompletions{Period: key}
		return true
	default:
		return false
	}
}

// Roll moves the g bucket of doc to the period containing now, discarding the
// counts of a finished period. It reports whether anything changed.
func (a *Aggregator) Roll(doc *model.AnalyticsDocument, g period.Granularity, now time.Time) bool {
	key := a.periods.Key(g, now).Label
	for _, b := range a.buckets(doc) {
		if b.granularity != g {
			continue
		}
		if b.rolling.Period == key || (b.rolling.Period != "" && b.rolling.Period > key) {
			return false
		}
		*b.rolling = model.RollingCompletions{Period: key}
		return true
	}
	return false
}

func addEntityCount(r *model.RollingCompletions, ev model.Event, delta int) {
	i := sort.Search(len(r.Entities), func(i int) bool { return r.Entities[i].ID >= ev.ItemID })
	if i < len(r.Entities) && r.Entities[i].ID == ev.ItemID {
		r.Entities[i].Count += delta
		if r.Entities[i].Count < 0 {
			r.Entities[i].Count = 0
		}
		r.Entities[i].Title = ev.Title
	} else if delta > 0 {
		r.Entities = append(r.Entities, model.EntityCount{})
		copy(r.Entities[i+1:], r.Entities[i:])
		r.Entities[i] = model.EntityCount{ID: ev.ItemID, Title: ev.Title, Kind: ev.Kind, Count: delta}
	}
	recomputePointers(r)
}

// recomputePointers scans the bucket's per-entity counts. Entities are kept
// sorted by id, so strict comparisons break ties towards the earliest id.
func recomputePointers(r *model.RollingCompletions) {
	var most, least *model.EntityCount
	for i := range r.Entities {
		e := &r.Entities[i]
		if e.Count <= 0 {
			continue
		}
		if most == nil || e.Count > most.Count {
			most = e
		}
		if least == nil || e.Count < least.Count {
			least = e
		}
	}
	r.MostCompleted = pointer(most)
	r.LeastCompleted = pointer(least)
}

func pointer(e *model.EntityCount) *model.CompletionPointer {
	if e == nil {
		return nil
	}
	return &model.CompletionPointer{ID: e.ID, Title: e.Title, Count: e.Count, Type: e.Kind}
}

// recomputeFavorite picks the most used category, preferring the one seen
// first on ties.
func recomputeFavorite(c *model.CategoryAnalytics) {
	var fav *model.CategoryFavorite
	for _, id := range c.Order {
		n := c.Usage[id]
		if n <= 0 {
			continue
		}
		if fav == nil || n > fav.Count {
			fav = &model.CategoryFavorite{ID: id, Count: n}
		}
	}
	c.Favorite = fav
}

func longestAmongCurrent(doc *model.AnalyticsDocument, f model.Frequency) *model.LongestStreak {
	var best *model.LongestStreak
	cur := &doc.Streaks.Current
	for _, kind := range []model.Kind{model.KindHabit, model.KindTask, model.KindRoutine} {
		for _, e := range *cur.List(kind) {
			if e.Frequency != f || e.Streak <= 0 {
				continue
			}
			if best == nil || e.Streak > best.Streak || (e.Streak == best.Streak && e.ID < best.ID) {
				best = &model.LongestStreak{ID: e.ID, Title: e.Title, Streak: e.Streak, Type: f, Kind: kind}
			}
		}
	}
	return best
}
