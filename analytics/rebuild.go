package analytics

import (
	"sort"

	"lifeloop/model"
)

// Rebuild derives a user's document from scratch by folding the event log in
// chronological order, ties broken by Seq. Events of other users are ignored.
func (a *Aggregator) Rebuild(userID string, events []model.Event) *model.AnalyticsDocument {
	ordered := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.UserID == userID {
			ordered = append(ordered, ev)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		x, y := ordered[i], ordered[j]
		if !x.OccurredAt.Equal(y.OccurredAt) {
			return x.OccurredAt.Before(y.OccurredAt)
		}
		return x.Seq < y.Seq
	})

	doc := model.NewAnalyticsDocument(userID)
	for _, ev := range ordered {
		a.Fold(doc, ev)
	}
	return doc
}
