package model

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCompletion   EventType = "completion"
	EventUncompletion EventType = "uncompletion"
	EventReset        EventType = "reset"
	EventDeletion     EventType = "deletion"
)

// Event is one entry of the per-user analytics log. Streak is the item's
// active streak after the transition the event describes. Seq orders events
// that share an OccurredAt in the order they were produced.
type Event struct {
	EventID      string    `bson:"_id" json:"id"`
	Type         EventType `bson:"type" json:"type"`
	UserID       string    `bson:"user_id" json:"user_id"`
	ItemID       string    `bson:"item_id" json:"item_id"`
	Kind         Kind      `bson:"kind" json:"kind"`
	Title        string    `bson:"title" json:"title"`
	CategoryID   string    `bson:"category_id,omitempty" json:"category_id,omitempty"`
	Frequency    Frequency `bson:"frequency" json:"frequency"`
	Streak       int       `bson:"streak" json:"streak"`
	BrokenStreak bool      `bson:"broken_streak,omitempty" json:"broken_streak,omitempty"`
	OccurredAt   time.Time `bson:"occurred_at" json:"occurred_at"`
	Seq          int64     `bson:"seq" json:"seq"`

	// CompletedAt is set on uncompletion events to the instant of the
	// completion being undone.
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

var eventSeq atomic.Int64

func init() {
	eventSeq.Store(time.Now().UnixNano())
}

func nextSeq() int64 {
	return eventSeq.Add(1)
}

func newEvent(t EventType, item *RecurringItem, at time.Time) Event {
	return Event{
		EventID:    uuid.New().String(),
		Type:       t,
		UserID:     item.UserID,
		ItemID:     item.ItemID,
		Kind:       item.Kind,
		Title:      item.Title,
		CategoryID: item.CategoryID,
		Frequency:  item.Frequency,
		Streak:     item.ActiveStreak(),
		OccurredAt: at,
		Seq:        nextSeq(),
	}
}

func NewCompletionEvent(item *RecurringItem, at time.Time) Event {
	return newEvent(EventCompletion, item, at)
}

func NewUncompletionEvent(item *RecurringItem, completedAt *time.Time, at time.Time) Event {
	e := newEvent(EventUncompletion, item, at)
	if completedAt != nil {
		c := *completedAt
		e.CompletedAt = &c
	}
	return e
}

func NewResetEvent(item *RecurringItem, broken bool, at time.Time) Event {
	e := newEvent(EventReset, item, at)
	e.BrokenStreak = broken
	return e
}

func NewDeletionEvent(item *RecurringItem, at time.Time) Event {
	return newEvent(EventDeletion, item, at)
}
