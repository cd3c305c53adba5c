package model

import "time"

type Frequency string
type Kind string

const (
	FrequencyOnce    Frequency = "ONCE"
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"

	KindTask    Kind = "task"
	KindHabit   Kind = "habit"
	KindRoutine Kind = "routine"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// Recurs reports whether items of this frequency are ever reset.
func (f Frequency) Recurs() bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyMonthly
}

func (k Kind) IsValid() bool {
	switch k {
	case KindTask, KindHabit, KindRoutine:
		return true
	default:
		return false
	}
}

// StreakCounters holds one consecutive-period counter per cadence. Only the
// tier matching the item's frequency moves.
type StreakCounters struct {
	Daily   int `bson:"daily" json:"daily_streak"`
	Weekly  int `bson:"weekly" json:"weekly_streak"`
	Monthly int `bson:"monthly" json:"monthly_streak"`
}

// Tier returns a pointer to the counter driven by f, or nil for ONCE.
func (c *StreakCounters) Tier(f Frequency) *int {
	switch f {
	case FrequencyDaily:
		return &c.Daily
	case FrequencyWeekly:
		return &c.Weekly
	case FrequencyMonthly:
		return &c.Monthly
	default:
		return nil
	}
}

// Value returns the active counter for f (0 for ONCE).
func (c StreakCounters) Value(f Frequency) int {
	if p := c.Tier(f); p != nil {
		return *p
	}
	return 0
}

type HabitPayload struct {
	AmountRequired int `bson:"amount_required" json:"amount_required" validate:"min=1"`
	AmountDone     int `bson:"amount_done" json:"amount_done" validate:"min=0"`
}

type RoutinePayload struct {
	TaskIDs  []string `bson:"task_ids,omitempty" json:"task_ids,omitempty"`
	HabitIDs []string `bson:"habit_ids,omitempty" json:"habit_ids,omitempty"`
}

// RecurringItem is the shared shape of tasks, habits and routines.
type RecurringItem struct {
	ItemID          string          `bson:"_id" json:"id" validate:"required"`
	UserID          string          `bson:"user_id" json:"user_id" validate:"required"`
	CategoryID      string          `bson:"category_id,omitempty" json:"category_id,omitempty"`
	Kind            Kind            `bson:"kind" json:"kind" validate:"required,kind"`
	Title           string          `bson:"title" json:"title"`
	Frequency       Frequency       `bson:"frequency" json:"frequency" validate:"required,frequency"`
	Completed       bool            `bson:"completed" json:"is_completed_today"`
	Streaks         StreakCounters  `bson:"streaks" json:"streaks"`
	LastCompletedAt *time.Time      `bson:"last_completed_at,omitempty" json:"last_completed_at,omitempty"`
	PrevCompletedAt *time.Time      `bson:"prev_completed_at,omitempty" json:"-"`
	LastProgressAt  *time.Time      `bson:"last_progress_at,omitempty" json:"-"`
	Habit           *HabitPayload   `bson:"habit,omitempty" json:"habit,omitempty"`
	Routine         *RoutinePayload `bson:"routine,omitempty" json:"routine,omitempty"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
}

func (i *RecurringItem) ID() string { return i.ItemID }

func (i *RecurringItem) IsCompletedToday() bool { return i.Completed }

// ActiveStreak is the counter matching the item's own frequency.
func (i *RecurringItem) ActiveStreak() int { return i.Streaks.Value(i.Frequency) }

// ActivityAt is the latest time the item's period state changed, used to
// decide whether that state belongs to a finished period.
func (i *RecurringItem) ActivityAt() *time.Time {
	if i.LastProgressAt != nil {
		return i.LastProgressAt
	}
	return i.LastCompletedAt
}

// Target is the number of units needed to satisfy a period.
func (i *RecurringItem) Target() int {
	if i.Habit != nil && i.Habit.AmountRequired > 0 {
		return i.Habit.AmountRequired
	}
	return 1
}

// LinkedIDs lists the tasks and habits a routine drives.
func (i *RecurringItem) LinkedIDs() []string {
	if i.Routine == nil {
		return nil
	}
	ids := make([]string, 0, len(i.Routine.TaskIDs)+len(i.Routine.HabitIDs))
	ids = append(ids, i.Routine.TaskIDs...)
	return append(ids, i.Routine.HabitIDs...)
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (i *RecurringItem) Clone() *RecurringItem {
	if i == nil {
		return nil
	}
	c := *i
	if i.LastCompletedAt != nil {
		t := *i.LastCompletedAt
		c.LastCompletedAt = &t
	}
	if i.PrevCompletedAt != nil {
		t := *i.PrevCompletedAt
		c.PrevCompletedAt = &t
	}
	if i.LastProgressAt != nil {
		t := *i.LastProgressAt
		c.LastProgressAt = &t
	}
	if i.Habit != nil {
		h := *i.Habit
		c.Habit = &h
	}
	if i.Routine != nil {
		c.Routine = &RoutinePayload{
			TaskIDs:  append([]string(nil), i.Routine.TaskIDs...),
			HabitIDs: append([]string(nil), i.Routine.HabitIDs...),
		}
	}
	return &c
}
