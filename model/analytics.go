package model

import "time"

// AnalyticsDocument is the per-user materialized view over the event log.
type AnalyticsDocument struct {
	UserID      string              `bson:"_id" json:"user_id"`
	Streaks     StreakAnalytics     `bson:"streaks" json:"streaks"`
	Completions CompletionAnalytics `bson:"completions" json:"completions"`
	Categories  CategoryAnalytics   `bson:"categories" json:"categories"`
	LastUpdated time.Time           `bson:"last_updated" json:"last_updated"`
}

type StreakAnalytics struct {
	Current CurrentStreaks `bson:"current" json:"current"`
	Longest LongestStreaks `bson:"longest" json:"longest"`
	// History is keyed year -> month -> day ("2026" -> "10" -> "19").
	History map[string]map[string]map[string]*DayHistory `bson:"history" json:"history"`
}

type StreakEntry struct {
	ID        string    `bson:"id" json:"id"`
	Title     string    `bson:"title" json:"title"`
	Streak    int       `bson:"streak" json:"streak"`
	Frequency Frequency `bson:"frequency" json:"frequency"`
}

type CurrentStreaks struct {
	Habits   []StreakEntry `bson:"habits" json:"habits"`
	Tasks    []StreakEntry `bson:"tasks" json:"tasks"`
	Routines []StreakEntry `bson:"routines" json:"routines"`
}

// List returns the snapshot list for kind.
func (c *CurrentStreaks) List(kind Kind) *[]StreakEntry {
	switch kind {
	case KindHabit:
		return &c.Habits
	case KindTask:
		return &c.Tasks
	default:
		return &c.Routines
	}
}

type LongestStreak struct {
	ID     string    `bson:"id" json:"id"`
	Title  string    `bson:"title" json:"title"`
	Streak int       `bson:"streak" json:"streak"`
	Type   Frequency `bson:"type" json:"type"`
	Kind   Kind      `bson:"kind" json:"kind"`
}

type LongestStreaks struct {
	Daily   *LongestStreak `bson:"daily" json:"daily"`
	Weekly  *LongestStreak `bson:"weekly" json:"weekly"`
	Monthly *LongestStreak `bson:"monthly" json:"monthly"`
}

// Tier returns the slot for f, nil for ONCE.
func (l *LongestStreaks) Tier(f Frequency) **LongestStreak {
	switch f {
	case FrequencyDaily:
		return &l.Daily
	case FrequencyWeekly:
		return &l.Weekly
	case FrequencyMonthly:
		return &l.Monthly
	default:
		return nil
	}
}

type HabitHistoryEntry struct {
	ID        string `bson:"id" json:"id"`
	Title     string `bson:"title" json:"title"`
	Completed int    `bson:"completed" json:"completed"`
}

type TaskHistoryEntry struct {
	ID        string `bson:"id" json:"id"`
	Title     string `bson:"title" json:"title"`
	Completed bool   `bson:"completed" json:"completed"`
}

type DayHistory struct {
	Habits   []HabitHistoryEntry `bson:"habits" json:"habits"`
	Tasks    []TaskHistoryEntry  `bson:"tasks" json:"tasks"`
	Routines []HabitHistoryEntry `bson:"routines" json:"routines"`
}

type EntityCount struct {
	ID    string `bson:"id" json:"id"`
	Title string `bson:"title" json:"title"`
	Kind  Kind   `bson:"kind" json:"kind"`
	Count int    `bson:"count" json:"count"`
}

type CompletionPointer struct {
	ID    string `bson:"id" json:"id"`
	Title string `bson:"title" json:"title"`
	Count int    `bson:"count" json:"count"`
	Type  Kind   `bson:"type" json:"type"`
}

// RollingCompletions counts completions inside one period bucket. Entities,
// MostCompleted and LeastCompleted are only kept for weekly and monthly.
type RollingCompletions struct {
	Period         string             `bson:"period" json:"period"`
	Habits         int                `bson:"habits" json:"habits"`
	Tasks          int                `bson:"tasks" json:"tasks"`
	Routines       int                `bson:"routines" json:"routines"`
	Total          int                `bson:"total" json:"total"`
	Entities       []EntityCount      `bson:"entities,omitempty" json:"-"`
	MostCompleted  *CompletionPointer `bson:"most_completed,omitempty" json:"most_completed,omitempty"`
	LeastCompleted *CompletionPointer `bson:"least_completed,omitempty" json:"least_completed,omitempty"`
}

// Counter returns the per-kind counter field.
func (r *RollingCompletions) Counter(kind Kind) *int {
	switch kind {
	case KindHabit:
		return &r.Habits
	case KindTask:
		return &r.Tasks
	default:
		return &r.Routines
	}
}

type CompletionAnalytics struct {
	Daily   RollingCompletions `bson:"daily" json:"daily"`
	Weekly  RollingCompletions `bson:"weekly" json:"weekly"`
	Monthly RollingCompletions `bson:"monthly" json:"monthly"`
	Yearly  RollingCompletions `bson:"yearly" json:"yearly"`
}

type CategoryFavorite struct {
	ID    string `bson:"id" json:"id"`
	Count int    `bson:"count" json:"count"`
}

type CategoryAnalytics struct {
	Usage    map[string]int    `bson:"usage" json:"usage"`
	Order    []string          `bson:"order" json:"-"`
	Favorite *CategoryFavorite `bson:"favorite" json:"favorite"`
}

// NewAnalyticsDocument returns the all-empty document created with a user.
func NewAnalyticsDocument(userID string) *AnalyticsDocument {
	return &AnalyticsDocument{
		UserID: userID,
		Streaks: StreakAnalytics{
			Current: CurrentStreaks{
				Habits:   []StreakEntry{},
				Tasks:    []StreakEntry{},
				Routines: []StreakEntry{},
			},
			History: map[string]map[string]map[string]*DayHistory{},
		},
		Categories: CategoryAnalytics{
			Usage: map[string]int{},
			Order: []string{},
		},
	}
}

// Clone returns a deep copy of the document.
func (d *AnalyticsDocument) Clone() *AnalyticsDocument {
	if d == nil {
		return nil
	}
	c := *d

	c.Streaks.Current = CurrentStreaks{
		Habits:   append([]StreakEntry{}, d.Streaks.Current.Habits...),
		Tasks:    append([]StreakEntry{}, d.Streaks.Current.Tasks...),
		Routines: append([]StreakEntry{}, d.Streaks.Current.Routines...),
	}
	c.Streaks.Longest = LongestStreaks{
		Daily:   cloneLongest(d.Streaks.Longest.Daily),
		Weekly:  cloneLongest(d.Streaks.Longest.Weekly),
		Monthly: cloneLongest(d.Streaks.Longest.Monthly),
	}
	c.Streaks.History = make(map[string]map[string]map[string]*DayHistory, len(d.Streaks.History))
	for y, months := range d.Streaks.History {
		cm := make(map[string]map[string]*DayHistory, len(months))
		for m, days := range months {
			cd := make(map[string]*DayHistory, len(days))
			for day, h := range days {
				cd[day] = &DayHistory{
					Habits:   append([]HabitHistoryEntry{}, h.Habits...),
					Tasks:    append([]TaskHistoryEntry{}, h.Tasks...),
					Routines: append([]HabitHistoryEntry{}, h.Routines...),
				}
			}
			cm[m] = cd
		}
		c.Streaks.History[y] = cm
	}

	c.Completions = CompletionAnalytics{
		Daily:   d.Completions.Daily.clone(),
		Weekly:  d.Completions.Weekly.clone(),
		Monthly: d.Completions.Monthly.clone(),
		Yearly:  d.Completions.Yearly.clone(),
	}

	c.Categories.Usage = make(map[string]int, len(d.Categories.Usage))
	for k, v := range d.Categories.Usage {
		c.Categories.Usage[k] = v
	}
	c.Categories.Order = append([]string{}, d.Categories.Order...)
	if d.Categories.Favorite != nil {
		f := *d.Categories.Favorite
		c.Categories.Favorite = &f
	}
	return &c
}

func cloneLongest(l *LongestStreak) *LongestStreak {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

func (r RollingCompletions) clone() RollingCompletions {
	c := r
	if r.Entities != nil {
		c.Entities = append([]EntityCount{}, r.Entities...)
	}
	if r.MostCompleted != nil {
		m := *r.MostCompleted
		c.MostCompleted = &m
	}
	if r.LeastCompleted != nil {
		l := *r.LeastCompleted
		c.LeastCompleted = &l
	}
	return c
}
