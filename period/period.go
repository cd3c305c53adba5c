// Package period maps timestamps onto the calendar buckets that recurrence,
// streaks and analytics are computed over.
//
// Buckets are calendar based and evaluated in a single configured location:
// a day is a calendar date, a week is an ISO 8601 week (Monday start), a month
// is a calendar month and a year is a calendar year. Every caller must use the
// same Classifier so that resets and streak checks agree on boundaries.
package period

import (
	"fmt"
	"time"

	"lifeloop/model"
)

type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// ForFrequency returns the bucket granularity of a recurrence frequency.
// ONCE has none.
func ForFrequency(f model.Frequency) (Granularity, bool) {
	switch f {
	case model.FrequencyDaily:
		return Day, true
	case model.FrequencyWeekly:
		return Week, true
	case model.FrequencyMonthly:
		return Month, true
	default:
		return "", false
	}
}

// Key identifies one bucket. Labels sort in chronological order within a
// granularity.
type Key struct {
	Granularity Granularity
	Start       time.Time
	Label       string
}

func (k Key) String() string { return k.Label }

type Classifier struct {
	loc *time.Location
}

func NewClassifier(loc *time.Location) *Classifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Classifier{loc: loc}
}

// LoadClassifier builds a classifier for an IANA zone name ("" means UTC).
func LoadClassifier(zone string) (*Classifier, error) {
	if zone == "" {
		return NewClassifier(time.UTC), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return NewClassifier(loc), nil
}

func (c *Classifier) Location() *time.Location { return c.loc }

func (c *Classifier) Key(g Granularity, t time.Time) Key {
	t = t.In(c.loc)
	y, m, d := t.Date()
	switch g {
	case Week:
		start := c.weekStart(t)
		iy, iw := t.ISOWeek()
		return Key{Granularity: g, Start: start, Label: fmt.Sprintf("%04d-W%02d", iy, iw)}
	case Month:
		return Key{Granularity: g, Start: time.Date(y, m, 1, 0, 0, 0, 0, c.loc), Label: fmt.Sprintf("%04d-%02d", y, int(m))}
	case Year:
		return Key{Granularity: g, Start: time.Date(y, 1, 1, 0, 0, 0, 0, c.loc), Label: fmt.Sprintf("%04d", y)}
	default:
		return Key{Granularity: Day, Start: time.Date(y, m, d, 0, 0, 0, 0, c.loc), Label: fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)}
	}
}

// KeyFor returns the bucket of t for a recurrence frequency. ONCE items have
// no recurring bucket.
func (c *Classifier) KeyFor(f model.Frequency, t time.Time) (Key, bool) {
	g, ok := ForFrequency(f)
	if !ok {
		return Key{}, false
	}
	return c.Key(g, t), true
}

// Between counts the bucket boundaries crossed going from a to b. It is
// negative when b precedes a.
func (c *Classifier) Between(g Granularity, a, b time.Time) int {
	a, b = a.In(c.loc), b.In(c.loc)
	switch g {
	case Week:
		return civilDays(c.weekStart(a), c.weekStart(b)) / 7
	case Month:
		return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	case Year:
		return b.Year() - a.Year()
	default:
		return civilDays(a, b)
	}
}

// Elapsed counts the period boundaries of f crossed since last. A nil last or
// a ONCE frequency yields 0 and false.
func (c *Classifier) Elapsed(f model.Frequency, last *time.Time, now time.Time) (int, bool) {
	g, ok := ForFrequency(f)
	if !ok || last == nil {
		return 0, false
	}
	return c.Between(g, *last, now), true
}

func (c *Classifier) IsSamePeriod(f model.Frequency, t1, t2 time.Time) bool {
	g, ok := ForFrequency(f)
	if !ok {
		return false
	}
	return c.Between(g, t1, t2) == 0
}

// IsPriorPeriod reports whether last is missing or falls in a bucket before
// now's. ONCE never rolls.
func (c *Classifier) IsPriorPeriod(f model.Frequency, last *time.Time, now time.Time) bool {
	g, ok := ForFrequency(f)
	if !ok {
		return false
	}
	if last == nil {
		return true
	}
	return c.Between(g, *last, now) > 0
}

func (c *Classifier) weekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return time.Date(y, m, d-offset, 0, 0, 0, 0, c.loc)
}

// civilDays counts calendar days between the dates of a and b, ignoring DST.
func civilDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
