// Package streak computes streak counter transitions. It holds no state and
// never touches storage.
package streak

import (
	"time"

	"lifeloop/model"
	"lifeloop/period"
)

type Ledger struct {
	periods *period.Classifier
}

func NewLedger(periods *period.Classifier) *Ledger {
	return &Ledger{periods: periods}
}

func validate(c model.StreakCounters, f model.Frequency, id string) error {
	if !f.IsValid() {
		return model.NewError(model.KindValidation, model.ReasonUnknownFrequency, id, "unknown frequency %q", f)
	}
	if c.Daily < 0 || c.Weekly < 0 || c.Monthly < 0 {
		return model.NewError(model.KindValidation, model.ReasonNegativeStreak, id, "streak counters must not be negative")
	}
	return nil
}

// ApplyCompletion returns the counters after satisfying the current period.
// Completing a period that is already satisfied changes nothing. A completion
// right after the previous period extends the streak; after a longer gap it
// starts over at 1 even if no reset ran in between.
func (l *Ledger) ApplyCompletion(c model.StreakCounters, f model.Frequency, lastCompletedAt *time.Time, now time.Time) (model.StreakCounters, error) {
	if err := validate(c, f, ""); err != nil {
		return c, err
	}
	tier := c.Tier(f)
	if tier == nil {
		return c, nil
	}
	elapsed, ok := l.periods.Elapsed(f, lastCompletedAt, now)
	switch {
	case ok && elapsed <= 0:
		// already satisfied this period
	case ok && elapsed == 1:
		*tier++
	default:
		*tier = 1
	}
	return c, nil
}

// ApplyReset returns the counters after a period rollover. A streak whose last
// completion sits in the immediately preceding period survives the rollover;
// anything older means a period was missed and the streak breaks. broken is
// true only when a non-zero streak was zeroed.
func (l *Ledger) ApplyReset(c model.StreakCounters, f model.Frequency, lastCompletedAt *time.Time, now time.Time) (model.StreakCounters, bool, error) {
	if err := validate(c, f, ""); err != nil {
		return c, false, err
	}
	tier := c.Tier(f)
	if tier == nil {
		return c, false, nil
	}
	elapsed, ok := l.periods.Elapsed(f, lastCompletedAt, now)
	if ok && elapsed <= 1 {
		return c, false, nil
	}
	broken := *tier > 0
	*tier = 0
	return c, broken, nil
}

// ApplyUncomplete reverses a completion made in the current period.
func (l *Ledger) ApplyUncomplete(c model.StreakCounters, f model.Frequency, lastCompletedAt *time.Time, now time.Time) (model.StreakCounters, error) {
	if err := validate(c, f, ""); err != nil {
		return c, err
	}
	tier := c.Tier(f)
	if tier == nil {
		return c, nil
	}
	if lastCompletedAt == nil || !l.periods.IsSamePeriod(f, *lastCompletedAt, now) {
		return c, model.ErrPeriodRolled
	}
	if *tier > 0 {
		*tier--
	}
	return c, nil
}
