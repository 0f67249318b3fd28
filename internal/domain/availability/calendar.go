package availability

import (
	"errors"
	"time"

	"stayaway/internal/domain/shared/daterange"
)

var (
	ErrStartUnavailable = errors.New("availability: selected start day is not available")
	ErrRangeUnavailable = errors.New("availability: selected range contains unavailable days")
)

// Calendar derives which days are selectable for a new stay, given the
// reserved intervals already fetched for the listing. It never reads
// storage and takes the reference day explicitly, so results are
// deterministic. Its answers are a UI hint only; the booking service
// re-checks against live data before committing.
type Calendar struct {
	Today    time.Time
	Reserved []daterange.DateRange
}

func NewCalendar(today time.Time, reserved []daterange.DateRange) Calendar {
	normalized := make([]daterange.DateRange, 0, len(reserved))
	for _, r := range reserved {
		normalized = append(normalized, r.Truncate())
	}
	return Calendar{Today: daterange.Day(today), Reserved: normalized}
}

// DayDisabled reports whether the day is in the past or falls inside any
// reserved interval [start, end). A reservation's checkout day stays free.
func (c Calendar) DayDisabled(day time.Time) bool {
	day = daterange.Day(day)
	if day.Before(c.Today) {
		return true
	}
	for _, r := range c.Reserved {
		if r.ContainsDate(day) {
			return true
		}
	}
	return false
}

// RangeHasDisabledDay scans every day in [from, to).
func (c Calendar) RangeHasDisabledDay(from, to time.Time) bool {
	for day := daterange.Day(from); day.Before(daterange.Day(to)); day = day.AddDate(0, 0, 1) {
		if c.DayDisabled(day) {
			return true
		}
	}
	return false
}

// Selection is the outcome of normalizing a user's calendar pick.
// On rejection From is kept so the user can retry the end date.
type Selection struct {
	From time.Time
	To   time.Time
}

// NormalizeSelection validates a calendar pick. A single day selected as
// both start and end becomes a one-night stay ending the next day. Any
// disabled day inside the proposed [from, to) rejects the selection,
// keeping the start and clearing the end.
func (c Calendar) NormalizeSelection(from, to time.Time) (Selection, error) {
	from = daterange.Day(from)
	if to.IsZero() {
		if c.DayDisabled(from) {
			return Selection{}, ErrStartUnavailable
		}
		return Selection{From: from}, nil
	}
	to = daterange.Day(to)
	if to.Before(from) {
		return Selection{From: from}, ErrRangeUnavailable
	}
	if from.Equal(to) {
		to = from.AddDate(0, 0, 1)
	}

	if c.RangeHasDisabledDay(from, to) {
		return Selection{From: from}, ErrRangeUnavailable
	}
	return Selection{From: from, To: to}, nil
}
