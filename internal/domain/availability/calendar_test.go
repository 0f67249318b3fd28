package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayaway/internal/domain/shared/daterange"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func reserved(t *testing.T, checkIn, checkOut string) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(day(checkIn), day(checkOut))
	require.NoError(t, err)
	return dr
}

func TestDayDisabled(t *testing.T) {
	cal := NewCalendar(day("2024-06-20"), []daterange.DateRange{
		reserved(t, "2024-07-01", "2024-07-05"),
	})

	tests := []struct {
		name string
		day  string
		want bool
	}{
		{"past day", "2024-06-19", true},
		{"today", "2024-06-20", false},
		{"inside reserved range", "2024-07-03", true},
		{"reserved checkin day", "2024-07-01", true},
		{"checkout day stays free", "2024-07-05", false},
		{"free future day", "2024-07-10", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.DayDisabled(day(tt.day)))
		})
	}
}

func TestDayDisabledStripsTimeOfDay(t *testing.T) {
	// A reference instant late in the day must not disable that same day.
	now := time.Date(2024, 6, 20, 23, 45, 0, 0, time.UTC)
	cal := NewCalendar(now, nil)
	assert.False(t, cal.DayDisabled(day("2024-06-20")))
	assert.True(t, cal.DayDisabled(day("2024-06-19")))
}

func TestRangeHasDisabledDay(t *testing.T) {
	cal := NewCalendar(day("2024-06-01"), []daterange.DateRange{
		reserved(t, "2024-07-01", "2024-07-05"),
	})

	assert.False(t, cal.RangeHasDisabledDay(day("2024-06-10"), day("2024-06-15")))
	assert.True(t, cal.RangeHasDisabledDay(day("2024-06-28"), day("2024-07-02")))
	// A stay checking out on the reserved checkin day is fine.
	assert.False(t, cal.RangeHasDisabledDay(day("2024-06-28"), day("2024-07-01")))
	// A stay starting on the reserved checkout day is fine.
	assert.False(t, cal.RangeHasDisabledDay(day("2024-07-05"), day("2024-07-08")))
}

func TestNormalizeSelectionSingleDayBecomesOneNight(t *testing.T) {
	cal := NewCalendar(day("2024-06-01"), nil)

	sel, err := cal.NormalizeSelection(day("2024-08-01"), day("2024-08-01"))
	require.NoError(t, err)
	assert.True(t, sel.From.Equal(day("2024-08-01")))
	assert.True(t, sel.To.Equal(day("2024-08-02")))
}

func TestNormalizeSelectionRejectsBlockedRange(t *testing.T) {
	cal := NewCalendar(day("2024-06-01"), []daterange.DateRange{
		reserved(t, "2024-07-01", "2024-07-05"),
	})

	sel, err := cal.NormalizeSelection(day("2024-06-28"), day("2024-07-02"))
	assert.ErrorIs(t, err, ErrRangeUnavailable)
	// Start is kept so the user can pick a new end date.
	assert.True(t, sel.From.Equal(day("2024-06-28")))
	assert.True(t, sel.To.IsZero())
}

func TestNormalizeSelectionRejectsInvertedRange(t *testing.T) {
	cal := NewCalendar(day("2024-06-01"), []daterange.DateRange{
		reserved(t, "2024-07-01", "2024-07-05"),
	})

	// An end date before the start must never come back as a valid pick,
	// even when no day in between is reserved.
	sel, err := cal.NormalizeSelection(day("2024-07-10"), day("2024-07-02"))
	assert.ErrorIs(t, err, ErrRangeUnavailable)
	assert.True(t, sel.From.Equal(day("2024-07-10")))
	assert.True(t, sel.To.IsZero())
}

func TestNormalizeSelectionSingleBlockedDay(t *testing.T) {
	cal := NewCalendar(day("2024-06-01"), []daterange.DateRange{
		reserved(t, "2024-07-01", "2024-07-05"),
	})

	_, err := cal.NormalizeSelection(day("2024-07-03"), day("2024-07-03"))
	assert.ErrorIs(t, err, ErrRangeUnavailable)
}

func TestNormalizeSelectionStartOnly(t *testing.T) {
	cal := NewCalendar(day("2024-06-01"), []daterange.DateRange{
		reserved(t, "2024-07-01", "2024-07-05"),
	})

	sel, err := cal.NormalizeSelection(day("2024-06-10"), time.Time{})
	require.NoError(t, err)
	assert.True(t, sel.From.Equal(day("2024-06-10")))
	assert.True(t, sel.To.IsZero())

	_, err = cal.NormalizeSelection(day("2024-07-02"), time.Time{})
	assert.ErrorIs(t, err, ErrStartUnavailable)
}

func TestNormalizeSelectionValidRange(t *testing.T) {
	cal := NewCalendar(day("2024-06-01"), []daterange.DateRange{
		reserved(t, "2024-07-01", "2024-07-05"),
	})

	sel, err := cal.NormalizeSelection(day("2024-07-05"), day("2024-07-08"))
	require.NoError(t, err)
	assert.True(t, sel.From.Equal(day("2024-07-05")))
	assert.True(t, sel.To.Equal(day("2024-07-08")))
}
