package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T, iso string) *HospitalClock {
	t.Helper()
	base, err := time.Parse("2006-01-02 15:04", iso)
	require.NoError(t, err)
	return NewClockAt(func() time.Time { return base.UTC() }, 300)
}

func TestDatesParsePriority(t *testing.T) {
	dp := NewDates(fixedClock(t, "2025-09-07 10:00"))

	// ISO wins over everything else in the same text.
	assert.Equal(t, "2025-09-09", dp.Parse("update 2025-09-09 or 10/09/2025"))
	// Day-first numeric.
	assert.Equal(t, "2025-09-07", dp.Parse("Dr Asish 07/09/2025 sick leave"))
	assert.Equal(t, "2025-10-31", dp.Parse("Date: 31.10.2025"))
	// Month-name forms, ordinals stripped.
	assert.Equal(t, "2025-09-09", dp.Parse("leave on 9th September 2025"))
	assert.Equal(t, "2025-01-31", dp.Parse("31 Jan 2025"))
	// Month-day with the current year assumed.
	assert.Equal(t, "2025-09-09", dp.Parse("off on Sep 9"))
	assert.Equal(t, "", dp.Parse("no date at all"))
}

func TestDatesParseOrToday(t *testing.T) {
	// 23:30 UTC on the 6th is already the 7th at UTC+5.
	dp := NewDates(fixedClock(t, "2025-09-06 23:30"))
	assert.Equal(t, "2025-09-07", dp.ParseOrToday("on call tonight"))
}

func TestExtractRange(t *testing.T) {
	dp := NewDates(fixedClock(t, "2025-09-07 10:00"))

	start, end, ok := dp.ExtractRange("leave from 01/11/2025 till 05/11/2025")
	require.True(t, ok)
	assert.Equal(t, "2025-11-01", start)
	assert.Equal(t, "2025-11-05", end)

	// Two-digit years expand, reversed bounds swap.
	start, end, ok = dp.ExtractRange("05/11/25 to 01/11/25")
	require.True(t, ok)
	assert.Equal(t, "2025-11-01", start)
	assert.Equal(t, "2025-11-05", end)

	_, _, ok = dp.ExtractRange("just 01/11/2025")
	assert.False(t, ok)
}

func TestExpandRange(t *testing.T) {
	days := ExpandRange("2025-11-01", "2025-11-03")
	assert.Equal(t, []string{"2025-11-01", "2025-11-02", "2025-11-03"}, days)

	// Reversed bounds swap.
	days = ExpandRange("2025-11-03", "2025-11-01")
	assert.Len(t, days, 3)

	// Unparseable end degrades to the start alone.
	assert.Equal(t, []string{"2025-11-01"}, ExpandRange("2025-11-01", "garbage"))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "31/10/2025", FormatDMY("2025-10-31"))
	assert.Equal(t, "31 OCT 2025", DisplayDate("2025-10-31"))
	assert.Equal(t, "bad", FormatDMY("bad"))
}

func TestClockTodayCaching(t *testing.T) {
	calls := 0
	base := time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC)
	clock := NewClockAt(func() time.Time {
		calls++
		return base
	}, 300)

	first := clock.TodayISO()
	second := clock.TodayISO()
	assert.Equal(t, first, second)
	assert.Equal(t, "2025-09-07", first)
}
