package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScheduleInterval(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		expr string
		want time.Time
	}{
		{"30m", base.Add(30 * time.Minute)},
		{"45s", base.Add(45 * time.Second)},
		{"1h", base.Add(time.Hour)},
		{"2d", base.Add(48 * time.Hour)},
	}
	for _, tc := range cases {
		trigger, err := ParseSchedule(tc.expr)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, trigger.Next(base), tc.expr)
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	for _, expr := range []string{
		"", "abc", "0m", "30x", "0 3 * *", "0 3 * * * *", "61 * * * *",
		"* 24 * * *", "* * 0 * *", "* * * 13 *", "* * * * 7", "5-2 * * * *",
	} {
		_, err := ParseSchedule(expr)
		assert.Error(t, err, "expr %q", expr)
	}
}

func TestCronDaily(t *testing.T) {
	trigger, err := ParseSchedule("0 3 * * *")
	require.NoError(t, err)

	// After 03:00 today: fires tomorrow.
	got := trigger.Next(time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 2, 3, 0, 0, 0, time.UTC), got)

	// Before 03:00: fires today.
	got = trigger.Next(time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC), got)
}

func TestCronStep(t *testing.T) {
	trigger, err := ParseSchedule("*/15 * * * *")
	require.NoError(t, err)

	got := trigger.Next(time.Date(2026, 9, 1, 10, 37, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 1, 10, 45, 0, 0, time.UTC), got)

	// Exactly on a boundary: strictly after.
	got = trigger.Next(time.Date(2026, 9, 1, 10, 45, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC), got)
}

func TestCronListAndRange(t *testing.T) {
	trigger, err := ParseSchedule("0,30 9-17 * * *")
	require.NoError(t, err)

	got := trigger.Next(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), got)

	got = trigger.Next(time.Date(2026, 9, 1, 17, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC), got)
}

func TestCronDayFieldsOrRule(t *testing.T) {
	// Both day fields restricted: fires on the 13th or any Friday,
	// whichever comes first.
	trigger, err := ParseSchedule("0 0 13 * 5")
	require.NoError(t, err)

	// 2026-09-01 is a Tuesday; the first Friday is the 4th.
	got := trigger.Next(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), got)

	// Starting after that Friday: the 13th comes before the next Friday
	// only when it precedes it; from the 5th, Friday the 11th wins.
	got = trigger.Next(time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC), got)
}

func TestCronWeekly(t *testing.T) {
	trigger, err := ParseSchedule("0 8 * * 1")
	require.NoError(t, err)

	// Next Monday after Tuesday 2026-09-01 is the 7th.
	got := trigger.Next(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC), got)
}

func TestCronMonthRollover(t *testing.T) {
	trigger, err := ParseSchedule("0 0 1 1 *")
	require.NoError(t, err)

	got := trigger.Next(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), got)
}
