package habit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 was a Monday.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)

func TestStartOfDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	in := time.Date(2024, 3, 15, 18, 42, 7, 123, loc)
	out := StartOfDay(in)

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc), out)
	assert.Equal(t, loc, out.Location())
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 1, got.Day())

	got, err = ParseDate("2024-01-01T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Day())

	_, err = ParseDate("not-a-date")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestDueOnMatchingWeekday(t *testing.T) {
	h := &ScheduledHabit{
		Habit:    Habit{Title: "Read", CreatedAt: monday},
		WeekDays: []int{1, 3, 5},
	}

	assert.True(t, h.DueOn(monday), "due on its creation Monday")
	assert.True(t, h.DueOn(monday.AddDate(0, 0, 2)), "due the following Wednesday")
	assert.False(t, h.DueOn(monday.AddDate(0, 0, 1)), "not due on Tuesday")
	assert.False(t, h.DueOn(monday.AddDate(0, 0, 6)), "not due on Sunday")
}

func TestDueOnCreatedAfterDate(t *testing.T) {
	h := &ScheduledHabit{
		Habit:    Habit{Title: "Read", CreatedAt: monday},
		WeekDays: []int{0, 1, 2, 3, 4, 5, 6},
	}

	assert.False(t, h.DueOn(monday.AddDate(0, 0, -3)), "did not exist the Friday before")
	assert.True(t, h.DueOn(monday))
	assert.True(t, h.DueOn(monday.AddDate(0, 1, 0)))
}

func TestDueOnIgnoresLocation(t *testing.T) {
	// A date read back from the database is midnight UTC; the habit may
	// have been created at midnight local. Only calendar days count.
	createdLocal := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	sameDayUTC := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	h := &ScheduledHabit{
		Habit:    Habit{Title: "Read", CreatedAt: createdLocal},
		WeekDays: []int{1},
	}

	assert.True(t, h.DueOn(sameDayUTC))
}

func TestDueOnDuplicateWeekDays(t *testing.T) {
	h := &ScheduledHabit{
		Habit:    Habit{Title: "Read", CreatedAt: monday},
		WeekDays: []int{1, 1, 1},
	}

	assert.True(t, h.DueOn(monday))
	assert.False(t, h.DueOn(monday.AddDate(0, 0, 1)))
}
