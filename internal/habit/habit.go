package habit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Habit is a recurring task defined by a title and a weekly schedule.
// created_at is stored as a date (midnight, no time-of-day) and acts as
// the lower bound for eligibility.
type Habit struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WeekDay is one recurrence day of a habit. 0 = Sunday .. 6 = Saturday.
type WeekDay struct {
	ID      uuid.UUID `json:"id" db:"id"`
	HabitID uuid.UUID `json:"habit_id" db:"habit_id"`
	WeekDay int       `json:"week_day" db:"week_day"`
}

// Day is a calendar date with at least one completion event. Rows are
// created lazily on the first toggle for that date and never deleted.
type Day struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Date time.Time `json:"date" db:"date"`
}

// DayHabit records that a habit was completed on a day. At most one row
// exists per (day_id, habit_id); deleting it un-completes the habit.
type DayHabit struct {
	ID      uuid.UUID `json:"id" db:"id"`
	DayID   uuid.UUID `json:"day_id" db:"day_id"`
	HabitID uuid.UUID `json:"habit_id" db:"habit_id"`
}

type CreateHabitRequest struct {
	Title    string `json:"title" validate:"required"`
	WeekDays []int  `json:"weekDays" validate:"required,dive,gte=0,lte=6"`
}

type DayResponse struct {
	PossibleHabits  []*Habit    `json:"possibleHabits"`
	CompletedHabits []uuid.UUID `json:"completedHabits"`
}

type SummaryDay struct {
	ID        uuid.UUID `json:"id"`
	Date      time.Time `json:"date"`
	Completed float64   `json:"completed"`
	Amount    float64   `json:"amount"`
}

// ScheduledHabit is a habit together with its recurrence days, used
// when eligibility has to be computed in memory.
type ScheduledHabit struct {
	Habit
	WeekDays []int
}

// DueOn reports whether the habit is eligible on the given date: it
// recurs on that date's weekday and existed on or before that date.
func (h *ScheduledHabit) DueOn(date time.Time) bool {
	if dateAfter(h.CreatedAt, date) {
		return false
	}
	weekDay := int(date.Weekday())
	for _, w := range h.WeekDays {
		if w == weekDay {
			return true
		}
	}
	return false
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate coerces an ISO-formatted string into a date.
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date", raw)
}

// dateAfter compares calendar dates only, ignoring time-of-day and
// location. Dates read back from the database are midnight UTC while
// request dates are midnight local, so instants cannot be compared.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
