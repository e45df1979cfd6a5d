package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"habitsAPI/internal/apperr"
	"habitsAPI/internal/database"
	"habitsAPI/internal/habit"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL must be set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, pool.Ping(ctx), "failed to ping test database")
	require.NoError(t, database.Migrate(ctx, pool))

	t.Cleanup(pool.Close)
	return pool
}

func newTestService(t *testing.T) (*HabitService, *pgxpool.Pool) {
	pool := setupTestDB(t)
	return NewHabitService(pool, zap.NewNop()), pool
}

func cleanupHabit(t *testing.T, pool *pgxpool.Pool, habitID uuid.UUID) {
	t.Cleanup(func() {
		ctx := context.Background()
		if _, err := pool.Exec(ctx, "DELETE FROM day_habits WHERE habit_id = $1", habitID); err != nil {
			t.Logf("Warning: failed to cleanup day habits: %v", err)
		}
		if _, err := pool.Exec(ctx, "DELETE FROM habits WHERE id = $1", habitID); err != nil {
			t.Logf("Warning: failed to cleanup habit: %v", err)
		}
	})
}

// nextOnWeekday returns the first date on or after from whose weekday
// matches weekDay.
func nextOnWeekday(from time.Time, weekDay time.Weekday) time.Time {
	d := habit.StartOfDay(from)
	for d.Weekday() != weekDay {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func containsHabit(habits []*habit.Habit, id uuid.UUID) bool {
	for _, h := range habits {
		if h.ID == id {
			return true
		}
	}
	return false
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, got := range ids {
		if got == id {
			return true
		}
	}
	return false
}

func TestCreateHabitEligibility(t *testing.T) {
	svc, pool := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateHabit(ctx, "Read", []int{1, 3, 5})
	require.NoError(t, err)
	cleanupHabit(t, pool, created.ID)

	monday := nextOnWeekday(time.Now(), time.Monday)
	day, err := svc.GetDay(ctx, monday)
	require.NoError(t, err)
	assert.True(t, containsHabit(day.PossibleHabits, created.ID),
		"habit recurring on Monday should be possible on a Monday after creation")

	tuesday := nextOnWeekday(monday, time.Tuesday)
	day, err = svc.GetDay(ctx, tuesday)
	require.NoError(t, err)
	assert.False(t, containsHabit(day.PossibleHabits, created.ID),
		"habit not recurring on Tuesday should never be possible on a Tuesday")
}

func TestCreateHabitNotEligibleBeforeCreation(t *testing.T) {
	svc, pool := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateHabit(ctx, "Meditate", []int{0, 1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	cleanupHabit(t, pool, created.ID)

	yesterday := habit.StartOfDay(time.Now()).AddDate(0, 0, -1)
	day, err := svc.GetDay(ctx, yesterday)
	require.NoError(t, err)
	assert.False(t, containsHabit(day.PossibleHabits, created.ID),
		"habit created today must not be possible yesterday")
}

func TestToggleTwiceRestoresState(t *testing.T) {
	svc, pool := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateHabit(ctx, "Stretch", []int{0, 1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	cleanupHabit(t, pool, created.ID)

	today := time.Now()

	day, err := svc.GetDay(ctx, today)
	require.NoError(t, err)
	require.False(t, containsID(day.CompletedHabits, created.ID))

	require.NoError(t, svc.ToggleHabit(ctx, created.ID))
	day, err = svc.GetDay(ctx, today)
	require.NoError(t, err)
	assert.True(t, containsID(day.CompletedHabits, created.ID), "first toggle marks completed")

	require.NoError(t, svc.ToggleHabit(ctx, created.ID))
	day, err = svc.GetDay(ctx, today)
	require.NoError(t, err)
	assert.False(t, containsID(day.CompletedHabits, created.ID), "second toggle undoes it")
}

func TestToggleUnknownHabit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.ToggleHabit(ctx, uuid.New())
	require.Error(t, err)

	var refErr *apperr.ReferenceError
	assert.True(t, errors.As(err, &refErr), "expected a reference error, got %v", err)
}

func TestGetDayWithoutActivity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// A date far before any habit existed: no day row, no habits.
	day, err := svc.GetDay(ctx, time.Date(1971, 2, 3, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Empty(t, day.CompletedHabits)
	assert.NotNil(t, day.CompletedHabits, "must serialize as [], not null")
}

func TestSummaryMatchesDayEligibility(t *testing.T) {
	svc, pool := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateHabit(ctx, "Journal", []int{0, 1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	cleanupHabit(t, pool, created.ID)

	require.NoError(t, svc.ToggleHabit(ctx, created.ID))

	today := habit.StartOfDay(time.Now())
	day, err := svc.GetDay(ctx, today)
	require.NoError(t, err)

	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)

	var todayRow *habit.SummaryDay
	for _, row := range summary {
		ry, rm, rd := row.Date.Date()
		ty, tm, td := today.Date()
		if ry == ty && rm == tm && rd == td {
			todayRow = row
			break
		}
	}
	require.NotNil(t, todayRow, "today must appear in the summary after a toggle")

	assert.Equal(t, float64(len(day.PossibleHabits)), todayRow.Amount,
		"summary amount must equal the due-habits eligibility count")
	assert.Equal(t, float64(len(day.CompletedHabits)), todayRow.Completed)

	// Untoggle so repeated runs start clean.
	require.NoError(t, svc.ToggleHabit(ctx, created.ID))
}
