package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habitsAPI/internal/apperr"
	"habitsAPI/internal/habit"
)

const pgForeignKeyViolation = "23503"

type HabitService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHabitService(db *pgxpool.Pool, logger *zap.Logger) *HabitService {
	return &HabitService{db: db, logger: logger}
}

// CreateHabit inserts a habit dated today plus one recurrence row per
// weekday. Duplicate weekdays in the input are stored as-is.
func (s *HabitService) CreateHabit(ctx context.Context, title string, weekDays []int) (*habit.Habit, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperr.Storage("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	h := habit.Habit{
		ID:        uuid.New(),
		Title:     title,
		CreatedAt: habit.StartOfDay(time.Now()),
	}

	insertHabitQuery := `
		INSERT INTO habits (id, title, created_at)
		VALUES ($1, $2, $3)
	`
	_, err = tx.Exec(ctx, insertHabitQuery, h.ID, h.Title, h.CreatedAt)
	if err != nil {
		return nil, apperr.Storage("insert habit", err)
	}

	insertWeekDayQuery := `
		INSERT INTO habit_week_days (id, habit_id, week_day)
		VALUES ($1, $2, $3)
	`
	for _, weekDay := range weekDays {
		if _, err = tx.Exec(ctx, insertWeekDayQuery, uuid.New(), h.ID, weekDay); err != nil {
			return nil, apperr.Storage("insert habit week day", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, apperr.Storage("commit transaction", err)
	}

	s.logger.Info("habit created",
		zap.String("habit_id", h.ID.String()),
		zap.Int("week_days", len(weekDays)),
	)

	return &h, nil
}

// GetDay returns the habits eligible on the given date and the ids of
// those already completed that day. A date with no toggle activity
// yields an empty completed set, not an error.
func (s *HabitService) GetDay(ctx context.Context, date time.Time) (*habit.DayResponse, error) {
	parsedDate := habit.StartOfDay(date)
	weekDay := int(parsedDate.Weekday())

	possibleQuery := `
		SELECT h.id, h.title, h.created_at
		FROM habits h
		WHERE h.created_at <= $1
			AND EXISTS (
				SELECT 1 FROM habit_week_days w
				WHERE w.habit_id = h.id AND w.week_day = $2
			)
		ORDER BY h.created_at, h.title
	`
	rows, err := s.db.Query(ctx, possibleQuery, parsedDate, weekDay)
	if err != nil {
		return nil, apperr.Storage("query possible habits", err)
	}
	defer rows.Close()

	possibleHabits := make([]*habit.Habit, 0)
	for rows.Next() {
		var h habit.Habit
		if err := rows.Scan(&h.ID, &h.Title, &h.CreatedAt); err != nil {
			return nil, apperr.Storage("scan possible habit", err)
		}
		possibleHabits = append(possibleHabits, &h)
	}
	if err = rows.Err(); err != nil {
		return nil, apperr.Storage("iterate possible habits", err)
	}

	completedQuery := `
		SELECT dh.habit_id
		FROM day_habits dh
		JOIN days d ON d.id = dh.day_id
		WHERE d.date = $1
	`
	rows, err = s.db.Query(ctx, completedQuery, parsedDate)
	if err != nil {
		return nil, apperr.Storage("query completed habits", err)
	}
	defer rows.Close()

	completedHabits := make([]uuid.UUID, 0)
	for rows.Next() {
		var habitID uuid.UUID
		if err := rows.Scan(&habitID); err != nil {
			return nil, apperr.Storage("scan completed habit", err)
		}
		completedHabits = append(completedHabits, habitID)
	}
	if err = rows.Err(); err != nil {
		return nil, apperr.Storage("iterate completed habits", err)
	}

	return &habit.DayResponse{
		PossibleHabits:  possibleHabits,
		CompletedHabits: completedHabits,
	}, nil
}

// ToggleHabit flips the habit's completion state for today, creating
// today's day row on first use. The whole flip runs in one transaction.
func (s *HabitService) ToggleHabit(ctx context.Context, habitID uuid.UUID) error {
	today := habit.StartOfDay(time.Now())

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperr.Storage("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	dayID, err := getOrCreateDay(ctx, tx, today)
	if err != nil {
		return err
	}

	var dayHabitID uuid.UUID
	lookupQuery := `
		SELECT id FROM day_habits
		WHERE day_id = $1 AND habit_id = $2
	`
	err = tx.QueryRow(ctx, lookupQuery, dayID, habitID).Scan(&dayHabitID)

	completed := false
	switch {
	case err == nil:
		if _, err = tx.Exec(ctx, `DELETE FROM day_habits WHERE id = $1`, dayHabitID); err != nil {
			return apperr.Storage("delete day habit", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		insertQuery := `
			INSERT INTO day_habits (id, day_id, habit_id)
			VALUES ($1, $2, $3)
		`
		if _, err = tx.Exec(ctx, insertQuery, uuid.New(), dayID, habitID); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
				return &apperr.ReferenceError{Entity: "habit", ID: habitID.String()}
			}
			return apperr.Storage("insert day habit", err)
		}
		completed = true
	default:
		return apperr.Storage("lookup day habit", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return apperr.Storage("commit transaction", err)
	}

	s.logger.Info("habit toggled",
		zap.String("habit_id", habitID.String()),
		zap.Bool("completed", completed),
	)

	return nil
}

// getOrCreateDay resolves the day row for date. The UNIQUE constraint
// on days.date settles concurrent creation: a writer that loses the
// insert re-reads the winner's row.
func getOrCreateDay(ctx context.Context, tx pgx.Tx, date time.Time) (uuid.UUID, error) {
	var dayID uuid.UUID
	selectQuery := `SELECT id FROM days WHERE date = $1`

	err := tx.QueryRow(ctx, selectQuery, date).Scan(&dayID)
	if err == nil {
		return dayID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, apperr.Storage("lookup day", err)
	}

	insertQuery := `
		INSERT INTO days (id, date)
		VALUES ($1, $2)
		ON CONFLICT (date) DO NOTHING
		RETURNING id
	`
	err = tx.QueryRow(ctx, insertQuery, uuid.New(), date).Scan(&dayID)
	if err == nil {
		return dayID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, apperr.Storage("insert day", err)
	}

	if err = tx.QueryRow(ctx, selectQuery, date).Scan(&dayID); err != nil {
		return uuid.Nil, apperr.Storage("re-read day", err)
	}
	return dayID, nil
}

// GetSummary returns one record per tracked day with its completed
// count and the number of habits that were eligible on it. Eligibility
// is computed in memory with the same rule GetDay applies, so the two
// cannot drift apart and the query stays portable.
func (s *HabitService) GetSummary(ctx context.Context) ([]*habit.SummaryDay, error) {
	daysQuery := `
		SELECT d.id, d.date, COUNT(dh.id)
		FROM days d
		LEFT JOIN day_habits dh ON dh.day_id = d.id
		GROUP BY d.id, d.date
		ORDER BY d.date
	`
	rows, err := s.db.Query(ctx, daysQuery)
	if err != nil {
		return nil, apperr.Storage("query summary days", err)
	}
	defer rows.Close()

	summary := make([]*habit.SummaryDay, 0)
	for rows.Next() {
		var day habit.SummaryDay
		var completed int64
		if err := rows.Scan(&day.ID, &day.Date, &completed); err != nil {
			return nil, apperr.Storage("scan summary day", err)
		}
		day.Completed = float64(completed)
		summary = append(summary, &day)
	}
	if err = rows.Err(); err != nil {
		return nil, apperr.Storage("iterate summary days", err)
	}

	schedules, err := s.loadSchedules(ctx)
	if err != nil {
		return nil, err
	}

	for _, day := range summary {
		amount := 0
		for _, schedule := range schedules {
			if schedule.DueOn(day.Date) {
				amount++
			}
		}
		day.Amount = float64(amount)
	}

	return summary, nil
}

func (s *HabitService) loadSchedules(ctx context.Context) ([]*habit.ScheduledHabit, error) {
	query := `
		SELECT h.id, h.title, h.created_at, w.week_day
		FROM habits h
		JOIN habit_week_days w ON w.habit_id = h.id
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, apperr.Storage("query habit schedules", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*habit.ScheduledHabit)
	order := make([]*habit.ScheduledHabit, 0)
	for rows.Next() {
		var h habit.Habit
		var weekDay int
		if err := rows.Scan(&h.ID, &h.Title, &h.CreatedAt, &weekDay); err != nil {
			return nil, apperr.Storage("scan habit schedule", err)
		}
		schedule, ok := byID[h.ID]
		if !ok {
			schedule = &habit.ScheduledHabit{Habit: h}
			byID[h.ID] = schedule
			order = append(order, schedule)
		}
		schedule.WeekDays = append(schedule.WeekDays, weekDay)
	}
	if err = rows.Err(); err != nil {
		return nil, apperr.Storage("iterate habit schedules", err)
	}

	return order, nil
}

// Healthy pings the database, used by the health endpoint.
func (s *HabitService) Healthy(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
