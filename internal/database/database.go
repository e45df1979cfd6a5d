package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// days.date and (day_id, habit_id) carry UNIQUE constraints: the first
// settles concurrent day get-or-create races, the second backs the
// toggle existence check. DATE columns keep the midnight truncation in
// the schema itself.
const schema = `
CREATE TABLE IF NOT EXISTS habits (
	id         UUID PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at DATE NOT NULL
);

CREATE TABLE IF NOT EXISTS habit_week_days (
	id       UUID PRIMARY KEY,
	habit_id UUID NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
	week_day INT NOT NULL CHECK (week_day BETWEEN 0 AND 6)
);

CREATE INDEX IF NOT EXISTS idx_habit_week_days_habit_id ON habit_week_days(habit_id);

CREATE TABLE IF NOT EXISTS days (
	id   UUID PRIMARY KEY,
	date DATE NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS day_habits (
	id       UUID PRIMARY KEY,
	day_id   UUID NOT NULL REFERENCES days(id),
	habit_id UUID NOT NULL REFERENCES habits(id),
	UNIQUE (day_id, habit_id)
);
`

// Connect opens a tuned pgx pool and verifies the connection.
func Connect(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Migrate ensures tables exist. Call once at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
