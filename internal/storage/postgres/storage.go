// Package postgres implements the task and user repositories on top of pgxpool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/go-task-tracker/internal/services"
)

type Storage struct {
	pool *pgxpool.Pool
}

var (
	_ services.TaskRepository = (*Storage)(nil)
	_ services.UserRepository = (*Storage)(nil)
)

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// The enums are stored as their declaration index so ORDER BY follows the
// declared order. user_id has no foreign key to users.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id       BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    username VARCHAR(100) NOT NULL,
    password TEXT         NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_key ON users (lower(username))`,
	`CREATE TABLE IF NOT EXISTS tasks (
    id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    title       VARCHAR(200) NOT NULL,
    description TEXT,
    priority    SMALLINT     NOT NULL,
    due_date    TIMESTAMPTZ  NOT NULL,
    status      SMALLINT     NOT NULL,
    user_id     BIGINT       NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS tasks_status_idx ON tasks (status)`,
}

// EnsureSchema creates the tables and indexes that don't exist yet.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		_, err := s.pool.Exec(ctx, stmt)
		if err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
