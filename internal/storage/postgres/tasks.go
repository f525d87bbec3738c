package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/go-task-tracker/internal/models"
	"github.com/adanyl0v/go-task-tracker/internal/services"
)

func (s *Storage) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	const selectTaskByIDQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE id = $1
`
	task, err := scanTask(s.pool.QueryRow(ctx, selectTaskByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to select task: %w", err)
	}
	return task, nil
}

func (s *Storage) InsertTask(ctx context.Context, task *models.Task) error {
	const insertTaskQuery = `
INSERT INTO tasks (title,
                   description,
                   priority,
                   due_date,
                   status,
                   user_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`
	err := s.pool.QueryRow(
		ctx,
		insertTaskQuery,
		task.Title,
		task.Description,
		int16(task.Priority),
		task.DueDate,
		int16(task.Status),
		task.UserID,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (s *Storage) UpdateTask(ctx context.Context, task *models.Task) error {
	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    priority = $3,
    due_date = $4,
    status = $5,
    user_id = $6
WHERE id = $7
`
	tag, err := s.pool.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		int16(task.Priority),
		task.DueDate,
		int16(task.Status),
		task.UserID,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return services.ErrTaskNotFound
	}
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	tag, err := s.pool.Exec(ctx, deleteTaskQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return services.ErrTaskNotFound
	}
	return nil
}

// ListTasks reads the count and the page in one read-only snapshot so the
// total always describes the returned page.
func (s *Storage) ListTasks(ctx context.Context, query models.TaskQuery) ([]*models.Task, int, error) {
	q := buildListTasksQuery(query)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int
	err = tx.QueryRow(ctx, q.count, q.countArgs...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	tasks := []*models.Task{}
	if query.OutOfRange() || query.Offset() >= total {
		return tasks, total, nil
	}

	rows, err := tx.Query(ctx, q.page, q.pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return tasks, total, nil
}

func (s *Storage) TaskStatusSummary(ctx context.Context) ([]models.StatusCount, error) {
	const selectStatusSummaryQuery = `
SELECT status, count(*)
FROM tasks
GROUP BY status
`
	rows, err := s.pool.Query(ctx, selectStatusSummaryQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to select status summary: %w", err)
	}
	defer rows.Close()

	summary := []models.StatusCount{}
	for rows.Next() {
		var status int16
		var count int
		err = rows.Scan(&status, &count)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		summary = append(summary, models.StatusCount{
			Status: models.Status(status),
			Count:  count,
		})
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return summary, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	var priority, status int16
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&priority,
		&task.DueDate,
		&status,
		&task.UserID,
	)
	if err != nil {
		return nil, err
	}
	task.Priority = models.Priority(priority)
	task.Status = models.Status(status)
	return &task, nil
}
