package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-tracker/internal/events"
	"github.com/adanyl0v/go-task-tracker/internal/models"
)

type EventPublisher interface {
	Publish(ctx context.Context, event events.HighPriorityTaskChanged)
}

type taskServiceImpl struct {
	logger    zerolog.Logger
	tasks     TaskRepository
	publisher EventPublisher
}

func NewTaskService(
	logger zerolog.Logger,
	tasks TaskRepository,
	publisher EventPublisher,
) TaskService {
	return &taskServiceImpl{
		logger:    logger,
		tasks:     tasks,
		publisher: publisher,
	}
}

func (s *taskServiceImpl) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.tasks.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			s.logger.Info().
				Int64("task_id", id).
				Msg("task not found")
			return nil, err
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to select task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", id).
		Msg("task found")
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, query models.TaskQuery) (*ListTasksResult, error) {
	s.logger.Debug().
		Int("page", query.Page).
		Int("page_size", query.PageSize).
		Str("sort_by", string(query.SortBy)).
		Bool("descending", query.Descending).
		Str("search", query.Search).
		Msg("listing tasks")

	tasks, total, err := s.tasks.ListTasks(ctx, query)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		return nil, err
	}

	s.logger.Info().
		Int("total", total).
		Int("count", len(tasks)).
		Int("page", query.Page).
		Msg("listed tasks")
	return &ListTasksResult{
		Total: total,
		Tasks: tasks,
	}, nil
}

func (s *taskServiceImpl) StatusSummary(ctx context.Context) ([]models.StatusCount, error) {
	summary, err := s.tasks.TaskStatusSummary(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to summarize task statuses")
		return nil, err
	}

	s.logger.Debug().
		Int("statuses", len(summary)).
		Msg("summarized task statuses")
	return summary, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	task = normalizeTask(task)
	err := validateTask(task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("invalid task")
		return nil, err
	}

	err = s.tasks.InsertTask(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("title", task.Title).
			Int64("user_id", task.UserID).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Info().
		Int64("task_id", task.ID).
		Int64("user_id", task.UserID).
		Msg("created task")

	s.announce(ctx, task, events.ActionCreated)
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, routeID int64, task *models.Task) (*models.Task, error) {
	if task.ID != routeID {
		s.logger.Warn().
			Int64("route_id", routeID).
			Int64("body_id", task.ID).
			Msg("mismatched task id")
		return nil, ErrTaskIDMismatch
	}

	task = normalizeTask(task)
	err := validateTask(task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("invalid task")
		return nil, err
	}

	err = s.tasks.UpdateTask(ctx, task)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			s.logger.Warn().
				Int64("task_id", task.ID).
				Msg("task not found")
			return nil, err
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}
	s.logger.Info().
		Int64("task_id", task.ID).
		Msg("updated task")

	s.announce(ctx, task, events.ActionUpdated)
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, id int64) error {
	err := s.tasks.DeleteTask(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			s.logger.Warn().
				Int64("task_id", id).
				Msg("task not found")
			return err
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return err
	}

	s.logger.Info().
		Int64("task_id", id).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) announce(ctx context.Context, task *models.Task, action events.Action) {
	if task.Priority != models.PriorityHigh || s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, events.HighPriorityTaskChanged{
		TaskID: task.ID,
		Title:  task.Title,
		UserID: task.UserID,
		Action: action,
	})
}

// normalizeTask returns a trimmed copy, so the caller's value is untouched.
func normalizeTask(task *models.Task) *models.Task {
	t := *task
	t.Title = strings.TrimSpace(t.Title)
	if t.Description != nil {
		d := strings.TrimSpace(*t.Description)
		t.Description = &d
	}
	return &t
}

func validateTask(task *models.Task) error {
	switch {
	case task.Title == "":
		return fmt.Errorf("%w: title must be provided", ErrInvalidTask)
	case utf8.RuneCountInString(task.Title) > models.TaskTitleMaxLength:
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidTask, models.TaskTitleMaxLength)
	case !task.Priority.IsValid():
		return fmt.Errorf("%w: unknown priority", ErrInvalidTask)
	case !task.Status.IsValid():
		return fmt.Errorf("%w: unknown status", ErrInvalidTask)
	case task.DueDate.IsZero():
		return fmt.Errorf("%w: due date must be provided", ErrInvalidTask)
	case task.UserID <= 0:
		return fmt.Errorf("%w: user id must be provided", ErrInvalidTask)
	}
	return nil
}
