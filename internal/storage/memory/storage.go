// Package memory keeps tasks and users in process memory.
//
// It implements the same listing semantics as the postgres storage and
// backs local runs and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/adanyl0v/go-task-tracker/internal/models"
	"github.com/adanyl0v/go-task-tracker/internal/services"
)

type Storage struct {
	mu         sync.RWMutex
	tasks      []models.Task
	users      []models.User
	nextTaskID int64
	nextUserID int64
}

var (
	_ services.TaskRepository = (*Storage)(nil)
	_ services.UserRepository = (*Storage)(nil)
)

func New() *Storage {
	return &Storage{
		nextTaskID: 1,
		nextUserID: 1,
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Storage) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOfTask(id)
	if i < 0 {
		return nil, services.ErrTaskNotFound
	}
	return cloneTask(&s.tasks[i]), nil
}

func (s *Storage) InsertTask(ctx context.Context, task *models.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = s.nextTaskID
	s.nextTaskID++
	s.tasks = append(s.tasks, *cloneTask(task))
	return nil
}

func (s *Storage) UpdateTask(ctx context.Context, task *models.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfTask(task.ID)
	if i < 0 {
		return services.ErrTaskNotFound
	}
	s.tasks[i] = *cloneTask(task)
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfTask(id)
	if i < 0 {
		return services.ErrTaskNotFound
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return nil
}

func (s *Storage) ListTasks(ctx context.Context, query models.TaskQuery) ([]*models.Task, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	matched := make([]*models.Task, 0, len(s.tasks))
	for i := range s.tasks {
		if query.Matches(&s.tasks[i]) {
			matched = append(matched, cloneTask(&s.tasks[i]))
		}
	}
	s.mu.RUnlock()

	compare := compareTasks(query.SortBy)
	slices.SortStableFunc(matched, func(a, b *models.Task) int {
		c := compare(a, b)
		if query.Descending {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	})

	total := len(matched)
	if query.OutOfRange() || query.Offset() >= total {
		return []*models.Task{}, total, nil
	}
	end := min(query.Offset()+query.Limit(), total)
	return matched[query.Offset():end], total, nil
}

func (s *Storage) TaskStatusSummary(ctx context.Context) ([]models.StatusCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Status]int)
	for i := range s.tasks {
		counts[s.tasks[i].Status]++
	}

	summary := make([]models.StatusCount, 0, len(counts))
	for status, count := range counts {
		summary = append(summary, models.StatusCount{Status: status, Count: count})
	}
	return summary, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOfUser(username)
	if i < 0 {
		return nil, services.ErrUserNotFound
	}
	u := s.users[i]
	return &u, nil
}

func (s *Storage) InsertUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Checked under the write lock, so the check and the insert are atomic.
	if s.indexOfUser(user.Username) >= 0 {
		return services.ErrUserAlreadyExists
	}
	user.ID = s.nextUserID
	s.nextUserID++
	s.users = append(s.users, *user)
	return nil
}

func (s *Storage) indexOfTask(id int64) int {
	return slices.IndexFunc(s.tasks, func(t models.Task) bool {
		return t.ID == id
	})
}

func (s *Storage) indexOfUser(username string) int {
	return slices.IndexFunc(s.users, func(u models.User) bool {
		return strings.EqualFold(u.Username, username)
	})
}

// compareTasks orders tasks by a single field. SortByNone compares all
// tasks as equal, leaving the id order.
func compareTasks(field models.SortField) func(a, b *models.Task) int {
	switch field {
	case models.SortByTitle:
		return func(a, b *models.Task) int { return strings.Compare(a.Title, b.Title) }
	case models.SortByPriority:
		return func(a, b *models.Task) int { return cmp.Compare(a.Priority, b.Priority) }
	case models.SortByDueDate:
		return func(a, b *models.Task) int { return a.DueDate.Compare(b.DueDate) }
	case models.SortByStatus:
		return func(a, b *models.Task) int { return cmp.Compare(a.Status, b.Status) }
	case models.SortByUserID:
		return func(a, b *models.Task) int { return cmp.Compare(a.UserID, b.UserID) }
	default:
		return func(a, b *models.Task) int { return 0 }
	}
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	return &c
}
