package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-task-tracker/internal/models"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskIDMismatch     = errors.New("task id in route and body do not match")
	ErrInvalidTask        = errors.New("invalid task")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("a user with this username already exists")
	ErrInvalidUser        = errors.New("invalid user")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// TaskRepository is the persistence gateway for tasks.
//
// Implementations return ErrTaskNotFound when no row matches an id.
type TaskRepository interface {
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)
	// InsertTask stores the task and sets its ID.
	InsertTask(ctx context.Context, task *models.Task) error
	// UpdateTask replaces every mutable field of the task with the given ID.
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id int64) error
	// ListTasks returns one page of the filtered and sorted tasks along
	// with the number of tasks that passed the filter.
	ListTasks(ctx context.Context, query models.TaskQuery) ([]*models.Task, int, error)
	TaskStatusSummary(ctx context.Context) ([]models.StatusCount, error)
}

// UserRepository is the persistence gateway for users.
type UserRepository interface {
	// GetUserByUsername matches the username case-insensitively and
	// returns ErrUserNotFound if there is no such user.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// InsertUser stores the user and sets its ID. It returns
	// ErrUserAlreadyExists if the username is taken in any letter case.
	InsertUser(ctx context.Context, user *models.User) error
}

type TaskService interface {
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context, query models.TaskQuery) (*ListTasksResult, error)
	StatusSummary(ctx context.Context) ([]models.StatusCount, error)

	// CreateTask trims and validates the task, then stores it.
	//
	// A high priority task is announced to the event listeners.
	CreateTask(ctx context.Context, task *models.Task) (*models.Task, error)

	// UpdateTask replaces the task identified by routeID.
	//
	// It returns ErrTaskIDMismatch without touching the store if task.ID
	// differs from routeID, and ErrTaskNotFound if no such task exists.
	UpdateTask(ctx context.Context, routeID int64, task *models.Task) (*models.Task, error)

	// DeleteTask returns ErrTaskNotFound if there is no such task.
	DeleteTask(ctx context.Context, id int64) error
}

type AuthService interface {
	// Register creates a user with a hashed password.
	//
	// It returns ErrUserAlreadyExists if a user with the same
	// username exists, compared case-insensitively.
	Register(ctx context.Context, params RegisterParams) (*models.User, error)

	// Login checks the credentials and issues a signed access token.
	//
	// It returns ErrInvalidCredentials if the user doesn't exist or
	// the password doesn't match.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// ParseAccessToken verifies the signature, issuer, audience and
	// expiry of the token. Any failure is reported as ErrInvalidToken.
	ParseAccessToken(token string) (*AccessClaims, error)
}

type ListTasksResult struct {
	Total int
	Tasks []*models.Task
}

type RegisterParams struct {
	Username string
	Password string
}

type LoginParams struct {
	Username string
	Password string
}

type LoginResult struct {
	User                 *models.User
	AccessToken          string
	AccessTokenExpiresAt time.Time
}

type AccessClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
