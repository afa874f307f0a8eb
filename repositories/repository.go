package repositories

import (
	"context"
	"errors"

	"todo-project/microservices/tasks-service/models"
)

var (
	// ErrNotFound is returned when a lookup by id or business key matches nothing.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when a write violates a unique index.
	// Every backend maps its own vendor signal onto it.
	ErrDuplicateKey = errors.New("unique constraint violated")
)

// TaskRepository stores tasks. Implementations assign ids and maintain
// createdAt/updatedAt, and enforce uniqueness of (taskName, userId) among
// non-deleted tasks.
type TaskRepository interface {
	InsertTask(ctx context.Context, task *models.Task) (*models.Task, error)
	FindTaskByID(ctx context.Context, id string) (*models.Task, error)
	FindTasks(ctx context.Context, filter models.TaskFilter, sort models.TaskSort) ([]*models.Task, error)
	ExistsTask(ctx context.Context, filter models.TaskFilter) (bool, error)
	UpdateTaskByID(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
}

// UserRepository reads and provisions users by their external userId.
type UserRepository interface {
	FindUserByUserID(ctx context.Context, userID string) (*models.User, error)
	// EnsureUser returns the user with the given business key, creating it
	// with defaults when absent. Safe to call concurrently.
	EnsureUser(ctx context.Context, userID string) (*models.User, error)
}

// ActivityRecorder journals successful mutations.
type ActivityRecorder interface {
	Record(ctx context.Context, activity models.Activity) error
}

// NoopActivityRecorder discards every entry. Used when no journal is configured.
type NoopActivityRecorder struct{}

func (NoopActivityRecorder) Record(context.Context, models.Activity) error {
	return nil
}
