package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"todo-project/microservices/tasks-service/logging"
	"todo-project/microservices/tasks-service/models"
)

// NewStorageBreaker builds the circuit breaker guarding storage calls.
// Lookups that miss and unique index rejections are normal outcomes and do
// not count as failures.
func NewStorageBreaker(name string, timeout time.Duration, maxFailures uint32) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

func isBreakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, context.Canceled)
}

// BreakerRepository routes every call of the wrapped repositories through
// one circuit breaker.
type BreakerRepository struct {
	tasks TaskRepository
	users UserRepository
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerRepository wraps both repositories with cb.
func NewBreakerRepository(tasks TaskRepository, users UserRepository, cb *gobreaker.CircuitBreaker) *BreakerRepository {
	return &BreakerRepository{tasks: tasks, users: users, cb: cb}
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		v, err := fn()
		return v, err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (r *BreakerRepository) InsertTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	return execute(r.cb, func() (*models.Task, error) {
		return r.tasks.InsertTask(ctx, task)
	})
}

func (r *BreakerRepository) FindTaskByID(ctx context.Context, id string) (*models.Task, error) {
	return execute(r.cb, func() (*models.Task, error) {
		return r.tasks.FindTaskByID(ctx, id)
	})
}

func (r *BreakerRepository) FindTasks(ctx context.Context, filter models.TaskFilter, order models.TaskSort) ([]*models.Task, error) {
	return execute(r.cb, func() ([]*models.Task, error) {
		return r.tasks.FindTasks(ctx, filter, order)
	})
}

func (r *BreakerRepository) ExistsTask(ctx context.Context, filter models.TaskFilter) (bool, error) {
	return execute(r.cb, func() (bool, error) {
		return r.tasks.ExistsTask(ctx, filter)
	})
}

func (r *BreakerRepository) UpdateTaskByID(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	return execute(r.cb, func() (*models.Task, error) {
		return r.tasks.UpdateTaskByID(ctx, id, patch)
	})
}

func (r *BreakerRepository) FindUserByUserID(ctx context.Context, userID string) (*models.User, error) {
	return execute(r.cb, func() (*models.User, error) {
		return r.users.FindUserByUserID(ctx, userID)
	})
}

func (r *BreakerRepository) EnsureUser(ctx context.Context, userID string) (*models.User, error) {
	return execute(r.cb, func() (*models.User, error) {
		return r.users.EnsureUser(ctx, userID)
	})
}
