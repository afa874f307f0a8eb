package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-project/microservices/tasks-service/models"
)

type flakyStore struct {
	*MemoryRepository
	err   error
	calls int
}

func (f *flakyStore) FindTasks(ctx context.Context, filter models.TaskFilter, order models.TaskSort) ([]*models.Task, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.MemoryRepository.FindTasks(ctx, filter, order)
}

func newBreakerFixture(maxFailures uint32) (*BreakerRepository, *flakyStore, *gobreaker.CircuitBreaker) {
	flaky := &flakyStore{MemoryRepository: NewMemoryRepository()}
	cb := NewStorageBreaker("test-cb", time.Minute, maxFailures)
	return NewBreakerRepository(flaky, flaky, cb), flaky, cb
}

func TestBreakerRepository_Contract(t *testing.T) {
	repo, _, _ := newBreakerFixture(3)
	runStoreContract(t, repo)
}

func TestBreakerRepository_OpensAfterConsecutiveFailures(t *testing.T) {
	repo, flaky, cb := newBreakerFixture(3)
	flaky.err = errors.New("connection refused")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.FindTasks(ctx, models.TaskFilter{}, models.SortByCreatedDesc)
		assert.ErrorContains(t, err, "connection refused")
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := repo.FindTasks(ctx, models.TaskFilter{}, models.SortByCreatedDesc)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, flaky.calls, "an open breaker must not reach the store")
}

func TestBreakerRepository_ExpectedOutcomesDoNotTrip(t *testing.T) {
	repo, _, cb := newBreakerFixture(2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.FindTaskByID(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	}

	_, err := repo.InsertTask(ctx, newTask("dup", "u1", 0))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := repo.InsertTask(ctx, newTask("dup", "u1", 0))
		require.ErrorIs(t, err, ErrDuplicateKey)
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestBreakerRepository_SuccessResetsFailureCount(t *testing.T) {
	repo, flaky, cb := newBreakerFixture(2)
	ctx := context.Background()

	flaky.err = errors.New("timeout")
	_, _ = repo.FindTasks(ctx, models.TaskFilter{}, models.SortByCreatedDesc)
	flaky.err = nil
	_, err := repo.FindTasks(ctx, models.TaskFilter{}, models.SortByCreatedDesc)
	require.NoError(t, err)
	flaky.err = errors.New("timeout")
	_, _ = repo.FindTasks(ctx, models.TaskFilter{}, models.SortByCreatedDesc)

	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestIsBreakerSuccess(t *testing.T) {
	assert.True(t, isBreakerSuccess(nil))
	assert.True(t, isBreakerSuccess(ErrNotFound))
	assert.True(t, isBreakerSuccess(ErrDuplicateKey))
	assert.True(t, isBreakerSuccess(context.Canceled))
	assert.False(t, isBreakerSuccess(context.DeadlineExceeded))
	assert.False(t, isBreakerSuccess(errors.New("boom")))
}
