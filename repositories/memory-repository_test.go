package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-project/microservices/tasks-service/models"
)

func TestMemoryRepository_Contract(t *testing.T) {
	runStoreContract(t, NewMemoryRepository())
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	created, err := repo.InsertTask(ctx, newTask("copy", "u1", 0))
	require.NoError(t, err)
	created.Tags[0] = "mutated"
	created.TaskName = "mutated"

	found, err := repo.FindTaskByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "copy", found.TaskName)
	assert.Equal(t, []string{"work"}, found.Tags)
}

func TestMemoryRepository_SameTimestampKeepsInsertOrder(t *testing.T) {
	repo := NewMemoryRepository()
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return fixed })
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		created, err := repo.InsertTask(ctx, &models.Task{TaskName: fmt.Sprintf("t%d", i), Description: "same instant", Priority: 1, UserID: "u1"})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	tasks, err := repo.FindTasks(ctx, models.TaskFilter{}, models.SortByCreatedDesc)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})

	_, err = repo.UpdateTaskByID(ctx, ids[0], models.TaskPatch{IsDone: models.Some(true)})
	require.NoError(t, err)
	tasks, err = repo.FindTasks(ctx, models.TaskFilter{}, models.SortByUpdatedDesc)
	require.NoError(t, err)
	assert.Equal(t, ids[0], tasks[0].ID)
}

func TestMemoryRepository_CanceledContext(t *testing.T) {
	repo := NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.InsertTask(ctx, newTask("canceled", "u1", 0))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.FindTasks(ctx, models.TaskFilter{}, models.SortByCreatedDesc)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.EnsureUser(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryRepository_ConcurrentInsertsKeepNamesUnique(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded, duplicates int
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.InsertTask(ctx, newTask("race", "u1", 0))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case err == ErrDuplicateKey:
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, duplicates)
}
