package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-project/microservices/tasks-service/models"
)

// store is what every backend implements.
type store interface {
	TaskRepository
	UserRepository
}

func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run tests against real databases")
	}
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTask(name, userID string, offset time.Duration) *models.Task {
	return &models.Task{
		TaskName:    name,
		Description: name + " description",
		Priority:    3,
		Tags:        []string{"work"},
		UserID:      userID,
		CreatedAt:   baseTime.Add(offset),
		UpdatedAt:   baseTime.Add(offset),
	}
}

// runStoreContract checks behaviour every backend must share. s must be empty.
func runStoreContract(t *testing.T, s store) {
	ctx := context.Background()

	t.Run("insert and find by id", func(t *testing.T) {
		created, err := s.InsertTask(ctx, newTask("contract-insert", "u1", 0))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.True(t, baseTime.Equal(created.CreatedAt))

		found, err := s.FindTaskByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.TaskName, found.TaskName)
		assert.Equal(t, created.Description, found.Description)
		assert.Equal(t, []string{"work"}, found.Tags)
		assert.Equal(t, 3, found.Priority)
		assert.False(t, found.IsDeleted)
		assert.True(t, created.UpdatedAt.Equal(found.UpdatedAt))
	})

	t.Run("insert sets timestamps when missing", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Second)
		created, err := s.InsertTask(ctx, &models.Task{TaskName: "contract-now", Description: "stamped by store", Priority: 1, UserID: "u1"})
		require.NoError(t, err)
		assert.True(t, created.CreatedAt.After(before))
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))
	})

	t.Run("unknown and malformed ids are not found", func(t *testing.T) {
		for _, id := range []string{"65f0c0ffee0000000000beef", "not-an-id", ""} {
			_, err := s.FindTaskByID(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound, "id %q", id)

			_, err = s.UpdateTaskByID(ctx, id, models.TaskPatch{IsDone: models.Some(true)})
			assert.ErrorIs(t, err, ErrNotFound, "id %q", id)
		}
	})

	t.Run("name is unique per user among active tasks", func(t *testing.T) {
		deleted := newTask("contract-unique", "u2", 0)
		deleted.IsDeleted = true
		_, err := s.InsertTask(ctx, deleted)
		require.NoError(t, err)

		_, err = s.InsertTask(ctx, newTask("contract-unique", "u2", time.Minute))
		require.NoError(t, err)

		_, err = s.InsertTask(ctx, newTask("contract-unique", "u2", 2*time.Minute))
		assert.ErrorIs(t, err, ErrDuplicateKey)

		_, err = s.InsertTask(ctx, newTask("contract-unique", "u3", 2*time.Minute))
		assert.NoError(t, err)
	})

	t.Run("find tasks filters and sorts", func(t *testing.T) {
		oldest, err := s.InsertTask(ctx, newTask("contract-list-1", "u4", time.Hour))
		require.NoError(t, err)
		middle, err := s.InsertTask(ctx, newTask("contract-list-2", "u4", 2*time.Hour))
		require.NoError(t, err)
		gone := newTask("contract-list-3", "u4", 3*time.Hour)
		gone.IsDeleted = true
		_, err = s.InsertTask(ctx, gone)
		require.NoError(t, err)

		active, err := s.FindTasks(ctx, models.TaskFilter{UserID: models.Some("u4"), IsDeleted: models.Some(false)}, models.SortByCreatedDesc)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, middle.ID, active[0].ID)
		assert.Equal(t, oldest.ID, active[1].ID)

		_, err = s.UpdateTaskByID(ctx, oldest.ID, models.TaskPatch{IsDone: models.Some(true)})
		require.NoError(t, err)
		byUpdate, err := s.FindTasks(ctx, models.TaskFilter{UserID: models.Some("u4"), IsDeleted: models.Some(false)}, models.SortByUpdatedDesc)
		require.NoError(t, err)
		require.Len(t, byUpdate, 2)
		assert.Equal(t, oldest.ID, byUpdate[0].ID)

		done, err := s.FindTasks(ctx, models.TaskFilter{UserID: models.Some("u4"), IsDone: models.Some(true), IsDeleted: models.Some(false)}, models.SortByUpdatedDesc)
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, oldest.ID, done[0].ID)

		none, err := s.FindTasks(ctx, models.TaskFilter{UserID: models.Some("nobody")}, models.SortByCreatedDesc)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("exists honours the excluded id", func(t *testing.T) {
		created, err := s.InsertTask(ctx, newTask("contract-exists", "u5", 0))
		require.NoError(t, err)

		filter := models.TaskFilter{UserID: models.Some("u5"), TaskName: models.Some("contract-exists"), IsDeleted: models.Some(false)}
		exists, err := s.ExistsTask(ctx, filter)
		require.NoError(t, err)
		assert.True(t, exists)

		filter.ExcludeID = created.ID
		exists, err = s.ExistsTask(ctx, filter)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update writes only set fields", func(t *testing.T) {
		created, err := s.InsertTask(ctx, newTask("contract-update", "u6", 0))
		require.NoError(t, err)

		updated, err := s.UpdateTaskByID(ctx, created.ID, models.TaskPatch{
			Priority: models.Some(5),
			Tags:     models.Some([]string{"a", "b"}),
		})
		require.NoError(t, err)
		assert.Equal(t, 5, updated.Priority)
		assert.Equal(t, []string{"a", "b"}, updated.Tags)
		assert.Equal(t, created.TaskName, updated.TaskName)
		assert.Equal(t, created.Description, updated.Description)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("rename into a taken name is a duplicate", func(t *testing.T) {
		_, err := s.InsertTask(ctx, newTask("contract-taken", "u7", 0))
		require.NoError(t, err)
		other, err := s.InsertTask(ctx, newTask("contract-free", "u7", time.Minute))
		require.NoError(t, err)

		_, err = s.UpdateTaskByID(ctx, other.ID, models.TaskPatch{TaskName: models.Some("contract-taken")})
		assert.ErrorIs(t, err, ErrDuplicateKey)

		same, err := s.UpdateTaskByID(ctx, other.ID, models.TaskPatch{TaskName: models.Some("contract-free")})
		require.NoError(t, err)
		assert.Equal(t, "contract-free", same.TaskName)
	})

	t.Run("ensure user is idempotent", func(t *testing.T) {
		_, err := s.FindUserByUserID(ctx, "contract-user")
		assert.ErrorIs(t, err, ErrNotFound)

		first, err := s.EnsureUser(ctx, "contract-user")
		require.NoError(t, err)
		second, err := s.EnsureUser(ctx, "contract-user")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "contract-user", second.UserID)
		assert.Nil(t, second.Name)

		found, err := s.FindUserByUserID(ctx, "contract-user")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
	})
}
