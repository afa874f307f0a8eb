package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"todo-project/microservices/tasks-service/models"
)

type memoryTask struct {
	task      *models.Task
	insertSeq int64
	updateSeq int64
}

// MemoryRepository keeps tasks and users in process memory. It backs the
// "memory" storage backend and the service tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]*memoryTask
	users map[string]*models.User
	seq   int64
	now   func() time.Time
}

// NewMemoryRepository returns an empty store using the wall clock.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tasks: make(map[string]*memoryTask),
		users: make(map[string]*models.User),
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Millisecond)
		},
	}
}

// SetClock replaces the time source.
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// InsertTask stores a copy of task; the caller's value is not retained.
func (r *MemoryRepository) InsertTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t := task.Clone()
	t.ID = uuid.NewString()
	now := r.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	if r.conflictsLocked(t) {
		return nil, ErrDuplicateKey
	}

	r.seq++
	r.tasks[t.ID] = &memoryTask{task: t, insertSeq: r.seq, updateSeq: r.seq}
	return t.Clone(), nil
}

func (r *MemoryRepository) FindTaskByID(ctx context.Context, id string) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	mt, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return mt.task.Clone(), nil
}

// FindTasks sorts by the requested timestamp, then by insertion order.
func (r *MemoryRepository) FindTasks(ctx context.Context, filter models.TaskFilter, order models.TaskSort) ([]*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*memoryTask, 0)
	for _, mt := range r.tasks {
		if filter.Matches(mt.task) {
			matched = append(matched, mt)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if order == models.SortByUpdatedDesc {
			if !a.task.UpdatedAt.Equal(b.task.UpdatedAt) {
				return a.task.UpdatedAt.After(b.task.UpdatedAt)
			}
			return a.updateSeq > b.updateSeq
		}
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.insertSeq > b.insertSeq
	})

	tasks := make([]*models.Task, 0, len(matched))
	for _, mt := range matched {
		tasks = append(tasks, mt.task.Clone())
	}
	return tasks, nil
}

func (r *MemoryRepository) ExistsTask(ctx context.Context, filter models.TaskFilter) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, mt := range r.tasks {
		if filter.Matches(mt.task) {
			return true, nil
		}
	}
	return false, nil
}

// UpdateTaskByID applies patch under the write lock and rechecks name
// uniqueness.
func (r *MemoryRepository) UpdateTaskByID(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	mt, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}

	updated := mt.task.Clone()
	updated.Apply(patch)
	updated.UpdatedAt = r.now()

	if r.conflictsLocked(updated) {
		return nil, ErrDuplicateKey
	}

	r.seq++
	mt.task = updated
	mt.updateSeq = r.seq
	return updated.Clone(), nil
}

// conflictsLocked mirrors the partial unique index on (taskName, userId)
// over non-deleted tasks.
func (r *MemoryRepository) conflictsLocked(t *models.Task) bool {
	if t.IsDeleted {
		return false
	}
	for id, other := range r.tasks {
		if id == t.ID || other.task.IsDeleted {
			continue
		}
		if other.task.TaskName == t.TaskName && other.task.UserID == t.UserID {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) FindUserByUserID(ctx context.Context, userID string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *MemoryRepository) EnsureUser(ctx context.Context, userID string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		u = &models.User{ID: uuid.NewString(), UserID: userID}
		r.users[userID] = u
	}
	c := *u
	return &c, nil
}
