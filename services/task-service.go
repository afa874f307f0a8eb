package services

import (
	"context"
	"errors"
	"strings"

	"todo-project/microservices/tasks-service/apperrors"
	"todo-project/microservices/tasks-service/logging"
	"todo-project/microservices/tasks-service/models"
	"todo-project/microservices/tasks-service/repositories"
)

// AddTaskInput carries the fields of a new task. The user is created on
// first use.
type AddTaskInput struct {
	TaskName    string
	Description string
	IsDone      bool
	Priority    int
	Tags        []string
	UserID      string
}

// UpdateTaskInput names the task, the user asking for the change and the
// fields to change.
type UpdateTaskInput struct {
	TaskID  string
	UserID  string
	Changes models.TaskPatch
}

// TaskService enforces the task rules on top of the repositories.
type TaskService struct {
	tasks    repositories.TaskRepository
	users    repositories.UserRepository
	activity repositories.ActivityRecorder
}

// NewTaskService wires the service. A nil activity recorder disables the
// journal.
func NewTaskService(tasks repositories.TaskRepository, users repositories.UserRepository, activity repositories.ActivityRecorder) *TaskService {
	if activity == nil {
		activity = repositories.NoopActivityRecorder{}
	}
	return &TaskService{
		tasks:    tasks,
		users:    users,
		activity: activity,
	}
}

// GetAllTasks returns every non-deleted task, newest first.
func (s *TaskService) GetAllTasks(ctx context.Context) ([]*models.Task, error) {
	tasks, err := s.tasks.FindTasks(ctx, models.TaskFilter{IsDeleted: models.Some(false)}, models.SortByCreatedDesc)
	if err != nil {
		return nil, storageFailure("Failed to fetch tasks", err)
	}
	return tasks, nil
}

// GetUserDoneTasks returns the user's completed, non-deleted tasks, most
// recently updated first.
func (s *TaskService) GetUserDoneTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	const failure = "Failed to fetch completed tasks"
	if err := s.requireUser(ctx, userID, failure); err != nil {
		return nil, err
	}

	filter := models.TaskFilter{
		UserID:    models.Some(userID),
		IsDone:    models.Some(true),
		IsDeleted: models.Some(false),
	}
	tasks, err := s.tasks.FindTasks(ctx, filter, models.SortByUpdatedDesc)
	if err != nil {
		return nil, storageFailure(failure, err)
	}
	return tasks, nil
}

// GetUserDeletedTasks returns the user's soft-deleted tasks whether or not
// they were done, most recently updated first.
func (s *TaskService) GetUserDeletedTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	const failure = "Failed to fetch deleted tasks"
	if err := s.requireUser(ctx, userID, failure); err != nil {
		return nil, err
	}

	filter := models.TaskFilter{
		UserID:    models.Some(userID),
		IsDeleted: models.Some(true),
	}
	tasks, err := s.tasks.FindTasks(ctx, filter, models.SortByUpdatedDesc)
	if err != nil {
		return nil, storageFailure(failure, err)
	}
	return tasks, nil
}

// GetUser returns the user with the given userId.
func (s *TaskService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindUserByUserID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, rejected("getUser", apperrors.NewNotFoundError("User"))
	}
	if err != nil {
		return nil, storageFailure("Failed to fetch user", err)
	}
	return user, nil
}

// AddTask validates the input, provisions the user on first use and stores
// the task.
func (s *TaskService) AddTask(ctx context.Context, in AddTaskInput) (*models.Task, error) {
	const failure = "Failed to create task"

	task := &models.Task{
		TaskName:    strings.TrimSpace(in.TaskName),
		Description: strings.TrimSpace(in.Description),
		IsDone:      in.IsDone,
		Priority:    in.Priority,
		Tags:        normalizeTags(in.Tags),
		UserID:      in.UserID,
	}
	if err := validateNewTask(task); err != nil {
		return nil, rejected("addTask", err)
	}

	if _, err := s.users.EnsureUser(ctx, task.UserID); err != nil {
		return nil, storageFailure(failure, err)
	}

	taken, err := s.tasks.ExistsTask(ctx, activeNameFilter(task.UserID, task.TaskName, ""))
	if err != nil {
		return nil, storageFailure(failure, err)
	}
	if taken {
		return nil, rejected("addTask", apperrors.NewConflictError(msgTaskNameNotUnique))
	}

	created, err := s.tasks.InsertTask(ctx, task)
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return nil, rejected("addTask", apperrors.NewConflictError(msgTaskNameNotUnique))
	}
	if err != nil {
		return nil, storageFailure(failure, err)
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created for user %s", created.ID, created.UserID)
	s.recordActivity(ctx, created, models.ActionTaskCreated)
	return created, nil
}

// UpdateTask applies a partial update to a task owned by in.UserID.
func (s *TaskService) UpdateTask(ctx context.Context, in UpdateTaskInput) (*models.Task, error) {
	const failure = "Failed to update task"

	if err := s.requireUser(ctx, in.UserID, failure); err != nil {
		return nil, err
	}

	current, err := s.tasks.FindTaskByID(ctx, in.TaskID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, rejected("updateTask", apperrors.NewNotFoundError("Task"))
	}
	if err != nil {
		return nil, storageFailure(failure, err)
	}
	if current.UserID != in.UserID {
		return nil, rejected("updateTask", apperrors.NewAuthorizationError(msgUnauthorized))
	}
	if !current.IsActive() {
		return nil, rejected("updateTask", apperrors.NewStateError(msgDeletedTask))
	}

	changes := normalizePatch(in.Changes)
	if err := validatePatch(current, changes); err != nil {
		return nil, rejected("updateTask", err)
	}

	if name, ok := changes.TaskName.Get(); ok && name != current.TaskName {
		taken, err := s.tasks.ExistsTask(ctx, activeNameFilter(in.UserID, name, current.ID))
		if err != nil {
			return nil, storageFailure(failure, err)
		}
		if taken {
			return nil, rejected("updateTask", apperrors.NewConflictError(msgTaskNameNotUnique))
		}
	}

	updated, err := s.tasks.UpdateTaskByID(ctx, current.ID, changes)
	switch {
	case errors.Is(err, repositories.ErrDuplicateKey):
		return nil, rejected("updateTask", apperrors.NewConflictError(msgTaskNameNotUnique))
	case errors.Is(err, repositories.ErrNotFound):
		return nil, rejected("updateTask", apperrors.NewNotFoundError("Task"))
	case err != nil:
		return nil, storageFailure(failure, err)
	}

	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated by user %s", updated.ID, updated.UserID)
	s.recordActivity(ctx, updated, models.ActionTaskUpdated)
	return updated, nil
}

func (s *TaskService) requireUser(ctx context.Context, userID, failure string) error {
	_, err := s.users.FindUserByUserID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return rejected("userLookup", apperrors.NewNotFoundError("User"))
	}
	if err != nil {
		return storageFailure(failure, err)
	}
	return nil
}

func (s *TaskService) recordActivity(ctx context.Context, t *models.Task, action models.ActivityAction) {
	err := s.activity.Record(ctx, models.Activity{
		UserID:   t.UserID,
		TaskID:   t.ID,
		TaskName: t.TaskName,
		Action:   action,
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: ACTIVITY_RECORD_FAILED, Description: %s for task %s saved, but failed to record activity: %v", action, t.ID, err)
	}
}

// activeNameFilter matches non-deleted tasks of userID named taskName,
// optionally excluding one task id.
func activeNameFilter(userID, taskName, excludeID string) models.TaskFilter {
	return models.TaskFilter{
		UserID:    models.Some(userID),
		TaskName:  models.Some(taskName),
		IsDeleted: models.Some(false),
		ExcludeID: excludeID,
	}
}

func rejected(op string, err error) error {
	logging.Logger.Warnf("Event ID: REQUEST_REJECTED, Description: %s rejected: %v", op, err)
	return err
}

func storageFailure(prefix string, err error) error {
	logging.Logger.Errorf("Event ID: STORAGE_FAILURE, Description: %s: %v", prefix, err)
	return apperrors.NewStorageError(prefix, err)
}
