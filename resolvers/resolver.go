package resolvers

import (
	"context"
	_ "embed"

	"github.com/graph-gophers/graphql-go"

	"todo-project/microservices/tasks-service/logging"
	"todo-project/microservices/tasks-service/models"
	"todo-project/microservices/tasks-service/services"
)

//go:embed schema.graphql
var schemaSDL string

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	service *services.TaskService
}

// NewResolver wraps the task service for the schema.
func NewResolver(service *services.TaskService) *Resolver {
	return &Resolver{service: service}
}

// NewSchema parses the SDL and binds it to the task service. maxDepth <= 0
// leaves query depth unlimited.
func NewSchema(service *services.TaskService, maxDepth int) (*graphql.Schema, error) {
	opts := []graphql.SchemaOpt{
		graphql.Logger(panicLogger{}),
	}
	if maxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(maxDepth))
	}
	return graphql.ParseSchema(schemaSDL, NewResolver(service), opts...)
}

type panicLogger struct{}

func (panicLogger) LogPanic(_ context.Context, value interface{}) {
	logging.Logger.Errorf("Event ID: RESOLVER_PANIC, Description: graphql resolver panicked: %v", value)
}

type userArgs struct {
	UserID string
}

// GetAllTasks lists the tasks that have not been soft-deleted.
func (r *Resolver) GetAllTasks(ctx context.Context) ([]*TaskResolver, error) {
	tasks, err := r.service.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	return wrapTasks(tasks), nil
}

// GetUserDoneTasksLists returns the user's active tasks marked done.
func (r *Resolver) GetUserDoneTasksLists(ctx context.Context, args userArgs) ([]*TaskResolver, error) {
	tasks, err := r.service.GetUserDoneTasks(ctx, args.UserID)
	if err != nil {
		return nil, err
	}
	return wrapTasks(tasks), nil
}

// GetFinishedTasksLists returns the user's soft-deleted tasks.
func (r *Resolver) GetFinishedTasksLists(ctx context.Context, args userArgs) ([]*TaskResolver, error) {
	tasks, err := r.service.GetUserDeletedTasks(ctx, args.UserID)
	if err != nil {
		return nil, err
	}
	return wrapTasks(tasks), nil
}

// GetUser looks up a user by its external userId.
func (r *Resolver) GetUser(ctx context.Context, args userArgs) (*UserResolver, error) {
	user, err := r.service.GetUser(ctx, args.UserID)
	if err != nil {
		return nil, err
	}
	return &UserResolver{user: user}, nil
}

// addTaskInput mirrors AddTaskInput. isDone has a schema default, so it
// cannot be a pointer.
type addTaskInput struct {
	TaskName    string
	Description string
	IsDone      bool
	Priority    int32
	Tags        *[]string
	UserID      string
}

type updateTaskInput struct {
	TaskID      graphql.ID
	TaskName    *string
	Description *string
	IsDone      *bool
	Priority    *int32
	Tags        *[]string
	UserID      string
}

// AddTask creates a task for the input's user.
func (r *Resolver) AddTask(ctx context.Context, args struct{ Input addTaskInput }) (*TaskResolver, error) {
	in := args.Input
	created, err := r.service.AddTask(ctx, services.AddTaskInput{
		TaskName:    in.TaskName,
		Description: in.Description,
		IsDone:      in.IsDone,
		Priority:    int(in.Priority),
		Tags:        derefTags(in.Tags),
		UserID:      in.UserID,
	})
	if err != nil {
		return nil, err
	}
	return &TaskResolver{task: created}, nil
}

// UpdateTask applies the fields present in the input to an active task.
func (r *Resolver) UpdateTask(ctx context.Context, args struct{ Input updateTaskInput }) (*TaskResolver, error) {
	in := args.Input
	changes := models.TaskPatch{
		TaskName:    models.FromPtr(in.TaskName),
		Description: models.FromPtr(in.Description),
		IsDone:      models.FromPtr(in.IsDone),
		Tags:        models.FromPtr(in.Tags),
	}
	if in.Priority != nil {
		changes.Priority = models.Some(int(*in.Priority))
	}

	updated, err := r.service.UpdateTask(ctx, services.UpdateTaskInput{
		TaskID:  string(in.TaskID),
		UserID:  in.UserID,
		Changes: changes,
	})
	if err != nil {
		return nil, err
	}
	return &TaskResolver{task: updated}, nil
}

func derefTags(tags *[]string) []string {
	if tags == nil {
		return nil
	}
	return *tags
}

func wrapTasks(tasks []*models.Task) []*TaskResolver {
	out := make([]*TaskResolver, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, &TaskResolver{task: t})
	}
	return out
}
