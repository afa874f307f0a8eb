package resolvers

import (
	"github.com/graph-gophers/graphql-go"

	"todo-project/microservices/tasks-service/models"
)

// TaskResolver exposes a stored task as the GraphQL Task type.
type TaskResolver struct {
	task *models.Task
}

// ID maps the task's identifier onto the _id field.
func (r *TaskResolver) ID() graphql.ID {
	return graphql.ID(r.task.ID)
}

func (r *TaskResolver) TaskName() string {
	return r.task.TaskName
}

func (r *TaskResolver) Description() string {
	return r.task.Description
}

func (r *TaskResolver) IsDone() bool {
	return r.task.IsDone
}

func (r *TaskResolver) Priority() int32 {
	return int32(r.task.Priority)
}

// Tags is never null in responses; a task without tags has an empty list.
func (r *TaskResolver) Tags() *[]string {
	tags := r.task.Tags
	if tags == nil {
		tags = []string{}
	}
	return &tags
}

// CreatedAt is serialized as an ISO-8601 UTC timestamp.
func (r *TaskResolver) CreatedAt() Date {
	return Date{r.task.CreatedAt}
}

func (r *TaskResolver) UpdatedAt() Date {
	return Date{r.task.UpdatedAt}
}

func (r *TaskResolver) UserID() string {
	return r.task.UserID
}

func (r *TaskResolver) IsDeleted() bool {
	return r.task.IsDeleted
}

// UserResolver exposes a user record as the GraphQL User type.
type UserResolver struct {
	user *models.User
}

func (r *UserResolver) ID() graphql.ID {
	return graphql.ID(r.user.ID)
}

func (r *UserResolver) UserID() string {
	return r.user.UserID
}

func (r *UserResolver) Name() *string {
	return r.user.Name
}

func (r *UserResolver) Email() *string {
	return r.user.Email
}
