package models

import "time"

const (
	MinPriority          = 1
	MaxPriority          = 5
	MinDescriptionLength = 10
	MaxTags              = 5
)

type Task struct {
	ID          string    `json:"_id"`
	TaskName    string    `json:"taskName"`
	Description string    `json:"description"`
	IsDone      bool      `json:"isDone"`
	Priority    int       `json:"priority"`
	Tags        []string  `json:"tags"`
	UserID      string    `json:"userId"`
	IsDeleted   bool      `json:"isDeleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsActive reports whether the task has not been soft-deleted. Only active
// tasks accept updates.
func (t *Task) IsActive() bool {
	return !t.IsDeleted
}

// Apply writes the fields set in p onto t.
func (t *Task) Apply(p TaskPatch) {
	if v, ok := p.TaskName.Get(); ok {
		t.TaskName = v
	}
	if v, ok := p.Description.Get(); ok {
		t.Description = v
	}
	if v, ok := p.IsDone.Get(); ok {
		t.IsDone = v
	}
	if v, ok := p.Priority.Get(); ok {
		t.Priority = v
	}
	if v, ok := p.Tags.Get(); ok {
		t.Tags = append([]string{}, v...)
	}
}

// Clone returns a deep copy so callers never share the tags slice.
func (t *Task) Clone() *Task {
	c := *t
	c.Tags = append([]string{}, t.Tags...)
	return &c
}

// TaskPatch is a partial update. Unset fields are left untouched.
type TaskPatch struct {
	TaskName    Optional[string]
	Description Optional[string]
	IsDone      Optional[bool]
	Priority    Optional[int]
	Tags        Optional[[]string]
}

// TaskFilter selects tasks. Unset fields do not constrain the result.
type TaskFilter struct {
	UserID    Optional[string]
	TaskName  Optional[string]
	IsDone    Optional[bool]
	IsDeleted Optional[bool]
	// ExcludeID drops the task with this id from the result when non-empty.
	ExcludeID string
}

func (f TaskFilter) Matches(t *Task) bool {
	if v, ok := f.UserID.Get(); ok && t.UserID != v {
		return false
	}
	if v, ok := f.TaskName.Get(); ok && t.TaskName != v {
		return false
	}
	if v, ok := f.IsDone.Get(); ok && t.IsDone != v {
		return false
	}
	if v, ok := f.IsDeleted.Get(); ok && t.IsDeleted != v {
		return false
	}
	if f.ExcludeID != "" && t.ID == f.ExcludeID {
		return false
	}
	return true
}

// TaskSort is the ordering of a task listing.
type TaskSort int

const (
	SortByCreatedDesc TaskSort = iota
	SortByUpdatedDesc
)
