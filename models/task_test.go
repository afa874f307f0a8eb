package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptional(t *testing.T) {
	none := None[string]()
	_, ok := none.Get()
	assert.False(t, ok)
	assert.Equal(t, "fallback", none.OrElse("fallback"))

	empty := Some("")
	v, ok := empty.Get()
	assert.True(t, ok)
	assert.Equal(t, "", v)
	assert.Equal(t, "", empty.OrElse("fallback"))

	var nilPtr *int
	assert.False(t, FromPtr(nilPtr).IsSet())
	three := 3
	assert.Equal(t, 3, FromPtr(&three).OrElse(0))
}

func TestTask_ApplyOnlySetFields(t *testing.T) {
	task := &Task{
		TaskName:    "Original Task",
		Description: "Original description for testing",
		Priority:    3,
		Tags:        []string{"original"},
	}

	task.Apply(TaskPatch{IsDone: Some(true)})

	assert.True(t, task.IsDone)
	assert.Equal(t, "Original Task", task.TaskName)
	assert.Equal(t, "Original description for testing", task.Description)
	assert.Equal(t, 3, task.Priority)
	assert.Equal(t, []string{"original"}, task.Tags)

	task.Apply(TaskPatch{Tags: Some([]string{}), Priority: Some(5)})
	assert.Equal(t, []string{}, task.Tags)
	assert.Equal(t, 5, task.Priority)
}

func TestTask_CloneDoesNotShareTags(t *testing.T) {
	task := &Task{Tags: []string{"a"}}
	c := task.Clone()
	c.Tags[0] = "b"
	assert.Equal(t, "a", task.Tags[0])
}

func TestTaskFilter_Matches(t *testing.T) {
	task := &Task{ID: "1", TaskName: "Write docs", UserID: "user123", IsDone: true}

	tests := []struct {
		name     string
		filter   TaskFilter
		expected bool
	}{
		{"empty filter matches", TaskFilter{}, true},
		{"user matches", TaskFilter{UserID: Some("user123")}, true},
		{"other user", TaskFilter{UserID: Some("user456")}, false},
		{"done and active", TaskFilter{IsDone: Some(true), IsDeleted: Some(false)}, true},
		{"deleted only", TaskFilter{IsDeleted: Some(true)}, false},
		{"name matches", TaskFilter{TaskName: Some("Write docs")}, true},
		{"excluded by id", TaskFilter{TaskName: Some("Write docs"), ExcludeID: "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.Matches(task))
		})
	}
}
