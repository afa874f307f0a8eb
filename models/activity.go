package models

import "time"

type ActivityAction string

const (
	ActionTaskCreated ActivityAction = "task_created"
	ActionTaskUpdated ActivityAction = "task_updated"
)

// Activity is one journal entry written after a successful mutation.
type Activity struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	TaskID    string         `json:"taskId"`
	TaskName  string         `json:"taskName"`
	Action    ActivityAction `json:"action"`
	CreatedAt time.Time      `json:"createdAt"`
}
