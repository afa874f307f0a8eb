package services

import (
	"strings"
	"unicode/utf8"

	"todo-project/microservices/tasks-service/apperrors"
	"todo-project/microservices/tasks-service/models"
)

const (
	msgPriorityRange         = "Priority must be between 1 and 5"
	msgDescriptionTooShort   = "Description must be at least 10 characters long"
	msgDescriptionEqualsName = "Description cannot be the same as task name"
	msgTooManyTags           = "Tags array cannot have more than 5 items"
	msgTaskNameRequired      = "Task name is required"
	msgUserIDRequired        = "User ID is required"
	msgTaskNameNotUnique     = "Task name must be unique for this user"
	msgUnauthorized          = "Unauthorized: You can only update your own tasks"
	msgDeletedTask           = "Cannot update deleted task"
)

func validatePriority(priority int) error {
	if priority < models.MinPriority || priority > models.MaxPriority {
		return apperrors.NewValidationError(msgPriorityRange)
	}
	return nil
}

// Length is counted in characters, not bytes.
func validateDescription(description string) error {
	if utf8.RuneCountInString(description) < models.MinDescriptionLength {
		return apperrors.NewValidationError(msgDescriptionTooShort)
	}
	return nil
}

func validateDistinct(taskName, description string) error {
	if description == taskName {
		return apperrors.NewValidationError(msgDescriptionEqualsName)
	}
	return nil
}

func validateTags(tags []string) error {
	if len(tags) > models.MaxTags {
		return apperrors.NewValidationError(msgTooManyTags)
	}
	return nil
}

func validateTaskName(taskName string) error {
	if taskName == "" {
		return apperrors.NewValidationError(msgTaskNameRequired)
	}
	return nil
}

// validateNewTask applies the creation rules in order; the first failure wins.
func validateNewTask(t *models.Task) error {
	checks := []func() error{
		func() error { return validatePriority(t.Priority) },
		func() error { return validateDescription(t.Description) },
		func() error { return validateDistinct(t.TaskName, t.Description) },
		func() error { return validateTags(t.Tags) },
		func() error { return validateTaskName(t.TaskName) },
		func() error {
			if t.UserID == "" {
				return apperrors.NewValidationError(msgUserIDRequired)
			}
			return nil
		},
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// validatePatch applies the update rules against the stored task. Only the
// cross-field check looks at unset fields, using the stored values.
func validatePatch(current *models.Task, patch models.TaskPatch) error {
	if v, ok := patch.Priority.Get(); ok {
		if err := validatePriority(v); err != nil {
			return err
		}
	}
	if v, ok := patch.Description.Get(); ok {
		if err := validateDescription(v); err != nil {
			return err
		}
	}
	effectiveName := patch.TaskName.OrElse(current.TaskName)
	effectiveDescription := patch.Description.OrElse(current.Description)
	if err := validateDistinct(effectiveName, effectiveDescription); err != nil {
		return err
	}
	if v, ok := patch.Tags.Get(); ok {
		if err := validateTags(v); err != nil {
			return err
		}
	}
	if v, ok := patch.TaskName.Get(); ok {
		if err := validateTaskName(v); err != nil {
			return err
		}
	}
	return nil
}

// normalizeTags trims every tag. A nil slice becomes empty.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, strings.TrimSpace(tag))
	}
	return out
}

// normalizePatch trims the string fields that are set.
func normalizePatch(p models.TaskPatch) models.TaskPatch {
	if v, ok := p.TaskName.Get(); ok {
		p.TaskName = models.Some(strings.TrimSpace(v))
	}
	if v, ok := p.Description.Get(); ok {
		p.Description = models.Some(strings.TrimSpace(v))
	}
	if v, ok := p.Tags.Get(); ok {
		p.Tags = models.Some(normalizeTags(v))
	}
	return p
}
