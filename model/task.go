package model

import "time"

// Task is a to-do item belonging to one list. The id is assigned by the store
// on first save; tasks always start out active.
type Task struct {
	ID     string `json:"id"`
	ListID string `json:"listId" validate:"required"`
	Name   string `json:"name" validate:"required"`

	// IsCompleted is encoded in the item's sort key, not as a separate
	// attribute the store filters on. Flipping it moves the item.
	IsCompleted bool `json:"isCompleted"`

	DueDate *time.Time `json:"dueDate,omitempty"`
	Desc    string     `json:"desc,omitempty"`
}

// Validate checks the fields required to create the task.
func (t *Task) Validate() error {
	return validate.Struct(t)
}
