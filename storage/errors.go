package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrUsernameUnavailable is returned when creating a user whose id is
	// already taken. Ids are caller-chosen, so this is a routine signup
	// outcome, not a bug.
	ErrUsernameUnavailable = errors.New("taskstore: username is already taken")

	// ErrEmailUnavailable is the taxonomy entry for a signup whose email is
	// already registered. The store enforces email uniqueness only through
	// the handler's lookup before create, so the store itself never returns
	// this; it is defined here so callers share one set of error kinds.
	ErrEmailUnavailable = errors.New("taskstore: email address is already registered")

	// ErrUserNotFound is returned when a conditioned user mutation targets an
	// id with no item.
	ErrUserNotFound = errors.New("taskstore: user not found")

	// ErrListNotFound is returned when deleting a list that does not exist.
	ErrListNotFound = errors.New("taskstore: list not found")

	// ErrTaskNotFound is returned when a task exists under neither the active
	// nor the completed key shape.
	ErrTaskNotFound = errors.New("taskstore: task not found")

	// ErrIDAlreadyExists is returned when a generated id collides on create.
	// Not retried here; the caller may retry, which draws a fresh id.
	ErrIDAlreadyExists = errors.New("taskstore: id already exists")
)

// RequiredPropertyError reports a field the protocol needs for key
// construction but the caller left empty. It is raised before any store call.
type RequiredPropertyError struct {
	Property string
}

func (e *RequiredPropertyError) Error() string {
	return fmt.Sprintf("taskstore: property %s is required", e.Property)
}
