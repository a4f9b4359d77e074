package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mytasks/taskstore/dynamo"
	"github.com/mytasks/taskstore/model"
)

// DueBucket selects tasks by how their due date relates to a reference day.
type DueBucket string

const (
	DueToday     DueBucket = "today"
	DueTomorrow  DueBucket = "tomorrow"
	DueUpcoming  DueBucket = "upcoming"
	DueOverdue   DueBucket = "overdue"
	DueUnplanned DueBucket = "unplanned"
)

// TaskQuery narrows a GetAll scan. The zero value returns every active task.
type TaskQuery struct {
	// Name filters to tasks whose name contains the substring,
	// case-insensitively, via the nameSearch shadow attribute.
	Name string

	// Due selects a due-date bucket relative to Today. The two travel
	// together: upstream validation guarantees both or neither, and if only
	// one arrives the predicate is skipped rather than guessed at.
	Due   DueBucket
	Today time.Time

	// IncludeCompleted widens the scan from the TASK#active# prefix to the
	// whole TASK# prefix.
	IncludeCompleted bool
}

// taskProjection matches the attribute set handed to callers on reads; the
// list id is reattached from the query argument since it only exists in the
// partition key.
var taskProjection = []string{"id", "name", "desc", "isCompleted", "dueDate"}

// TaskStore persists tasks under their list's LIST#{listId} partition, with
// the completion state encoded in the sort key.
type TaskStore struct {
	db  *dynamo.Client
	log *zap.Logger
}

// NewTaskStore creates a TaskStore. A nil logger disables logging.
func NewTaskStore(db *dynamo.Client, log *zap.Logger) *TaskStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskStore{db: db, log: log}
}

// Create stores the task under a generated id and returns the id. Tasks are
// always created active, whatever completion state the caller passed.
func (s *TaskStore) Create(ctx context.Context, task *model.Task) (string, error) {
	if task.ListID == "" {
		return "", &RequiredPropertyError{Property: "listId"}
	}

	id := uuid.NewString()
	created := *task
	created.ID = id
	created.IsCompleted = false

	item, err := taskToItem(&created, taskActivePrefix+id)
	if err != nil {
		return "", err
	}
	if err := s.db.PutIfAbsent(ctx, item); err != nil {
		if errors.Is(err, dynamo.ErrConditionFailed) {
			s.log.Error("generated task id collided",
				zap.String("taskId", id), zap.String("listId", task.ListID))
			return "", ErrIDAlreadyExists
		}
		return "", err
	}
	return id, nil
}

// GetAll returns the list's tasks matching the query. A list with no matches
// yields an empty slice, not an error.
func (s *TaskStore) GetAll(ctx context.Context, listID string, query TaskQuery) ([]model.Task, error) {
	if listID == "" {
		return nil, &RequiredPropertyError{Property: "listId"}
	}

	prefix := taskActivePrefix
	if query.IncludeCompleted {
		prefix = taskKeyPrefix
	}

	var conditions []string
	values := map[string]types.AttributeValue{}
	if query.Name != "" {
		conditions = append(conditions, "contains(nameSearch, :name)")
		values[":name"] = &types.AttributeValueMemberS{Value: strings.ToLower(query.Name)}
	}
	if cond, due, ok := dueCondition(query); ok {
		conditions = append(conditions, cond)
		if due != "" {
			values[":dueDate"] = &types.AttributeValueMemberS{Value: due}
		}
	}

	items, err := s.db.QueryPrefix(ctx, dynamo.PrefixQuery{
		PartitionKey:  listKeyPrefix + listID,
		SortKeyPrefix: prefix,
		Filter:        strings.Join(conditions, " AND "),
		FilterValues:  values,
		Projection:    taskProjection,
	})
	if err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0, len(items))
	for _, item := range items {
		task, err := taskFromItem(item, listID)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// dueCondition translates the query's bucket into a dueDate predicate and the
// reference value it compares against, empty for the attribute-absence case.
func dueCondition(query TaskQuery) (cond, value string, ok bool) {
	if query.Due == "" || query.Today.IsZero() {
		return "", "", false
	}
	switch query.Due {
	case DueToday:
		return "dueDate = :dueDate", formatDueDate(query.Today), true
	case DueTomorrow:
		return "dueDate = :dueDate", formatDueDate(query.Today.AddDate(0, 0, 1)), true
	case DueUpcoming:
		return "dueDate > :dueDate", formatDueDate(query.Today.AddDate(0, 0, 1)), true
	case DueOverdue:
		return "dueDate < :dueDate", formatDueDate(query.Today), true
	case DueUnplanned:
		return "attribute_not_exists(dueDate)", "", true
	}
	return "", "", false
}

// Update rewrites the task under the key shape matching its completion state.
//
// Completing moves the item from the active key to the completed key in one
// transaction; the delete is unconditioned because the put is the
// authoritative state transition. Writing an active task first tries the
// cheap put-if-present on the active key, and only on a conditional failure
// falls back to the transactional move out of the completed key — a reopen.
// The two attempts are not atomic with each other: a concurrent delete
// landing between them surfaces as ErrTaskNotFound, never as a duplicate or
// corrupted item.
func (s *TaskStore) Update(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		return &RequiredPropertyError{Property: "id"}
	}
	if task.ListID == "" {
		return &RequiredPropertyError{Property: "listId"}
	}

	if task.IsCompleted {
		item, err := taskToItem(task, taskKeyPrefix+task.ID)
		if err != nil {
			return err
		}
		return s.db.TransactWrite(ctx, []dynamo.TransactOp{
			{Delete: &dynamo.TransactDelete{Key: activeTaskKey(task.ListID, task.ID)}},
			{Put: &dynamo.TransactPut{Item: item}},
		})
	}

	item, err := taskToItem(task, taskActivePrefix+task.ID)
	if err != nil {
		return err
	}
	err = s.db.PutIfPresent(ctx, item)
	if err == nil {
		return nil
	}
	if !errors.Is(err, dynamo.ErrConditionFailed) {
		return err
	}

	// No active item, so the task must be completed: reopen it by moving the
	// completed item back under the active key.
	err = s.db.TransactWrite(ctx, []dynamo.TransactOp{
		{Delete: &dynamo.TransactDelete{Key: completedTaskKey(task.ListID, task.ID), IfPresent: true}},
		{Put: &dynamo.TransactPut{Item: item}},
	})
	if err != nil {
		if errors.Is(err, dynamo.ErrConditionFailed) {
			s.log.Error("task exists under neither key shape",
				zap.String("taskId", task.ID), zap.String("listId", task.ListID))
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

// Delete removes the task from whichever key shape it occupies, trying the
// active key first since that is the common case.
func (s *TaskStore) Delete(ctx context.Context, taskID, listID string) error {
	if taskID == "" {
		return &RequiredPropertyError{Property: "taskId"}
	}
	if listID == "" {
		return &RequiredPropertyError{Property: "listId"}
	}

	err := s.db.DeleteIfPresent(ctx, activeTaskKey(listID, taskID))
	if err == nil {
		return nil
	}
	if !errors.Is(err, dynamo.ErrConditionFailed) {
		return err
	}

	err = s.db.DeleteIfPresent(ctx, completedTaskKey(listID, taskID))
	if err == nil {
		return nil
	}
	if errors.Is(err, dynamo.ErrConditionFailed) {
		s.log.Error("task exists under neither key shape",
			zap.String("taskId", taskID), zap.String("listId", listID))
		return ErrTaskNotFound
	}
	return err
}
