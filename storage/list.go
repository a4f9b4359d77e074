package storage

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mytasks/taskstore/dynamo"
	"github.com/mytasks/taskstore/model"
)

// ListStore persists lists under their owner's USER#{userId} partition.
type ListStore struct {
	db  *dynamo.Client
	log *zap.Logger
}

// NewListStore creates a ListStore. A nil logger disables logging.
func NewListStore(db *dynamo.Client, log *zap.Logger) *ListStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ListStore{db: db, log: log}
}

// Create stores the list under a generated id and returns the id.
//
// A default list is a two-item operation: the list item is inserted and the
// owner's preferences.defaultListId is pointed at it, atomically — either
// both commit or neither does. The preference update is conditioned on the
// owner existing, so a default list can never be created for a missing user.
func (s *ListStore) Create(ctx context.Context, list *model.List) (string, error) {
	if list.UserID == "" {
		return "", &RequiredPropertyError{Property: "userId"}
	}

	id := uuid.NewString()
	item, err := listToItem(list, id)
	if err != nil {
		return "", err
	}

	if !list.IsDefault {
		if err := s.db.PutIfAbsent(ctx, item); err != nil {
			if errors.Is(err, dynamo.ErrConditionFailed) {
				s.log.Error("generated list id collided",
					zap.String("listId", id), zap.String("userId", list.UserID))
				return "", ErrIDAlreadyExists
			}
			return "", err
		}
		return id, nil
	}

	ops := []dynamo.TransactOp{
		{Put: &dynamo.TransactPut{Item: item, IfAbsent: true}},
		{Update: &dynamo.TransactUpdate{
			Key:       userKey(list.UserID),
			Update:    expression.UpdateBuilder{}.Set(expression.Name("preferences.defaultListId"), expression.Value(id)),
			IfPresent: true,
		}},
	}
	if err := s.db.TransactWrite(ctx, ops); err != nil {
		if errors.Is(err, dynamo.ErrConditionFailed) {
			s.log.Error("default list creation did not commit",
				zap.String("listId", id), zap.String("userId", list.UserID))
			return "", ErrIDAlreadyExists
		}
		return "", err
	}
	return id, nil
}

// Delete removes the list item. If the list was the owner's default, the
// dangling preferences.defaultListId reference is left in place.
func (s *ListStore) Delete(ctx context.Context, listID, userID string) error {
	if listID == "" {
		return &RequiredPropertyError{Property: "listId"}
	}
	if userID == "" {
		return &RequiredPropertyError{Property: "userId"}
	}
	if err := s.db.DeleteIfPresent(ctx, listKey(userID, listID)); err != nil {
		if errors.Is(err, dynamo.ErrConditionFailed) {
			s.log.Error("delete target does not exist",
				zap.String("listId", listID), zap.String("userId", userID))
			return ErrListNotFound
		}
		return err
	}
	return nil
}

// GetAll returns the user's lists, carrying only id and name. A user with no
// lists yields an empty slice, not an error.
func (s *ListStore) GetAll(ctx context.Context, userID string) ([]model.List, error) {
	if userID == "" {
		return nil, &RequiredPropertyError{Property: "userId"}
	}
	items, err := s.db.QueryPrefix(ctx, dynamo.PrefixQuery{
		PartitionKey:  userKeyPrefix + userID,
		SortKeyPrefix: listKeyPrefix,
		Projection:    []string{"id", "name"},
	})
	if err != nil {
		return nil, err
	}

	lists := make([]model.List, 0, len(items))
	for _, item := range items {
		list, err := listFromItem(item, userID)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, nil
}
