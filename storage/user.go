package storage

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"go.uber.org/zap"

	"github.com/mytasks/taskstore/dynamo"
	"github.com/mytasks/taskstore/model"
)

// userProjection matches the attribute set handed to callers on reads. Salt
// and hash are included: login needs them, response shaping is the handler's
// problem.
var userProjection = []string{"id", "email", "nickname", "fullName", "hash", "salt", "preferences"}

// UserStore persists users under the USER#{id} self key.
type UserStore struct {
	db  *dynamo.Client
	log *zap.Logger
}

// NewUserStore creates a UserStore. A nil logger disables logging.
func NewUserStore(db *dynamo.Client, log *zap.Logger) *UserStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserStore{db: db, log: log}
}

// Create inserts the user and returns its id. The id doubles as the
// username: if an item already occupies the key, the name is taken. Email
// uniqueness is not checked here — callers look the email up first, a
// best-effort check with a known race window.
func (s *UserStore) Create(ctx context.Context, user *model.User) (string, error) {
	if user.ID == "" {
		return "", &RequiredPropertyError{Property: "id"}
	}
	item, err := userToItem(user)
	if err != nil {
		return "", err
	}
	if err := s.db.PutIfAbsent(ctx, item); err != nil {
		if errors.Is(err, dynamo.ErrConditionFailed) {
			s.log.Error("user id already taken", zap.String("userId", user.ID))
			return "", ErrUsernameUnavailable
		}
		return "", err
	}
	return user.ID, nil
}

// Get returns the user with the given id, or nil when none exists.
func (s *UserStore) Get(ctx context.Context, id string) (*model.User, error) {
	item, err := s.db.Get(ctx, userKey(id), userProjection...)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	return userFromItem(item)
}

// GetByEmail returns the user registered under email, or nil when none is.
// The lookup goes through the email index and is eventually consistent.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	item, err := s.db.QueryEmailIndex(ctx, email)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	return userFromItem(item)
}

// Patch updates only the fields present in the partial. A partial carrying
// nothing but the id performs no store call.
func (s *UserStore) Patch(ctx context.Context, patch *model.UserPatch) error {
	if patch.ID == "" {
		return &RequiredPropertyError{Property: "id"}
	}

	var update expression.UpdateBuilder
	touched := false
	if patch.FullName != "" {
		update = update.Set(expression.Name("fullName"), expression.Value(patch.FullName))
		touched = true
	}
	if patch.Nickname != "" {
		update = update.Set(expression.Name("nickname"), expression.Value(patch.Nickname))
		touched = true
	}
	if patch.DefaultListID != nil {
		update = update.Set(expression.Name("preferences.defaultListId"), expression.Value(*patch.DefaultListID))
		touched = true
	}
	if !touched {
		return nil
	}

	if err := s.db.UpdateAttributes(ctx, userKey(patch.ID), update); err != nil {
		if errors.Is(err, dynamo.ErrConditionFailed) {
			s.log.Error("patch target does not exist", zap.String("userId", patch.ID))
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// Delete removes the user item. Owned lists and tasks are not cascaded.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &RequiredPropertyError{Property: "id"}
	}
	if err := s.db.DeleteIfPresent(ctx, userKey(id)); err != nil {
		if errors.Is(err, dynamo.ErrConditionFailed) {
			s.log.Error("delete target does not exist", zap.String("userId", id))
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
