package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mytasks/taskstore/dynamo"
	"github.com/mytasks/taskstore/model"
)

// Key prefixes of the single-table layout.
const (
	userKeyPrefix    = "USER#"
	listKeyPrefix    = "LIST#"
	taskKeyPrefix    = "TASK#"
	taskActivePrefix = "TASK#active#"
)

// dueDateLayout is millisecond-precision UTC. Every due date is written and
// filtered in this one format so the store's string comparisons order
// chronologically.
const dueDateLayout = "2006-01-02T15:04:05.000Z"

func key(pk, sk string) dynamo.Key {
	return dynamo.Key{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func userKey(id string) dynamo.Key {
	return key(userKeyPrefix+id, userKeyPrefix+id)
}

func listKey(userID, listID string) dynamo.Key {
	return key(userKeyPrefix+userID, listKeyPrefix+listID)
}

func activeTaskKey(listID, taskID string) dynamo.Key {
	return key(listKeyPrefix+listID, taskActivePrefix+taskID)
}

func completedTaskKey(listID, taskID string) dynamo.Key {
	return key(listKeyPrefix+listID, taskKeyPrefix+taskID)
}

// userRecord is the persisted shape of a user item. The preferences map is
// always written, even empty, so its defaultListId document path stays valid
// for later partial updates.
type userRecord struct {
	PK          string            `dynamodbav:"PK"`
	SK          string            `dynamodbav:"SK"`
	ID          string            `dynamodbav:"id"`
	Email       string            `dynamodbav:"email"`
	FullName    string            `dynamodbav:"fullName"`
	Nickname    string            `dynamodbav:"nickname"`
	Salt        string            `dynamodbav:"salt,omitempty"`
	Hash        string            `dynamodbav:"hash,omitempty"`
	Preferences preferencesRecord `dynamodbav:"preferences"`
}

type preferencesRecord struct {
	DefaultListID *string `dynamodbav:"defaultListId"`
}

func userToItem(u *model.User) (dynamo.Item, error) {
	rec := userRecord{
		PK:       userKeyPrefix + u.ID,
		SK:       userKeyPrefix + u.ID,
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Nickname: u.Nickname,
		Salt:     u.Salt,
		Hash:     u.Hash,
	}
	if u.Preferences != nil {
		rec.Preferences.DefaultListID = u.Preferences.DefaultListID
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal user %s: %w", u.ID, err)
	}
	return item, nil
}

func userFromItem(item dynamo.Item) (*model.User, error) {
	var rec userRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal user item: %w", err)
	}
	return &model.User{
		ID:          rec.ID,
		Email:       rec.Email,
		FullName:    rec.FullName,
		Nickname:    rec.Nickname,
		Salt:        rec.Salt,
		Hash:        rec.Hash,
		Preferences: &model.Preferences{DefaultListID: rec.Preferences.DefaultListID},
	}, nil
}

// listRecord is the persisted shape of a list item. Only id and name are
// stored as attributes: the owner is implied by the partition key, and the
// default flag lives on the owning user item.
type listRecord struct {
	PK   string `dynamodbav:"PK"`
	SK   string `dynamodbav:"SK"`
	ID   string `dynamodbav:"id"`
	Name string `dynamodbav:"name"`
}

func listToItem(l *model.List, id string) (dynamo.Item, error) {
	item, err := attributevalue.MarshalMap(listRecord{
		PK:   userKeyPrefix + l.UserID,
		SK:   listKeyPrefix + id,
		ID:   id,
		Name: l.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal list %s: %w", id, err)
	}
	return item, nil
}

func listFromItem(item dynamo.Item, userID string) (model.List, error) {
	var rec listRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return model.List{}, fmt.Errorf("unmarshal list item: %w", err)
	}
	return model.List{ID: rec.ID, Name: rec.Name, UserID: userID}, nil
}

// taskRecord is the persisted shape of a task item under either key shape.
// nameSearch shadows name in lower case for case-insensitive contains
// filtering, and isCompleted is only present on completed items.
type taskRecord struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	NameSearch  string `dynamodbav:"nameSearch"`
	IsCompleted bool   `dynamodbav:"isCompleted,omitempty"`
	DueDate     string `dynamodbav:"dueDate,omitempty"`
	Desc        string `dynamodbav:"desc,omitempty"`
}

func taskToItem(t *model.Task, sortKey string) (dynamo.Item, error) {
	rec := taskRecord{
		PK:          listKeyPrefix + t.ListID,
		SK:          sortKey,
		ID:          t.ID,
		Name:        t.Name,
		NameSearch:  strings.ToLower(t.Name),
		IsCompleted: t.IsCompleted,
		Desc:        t.Desc,
	}
	if t.DueDate != nil {
		rec.DueDate = formatDueDate(*t.DueDate)
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal task %s: %w", t.ID, err)
	}
	return item, nil
}

func taskFromItem(item dynamo.Item, listID string) (model.Task, error) {
	var rec taskRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return model.Task{}, fmt.Errorf("unmarshal task item: %w", err)
	}
	task := model.Task{
		ID:          rec.ID,
		ListID:      listID,
		Name:        rec.Name,
		IsCompleted: rec.IsCompleted,
		Desc:        rec.Desc,
	}
	if rec.DueDate != "" {
		due, err := time.Parse(dueDateLayout, rec.DueDate)
		if err != nil {
			return model.Task{}, fmt.Errorf("parse due date of task %s: %w", rec.ID, err)
		}
		task.DueDate = &due
	}
	return task, nil
}

func formatDueDate(t time.Time) string {
	return t.UTC().Format(dueDateLayout)
}
