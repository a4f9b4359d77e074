package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is a raw DynamoDB item.
type Item map[string]types.AttributeValue

// Key is a DynamoDB primary key, here always the (PK, SK) pair.
type Key map[string]types.AttributeValue

// ErrConditionFailed is returned when a conditional write did not commit
// because its precondition no longer held, including the case where a
// transaction was cancelled for that reason.
var ErrConditionFailed = errors.New("taskstore: conditional check failed")

// Condition expressions guarding writes. Presence of the partition key
// attribute doubles as presence of the whole item.
const (
	condAbsent  = "attribute_not_exists(PK)"
	condPresent = "attribute_exists(PK)"
)

// API is the subset of the DynamoDB client the storage layer uses. It is
// satisfied by *dynamodb.Client.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client exposes the store primitives against one configured table.
type Client struct {
	api    API
	config Config
}

// New creates a Client from an already-constructed DynamoDB client.
func New(api API, config Config) *Client {
	return &Client{api: api, config: config}
}

// Connect builds a Client using the default AWS configuration chain and the
// table configuration from the environment.
func Connect(ctx context.Context) (*Client, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(awsCfg), cfg), nil
}

// Config returns the table configuration the client was built with.
func (c *Client) Config() Config {
	return c.config
}

// Get returns the item at key, or nil when no item exists. An optional
// projection restricts the returned attributes.
func (c *Client) Get(ctx context.Context, key Key, projection ...string) (Item, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(c.config.TableName),
		Key:       key,
	}
	if len(projection) > 0 {
		proj := projectionOf(projection)
		expr, err := expression.NewBuilder().WithProjection(proj).Build()
		if err != nil {
			return nil, fmt.Errorf("build projection: %w", err)
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}

	out, err := c.api.GetItem(ctx, input)
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	return out.Item, nil
}

// PutIfAbsent writes item only when no item occupies its key.
func (c *Client) PutIfAbsent(ctx context.Context, item Item) error {
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.config.TableName),
		Item:                item,
		ConditionExpression: aws.String(condAbsent),
	})
	return mapConditionErr(err)
}

// PutIfPresent overwrites the item at its key only when one already exists.
func (c *Client) PutIfPresent(ctx context.Context, item Item) error {
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.config.TableName),
		Item:                item,
		ConditionExpression: aws.String(condPresent),
	})
	return mapConditionErr(err)
}

// DeleteIfPresent removes the item at key only when one exists.
func (c *Client) DeleteIfPresent(ctx context.Context, key Key) error {
	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(c.config.TableName),
		Key:                 key,
		ConditionExpression: aws.String(condPresent),
	})
	return mapConditionErr(err)
}

// UpdateAttributes applies a partial attribute update to an existing item.
// The update is conditioned on the item's existence.
func (c *Client) UpdateAttributes(ctx context.Context, key Key, update expression.UpdateBuilder) error {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	_, err = c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(c.config.TableName),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return mapConditionErr(err)
}

// PrefixQuery selects every item of a partition whose sort key starts with
// SortKeyPrefix, optionally narrowed by a filter and a projection.
type PrefixQuery struct {
	PartitionKey  string
	SortKeyPrefix string

	// Filter is a raw filter expression over non-key attributes. Any value
	// placeholders it references must be supplied in FilterValues.
	Filter       string
	FilterValues map[string]types.AttributeValue

	// Projection restricts the returned attributes.
	Projection []string
}

// QueryPrefix runs a prefix query and returns all matching items, following
// pagination to the end. An empty result is ([]Item)(nil), not an error.
func (c *Client) QueryPrefix(ctx context.Context, q PrefixQuery) ([]Item, error) {
	values := map[string]types.AttributeValue{
		":pk":       &types.AttributeValueMemberS{Value: q.PartitionKey},
		":skPrefix": &types.AttributeValueMemberS{Value: q.SortKeyPrefix},
	}
	for k, v := range q.FilterValues {
		values[k] = v
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(c.config.TableName),
		KeyConditionExpression:    aws.String("PK = :pk AND begins_with(SK, :skPrefix)"),
		ExpressionAttributeValues: values,
	}
	if q.Filter != "" {
		input.FilterExpression = aws.String(q.Filter)
	}
	if len(q.Projection) > 0 {
		expr, err := expression.NewBuilder().WithProjection(projectionOf(q.Projection)).Build()
		if err != nil {
			return nil, fmt.Errorf("build projection: %w", err)
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}

	var items []Item
	paginator := dynamodb.NewQueryPaginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			items = append(items, raw)
		}
	}
	return items, nil
}

// QueryEmailIndex looks up the single item matching email on the email index,
// or nil when none matches. The index is eventually consistent.
func (c *Client) QueryEmailIndex(ctx context.Context, email string) (Item, error) {
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.config.TableName),
		IndexName:              aws.String(c.config.EmailIndex),
		KeyConditionExpression: aws.String("email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	return out.Items[0], nil
}

// TransactPut writes an item inside a transaction.
type TransactPut struct {
	Item Item

	// IfAbsent conditions the put on no item occupying the key.
	IfAbsent bool
}

// TransactDelete removes an item inside a transaction.
type TransactDelete struct {
	Key Key

	// IfPresent conditions the delete on the item existing.
	IfPresent bool
}

// TransactUpdate applies a partial attribute update inside a transaction.
type TransactUpdate struct {
	Key    Key
	Update expression.UpdateBuilder

	// IfPresent conditions the update on the item existing.
	IfPresent bool
}

// TransactOp is one operation of a transactional write. Exactly one of the
// fields must be set.
type TransactOp struct {
	Put    *TransactPut
	Delete *TransactDelete
	Update *TransactUpdate
}

// TransactWrite applies all operations atomically: either every operation
// commits or none does. A cancellation caused by any single operation's
// condition surfaces as ErrConditionFailed with no partial effect.
func (c *Client) TransactWrite(ctx context.Context, ops []TransactOp) error {
	items := make([]types.TransactWriteItem, 0, len(ops))
	for i, op := range ops {
		switch {
		case op.Put != nil:
			put := &types.Put{
				TableName: aws.String(c.config.TableName),
				Item:      op.Put.Item,
			}
			if op.Put.IfAbsent {
				put.ConditionExpression = aws.String(condAbsent)
			}
			items = append(items, types.TransactWriteItem{Put: put})

		case op.Delete != nil:
			del := &types.Delete{
				TableName: aws.String(c.config.TableName),
				Key:       op.Delete.Key,
			}
			if op.Delete.IfPresent {
				del.ConditionExpression = aws.String(condPresent)
			}
			items = append(items, types.TransactWriteItem{Delete: del})

		case op.Update != nil:
			builder := expression.NewBuilder().WithUpdate(op.Update.Update)
			if op.Update.IfPresent {
				builder = builder.WithCondition(expression.AttributeExists(expression.Name("PK")))
			}
			expr, err := builder.Build()
			if err != nil {
				return fmt.Errorf("build update: %w", err)
			}
			items = append(items, types.TransactWriteItem{Update: &types.Update{
				TableName:                 aws.String(c.config.TableName),
				Key:                       op.Update.Key,
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			}})

		default:
			return fmt.Errorf("taskstore: transact op %d is empty", i)
		}
	}

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return mapTransactErr(err)
}

func projectionOf(attrs []string) expression.ProjectionBuilder {
	names := make([]expression.NameBuilder, 0, len(attrs))
	for _, a := range attrs[1:] {
		names = append(names, expression.Name(a))
	}
	return expression.NamesList(expression.Name(attrs[0]), names...)
}

// mapConditionErr reclassifies a failed conditional check; any other error
// passes through unmodified.
func mapConditionErr(err error) error {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConditionFailed
	}
	return err
}

// mapTransactErr reclassifies a transaction cancelled by a conditional check;
// cancellations for other reasons (and all other errors) pass through.
func mapTransactErr(err error) error {
	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for _, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return ErrConditionFailed
			}
		}
	}
	return err
}
