package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"omnichannel/application/ports"
	"omnichannel/domain/entities"
	apperrors "omnichannel/pkg/errors"
	"omnichannel/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Partition layout. Client rows live under one partition keyed by sanitized
// email; the identifier counter is a singleton row in its own partition.
const (
	clientPartition  = "Clients"
	counterPartition = "Counters"
	counterRow       = "ClientId"
)

// DynamoDBAPI is the subset of the DynamoDB client this repository uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ClientRepository implements the ClientRepository port against DynamoDB. It
// is the failover target: records written here carry identifiers allocated by
// the store-backed counter, independent of the primary store's sequence.
type ClientRepository struct {
	client    DynamoDBAPI
	tableName string
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewClientRepository creates a new DynamoDB-backed ClientRepository.
// metrics may be nil.
func NewClientRepository(client DynamoDBAPI, tableName string, metrics *observability.Metrics, logger *zap.Logger) *ClientRepository {
	return &ClientRepository{
		client:    client,
		tableName: tableName,
		metrics:   metrics,
		logger:    logger,
	}
}

// clientItem represents the DynamoDB item structure for a client row
type clientItem struct {
	PK                   string `dynamodbav:"PK"`
	SK                   string `dynamodbav:"SK"`
	ClientID             int    `dynamodbav:"ClientID"`
	FullName             string `dynamodbav:"FullName"`
	Email                string `dynamodbav:"Email"`
	Status               string `dynamodbav:"Status"`
	AssignedManagerEmail string `dynamodbav:"AssignedManagerEmail"`
	LastModifiedBy       string `dynamodbav:"LastModifiedBy"`
	CreatedAt            string `dynamodbav:"CreatedAt"`
}

// counterItem is the singleton allocator row. Version is the optimistic
// concurrency token: every successful allocation bumps it, and an allocation
// only commits when the version it read is still current.
type counterItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	LastClientID int    `dynamodbav:"LastClientId"`
	Version      int    `dynamodbav:"Version"`
}

// sanitizeEmailKey derives the row key from an email address. The backing
// store restricts key characters, so dots become underscores; lower-casing
// keeps the mapping deterministic regardless of caller casing.
func sanitizeEmailKey(email string) string {
	return strings.ReplaceAll(strings.ToLower(email), ".", "_")
}

// Create allocates the next identifier from the counter row and upserts a new
// client row stamped with the failover attribution.
func (r *ClientRepository) Create(ctx context.Context, client *entities.Client) (*entities.Client, error) {
	id, err := r.nextClientID(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if strings.TrimSpace(client.Status) == "" {
		client.Status = entities.StatusActive
	}

	item := clientItem{
		PK:                   clientPartition,
		SK:                   sanitizeEmailKey(client.Email),
		ClientID:             id,
		FullName:             client.FullName,
		Email:                client.Email,
		Status:               client.Status,
		AssignedManagerEmail: client.AssignedManagerEmail,
		LastModifiedBy:       entities.AttributionFailoverCreate,
		CreatedAt:            now.Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal client: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("failed to store client in secondary store",
			zap.Error(err),
			zap.Int("clientID", id),
		)
		return nil, fmt.Errorf("failed to store client: %w", err)
	}

	client.ClientID = id
	client.LastModifiedBy = entities.AttributionFailoverCreate
	client.CreatedAt = now

	r.logger.Info("client created in secondary store",
		zap.Int("clientID", id),
		zap.String("rowKey", item.SK),
	)

	return client, nil
}

// Update performs a merge-style upsert: only the fields written below are
// touched, everything else on the row is preserved. The row does not need to
// pre-exist.
func (r *ClientRepository) Update(ctx context.Context, client *entities.Client) error {
	update := expression.
		Set(expression.Name("ClientID"), expression.Value(client.ClientID)).
		Set(expression.Name("FullName"), expression.Value(client.FullName)).
		Set(expression.Name("Status"), expression.Value(client.Status)).
		Set(expression.Name("LastModifiedBy"), expression.Value(entities.AttributionFailoverUpdate))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: clientPartition},
			"SK": &types.AttributeValueMemberS{Value: sanitizeEmailKey(client.Email)},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := r.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	return nil
}

// GetAll returns every client row in the partition.
func (r *ClientRepository) GetAll(ctx context.Context) ([]*entities.Client, error) {
	items, err := r.queryPartition(ctx, nil)
	if err != nil {
		return nil, err
	}

	clients := make([]*entities.Client, 0, len(items))
	for _, item := range items {
		clients = append(clients, mapToClient(item))
	}
	return clients, nil
}

// GetByID returns the client whose stored identifier matches, or (nil, nil).
func (r *ClientRepository) GetByID(ctx context.Context, id int) (*entities.Client, error) {
	item, err := r.findItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	return mapToClient(*item), nil
}

// Exists reports whether a row with the given identifier is present.
func (r *ClientRepository) Exists(ctx context.Context, id int) (bool, error) {
	item, err := r.findItemByID(ctx, id)
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

// Delete removes the row holding the given identifier. Absent identifiers are
// a no-op.
func (r *ClientRepository) Delete(ctx context.Context, id int) error {
	item, err := r.findItemByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: item.PK},
			"SK": &types.AttributeValueMemberS{Value: item.SK},
		},
	}

	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	return nil
}

// findItemByID scans the client partition for a row whose ClientID attribute
// matches. The table has no secondary index on the identifier, so this is a
// linear filter over the partition.
func (r *ClientRepository) findItemByID(ctx context.Context, id int) (*clientItem, error) {
	filter := expression.Name("ClientID").Equal(expression.Value(id))
	items, err := r.queryPartition(ctx, &filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// queryPartition queries the client partition, following pagination, with an
// optional filter applied server-side.
func (r *ClientRepository) queryPartition(ctx context.Context, filter *expression.ConditionBuilder) ([]clientItem, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(clientPartition))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	var items []clientItem
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		}

		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query clients: %w", err)
		}

		var page []clientItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal clients: %w", err)
		}
		items = append(items, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return items, nil
}

// nextClientID allocates the next identifier via the counter row.
//
// The read-then-conditional-write is the only concurrency discipline: a
// losing writer surfaces a conflict instead of retrying, so concurrent
// allocations can never both commit the same value. The bootstrap put is
// likewise conditional on the row not existing, so dueling first writers
// cannot both observe 1.
func (r *ClientRepository) nextClientID(ctx context.Context) (int, error) {
	counterKey := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: counterPartition},
		"SK": &types.AttributeValueMemberS{Value: counterRow},
	}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            counterKey,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read id counter: %w", err)
	}

	if len(result.Item) == 0 {
		return r.bootstrapCounter(ctx)
	}

	var counter counterItem
	if err := attributevalue.UnmarshalMap(result.Item, &counter); err != nil {
		return 0, fmt.Errorf("failed to unmarshal id counter: %w", err)
	}

	next := counter.LastClientID + 1

	update := expression.
		Set(expression.Name("LastClientId"), expression.Value(next)).
		Set(expression.Name("Version"), expression.Value(counter.Version+1))
	cond := expression.Name("Version").Equal(expression.Value(counter.Version))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build counter expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       counterKey,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			r.metrics.CountAllocationConflict()
			r.logger.Warn("id allocation lost a concurrent race",
				zap.Int("observedValue", counter.LastClientID),
				zap.Int("observedVersion", counter.Version),
			)
			return 0, apperrors.NewConflictError("client id allocation lost to a concurrent writer").WithCause(err)
		}
		return 0, fmt.Errorf("failed to advance id counter: %w", err)
	}

	return next, nil
}

// bootstrapCounter creates the counter row on first allocation.
func (r *ClientRepository) bootstrapCounter(ctx context.Context) (int, error) {
	counter := counterItem{
		PK:           counterPartition,
		SK:           counterRow,
		LastClientID: 1,
		Version:      1,
	}

	av, err := attributevalue.MarshalMap(counter)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal id counter: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			r.metrics.CountAllocationConflict()
			return 0, apperrors.NewConflictError("id counter was created concurrently").WithCause(err)
		}
		return 0, fmt.Errorf("failed to create id counter: %w", err)
	}

	r.logger.Info("id counter created", zap.String("table", r.tableName))
	return 1, nil
}

// mapToClient converts a stored row back into the entity.
func mapToClient(item clientItem) *entities.Client {
	createdAt, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}

	status := item.Status
	if status == "" {
		status = entities.StatusActive
	}

	return &entities.Client{
		ClientID:             item.ClientID,
		FullName:             item.FullName,
		Email:                item.Email,
		Status:               status,
		AssignedManagerEmail: item.AssignedManagerEmail,
		LastModifiedBy:       item.LastModifiedBy,
		CreatedAt:            createdAt,
	}
}

var _ ports.ClientRepository = (*ClientRepository)(nil)
