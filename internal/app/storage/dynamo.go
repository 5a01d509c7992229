package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/vmikell/urlapi/internal/app/models"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoStorage
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDB table storage. The table's partition key is models.KeyField (string).
type DynamoStorage struct {
	client    DynamoAPI
	tableName string
	pageSize  int32
}

// NewDynamoClient loads the default AWS config for region. A non-empty
// endpoint overrides the service endpoint (DynamoDB Local, LocalStack).
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NewDynamoStorage
func NewDynamoStorage(client DynamoAPI, tableName string, pageSize int) *DynamoStorage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &DynamoStorage{
		client:    client,
		tableName: tableName,
		pageSize:  int32(pageSize),
	}
}

func (ds *DynamoStorage) Get(ctx context.Context, urlID string) (models.Record, error) {
	out, err := ds.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ds.tableName),
		Key:       itemKey(urlID),
	})
	if err != nil {
		return nil, wrapDynamoErr("get item", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	return unmarshalItem(out.Item)
}

func (ds *DynamoStorage) Put(ctx context.Context, record models.Record) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, err.Error())
	}

	_, err = ds.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(ds.tableName),
		Item:      item,
	})
	if err != nil {
		return wrapDynamoErr("put item", err)
	}

	return nil
}

// Update sets field on an existing item. The attribute_exists condition keeps
// UpdateItem from creating a new item for an unknown urlId.
func (ds *DynamoStorage) Update(ctx context.Context, urlID, field string, value any) (models.Record, error) {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(models.KeyField))).
		WithUpdate(expression.Set(expression.Name(field), expression.Value(value))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecord, err.Error())
	}

	out, err := ds.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(ds.tableName),
		Key:                       itemKey(urlID),
		ConditionExpression:       expr.Condition(),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return nil, ErrNotFound
		}

		return nil, wrapDynamoErr("update item", err)
	}

	return unmarshalItem(out.Attributes)
}

func (ds *DynamoStorage) Delete(ctx context.Context, urlID string) (models.Record, error) {
	out, err := ds.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(ds.tableName),
		Key:          itemKey(urlID),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, wrapDynamoErr("delete item", err)
	}
	if len(out.Attributes) == 0 {
		return nil, ErrNotFound
	}

	return unmarshalItem(out.Attributes)
}

// Scan one page. The token is the urlId of the LastEvaluatedKey.
func (ds *DynamoStorage) Scan(ctx context.Context, token string) (Page, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(ds.tableName),
		Limit:     aws.Int32(ds.pageSize),
	}
	if token != "" {
		input.ExclusiveStartKey = itemKey(token)
	}

	out, err := ds.client.Scan(ctx, input)
	if err != nil {
		return Page{}, wrapDynamoErr("scan", err)
	}

	records := make([]models.Record, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return Page{}, fmt.Errorf("failed to unmarshal scanned items: %w", err)
	}

	page := Page{Records: records}
	if key, ok := out.LastEvaluatedKey[models.KeyField].(*types.AttributeValueMemberS); ok {
		page.NextToken = key.Value
	}

	return page, nil
}

func itemKey(urlID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		models.KeyField: &types.AttributeValueMemberS{Value: urlID},
	}
}

func unmarshalItem(item map[string]types.AttributeValue) (models.Record, error) {
	record := make(models.Record, len(item))
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return record, nil
}

func wrapDynamoErr(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException" {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, apiErr.ErrorMessage())
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
