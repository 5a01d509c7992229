package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vmikell/urlapi/internal/app/models"
	"github.com/vmikell/urlapi/internal/app/storage"
)

type dynamoAPIMock struct{ mock.Mock }

func (m *dynamoAPIMock) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *dynamoAPIMock) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *dynamoAPIMock) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *dynamoAPIMock) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *dynamoAPIMock) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}

func strAttr(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func keyOf(in map[string]types.AttributeValue) string {
	if s, ok := in[models.KeyField].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func TestDynamoStorageGet(t *testing.T) {
	api := new(dynamoAPIMock)
	ds := storage.NewDynamoStorage(api, "urls", 10)

	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return aws.ToString(in.TableName) == "urls" && keyOf(in.Key) == "abc123"
	})).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"urlId":  strAttr("abc123"),
		"target": strAttr("https://example.com"),
		"hits":   &types.AttributeValueMemberN{Value: "3"},
	}}, nil).Once()
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return keyOf(in.Key) == "missing"
	})).Return(&dynamodb.GetItemOutput{}, nil).Once()

	record, err := ds.Get(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, models.Record{"urlId": "abc123", "target": "https://example.com", "hits": 3.0}, record)

	_, err = ds.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	api.AssertExpectations(t)
}

func TestDynamoStoragePut(t *testing.T) {
	api := new(dynamoAPIMock)
	ds := storage.NewDynamoStorage(api, "urls", 10)

	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		target, ok := in.Item["target"].(*types.AttributeValueMemberS)
		return aws.ToString(in.TableName) == "urls" &&
			keyOf(in.Item) == "abc123" && ok && target.Value == "https://example.com"
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()

	err := ds.Put(context.Background(), models.Record{"urlId": "abc123", "target": "https://example.com"})
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestDynamoStorageUpdate(t *testing.T) {
	t.Run("returns updated attributes", func(t *testing.T) {
		api := new(dynamoAPIMock)
		ds := storage.NewDynamoStorage(api, "urls", 10)
		api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			return keyOf(in.Key) == "abc123" &&
				in.ConditionExpression != nil &&
				in.UpdateExpression != nil &&
				in.ReturnValues == types.ReturnValueUpdatedNew
		})).Return(&dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
			"target": strAttr("https://new.com"),
		}}, nil).Once()

		updated, err := ds.Update(context.Background(), "abc123", "target", "https://new.com")
		require.NoError(t, err)
		assert.Equal(t, models.Record{"target": "https://new.com"}, updated)
		api.AssertExpectations(t)
	})

	t.Run("maps failed condition to not found", func(t *testing.T) {
		api := new(dynamoAPIMock)
		ds := storage.NewDynamoStorage(api, "urls", 10)
		api.On("UpdateItem", mock.Anything, mock.Anything).
			Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}).
			Once()

		_, err := ds.Update(context.Background(), "missing", "target", "https://new.com")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("maps validation exception to invalid record", func(t *testing.T) {
		api := new(dynamoAPIMock)
		ds := storage.NewDynamoStorage(api, "urls", 10)
		api.On("UpdateItem", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "ValidationException", Message: "Item size has exceeded the maximum allowed size"}).
			Once()

		_, err := ds.Update(context.Background(), "abc123", "target", "https://new.com")
		assert.ErrorIs(t, err, storage.ErrInvalidRecord)
	})
}

func TestDynamoStorageDelete(t *testing.T) {
	api := new(dynamoAPIMock)
	ds := storage.NewDynamoStorage(api, "urls", 10)
	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return keyOf(in.Key) == "abc123" && in.ReturnValues == types.ReturnValueAllOld
	})).Return(&dynamodb.DeleteItemOutput{Attributes: map[string]types.AttributeValue{
		"urlId":  strAttr("abc123"),
		"target": strAttr("https://example.com"),
	}}, nil).Once()
	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return keyOf(in.Key) == "missing"
	})).Return(&dynamodb.DeleteItemOutput{}, nil).Once()

	prior, err := ds.Delete(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, models.Record{"urlId": "abc123", "target": "https://example.com"}, prior)

	_, err = ds.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	api.AssertExpectations(t)
}

func TestDynamoStorageScan(t *testing.T) {
	api := new(dynamoAPIMock)
	ds := storage.NewDynamoStorage(api, "urls", 2)

	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey == nil && aws.ToInt32(in.Limit) == 2
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			{"urlId": strAttr("a")},
			{"urlId": strAttr("b")},
		},
		LastEvaluatedKey: map[string]types.AttributeValue{"urlId": strAttr("b")},
	}, nil).Once()
	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return keyOf(in.ExclusiveStartKey) == "b"
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{{"urlId": strAttr("c")}},
	}, nil).Once()

	first, err := ds.Scan(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []models.Record{{"urlId": "a"}, {"urlId": "b"}}, first.Records)
	assert.Equal(t, "b", first.NextToken)

	second, err := ds.Scan(context.Background(), first.NextToken)
	require.NoError(t, err)
	assert.Equal(t, []models.Record{{"urlId": "c"}}, second.Records)
	assert.Empty(t, second.NextToken)
	api.AssertExpectations(t)
}

func TestDynamoStorageWrapsTransportErrors(t *testing.T) {
	api := new(dynamoAPIMock)
	ds := storage.NewDynamoStorage(api, "urls", 10)
	connErr := errors.New("dial tcp: connection refused")
	api.On("GetItem", mock.Anything, mock.Anything).Return(nil, connErr).Once()

	_, err := ds.Get(context.Background(), "abc123")
	require.Error(t, err)
	assert.ErrorIs(t, err, connErr)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
	assert.NotErrorIs(t, err, storage.ErrInvalidRecord)
}
