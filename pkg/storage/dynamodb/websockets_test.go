package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sokoni/marketplace-escrow/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestConnections(t *testing.T) {
	t.Run("Add", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(&dynamodb.PutItemOutput{}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		err := store.AddConnection(context.Background(), "conn-1")

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Remove", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("DeleteItem", mock.Anything, mock.Anything).Return(&dynamodb.DeleteItemOutput{}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		err := store.RemoveConnection(context.Background(), "conn-1")

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Get All", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		items := []map[string]types.AttributeValue{
			{"connection_id": &types.AttributeValueMemberS{Value: "conn-1"}},
			{"connection_id": &types.AttributeValueMemberS{Value: "conn-2"}},
		}
		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: items}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		connectionIDs, err := store.GetAllConnections(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, []string{"conn-1", "conn-2"}, connectionIDs)
		mockClient.AssertExpectations(t)
	})

	t.Run("Query Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("index missing"))

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.GetAllConnections(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query connections table")
		mockClient.AssertExpectations(t)
	})
}
