package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sokoni/marketplace-escrow/pkg/models"
	"github.com/sokoni/marketplace-escrow/pkg/storage"
	"github.com/sokoni/marketplace-escrow/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// cancelledAt builds a cancelled-transaction error whose i-th item failed its
// condition expression.
func cancelledAt(size, i int) *types.TransactionCanceledException {
	reasons := make([]types.CancellationReason, size)
	for j := range reasons {
		reasons[j] = types.CancellationReason{Code: aws.String("None")}
	}
	reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}

func TestTopUp(t *testing.T) {
	userID := "test-user"
	providerRef := "provider-ref-123"

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		wallet := &models.Wallet{UserId: userID, Balance: 100, Version: 1}
		walletAV, _ := attributevalue.MarshalMap(wallet)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: walletAV}, nil).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.AnythingOfType("*dynamodb.TransactWriteItemsInput")).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		credited, err := store.TopUp(context.Background(), userID, 50, providerRef)

		assert.NoError(t, err)
		assert.Equal(t, int64(150), credited.Balance)
		assert.Equal(t, int64(2), credited.Version)
		mockClient.AssertExpectations(t)
	})

	t.Run("Invalid Amount", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.TopUp(context.Background(), userID, 0, providerRef)

		assert.ErrorIs(t, err, storage.ErrInvalidAmount)
		mockClient.AssertExpectations(t)
	})

	t.Run("Missing Provider Ref", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.TopUp(context.Background(), userID, 50, "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "provider reference")
		mockClient.AssertExpectations(t)
	})

	t.Run("Duplicate Webhook", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		wallet := &models.Wallet{UserId: userID, Balance: 100, Version: 1}
		walletAV, _ := attributevalue.MarshalMap(wallet)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: walletAV}, nil).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelledAt(2, 0)).Once()

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.TopUp(context.Background(), userID, 50, providerRef)

		assert.ErrorIs(t, err, storage.ErrDuplicateWebhook)
		mockClient.AssertExpectations(t)
	})

	t.Run("Version Conflict Then Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		stale := &models.Wallet{UserId: userID, Balance: 100, Version: 1}
		staleAV, _ := attributevalue.MarshalMap(stale)
		fresh := &models.Wallet{UserId: userID, Balance: 120, Version: 2}
		freshAV, _ := attributevalue.MarshalMap(fresh)

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: staleAV}, nil).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelledAt(2, 1)).Once()
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: freshAV}, nil).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		credited, err := store.TopUp(context.Background(), userID, 50, providerRef)

		assert.NoError(t, err)
		assert.Equal(t, int64(170), credited.Balance)
		assert.Equal(t, int64(3), credited.Version)
		mockClient.AssertExpectations(t)
	})

	t.Run("Retries Exhausted", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		wallet := &models.Wallet{UserId: userID, Balance: 100, Version: 1}
		walletAV, _ := attributevalue.MarshalMap(wallet)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: walletAV}, nil)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelledAt(2, 1))

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.TopUp(context.Background(), userID, 50, providerRef)

		assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
		mockClient.AssertNumberOfCalls(t, "TransactWriteItems", maxTxAttempts)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		wallet := &models.Wallet{UserId: userID, Balance: 100, Version: 1}
		walletAV, _ := attributevalue.MarshalMap(wallet)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: walletAV}, nil).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb is down")).Once()

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.TopUp(context.Background(), userID, 50, providerRef)

		assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
		mockClient.AssertExpectations(t)
	})
}
