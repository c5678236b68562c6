package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sokoni/marketplace-escrow/pkg/models"
	"github.com/sokoni/marketplace-escrow/pkg/storage"
	"github.com/sokoni/marketplace-escrow/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetWallet(t *testing.T) {
	userID := "test-user"
	wallet := &models.Wallet{UserId: userID, Balance: 100, Releasable: 25, Version: 3}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		walletAV, _ := attributevalue.MarshalMap(wallet)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: walletAV}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		retrievedWallet, err := store.GetWallet(context.Background(), userID)

		assert.NoError(t, err)
		assert.Equal(t, wallet, retrievedWallet)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.GetWallet(context.Background(), userID)

		assert.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrWalletNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.GetWallet(context.Background(), userID)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get wallet from DynamoDB")
		mockClient.AssertExpectations(t)
	})
}

func TestGetOrCreateWallet(t *testing.T) {
	userID := "test-user"

	t.Run("Existing Wallet", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		wallet := &models.Wallet{UserId: userID, Balance: 100, Version: 2}
		walletAV, _ := attributevalue.MarshalMap(wallet)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: walletAV}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		retrievedWallet, err := store.GetOrCreateWallet(context.Background(), userID)

		assert.NoError(t, err)
		assert.Equal(t, wallet, retrievedWallet)
		mockClient.AssertNotCalled(t, "PutItem", mock.Anything, mock.Anything)
		mockClient.AssertExpectations(t)
	})

	t.Run("Creates On First Use", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil).Once()
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(&dynamodb.PutItemOutput{}, nil).Once()

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		wallet, err := store.GetOrCreateWallet(context.Background(), userID)

		assert.NoError(t, err)
		assert.Equal(t, userID, wallet.UserId)
		assert.Equal(t, int64(0), wallet.Balance)
		assert.Equal(t, int64(0), wallet.Releasable)
		assert.Equal(t, int64(1), wallet.Version)
		mockClient.AssertExpectations(t)
	})

	t.Run("Lost Creation Race", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		existing := &models.Wallet{UserId: userID, Balance: 50, Version: 1}
		existingAV, _ := attributevalue.MarshalMap(existing)

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil).Once()
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: existingAV}, nil).Once()

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		wallet, err := store.GetOrCreateWallet(context.Background(), userID)

		assert.NoError(t, err)
		assert.Equal(t, existing, wallet)
		mockClient.AssertExpectations(t)
	})

	t.Run("Create Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil).Once()
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error")).Once()

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.GetOrCreateWallet(context.Background(), userID)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create wallet in DynamoDB")
		mockClient.AssertExpectations(t)
	})
}
