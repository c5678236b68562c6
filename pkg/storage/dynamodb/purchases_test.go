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

func TestGetPurchase(t *testing.T) {
	purchaseID := "purchase-1"
	purchase := &models.Purchase{Id: purchaseID, ListingId: "listing-1", BuyerId: "buyer", SellerId: "seller", Price: 100, Status: models.PurchasePending}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		purchaseAV, _ := attributevalue.MarshalMap(purchase)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: purchaseAV}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		retrievedPurchase, err := store.GetPurchase(context.Background(), purchaseID)

		assert.NoError(t, err)
		assert.Equal(t, purchase, retrievedPurchase)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.GetPurchase(context.Background(), purchaseID)

		assert.ErrorIs(t, err, storage.ErrPurchaseNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.GetPurchase(context.Background(), purchaseID)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get purchase from DynamoDB")
		mockClient.AssertExpectations(t)
	})
}

func TestListPurchasesByUser(t *testing.T) {
	userID := "user-1"
	asBuyer := models.Purchase{Id: "purchase-1", BuyerId: userID, SellerId: "other", Status: models.PurchaseCompleted}
	asSeller := models.Purchase{Id: "purchase-2", BuyerId: "other", SellerId: userID, Status: models.PurchasePending}

	t.Run("Merges Both Sides", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		asBuyerAV, _ := attributevalue.MarshalMap(asBuyer)
		asSellerAV, _ := attributevalue.MarshalMap(asSeller)
		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{asBuyerAV}}, nil).Once()
		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{asSellerAV}}, nil).Once()

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		purchases, err := store.ListPurchasesByUser(context.Background(), userID)

		assert.NoError(t, err)
		assert.Equal(t, []models.Purchase{asBuyer, asSeller}, purchases)
		mockClient.AssertExpectations(t)
	})

	t.Run("No Purchases", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil).Twice()

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		purchases, err := store.ListPurchasesByUser(context.Background(), userID)

		assert.NoError(t, err)
		assert.Empty(t, purchases)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.ListPurchasesByUser(context.Background(), userID)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query for purchases by user ID")
		mockClient.AssertExpectations(t)
	})
}
