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

func TestCreateListing(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(&dynamodb.PutItemOutput{}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		listing, err := store.CreateListing(context.Background(), &models.Listing{OwnerId: "seller", Title: "Bike", Price: 100})

		assert.NoError(t, err)
		assert.NotEmpty(t, listing.Id)
		assert.Equal(t, models.ListingActive, listing.Status)
		assert.Equal(t, int64(1), listing.Version)
		mockClient.AssertExpectations(t)
	})

	t.Run("Negative Price", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.CreateListing(context.Background(), &models.Listing{OwnerId: "seller", Title: "Bike", Price: -1})

		assert.ErrorIs(t, err, storage.ErrInvalidAmount)
		mockClient.AssertNotCalled(t, "PutItem", mock.Anything, mock.Anything)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.CreateListing(context.Background(), &models.Listing{OwnerId: "seller", Title: "Bike", Price: 100})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create listing in DynamoDB")
		mockClient.AssertExpectations(t)
	})
}

func TestGetListing(t *testing.T) {
	listingID := "listing-1"
	listing := &models.Listing{Id: listingID, OwnerId: "seller", Title: "Bike", Price: 100, Status: models.ListingActive, Version: 1}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		listingAV, _ := attributevalue.MarshalMap(listing)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: listingAV}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		retrievedListing, err := store.GetListing(context.Background(), listingID)

		assert.NoError(t, err)
		assert.Equal(t, listing, retrievedListing)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.GetListing(context.Background(), listingID)

		assert.ErrorIs(t, err, storage.ErrListingNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestListListingsByOwner(t *testing.T) {
	ownerID := "seller"
	listings := []models.Listing{
		{Id: "listing-1", OwnerId: ownerID, Status: models.ListingActive},
		{Id: "listing-2", OwnerId: ownerID, Status: models.ListingSold},
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		var listingsAV []map[string]types.AttributeValue
		for _, l := range listings {
			av, err := attributevalue.MarshalMap(l)
			assert.NoError(t, err)
			listingsAV = append(listingsAV, av)
		}
		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: listingsAV}, nil)

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		retrievedListings, err := store.ListListingsByOwner(context.Background(), ownerID)

		assert.NoError(t, err)
		assert.Equal(t, listings, retrievedListings)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, "wallets", "listings", "purchases", "topups", "notifications", "connections")
		_, err := store.ListListingsByOwner(context.Background(), ownerID)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query for listings by owner")
		mockClient.AssertExpectations(t)
	})
}
