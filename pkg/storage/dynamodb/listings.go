package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/sokoni/marketplace-escrow/pkg/models"
	"github.com/sokoni/marketplace-escrow/pkg/storage"
)

const ownerIDIndex = "owner_id-index"

// CreateListing creates a new active listing record in DynamoDB.
func (s *Store) CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if listing.Price < 0 {
		return nil, storage.ErrInvalidAmount
	}

	now := time.Now()
	listing.Id = uuid.New().String()
	listing.Status = models.ListingActive
	listing.Version = 1
	listing.CreatedAt = now
	listing.UpdatedAt = now

	listingAV, err := attributevalue.MarshalMap(listing)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal listing: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.ListingsTableName),
		Item:                listingAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, fmt.Errorf("listing with ID %s already exists", listing.Id)
		}
		return nil, fmt.Errorf("failed to create listing in DynamoDB: %w", err)
	}

	return listing, nil
}

// GetListing retrieves a listing from DynamoDB by its ID.
func (s *Store) GetListing(ctx context.Context, listingID string) (*models.Listing, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": listingID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal listing ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.ListingsTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("listing with ID %s: %w", listingID, storage.ErrListingNotFound)
	}

	var listing models.Listing
	if err := attributevalue.UnmarshalMap(result.Item, &listing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listing: %w", err)
	}

	return &listing, nil
}

// ListListingsByOwner retrieves all listings posted by a user.
func (s *Store) ListListingsByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.ListingsTableName),
		IndexName:              aws.String(ownerIDIndex),
		KeyConditionExpression: aws.String("owner_id = :ownerID"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ownerID": &types.AttributeValueMemberS{Value: ownerID},
		},
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query for listings by owner: %w", err)
	}

	var listings []models.Listing
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &listings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listings: %w", err)
	}

	return listings, nil
}
