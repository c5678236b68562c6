package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sokoni/marketplace-escrow/pkg/models"
	"github.com/sokoni/marketplace-escrow/pkg/storage"
)

const (
	buyerIDIndex  = "buyer_id-index"
	sellerIDIndex = "seller_id-index"
)

// GetPurchase retrieves a purchase from DynamoDB by its ID.
func (s *Store) GetPurchase(ctx context.Context, purchaseID string) (*models.Purchase, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": purchaseID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal purchase ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.PurchasesTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("purchase with ID %s: %w", purchaseID, storage.ErrPurchaseNotFound)
	}

	var purchase models.Purchase
	if err := attributevalue.UnmarshalMap(result.Item, &purchase); err != nil {
		return nil, fmt.Errorf("failed to unmarshal purchase: %w", err)
	}

	return &purchase, nil
}

// ListPurchasesByUser retrieves all purchases in which the user participates,
// as buyer or as seller.
func (s *Store) ListPurchasesByUser(ctx context.Context, userID string) ([]models.Purchase, error) {
	var purchases []models.Purchase

	for _, q := range []struct {
		index string
		key   string
	}{
		{buyerIDIndex, "buyer_id"},
		{sellerIDIndex, "seller_id"},
	} {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(s.PurchasesTableName),
			IndexName:              aws.String(q.index),
			KeyConditionExpression: aws.String(q.key + " = :userID"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":userID": &types.AttributeValueMemberS{Value: userID},
			},
		}

		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query for purchases by user ID: %w", err)
		}

		var page []models.Purchase
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal purchases: %w", err)
		}
		purchases = append(purchases, page...)
	}

	return purchases, nil
}
