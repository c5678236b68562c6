package dynamodb

import (
	"context"
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

// ExecutePurchase executes a buy-now as one atomic transaction: the listing
// flips ACTIVE -> SOLD, the buyer's balance is debited, the seller's
// releasable balance is credited, and a PENDING purchase record is created.
// Either all four effects commit or none do. When two buyers race on the same
// listing, the status condition on the listing lets exactly one win; the
// loser gets ErrListingUnavailable.
func (s *Store) ExecutePurchase(ctx context.Context, buyerID, listingID string) (*models.Purchase, error) {
	ctx, cancel := s.withTxTimeout(ctx)
	defer cancel()

	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		// 1. Re-read everything inside the attempt; cached state is never trusted.
		listing, err := s.GetListing(ctx, listingID)
		if err != nil {
			return nil, err
		}
		if listing.Status != models.ListingActive {
			return nil, storage.ErrListingUnavailable
		}
		if listing.OwnerId == buyerID {
			// Sellers cannot buy their own listings.
			return nil, storage.ErrUnauthorized
		}

		buyerWallet, err := s.GetOrCreateWallet(ctx, buyerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get buyer's wallet: %w", err)
		}
		if buyerWallet.Balance < listing.Price {
			return nil, storage.ErrInsufficientFunds
		}

		sellerWallet, err := s.GetOrCreateWallet(ctx, listing.OwnerId)
		if err != nil {
			return nil, fmt.Errorf("failed to get seller's wallet: %w", err)
		}

		// 2. Build the purchase record with server-side details.
		now := time.Now()
		purchase := &models.Purchase{
			Id:            uuid.New().String(),
			ListingId:     listing.Id,
			BuyerId:       buyerID,
			SellerId:      listing.OwnerId,
			Price:         listing.Price,
			PaymentMethod: "wallet",
			Status:        models.PurchasePending,
			PurchaseDate:  now,
			LastUpdated:   now,
		}
		purchaseAV, err := attributevalue.MarshalMap(purchase)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal purchase: %w", err)
		}
		priceAV, err := attributevalue.Marshal(listing.Price)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal price: %w", err)
		}
		nowAV, err := attributevalue.Marshal(now)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
		}

		// 3. Construct the TransactWriteItems input.
		input := &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{
				{
					// Operation 1: mark the listing sold. The status condition
					// is the tie-break between concurrent buyers.
					Update: &types.Update{
						TableName:           aws.String(s.ListingsTableName),
						Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: listing.Id}},
						UpdateExpression:    aws.String("SET #status = :sold, version = version + :inc, updated_at = :now"),
						ConditionExpression: aws.String("#status = :active AND version = :version"),
						ExpressionAttributeNames: map[string]string{
							"#status": "status",
						},
						ExpressionAttributeValues: map[string]types.AttributeValue{
							":sold":    &types.AttributeValueMemberS{Value: string(models.ListingSold)},
							":active":  &types.AttributeValueMemberS{Value: string(models.ListingActive)},
							":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", listing.Version)},
							":inc":     &types.AttributeValueMemberN{Value: "1"},
							":now":     nowAV,
						},
					},
				},
				{
					// Operation 2: debit the buyer's wallet.
					Update: &types.Update{
						TableName:           aws.String(s.WalletsTableName),
						Key:                 map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: buyerID}},
						UpdateExpression:    aws.String("SET balance = balance - :price, version = version + :inc"),
						ConditionExpression: aws.String("balance >= :price AND version = :version"),
						ExpressionAttributeValues: map[string]types.AttributeValue{
							":price":   priceAV,
							":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", buyerWallet.Version)},
							":inc":     &types.AttributeValueMemberN{Value: "1"},
						},
					},
				},
				{
					// Operation 3: credit the seller's releasable balance. The
					// funds stay in escrow until the buyer confirms receipt.
					Update: &types.Update{
						TableName:           aws.String(s.WalletsTableName),
						Key:                 map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: listing.OwnerId}},
						UpdateExpression:    aws.String("SET releasable = releasable + :price, version = version + :inc"),
						ConditionExpression: aws.String("version = :version"),
						ExpressionAttributeValues: map[string]types.AttributeValue{
							":price":   priceAV,
							":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", sellerWallet.Version)},
							":inc":     &types.AttributeValueMemberN{Value: "1"},
						},
					},
				},
				{
					// Operation 4: create the purchase record.
					Put: &types.Put{
						TableName:           aws.String(s.PurchasesTableName),
						Item:                purchaseAV,
						ConditionExpression: aws.String("attribute_not_exists(id)"),
					},
				},
			},
		}

		// 4. Execute the transaction.
		_, err = s.Client.TransactWriteItems(ctx, input)
		if err == nil {
			return purchase, nil
		}

		if conditionFailedAt(err, 0) {
			// Another buyer won the race, or the seller pulled the listing.
			return nil, storage.ErrListingUnavailable
		}
		if conditionFailedAt(err, 1) {
			// Either a concurrent spend drained the balance or the version is
			// stale; a fresh read decides which.
			current, rerr := s.GetWallet(ctx, buyerID)
			if rerr == nil && current.Balance < listing.Price {
				return nil, storage.ErrInsufficientFunds
			}
			backoff(attempt)
			continue
		}
		if conditionFailedAt(err, 2) || isTransientConflict(err) {
			backoff(attempt)
			continue
		}
		return nil, asStoreErr(ctx, fmt.Errorf("failed to execute purchase transaction: %w", err))
	}

	return nil, storage.ErrStoreUnavailable
}
