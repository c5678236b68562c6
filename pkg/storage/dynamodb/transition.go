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
	"github.com/sokoni/marketplace-escrow/pkg/models"
	"github.com/sokoni/marketplace-escrow/pkg/storage"
)

// errRetryTransition signals that a transition hit optimistic-concurrency
// contention and should be re-read and re-applied.
var errRetryTransition = errors.New("transition conflicted, retry")

// TransitionPurchase advances a purchase through its lifecycle on behalf of
// actorID. Every write carries a condition on the purchase's current status,
// so a client retry of an already-applied transition fails with
// ErrInvalidTransition instead of releasing or refunding funds twice.
func (s *Store) TransitionPurchase(ctx context.Context, purchaseID, actorID string, next models.PurchaseStatus) (*models.Purchase, error) {
	ctx, cancel := s.withTxTimeout(ctx)
	defer cancel()

	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		purchase, err := s.GetPurchase(ctx, purchaseID)
		if err != nil {
			return nil, err
		}

		if err := authorizeTransition(purchase, actorID, next); err != nil {
			return nil, err
		}
		if !purchase.Status.CanTransitionTo(next) {
			return nil, storage.ErrInvalidTransition
		}

		switch next {
		case models.PurchaseShipped, models.PurchaseDelivered:
			err = s.updatePurchaseStatus(ctx, purchase, next)
		case models.PurchaseCompleted:
			err = s.completePurchase(ctx, purchase)
		case models.PurchaseCancelled:
			err = s.cancelPurchase(ctx, purchase)
		default:
			return nil, storage.ErrInvalidTransition
		}

		if err == nil {
			purchase.Status = next
			purchase.LastUpdated = time.Now()
			return purchase, nil
		}
		if errors.Is(err, errRetryTransition) {
			backoff(attempt)
			continue
		}
		return nil, err
	}

	return nil, storage.ErrStoreUnavailable
}

// authorizeTransition enforces which party may request each transition. The
// seller ships; the buyer confirms delivery and receipt; either party may
// cancel before shipment.
func authorizeTransition(p *models.Purchase, actorID string, next models.PurchaseStatus) error {
	switch next {
	case models.PurchaseShipped:
		if actorID != p.SellerId {
			return storage.ErrUnauthorized
		}
	case models.PurchaseDelivered, models.PurchaseCompleted:
		if actorID != p.BuyerId {
			return storage.ErrUnauthorized
		}
	case models.PurchaseCancelled:
		if actorID != p.BuyerId && actorID != p.SellerId {
			return storage.ErrUnauthorized
		}
	}
	return nil
}

// updatePurchaseStatus applies a transition that moves no money. The
// condition on the source status makes it safe against concurrent or
// repeated requests.
func (s *Store) updatePurchaseStatus(ctx context.Context, p *models.Purchase, next models.PurchaseStatus) error {
	nowAV, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.PurchasesTableName),
		Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: p.Id}},
		UpdateExpression:    aws.String("SET #status = :next, last_updated = :now"),
		ConditionExpression: aws.String("#status = :current"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next":    &types.AttributeValueMemberS{Value: string(next)},
			":current": &types.AttributeValueMemberS{Value: string(p.Status)},
			":now":     nowAV,
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			// The purchase already moved on.
			return storage.ErrInvalidTransition
		}
		return asStoreErr(ctx, fmt.Errorf("failed to update purchase status: %w", err))
	}

	return nil
}

// completePurchase finalizes a DELIVERED purchase: the seller's releasable
// balance moves to their spendable balance atomically with the purchase and
// listing status updates. The releasable guard makes a double release
// impossible even if the status condition were somehow bypassed.
func (s *Store) completePurchase(ctx context.Context, p *models.Purchase) error {
	sellerWallet, err := s.GetWallet(ctx, p.SellerId)
	if err != nil {
		return fmt.Errorf("failed to get seller's wallet for release: %w", err)
	}
	if sellerWallet.Releasable < p.Price {
		return storage.ErrInsufficientReleasable
	}

	priceAV, err := attributevalue.Marshal(p.Price)
	if err != nil {
		return fmt.Errorf("failed to marshal price for release: %w", err)
	}
	nowAV, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp for release: %w", err)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 1: complete the purchase.
				Update: &types.Update{
					TableName:           aws.String(s.PurchasesTableName),
					Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: p.Id}},
					UpdateExpression:    aws.String("SET #status = :completed, last_updated = :now"),
					ConditionExpression: aws.String("#status = :delivered"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":completed": &types.AttributeValueMemberS{Value: string(models.PurchaseCompleted)},
						":delivered": &types.AttributeValueMemberS{Value: string(models.PurchaseDelivered)},
						":now":       nowAV,
					},
				},
			},
			{
				// Operation 2: release the escrowed funds to the seller.
				Update: &types.Update{
					TableName:           aws.String(s.WalletsTableName),
					Key:                 map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: p.SellerId}},
					UpdateExpression:    aws.String("SET releasable = releasable - :price, balance = balance + :price, version = version + :inc"),
					ConditionExpression: aws.String("releasable >= :price AND version = :version"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":price":   priceAV,
						":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", sellerWallet.Version)},
						":inc":     &types.AttributeValueMemberN{Value: "1"},
					},
				},
			},
			{
				// Operation 3: close out the listing.
				Update: &types.Update{
					TableName:           aws.String(s.ListingsTableName),
					Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: p.ListingId}},
					UpdateExpression:    aws.String("SET #status = :completed, version = version + :inc, updated_at = :now"),
					ConditionExpression: aws.String("attribute_exists(id)"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":completed": &types.AttributeValueMemberS{Value: string(models.ListingCompleted)},
						":inc":       &types.AttributeValueMemberN{Value: "1"},
						":now":       nowAV,
					},
				},
			},
		},
	}

	_, err = s.Client.TransactWriteItems(ctx, input)
	if err == nil {
		return nil
	}

	if conditionFailedAt(err, 0) {
		// A concurrent or repeated request already completed the purchase.
		return storage.ErrInvalidTransition
	}
	if conditionFailedAt(err, 1) {
		current, rerr := s.GetWallet(ctx, p.SellerId)
		if rerr == nil && current.Releasable < p.Price {
			return storage.ErrInsufficientReleasable
		}
		return errRetryTransition
	}
	if isTransientConflict(err) {
		return errRetryTransition
	}
	return asStoreErr(ctx, fmt.Errorf("failed to execute release transaction: %w", err))
}

// cancelPurchase undoes a PENDING purchase with a compensating transaction:
// the seller's escrowed hold is debited, the buyer is refunded in full, and
// the listing returns to ACTIVE.
func (s *Store) cancelPurchase(ctx context.Context, p *models.Purchase) error {
	sellerWallet, err := s.GetWallet(ctx, p.SellerId)
	if err != nil {
		return fmt.Errorf("failed to get seller's wallet for refund: %w", err)
	}
	if sellerWallet.Releasable < p.Price {
		return storage.ErrInsufficientReleasable
	}
	buyerWallet, err := s.GetWallet(ctx, p.BuyerId)
	if err != nil {
		return fmt.Errorf("failed to get buyer's wallet for refund: %w", err)
	}

	priceAV, err := attributevalue.Marshal(p.Price)
	if err != nil {
		return fmt.Errorf("failed to marshal price for refund: %w", err)
	}
	nowAV, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp for refund: %w", err)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 1: cancel the purchase.
				Update: &types.Update{
					TableName:           aws.String(s.PurchasesTableName),
					Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: p.Id}},
					UpdateExpression:    aws.String("SET #status = :cancelled, last_updated = :now"),
					ConditionExpression: aws.String("#status = :pending"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":cancelled": &types.AttributeValueMemberS{Value: string(models.PurchaseCancelled)},
						":pending":   &types.AttributeValueMemberS{Value: string(models.PurchasePending)},
						":now":       nowAV,
					},
				},
			},
			{
				// Operation 2: restore the listing for other buyers.
				Update: &types.Update{
					TableName:           aws.String(s.ListingsTableName),
					Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: p.ListingId}},
					UpdateExpression:    aws.String("SET #status = :active, version = version + :inc, updated_at = :now"),
					ConditionExpression: aws.String("#status = :sold"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":active": &types.AttributeValueMemberS{Value: string(models.ListingActive)},
						":sold":   &types.AttributeValueMemberS{Value: string(models.ListingSold)},
						":inc":    &types.AttributeValueMemberN{Value: "1"},
						":now":    nowAV,
					},
				},
			},
			{
				// Operation 3: release the seller's hold.
				Update: &types.Update{
					TableName:           aws.String(s.WalletsTableName),
					Key:                 map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: p.SellerId}},
					UpdateExpression:    aws.String("SET releasable = releasable - :price, version = version + :inc"),
					ConditionExpression: aws.String("releasable >= :price AND version = :version"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":price":   priceAV,
						":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", sellerWallet.Version)},
						":inc":     &types.AttributeValueMemberN{Value: "1"},
					},
				},
			},
			{
				// Operation 4: refund the buyer.
				Update: &types.Update{
					TableName:           aws.String(s.WalletsTableName),
					Key:                 map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: p.BuyerId}},
					UpdateExpression:    aws.String("SET balance = balance + :price, version = version + :inc"),
					ConditionExpression: aws.String("version = :version"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":price":   priceAV,
						":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", buyerWallet.Version)},
						":inc":     &types.AttributeValueMemberN{Value: "1"},
					},
				},
			},
		},
	}

	_, err = s.Client.TransactWriteItems(ctx, input)
	if err == nil {
		return nil
	}

	if conditionFailedAt(err, 0) || conditionFailedAt(err, 1) {
		// The deal state moved on; cancellation no longer applies.
		return storage.ErrInvalidTransition
	}
	if conditionFailedAt(err, 2) {
		current, rerr := s.GetWallet(ctx, p.SellerId)
		if rerr == nil && current.Releasable < p.Price {
			return storage.ErrInsufficientReleasable
		}
		return errRetryTransition
	}
	if conditionFailedAt(err, 3) || isTransientConflict(err) {
		return errRetryTransition
	}
	return asStoreErr(ctx, fmt.Errorf("failed to execute refund transaction: %w", err))
}
