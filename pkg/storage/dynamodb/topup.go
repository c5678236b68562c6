package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sokoni/marketplace-escrow/pkg/models"
	"github.com/sokoni/marketplace-escrow/pkg/storage"
)

// TopUp credits a wallet from a payment-provider callback. The amount comes
// from an untrusted webhook and is validated here; providerRef is an
// idempotency key, so a duplicate delivery fails with ErrDuplicateWebhook
// without touching the balance.
func (s *Store) TopUp(ctx context.Context, userID string, amount int64, providerRef string) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, storage.ErrInvalidAmount
	}
	if providerRef == "" {
		return nil, fmt.Errorf("top-up requires a provider reference")
	}

	ctx, cancel := s.withTxTimeout(ctx)
	defer cancel()

	amountAV, err := attributevalue.Marshal(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal amount: %w", err)
	}

	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		wallet, err := s.GetOrCreateWallet(ctx, userID)
		if err != nil {
			return nil, err
		}

		receipt := models.TopUpReceipt{
			ProviderRef: providerRef,
			UserId:      userID,
			Amount:      amount,
			AppliedAt:   time.Now(),
		}
		receiptAV, err := attributevalue.MarshalMap(receipt)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal top-up receipt: %w", err)
		}

		input := &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{
				{
					// Operation 1: record the receipt. Fails if this provider
					// reference was already applied.
					Put: &types.Put{
						TableName:           aws.String(s.TopUpsTableName),
						Item:                receiptAV,
						ConditionExpression: aws.String("attribute_not_exists(provider_ref)"),
					},
				},
				{
					// Operation 2: credit the wallet.
					Update: &types.Update{
						TableName:           aws.String(s.WalletsTableName),
						Key:                 map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: userID}},
						UpdateExpression:    aws.String("SET balance = balance + :amount, version = version + :inc"),
						ConditionExpression: aws.String("version = :version"),
						ExpressionAttributeValues: map[string]types.AttributeValue{
							":amount":  amountAV,
							":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", wallet.Version)},
							":inc":     &types.AttributeValueMemberN{Value: "1"},
						},
					},
				},
			},
		}

		_, err = s.Client.TransactWriteItems(ctx, input)
		if err == nil {
			wallet.Balance += amount
			wallet.Version++
			return wallet, nil
		}

		if conditionFailedAt(err, 0) {
			return nil, storage.ErrDuplicateWebhook
		}
		if conditionFailedAt(err, 1) || isTransientConflict(err) {
			// The wallet changed underneath us; re-read and try again.
			backoff(attempt)
			continue
		}
		return nil, asStoreErr(ctx, fmt.Errorf("failed to execute top-up transaction: %w", err))
	}

	return nil, storage.ErrStoreUnavailable
}
