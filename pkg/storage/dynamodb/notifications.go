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
)

const notificationUserIDIndex = "user_id-index"

// CreateNotification stores a notification record. Re-delivery of the same
// notification ID is a no-op so the queue consumer can run at-least-once.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.Id == "" {
		n.Id = uuid.New().String()
	}
	if n.Status == "" {
		n.Status = models.NotificationUnread
	}
	if n.DateCreated.IsZero() {
		n.DateCreated = time.Now()
	}

	notificationAV, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.NotificationsTableName),
		Item:                notificationAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			// Already stored by an earlier delivery.
			return nil
		}
		return fmt.Errorf("failed to create notification in DynamoDB: %w", err)
	}

	return nil
}

// ListNotificationsByUser retrieves a user's notifications, newest first.
func (s *Store) ListNotificationsByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.NotificationsTableName),
		IndexName:              aws.String(notificationUserIDIndex),
		KeyConditionExpression: aws.String("user_id = :userID"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userID": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false), // Sort by range key in descending order
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query for notifications: %w", err)
	}

	var notifications []models.Notification
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &notifications); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notifications: %w", err)
	}

	return notifications, nil
}
