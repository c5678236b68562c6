package storage

import (
	"context"

	"github.com/sokoni/marketplace-escrow/pkg/models"
)

// NotificationStore defines the interface for persisting user notifications.
type NotificationStore interface {
	// CreateNotification stores a notification. Storing the same notification
	// ID twice is a no-op, so queue redeliveries are safe.
	CreateNotification(ctx context.Context, n *models.Notification) error

	// ListNotificationsByUser retrieves a user's notifications, newest first.
	ListNotificationsByUser(ctx context.Context, userID string) ([]models.Notification, error)
}
