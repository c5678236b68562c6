package notify

import "context"

// Notifier defines the interface for dispatching user notifications.
// Dispatch is fire-and-forget: callers log failures and move on, and no
// financial operation ever depends on delivery succeeding.
type Notifier interface {
	Notify(ctx context.Context, userID, title, details string) error
}

// NoOpNotifier is a notifier that does nothing. It stands in when no queue is
// configured and in tests.
type NoOpNotifier struct{}

// Notify does nothing.
func (n *NoOpNotifier) Notify(ctx context.Context, userID, title, details string) error {
	return nil
}
