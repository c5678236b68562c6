package storage

import (
	"context"

	"github.com/sokoni/marketplace-escrow/pkg/models"
)

// WalletStore defines the interface for reading and crediting wallets.
// Debits never happen through this interface alone; they are always one leg
// of a larger atomic purchase or refund operation.
type WalletStore interface {
	// GetWallet retrieves a user's wallet by their user ID.
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)

	// GetOrCreateWallet returns the user's wallet, lazily creating an empty
	// one on first use.
	GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error)

	// TopUp credits a wallet from a payment-provider callback. providerRef is
	// an idempotency key: a duplicate delivery leaves the balance unchanged
	// and returns ErrDuplicateWebhook.
	TopUp(ctx context.Context, userID string, amount int64, providerRef string) (*models.Wallet, error)
}
