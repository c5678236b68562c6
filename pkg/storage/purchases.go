package storage

import (
	"context"

	"github.com/sokoni/marketplace-escrow/pkg/models"
)

// PurchaseReader defines the interface for reading purchase data.
type PurchaseReader interface {
	// GetPurchase retrieves a purchase by its ID.
	GetPurchase(ctx context.Context, purchaseID string) (*models.Purchase, error)

	// ListPurchasesByUser retrieves all purchases in which the user is either
	// the buyer or the seller.
	ListPurchasesByUser(ctx context.Context, userID string) ([]models.Purchase, error)
}

// PurchaseManager defines the privileged interface that moves money. Both
// operations span multiple documents (wallets, listing, purchase) and must
// commit or abort as a unit.
type PurchaseManager interface {
	// ExecutePurchase executes a buy-now: it debits the buyer, credits the
	// seller's releasable balance, marks the listing sold, and creates a
	// PENDING purchase record — all atomically. If two calls race on the same
	// listing, exactly one succeeds; the loser gets ErrListingUnavailable.
	ExecutePurchase(ctx context.Context, buyerID, listingID string) (*models.Purchase, error)

	// TransitionPurchase advances a purchase through its lifecycle on behalf
	// of actorID. DELIVERED -> COMPLETED releases the escrowed funds to the
	// seller; PENDING -> CANCELLED refunds the buyer and reactivates the
	// listing. Applying the same transition twice fails with
	// ErrInvalidTransition instead of moving money twice.
	TransitionPurchase(ctx context.Context, purchaseID, actorID string, next models.PurchaseStatus) (*models.Purchase, error)
}

// PurchaseStore combines the reader and manager interfaces.
type PurchaseStore interface {
	PurchaseReader
	PurchaseManager
}
