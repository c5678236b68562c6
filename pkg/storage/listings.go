package storage

import (
	"context"

	"github.com/sokoni/marketplace-escrow/pkg/models"
)

// ListingStore defines the interface for managing listings. Listing status is
// never written directly by callers; purchases and the release workflow own
// every status transition after creation.
type ListingStore interface {
	// CreateListing creates a new active listing and returns it.
	CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error)

	// GetListing retrieves a listing by its ID.
	GetListing(ctx context.Context, listingID string) (*models.Listing, error)

	// ListListingsByOwner retrieves all listings posted by a user.
	ListListingsByOwner(ctx context.Context, ownerID string) ([]models.Listing, error)
}
