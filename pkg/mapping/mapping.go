package mapping

import (
	"github.com/sokoni/marketplace-escrow/pkg/api"
	"github.com/sokoni/marketplace-escrow/pkg/models"
)

// ToApiWallet converts a domain Wallet model to an API Wallet model.
func ToApiWallet(wallet *models.Wallet) *api.Wallet {
	return &api.Wallet{
		UserId:     wallet.UserId,
		Balance:    wallet.Balance,
		Releasable: wallet.Releasable,
	}
}

// ToDomainNewListing converts an API NewListing into a domain Listing owned
// by ownerID. Server-side fields are filled in by the storage layer.
func ToDomainNewListing(newListing *api.NewListing, ownerID string) *models.Listing {
	return &models.Listing{
		OwnerId: ownerID,
		Title:   newListing.Title,
		Price:   newListing.Price,
	}
}

// ToApiListing converts a domain Listing model to an API Listing model.
func ToApiListing(listing *models.Listing) *api.Listing {
	return &api.Listing{
		Id:        listing.Id,
		OwnerId:   listing.OwnerId,
		Title:     listing.Title,
		Price:     listing.Price,
		Status:    string(listing.Status),
		CreatedAt: listing.CreatedAt,
	}
}

// ToApiPurchase converts a domain Purchase model to an API Purchase model.
func ToApiPurchase(purchase *models.Purchase) *api.Purchase {
	return &api.Purchase{
		Id:            purchase.Id,
		ListingId:     purchase.ListingId,
		BuyerId:       purchase.BuyerId,
		SellerId:      purchase.SellerId,
		Price:         purchase.Price,
		PaymentMethod: purchase.PaymentMethod,
		Status:        string(purchase.Status),
		PurchaseDate:  purchase.PurchaseDate,
		LastUpdated:   purchase.LastUpdated,
	}
}

// ToApiNotification converts a domain Notification model to an API Notification model.
func ToApiNotification(n *models.Notification) *api.Notification {
	return &api.Notification{
		Id:          n.Id,
		Title:       n.Title,
		Details:     n.Details,
		Status:      string(n.Status),
		DateCreated: n.DateCreated,
	}
}
