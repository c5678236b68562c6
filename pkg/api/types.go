// Package api defines the wire-level request and response types of the
// escrow service's HTTP surface.
package api

import "time"

// Wallet is the API representation of a user's wallet.
type Wallet struct {
	UserId     string `json:"user_id"`
	Balance    int64  `json:"balance"`
	Releasable int64  `json:"releasable"`
}

// NewListing is the request body for posting a listing.
type NewListing struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
}

// Listing is the API representation of a listing.
type Listing struct {
	Id        string    `json:"id"`
	OwnerId   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Price     int64     `json:"price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPurchase is the request body for a buy-now action.
type NewPurchase struct {
	ListingId string `json:"listing_id"`
}

// Purchase is the API representation of a purchase.
type Purchase struct {
	Id            string    `json:"id"`
	ListingId     string    `json:"listing_id"`
	BuyerId       string    `json:"buyer_id"`
	SellerId      string    `json:"seller_id"`
	Price         int64     `json:"price"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	PurchaseDate  time.Time `json:"purchase_date"`
	LastUpdated   time.Time `json:"last_updated"`
}

// TopUpRequest is the payment provider's webhook body. ProviderRef is the
// provider's idempotency key for the payment.
type TopUpRequest struct {
	UserId      string `json:"user_id"`
	Amount      int64  `json:"amount"`
	ProviderRef string `json:"provider_ref"`
}

// Notification is the API representation of a user notification.
type Notification struct {
	Id          string    `json:"id"`
	Title       string    `json:"title"`
	Details     string    `json:"details"`
	Status      string    `json:"status"`
	DateCreated time.Time `json:"date_created"`
}
