package models

import (
	"time"
)

// ListingStatus defines the lifecycle states of a listing.
type ListingStatus string

const (
	ListingActive      ListingStatus = "ACTIVE"
	ListingUnderDeal   ListingStatus = "UNDER_DEAL"
	ListingSold        ListingStatus = "SOLD"
	ListingCompleted   ListingStatus = "COMPLETED"
	ListingUnavailable ListingStatus = "UNAVAILABLE"
)

// PurchaseStatus defines the possible states of a purchase.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "PENDING"
	PurchaseShipped   PurchaseStatus = "SHIPPED"
	PurchaseDelivered PurchaseStatus = "DELIVERED"
	PurchaseCompleted PurchaseStatus = "COMPLETED"
	PurchaseCancelled PurchaseStatus = "CANCELLED"
)

// purchaseTransitions maps each purchase status to the statuses directly
// reachable from it. COMPLETED and CANCELLED are terminal.
var purchaseTransitions = map[PurchaseStatus][]PurchaseStatus{
	PurchasePending:   {PurchaseShipped, PurchaseCancelled},
	PurchaseShipped:   {PurchaseDelivered},
	PurchaseDelivered: {PurchaseCompleted},
}

// CanTransitionTo reports whether next is directly reachable from s.
func (s PurchaseStatus) CanTransitionTo(next PurchaseStatus) bool {
	for _, allowed := range purchaseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s PurchaseStatus) Terminal() bool {
	return len(purchaseTransitions[s]) == 0
}

// Wallet represents the internal domain model for a user's wallet.
// Balance is spendable; Releasable holds escrowed sale proceeds until the
// buyer confirms receipt. Amounts are in minor currency units.
type Wallet struct {
	UserId     string    `json:"user_id" dynamodbav:"user_id"`
	Balance    int64     `json:"balance" dynamodbav:"balance"`
	Releasable int64     `json:"releasable" dynamodbav:"releasable"`
	Version    int64     `json:"version" dynamodbav:"version"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Listing represents a sellable item posted by a user.
type Listing struct {
	Id        string        `dynamodbav:"id"`
	OwnerId   string        `dynamodbav:"owner_id"`
	Title     string        `dynamodbav:"title"`
	Price     int64         `dynamodbav:"price"`
	Status    ListingStatus `dynamodbav:"status"`
	Version   int64         `dynamodbav:"version"`
	CreatedAt time.Time     `dynamodbav:"created_at"`
	UpdatedAt time.Time     `dynamodbav:"updated_at"`
}

// Purchase records a successful buy of a listing. Price is copied from the
// listing at purchase time and never changes afterwards.
type Purchase struct {
	Id            string         `dynamodbav:"id"`
	ListingId     string         `dynamodbav:"listing_id"`
	BuyerId       string         `dynamodbav:"buyer_id"`
	SellerId      string         `dynamodbav:"seller_id"`
	Price         int64          `dynamodbav:"price"`
	PaymentMethod string         `dynamodbav:"payment_method"`
	Status        PurchaseStatus `dynamodbav:"status"`
	PurchaseDate  time.Time      `dynamodbav:"purchase_date"`
	LastUpdated   time.Time      `dynamodbav:"last_updated"`
}

// TopUpReceipt records an applied payment-provider credit. ProviderRef is the
// provider's idempotency key: one receipt exists per delivered webhook, so a
// retried delivery cannot credit the wallet twice.
type TopUpReceipt struct {
	ProviderRef string    `dynamodbav:"provider_ref"`
	UserId      string    `dynamodbav:"user_id"`
	Amount      int64     `dynamodbav:"amount"`
	AppliedAt   time.Time `dynamodbav:"applied_at"`
}

// NotificationStatus defines the read state of a notification.
type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "UNREAD"
	NotificationRead   NotificationStatus = "READ"
)

// Notification is a fire-and-forget record describing an event shown to a
// user. Delivery is best-effort; nothing in the purchase flow depends on it.
type Notification struct {
	Id          string             `json:"id" dynamodbav:"id"`
	UserId      string             `json:"user_id" dynamodbav:"user_id"`
	Title       string             `json:"title" dynamodbav:"title"`
	Details     string             `json:"details" dynamodbav:"details"`
	Status      NotificationStatus `json:"status" dynamodbav:"status"`
	DateCreated time.Time          `json:"date_created" dynamodbav:"date_created"`
}
