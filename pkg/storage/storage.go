package storage

// ApiStore defines the complete set of operations needed by the HTTP API.
// Components should depend on this or on the more granular interfaces rather
// than on Storage.
type ApiStore interface {
	WalletStore
	ListingStore
	PurchaseStore
	NotificationStore
}

// Storage defines the root interface for the entire data layer.
type Storage interface {
	ApiStore
	WebSocketManager
}
