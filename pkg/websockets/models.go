package websockets

// MessageType defines the type of a WebSocket message.
type MessageType string

const (
	// MessageTypeOrderUpdate is for messages that report a purchase status change.
	MessageTypeOrderUpdate MessageType = "orderUpdate"
)

// Message represents a generic WebSocket message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// OrderUpdatePayload is the payload for an orderUpdate message.
type OrderUpdatePayload struct {
	PurchaseID string `json:"purchase_id"`
	ListingID  string `json:"listing_id"`
	BuyerID    string `json:"buyer_id"`
	SellerID   string `json:"seller_id"`
	Status     string `json:"status"`
	Price      int64  `json:"price"`
}
