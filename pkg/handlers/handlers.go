package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sokoni/marketplace-escrow/pkg/api"
	"github.com/sokoni/marketplace-escrow/pkg/mapping"
	custommw "github.com/sokoni/marketplace-escrow/pkg/middleware"
	"github.com/sokoni/marketplace-escrow/pkg/models"
	"github.com/sokoni/marketplace-escrow/pkg/notify"
	"github.com/sokoni/marketplace-escrow/pkg/storage"
	"github.com/sokoni/marketplace-escrow/pkg/websockets"
)

// sideEffectTimeout bounds best-effort notification and broadcast sends that
// outlive the request.
const sideEffectTimeout = 5 * time.Second

// ApiHandler implements the HTTP surface of the escrow service. It holds the
// application's dependencies: the storage layer plus the best-effort
// notification and realtime channels.
type ApiHandler struct {
	Store     storage.ApiStore
	Notifier  notify.Notifier
	Publisher websockets.Publisher
}

// NewApiHandler creates a new ApiHandler.
func NewApiHandler(store storage.ApiStore, notifier notify.Notifier, publisher websockets.Publisher) *ApiHandler {
	return &ApiHandler{Store: store, Notifier: notifier, Publisher: publisher}
}

// Routes builds the service router. The payment-provider webhook is the only
// unauthenticated route; everything else requires the trusted user header.
func (h *ApiHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/webhooks/topup", h.HandleTopUpWebhook)

	r.Group(func(r chi.Router) {
		r.Use(custommw.Auth)

		r.Get("/wallets/me", h.GetMyWallet)

		r.Post("/listings", h.CreateListing)
		r.Get("/listings", h.ListMyListings)
		r.Get("/listings/{listingId}", h.GetListingById)

		r.Post("/purchases", h.ExecutePurchase)
		r.Get("/purchases", h.ListMyPurchases)
		r.Get("/purchases/{purchaseId}", h.GetPurchaseById)
		r.Post("/purchases/{purchaseId}/ship", h.ShipPurchase)
		r.Post("/purchases/{purchaseId}/deliver", h.DeliverPurchase)
		r.Post("/purchases/{purchaseId}/complete", h.CompletePurchase)
		r.Post("/purchases/{purchaseId}/cancel", h.CancelPurchase)

		r.Get("/notifications", h.ListMyNotifications)
	})

	return r
}

// GetMyWallet returns the caller's wallet, creating an empty one on first use.
func (h *ApiHandler) GetMyWallet(w http.ResponseWriter, r *http.Request) {
	userID := custommw.UserID(r.Context())

	wallet, err := h.Store.GetOrCreateWallet(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiWallet(wallet))
}

// HandleTopUpWebhook applies a payment-provider credit to a wallet. The
// provider retries deliveries, so duplicates are expected and rejected
// without a second credit.
func (h *ApiHandler) HandleTopUpWebhook(w http.ResponseWriter, r *http.Request) {
	var req api.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.UserId == "" || req.ProviderRef == "" {
		http.Error(w, "user_id and provider_ref are required", http.StatusBadRequest)
		return
	}

	wallet, err := h.Store.TopUp(r.Context(), req.UserId, req.Amount, req.ProviderRef)
	if err != nil {
		writeError(w, err)
		return
	}

	h.notifyAsync(req.UserId, "Wallet topped up", fmt.Sprintf("Your wallet was credited with %d.", req.Amount))
	writeJSON(w, http.StatusOK, mapping.ToApiWallet(wallet))
}

// CreateListing posts a new listing owned by the caller.
func (h *ApiHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var newListing api.NewListing
	if err := json.NewDecoder(r.Body).Decode(&newListing); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	listing, err := h.Store.CreateListing(r.Context(), mapping.ToDomainNewListing(&newListing, custommw.UserID(r.Context())))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapping.ToApiListing(listing))
}

// GetListingById returns a single listing.
func (h *ApiHandler) GetListingById(w http.ResponseWriter, r *http.Request) {
	listing, err := h.Store.GetListing(r.Context(), chi.URLParam(r, "listingId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiListing(listing))
}

// ListMyListings returns the caller's listings.
func (h *ApiHandler) ListMyListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Store.ListListingsByOwner(r.Context(), custommw.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	apiListings := make([]*api.Listing, len(listings))
	for i := range listings {
		apiListings[i] = mapping.ToApiListing(&listings[i])
	}
	writeJSON(w, http.StatusOK, apiListings)
}

// ExecutePurchase handles a buy-now action for the caller.
func (h *ApiHandler) ExecutePurchase(w http.ResponseWriter, r *http.Request) {
	var newPurchase api.NewPurchase
	if err := json.NewDecoder(r.Body).Decode(&newPurchase); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if newPurchase.ListingId == "" {
		http.Error(w, "listing_id is required", http.StatusBadRequest)
		return
	}

	buyerID := custommw.UserID(r.Context())
	purchase, err := h.Store.ExecutePurchase(r.Context(), buyerID, newPurchase.ListingId)
	if err != nil {
		writeError(w, err)
		return
	}

	h.notifyAsync(purchase.BuyerId, "Purchase confirmed", fmt.Sprintf("You bought listing %s for %d. The seller has been asked to ship it.", purchase.ListingId, purchase.Price))
	h.notifyAsync(purchase.SellerId, "Your item sold", fmt.Sprintf("Listing %s sold for %d. Ship it to get paid.", purchase.ListingId, purchase.Price))
	h.publishOrderUpdate(purchase)

	writeJSON(w, http.StatusCreated, mapping.ToApiPurchase(purchase))
}

// GetPurchaseById returns a purchase to one of its two parties. Anyone else
// gets a flat 403 rather than confirmation that the purchase exists.
func (h *ApiHandler) GetPurchaseById(w http.ResponseWriter, r *http.Request) {
	userID := custommw.UserID(r.Context())

	purchase, err := h.Store.GetPurchase(r.Context(), chi.URLParam(r, "purchaseId"))
	if err != nil {
		if errors.Is(err, storage.ErrPurchaseNotFound) {
			writeError(w, storage.ErrUnauthorized)
			return
		}
		writeError(w, err)
		return
	}
	if userID != purchase.BuyerId && userID != purchase.SellerId {
		writeError(w, storage.ErrUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiPurchase(purchase))
}

// ListMyPurchases returns all purchases the caller participates in.
func (h *ApiHandler) ListMyPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.Store.ListPurchasesByUser(r.Context(), custommw.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	apiPurchases := make([]*api.Purchase, len(purchases))
	for i := range purchases {
		apiPurchases[i] = mapping.ToApiPurchase(&purchases[i])
	}
	writeJSON(w, http.StatusOK, apiPurchases)
}

// ShipPurchase marks a purchase shipped (seller only).
func (h *ApiHandler) ShipPurchase(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.PurchaseShipped)
}

// DeliverPurchase marks a purchase delivered (buyer only).
func (h *ApiHandler) DeliverPurchase(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.PurchaseDelivered)
}

// CompletePurchase confirms receipt and releases the escrowed funds to the
// seller (buyer only).
func (h *ApiHandler) CompletePurchase(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.PurchaseCompleted)
}

// CancelPurchase cancels a pending purchase, refunding the buyer and
// restoring the listing.
func (h *ApiHandler) CancelPurchase(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.PurchaseCancelled)
}

func (h *ApiHandler) transition(w http.ResponseWriter, r *http.Request, next models.PurchaseStatus) {
	actorID := custommw.UserID(r.Context())

	purchase, err := h.Store.TransitionPurchase(r.Context(), chi.URLParam(r, "purchaseId"), actorID, next)
	if err != nil {
		writeError(w, err)
		return
	}

	switch next {
	case models.PurchaseShipped:
		h.notifyAsync(purchase.BuyerId, "Order shipped", fmt.Sprintf("The seller shipped your order %s.", purchase.Id))
	case models.PurchaseDelivered:
		h.notifyAsync(purchase.SellerId, "Order delivered", fmt.Sprintf("The buyer confirmed delivery of order %s.", purchase.Id))
	case models.PurchaseCompleted:
		h.notifyAsync(purchase.SellerId, "Funds released", fmt.Sprintf("The buyer confirmed receipt; %d is now available in your wallet.", purchase.Price))
	case models.PurchaseCancelled:
		h.notifyAsync(purchase.BuyerId, "Order cancelled", fmt.Sprintf("Order %s was cancelled and you were refunded %d.", purchase.Id, purchase.Price))
		h.notifyAsync(purchase.SellerId, "Order cancelled", fmt.Sprintf("Order %s was cancelled; the listing is active again.", purchase.Id))
	}
	h.publishOrderUpdate(purchase)

	writeJSON(w, http.StatusOK, mapping.ToApiPurchase(purchase))
}

// ListMyNotifications returns the caller's notifications.
func (h *ApiHandler) ListMyNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.Store.ListNotificationsByUser(r.Context(), custommw.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	apiNotifications := make([]*api.Notification, len(notifications))
	for i := range notifications {
		apiNotifications[i] = mapping.ToApiNotification(&notifications[i])
	}
	writeJSON(w, http.StatusOK, apiNotifications)
}

// notifyAsync dispatches a notification without blocking the response. Send
// failures are logged and swallowed; a purchase never fails because a
// notification did.
func (h *ApiHandler) notifyAsync(userID, title, details string) {
	if h.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := h.Notifier.Notify(ctx, userID, title, details); err != nil {
			slog.Warn("failed to send notification", "user_id", userID, "title", title, "error", err)
		}
	}()
}

// publishOrderUpdate broadcasts a purchase status change to connected
// clients, best-effort.
func (h *ApiHandler) publishOrderUpdate(p *models.Purchase) {
	if h.Publisher == nil {
		return
	}
	message := websockets.Message{
		Type: websockets.MessageTypeOrderUpdate,
		Payload: websockets.OrderUpdatePayload{
			PurchaseID: p.Id,
			ListingID:  p.ListingId,
			BuyerID:    p.BuyerId,
			SellerID:   p.SellerId,
			Status:     string(p.Status),
			Price:      p.Price,
		},
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := h.Publisher.Publish(ctx, message); err != nil {
			slog.Warn("failed to publish order update", "purchase_id", p.Id, "error", err)
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// writeError maps storage errors onto HTTP statuses. Financial errors are
// shown verbatim so the client can surface them to the user.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrInsufficientFunds),
		errors.Is(err, storage.ErrInsufficientReleasable):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, storage.ErrListingUnavailable),
		errors.Is(err, storage.ErrInvalidTransition),
		errors.Is(err, storage.ErrDuplicateWebhook):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, storage.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrUnauthorized):
		http.Error(w, "not permitted", http.StatusForbidden)
	case errors.Is(err, storage.ErrWalletNotFound),
		errors.Is(err, storage.ErrListingNotFound),
		errors.Is(err, storage.ErrPurchaseNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrTransactionTimeout):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case errors.Is(err, storage.ErrStoreUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, fmt.Sprintf("Internal error: %v", err), http.StatusInternalServerError)
	}
}
