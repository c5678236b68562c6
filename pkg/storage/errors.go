package storage

import "errors"

// ErrInsufficientFunds is returned when a wallet's spendable balance cannot cover a purchase.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInsufficientReleasable is returned when a wallet's escrowed balance cannot cover a release or refund.
var ErrInsufficientReleasable = errors.New("insufficient releasable balance")

// ErrListingUnavailable is returned when a listing is not (or no longer) open for purchase.
var ErrListingUnavailable = errors.New("listing is no longer available")

// ErrInvalidTransition is returned when a purchase transition is attempted from a non-adjacent state.
// A retried transition whose effect already applied lands here rather than applying twice.
var ErrInvalidTransition = errors.New("invalid purchase status transition")

// ErrUnauthorized is returned when the acting user is not permitted to perform the operation.
var ErrUnauthorized = errors.New("not permitted")

// ErrStoreUnavailable is returned when the backing store fails or contention persists past the retry bound.
var ErrStoreUnavailable = errors.New("storage unavailable")

// ErrTransactionTimeout is returned when an atomic operation does not commit within its deadline.
var ErrTransactionTimeout = errors.New("transaction timed out")

// ErrDuplicateWebhook is returned when a top-up carries a provider reference that was already applied.
var ErrDuplicateWebhook = errors.New("duplicate top-up webhook")

// ErrInvalidAmount is returned when a caller supplies a non-positive amount.
var ErrInvalidAmount = errors.New("amount must be positive")

var ErrWalletNotFound = errors.New("wallet not found")
var ErrListingNotFound = errors.New("listing not found")
var ErrPurchaseNotFound = errors.New("purchase not found")
