package payments

import "errors"

// Error taxonomy of the webhook engine. Logical errors are terminal for the
// event and require manual reconciliation; everything else is reported to the
// provider as retryable.
var (
	// ErrInvalidSignature rejects a delivery at the boundary; no state changes.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrUnknownProvider means no adapter or configuration exists for the key.
	ErrUnknownProvider = errors.New("unknown payment provider")

	// ErrProviderInactive rejects deliveries for a disabled provider.
	ErrProviderInactive = errors.New("payment provider is inactive")

	// ErrPaymentNotFound means the payload references no known payment.
	ErrPaymentNotFound = errors.New("payment not found for provider transaction")

	// ErrIllegalTransition means the event demands a genuinely conflicting
	// state change (pure replays are not errors, they are no-ops).
	ErrIllegalTransition = errors.New("illegal payment state transition")

	// ErrAmountMismatch means the provider reported an amount different from
	// the payment's recorded amount. Never auto-corrected.
	ErrAmountMismatch = errors.New("provider amount does not match payment amount")
)

// IsTerminalFailure reports whether err is a logical failure that must not be
// retried by redelivery. Anything else (storage down, deadlock, timeout) is
// transient and the provider is asked to redeliver.
func IsTerminalFailure(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrUnknownProvider),
		errors.Is(err, ErrProviderInactive),
		errors.Is(err, ErrPaymentNotFound),
		errors.Is(err, ErrIllegalTransition),
		errors.Is(err, ErrAmountMismatch):
		return true
	default:
		return false
	}
}
