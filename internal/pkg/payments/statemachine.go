package payments

import (
	"fmt"
	"time"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// statusRank orders payment statuses for the replay tie-break:
// CREATED < PENDING < {PAID|FAILED|CANCELED} < REFUNDED. An incoming event
// whose reported status ranks equal-or-behind the current status is a
// harmless replay, not an error.
func statusRank(status string) int {
	switch status {
	case models.PaymentStatusCreated:
		return 0
	case models.PaymentStatusPending:
		return 1
	case models.PaymentStatusPaid, models.PaymentStatusFailed, models.PaymentStatusCanceled:
		return 2
	case models.PaymentStatusRefunded:
		return 3
	default:
		return -1
	}
}

// Transition is the decision the state machine hands back to the controller.
// The controller owns the side effects (ledger append, audit entry).
type Transition struct {
	// Noop is true for accepted replays: the payment was not mutated.
	Noop bool
	// From and To describe the applied status change when Noop is false.
	From string
	To   string
	// CreditLedger is true exactly for PENDING -> PAID.
	CreditLedger bool
	// DebitLedger is true exactly for PAID -> REFUNDED (explicit reversing
	// entry, the original credit row is never touched).
	DebitLedger bool
}

// legal transitions out of each status, ignoring the replay tie-break.
var allowedTransitions = map[string][]string{
	models.PaymentStatusCreated: {models.PaymentStatusPending, models.PaymentStatusCanceled},
	models.PaymentStatusPending: {models.PaymentStatusPaid, models.PaymentStatusFailed, models.PaymentStatusCanceled},
	models.PaymentStatusPaid:    {models.PaymentStatusRefunded},
}

func transitionAllowed(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ApplyProviderEvent advances payment according to event, mutating the
// payment in memory only when the transition is legal. Replayed or
// out-of-order events whose reported status is equal-or-behind the current
// one return a Noop transition and leave the payment untouched; this is the
// primary defense against a stale PENDING notification downgrading a PAID
// payment.
//
// The caller must hold the payment row lock and run inside the webhook
// transaction.
func ApplyProviderEvent(payment *models.Payment, event ProviderEvent) (Transition, error) {
	target := event.ReportedStatus
	if statusRank(target) < 0 {
		return Transition{}, fmt.Errorf("%w: unknown target status %q", ErrIllegalTransition, target)
	}

	if statusRank(target) <= statusRank(payment.Status) {
		return Transition{Noop: true, From: payment.Status, To: payment.Status}, nil
	}

	if !transitionAllowed(payment.Status, target) {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, payment.Status, target)
	}

	// The provider's reported amount is never trusted over the recorded one.
	if target == models.PaymentStatusPaid && !event.Amount.Equal(payment.Amount) {
		return Transition{}, fmt.Errorf("%w: recorded %s, provider reported %s",
			ErrAmountMismatch, payment.Amount.StringFixed(2), event.Amount.StringFixed(2))
	}

	tr := Transition{From: payment.Status, To: target}
	payment.Status = target

	switch target {
	case models.PaymentStatusPaid:
		now := time.Now()
		payment.PaidAt = &now
		tr.CreditLedger = true
	case models.PaymentStatusRefunded:
		tr.DebitLedger = true
	}
	return tr, nil
}
