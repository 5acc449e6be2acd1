package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProviderEvent is the canonical, provider-neutral shape of one webhook
// delivery after adapter parsing. Amounts are decimal; adapters that receive
// cents convert before handing the event over.
type ProviderEvent struct {
	Provider            string
	ProviderEventID     string
	ProviderTransaction string
	ReportedStatus      string
	Amount              decimal.Decimal
	Currency            string
}

// Outcome classifies what HandleWebhook did with a delivery.
type Outcome string

const (
	// OutcomeProcessed means the event advanced a payment and side effects ran.
	OutcomeProcessed Outcome = "processed"
	// OutcomeDuplicate means the event row already existed in PROCESSED state;
	// nothing ran (idempotency fast path).
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeReplay means the reported status was equal-or-behind the current
	// payment status; accepted as a no-op.
	OutcomeReplay Outcome = "replay_noop"
	// OutcomeFailed means the event was terminally rejected and marked FAILED.
	OutcomeFailed Outcome = "failed"
)

// Result is returned to the transport layer. Both processed and duplicate
// outcomes map to a success acknowledgement towards the provider.
type Result struct {
	Outcome   Outcome
	EventID   uint
	PaymentID uuid.UUID
	UserID    uuid.UUID
	NewStatus string
	Err       error
}

// Ack reports whether the provider should treat the delivery as settled.
func (r Result) Ack() bool {
	return r.Outcome == OutcomeProcessed || r.Outcome == OutcomeDuplicate || r.Outcome == OutcomeReplay
}
