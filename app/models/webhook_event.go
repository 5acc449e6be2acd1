package models

import "time"

const (
	WebhookEventReceived  = "RECEIVED"
	WebhookEventProcessed = "PROCESSED"
	WebhookEventFailed    = "FAILED"
)

// WebhookEvent stores one provider delivery attempt with deduplication
// metadata. The unique index over (provider, provider_event_id) is the sole
// concurrency anchor for idempotent processing: racing inserts for the same
// delivery collapse onto one row at the storage layer.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_webhook_events_provider_event,unique,priority:1;index" json:"provider"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;index:ux_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	RawPayload      []byte     `gorm:"type:mediumblob;not null" json:"-"`
	Status          string     `gorm:"type:varchar(20);not null;default:'RECEIVED';index" json:"status"`
	LastError       string     `gorm:"type:text" json:"last_error,omitempty"`
	ReceivedAt      time.Time  `gorm:"autoCreateTime;index" json:"received_at"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
}

// IsSettled reports whether the event already reached a terminal bookkeeping
// status. Settled events are never reprocessed.
func (e *WebhookEvent) IsSettled() bool {
	return e.Status == WebhookEventProcessed || e.Status == WebhookEventFailed
}
