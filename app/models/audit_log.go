package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Audit action codes recorded by the payment engine. Handler-level actions
// (login, user CRUD) reuse the same table with their own codes.
const (
	AuditPaymentConfirmed      = "PAYMENT_CONFIRMED"
	AuditPaymentFailed         = "PAYMENT_FAILED"
	AuditPaymentRefunded       = "PAYMENT_REFUNDED"
	AuditPaymentCanceled       = "PAYMENT_CANCELED"
	AuditPaymentReplayIgnored  = "PAYMENT_REPLAY_IGNORED"
	AuditPaymentAmountMismatch = "PAYMENT_AMOUNT_MISMATCH"
	AuditPaymentNotFound       = "PAYMENT_NOT_FOUND"
	AuditPaymentPending        = "PAYMENT_PENDING"
	AuditPaymentConflict       = "PAYMENT_STATE_CONFLICT"
	AuditWebhookUnsigned       = "WEBHOOK_UNSIGNED_ACCEPTED"
	AuditWebhookMalformed      = "WEBHOOK_MALFORMED"
)

// AuditLogEntry is one recorded sensitive action. Actor is nullable: system
// originated actions (webhook processing) have no human actor. Rows are never
// updated or deleted.
type AuditLogEntry struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ActorID   *uuid.UUID     `gorm:"type:char(36);default:null;index" json:"actor_id,omitempty"`
	Action    string         `gorm:"type:varchar(100);not null;index" json:"action"`
	Entity    string         `gorm:"type:varchar(50);not null;index:idx_audit_entity,priority:1" json:"entity"`
	EntityID  string         `gorm:"type:varchar(191);index:idx_audit_entity,priority:2" json:"entity_id"`
	Metadata  datatypes.JSON `gorm:"type:json" json:"metadata,omitempty"`
	IPAddress string         `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}
