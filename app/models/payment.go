package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentMethodPSE   = "PSE"
	PaymentMethodWompi = "WOMPI"
)

const (
	PaymentStatusCreated  = "CREATED"
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusCanceled = "CANCELED"
	PaymentStatusRefunded = "REFUNDED"
)

// Payment is one logical payment attempt by a user. Status is only ever
// mutated through the payments state machine, inside the controller's
// transaction, with the row locked.
type Payment struct {
	ID                    uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	UserID                uuid.UUID       `gorm:"type:char(36);not null;index" json:"user_id"`
	Amount                decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Currency              string          `gorm:"type:varchar(3);not null;default:'COP'" json:"currency"`
	Method                string          `gorm:"type:varchar(20);not null" json:"method" validate:"oneof=PSE WOMPI"`
	Status                string          `gorm:"type:varchar(20);not null;default:'CREATED';index" json:"status"`
	Concept               string          `gorm:"type:varchar(255)" json:"concept"`
	ProviderTransactionID string          `gorm:"type:varchar(191);default:null;index:idx_payments_provider_txid" json:"provider_transaction_id,omitempty"`
	CreatedAt             time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	PaidAt                *time.Time      `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether no further provider event may move this payment,
// with the single exception of PAID -> REFUNDED.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentStatusFailed, PaymentStatusCanceled, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}
