package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	LedgerEntryDebit  = "DEBIT"
	LedgerEntryCredit = "CREDIT"
)

// LedgerEntry is one signed movement against a user's balance. Rows are
// append-only: no update or delete path exists anywhere in the codebase, and
// the current balance is always the signed sum over all entries of a user.
type LedgerEntry struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID       `gorm:"type:char(36);not null;index" json:"user_id"`
	Type      string          `gorm:"type:varchar(10);not null" json:"type" validate:"oneof=DEBIT CREDIT"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Concept   string          `gorm:"type:varchar(255);not null" json:"concept"`
	Reference string          `gorm:"type:varchar(191);not null;index" json:"reference"`
	CreatedAt time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Signed returns the entry amount with its sign applied (credits positive,
// debits negative).
func (e *LedgerEntry) Signed() decimal.Decimal {
	if e.Type == LedgerEntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
