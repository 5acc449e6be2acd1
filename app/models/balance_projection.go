package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceProjection caches the derived balance of a user for cheap reads.
// It is a disposable read optimization: the ledger entry sequence stays the
// single source of truth, and the reconciliation routine recomputes and
// compares this row against it.
type BalanceProjection struct {
	UserID     uuid.UUID       `gorm:"type:char(36);primaryKey" json:"user_id"`
	Balance    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance"`
	ComputedAt time.Time       `gorm:"not null" json:"computed_at"`
}
