package repository

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// ledgerRepository implements the LedgerRepository interface
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository instance
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// ListByUser lists the most recent ledger entries for a user
func (r *ledgerRepository) ListByUser(userID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.LedgerEntry
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// SumBalance derives the current balance of a user as the signed sum over all
// ledger entries. The DECIMAL column keeps the sum exact; the result is
// scanned as a string and parsed, never through float64.
func (r *ledgerRepository) SumBalance(userID uuid.UUID) (decimal.Decimal, error) {
	var raw *string
	err := r.db.Model(&models.LedgerEntry{}).
		Select("SUM(CASE WHEN type = ? THEN amount ELSE -amount END)", models.LedgerEntryCredit).
		Where("user_id = ?", userID).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

// CountByReference counts entries pointing at a reference (e.g. a payment ID)
func (r *ledgerRepository) CountByReference(reference string) (int64, error) {
	var count int64
	err := r.db.Model(&models.LedgerEntry{}).Where("reference = ?", reference).Count(&count).Error
	return count, err
}
