package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// ErrInvalidAmount rejects ledger entries whose amount is not strictly
// positive at the ledger's two-decimal scale.
var ErrInvalidAmount = errors.New("ledger entry amount must be positive")

// NewEntry validates and builds one ledger entry. The amount must be
// strictly positive and representable at two decimal places; the sign of a
// movement is carried by its type, never by the amount.
func NewEntry(userID uuid.UUID, entryType string, amount decimal.Decimal, concept, reference string) (*models.LedgerEntry, error) {
	if entryType != models.LedgerEntryDebit && entryType != models.LedgerEntryCredit {
		return nil, fmt.Errorf("unknown ledger entry type: %q", entryType)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Round(2)) {
		return nil, fmt.Errorf("%w: %s exceeds two decimal places", ErrInvalidAmount, amount.String())
	}

	return &models.LedgerEntry{
		UserID:    userID,
		Type:      entryType,
		Amount:    amount,
		Concept:   concept,
		Reference: reference,
	}, nil
}

// Sum returns the exact signed sum of the given entries (credits positive,
// debits negative). decimal arithmetic keeps the result drift-free for any
// entry count.
func Sum(entries []models.LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for i := range entries {
		total = total.Add(entries[i].Signed())
	}
	return total
}
