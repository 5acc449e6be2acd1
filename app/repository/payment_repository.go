package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a new payment in CREATED status
func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// GetByID retrieves a payment by its ID
func (r *paymentRepository) GetByID(id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByUserID retrieves the most recent payments of a user
func (r *paymentRepository) GetByUserID(userID uuid.UUID, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

// GetByProviderTransactionID resolves a provider transaction reference. Reads
// outside the webhook transaction use this; the engine itself locks the row
// through its own transactional repository.
func (r *paymentRepository) GetByProviderTransactionID(provider, providerTxID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("method = ? AND provider_transaction_id = ?", provider, providerTxID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
