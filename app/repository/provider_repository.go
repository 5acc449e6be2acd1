package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// providerRepository implements the ProviderRepository interface
type providerRepository struct {
	db *gorm.DB
}

// NewProviderRepository creates a new payment provider repository instance
func NewProviderRepository(db *gorm.DB) ProviderRepository {
	return &providerRepository{db: db}
}

// GetByKey retrieves a provider configuration by its key (e.g. "PSE")
func (r *providerRepository) GetByKey(key string) (*models.PaymentProvider, error) {
	var provider models.PaymentProvider
	err := r.db.Where("`key` = ?", strings.ToUpper(strings.TrimSpace(key))).First(&provider).Error
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

// ListActive lists all active provider configurations
func (r *providerRepository) ListActive() ([]models.PaymentProvider, error) {
	var providers []models.PaymentProvider
	err := r.db.Where("is_active = ?", true).Find(&providers).Error
	return providers, err
}

// Save upserts a provider configuration
func (r *providerRepository) Save(provider *models.PaymentProvider) error {
	return r.db.Save(provider).Error
}
