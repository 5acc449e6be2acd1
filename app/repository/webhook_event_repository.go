package repository

import (
	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// webhookEventRepository implements the WebhookEventRepository interface
type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new webhook event repository instance
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// GetByID retrieves a webhook event by its ID
func (r *webhookEventRepository) GetByID(id uint) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListByStatus lists events with a given status, newest first. Operators use
// this with status=FAILED to inspect events that need manual reconciliation.
func (r *webhookEventRepository) ListByStatus(status string, limit int) ([]models.WebhookEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []models.WebhookEvent
	err := r.db.Where("status = ?", status).
		Order("received_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// CountByStatus counts events with a given status
func (r *webhookEventRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.WebhookEvent{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
