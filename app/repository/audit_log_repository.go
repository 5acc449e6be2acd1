package repository

import (
	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// auditLogRepository implements the AuditLogRepository interface
type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository instance
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// ListByEntity lists audit entries for one entity, newest first
func (r *auditLogRepository) ListByEntity(entity, entityID string, limit int) ([]models.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.AuditLogEntry
	err := r.db.Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// ListByAction lists audit entries with a given action code, newest first
func (r *auditLogRepository) ListByAction(action string, limit int) ([]models.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.AuditLogEntry
	err := r.db.Where("action = ?", action).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
