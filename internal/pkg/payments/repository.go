package payments

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// Repository provides the storage operations used by the webhook service.
// Everything that mutates payment state goes through InTransaction so the
// event row, payment row, ledger entries and audit trail commit or roll back
// as one unit.
type Repository interface {
	GetProvider(key string) (*models.PaymentProvider, error)
	InTransaction(ctx context.Context, fn func(tx TxRepository) error) error
	// SettleFailedEvent runs its own small transaction after a rollback so the
	// bare fact of a terminally failed delivery survives for operators.
	SettleFailedEvent(ctx context.Context, event *models.WebhookEvent, failure error, audit *models.AuditLogEntry) error
}

// TxRepository is the slice of Repository available inside one transaction.
type TxRepository interface {
	CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkEventSettled(id uint, status, lastError string) error
	GetPaymentForUpdate(provider, providerTxID string) (*models.Payment, error)
	SavePayment(payment *models.Payment) error
	AppendLedgerEntry(entry *models.LedgerEntry) error
	AppendAuditEntry(entry *models.AuditLogEntry) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetProvider(key string) (*models.PaymentProvider, error) {
	var provider models.PaymentProvider
	err := r.db.Where("`key` = ?", key).First(&provider).Error
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *gormRepository) InTransaction(ctx context.Context, fn func(tx TxRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTxRepository{db: tx})
	})
}

func (r *gormRepository) SettleFailedEvent(ctx context.Context, event *models.WebhookEvent, failure error, audit *models.AuditLogEntry) error {
	return r.InTransaction(ctx, func(tx TxRepository) error {
		_, stored, err := tx.CreateEventIfNotExists(event)
		if err != nil {
			return err
		}
		// A concurrent delivery may have settled the event meanwhile; the
		// first terminal status wins and is never overwritten.
		if stored.IsSettled() {
			return nil
		}
		if audit != nil {
			if err := tx.AppendAuditEntry(audit); err != nil {
				return err
			}
		}
		return tx.MarkEventSettled(stored.ID, models.WebhookEventFailed, failure.Error())
	})
}

type gormTxRepository struct {
	db *gorm.DB
}

// CreateEventIfNotExists inserts the event row or degrades to reading the
// existing one. The unique index on (provider, provider_event_id) decides the
// race at the storage layer; the losing insert affects zero rows and the
// follow-up read observes the winner.
func (t *gormTxRepository) CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := t.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := t.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (t *gormTxRepository) MarkEventSettled(id uint, status, lastError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       status,
		"processed_at": &now,
		"last_error":   lastError,
	}
	return t.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

// GetPaymentForUpdate locks the payment row for the rest of the transaction
// so two events referencing the same payment cannot interleave transitions.
func (t *gormTxRepository) GetPaymentForUpdate(provider, providerTxID string) (*models.Payment, error) {
	var payment models.Payment
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("method = ? AND provider_transaction_id = ?", provider, providerTxID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (t *gormTxRepository) SavePayment(payment *models.Payment) error {
	return t.db.Save(payment).Error
}

func (t *gormTxRepository) AppendLedgerEntry(entry *models.LedgerEntry) error {
	return t.db.Create(entry).Error
}

func (t *gormTxRepository) AppendAuditEntry(entry *models.AuditLogEntry) error {
	return t.db.Create(entry).Error
}
