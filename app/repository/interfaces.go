package repository

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// PaymentRepository defines read/create access to payments. Status mutations
// are owned by the payments engine and happen only inside its transaction.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uuid.UUID) (*models.Payment, error)
	GetByUserID(userID uuid.UUID, limit int) ([]models.Payment, error)
	GetByProviderTransactionID(provider, providerTxID string) (*models.Payment, error)
}

// WebhookEventRepository exposes event bookkeeping to the operator surface.
type WebhookEventRepository interface {
	GetByID(id uint) (*models.WebhookEvent, error)
	ListByStatus(status string, limit int) ([]models.WebhookEvent, error)
	CountByStatus(status string) (int64, error)
}

// LedgerRepository exposes read access to the append-only ledger.
type LedgerRepository interface {
	ListByUser(userID uuid.UUID, limit int) ([]models.LedgerEntry, error)
	SumBalance(userID uuid.UUID) (decimal.Decimal, error)
	CountByReference(reference string) (int64, error)
}

// AuditLogRepository exposes read access to the audit trail.
type AuditLogRepository interface {
	ListByEntity(entity, entityID string, limit int) ([]models.AuditLogEntry, error)
	ListByAction(action string, limit int) ([]models.AuditLogEntry, error)
}

// ProviderRepository resolves payment provider webhook configuration.
type ProviderRepository interface {
	GetByKey(key string) (*models.PaymentProvider, error)
	ListActive() ([]models.PaymentProvider, error)
	Save(provider *models.PaymentProvider) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Payment      PaymentRepository
	WebhookEvent WebhookEventRepository
	Ledger       LedgerRepository
	AuditLog     AuditLogRepository
	Provider     ProviderRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Payment:      NewPaymentRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
		Ledger:       NewLedgerRepository(db),
		AuditLog:     NewAuditLogRepository(db),
		Provider:     NewProviderRepository(db),
	}
}
