package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// Repository provides the DB operations used by the ledger service.
type Repository interface {
	SumBalance(userID uuid.UUID) (decimal.Decimal, error)
	UpsertProjection(projection *models.BalanceProjection) error
	GetProjection(userID uuid.UUID) (*models.BalanceProjection, error)
}

// Service derives balances and maintains the cached projection. The ledger
// entry sequence is authoritative; the projection is only a read shortcut.
type Service struct {
	repo Repository
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// ComputeBalance derives the current balance from the entry sequence.
func (s *Service) ComputeBalance(userID uuid.UUID) (decimal.Decimal, error) {
	return s.repo.SumBalance(userID)
}

// RefreshProjection recomputes the cached balance for a user and returns it.
func (s *Service) RefreshProjection(userID uuid.UUID) (decimal.Decimal, error) {
	balance, err := s.repo.SumBalance(userID)
	if err != nil {
		return decimal.Zero, err
	}
	err = s.repo.UpsertProjection(&models.BalanceProjection{
		UserID:     userID,
		Balance:    balance,
		ComputedAt: time.Now(),
	})
	return balance, err
}

// Drift describes a cached projection that disagrees with the derived sum.
type Drift struct {
	UserID  uuid.UUID
	Cached  decimal.Decimal
	Derived decimal.Decimal
	Differs bool
}

// CheckProjection compares the cached projection against the derived balance.
// This is the body of the reconciliation job: any drift means the projection
// is stale or was corrupted, and the derived value wins.
func (s *Service) CheckProjection(userID uuid.UUID) (Drift, error) {
	derived, err := s.repo.SumBalance(userID)
	if err != nil {
		return Drift{}, err
	}
	cached, err := s.repo.GetProjection(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Drift{UserID: userID, Derived: derived, Differs: !derived.IsZero()}, nil
		}
		return Drift{}, err
	}
	return Drift{
		UserID:  userID,
		Cached:  cached.Balance,
		Derived: derived,
		Differs: !cached.Balance.Equal(derived),
	}, nil
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) SumBalance(userID uuid.UUID) (decimal.Decimal, error) {
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

func (r *gormRepository) UpsertProjection(projection *models.BalanceProjection) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "computed_at"}),
	}).Create(projection).Error
}

func (r *gormRepository) GetProjection(userID uuid.UUID) (*models.BalanceProjection, error) {
	var projection models.BalanceProjection
	err := r.db.Where("user_id = ?", userID).First(&projection).Error
	if err != nil {
		return nil, err
	}
	return &projection, nil
}
