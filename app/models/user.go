package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleAdmin         = "ADMIN"
	RoleClient        = "CLIENT"
	RoleInterventoria = "INTERVENTORIA"
	RoleSupervisor    = "SUPERVISOR"

	UserStatusActive    = "ACTIVE"
	UserStatusSuspended = "SUSPENDED"
)

// Identification document types accepted for Colombian policy holders.
const (
	IDTypeCC       = "CC"
	IDTypeCE       = "CE"
	IDTypeNIT      = "NIT"
	IDTypePassport = "PASSPORT"
	IDTypeTI       = "TI"
)

type User struct {
	ID             uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	FullName       string         `gorm:"type:varchar(255);not null" json:"full_name" validate:"required,min=3,max=255"`
	IDType         string         `gorm:"type:varchar(20);not null;index:ux_users_id_type_number,unique,priority:1" json:"id_type" validate:"oneof=CC CE NIT PASSPORT TI"`
	IDNumber       string         `gorm:"type:varchar(50);not null;index:ux_users_id_type_number,unique,priority:2" json:"id_number" validate:"required,max=50"`
	BirthDate      *time.Time     `gorm:"type:date" json:"birth_date,omitempty"`
	Phone          string         `gorm:"type:varchar(20)" json:"phone" validate:"max=20"`
	Address        string         `gorm:"type:text" json:"address,omitempty"`
	EmailPrimary   string         `gorm:"uniqueIndex;type:varchar(200);not null" json:"email_primary" validate:"required,email,max=200"`
	EmailSecondary string         `gorm:"type:varchar(200);default:null" json:"email_secondary,omitempty" validate:"omitempty,email,max=200"`
	Password       string         `gorm:"type:text" json:"-"`
	APIKeyHash     string         `gorm:"type:varchar(64);default:null;index" json:"-"`
	Role           string         `gorm:"type:varchar(20);not null;default:'CLIENT';index:idx_users_role_status,priority:1" json:"role" validate:"oneof=ADMIN CLIENT INTERVENTORIA SUPERVISOR"`
	Status         string         `gorm:"type:varchar(20);not null;default:'ACTIVE';index:idx_users_role_status,priority:2" json:"status" validate:"oneof=ACTIVE SUSPENDED"`
	LastLoginAt    *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(fullName, idType, idNumber, email, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		FullName:     fullName,
		IDType:       idType,
		IDNumber:     idNumber,
		EmailPrimary: email,
		Password:     pw,
		Role:         RoleClient,
		Status:       UserStatusActive,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// IsActive reports whether the user may operate (suspended users keep their
// ledger history but cannot initiate payments).
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// HashAPIKey returns the hex SHA-256 digest stored for API key lookups.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

