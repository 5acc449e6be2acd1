package models

import "time"

// PaymentProvider holds per-provider webhook verification configuration.
// Secrets rotate without touching already processed events: dedup keys and
// stored payloads never embed secret material.
type PaymentProvider struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Key             string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"key"`
	WebhookSecret   string    `gorm:"type:varchar(191);not null" json:"-"`
	SigningRequired bool      `gorm:"not null;default:true" json:"signing_required"`
	IsActive        bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
