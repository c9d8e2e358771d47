package models

import (
	"time"

	"github.com/google/uuid"
)

// CreditBalance holds the current spendable credits for one user. The value
// is only ever mutated through conditional updates; it never goes negative.
type CreditBalance struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Credits   int       `gorm:"column:credits;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
