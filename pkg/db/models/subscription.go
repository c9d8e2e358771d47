package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

// Subscription tracks one user's plan tier. A premium row past EndDate is
// flipped back to free lazily on the next read.
type Subscription struct {
	ID            uuid.UUID                `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID                `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Status        enums.SubscriptionStatus `gorm:"column:status;type:text;not null"`
	StartDate     *time.Time               `gorm:"column:start_date"`
	EndDate       *time.Time               `gorm:"column:end_date"`
	LastOrderID   *string                  `gorm:"column:last_order_id;type:text"`
	LastPaymentID *string                  `gorm:"column:last_payment_id;type:text"`
	CreatedAt     time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
