package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

// PaymentOrder mirrors a gateway order created on behalf of a user. The
// purpose and amounts recorded here are set at creation time; verification
// never trusts client-echoed values.
type PaymentOrder struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey"`
	GatewayOrderID string             `gorm:"column:gateway_order_id;type:text;not null;uniqueIndex"`
	UserID         uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Purpose        enums.OrderPurpose `gorm:"column:purpose;type:text;not null"`
	PackageID      *string            `gorm:"column:package_id;type:text"`
	Plan           *string            `gorm:"column:plan;type:text"`
	Interval       *string            `gorm:"column:plan_interval;type:text"`
	Credits        int                `gorm:"column:credits;not null;default:0"`
	AmountPaise    int64              `gorm:"column:amount_paise;not null"`
	Currency       string             `gorm:"column:currency;type:text;not null"`
	Status         enums.OrderStatus  `gorm:"column:status;type:text;not null"`
	PaymentID      *string            `gorm:"column:payment_id;type:text"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
