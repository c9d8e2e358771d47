package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

// CreditLedgerEntry records an immutable balance mutation. Entries are only
// ever appended; the sum of Delta per user equals that user's balance.
// ExternalRef carries the gateway payment id for credits and is unique, which
// makes replayed settlements a no-op.
type CreditLedgerEntry struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Delta       int                `gorm:"column:delta;not null"`
	Reason      enums.LedgerReason `gorm:"column:reason;type:text;not null"`
	ExternalRef *string            `gorm:"column:external_ref;type:text;uniqueIndex:idx_ledger_external_ref"`
	OrderRef    *string            `gorm:"column:order_ref;type:text"`
	Context     string             `gorm:"column:context;type:text"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
