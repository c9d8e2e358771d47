package credits

import (
	"time"

	"github.com/google/uuid"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

// BalanceDTO is the transport shape for a user's credit balance.
type BalanceDTO struct {
	UserID  uuid.UUID `json:"user_id"`
	Credits int       `json:"credits"`
}

// AddCreditsResult reports the balance after an addition and whether the
// addition was applied or deduplicated.
type AddCreditsResult struct {
	Balance BalanceDTO `json:"balance"`
	Applied bool       `json:"applied"`
}

// LedgerEntryDTO is the transport shape for one ledger line.
type LedgerEntryDTO struct {
	ID          uuid.UUID          `json:"id"`
	Delta       int                `json:"delta"`
	Reason      enums.LedgerReason `json:"reason"`
	ExternalRef *string            `json:"external_ref,omitempty"`
	OrderRef    *string            `json:"order_ref,omitempty"`
	Context     string             `json:"context,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func entryFromModel(entry *models.CreditLedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:          entry.ID,
		Delta:       entry.Delta,
		Reason:      entry.Reason,
		ExternalRef: entry.ExternalRef,
		OrderRef:    entry.OrderRef,
		Context:     entry.Context,
		CreatedAt:   entry.CreatedAt,
	}
}
