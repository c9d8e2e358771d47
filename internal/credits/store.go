package credits

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

// ErrInsufficientBalance signals a debit larger than the available balance.
var ErrInsufficientBalance = errors.New("insufficient credit balance")

const defaultHistoryLimit = 50

// DebitInput describes an atomic balance deduction.
type DebitInput struct {
	UserID  uuid.UUID
	Amount  int
	Context string
}

// CreditInput describes a balance addition. When ExternalRef is set the
// addition is exactly-once: a second call with the same ref is a no-op.
type CreditInput struct {
	UserID      uuid.UUID
	Amount      int
	Reason      enums.LedgerReason
	ExternalRef *string
	OrderRef    *string
	Context     string
}

// Store is the persistence surface behind the credit service. Debit must be
// atomic: the balance can never go below zero, even under concurrent callers.
type Store interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	Debit(ctx context.Context, input DebitInput) (int, error)
	Credit(ctx context.Context, input CreditInput) (balance int, applied bool, err error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.CreditLedgerEntry, error)
}
