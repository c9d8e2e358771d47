package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vichar-ai/vichar-backend/pkg/enums"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
	"github.com/vichar-ai/vichar-backend/pkg/metrics"
)

// Service defines the credit ledger operations exposed to controllers and to
// the payment reconciler.
type Service interface {
	Balance(ctx context.Context, userID uuid.UUID) (*BalanceDTO, error)
	Use(ctx context.Context, input UseCreditsInput) (*BalanceDTO, error)
	Add(ctx context.Context, input AddCreditsInput) (*AddCreditsResult, error)
	GrantSignup(ctx context.Context, userID uuid.UUID) error
	History(ctx context.Context, userID uuid.UUID, limit int) ([]LedgerEntryDTO, error)
}

type service struct {
	store       Store
	metrics     *metrics.LedgerMetrics
	signupGrant int
}

// UseCreditsInput describes a debit request.
type UseCreditsInput struct {
	UserID  uuid.UUID
	Amount  int
	Context string
}

// AddCreditsInput describes a credit addition. ExternalRef carries the payment
// identifier that makes purchases exactly-once.
type AddCreditsInput struct {
	UserID      uuid.UUID
	Amount      int
	Reason      enums.LedgerReason
	ExternalRef *string
	OrderRef    *string
	Context     string
}

// ServiceParams bundles the dependencies required to build a credit service.
type ServiceParams struct {
	Store       Store
	Metrics     *metrics.LedgerMetrics
	SignupGrant int
}

// NewService wires a credit service with the provided store.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("credit store is required")
	}
	return &service{
		store:       params.Store,
		metrics:     params.Metrics,
		signupGrant: params.SignupGrant,
	}, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*BalanceDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	balance, err := s.store.Balance(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read balance")
	}
	return &BalanceDTO{UserID: userID, Credits: balance}, nil
}

func (s *service) Use(ctx context.Context, input UseCreditsInput) (*BalanceDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	newBalance, err := s.store.Debit(ctx, DebitInput{
		UserID:  input.UserID,
		Amount:  input.Amount,
		Context: input.Context,
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			s.metrics.IncInsufficient()
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientCredits, "insufficient credits").
				WithDetails(map[string]any{"required": input.Amount})
		}
		// a store outage is never reported as a zero balance
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit credits")
	}

	s.metrics.IncDebit(input.Context)
	return &BalanceDTO{UserID: input.UserID, Credits: newBalance}, nil
}

func (s *service) Add(ctx context.Context, input AddCreditsInput) (*AddCreditsResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Reason.IsValid() || !input.Reason.IsCredit() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid credit reason %q", input.Reason))
	}

	balance, applied, err := s.store.Credit(ctx, CreditInput(input))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add credits")
	}

	if applied {
		s.metrics.IncCredit(input.Reason.String())
	}
	return &AddCreditsResult{
		Balance: BalanceDTO{UserID: input.UserID, Credits: balance},
		Applied: applied,
	}, nil
}

// GrantSignup seeds a new account with the configured free credits. The
// synthetic external ref keeps the grant exactly-once across retries.
func (s *service) GrantSignup(ctx context.Context, userID uuid.UUID) error {
	if s.signupGrant <= 0 {
		return nil
	}
	ref := fmt.Sprintf("signup:%s", userID)
	_, err := s.Add(ctx, AddCreditsInput{
		UserID:      userID,
		Amount:      s.signupGrant,
		Reason:      enums.LedgerReasonGrant,
		ExternalRef: &ref,
		Context:     "signup",
	})
	return err
}

func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) ([]LedgerEntryDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	entries, err := s.store.History(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	dtos := make([]LedgerEntryDTO, 0, len(entries))
	for i := range entries {
		dtos = append(dtos, entryFromModel(&entries[i]))
	}
	return dtos, nil
}
