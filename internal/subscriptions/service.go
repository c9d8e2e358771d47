package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vichar-ai/vichar-backend/pkg/db/models"
	"github.com/vichar-ai/vichar-backend/pkg/enums"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
	"github.com/vichar-ai/vichar-backend/pkg/logger"
)

// StatusDTO is the transport shape for a user's subscription state.
type StatusDTO struct {
	UserID    uuid.UUID                `json:"user_id"`
	Status    enums.SubscriptionStatus `json:"status"`
	IsPremium bool                     `json:"is_premium"`
	StartDate *time.Time               `json:"start_date,omitempty"`
	EndDate   *time.Time               `json:"end_date,omitempty"`
}

// ActivateInput carries the settled payment that upgrades the account.
type ActivateInput struct {
	UserID     uuid.UUID
	Interval   enums.PlanInterval
	OrderRef   string
	PaymentRef string
}

// Service defines subscription state operations. Expiry is lazy: a premium
// row past its end date flips back to free on the next Status read.
type Service interface {
	Status(ctx context.Context, userID uuid.UUID) (*StatusDTO, error)
	Activate(ctx context.Context, input ActivateInput) (*StatusDTO, error)
	IsPremium(ctx context.Context, userID uuid.UUID) (bool, error)
}

type service struct {
	repo   Repository
	logger *logger.Logger
	now    func() time.Time
}

// ServiceParams bundles the dependencies required to build a subscription service.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
	Now    func() time.Time
}

// NewService wires a subscription service with the provided repository.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repository is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, logger: params.Logger, now: now}, nil
}

func (s *service) Status(ctx context.Context, userID uuid.UUID) (*StatusDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	sub, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &StatusDTO{UserID: userID, Status: enums.SubscriptionStatusFree}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}

	if s.expireIfDue(ctx, sub) {
		return &StatusDTO{
			UserID:    userID,
			Status:    enums.SubscriptionStatusFree,
			StartDate: sub.StartDate,
			EndDate:   sub.EndDate,
		}, nil
	}

	return &StatusDTO{
		UserID:    userID,
		Status:    sub.Status,
		IsPremium: sub.Status == enums.SubscriptionStatusPremium,
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
	}, nil
}

// Activate upgrades the account after a settled payment. Renewing an active
// premium extends from the current end date rather than from now.
func (s *service) Activate(ctx context.Context, input ActivateInput) (*StatusDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Interval.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid plan interval %q", input.Interval))
	}

	now := s.now()
	start := now
	base := now

	existing, err := s.repo.Get(ctx, input.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}
	// a payment buys exactly one period; replaying it returns the state it
	// already bought instead of extending again
	if existing != nil && input.PaymentRef != "" &&
		existing.LastPaymentID != nil && *existing.LastPaymentID == input.PaymentRef {
		return s.statusFromRow(existing), nil
	}
	if existing != nil && existing.Status == enums.SubscriptionStatusPremium &&
		existing.EndDate != nil && existing.EndDate.After(now) {
		base = *existing.EndDate
		if existing.StartDate != nil {
			start = *existing.StartDate
		}
	}

	end := base.Add(input.Interval.Duration())

	sub := &models.Subscription{
		ID:        uuid.New(),
		UserID:    input.UserID,
		Status:    enums.SubscriptionStatusPremium,
		StartDate: &start,
		EndDate:   &end,
	}
	if existing != nil {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	}
	if input.OrderRef != "" {
		sub.LastOrderID = &input.OrderRef
	}
	if input.PaymentRef != "" {
		sub.LastPaymentID = &input.PaymentRef
	}

	applied, err := s.repo.UpsertForPayment(ctx, sub)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save subscription")
	}
	if !applied {
		// lost the race against a concurrent verify of the same payment;
		// the stored row already reflects the activation
		current, err := s.repo.Get(ctx, input.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload subscription")
		}
		return s.statusFromRow(current), nil
	}

	return &StatusDTO{
		UserID:    input.UserID,
		Status:    enums.SubscriptionStatusPremium,
		IsPremium: true,
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
	}, nil
}

// statusFromRow converts a stored row, applying the same lapsed-premium view
// that Status reports.
func (s *service) statusFromRow(sub *models.Subscription) *StatusDTO {
	premium := sub.Status == enums.SubscriptionStatusPremium &&
		(sub.EndDate == nil || sub.EndDate.After(s.now()))
	status := enums.SubscriptionStatusFree
	if premium {
		status = enums.SubscriptionStatusPremium
	}
	return &StatusDTO{
		UserID:    sub.UserID,
		Status:    status,
		IsPremium: premium,
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
	}
}

// IsPremium is the gating check used by the analysis service.
func (s *service) IsPremium(ctx context.Context, userID uuid.UUID) (bool, error) {
	status, err := s.Status(ctx, userID)
	if err != nil {
		return false, err
	}
	return status.IsPremium, nil
}

// expireIfDue flips a lapsed premium row to free and persists the change.
// Returns true when the row was expired.
func (s *service) expireIfDue(ctx context.Context, sub *models.Subscription) bool {
	if sub.Status != enums.SubscriptionStatusPremium {
		return false
	}
	if sub.EndDate == nil || sub.EndDate.After(s.now()) {
		return false
	}

	sub.Status = enums.SubscriptionStatusFree
	if err := s.repo.Upsert(ctx, sub); err != nil && s.logger != nil {
		// a failed write just means the next read retries the expiry
		s.logger.Warn(s.logger.WithUserID(ctx, sub.UserID.String()), "persisting lazy subscription expiry failed")
	}
	return true
}
