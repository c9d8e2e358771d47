package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/vichar-ai/vichar-backend/internal/subscriptions"
	"github.com/vichar-ai/vichar-backend/pkg/db/models"
	"github.com/vichar-ai/vichar-backend/pkg/enums"
)

// CreateCreditOrderRequest selects a credit package from the server catalog.
type CreateCreditOrderRequest struct {
	PackageID string `json:"package_id" validate:"required"`
}

// CreateSubscriptionOrderRequest selects a premium term from the server catalog.
type CreateSubscriptionOrderRequest struct {
	Interval string `json:"interval" validate:"required,oneof=monthly yearly"`
}

// CreateOrderResponse carries everything the checkout client needs to open
// the gateway payment sheet.
type CreateOrderResponse struct {
	OrderID     string `json:"order_id"`
	AmountPaise int64  `json:"amount_paise"`
	Currency    string `json:"currency"`
	KeyID       string `json:"key_id"`
}

// VerifyPaymentRequest is the post-checkout callback payload. Field names
// mirror what the Razorpay checkout handler returns to the client.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// VerifyPaymentResponse reports what the settled payment bought.
type VerifyPaymentResponse struct {
	Purpose          enums.OrderPurpose        `json:"purpose"`
	CreditsAdded     int                       `json:"credits_added,omitempty"`
	Balance          int                       `json:"balance,omitempty"`
	Subscription     *subscriptions.StatusDTO  `json:"subscription,omitempty"`
	AlreadyProcessed bool                      `json:"already_processed"`
}

// OrderDTO is the transport shape for one payment order.
type OrderDTO struct {
	ID             uuid.UUID          `json:"id"`
	GatewayOrderID string             `json:"order_id"`
	Purpose        enums.OrderPurpose `json:"purpose"`
	PackageID      *string            `json:"package_id,omitempty"`
	Plan           *string            `json:"plan,omitempty"`
	Interval       *string            `json:"interval,omitempty"`
	Credits        int                `json:"credits,omitempty"`
	AmountPaise    int64              `json:"amount_paise"`
	Currency       string             `json:"currency"`
	Status         enums.OrderStatus  `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}

func orderFromModel(order *models.PaymentOrder) OrderDTO {
	return OrderDTO{
		ID:             order.ID,
		GatewayOrderID: order.GatewayOrderID,
		Purpose:        order.Purpose,
		PackageID:      order.PackageID,
		Plan:           order.Plan,
		Interval:       order.Interval,
		Credits:        order.Credits,
		AmountPaise:    order.AmountPaise,
		Currency:       order.Currency,
		Status:         order.Status,
		CreatedAt:      order.CreatedAt,
	}
}
