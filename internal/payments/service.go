package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vichar-ai/vichar-backend/internal/credits"
	"github.com/vichar-ai/vichar-backend/internal/subscriptions"
	"github.com/vichar-ai/vichar-backend/pkg/db/models"
	"github.com/vichar-ai/vichar-backend/pkg/enums"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
	"github.com/vichar-ai/vichar-backend/pkg/logger"
	"github.com/vichar-ai/vichar-backend/pkg/metrics"
	"github.com/vichar-ai/vichar-backend/pkg/razorpay"
)

// Note keys written into gateway orders at creation time. The gateway echoes
// them back, making the order record reconstructable from the gateway alone.
const (
	noteKeyUserID   = "user_id"
	noteKeyType     = "type"
	noteKeyPackage  = "package"
	noteKeyCredits  = "credits"
	noteKeyPlan     = "plan"
	noteKeyInterval = "interval"
)

// Verification outcomes recorded on the metrics counter.
const (
	outcomeSuccess          = "success"
	outcomeReplay           = "replay"
	outcomeInvalidSignature = "invalid_signature"
	outcomeNotCaptured      = "not_captured"
	outcomeAccountMismatch  = "account_mismatch"
	outcomeOrderMismatch    = "order_mismatch"
)

// Service creates gateway orders and settles verified payments.
type Service interface {
	CreateCreditOrder(ctx context.Context, userID uuid.UUID, req CreateCreditOrderRequest) (*CreateOrderResponse, error)
	CreateSubscriptionOrder(ctx context.Context, userID uuid.UUID, req CreateSubscriptionOrderRequest) (*CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, userID uuid.UUID, req VerifyPaymentRequest) (*VerifyPaymentResponse, error)
	ListOrders(ctx context.Context, userID uuid.UUID, limit int) ([]OrderDTO, error)
}

type service struct {
	gateway       razorpay.Gateway
	orders        OrderRepository
	credits       credits.Service
	subscriptions subscriptions.Service
	metrics       *metrics.LedgerMetrics
	logger        *logger.Logger
}

// ServiceParams bundles the dependencies required to build a payment service.
type ServiceParams struct {
	Gateway       razorpay.Gateway
	Orders        OrderRepository
	Credits       credits.Service
	Subscriptions subscriptions.Service
	Metrics       *metrics.LedgerMetrics
	Logger        *logger.Logger
}

// NewService wires a payment service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.Credits == nil {
		return nil, fmt.Errorf("credit service is required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service is required")
	}
	return &service{
		gateway:       params.Gateway,
		orders:        params.Orders,
		credits:       params.Credits,
		subscriptions: params.Subscriptions,
		metrics:       params.Metrics,
		logger:        params.Logger,
	}, nil
}

func (s *service) CreateCreditOrder(ctx context.Context, userID uuid.UUID, req CreateCreditOrderRequest) (*CreateOrderResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	pkg, err := LookupCreditPackage(req.PackageID)
	if err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderParams{
		AmountPaise: pkg.AmountPaise,
		Currency:    pkg.Currency,
		Receipt:     newReceipt(userID),
		Notes: map[string]string{
			noteKeyUserID:  userID.String(),
			noteKeyType:    enums.OrderPurposeCredits.String(),
			noteKeyPackage: pkg.ID,
			noteKeyCredits: strconv.Itoa(pkg.Credits),
		},
	})
	if err != nil {
		return nil, err
	}

	packageID := pkg.ID
	record := &models.PaymentOrder{
		ID:             uuid.New(),
		GatewayOrderID: order.ID,
		UserID:         userID,
		Purpose:        enums.OrderPurposeCredits,
		PackageID:      &packageID,
		Credits:        pkg.Credits,
		AmountPaise:    pkg.AmountPaise,
		Currency:       pkg.Currency,
		Status:         enums.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save payment order")
	}

	return &CreateOrderResponse{
		OrderID:     order.ID,
		AmountPaise: pkg.AmountPaise,
		Currency:    pkg.Currency,
		KeyID:       s.gateway.KeyID(),
	}, nil
}

func (s *service) CreateSubscriptionOrder(ctx context.Context, userID uuid.UUID, req CreateSubscriptionOrderRequest) (*CreateOrderResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	interval, err := enums.ParsePlanInterval(req.Interval)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	plan, err := LookupPremiumPlan(interval)
	if err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderParams{
		AmountPaise: plan.AmountPaise,
		Currency:    plan.Currency,
		Receipt:     newReceipt(userID),
		Notes: map[string]string{
			noteKeyUserID:   userID.String(),
			noteKeyType:     enums.OrderPurposeSubscription.String(),
			noteKeyPlan:     plan.Plan,
			noteKeyInterval: interval.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	planName := plan.Plan
	intervalName := interval.String()
	record := &models.PaymentOrder{
		ID:             uuid.New(),
		GatewayOrderID: order.ID,
		UserID:         userID,
		Purpose:        enums.OrderPurposeSubscription,
		Plan:           &planName,
		Interval:       &intervalName,
		AmountPaise:    plan.AmountPaise,
		Currency:       plan.Currency,
		Status:         enums.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save payment order")
	}

	return &CreateOrderResponse{
		OrderID:     order.ID,
		AmountPaise: plan.AmountPaise,
		Currency:    plan.Currency,
		KeyID:       s.gateway.KeyID(),
	}, nil
}

// VerifyPayment settles a checkout callback. The signature proves the
// order/payment pair came from the gateway; the payment state and the order
// record are then re-read from our own store and the gateway, never from the
// client.
func (s *service) VerifyPayment(ctx context.Context, userID uuid.UUID, req VerifyPaymentRequest) (*VerifyPaymentResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	if !razorpay.VerifySignature(req.OrderID, req.PaymentID, req.Signature, s.gateway.KeySecret()) {
		s.metrics.IncVerification(outcomeInvalidSignature)
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSignature, "invalid payment signature")
	}

	order, err := s.loadOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		s.metrics.IncVerification(outcomeAccountMismatch)
		return nil, pkgerrors.New(pkgerrors.CodeAccountMismatch, "order does not belong to this account")
	}

	// replays of an already-settled order are acknowledged, not re-applied
	if order.Status == enums.OrderStatusCompleted {
		s.metrics.IncVerification(outcomeReplay)
		return s.replayResponse(ctx, order)
	}

	payment, err := s.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment.OrderID != req.OrderID {
		s.metrics.IncVerification(outcomeOrderMismatch)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment does not belong to order")
	}
	if !payment.Captured() {
		s.metrics.IncVerification(outcomeNotCaptured)
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotCaptured, "payment not captured").
			WithDetails(map[string]any{"payment_status": payment.Status})
	}

	resp, err := s.settle(ctx, order, req.PaymentID)
	if err != nil {
		return nil, err
	}

	paymentID := req.PaymentID
	if err := s.orders.SetStatus(ctx, order.ID, enums.OrderStatusCompleted, &paymentID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order completed")
	}

	s.metrics.IncVerification(outcomeSuccess)
	return resp, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, limit int) ([]OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	orders, err := s.orders.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	dtos := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, orderFromModel(&orders[i]))
	}
	return dtos, nil
}

func (s *service) settle(ctx context.Context, order *models.PaymentOrder, paymentID string) (*VerifyPaymentResponse, error) {
	switch order.Purpose {
	case enums.OrderPurposeCredits:
		orderRef := order.GatewayOrderID
		result, err := s.credits.Add(ctx, credits.AddCreditsInput{
			UserID:      order.UserID,
			Amount:      order.Credits,
			Reason:      enums.LedgerReasonPurchase,
			ExternalRef: &paymentID,
			OrderRef:    &orderRef,
			Context:     "purchase",
		})
		if err != nil {
			return nil, err
		}
		added := order.Credits
		if !result.Applied {
			added = 0
		}
		return &VerifyPaymentResponse{
			Purpose:          enums.OrderPurposeCredits,
			CreditsAdded:     added,
			Balance:          result.Balance.Credits,
			AlreadyProcessed: !result.Applied,
		}, nil

	case enums.OrderPurposeSubscription:
		if order.Interval == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription order missing interval")
		}
		interval, err := enums.ParsePlanInterval(*order.Interval)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse order interval")
		}
		status, err := s.subscriptions.Activate(ctx, subscriptions.ActivateInput{
			UserID:     order.UserID,
			Interval:   interval,
			OrderRef:   order.GatewayOrderID,
			PaymentRef: paymentID,
		})
		if err != nil {
			return nil, err
		}
		return &VerifyPaymentResponse{
			Purpose:      enums.OrderPurposeSubscription,
			Subscription: status,
		}, nil

	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown order purpose %q", order.Purpose))
	}
}

// replayResponse answers a duplicate verification without touching balances
// or subscription dates.
func (s *service) replayResponse(ctx context.Context, order *models.PaymentOrder) (*VerifyPaymentResponse, error) {
	resp := &VerifyPaymentResponse{
		Purpose:          order.Purpose,
		AlreadyProcessed: true,
	}
	switch order.Purpose {
	case enums.OrderPurposeCredits:
		balance, err := s.credits.Balance(ctx, order.UserID)
		if err != nil {
			return nil, err
		}
		resp.Balance = balance.Credits
	case enums.OrderPurposeSubscription:
		status, err := s.subscriptions.Status(ctx, order.UserID)
		if err != nil {
			return nil, err
		}
		resp.Subscription = status
	}
	return resp, nil
}

// loadOrder prefers the local record; an order missing locally (for example
// after a store wipe in memory mode) is reconstructed from the gateway notes.
func (s *service) loadOrder(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error) {
	order, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment order")
	}

	gatewayOrder, err := s.gateway.FetchOrder(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	rebuilt, err := orderFromGatewayNotes(gatewayOrder)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, rebuilt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore payment order")
	}
	if s.logger != nil {
		s.logger.Warn(s.logger.WithOrderID(ctx, gatewayOrderID), "payment order restored from gateway notes")
	}
	return rebuilt, nil
}

func orderFromGatewayNotes(order *razorpay.Order) (*models.PaymentOrder, error) {
	notes := order.Notes
	userID, err := uuid.Parse(notes[noteKeyUserID])
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no usable owner")
	}
	purpose, err := enums.ParseOrderPurpose(notes[noteKeyType])
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no usable purpose")
	}

	record := &models.PaymentOrder{
		ID:             uuid.New(),
		GatewayOrderID: order.ID,
		UserID:         userID,
		Purpose:        purpose,
		AmountPaise:    order.Amount,
		Currency:       order.Currency,
		Status:         enums.OrderStatusPending,
	}

	switch purpose {
	case enums.OrderPurposeCredits:
		creditsCount, err := strconv.Atoi(notes[noteKeyCredits])
		if err != nil || creditsCount <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no usable credit amount")
		}
		record.Credits = creditsCount
		if pkgID := notes[noteKeyPackage]; pkgID != "" {
			record.PackageID = &pkgID
		}
	case enums.OrderPurposeSubscription:
		interval := notes[noteKeyInterval]
		if _, err := enums.ParsePlanInterval(interval); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no usable interval")
		}
		record.Interval = &interval
		if plan := notes[noteKeyPlan]; plan != "" {
			record.Plan = &plan
		}
	}
	return record, nil
}

func newReceipt(userID uuid.UUID) string {
	return fmt.Sprintf("rcpt_%s_%s", userID.String()[:8], uuid.NewString()[:8])
}
